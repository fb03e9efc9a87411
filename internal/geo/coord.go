package geo

import "fmt"

// Tile is a tile coordinate on one floor.
type Tile struct {
	X, Y int32
}

// Reach is a destination tile together with the facing on arrival.
type Reach struct {
	X, Y   int32
	Facing Direction
}

// World describes the tile extents and chunking of the map.
type World struct {
	Width     int32
	Height    int32
	ChunkSize int32
	Floors    int32
}

// DefaultWorld returns the full-size world layout.
func DefaultWorld() World {
	return World{
		Width:     DefaultWorldWidth,
		Height:    DefaultWorldHeight,
		ChunkSize: DefaultChunkSize,
		Floors:    DefaultFloors,
	}
}

// Validate checks that the world is chunk-aligned.
func (w World) Validate() error {
	if w.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", w.ChunkSize)
	}
	if w.Width <= 0 || w.Height <= 0 {
		return fmt.Errorf("world extents must be positive, got %dx%d", w.Width, w.Height)
	}
	if w.Width%w.ChunkSize != 0 || w.Height%w.ChunkSize != 0 {
		return fmt.Errorf("world %dx%d is not a multiple of chunk size %d", w.Width, w.Height, w.ChunkSize)
	}
	if w.Floors <= 0 {
		return fmt.Errorf("floors must be positive, got %d", w.Floors)
	}
	return nil
}

// Contains reports whether (x, y) lies inside the world.
func (w World) Contains(x, y int32) bool {
	return x >= 0 && y >= 0 && x < w.Width && y < w.Height
}

// ChunksX returns the number of chunk columns.
func (w World) ChunksX() int32 {
	return w.Width / w.ChunkSize
}

// ChunksY returns the number of chunk rows.
func (w World) ChunksY() int32 {
	return w.Height / w.ChunkSize
}

// ChunkOf returns the chunk holding (x, y). Coordinates must be inside the world.
func (w World) ChunkOf(x, y int32) (cx, cy int32) {
	return x / w.ChunkSize, y / w.ChunkSize
}

// Chebyshev returns max(|dx|, |dy|).
func Chebyshev(x1, y1, x2, y2 int32) int32 {
	return max(abs32(x1-x2), abs32(y1-y2))
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
