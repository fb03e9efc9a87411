// Package section stitches the chunks covering a bounding box into one addressable
// region and answers the reachability queries the planner runs on.
package section

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/udisondev/tilenav/internal/geo"
	"github.com/udisondev/tilenav/internal/grid"
	"github.com/udisondev/tilenav/internal/storage"
)

// Box is an inclusive tile rectangle.
type Box struct {
	XStart, XEnd int32
	YStart, YEnd int32
}

// Width returns the number of tile columns.
func (b Box) Width() int32 { return b.XEnd - b.XStart + 1 }

// Height returns the number of tile rows.
func (b Box) Height() int32 { return b.YEnd - b.YStart + 1 }

// Contains reports whether (x, y) lies inside the box.
func (b Box) Contains(x, y int32) bool {
	return x >= b.XStart && x <= b.XEnd && y >= b.YStart && y <= b.YEnd
}

func (b Box) String() string {
	return fmt.Sprintf("[%d..%d]x[%d..%d]", b.XStart, b.XEnd, b.YStart, b.YEnd)
}

// Section is a read-only stitched region of one floor. Walk and dash destinations are
// decoded once at construction into per-tile lists; destinations outside the box are
// dropped so every answer can be queried again.
type Section struct {
	box   Box
	floor int32
	surge *grid.Grid[uint8]

	walkIdx []int32
	walk    []geo.Reach
	dashIdx []int32
	dash    []geo.Reach
}

// New builds a section from stitched grids of the box's shape: walk depth
// geo.WalkWords, dash depth geo.DashWords, surge depth geo.Directions.
func New(box Box, floor int32, walk, dash *grid.Grid[uint64], surge *grid.Grid[uint8]) (*Section, error) {
	if box.Width() <= 0 || box.Height() <= 0 {
		return nil, fmt.Errorf("empty section box %s", box)
	}
	w, h := int(box.Width()), int(box.Height())
	if err := checkShape("walk", walk.Width(), walk.Height(), walk.Depth(), w, h, geo.WalkWords); err != nil {
		return nil, err
	}
	if err := checkShape("dash", dash.Width(), dash.Height(), dash.Depth(), w, h, geo.DashWords); err != nil {
		return nil, err
	}
	if err := checkShape("surge", surge.Width(), surge.Height(), surge.Depth(), w, h, geo.Directions); err != nil {
		return nil, err
	}

	s := &Section{box: box, floor: floor, surge: surge}
	s.walkIdx, s.walk = s.decode(walk, geo.UnpackWalk)
	s.dashIdx, s.dash = s.decode(dash, geo.UnpackDash)
	return s, nil
}

func checkShape(name string, gw, gh, gd, w, h, d int) error {
	if gw != w || gh != h || gd != d {
		return fmt.Errorf("%s grid is %dx%dx%d, want %dx%dx%d", name, gw, gh, gd, w, h, d)
	}
	return nil
}

type unpackFunc func(x, y int32, words []uint64, dst []geo.Reach) []geo.Reach

// decode flattens per-tile destination lists: tile i owns out[idx[i]:idx[i+1]].
func (s *Section) decode(g *grid.Grid[uint64], unpack unpackFunc) ([]int32, []geo.Reach) {
	w, h := g.Width(), g.Height()
	idx := make([]int32, 0, w*h+1)
	out := make([]geo.Reach, 0, w*h*4)
	var scratch []geo.Reach

	idx = append(idx, 0)
	for lx := range w {
		for ly := range h {
			x, y := s.box.XStart+int32(lx), s.box.YStart+int32(ly)
			scratch = unpack(x, y, g.Cell(lx, ly), scratch[:0])
			for _, r := range scratch {
				if s.box.Contains(r.X, r.Y) {
					out = append(out, r)
				}
			}
			idx = append(idx, int32(len(out)))
		}
	}
	return idx, out
}

// Bounds returns the section box.
func (s *Section) Bounds() Box { return s.box }

// Floor returns the floor the section was built for.
func (s *Section) Floor() int32 { return s.floor }

// Contains reports whether (x, y) can be queried.
func (s *Section) Contains(x, y int32) bool { return s.box.Contains(x, y) }

// local converts world coordinates to section-local ones. Panics outside the box.
func (s *Section) local(x, y int32) (int, int) {
	if !s.box.Contains(x, y) {
		panic(fmt.Sprintf("section: (%d,%d) outside %s", x, y, s.box))
	}
	return int(x - s.box.XStart), int(y - s.box.YStart)
}

func (s *Section) tile(x, y int32) int {
	lx, ly := s.local(x, y)
	return lx*int(s.box.Height()) + ly
}

// WalkRange returns the walk destinations of (x, y). The slice must not be modified.
func (s *Section) WalkRange(x, y int32) []geo.Reach {
	i := s.tile(x, y)
	lo, hi := s.walkIdx[i], s.walkIdx[i+1]
	return s.walk[lo:hi:hi]
}

// DashRange returns the dash destinations of (x, y). The slice must not be modified.
func (s *Section) DashRange(x, y int32) []geo.Reach {
	i := s.tile(x, y)
	lo, hi := s.dashIdx[i], s.dashIdx[i+1]
	return s.dash[lo:hi:hi]
}

// SurgeRange returns the surge destination from (x, y) facing d.
func (s *Section) SurgeRange(x, y int32, d geo.Direction) (int32, int32) {
	lx, ly := s.local(x, y)
	off := geo.ForwardOffset(s.surge.At(lx, ly, int(d)))
	return geo.Advance(x, y, d, off)
}

// EscapeRange returns the escape destination from (x, y) facing d. Escape moves
// against the facing.
func (s *Section) EscapeRange(x, y int32, d geo.Direction) (int32, int32) {
	lx, ly := s.local(x, y)
	off := geo.BackwardOffset(s.surge.At(lx, ly, int(d)))
	return geo.Advance(x, y, d.Opposite(), off)
}

// Load reads every walk, dash and surge chunk intersecting box on floor and stitches
// them. A missing chunk is an error.
func Load(ctx context.Context, store storage.Store, world geo.World, box Box, floor int32) (*Section, error) {
	if box.Width() <= 0 || box.Height() <= 0 ||
		!world.Contains(box.XStart, box.YStart) || !world.Contains(box.XEnd, box.YEnd) {
		return nil, fmt.Errorf("section box %s outside world %dx%d", box, world.Width, world.Height)
	}
	if floor < 0 || floor >= world.Floors {
		return nil, fmt.Errorf("floor %d outside [0,%d)", floor, world.Floors)
	}

	start := time.Now()
	walk, err := stitch[uint64](ctx, store, world, box, floor, storage.KindWalk, geo.WalkWords)
	if err != nil {
		return nil, err
	}
	dash, err := stitch[uint64](ctx, store, world, box, floor, storage.KindDash, geo.DashWords)
	if err != nil {
		return nil, err
	}
	surge, err := stitch[uint8](ctx, store, world, box, floor, storage.KindSurge, geo.Directions)
	if err != nil {
		return nil, err
	}

	s, err := New(box, floor, walk, dash, surge)
	if err != nil {
		return nil, err
	}
	slog.Debug("map section loaded",
		"box", box.String(),
		"floor", floor,
		"walk_edges", len(s.walk),
		"dash_edges", len(s.dash),
		"elapsed", time.Since(start))
	return s, nil
}

// stitch copies the overlap of every chunk of kind with box into one grid.
func stitch[T grid.Elem](ctx context.Context, store storage.Store, world geo.World, box Box, floor int32, kind storage.Kind, depth int) (*grid.Grid[T], error) {
	cs := world.ChunkSize
	out := grid.New[T](int(box.Width()), int(box.Height()), depth)

	cx0, cy0 := world.ChunkOf(box.XStart, box.YStart)
	cx1, cy1 := world.ChunkOf(box.XEnd, box.YEnd)
	for cx := cx0; cx <= cx1; cx++ {
		for cy := cy0; cy <= cy1; cy++ {
			key := storage.ChunkKey{X: cx, Y: cy, Floor: floor}
			chunk, err := storage.LoadGrid[T](ctx, store, kind, key)
			if err != nil {
				return nil, fmt.Errorf("loading %s chunk %s: %w", kind, key, err)
			}
			if chunk.Width() != int(cs) || chunk.Height() != int(cs) || chunk.Depth() != depth {
				return nil, fmt.Errorf("%s chunk %s is %dx%dx%d, want %dx%dx%d",
					kind, key, chunk.Width(), chunk.Height(), chunk.Depth(), cs, cs, depth)
			}

			// Overlap in world coordinates, inclusive.
			ox0, ox1 := max(box.XStart, cx*cs), min(box.XEnd, cx*cs+cs-1)
			oy0, oy1 := max(box.YStart, cy*cs), min(box.YEnd, cy*cs+cs-1)

			part := chunk.Slice(int(ox0-cx*cs), int(ox1-cx*cs)+1, int(oy0-cy*cs), int(oy1-cy*cs)+1)
			out.Blit(part, int(ox0-box.XStart), int(oy0-box.YStart))
		}
	}
	return out, nil
}
