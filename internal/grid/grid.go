// Package grid provides fixed-rank dense arrays addressed by (x, y, k), used for
// per-tile chunk data. Layout is x-major: index = (x*height + y)*depth + k.
package grid

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Elem is the set of element types a Grid can hold.
type Elem interface {
	uint8 | uint64
}

// Grid is a width × height × depth dense array.
type Grid[T Elem] struct {
	width, height, depth int
	data                 []T
}

// New allocates a zeroed grid.
func New[T Elem](width, height, depth int) *Grid[T] {
	if width < 0 || height < 0 || depth <= 0 {
		panic(fmt.Sprintf("grid: invalid shape %dx%dx%d", width, height, depth))
	}
	return &Grid[T]{
		width:  width,
		height: height,
		depth:  depth,
		data:   make([]T, width*height*depth),
	}
}

// FromSlice wraps data as a grid without copying.
func FromSlice[T Elem](width, height, depth int, data []T) (*Grid[T], error) {
	if width*height*depth != len(data) {
		return nil, fmt.Errorf("grid: shape %dx%dx%d does not match %d elements", width, height, depth, len(data))
	}
	return &Grid[T]{width: width, height: height, depth: depth, data: data}, nil
}

func (g *Grid[T]) Width() int  { return g.width }
func (g *Grid[T]) Height() int { return g.height }
func (g *Grid[T]) Depth() int  { return g.depth }

func (g *Grid[T]) offset(x, y int) int {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		panic(fmt.Sprintf("grid: (%d,%d) outside %dx%d", x, y, g.width, g.height))
	}
	return (x*g.height + y) * g.depth
}

// At returns element k of cell (x, y).
func (g *Grid[T]) At(x, y, k int) T {
	return g.data[g.offset(x, y)+k]
}

// Set stores element k of cell (x, y).
func (g *Grid[T]) Set(x, y, k int, v T) {
	g.data[g.offset(x, y)+k] = v
}

// Cell returns the depth elements of (x, y). The slice aliases the grid.
func (g *Grid[T]) Cell(x, y int) []T {
	o := g.offset(x, y)
	return g.data[o : o+g.depth : o+g.depth]
}

// Slice copies the half-open rectangle [x0,x1) × [y0,y1) into a new grid.
func (g *Grid[T]) Slice(x0, x1, y0, y1 int) *Grid[T] {
	if x0 < 0 || y0 < 0 || x1 > g.width || y1 > g.height || x0 > x1 || y0 > y1 {
		panic(fmt.Sprintf("grid: slice [%d,%d)x[%d,%d) outside %dx%d", x0, x1, y0, y1, g.width, g.height))
	}
	out := New[T](x1-x0, y1-y0, g.depth)
	for x := x0; x < x1; x++ {
		src := g.data[(x*g.height+y0)*g.depth : (x*g.height+y1)*g.depth]
		copy(out.data[(x-x0)*out.height*out.depth:], src)
	}
	return out
}

// Blit copies src into g with its origin at (x, y).
func (g *Grid[T]) Blit(src *Grid[T], x, y int) {
	if src.depth != g.depth {
		panic(fmt.Sprintf("grid: blit depth %d into %d", src.depth, g.depth))
	}
	if x < 0 || y < 0 || x+src.width > g.width || y+src.height > g.height {
		panic(fmt.Sprintf("grid: blit %dx%d at (%d,%d) outside %dx%d", src.width, src.height, x, y, g.width, g.height))
	}
	row := src.height * src.depth
	for sx := range src.width {
		dst := ((x+sx)*g.height + y) * g.depth
		copy(g.data[dst:dst+row], src.data[sx*row:(sx+1)*row])
	}
}

// Binary layout: magic, element width (1 byte), width/height/depth (uint32 LE), payload LE.
var magic = [4]byte{'T', 'G', 'R', 'D'}

const headerSize = 4 + 1 + 3*4

// ErrFormat is returned when a buffer does not hold a grid of the expected type.
var ErrFormat = errors.New("grid: bad format")

func elemWidth[T Elem]() int {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return 1
	default:
		return 8
	}
}

// MarshalBinary encodes the grid with its shape.
func (g *Grid[T]) MarshalBinary() ([]byte, error) {
	ew := elemWidth[T]()
	buf := make([]byte, headerSize+len(g.data)*ew)
	copy(buf, magic[:])
	buf[4] = byte(ew)
	binary.LittleEndian.PutUint32(buf[5:], uint32(g.width))
	binary.LittleEndian.PutUint32(buf[9:], uint32(g.height))
	binary.LittleEndian.PutUint32(buf[13:], uint32(g.depth))

	payload := buf[headerSize:]
	switch data := any(g.data).(type) {
	case []uint8:
		copy(payload, data)
	case []uint64:
		for i, v := range data {
			binary.LittleEndian.PutUint64(payload[i*8:], v)
		}
	}
	return buf, nil
}

// UnmarshalBinary decodes a buffer produced by MarshalBinary.
func (g *Grid[T]) UnmarshalBinary(buf []byte) error {
	if len(buf) < headerSize || [4]byte(buf[:4]) != magic {
		return fmt.Errorf("%w: missing header", ErrFormat)
	}
	ew := elemWidth[T]()
	if int(buf[4]) != ew {
		return fmt.Errorf("%w: element width %d, want %d", ErrFormat, buf[4], ew)
	}
	w := int(binary.LittleEndian.Uint32(buf[5:]))
	h := int(binary.LittleEndian.Uint32(buf[9:]))
	d := int(binary.LittleEndian.Uint32(buf[13:]))
	payload := buf[headerSize:]
	if d <= 0 || len(payload) != w*h*d*ew {
		return fmt.Errorf("%w: shape %dx%dx%d does not match %d payload bytes", ErrFormat, w, h, d, len(payload))
	}

	data := make([]T, w*h*d)
	switch out := any(data).(type) {
	case []uint8:
		copy(out, payload)
	case []uint64:
		for i := range out {
			out[i] = binary.LittleEndian.Uint64(payload[i*8:])
		}
	}
	g.width, g.height, g.depth, g.data = w, h, d, data
	return nil
}

// Decode is a convenience wrapper around UnmarshalBinary.
func Decode[T Elem](buf []byte) (*Grid[T], error) {
	g := &Grid[T]{}
	if err := g.UnmarshalBinary(buf); err != nil {
		return nil, err
	}
	return g, nil
}
