package geo

import "math/bits"

// DashMask marks the tiles of the 21x21 window around a tile that the dash can reach.
// Bit (dx+10) + (dy+10)*21, row-major, spread over seven words.
type DashMask [DashWords]uint64

func dashBit(dx, dy int32) int {
	return int(dx+DashRadius) + int(dy+DashRadius)*DashWindow
}

func inDashWindow(dx, dy int32) bool {
	return abs32(dx) <= DashRadius && abs32(dy) <= DashRadius
}

// Set marks the relative offset (dx, dy). Offsets outside the window are ignored.
func (m *DashMask) Set(dx, dy int32) {
	if !inDashWindow(dx, dy) {
		return
	}
	b := dashBit(dx, dy)
	m[b/64] |= 1 << (b % 64)
}

// Clear unmarks the relative offset (dx, dy).
func (m *DashMask) Clear(dx, dy int32) {
	if !inDashWindow(dx, dy) {
		return
	}
	b := dashBit(dx, dy)
	m[b/64] &^= 1 << (b % 64)
}

// Has reports whether (dx, dy) is marked.
func (m *DashMask) Has(dx, dy int32) bool {
	if !inDashWindow(dx, dy) {
		return false
	}
	b := dashBit(dx, dy)
	return m[b/64]>>(b%64)&1 == 1
}

// Len returns the number of marked tiles.
func (m *DashMask) Len() int {
	n := 0
	for _, w := range m {
		for ; w != 0; w &= w - 1 {
			n++
		}
	}
	return n
}

// Offsets returns the marked relative offsets in bit order.
func (m *DashMask) Offsets() []Tile {
	out := make([]Tile, 0, m.Len())
	for b := range DashBits {
		if m[b/64]>>(b%64)&1 == 1 {
			out = append(out, Tile{X: int32(b%DashWindow) - DashRadius, Y: int32(b/DashWindow) - DashRadius})
		}
	}
	return out
}

// UnpackDash appends the absolute dash destinations of (x, y) to dst, each with the
// facing given by Classify. Bits beyond the 441-bit window are ignored.
func UnpackDash(x, y int32, words []uint64, dst []Reach) []Reach {
	for i, w := range words {
		for ; w != 0; w &= w - 1 {
			b := i*64 + bits.TrailingZeros64(w)
			if b >= DashBits {
				break
			}
			dx := int32(b%DashWindow) - DashRadius
			dy := int32(b/DashWindow) - DashRadius
			dst = append(dst, Reach{X: x + dx, Y: y + dy, Facing: Classify(dx, dy)})
		}
	}
	return dst
}

// dashArm is one quadrant of the dash expansion: a diagonal and its two axis components.
type dashArm struct {
	diag, horiz, vert Direction
}

var dashArms = [4]dashArm{
	{NorthEast, East, North},
	{SouthEast, East, South},
	{SouthWest, West, South},
	{NorthWest, West, North},
}

// DashRange computes the dash mask of (x, y).
//
// Each arm walks the diagonal while both axis distances are below DashRadius and the
// diagonal edge is open; once blocked it carries on along whichever axis is still open.
// Every tile on the way also fills straight along both axis components. The origin is
// never part of the result.
func DashRange(m MoveMap, x, y int32) DashMask {
	var mask DashMask
	for _, arm := range dashArms {
		w := dashWalker{m: m, ox: x, oy: y, arm: arm, mask: &mask}
		w.expand(x, y, 0, 0)
	}
	mask.Clear(0, 0)
	return mask
}

type dashWalker struct {
	m        MoveMap
	ox, oy   int32
	arm      dashArm
	mask     *DashMask
	expanded [DashBits]bool
}

func (w *dashWalker) mark(x, y int32) {
	if w.m.Contains(x, y) {
		w.mask.Set(x-w.ox, y-w.oy)
	}
}

// expand visits (x, y) at axis distances (ax, ay) from the origin.
func (w *dashWalker) expand(x, y, ax, ay int32) {
	b := dashBit(x-w.ox, y-w.oy)
	if w.expanded[b] {
		return
	}
	w.expanded[b] = true
	w.mark(x, y)
	w.fill(x, y, ax, w.arm.horiz)
	w.fill(x, y, ay, w.arm.vert)

	mask := w.m.Movement(x, y)
	if ax < DashRadius && ay < DashRadius && CanMove(mask, w.arm.diag) {
		dx, dy := w.arm.diag.Step()
		w.expand(x+dx, y+dy, ax+1, ay+1)
		return
	}
	if ax < DashRadius && CanMove(mask, w.arm.horiz) {
		dx, dy := w.arm.horiz.Step()
		w.expand(x+dx, y+dy, ax+1, ay)
	}
	if ay < DashRadius && CanMove(mask, w.arm.vert) {
		dx, dy := w.arm.vert.Step()
		w.expand(x+dx, y+dy, ax, ay+1)
	}
}

// fill marks tiles straight along d until blocked or the axis distance reaches DashRadius.
func (w *dashWalker) fill(x, y, dist int32, d Direction) {
	dx, dy := d.Step()
	for dist < DashRadius && CanMove(w.m.Movement(x, y), d) {
		x, y, dist = x+dx, y+dy, dist+1
		w.mark(x, y)
	}
}
