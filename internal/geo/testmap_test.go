package geo

import "math/rand/v2"

// testMap is an open rectangle with blocked tiles. Edges into blocked or outside tiles
// are closed; blocked tiles have no open edges.
type testMap struct {
	w, h    int32
	blocked map[Tile]bool
}

func newTestMap(w, h int32) *testMap {
	return &testMap{w: w, h: h, blocked: make(map[Tile]bool)}
}

func (m *testMap) block(x, y int32) { m.blocked[Tile{X: x, Y: y}] = true }

func (m *testMap) Contains(x, y int32) bool {
	return x >= 0 && y >= 0 && x < m.w && y < m.h
}

func (m *testMap) open(x, y int32) bool {
	return m.Contains(x, y) && !m.blocked[Tile{X: x, Y: y}]
}

func (m *testMap) Movement(x, y int32) byte {
	if !m.open(x, y) {
		return 0
	}
	var mask byte
	for d := range Direction(Directions) {
		dx, dy := d.Step()
		if m.open(x+dx, y+dy) {
			mask |= edgeBits[d]
		}
	}
	return mask
}

// randomMap blocks roughly density of the tiles, never (keepX, keepY).
func randomMap(seed uint64, w, h int32, density float64, keepX, keepY int32) *testMap {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	m := newTestMap(w, h)
	for x := range w {
		for y := range h {
			if (x != keepX || y != keepY) && r.Float64() < density {
				m.block(x, y)
			}
		}
	}
	return m
}

// boxReachable returns the tiles reachable from (x, y) by single steps without
// leaving the dash window around it.
func boxReachable(m MoveMap, x, y int32) map[Tile]bool {
	seen := map[Tile]bool{{X: x, Y: y}: true}
	queue := []Tile{{X: x, Y: y}}
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		mask := m.Movement(t.X, t.Y)
		for d := range Direction(Directions) {
			if !CanMove(mask, d) {
				continue
			}
			dx, dy := d.Step()
			n := Tile{X: t.X + dx, Y: t.Y + dy}
			if seen[n] || abs32(n.X-x) > DashRadius || abs32(n.Y-y) > DashRadius {
				continue
			}
			seen[n] = true
			queue = append(queue, n)
		}
	}
	return seen
}
