package planner

import (
	"math/rand/v2"
	"sync"

	"github.com/udisondev/tilenav/internal/geo"
)

// tileMap is an in-memory Map over a w x h rectangle with blocked tiles.
type tileMap struct {
	w, h    int32
	blocked map[geo.Tile]bool

	walk  map[geo.Tile][]geo.Reach
	dash  map[geo.Tile][]geo.Reach
	surge map[geo.Tile][geo.Directions]byte
}

// newTileMap derives walk, dash and teleport data from the layout. Without abilities
// only walk data is present.
func newTileMap(w, h int32, blocked []geo.Tile, abilities bool) *tileMap {
	m := &tileMap{
		w:       w,
		h:       h,
		blocked: make(map[geo.Tile]bool),
		walk:    make(map[geo.Tile][]geo.Reach),
		dash:    make(map[geo.Tile][]geo.Reach),
		surge:   make(map[geo.Tile][geo.Directions]byte),
	}
	for _, t := range blocked {
		m.blocked[t] = true
	}
	for x := range w {
		for y := range h {
			t := geo.Tile{X: x, Y: y}
			m.walk[t] = geo.WalkRange(m, x, y)
			if !abilities {
				continue
			}
			mask := geo.DashRange(m, x, y)
			m.dash[t] = geo.UnpackDash(x, y, mask[:], nil)
			m.surge[t] = geo.TeleportOffsets(&mask)
		}
	}
	return m
}

func randomTileMap(seed uint64, w, h int32, density float64) *tileMap {
	r := rand.New(rand.NewPCG(seed, seed*31+7))
	var blocked []geo.Tile
	for x := range w {
		for y := range h {
			if r.Float64() < density {
				blocked = append(blocked, geo.Tile{X: x, Y: y})
			}
		}
	}
	return newTileMap(w, h, blocked, true)
}

func (m *tileMap) Contains(x, y int32) bool {
	return x >= 0 && y >= 0 && x < m.w && y < m.h
}

func (m *tileMap) open(x, y int32) bool {
	return m.Contains(x, y) && !m.blocked[geo.Tile{X: x, Y: y}]
}

func (m *tileMap) Movement(x, y int32) byte {
	if !m.open(x, y) {
		return 0
	}
	var mask byte
	bits := [geo.Directions]byte{
		geo.EdgeNorth, geo.EdgeNorthEast, geo.EdgeEast, geo.EdgeSouthEast,
		geo.EdgeSouth, geo.EdgeSouthWest, geo.EdgeWest, geo.EdgeNorthWest,
	}
	for d := range geo.Direction(geo.Directions) {
		dx, dy := d.Step()
		if m.open(x+dx, y+dy) {
			mask |= bits[d]
		}
	}
	return mask
}

func (m *tileMap) WalkRange(x, y int32) []geo.Reach {
	return m.walk[geo.Tile{X: x, Y: y}]
}

func (m *tileMap) DashRange(x, y int32) []geo.Reach {
	return m.dash[geo.Tile{X: x, Y: y}]
}

func (m *tileMap) SurgeRange(x, y int32, d geo.Direction) (int32, int32) {
	off := m.surge[geo.Tile{X: x, Y: y}][d]
	return geo.Advance(x, y, d, geo.ForwardOffset(off))
}

func (m *tileMap) EscapeRange(x, y int32, d geo.Direction) (int32, int32) {
	off := m.surge[geo.Tile{X: x, Y: y}][d]
	return geo.Advance(x, y, d.Opposite(), geo.BackwardOffset(off))
}

// walkComponent returns the open tiles reachable from (x, y) by walking.
func (m *tileMap) walkComponent(x, y int32) []geo.Tile {
	start := geo.Tile{X: x, Y: y}
	seen := map[geo.Tile]bool{start: true}
	queue := []geo.Tile{start}
	var out []geo.Tile
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		out = append(out, t)
		for _, r := range m.walk[t] {
			n := geo.Tile{X: r.X, Y: r.Y}
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	return out
}

// zeroHeuristic turns the search into Dijkstra.
type zeroHeuristic struct{}

func (zeroHeuristic) Estimate(State, geo.Tile) int { return 0 }

const testTableDistance = 40

var testTable = sync.OnceValue(func() *Table {
	t, err := BuildTable(testTableDistance)
	if err != nil {
		panic(err)
	}
	return t
})
