package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashMaskBits(t *testing.T) {
	var m DashMask
	assert.Equal(t, 0, m.Len())

	m.Set(-10, -10)
	m.Set(10, 10)
	m.Set(3, -2)
	m.Set(11, 0) // outside the window
	assert.Equal(t, 3, m.Len())
	assert.True(t, m.Has(-10, -10))
	assert.True(t, m.Has(10, 10))
	assert.True(t, m.Has(3, -2))
	assert.False(t, m.Has(11, 0))
	assert.False(t, m.Has(0, 0))

	assert.Equal(t, []Tile{{X: -10, Y: -10}, {X: 3, Y: -2}, {X: 10, Y: 10}}, m.Offsets())

	m.Clear(3, -2)
	assert.False(t, m.Has(3, -2))
	assert.Equal(t, 2, m.Len())

	// The last window bit sits in the seventh word.
	assert.Equal(t, uint64(1)<<(440-6*64), m[6])
}

func TestUnpackDash(t *testing.T) {
	var m DashMask
	m.Set(0, 10)
	m.Set(-4, -4)
	m.Set(7, 2)

	got := UnpackDash(100, 200, m[:], nil)
	assert.ElementsMatch(t, []Reach{
		{X: 100, Y: 210, Facing: North},
		{X: 96, Y: 196, Facing: SouthWest},
		{X: 107, Y: 202, Facing: East},
	}, got)
}

func TestUnpackDashIgnoresPadding(t *testing.T) {
	words := make([]uint64, DashWords)
	words[6] = ^uint64(0) // bits 384..447, of which 441..447 are padding
	got := UnpackDash(0, 0, words, nil)
	assert.Len(t, got, DashBits-6*64)
}

func TestDashRangeOpenGrid(t *testing.T) {
	m := newTestMap(40, 40)

	mask := DashRange(m, 20, 20)
	assert.Equal(t, DashBits-1, mask.Len(), "every tile of the window except the origin")
	assert.False(t, mask.Has(0, 0))
	assert.True(t, mask.Has(10, 10))
	assert.True(t, mask.Has(-10, 7))
	assert.True(t, mask.Has(10, -3))
}

func TestDashRangeCorner(t *testing.T) {
	m := newTestMap(40, 40)

	mask := DashRange(m, 0, 0)
	assert.Equal(t, (DashRadius+1)*(DashRadius+1)-1, mask.Len())
	for _, off := range mask.Offsets() {
		assert.GreaterOrEqual(t, off.X, int32(0))
		assert.GreaterOrEqual(t, off.Y, int32(0))
	}
}

func TestDashRangeWall(t *testing.T) {
	m := newTestMap(40, 40)
	for y := range int32(40) {
		m.block(22, y)
	}

	mask := DashRange(m, 20, 20)
	for _, off := range mask.Offsets() {
		assert.Less(t, off.X, int32(2), "dash crossed the wall to %v", off)
	}
	assert.True(t, mask.Has(1, 10))
	assert.True(t, mask.Has(-10, -10))
}

func TestDashRangeBlockedOrigin(t *testing.T) {
	m := newTestMap(40, 40)
	m.block(20, 20)
	mask := DashRange(m, 20, 20)
	assert.Equal(t, 0, mask.Len())
}

func TestDashRangeDetour(t *testing.T) {
	m := newTestMap(40, 40)
	// A wall north of the origin with a gap at its east end.
	for x := int32(15); x <= 22; x++ {
		m.block(x, 22)
	}

	mask := DashRange(m, 20, 20)
	assert.True(t, mask.Has(4, 5), "reached around the wall")
	assert.False(t, mask.Has(0, 2), "wall tile")
	assert.False(t, mask.Has(-5, 2), "wall tile")
}

// Every dash destination must be reachable by ordinary steps without leaving the
// window: the expansion never jumps over a closed edge.
func TestDashRangeSoundAgainstBFS(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		m := randomMap(seed, 41, 41, 0.25, 20, 20)
		reachable := boxReachable(m, 20, 20)

		mask := DashRange(m, 20, 20)
		for _, off := range mask.Offsets() {
			require.True(t, reachable[Tile{X: 20 + off.X, Y: 20 + off.Y}],
				"seed %d: dash reaches %v which BFS cannot", seed, off)
		}
	}
}

// On obstacle-free maps the expansion and the bounded BFS agree exactly.
func TestDashRangeCompleteWithoutObstacles(t *testing.T) {
	for _, origin := range []Tile{{X: 20, Y: 20}, {X: 3, Y: 17}, {X: 39, Y: 0}} {
		m := newTestMap(40, 40)
		reachable := boxReachable(m, origin.X, origin.Y)
		delete(reachable, origin)

		mask := DashRange(m, origin.X, origin.Y)
		assert.Equal(t, len(reachable), mask.Len(), "origin %v", origin)
	}
}
