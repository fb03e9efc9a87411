package geo

import "github.com/zyedidia/generic/mapset"

// MoveMap answers movement bitmask lookups for one floor.
// Tiles without data must read as 0.
type MoveMap interface {
	Movement(x, y int32) byte
	Contains(x, y int32) bool
}

// WalkRange returns the tiles reachable from (x, y) by ordinary stepping within the
// 5x5 window, each with its arrival facing.
//
// The immediate neighbours are admitted in seedOrder; every admitted neighbour is then
// expanded once. A tile keeps the first facing it was found with.
func WalkRange(m MoveMap, x, y int32) []Reach {
	visited := mapset.New[Tile]()
	visited.Put(Tile{X: x, Y: y})

	var (
		seeds [Directions]Tile
		n     int
		tiles = make([]Reach, 0, WalkWindow*WalkWindow-1)
	)

	origin := m.Movement(x, y)
	for _, d := range seedOrder {
		if !CanMove(origin, d) {
			continue
		}
		dx, dy := d.Step()
		t := Tile{X: x + dx, Y: y + dy}
		visited.Put(t)
		seeds[n] = t
		n++
		if m.Contains(t.X, t.Y) {
			tiles = append(tiles, Reach{X: t.X, Y: t.Y, Facing: d})
		}
	}

	for _, s := range seeds[:n] {
		mask := m.Movement(s.X, s.Y)
		for d := range Direction(Directions) {
			if !CanMove(mask, d) {
				continue
			}
			dx, dy := d.Step()
			t := Tile{X: s.X + dx, Y: s.Y + dy}
			if visited.Has(t) {
				continue
			}
			visited.Put(t)
			if m.Contains(t.X, t.Y) {
				tiles = append(tiles, Reach{X: t.X, Y: t.Y, Facing: d})
			}
		}
	}
	return tiles
}

// walkCode returns the nibble index of a relative offset inside the 5x5 window.
func walkCode(dx, dy int32) int {
	return int(dx+WalkRadius) + int(dy+WalkRadius)*WalkWindow
}

// PackWalk encodes walk destinations of the tile at (x, y) into two words of
// four-bit facing codes. Unset codes hold 0xF.
func PackWalk(x, y int32, tiles []Reach) [WalkWords]uint64 {
	words := [WalkWords]uint64{^uint64(0), ^uint64(0)}
	for _, t := range tiles {
		dx, dy := t.X-x, t.Y-y
		if abs32(dx) > WalkRadius || abs32(dy) > WalkRadius || !t.Facing.Valid() {
			continue
		}
		k := walkCode(dx, dy)
		shift := uint(4 * (k % 16))
		words[k/16] &^= uint64(absentCode) << shift
		words[k/16] |= uint64(t.Facing) << shift
	}
	return words
}

// UnpackWalk appends the destinations encoded in words to dst.
// Codes outside 0-7 are treated as absent.
func UnpackWalk(x, y int32, words []uint64, dst []Reach) []Reach {
	for i, w := range words {
		for j := range 16 {
			k := j + 16*i
			if k >= WalkWindow*WalkWindow {
				break
			}
			code := (w >> (4 * j)) & absentCode
			if code >= Directions {
				continue
			}
			dst = append(dst, Reach{
				X:      x - WalkRadius + int32(k%WalkWindow),
				Y:      y - WalkRadius + int32(k/WalkWindow),
				Facing: Direction(code),
			})
		}
	}
	return dst
}
