package geo

import (
	"fmt"
	"strconv"
	"strings"
)

// Direction is a compass facing. North is +Y.
type Direction uint8

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

var (
	stepX = [Directions]int32{0, 1, 1, 1, 0, -1, -1, -1}
	stepY = [Directions]int32{1, 1, 0, -1, -1, -1, 0, 1}

	edgeBits = [Directions]byte{
		EdgeNorth, EdgeNorthEast, EdgeEast, EdgeSouthEast,
		EdgeSouth, EdgeSouthWest, EdgeWest, EdgeNorthWest,
	}

	directionNames = [Directions]string{"n", "ne", "e", "se", "s", "sw", "w", "nw"}
)

// seedOrder is the order in which the immediate neighbours of a tile are visited
// when building walk data: index (2i + i/4) mod 8, i.e. N, E, S, W, NE, SE, SW, NW.
// It decides which facing a tile gets when two routes reach it.
var seedOrder = func() [Directions]Direction {
	var order [Directions]Direction
	for i := range Directions {
		order[i] = Direction((2*i + i/4) % Directions)
	}
	return order
}()

// Valid reports whether d is one of the eight compass directions.
func (d Direction) Valid() bool {
	return d < Directions
}

// Step returns the unit offset of d.
func (d Direction) Step() (dx, dy int32) {
	return stepX[d], stepY[d]
}

// Opposite returns the direction pointing the other way.
func (d Direction) Opposite() Direction {
	return (d + 4) % Directions
}

// Diagonal reports whether d is NE, SE, SW or NW.
func (d Direction) Diagonal() bool {
	return d%2 == 1
}

func (d Direction) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
	return directionNames[d]
}

// ParseDirection accepts a compass abbreviation ("n", "NE", ...) or a digit 0-7.
func ParseDirection(s string) (Direction, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range directionNames {
		if s == name {
			return Direction(i), nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n >= Directions {
		return 0, fmt.Errorf("invalid direction %q", s)
	}
	return Direction(n), nil
}

// CanMove reports whether the movement bitmask allows leaving the tile towards d.
func CanMove(mask byte, d Direction) bool {
	return mask&edgeBits[d] != 0
}

// Classify buckets a relative offset into a facing. Offsets on an axis map to the
// axis direction; exact diagonals always land on a diagonal direction.
func Classify(dx, dy int32) Direction {
	ax, ay := abs32(dx), abs32(dy)
	switch {
	case dx == 0:
		if dy > 0 {
			return North
		}
		return South
	case dy == 0:
		if dx > 0 {
			return East
		}
		return West
	case (14*ax+7)/(2*ay+1) > 15:
		if dx > 0 {
			return East
		}
		return West
	case (14*ay+7)/(2*ax+1) > 15:
		if dy > 0 {
			return North
		}
		return South
	case dx > 0:
		if dy > 0 {
			return NorthEast
		}
		return SouthEast
	default:
		if dy > 0 {
			return NorthWest
		}
		return SouthWest
	}
}
