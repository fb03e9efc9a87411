package planner

import (
	"fmt"

	"github.com/udisondev/tilenav/internal/geo"
)

// Map is the read-only view of the world the search runs on.
type Map interface {
	Contains(x, y int32) bool
	WalkRange(x, y int32) []geo.Reach
	DashRange(x, y int32) []geo.Reach
	SurgeRange(x, y int32, d geo.Direction) (int32, int32)
	EscapeRange(x, y int32, d geo.Direction) (int32, int32)
}

// Cooldowns holds the four ability counters. 0 means ready, geo.MaxCooldown just used.
type Cooldowns struct {
	Shared uint8 // secd, shared by both teleports
	Surge  uint8 // scd
	Escape uint8 // ecd
	Dash   uint8 // bdcd
}

// Valid reports whether every counter is within [0, geo.MaxCooldown].
func (c Cooldowns) Valid() bool {
	return c.Shared <= geo.MaxCooldown && c.Surge <= geo.MaxCooldown &&
		c.Escape <= geo.MaxCooldown && c.Dash <= geo.MaxCooldown
}

func (c Cooldowns) tick() Cooldowns {
	return Cooldowns{
		Shared: dec(c.Shared),
		Surge:  dec(c.Surge),
		Escape: dec(c.Escape),
		Dash:   dec(c.Dash),
	}
}

func dec(v uint8) uint8 {
	if v == 0 {
		return 0
	}
	return v - 1
}

// State is one search node. It is a value: transitions return a modified copy and
// two states are the same node iff all fields match.
type State struct {
	X, Y   int32
	Facing geo.Direction
	CD     Cooldowns
}

func (s State) String() string {
	return fmt.Sprintf("(%d,%d %s cd=%d/%d/%d/%d)",
		s.X, s.Y, s.Facing, s.CD.Shared, s.CD.Surge, s.CD.Escape, s.CD.Dash)
}

// Tile returns the position of s.
func (s State) Tile() geo.Tile {
	return geo.Tile{X: s.X, Y: s.Y}
}

// AtGoal reports whether s is within one tile (Chebyshev) of goal.
func (s State) AtGoal(goal geo.Tile) bool {
	return geo.Chebyshev(s.X, s.Y, goal.X, goal.Y) <= 1
}

// Advance lets one timestep pass: every cooldown drops by one, floored at 0.
func (s State) Advance() State {
	s.CD = s.CD.tick()
	return s
}

// MoveTo relocates without touching cooldowns. A walk step is MoveTo followed by Advance.
func (s State) MoveTo(x, y int32, facing geo.Direction) State {
	s.X, s.Y, s.Facing = x, y, facing
	return s
}

func (s State) CanDash() bool {
	return s.CD.Dash == 0
}

func (s State) CanTeleportForward() bool {
	return s.CD.Shared == 0 || s.CD.Surge == 0
}

func (s State) CanTeleportBackward() bool {
	return s.CD.Shared == 0 || s.CD.Escape == 0
}

// Dash relocates to a dash destination and puts the dash on cooldown.
// Panics if the dash is not ready.
func (s State) Dash(x, y int32, facing geo.Direction) State {
	if !s.CanDash() {
		panic(fmt.Sprintf("planner: dash from %v while on cooldown", s))
	}
	s.X, s.Y, s.Facing = x, y, facing
	s.CD.Dash = geo.MaxCooldown
	return s
}

// TeleportForward surges along the current facing. The shared cooldown is spent
// first; otherwise the surge-specific one is. Panics if neither is ready.
func (s State) TeleportForward(m Map) State {
	if !s.CanTeleportForward() {
		panic(fmt.Sprintf("planner: surge from %v while on cooldown", s))
	}
	s.X, s.Y = m.SurgeRange(s.X, s.Y, s.Facing)
	if s.CD.Shared == 0 {
		s.CD.Shared = geo.MaxCooldown
		s.CD.Surge = max(geo.TeleportFloor, s.CD.Surge)
		s.CD.Escape = geo.MaxCooldown
	} else {
		s.CD.Shared = max(geo.TeleportFloor, s.CD.Shared)
		s.CD.Surge = geo.MaxCooldown
		s.CD.Escape = max(geo.TeleportFloor, s.CD.Escape)
	}
	return s
}

// TeleportBackward escapes against the current facing, with the cooldown roles of
// surge and escape swapped. Panics if neither the shared nor the escape cooldown is ready.
func (s State) TeleportBackward(m Map) State {
	if !s.CanTeleportBackward() {
		panic(fmt.Sprintf("planner: escape from %v while on cooldown", s))
	}
	s.X, s.Y = m.EscapeRange(s.X, s.Y, s.Facing)
	if s.CD.Shared == 0 {
		s.CD.Shared = geo.MaxCooldown
		s.CD.Surge = geo.MaxCooldown
		s.CD.Escape = max(geo.TeleportFloor, s.CD.Escape)
	} else {
		s.CD.Shared = max(geo.TeleportFloor, s.CD.Shared)
		s.CD.Surge = max(geo.TeleportFloor, s.CD.Surge)
		s.CD.Escape = geo.MaxCooldown
	}
	return s
}
