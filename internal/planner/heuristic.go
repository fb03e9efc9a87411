package planner

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/udisondev/tilenav/internal/geo"
	"github.com/udisondev/tilenav/internal/storage"
)

// MaxTableDistance bounds the table so every cost fits in a byte (cost <= ceil(d/2)).
const MaxTableDistance = 500

const (
	dashStep   = geo.DashRadius
	surgeStep  = geo.SurgeReach
	escapeStep = geo.EscapeReach
	walkStep   = geo.WalkRadius
)

// Heuristic estimates the remaining timesteps from s to goal.
type Heuristic interface {
	Estimate(s State, goal geo.Tile) int
}

// Table is the precomputed lower bound on timesteps needed to close a Chebyshev
// distance given the four cooldowns. Indexed [distance][secd][scd][ecd][bdcd].
// Immutable once built.
type Table struct {
	maxDistance int
	data        []uint8
}

const cdStride = geo.CooldownStates

func tableIndex(d int, c Cooldowns) int {
	return (((d*cdStride+int(c.Shared))*cdStride+int(c.Surge))*cdStride+int(c.Escape))*cdStride + int(c.Dash)
}

// BuildTable fills the table bottom-up by increasing distance. Every branch refers to a
// strictly smaller distance, so one pass suffices.
func BuildTable(maxDistance int) (*Table, error) {
	if maxDistance < 0 || maxDistance > MaxTableDistance {
		return nil, fmt.Errorf("max distance %d outside [0,%d]", maxDistance, MaxTableDistance)
	}
	const layer = cdStride * cdStride * cdStride * cdStride
	t := &Table{
		maxDistance: maxDistance,
		data:        make([]uint8, (maxDistance+1)*layer),
	}

	at := func(d int, c Cooldowns) int {
		if d <= 0 {
			return 0
		}
		return int(t.data[tableIndex(d, c)])
	}

	for d := 1; d <= maxDistance; d++ {
		for secd := range uint8(cdStride) {
			for scd := range uint8(cdStride) {
				for ecd := range uint8(cdStride) {
					for bdcd := range uint8(cdStride) {
						c := Cooldowns{Shared: secd, Surge: scd, Escape: ecd, Dash: bdcd}
						t.data[tableIndex(d, c)] = uint8(cellCost(d, c, at))
					}
				}
			}
		}
	}
	return t, nil
}

// cellCost takes the minimum over the ability branches whose guard holds.
func cellCost(d int, c Cooldowns, at func(int, Cooldowns) int) int {
	best := -1
	take := func(v int) {
		if best < 0 || v < best {
			best = v
		}
	}

	if c.Dash == 0 {
		take(at(d-dashStep, Cooldowns{Shared: c.Shared, Surge: c.Surge, Escape: c.Escape, Dash: geo.MaxCooldown}))
	}

	switch {
	case c.Shared == 0:
		take(at(d-surgeStep, Cooldowns{
			Shared: geo.MaxCooldown,
			Surge:  max(geo.TeleportFloor, c.Surge),
			Escape: geo.MaxCooldown,
			Dash:   c.Dash,
		}))
	case c.Surge == 0:
		take(at(d-surgeStep, Cooldowns{
			Shared: max(geo.TeleportFloor, c.Shared),
			Surge:  geo.MaxCooldown,
			Escape: max(geo.TeleportFloor, c.Escape),
			Dash:   c.Dash,
		}))
	}

	switch {
	case c.Shared == 0:
		take(at(d-escapeStep, Cooldowns{
			Shared: geo.MaxCooldown,
			Surge:  geo.MaxCooldown,
			Escape: max(geo.TeleportFloor, c.Escape),
			Dash:   c.Dash,
		}))
	case c.Escape == 0:
		take(at(d-escapeStep, Cooldowns{
			Shared: max(geo.TeleportFloor, c.Shared),
			Surge:  max(geo.TeleportFloor, c.Surge),
			Escape: geo.MaxCooldown,
			Dash:   c.Dash,
		}))
	}

	if c.Shared != 0 && c.Dash != 0 {
		take(at(d-walkStep, c.tick()) + 1)
	}
	return best
}

// MaxDistance returns the largest distance the table covers.
func (t *Table) MaxDistance() int {
	return t.maxDistance
}

// Cost returns the bound for a distance, clamped to [0, MaxDistance].
func (t *Table) Cost(distance int, c Cooldowns) int {
	distance = min(max(distance, 0), t.maxDistance)
	return int(t.data[tableIndex(distance, c)])
}

// Estimate looks up the bound for closing the gap to within one tile of goal.
func (t *Table) Estimate(s State, goal geo.Tile) int {
	d := int(geo.Chebyshev(s.X, s.Y, goal.X, goal.Y)) - 1
	return t.Cost(d, s.CD)
}

// Binary layout: magic, max distance (uint32 LE), table bytes.
var tableMagic = [4]byte{'T', 'H', 'E', 'U'}

// ErrTableFormat is returned for buffers that do not hold a heuristic table.
var ErrTableFormat = errors.New("planner: bad heuristic table")

func (t *Table) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 8, 8+len(t.data))
	copy(buf, tableMagic[:])
	binary.LittleEndian.PutUint32(buf[4:], uint32(t.maxDistance))
	return append(buf, t.data...), nil
}

func (t *Table) UnmarshalBinary(buf []byte) error {
	if len(buf) < 8 || [4]byte(buf[:4]) != tableMagic {
		return fmt.Errorf("%w: missing header", ErrTableFormat)
	}
	maxDistance := int(binary.LittleEndian.Uint32(buf[4:]))
	want := (maxDistance + 1) * cdStride * cdStride * cdStride * cdStride
	if maxDistance > MaxTableDistance || len(buf)-8 != want {
		return fmt.Errorf("%w: max distance %d with %d bytes", ErrTableFormat, maxDistance, len(buf)-8)
	}
	t.maxDistance = maxDistance
	t.data = append([]uint8(nil), buf[8:]...)
	return nil
}

// LoadTable reads the global heuristic table from the store.
func LoadTable(ctx context.Context, s storage.Store) (*Table, error) {
	body, err := storage.ReadBlob(ctx, s, storage.KindHeuristic, storage.ChunkKey{})
	if err != nil {
		return nil, fmt.Errorf("loading heuristic table: %w", err)
	}
	t := &Table{}
	if err := t.UnmarshalBinary(body); err != nil {
		return nil, err
	}
	return t, nil
}

// SaveTable writes the table to the store.
func SaveTable(ctx context.Context, s storage.Store, t *Table) error {
	body, err := t.MarshalBinary()
	if err != nil {
		return err
	}
	if err := storage.WriteBlob(ctx, s, storage.KindHeuristic, storage.ChunkKey{}, body); err != nil {
		return fmt.Errorf("saving heuristic table: %w", err)
	}
	return nil
}
