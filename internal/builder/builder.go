// Package builder derives the per-tile ability database from raw collision data.
// It is a resumable batch job: outputs that already exist are skipped unless Reset is set.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/tilenav/internal/geo"
	"github.com/udisondev/tilenav/internal/grid"
	"github.com/udisondev/tilenav/internal/planner"
	"github.com/udisondev/tilenav/internal/storage"
)

// Stage names one dataset.
type Stage string

const (
	StageMovement  Stage = "move"
	StageWalk      Stage = "walk"
	StageDash      Stage = "dash"
	StageSurge     Stage = "surge"
	StageHeuristic Stage = "heuristic"
)

// Stages returns every stage in dependency order.
func Stages() []Stage {
	return []Stage{StageMovement, StageWalk, StageDash, StageSurge, StageHeuristic}
}

// Describe returns a one-line description of a stage.
func (s Stage) Describe() string {
	switch s {
	case StageMovement:
		return "inflate raw collision into movement bitmask chunks"
	case StageWalk:
		return "walk reachability (5x5 window) per tile"
	case StageDash:
		return "dash reachability bitmask (21x21 window) per tile"
	case StageSurge:
		return "surge/escape offsets per tile and facing (needs dash)"
	case StageHeuristic:
		return "global heuristic table"
	default:
		return "unknown stage"
	}
}

// Options control a build.
type Options struct {
	Workers     int  // parallel chunks; <= 0 means GOMAXPROCS
	Reset       bool // rebuild outputs that already exist
	MaxDistance int  // heuristic table size
}

// Builder runs build stages against a store.
type Builder struct {
	store storage.Store
	world geo.World
	opts  Options
	moves *moveCache
}

// New creates a builder.
func New(store storage.Store, world geo.World, opts Options) *Builder {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Builder{
		store: store,
		world: world,
		opts:  opts,
		moves: newMoveCache(store, world),
	}
}

// Chunks lists the chunk keys of floor, or of every floor when floor < 0.
func (b *Builder) Chunks(floor int32) []storage.ChunkKey {
	var keys []storage.ChunkKey
	for f := range b.world.Floors {
		if floor >= 0 && f != floor {
			continue
		}
		for cx := range b.world.ChunksX() {
			for cy := range b.world.ChunksY() {
				keys = append(keys, storage.ChunkKey{X: cx, Y: cy, Floor: f})
			}
		}
	}
	return keys
}

// RunAll runs every stage over keys.
func (b *Builder) RunAll(ctx context.Context, keys []storage.ChunkKey) error {
	for _, s := range Stages() {
		if err := b.Run(ctx, s, keys); err != nil {
			return err
		}
	}
	return nil
}

// Run runs one stage. Chunk stages fan out over keys on a bounded worker pool.
func (b *Builder) Run(ctx context.Context, stage Stage, keys []storage.ChunkKey) error {
	start := time.Now()
	if stage == StageHeuristic {
		built, err := b.BuildHeuristic(ctx)
		if err != nil {
			return err
		}
		slog.Info("stage done", "stage", stage, "built", built, "elapsed", time.Since(start).Round(time.Millisecond))
		return nil
	}

	var build func(context.Context, storage.ChunkKey) (bool, error)
	switch stage {
	case StageMovement:
		build = b.BuildMovement
	case StageWalk:
		build = b.BuildWalk
	case StageDash:
		build = b.BuildDash
	case StageSurge:
		build = b.BuildSurge
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}

	var built, skipped atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)
	for _, key := range keys {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ok, err := build(gctx, key)
			if err != nil {
				return fmt.Errorf("%s chunk %s: %w", stage, key, err)
			}
			if ok {
				built.Add(1)
			} else {
				skipped.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("stage done",
		"stage", stage,
		"built", built.Load(),
		"skipped", skipped.Load(),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// skip reports whether the output for (kind, key) already exists and may be kept.
func (b *Builder) skip(ctx context.Context, kind storage.Kind, key storage.ChunkKey) (bool, error) {
	if b.opts.Reset {
		return false, nil
	}
	ok, err := b.store.Exists(ctx, kind, key)
	if err != nil {
		return false, fmt.Errorf("checking %s %s: %w", kind, key, err)
	}
	return ok, nil
}

// BuildMovement inflates the raw collision buffer of key into a movement chunk.
func (b *Builder) BuildMovement(ctx context.Context, key storage.ChunkKey) (bool, error) {
	if ok, err := b.skip(ctx, storage.KindMovement, key); err != nil || ok {
		return false, err
	}
	raw, err := b.store.Load(ctx, storage.KindCollision, key)
	if err != nil {
		return false, fmt.Errorf("loading collision: %w", err)
	}
	cs := b.world.ChunkSize
	cells, err := geo.DecodeCollision(raw, cs)
	if err != nil {
		return false, err
	}
	g, err := grid.FromSlice(int(cs), int(cs), 1, cells)
	if err != nil {
		return false, err
	}
	if err := storage.SaveGrid(ctx, b.store, storage.KindMovement, key, g); err != nil {
		return false, err
	}
	b.moves.put(key, g)
	slog.Debug("movement chunk built", "chunk", key)
	return true, nil
}

// BuildWalk derives walk data for every tile of key.
func (b *Builder) BuildWalk(ctx context.Context, key storage.ChunkKey) (bool, error) {
	if ok, err := b.skip(ctx, storage.KindWalk, key); err != nil || ok {
		return false, err
	}
	nb, err := b.moves.neighborhood(ctx, key, 1)
	if err != nil {
		return false, err
	}
	out := b.eachTile(key, geo.WalkWords, func(x, y int32, cell []uint64) {
		words := geo.PackWalk(x, y, geo.WalkRange(nb, x, y))
		copy(cell, words[:])
	})
	if err := storage.SaveGrid(ctx, b.store, storage.KindWalk, key, out); err != nil {
		return false, err
	}
	slog.Debug("walk chunk built", "chunk", key)
	return true, nil
}

// BuildDash derives dash masks for every tile of key.
func (b *Builder) BuildDash(ctx context.Context, key storage.ChunkKey) (bool, error) {
	if ok, err := b.skip(ctx, storage.KindDash, key); err != nil || ok {
		return false, err
	}
	nb, err := b.moves.neighborhood(ctx, key, geo.DashRadius)
	if err != nil {
		return false, err
	}
	out := b.eachTile(key, geo.DashWords, func(x, y int32, cell []uint64) {
		mask := geo.DashRange(nb, x, y)
		copy(cell, mask[:])
	})
	if err := storage.SaveGrid(ctx, b.store, storage.KindDash, key, out); err != nil {
		return false, err
	}
	slog.Debug("dash chunk built", "chunk", key)
	return true, nil
}

// BuildSurge derives teleport offsets for every tile of key from its dash chunk.
func (b *Builder) BuildSurge(ctx context.Context, key storage.ChunkKey) (bool, error) {
	if ok, err := b.skip(ctx, storage.KindSurge, key); err != nil || ok {
		return false, err
	}
	dash, err := storage.LoadGrid[uint64](ctx, b.store, storage.KindDash, key)
	if err != nil {
		return false, fmt.Errorf("loading dash chunk: %w", err)
	}
	cs := int(b.world.ChunkSize)
	if dash.Width() != cs || dash.Height() != cs || dash.Depth() != geo.DashWords {
		return false, fmt.Errorf("dash chunk %s has shape %dx%dx%d", key, dash.Width(), dash.Height(), dash.Depth())
	}

	out := grid.New[uint8](cs, cs, geo.Directions)
	for lx := range cs {
		for ly := range cs {
			var mask geo.DashMask
			copy(mask[:], dash.Cell(lx, ly))
			offsets := geo.TeleportOffsets(&mask)
			copy(out.Cell(lx, ly), offsets[:])
		}
	}
	if err := storage.SaveGrid(ctx, b.store, storage.KindSurge, key, out); err != nil {
		return false, err
	}
	slog.Debug("surge chunk built", "chunk", key)
	return true, nil
}

// BuildHeuristic computes and stores the global heuristic table.
func (b *Builder) BuildHeuristic(ctx context.Context) (bool, error) {
	if ok, err := b.skip(ctx, storage.KindHeuristic, storage.ChunkKey{}); err != nil || ok {
		return false, err
	}
	t, err := planner.BuildTable(b.opts.MaxDistance)
	if err != nil {
		return false, err
	}
	if err := planner.SaveTable(ctx, b.store, t); err != nil {
		return false, err
	}
	return true, nil
}

// eachTile allocates a chunk grid of the given depth and fills every cell with fn.
func (b *Builder) eachTile(key storage.ChunkKey, depth int, fn func(x, y int32, cell []uint64)) *grid.Grid[uint64] {
	cs := b.world.ChunkSize
	out := grid.New[uint64](int(cs), int(cs), depth)
	for lx := range cs {
		for ly := range cs {
			fn(key.X*cs+lx, key.Y*cs+ly, out.Cell(int(lx), int(ly)))
		}
	}
	return out
}
