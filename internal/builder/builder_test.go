package builder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/tilenav/internal/geo"
	"github.com/udisondev/tilenav/internal/grid"
	"github.com/udisondev/tilenav/internal/planner"
	"github.com/udisondev/tilenav/internal/storage"
)

var testWorld = geo.World{Width: 32, Height: 32, ChunkSize: 16, Floors: 1}

// wallMap is open except for a wall at x=20 running from y=0 to y=9.
type wallMap struct{}

func (wallMap) Contains(x, y int32) bool { return testWorld.Contains(x, y) }

func (wallMap) open(x, y int32) bool {
	return testWorld.Contains(x, y) && (x != 20 || y >= 10)
}

func (m wallMap) Movement(x, y int32) byte {
	if !m.open(x, y) {
		return 0
	}
	bits := [geo.Directions]byte{
		geo.EdgeNorth, geo.EdgeNorthEast, geo.EdgeEast, geo.EdgeSouthEast,
		geo.EdgeSouth, geo.EdgeSouthWest, geo.EdgeWest, geo.EdgeNorthWest,
	}
	var mask byte
	for d := range geo.Direction(geo.Directions) {
		dx, dy := d.Step()
		if m.open(x+dx, y+dy) {
			mask |= bits[d]
		}
	}
	return mask
}

// seedCollision stores the raw collision buffers of every chunk.
func seedCollision(t *testing.T, store storage.Store) {
	t.Helper()
	cs := testWorld.ChunkSize
	m := wallMap{}
	for cx := range testWorld.ChunksX() {
		for cy := range testWorld.ChunksY() {
			cells := make([]byte, cs*cs)
			for lx := range cs {
				for ly := range cs {
					cells[lx*cs+ly] = m.Movement(cx*cs+lx, cy*cs+ly)
				}
			}
			raw, err := geo.EncodeCollision(cells)
			require.NoError(t, err)
			require.NoError(t, store.Save(context.Background(), storage.KindCollision, storage.ChunkKey{X: cx, Y: cy}, raw))
		}
	}
}

func buildAll(t *testing.T) (storage.Store, *Builder) {
	t.Helper()
	store := storage.NewFileStore(t.TempDir())
	seedCollision(t, store)

	b := New(store, testWorld, Options{Workers: 3, MaxDistance: 40})
	require.NoError(t, b.RunAll(context.Background(), b.Chunks(-1)))
	return store, b
}

func loadChunk[T grid.Elem](t *testing.T, store storage.Store, kind storage.Kind, cx, cy int32) *grid.Grid[T] {
	t.Helper()
	g, err := storage.LoadGrid[T](context.Background(), store, kind, storage.ChunkKey{X: cx, Y: cy})
	require.NoError(t, err)
	return g
}

func TestStages(t *testing.T) {
	assert.Equal(t, []Stage{StageMovement, StageWalk, StageDash, StageSurge, StageHeuristic}, Stages())
	for _, s := range Stages() {
		assert.NotEqual(t, "unknown stage", s.Describe())
	}
	assert.Equal(t, "unknown stage", Stage("bogus").Describe())
}

func TestChunks(t *testing.T) {
	b := New(storage.NewFileStore(t.TempDir()), geo.World{Width: 32, Height: 48, ChunkSize: 16, Floors: 3}, Options{})
	assert.Len(t, b.Chunks(-1), 2*3*3)
	keys := b.Chunks(1)
	assert.Len(t, keys, 2*3)
	for _, k := range keys {
		assert.Equal(t, int32(1), k.Floor)
	}
	assert.Empty(t, b.Chunks(5))
}

func TestBuildAll(t *testing.T) {
	store, _ := buildAll(t)
	m := wallMap{}
	cs := testWorld.ChunkSize

	// Tiles on and around chunk seams see across them.
	tiles := []geo.Tile{{X: 15, Y: 15}, {X: 16, Y: 16}, {X: 16, Y: 3}, {X: 19, Y: 9}, {X: 0, Y: 31}, {X: 25, Y: 8}}
	for _, tile := range tiles {
		cx, cy := testWorld.ChunkOf(tile.X, tile.Y)
		lx, ly := int(tile.X-cx*cs), int(tile.Y-cy*cs)

		move := loadChunk[uint8](t, store, storage.KindMovement, cx, cy)
		assert.Equal(t, m.Movement(tile.X, tile.Y), move.At(lx, ly, 0), "movement %v", tile)

		walk := loadChunk[uint64](t, store, storage.KindWalk, cx, cy)
		wantWalk := geo.PackWalk(tile.X, tile.Y, geo.WalkRange(m, tile.X, tile.Y))
		assert.Equal(t, wantWalk[:], walk.Cell(lx, ly), "walk %v", tile)

		dash := loadChunk[uint64](t, store, storage.KindDash, cx, cy)
		wantDash := geo.DashRange(m, tile.X, tile.Y)
		assert.Equal(t, wantDash[:], dash.Cell(lx, ly), "dash %v", tile)

		surge := loadChunk[uint8](t, store, storage.KindSurge, cx, cy)
		wantSurge := geo.TeleportOffsets(&wantDash)
		assert.Equal(t, wantSurge[:], surge.Cell(lx, ly), "surge %v", tile)
	}

	tbl, err := planner.LoadTable(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, 40, tbl.MaxDistance())
}

func TestRunSkipsExisting(t *testing.T) {
	ctx := context.Background()
	store, b := buildAll(t)
	key := storage.ChunkKey{X: 1, Y: 1}

	marker := grid.New[uint64](int(testWorld.ChunkSize), int(testWorld.ChunkSize), geo.WalkWords)
	marker.Set(0, 0, 0, 42)
	require.NoError(t, storage.SaveGrid(ctx, store, storage.KindWalk, key, marker))

	require.NoError(t, b.Run(ctx, StageWalk, b.Chunks(-1)))
	got := loadChunk[uint64](t, store, storage.KindWalk, 1, 1)
	assert.Equal(t, uint64(42), got.At(0, 0, 0), "existing output kept")

	rebuild := New(store, testWorld, Options{Reset: true})
	require.NoError(t, rebuild.Run(ctx, StageWalk, []storage.ChunkKey{key}))
	got = loadChunk[uint64](t, store, storage.KindWalk, 1, 1)
	want := geo.PackWalk(16, 16, geo.WalkRange(wallMap{}, 16, 16))
	assert.Equal(t, want[:], got.Cell(0, 0))
}

func TestBuildMovementMissingCollision(t *testing.T) {
	b := New(storage.NewFileStore(t.TempDir()), testWorld, Options{})
	_, err := b.BuildMovement(context.Background(), storage.ChunkKey{})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = b.Run(context.Background(), StageMovement, b.Chunks(0))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBuildMovementWrongSize(t *testing.T) {
	ctx := context.Background()
	store := storage.NewFileStore(t.TempDir())
	raw, err := geo.EncodeCollision(make([]byte, 8*8))
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, storage.KindCollision, storage.ChunkKey{}, raw))

	b := New(store, testWorld, Options{})
	_, err = b.BuildMovement(ctx, storage.ChunkKey{})
	assert.Error(t, err)
}

func TestBuildWalkNeedsMovement(t *testing.T) {
	b := New(storage.NewFileStore(t.TempDir()), testWorld, Options{})
	_, err := b.BuildWalk(context.Background(), storage.ChunkKey{})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunUnknownStage(t *testing.T) {
	b := New(storage.NewFileStore(t.TempDir()), testWorld, Options{})
	assert.Error(t, b.Run(context.Background(), Stage("bogus"), b.Chunks(-1)))
}

func TestRunCanceled(t *testing.T) {
	store := storage.NewFileStore(t.TempDir())
	seedCollision(t, store)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := New(store, testWorld, Options{Workers: 1})
	assert.ErrorIs(t, b.Run(ctx, StageMovement, b.Chunks(-1)), context.Canceled)
}

func TestPlanRouteOverBuiltData(t *testing.T) {
	ctx := context.Background()
	store, _ := buildAll(t)
	tbl, err := planner.LoadTable(ctx, store)
	require.NoError(t, err)

	req := planner.Request{
		Start:  planner.State{X: 2, Y: 2, Facing: geo.East, CD: planner.Cooldowns{Shared: 17, Surge: 17, Escape: 17, Dash: 17}},
		Goal:   geo.Tile{X: 28, Y: 2},
		Radius: 32,
	}
	plan, err := planner.PlanRoute(ctx, store, testWorld, tbl, req)
	require.NoError(t, err)

	last := plan.States[len(plan.States)-1]
	assert.True(t, last.AtGoal(req.Goal))
	// The wall at x=20 is only open from y=10 upwards.
	crossed := false
	for _, tile := range plan.Tiles() {
		if tile.X >= 21 {
			crossed = true
		}
		assert.False(t, tile.X == 20 && tile.Y < 10, "plan passes through the wall at %v", tile)
	}
	assert.True(t, crossed)
	assert.GreaterOrEqual(t, plan.Cost, tbl.Estimate(req.Start, req.Goal))
	assert.Len(t, plan.Kinds, len(plan.States)-1)

	ready := req
	ready.Start.CD = planner.Cooldowns{}
	fast, err := planner.PlanRoute(ctx, store, testWorld, tbl, ready)
	require.NoError(t, err)
	assert.Less(t, fast.Cost, plan.Cost, "abilities shorten the route")
}

func TestPlanRouteRejectsOutsideWorld(t *testing.T) {
	ctx := context.Background()
	store, _ := buildAll(t)
	tbl, err := planner.LoadTable(ctx, store)
	require.NoError(t, err)

	_, err = planner.PlanRoute(ctx, store, testWorld, tbl, planner.Request{
		Start: planner.State{X: 2, Y: 2},
		Goal:  geo.Tile{X: 40, Y: 2},
	})
	assert.ErrorIs(t, err, planner.ErrInvalidStart)

	_, err = planner.PlanRoute(ctx, store, testWorld, tbl, planner.Request{
		Start:  planner.State{X: 2, Y: 2},
		Goal:   geo.Tile{X: 4, Y: 2},
		Radius: -1,
	})
	assert.Error(t, err)
}
