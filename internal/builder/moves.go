package builder

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/udisondev/tilenav/internal/geo"
	"github.com/udisondev/tilenav/internal/grid"
	"github.com/udisondev/tilenav/internal/storage"
)

// moveCache keeps decoded movement chunks shared by all workers.
// Concurrent misses on the same chunk are collapsed into one load.
type moveCache struct {
	store storage.Store
	world geo.World

	mu     sync.RWMutex
	chunks map[storage.ChunkKey]*grid.Grid[uint8]
	group  singleflight.Group
}

func newMoveCache(store storage.Store, world geo.World) *moveCache {
	return &moveCache{
		store:  store,
		world:  world,
		chunks: make(map[storage.ChunkKey]*grid.Grid[uint8]),
	}
}

func (c *moveCache) get(ctx context.Context, key storage.ChunkKey) (*grid.Grid[uint8], error) {
	c.mu.RLock()
	g, ok := c.chunks[key]
	c.mu.RUnlock()
	if ok {
		return g, nil
	}

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		g, err := storage.LoadGrid[uint8](ctx, c.store, storage.KindMovement, key)
		if err != nil {
			return nil, fmt.Errorf("loading movement chunk %s: %w", key, err)
		}
		cs := int(c.world.ChunkSize)
		if g.Width() != cs || g.Height() != cs || g.Depth() != 1 {
			return nil, fmt.Errorf("movement chunk %s is %dx%dx%d, want %dx%dx1", key, g.Width(), g.Height(), g.Depth(), cs, cs)
		}
		c.mu.Lock()
		c.chunks[key] = g
		c.mu.Unlock()
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*grid.Grid[uint8]), nil
}

// put stores a freshly decoded chunk.
func (c *moveCache) put(key storage.ChunkKey, g *grid.Grid[uint8]) {
	c.mu.Lock()
	c.chunks[key] = g
	c.mu.Unlock()
}

// neighborhood loads every chunk within reach tiles of chunk key and returns a
// lock-free view over them.
func (c *moveCache) neighborhood(ctx context.Context, key storage.ChunkKey, reach int32) (*neighborhood, error) {
	cs := c.world.ChunkSize
	r := (reach + cs - 1) / cs
	n := &neighborhood{
		world: c.world,
		cx0:   key.X - r,
		cy0:   key.Y - r,
		span:  2*r + 1,
	}
	n.chunks = make([]*grid.Grid[uint8], n.span*n.span)

	for i := range n.span {
		for j := range n.span {
			cx, cy := n.cx0+i, n.cy0+j
			if cx < 0 || cy < 0 || cx >= c.world.ChunksX() || cy >= c.world.ChunksY() {
				continue
			}
			g, err := c.get(ctx, storage.ChunkKey{X: cx, Y: cy, Floor: key.Floor})
			if err != nil {
				return nil, err
			}
			n.chunks[i*n.span+j] = g
		}
	}
	return n, nil
}

// neighborhood implements geo.MoveMap over a square of chunks around one chunk.
type neighborhood struct {
	world    geo.World
	cx0, cy0 int32
	span     int32
	chunks   []*grid.Grid[uint8]
}

func (n *neighborhood) Contains(x, y int32) bool {
	return n.world.Contains(x, y)
}

// Movement returns 0 outside the world and outside the loaded square.
func (n *neighborhood) Movement(x, y int32) byte {
	if !n.world.Contains(x, y) {
		return 0
	}
	cs := n.world.ChunkSize
	i, j := x/cs-n.cx0, y/cs-n.cy0
	if i < 0 || j < 0 || i >= n.span || j >= n.span {
		return 0
	}
	g := n.chunks[i*n.span+j]
	if g == nil {
		return 0
	}
	return g.At(int(x%cs), int(y%cs), 0)
}
