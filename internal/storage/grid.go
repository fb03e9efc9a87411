package storage

import (
	"context"
	"fmt"

	"github.com/udisondev/tilenav/internal/grid"
)

// LoadGrid reads a sealed grid blob.
func LoadGrid[T grid.Elem](ctx context.Context, s Store, kind Kind, key ChunkKey) (*grid.Grid[T], error) {
	body, err := ReadBlob(ctx, s, kind, key)
	if err != nil {
		return nil, err
	}
	g, err := grid.Decode[T](body)
	if err != nil {
		return nil, fmt.Errorf("decoding %s %s: %w", kind, key, err)
	}
	return g, nil
}

// SaveGrid seals and writes a grid.
func SaveGrid[T grid.Elem](ctx context.Context, s Store, kind Kind, key ChunkKey, g *grid.Grid[T]) error {
	body, err := g.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encoding %s %s: %w", kind, key, err)
	}
	return WriteBlob(ctx, s, kind, key, body)
}
