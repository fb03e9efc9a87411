// Package storage persists chunk-addressed tile data. Stores move opaque blobs; the
// envelope helpers add compression and an integrity digest on top.
package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a blob does not exist.
	ErrNotFound = errors.New("storage: not found")
	// ErrCorrupt is returned when a blob fails envelope validation.
	ErrCorrupt = errors.New("storage: corrupt blob")
)

// Kind identifies a dataset.
type Kind uint8

const (
	KindCollision Kind = iota + 1
	KindMovement
	KindWalk
	KindDash
	KindSurge
	KindHeuristic
)

var kindNames = map[Kind]string{
	KindCollision: "collision",
	KindMovement:  "move",
	KindWalk:      "walk",
	KindDash:      "dash",
	KindSurge:     "surge",
	KindHeuristic: "heuristic",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ChunkKey addresses one chunk. The heuristic table uses the zero key.
type ChunkKey struct {
	X, Y, Floor int32
}

func (k ChunkKey) String() string {
	return fmt.Sprintf("%d-%d-%d", k.X, k.Y, k.Floor)
}

// Store loads and saves blobs by (kind, chunk).
type Store interface {
	// Load returns ErrNotFound (wrapped) when the blob is absent.
	Load(ctx context.Context, kind Kind, key ChunkKey) ([]byte, error)
	Save(ctx context.Context, kind Kind, key ChunkKey, data []byte) error
	Exists(ctx context.Context, kind Kind, key ChunkKey) (bool, error)
}

// ReadBlob loads a blob and opens its envelope.
func ReadBlob(ctx context.Context, s Store, kind Kind, key ChunkKey) ([]byte, error) {
	blob, err := s.Load(ctx, kind, key)
	if err != nil {
		return nil, err
	}
	body, err := Open(blob)
	if err != nil {
		return nil, fmt.Errorf("opening %s %s: %w", kind, key, err)
	}
	return body, nil
}

// WriteBlob seals body and saves it.
func WriteBlob(ctx context.Context, s Store, kind Kind, key ChunkKey, body []byte) error {
	blob, err := Seal(body)
	if err != nil {
		return fmt.Errorf("sealing %s %s: %w", kind, key, err)
	}
	return s.Save(ctx, kind, key, blob)
}
