package storage

import (
	"context"
	"fmt"
)

// Backend names accepted by OpenBackend.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// OpenBackend opens the configured store. The returned close function is never nil.
func OpenBackend(ctx context.Context, backend, dir, dsn string) (Store, func(), error) {
	switch backend {
	case BackendFile, "":
		return NewFileStore(dir), func() {}, nil
	case BackendPostgres:
		if err := RunMigrations(ctx, dsn); err != nil {
			return nil, func() {}, err
		}
		s, err := NewPGStore(ctx, dsn)
		if err != nil {
			return nil, func() {}, err
		}
		return s, s.Close, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown storage backend %q", backend)
	}
}
