package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/udisondev/tilenav/internal/storage/migrations"
)

// PGStore keeps blobs in the tile_chunks table.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore connects to PostgreSQL and returns a store.
func NewPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

// NewPGStoreFromPool wraps an existing pool.
func NewPGStoreFromPool(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Close closes the connection pool.
func (s *PGStore) Close() {
	s.pool.Close()
}

func (s *PGStore) Load(ctx context.Context, kind Kind, key ChunkKey) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM tile_chunks
		 WHERE kind = $1 AND chunk_x = $2 AND chunk_y = $3 AND floor = $4`,
		kind.String(), key.X, key.Y, key.Floor,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s %s: %w", kind, key, ErrNotFound)
		}
		return nil, fmt.Errorf("querying %s %s: %w", kind, key, err)
	}
	return data, nil
}

func (s *PGStore) Save(ctx context.Context, kind Kind, key ChunkKey, data []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tile_chunks (kind, chunk_x, chunk_y, floor, data, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (kind, chunk_x, chunk_y, floor)
		 DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		kind.String(), key.X, key.Y, key.Floor, data,
	)
	if err != nil {
		return fmt.Errorf("saving %s %s: %w", kind, key, err)
	}
	return nil
}

func (s *PGStore) Exists(ctx context.Context, kind Kind, key ChunkKey) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tile_chunks
		 WHERE kind = $1 AND chunk_x = $2 AND chunk_y = $3 AND floor = $4)`,
		kind.String(), key.X, key.Y, key.Floor,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking %s %s: %w", kind, key, err)
	}
	return exists, nil
}

// RunMigrations applies the goose migrations on the given DSN.
func RunMigrations(ctx context.Context, dsn string) error {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("opening sql connection for migrations: %w", err)
	}
	defer sqlDB.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
