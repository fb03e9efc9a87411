package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps one file per blob under <dir>/<kind>/.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir. The directory is created on first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Path returns the file that holds (kind, key).
func (s *FileStore) Path(kind Kind, key ChunkKey) string {
	if kind == KindHeuristic {
		return filepath.Join(s.dir, kind.String(), kind.String()+".bin")
	}
	name := fmt.Sprintf("%s-%d-%d-%d.bin", kind, key.X, key.Y, key.Floor)
	return filepath.Join(s.dir, kind.String(), name)
}

func (s *FileStore) Load(_ context.Context, kind Kind, key ChunkKey) ([]byte, error) {
	path := s.Path(kind, key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s %s (%s): %w", kind, key, path, ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// Save writes through a temp file and rename so readers never see a partial blob.
func (s *FileStore) Save(_ context.Context, kind Kind, key ChunkKey, data []byte) error {
	path := s.Path(kind, key)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming to %s: %w", path, err)
	}
	return nil
}

func (s *FileStore) Exists(_ context.Context, kind Kind, key ChunkKey) (bool, error) {
	_, err := os.Stat(s.Path(kind, key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", s.Path(kind, key), err)
}
