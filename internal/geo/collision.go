package geo

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// DecodeCollision inflates a raw collision buffer into a size*size grid of movement
// bitmasks. Byte (lx, ly) lives at lx*size + ly.
func DecodeCollision(raw []byte, size int32) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(raw))
	defer r.Close()

	want := int(size) * int(size)
	out := make([]byte, want)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("inflate collision (want %d bytes): %w", want, err)
	}
	var extra [1]byte
	if n, _ := r.Read(extra[:]); n != 0 {
		return nil, fmt.Errorf("inflate collision: data beyond %d bytes", want)
	}
	return out, nil
}

// EncodeCollision deflates a movement grid into the raw collision format.
func EncodeCollision(grid []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("creating deflate writer: %w", err)
	}
	if _, err := w.Write(grid); err != nil {
		return nil, fmt.Errorf("deflating collision: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing deflate writer: %w", err)
	}
	return buf.Bytes(), nil
}
