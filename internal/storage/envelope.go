package storage

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/blake2b"
)

// Envelope layout: magic (4) | BLAKE2b-256 of the plain body (32) | zstd frame.
var envelopeMagic = []byte("TNV1")

const envelopeHeader = 4 + blake2b.Size256

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
)

// Seal compresses body and prefixes it with its digest.
func Seal(body []byte) ([]byte, error) {
	sum := blake2b.Sum256(body)
	out := make([]byte, 0, envelopeHeader+len(body)/4)
	out = append(out, envelopeMagic...)
	out = append(out, sum[:]...)
	return encoder.EncodeAll(body, out), nil
}

// Open validates and decompresses a sealed blob.
func Open(blob []byte) ([]byte, error) {
	if len(blob) < envelopeHeader || !bytes.Equal(blob[:4], envelopeMagic) {
		return nil, fmt.Errorf("%w: missing envelope header", ErrCorrupt)
	}
	body, err := decoder.DecodeAll(blob[envelopeHeader:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if sum := blake2b.Sum256(body); !bytes.Equal(sum[:], blob[4:envelopeHeader]) {
		return nil, fmt.Errorf("%w: digest mismatch", ErrCorrupt)
	}
	return body, nil
}
