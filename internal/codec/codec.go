// Package codec decompresses archive entry payloads.
//
// Each entry carries one of three codec tags: LZMA, LZ4 (frame format), or
// ZSTD (single frame). The LZMA tag covers two stream flavors in the wild:
// current writers emit xz containers while the oldest archives carry raw
// lzma-alone streams. The LZMA path detects the container by its magic.
package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"

	"github.com/s4a-format/s4a/internal/arctype"
)

// xzMagic is the 6-byte header of an xz container.
var xzMagic = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}

// Decoder dispatches payloads to the codec recorded for their entry.
// A Decoder is safe for concurrent use.
type Decoder struct {
	zstd *zstd.Decoder

	maxMemorySet   bool
	maxMemory      uint64
	concurrencySet bool
	concurrency    int
	lowmemSet      bool
	lowmem         bool
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithMaxMemory caps the memory the zstd decoder may allocate for a single
// frame. Zero removes the cap.
func WithMaxMemory(limit uint64) Option {
	return func(d *Decoder) {
		d.maxMemory = limit
		d.maxMemorySet = limit != 0
	}
}

// WithConcurrency sets the zstd decoder concurrency. Values < 0 are treated
// as 0 (use GOMAXPROCS).
func WithConcurrency(n int) Option {
	return func(d *Decoder) {
		if n < 0 {
			n = 0
		}
		d.concurrency = n
		d.concurrencySet = true
	}
}

// WithLowmem selects the zstd decoder's low-memory mode.
func WithLowmem(enabled bool) Option {
	return func(d *Decoder) {
		d.lowmem = enabled
		d.lowmemSet = true
	}
}

// NewDecoder creates a Decoder. The zstd decoder is built once and shared
// across calls; LZMA and LZ4 readers are cheap and built per call.
func NewDecoder(opts ...Option) (*Decoder, error) {
	d := &Decoder{}
	for _, opt := range opts {
		opt(d)
	}

	zopts := make([]zstd.DOption, 0, 3)
	if d.maxMemorySet {
		zopts = append(zopts, zstd.WithDecoderMaxMemory(d.maxMemory))
	}
	if d.concurrencySet {
		zopts = append(zopts, zstd.WithDecoderConcurrency(d.concurrency))
	}
	if d.lowmemSet {
		zopts = append(zopts, zstd.WithDecoderLowmem(d.lowmem))
	}

	zdec, err := zstd.NewReader(nil, zopts...)
	if err != nil {
		return nil, fmt.Errorf("initializing zstd decoder: %w", err)
	}
	d.zstd = zdec
	return d, nil
}

// Decompress decompresses a full entry payload with the given codec.
//
// An unknown codec tag returns ErrUnknownCompression; a stream the codec
// rejects returns ErrDecompression. Neither is ever mapped to empty output.
func (d *Decoder) Decompress(data []byte, c arctype.Compression) ([]byte, error) {
	switch c {
	case arctype.CompressionLZMA:
		return DecompressLZMA(data)

	case arctype.CompressionLZ4:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %v", arctype.ErrDecompression, err)
		}
		return out, nil

	case arctype.CompressionZstd:
		out, err := d.zstd.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", arctype.ErrDecompression, err)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: %q", arctype.ErrUnknownCompression, string(c))
	}
}

// DecompressLZMA decompresses an LZMA-tagged stream, accepting both xz
// containers and raw lzma-alone streams. Exported because opening a
// self-contained archive also needs it for the index region.
func DecompressLZMA(data []byte) ([]byte, error) {
	var r io.Reader
	var err error
	if bytes.HasPrefix(data, xzMagic) {
		r, err = xz.NewReader(bytes.NewReader(data))
	} else {
		r, err = lzma.NewReader(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lzma: %v", arctype.ErrDecompression, err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: lzma: %v", arctype.ErrDecompression, err)
	}
	return out, nil
}
