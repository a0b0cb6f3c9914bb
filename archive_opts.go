package s4a

import (
	"log/slog"

	"github.com/s4a-format/s4a/internal/codec"
)

// Option configures an Archive at open time.
type Option func(*Archive)

// WithLegacyIndex selects the legacy index schema, which has no compression
// column. Every entry in a legacy archive is LZMA-compressed.
//
// Which schema an archive carries is decided by the caller (typically from
// a naming convention); the reader performs no version negotiation.
func WithLegacyIndex() Option {
	return func(a *Archive) {
		a.legacyIndex = true
	}
}

// WithLogger sets the logger for debug-level read diagnostics.
// If unset, logging is discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}

// WithMaxEntrySize caps the stored (compressed) size the reader is willing
// to buffer for a single entry, guarding against pathological index rows.
// Set limit to 0 to disable the cap.
func WithMaxEntrySize(limit uint64) Option {
	return func(a *Archive) {
		a.maxEntrySize = limit
	}
}

// WithDecoderMaxMemory limits the memory the zstd decoder may allocate for
// a single frame. Set limit to 0 to disable the limit.
func WithDecoderMaxMemory(limit uint64) Option {
	return func(a *Archive) {
		a.codecOpts = append(a.codecOpts, codec.WithMaxMemory(limit))
	}
}

// WithDecoderConcurrency sets the zstd decoder concurrency (default: the
// library default). Values < 0 are treated as 0 (use GOMAXPROCS).
func WithDecoderConcurrency(n int) Option {
	return func(a *Archive) {
		a.codecOpts = append(a.codecOpts, codec.WithConcurrency(n))
	}
}

// WithDecoderLowmem sets whether the zstd decoder should use low-memory mode.
func WithDecoderLowmem(enabled bool) Option {
	return func(a *Archive) {
		a.codecOpts = append(a.codecOpts, codec.WithLowmem(enabled))
	}
}
