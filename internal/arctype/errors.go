package arctype

import "errors"

// Sentinel errors shared across the archive packages. Callers match them
// with errors.Is; wrapping sites add the entry name and failing stage.
var (
	// ErrNotFound is returned when a requested entry is absent from the
	// archive index. This is an expected condition, not a defect.
	ErrNotFound = errors.New("s4a: entry not found")

	// ErrIndex is returned when the archive index cannot be decoded.
	ErrIndex = errors.New("s4a: invalid index")

	// ErrFetch is returned when the backend read for an entry fails or
	// returns fewer bytes than the index recorded.
	ErrFetch = errors.New("s4a: fetch failed")

	// ErrDecompression is returned when a payload is rejected by its codec.
	ErrDecompression = errors.New("s4a: decompression failed")

	// ErrUnknownCompression is returned when an entry carries a codec tag
	// this reader does not support. Distinct from ErrDecompression: the
	// archive was likely written by a newer tool, not corrupted.
	ErrUnknownCompression = errors.New("s4a: unknown compression codec")

	// ErrSizeOverflow is returned when index offsets or sizes exceed the
	// limits of the platform or a configured cap.
	ErrSizeOverflow = errors.New("s4a: size overflow")
)
