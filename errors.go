package s4a

import "github.com/s4a-format/s4a/internal/arctype"

// Sentinel errors re-exported from internal/arctype. Match with errors.Is;
// the wrapped message names the entry and the stage that failed.
var (
	// ErrNotFound is returned when a requested entry is absent from the
	// archive index. Expected and caller-recoverable.
	ErrNotFound = arctype.ErrNotFound

	// ErrIndex is returned when the archive index cannot be decoded.
	ErrIndex = arctype.ErrIndex

	// ErrFetch is returned when the backend read for an entry fails or is
	// shorter than the index recorded. The reader performs no retries;
	// whether to retry is the caller's decision.
	ErrFetch = arctype.ErrFetch

	// ErrDecompression is returned when a payload is rejected by its codec.
	ErrDecompression = arctype.ErrDecompression

	// ErrUnknownCompression is returned when an entry carries a codec tag
	// this reader does not support.
	ErrUnknownCompression = arctype.ErrUnknownCompression

	// ErrSizeOverflow is returned when index offsets or sizes exceed the
	// platform's limits or a configured cap.
	ErrSizeOverflow = arctype.ErrSizeOverflow
)
