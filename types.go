package s4a

import (
	"io"

	"github.com/s4a-format/s4a/internal/arctype"
)

// Re-export types from internal/arctype for the public API.
type (
	// Entry describes one named member of an archive.
	Entry = arctype.Entry

	// Compression identifies the codec used for an entry's payload.
	Compression = arctype.Compression

	// Table maps entry names to their metadata.
	Table = arctype.Table
)

// Re-export compression constants.
const (
	CompressionLZMA = arctype.CompressionLZMA
	CompressionLZ4  = arctype.CompressionLZ4
	CompressionZstd = arctype.CompressionZstd
)

// ByteSource provides random access to archive bytes.
//
// Implementations exist for local files (OpenFile) and HTTP range requests
// (package httpsource). Implementations must support concurrent positioned
// reads; io.ReaderAt already requires this for *os.File-like sources.
type ByteSource interface {
	io.ReaderAt
	Size() int64
}
