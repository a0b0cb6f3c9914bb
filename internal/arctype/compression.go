package arctype

import "strings"

// Compression identifies the codec used for an entry's payload. The values
// are the text tags stored in the archive index; changing them breaks
// format compatibility.
type Compression string

const (
	CompressionLZMA Compression = "LZMA"
	CompressionLZ4  Compression = "LZ4"
	CompressionZstd Compression = "ZSTD"
)

// ParseCompression normalizes a raw index tag to its canonical form.
// Unknown tags are preserved as-is so the read path can report them; the
// index codec does not reject archives written with codecs it has never
// heard of.
func ParseCompression(tag string) Compression {
	switch c := Compression(strings.ToUpper(tag)); c {
	case CompressionLZMA, CompressionLZ4, CompressionZstd:
		return c
	default:
		return Compression(tag)
	}
}

// Known reports whether the codec is one this reader can decompress.
func (c Compression) Known() bool {
	switch c {
	case CompressionLZMA, CompressionLZ4, CompressionZstd:
		return true
	default:
		return false
	}
}

// String returns the index tag for the codec.
func (c Compression) String() string {
	return string(c)
}
