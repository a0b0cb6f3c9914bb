// Package s4a reads seekable compressed archives.
//
// An s4a archive is a single logical blob of independently compressed
// entries plus a SQLite index mapping entry names to byte ranges and codecs.
// Because every entry is compressed on its own, any entry can be retrieved
// with one range read and one decompression, no matter how large the
// archive is or where it lives.
//
// Two physical layouts exist. A self-contained archive starts with an
// 8-byte big-endian index length, followed by the LZMA-compressed index,
// followed by the blob region. A split archive stores the index
// uncompressed in its own file or object next to the blob. Open and
// OpenSplit select the layout explicitly; nothing is sniffed from file
// extensions.
//
// Archives are read through a ByteSource, a minimal random-access
// capability. Local files and HTTP objects (package httpsource) are
// provided; anything that can serve positioned reads can be a backend.
//
// An Archive is immutable after opening and safe for concurrent use. Each
// Get is an independent, stateless fetch: no retries, no caching, no shared
// cursors.
package s4a
