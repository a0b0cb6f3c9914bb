// Package testutil builds real s4a archives in-process for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/s4a-format/s4a/internal/arctype"
)

// ReadCall records one positioned read against a MockByteSource.
type ReadCall struct {
	Off int64
	Len int
}

// MockByteSource is an in-memory byte source that counts and records every
// read, so tests can assert on the exact ranges the reader requested.
type MockByteSource struct {
	data []byte

	mu    sync.Mutex
	calls []ReadCall
	reads atomic.Int64
}

// NewMockByteSource returns a byte source backed by the provided data.
func NewMockByteSource(data []byte) *MockByteSource {
	return &MockByteSource{data: data}
}

// ReadAt implements io.ReaderAt semantics over the backing slice.
func (m *MockByteSource) ReadAt(p []byte, off int64) (int, error) {
	m.reads.Add(1)
	m.mu.Lock()
	m.calls = append(m.calls, ReadCall{Off: off, Len: len(p)})
	m.mu.Unlock()

	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the total size of the backing data.
func (m *MockByteSource) Size() int64 {
	return int64(len(m.data))
}

// Reads returns the number of ReadAt calls issued so far.
func (m *MockByteSource) Reads() int {
	return int(m.reads.Load())
}

// Calls returns a copy of the recorded read calls.
func (m *MockByteSource) Calls() []ReadCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ReadCall(nil), m.calls...)
}

// TruncatingSource wraps a byte source and shortens every read by one byte,
// simulating a backend that silently returns less than was asked for.
type TruncatingSource struct {
	*MockByteSource
}

// ReadAt reads through to the wrapped source but drops the final byte.
func (t *TruncatingSource) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return t.MockByteSource.ReadAt(p, off)
	}
	n, err := t.MockByteSource.ReadAt(p[:len(p)-1], off)
	if err != nil {
		return n, err
	}
	return n, io.EOF
}

// Entry pairs an index row with the plaintext it should decompress to.
type Entry struct {
	Name        string
	Kind        string
	Offset      uint64
	Size        uint64
	Compression arctype.Compression
}

// Compress compresses data with the given codec the way archive writers do:
// xz containers for LZMA, frame format for LZ4, a single frame for ZSTD.
func Compress(t testing.TB, data []byte, c arctype.Compression) []byte {
	t.Helper()

	var buf bytes.Buffer
	switch c {
	case arctype.CompressionLZMA:
		w, err := xz.NewWriter(&buf)
		if err != nil {
			t.Fatalf("creating xz writer: %v", err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("xz compress: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("xz close: %v", err)
		}

	case arctype.CompressionLZ4:
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			t.Fatalf("lz4 compress: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("lz4 close: %v", err)
		}

	case arctype.CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			t.Fatalf("creating zstd encoder: %v", err)
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil)

	default:
		t.Fatalf("cannot compress with codec %q", c)
	}
	return buf.Bytes()
}

// BuildIndexDB serializes entries into an entry_list SQLite database and
// returns the database file's bytes. When legacy is true the compression
// column is omitted, matching the oldest format revision.
func BuildIndexDB(t testing.TB, entries []Entry, legacy bool) []byte {
	t.Helper()

	path := t.TempDir() + "/index.db"
	conn, err := sqlite.OpenConn(path, sqlite.OpenCreate|sqlite.OpenReadWrite)
	if err != nil {
		t.Fatalf("opening index database: %v", err)
	}

	schema := `CREATE TABLE entry_list (
		name VARCHAR(2048),
		type VARCHAR(8),
		offset BIGINT,
		size BIGINT,
		compression VARCHAR(8)
	)`
	insert := "INSERT INTO entry_list (name, type, offset, size, compression) VALUES (?, ?, ?, ?, ?)"
	if legacy {
		schema = `CREATE TABLE entry_list (
			name VARCHAR(2048),
			type VARCHAR(8),
			offset BIGINT,
			size BIGINT
		)`
		insert = "INSERT INTO entry_list (name, type, offset, size) VALUES (?, ?, ?, ?)"
	}

	if err := sqlitex.ExecuteTransient(conn, schema, nil); err != nil {
		conn.Close()
		t.Fatalf("creating entry_list: %v", err)
	}
	for _, e := range entries {
		args := []any{e.Name, e.Kind, int64(e.Offset), int64(e.Size), string(e.Compression)}
		if legacy {
			args = args[:4]
		}
		err := sqlitex.ExecuteTransient(conn, insert, &sqlitex.ExecOptions{Args: args})
		if err != nil {
			conn.Close()
			t.Fatalf("inserting entry %q: %v", e.Name, err)
		}
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("closing index database: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading index database: %v", err)
	}
	return data
}

// BuildSplit builds a split-layout archive: an uncompressed index database
// and a separate blob region. Entries are laid out in iteration order of
// names, compressed with the given codec.
func BuildSplit(t testing.TB, names []string, files map[string][]byte, c arctype.Compression) (indexDB, blob []byte) {
	t.Helper()

	var region bytes.Buffer
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		payload := Compress(t, files[name], c)
		entries = append(entries, Entry{
			Name:        name,
			Kind:        "f",
			Offset:      uint64(region.Len()),
			Size:        uint64(len(payload)),
			Compression: c,
		})
		region.Write(payload)
	}
	return BuildIndexDB(t, entries, false), region.Bytes()
}

// BuildArchive builds a self-contained archive: 8-byte big-endian index
// length, LZMA-compressed index database, then the blob region.
func BuildArchive(t testing.TB, names []string, files map[string][]byte, c arctype.Compression) []byte {
	t.Helper()

	indexDB, blob := BuildSplit(t, names, files, c)
	return Assemble(t, indexDB, blob)
}

// Assemble wraps an index database and blob region into the self-contained
// container layout.
func Assemble(t testing.TB, indexDB, blob []byte) []byte {
	t.Helper()

	compressed := Compress(t, indexDB, arctype.CompressionLZMA)

	var out bytes.Buffer
	var prefix [8]byte
	binary.BigEndian.PutUint64(prefix[:], uint64(len(compressed)))
	out.Write(prefix[:])
	out.Write(compressed)
	out.Write(blob)
	return out.Bytes()
}
