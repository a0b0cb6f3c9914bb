package s4a

import (
	"fmt"
	"io"
	"iter"
	"log/slog"
	"math"

	"github.com/s4a-format/s4a/internal/codec"
)

// Archive provides random access to the entries of an opened archive.
//
// All state is fixed at open time: the entry table, the blob region's base
// offset, and the backend. An Archive observes a frozen snapshot of the
// underlying object even if it is later overwritten. Methods are safe for
// concurrent use; every read allocates its own buffers and issues its own
// positioned read against the backend.
type Archive struct {
	source ByteSource
	base   int64
	table  Table
	dec    *codec.Decoder

	legacyIndex  bool
	maxEntrySize uint64
	codecOpts    []codec.Option
	logger       *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// Get reads, fetches, and decompresses the named entry in one call.
// It is GetReader followed by Read.
func (a *Archive) Get(name string) ([]byte, error) {
	r, err := a.GetReader(name)
	if err != nil {
		return nil, err
	}
	return r.Read()
}

// GetReader resolves name to a lazy handle without touching the backend.
//
// The handle is cheap: callers can resolve many entries up front and defer
// or skip the actual fetches. An absent name returns ErrNotFound.
func (a *Archive) GetReader(name string) (*EntryReader, error) {
	entry, ok := a.table[name]
	if !ok {
		return nil, fmt.Errorf("entry %q: %w", name, ErrNotFound)
	}
	return &EntryReader{archive: a, entry: entry}, nil
}

// Entry returns the metadata for the named entry.
func (a *Archive) Entry(name string) (Entry, bool) {
	entry, ok := a.table[name]
	return entry, ok
}

// Entries returns an iterator over all entry metadata. Order is unspecified.
func (a *Archive) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, entry := range a.table {
			if !yield(entry) {
				return
			}
		}
	}
}

// Len returns the number of entries in the archive.
func (a *Archive) Len() int {
	return len(a.table)
}

// EntryReader is a lazy handle to one entry: the backend, the blob region's
// base offset, and the entry's metadata. Creating one performs no I/O;
// Read performs exactly one backend fetch.
type EntryReader struct {
	archive *Archive
	entry   Entry
}

// Entry returns the metadata this handle resolves to.
func (r *EntryReader) Entry() Entry {
	return r.entry
}

// Read fetches the entry's byte range from the backend and decompresses it
// with the codec recorded in the index.
//
// The fetch covers [base+offset, base+offset+size). A backend returning
// fewer than size bytes is ErrFetch, never a short decompression attempt.
func (r *EntryReader) Read() ([]byte, error) {
	a := r.archive
	entry := &r.entry

	if err := checkEntrySize(entry, a.maxEntrySize); err != nil {
		return nil, fmt.Errorf("entry %q: %w", entry.Name, err)
	}
	if entry.Offset > uint64(math.MaxInt64-a.base) {
		return nil, fmt.Errorf("entry %q: %w", entry.Name, ErrSizeOverflow)
	}

	buf := make([]byte, entry.Size)
	if entry.Size > 0 {
		n, err := a.source.ReadAt(buf, a.base+int64(entry.Offset))
		if n < len(buf) {
			if err == nil || err == io.EOF {
				return nil, fmt.Errorf("entry %q: %w: short read (%d of %d bytes)",
					entry.Name, ErrFetch, n, len(buf))
			}
			return nil, fmt.Errorf("entry %q: %w: %v", entry.Name, ErrFetch, err)
		}
	}

	out, err := a.dec.Decompress(buf, entry.Compression)
	if err != nil {
		return nil, fmt.Errorf("entry %q: %w", entry.Name, err)
	}

	a.log().Debug("entry read",
		"name", entry.Name,
		"compressed_size", entry.Size,
		"size", len(out),
		"compression", entry.Compression.String(),
	)
	return out, nil
}

// checkEntrySize rejects entries whose stored size cannot be buffered: past
// the configured cap, or past what a single allocation can hold.
func checkEntrySize(entry *Entry, maxEntrySize uint64) error {
	if maxEntrySize > 0 && entry.Size > maxEntrySize {
		return fmt.Errorf("%w: stored size %d exceeds limit %d", ErrSizeOverflow, entry.Size, maxEntrySize)
	}
	if entry.Size > math.MaxInt {
		return ErrSizeOverflow
	}
	if entry.Offset > math.MaxInt64-entry.Size {
		return ErrSizeOverflow
	}
	return nil
}
