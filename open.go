package s4a

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/s4a-format/s4a/internal/codec"
	"github.com/s4a-format/s4a/internal/index"
)

// indexPrefixLen is the size of the self-contained layout's length prefix:
// an 8-byte big-endian unsigned integer holding the compressed index length.
const indexPrefixLen = 8

// Open opens a self-contained archive: length prefix, LZMA-compressed index,
// then the blob region. Entry offsets are relative to the end of the index
// region.
//
// Open reads and decodes the index once; the returned Archive never
// re-parses it.
func Open(source ByteSource, opts ...Option) (*Archive, error) {
	a := newArchive(source, opts)

	var prefix [indexPrefixLen]byte
	if _, err := source.ReadAt(prefix[:], 0); err != nil {
		return nil, fmt.Errorf("open archive: reading index length: %w", err)
	}
	indexLen := binary.BigEndian.Uint64(prefix[:])
	if indexLen == 0 {
		return nil, fmt.Errorf("open archive: index length is zero")
	}
	if indexLen > math.MaxInt64-indexPrefixLen || int64(indexLen) > source.Size()-indexPrefixLen {
		return nil, fmt.Errorf("open archive: index length %d exceeds archive size %d", indexLen, source.Size())
	}

	compressed := make([]byte, indexLen)
	if n, err := source.ReadAt(compressed, indexPrefixLen); n < len(compressed) {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("open archive: reading index region: %w", err)
	}

	indexDB, err := codec.DecompressLZMA(compressed)
	if err != nil {
		return nil, fmt.Errorf("open archive: decompressing index: %w", err)
	}

	a.base = indexPrefixLen + int64(indexLen)
	if err := a.load(indexDB); err != nil {
		return nil, err
	}
	return a, nil
}

// OpenSplit opens a split-layout archive from its index payload and blob
// backend. The index is stored uncompressed in the split layout; entry
// offsets are relative to byte 0 of the blob.
//
// Callers fetch the index object themselves; it pairs with the blob by
// naming convention at a layer above this one. ReadAll helps when the index
// lives behind a ByteSource too.
func OpenSplit(indexData []byte, source ByteSource, opts ...Option) (*Archive, error) {
	a := newArchive(source, opts)
	if err := a.load(indexData); err != nil {
		return nil, err
	}
	return a, nil
}

// ReadAll reads the full contents of a ByteSource, for fetching a split
// archive's index object through the same backend capability as its blob.
func ReadAll(source ByteSource) ([]byte, error) {
	return io.ReadAll(io.NewSectionReader(source, 0, source.Size()))
}

// newArchive applies options; the index is loaded separately.
func newArchive(source ByteSource, opts []Option) *Archive {
	a := &Archive{source: source}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// load decodes the index payload into the entry table and initializes the
// payload decoder.
func (a *Archive) load(indexDB []byte) error {
	decode := index.Decode
	if a.legacyIndex {
		decode = index.DecodeLegacy
	}
	table, err := decode(indexDB)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	dec, err := codec.NewDecoder(a.codecOpts...)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	a.table = table
	a.dec = dec
	a.log().Debug("archive opened",
		"entries", len(table),
		"blob_base", a.base,
		"legacy_index", a.legacyIndex,
	)
	return nil
}
