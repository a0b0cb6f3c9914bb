package s4a_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s4a-format/s4a"
	"github.com/s4a-format/s4a/internal/testutil"
)

func TestOpenSplit(t *testing.T) {
	t.Parallel()

	files := map[string][]byte{
		"a.txt": []byte("split layout"),
		"b.txt": []byte("entry offsets start at zero"),
	}
	indexDB, blob := testutil.BuildSplit(t, []string{"a.txt", "b.txt"}, files, s4a.CompressionZstd)

	source := testutil.NewMockByteSource(blob)
	archive, err := s4a.OpenSplit(indexDB, source)
	require.NoError(t, err)

	got, err := archive.Get("a.txt")
	require.NoError(t, err)
	assert.Equal(t, files["a.txt"], got)

	// Split offsets are relative to byte 0 of the blob.
	calls := source.Calls()
	assert.Equal(t, int64(0), calls[len(calls)-1].Off)
}

func TestOpenLegacyIndex(t *testing.T) {
	t.Parallel()

	plaintext := []byte("legacy archives are lzma only")
	payload := testutil.Compress(t, plaintext, s4a.CompressionLZMA)
	indexDB := testutil.BuildIndexDB(t, []testutil.Entry{
		{Name: "a", Kind: "f", Offset: 0, Size: uint64(len(payload))},
	}, true)

	data := testutil.Assemble(t, indexDB, payload)
	archive, err := s4a.Open(testutil.NewMockByteSource(data), s4a.WithLegacyIndex())
	require.NoError(t, err)

	entry, ok := archive.Entry("a")
	require.True(t, ok)
	assert.Equal(t, s4a.CompressionLZMA, entry.Compression)

	got, err := archive.Get("a")
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()

	valid := testutil.BuildArchive(t, []string{"a"},
		map[string][]byte{"a": []byte("x")}, s4a.CompressionLZMA)

	t.Run("empty source", func(t *testing.T) {
		t.Parallel()
		_, err := s4a.Open(testutil.NewMockByteSource(nil))
		require.Error(t, err)
	})

	t.Run("zero index length", func(t *testing.T) {
		t.Parallel()
		data := make([]byte, 16)
		_, err := s4a.Open(testutil.NewMockByteSource(data))
		require.ErrorContains(t, err, "index length")
	})

	t.Run("index length beyond archive", func(t *testing.T) {
		t.Parallel()
		data := make([]byte, 16)
		binary.BigEndian.PutUint64(data, 1<<40)
		_, err := s4a.Open(testutil.NewMockByteSource(data))
		require.ErrorContains(t, err, "index length")
	})

	t.Run("index region not lzma", func(t *testing.T) {
		t.Parallel()
		data := make([]byte, 8, 40)
		binary.BigEndian.PutUint64(data, 32)
		data = append(data, make([]byte, 32)...)
		_, err := s4a.Open(testutil.NewMockByteSource(data))
		require.Error(t, err)
	})

	t.Run("index not a database", func(t *testing.T) {
		t.Parallel()
		garbage := testutil.Compress(t, []byte("not sqlite"), s4a.CompressionLZMA)
		data := make([]byte, 8, 8+len(garbage))
		binary.BigEndian.PutUint64(data, uint64(len(garbage)))
		data = append(data, garbage...)
		_, err := s4a.Open(testutil.NewMockByteSource(data))
		require.ErrorIs(t, err, s4a.ErrIndex)
	})

	t.Run("valid archive sanity", func(t *testing.T) {
		t.Parallel()
		_, err := s4a.Open(testutil.NewMockByteSource(valid))
		require.NoError(t, err)
	})
}

func TestOpenSplitErrors(t *testing.T) {
	t.Parallel()

	_, err := s4a.OpenSplit(nil, testutil.NewMockByteSource(nil))
	require.ErrorIs(t, err, s4a.ErrIndex)

	_, err = s4a.OpenSplit([]byte("garbage"), testutil.NewMockByteSource(nil))
	require.ErrorIs(t, err, s4a.ErrIndex)
}

func TestReadAll(t *testing.T) {
	t.Parallel()

	data := []byte("an index object fetched through a byte source")
	got, err := s4a.ReadAll(testutil.NewMockByteSource(data))
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestMaxEntrySize(t *testing.T) {
	t.Parallel()

	data := testutil.BuildArchive(t, []string{"big"},
		map[string][]byte{"big": make([]byte, 4096)}, s4a.CompressionZstd)
	archive, err := s4a.Open(testutil.NewMockByteSource(data), s4a.WithMaxEntrySize(8))
	require.NoError(t, err)

	_, err = archive.Get("big")
	require.ErrorIs(t, err, s4a.ErrSizeOverflow)
}
