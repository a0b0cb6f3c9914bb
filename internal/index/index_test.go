package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s4a-format/s4a/internal/arctype"
	"github.com/s4a-format/s4a/internal/testutil"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	data := testutil.BuildIndexDB(t, []testutil.Entry{
		{Name: "docs/readme.md", Kind: "f", Offset: 0, Size: 120, Compression: arctype.CompressionLZMA},
		{Name: "bin/tool", Kind: "f", Offset: 120, Size: 4096, Compression: arctype.CompressionZstd},
		{Name: "logs/app.log", Kind: "f", Offset: 4216, Size: 77, Compression: arctype.CompressionLZ4},
	}, false)

	table, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, table, 3)

	entry := table["bin/tool"]
	assert.Equal(t, "bin/tool", entry.Name)
	assert.Equal(t, "f", entry.Kind)
	assert.Equal(t, uint64(120), entry.Offset)
	assert.Equal(t, uint64(4096), entry.Size)
	assert.Equal(t, arctype.CompressionZstd, entry.Compression)
}

func TestDecodeNormalizesTagCase(t *testing.T) {
	t.Parallel()

	data := testutil.BuildIndexDB(t, []testutil.Entry{
		{Name: "a", Kind: "f", Offset: 0, Size: 1, Compression: arctype.Compression("lzma")},
	}, false)

	table, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, arctype.CompressionLZMA, table["a"].Compression)
}

func TestDecodePreservesUnknownTag(t *testing.T) {
	t.Parallel()

	// Archives written by newer tools must survive decoding; the unknown
	// codec only fails when the entry is actually read.
	data := testutil.BuildIndexDB(t, []testutil.Entry{
		{Name: "a", Kind: "f", Offset: 0, Size: 1, Compression: arctype.Compression("BROTLI")},
	}, false)

	table, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, arctype.Compression("BROTLI"), table["a"].Compression)
	assert.False(t, table["a"].Compression.Known())
}

func TestDecodeLegacyDefaultsToLZMA(t *testing.T) {
	t.Parallel()

	data := testutil.BuildIndexDB(t, []testutil.Entry{
		{Name: "a", Kind: "f", Offset: 0, Size: 10},
		{Name: "b", Kind: "f", Offset: 10, Size: 20},
		{Name: "c", Kind: "d", Offset: 30, Size: 0},
	}, true)

	table, err := DecodeLegacy(data)
	require.NoError(t, err)
	require.Len(t, table, 3)
	for name, entry := range table {
		assert.Equal(t, arctype.CompressionLZMA, entry.Compression, "entry %q", name)
	}
}

func TestDecodeDuplicateName(t *testing.T) {
	t.Parallel()

	data := testutil.BuildIndexDB(t, []testutil.Entry{
		{Name: "a", Kind: "f", Offset: 0, Size: 10, Compression: arctype.CompressionLZMA},
		{Name: "a", Kind: "f", Offset: 10, Size: 10, Compression: arctype.CompressionLZMA},
	}, false)

	_, err := Decode(data)
	require.ErrorIs(t, err, arctype.ErrIndex)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestDecodeNegativeValues(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name  string
		entry testutil.Entry
	}{
		{"negative offset", testutil.Entry{Name: "a", Kind: "f", Offset: ^uint64(0), Size: 1, Compression: arctype.CompressionLZMA}},
		{"negative size", testutil.Entry{Name: "a", Kind: "f", Offset: 0, Size: ^uint64(0), Compression: arctype.CompressionLZMA}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data := testutil.BuildIndexDB(t, []testutil.Entry{tt.entry}, false)
			_, err := Decode(data)
			require.ErrorIs(t, err, arctype.ErrIndex)
		})
	}
}

func TestDecodeNotADatabase(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte("this is not a sqlite database at all"))
	require.ErrorIs(t, err, arctype.ErrIndex)
}

func TestDecodeEmptyPayload(t *testing.T) {
	t.Parallel()

	_, err := Decode(nil)
	require.ErrorIs(t, err, arctype.ErrIndex)
}

func TestDecodeLegacySchemaWithModernQuery(t *testing.T) {
	t.Parallel()

	// Asking for the compression column from a legacy database is a schema
	// mismatch, reported as an index error rather than a panic or a guess.
	data := testutil.BuildIndexDB(t, []testutil.Entry{
		{Name: "a", Kind: "f", Offset: 0, Size: 10},
	}, true)

	_, err := Decode(data)
	require.ErrorIs(t, err, arctype.ErrIndex)
}

func TestDecodeEmptyTable(t *testing.T) {
	t.Parallel()

	data := testutil.BuildIndexDB(t, nil, false)
	table, err := Decode(data)
	require.NoError(t, err)
	assert.Empty(t, table)
}
