package s4a_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s4a-format/s4a"
	"github.com/s4a-format/s4a/internal/testutil"
)

func TestOpenFileRoundTrip(t *testing.T) {
	t.Parallel()

	files := map[string][]byte{
		"hello.txt":  []byte("hello from disk"),
		"nested/a.b": []byte("nested entry"),
	}
	data := testutil.BuildArchive(t, []string{"hello.txt", "nested/a.b"}, files, s4a.CompressionLZMA)

	path := filepath.Join(t.TempDir(), "test.s4a")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	archive, err := s4a.OpenFile(path)
	require.NoError(t, err)
	defer archive.Close()

	for name, want := range files {
		got, err := archive.Get(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestOpenSplitFileRoundTrip(t *testing.T) {
	t.Parallel()

	files := map[string][]byte{"only.txt": []byte("split on disk")}
	indexDB, blob := testutil.BuildSplit(t, []string{"only.txt"}, files, s4a.CompressionLZ4)

	dir := t.TempDir()
	indexPath := filepath.Join(dir, "test.s4a.db")
	blobPath := filepath.Join(dir, "test.blob")
	require.NoError(t, os.WriteFile(indexPath, indexDB, 0o644))
	require.NoError(t, os.WriteFile(blobPath, blob, 0o644))

	archive, err := s4a.OpenSplitFile(indexPath, blobPath)
	require.NoError(t, err)
	defer archive.Close()

	got, err := archive.Get("only.txt")
	require.NoError(t, err)
	assert.Equal(t, files["only.txt"], got)
}

func TestOpenFileMissing(t *testing.T) {
	t.Parallel()

	_, err := s4a.OpenFile(filepath.Join(t.TempDir(), "no-such.s4a"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenFileNamesPathOnError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.s4a")
	require.NoError(t, os.WriteFile(path, make([]byte, 16), 0o644))

	_, err := s4a.OpenFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.s4a")
}

func TestArchiveFileCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	data := testutil.BuildArchive(t, []string{"a"},
		map[string][]byte{"a": []byte("x")}, s4a.CompressionZstd)
	path := filepath.Join(t.TempDir(), "test.s4a")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	archive, err := s4a.OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, archive.Close())
	require.NoError(t, archive.Close())
}
