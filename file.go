package s4a

import (
	"fmt"
	"os"
)

// fileSource wraps *os.File to implement ByteSource.
// os.File has ReadAt but not Size, so the size is cached at construction.
// ReadAt on a file handle is a positioned read, so concurrent entry
// fetches never share a cursor.
type fileSource struct {
	file *os.File
	size int64
}

// newFileSource creates a fileSource from an open file.
func newFileSource(f *os.File) (*fileSource, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat archive file: %w", err)
	}
	return &fileSource{file: f, size: info.Size()}, nil
}

// ReadAt implements io.ReaderAt.
func (fs *fileSource) ReadAt(p []byte, off int64) (int, error) {
	return fs.file.ReadAt(p, off)
}

// Size returns the total size of the file.
func (fs *fileSource) Size() int64 {
	return fs.size
}

// ArchiveFile wraps an Archive with its underlying file handle.
// Close must be called to release the handle.
type ArchiveFile struct {
	*Archive
	file *os.File
}

// Close closes the underlying archive file.
func (af *ArchiveFile) Close() error {
	if af.file == nil {
		return nil
	}
	err := af.file.Close()
	af.file = nil
	return err
}

// OpenFile opens a self-contained archive from the local filesystem.
//
// The file is opened for random access and held until Close; the index is
// read immediately, entry contents on demand.
func OpenFile(path string, opts ...Option) (*ArchiveFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive file: %w", err)
	}

	source, err := newFileSource(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	a, err := Open(source, opts...)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &ArchiveFile{Archive: a, file: f}, nil
}

// OpenSplitFile opens a split-layout archive from a local index file and
// its sibling blob file. The index file is read into memory whole; the blob
// is opened for random access and held until Close.
func OpenSplitFile(indexPath, blobPath string, opts ...Option) (*ArchiveFile, error) {
	indexData, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, fmt.Errorf("read index file: %w", err)
	}

	f, err := os.Open(blobPath)
	if err != nil {
		return nil, fmt.Errorf("open blob file: %w", err)
	}

	source, err := newFileSource(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	a, err := OpenSplit(indexData, source, opts...)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", blobPath, err)
	}

	return &ArchiveFile{Archive: a, file: f}, nil
}

// Interface compliance.
var _ ByteSource = (*fileSource)(nil)
