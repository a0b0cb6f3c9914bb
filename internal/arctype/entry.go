package arctype

// Entry describes one named member of an archive.
type Entry struct {
	// Name is the entry's unique key within the archive.
	Name string

	// Kind is the free-form type tag recorded by the writer (for example
	// "f" for files). The reader passes it through without interpreting it.
	Kind string

	// Offset is the byte offset of the compressed payload, relative to the
	// start of the blob region.
	Offset uint64

	// Size is the stored (compressed) length of the payload in bytes.
	Size uint64

	// Compression identifies the codec used for this entry's payload.
	Compression Compression
}

// Table maps entry names to their metadata. A Table is built once when an
// archive is opened and never mutated afterwards.
type Table map[string]Entry
