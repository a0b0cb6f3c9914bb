// Package index decodes the SQLite entry table embedded in s4a archives.
//
// The index is a single-table database (entry_list) mapping entry names to
// their offset, size, and codec within the blob region. Two schema revisions
// exist: the current one carries a compression column, the legacy one does
// not and implies LZMA for every entry. The caller chooses the revision;
// the codec performs no version sniffing.
package index
