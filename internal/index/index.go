package index

import (
	"errors"
	"fmt"
	"os"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/s4a-format/s4a/internal/arctype"
)

// Queries for the two schema revisions. The legacy revision predates
// per-entry codecs and stores LZMA payloads only.
const (
	selectEntries       = "SELECT name, type, offset, size, compression FROM entry_list"
	selectEntriesLegacy = "SELECT name, type, offset, size FROM entry_list"
)

// Decode parses an index payload carrying the current schema
// (name, type, offset, size, compression) into an entry table.
//
// Decode reads only its input; it never touches the blob backend.
func Decode(data []byte) (arctype.Table, error) {
	return decode(data, false)
}

// DecodeLegacy parses an index payload carrying the legacy schema without a
// compression column. Every decoded entry is normalized to LZMA, the only
// codec that revision of the format supported.
func DecodeLegacy(data []byte) (arctype.Table, error) {
	return decode(data, true)
}

func decode(data []byte, legacy bool) (arctype.Table, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty index payload", arctype.ErrIndex)
	}

	// The SQLite driver wants a file, not bytes. Spool the payload to a
	// private temp file for the duration of the decode.
	path, cleanup, err := spool(data)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	conn, err := sqlite.OpenConn(path, sqlite.OpenReadOnly)
	if err != nil {
		return nil, fmt.Errorf("%w: opening index database: %v", arctype.ErrIndex, err)
	}
	defer conn.Close()

	query := selectEntries
	if legacy {
		query = selectEntriesLegacy
	}

	table := make(arctype.Table)
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			entry, err := scanEntry(stmt, legacy)
			if err != nil {
				return err
			}
			if _, dup := table[entry.Name]; dup {
				return fmt.Errorf("%w: duplicate entry name %q", arctype.ErrIndex, entry.Name)
			}
			table[entry.Name] = entry
			return nil
		},
	})
	if err != nil {
		return nil, indexErr(err)
	}

	return table, nil
}

// scanEntry converts one entry_list row into an Entry. Rows with a NULL
// name or negative offset/size are corruption, not tolerable variation.
func scanEntry(stmt *sqlite.Stmt, legacy bool) (arctype.Entry, error) {
	if stmt.ColumnIsNull(0) {
		return arctype.Entry{}, fmt.Errorf("%w: entry with NULL name", arctype.ErrIndex)
	}
	name := stmt.ColumnText(0)

	offset := stmt.ColumnInt64(2)
	size := stmt.ColumnInt64(3)
	if offset < 0 || size < 0 {
		return arctype.Entry{}, fmt.Errorf("%w: entry %q has negative offset or size", arctype.ErrIndex, name)
	}

	compression := arctype.CompressionLZMA
	if !legacy {
		if stmt.ColumnIsNull(4) {
			return arctype.Entry{}, fmt.Errorf("%w: entry %q has NULL compression", arctype.ErrIndex, name)
		}
		compression = arctype.ParseCompression(stmt.ColumnText(4))
	}

	return arctype.Entry{
		Name:        name,
		Kind:        stmt.ColumnText(1),
		Offset:      uint64(offset),
		Size:        uint64(size),
		Compression: compression,
	}, nil
}

// indexErr wraps driver errors with ErrIndex, leaving errors from the row
// callback (which already carry ErrIndex) untouched.
func indexErr(err error) error {
	if errors.Is(err, arctype.ErrIndex) {
		return err
	}
	return fmt.Errorf("%w: querying entry_list: %v", arctype.ErrIndex, err)
}

// spool writes data to a temp file and returns its path with a cleanup
// function.
func spool(data []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "s4a-index-*.db")
	if err != nil {
		return "", nil, fmt.Errorf("%w: spooling index: %v", arctype.ErrIndex, err)
	}
	path := f.Name()
	cleanup := func() {
		os.Remove(path)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("%w: spooling index: %v", arctype.ErrIndex, err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("%w: spooling index: %v", arctype.ErrIndex, err)
	}
	return path, cleanup, nil
}
