// Command s4a inspects and extracts seekable compressed archives.
//
// The archive may be a local file or an HTTP(S) URL; remote archives are
// read with range requests, so listing or extracting single entries never
// downloads the whole object.
//
//	s4a ls      <archive>
//	s4a cat     <archive> <entry>...
//	s4a extract <archive> [entry]... --out DIR
//
// A self-contained archive is addressed directly. A split archive is
// addressed by its blob with --index pointing at the index object.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/s4a-format/s4a"
	"github.com/s4a-format/s4a/httpsource"
)

const usage = `Usage:
  s4a ls      <archive>              list entries
  s4a cat     <archive> <entry>...   write entry contents to stdout
  s4a extract <archive> [entry]...   extract entries (default: all) to --out

Flags:
      --index PATH   index object for split-layout archives (file or URL)
      --legacy       archive index has no compression column (oldest revision)
      --out DIR      extraction destination (default ".")
      --jobs N       concurrent extractions (default 4)
  -v, --verbose      debug logging
`

type options struct {
	index   string
	legacy  bool
	out     string
	jobs    int
	verbose bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "s4a:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("s4a", pflag.ContinueOnError)
	flags.Usage = func() { fmt.Fprint(os.Stderr, usage) }

	var opts options
	flags.StringVar(&opts.index, "index", "", "index object for split-layout archives")
	flags.BoolVar(&opts.legacy, "legacy", false, "legacy index schema without compression column")
	flags.StringVar(&opts.out, "out", ".", "extraction destination directory")
	flags.IntVar(&opts.jobs, "jobs", 4, "concurrent extractions")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	if err := flags.Parse(args); err != nil {
		return err
	}
	rest := flags.Args()
	if len(rest) < 2 {
		flags.Usage()
		return fmt.Errorf("missing command or archive")
	}
	command, target, names := rest[0], rest[1], rest[2:]

	archive, closeArchive, err := openArchive(target, &opts)
	if err != nil {
		return err
	}
	defer closeArchive()

	switch command {
	case "ls":
		return list(archive)
	case "cat":
		if len(names) == 0 {
			return fmt.Errorf("cat: no entries named")
		}
		return cat(archive, names)
	case "extract":
		return extract(archive, names, &opts)
	default:
		flags.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// openArchive opens target as a local path or URL, self-contained or split.
func openArchive(target string, opts *options) (*s4a.Archive, func(), error) {
	var archiveOpts []s4a.Option
	if opts.legacy {
		archiveOpts = append(archiveOpts, s4a.WithLegacyIndex())
	}
	if opts.verbose {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		archiveOpts = append(archiveOpts, s4a.WithLogger(logger))
	}

	noop := func() {}

	if isURL(target) {
		source, err := httpsource.NewSource(target)
		if err != nil {
			return nil, nil, err
		}
		if opts.index == "" {
			a, err := s4a.Open(source, archiveOpts...)
			return a, noop, err
		}
		indexData, err := readIndexObject(opts.index)
		if err != nil {
			return nil, nil, err
		}
		a, err := s4a.OpenSplit(indexData, source, archiveOpts...)
		return a, noop, err
	}

	if opts.index == "" {
		af, err := s4a.OpenFile(target, archiveOpts...)
		if err != nil {
			return nil, nil, err
		}
		return af.Archive, func() { af.Close() }, nil
	}
	af, err := s4a.OpenSplitFile(opts.index, target, archiveOpts...)
	if err != nil {
		return nil, nil, err
	}
	return af.Archive, func() { af.Close() }, nil
}

// readIndexObject fetches a split archive's index from a file or URL.
func readIndexObject(target string) ([]byte, error) {
	if !isURL(target) {
		return os.ReadFile(target)
	}
	source, err := httpsource.NewSource(target)
	if err != nil {
		return nil, err
	}
	return s4a.ReadAll(source)
}

func isURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// list prints the entry table sorted by name.
func list(archive *s4a.Archive) error {
	entries := make([]s4a.Entry, 0, archive.Len())
	for entry := range archive.Entries() {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tOFFSET\tSIZE\tCODEC")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", e.Name, e.Kind, e.Offset, e.Size, e.Compression)
	}
	return w.Flush()
}

// cat writes entry contents to stdout in the order named.
func cat(archive *s4a.Archive, names []string) error {
	for _, name := range names {
		data, err := archive.Get(name)
		if err != nil {
			return err
		}
		if _, err := os.Stdout.Write(data); err != nil {
			return err
		}
	}
	return nil
}

// extract writes entries to the destination directory, fetching concurrently.
// Entry names become relative paths under --out; anything escaping the
// destination is rejected.
func extract(archive *s4a.Archive, names []string, opts *options) error {
	if len(names) == 0 {
		for entry := range archive.Entries() {
			names = append(names, entry.Name)
		}
	}

	// Resolve every handle up front so a typo fails before any fetch.
	readers := make([]*s4a.EntryReader, len(names))
	for i, name := range names {
		r, err := archive.GetReader(name)
		if err != nil {
			return err
		}
		readers[i] = r
	}

	var g errgroup.Group
	g.SetLimit(max(opts.jobs, 1))
	for _, r := range readers {
		g.Go(func() error {
			return extractOne(r, opts.out)
		})
	}
	return g.Wait()
}

func extractOne(r *s4a.EntryReader, destDir string) error {
	name := r.Entry().Name
	dest := filepath.Join(destDir, filepath.FromSlash(name))
	rel, err := filepath.Rel(destDir, dest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("extract %q: escapes destination", name)
	}

	data, err := r.Read()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}
