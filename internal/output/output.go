// Package output writes the tables of an extraction run: the narrow and
// (optionally) wide datasets plus the contracted dictionary and coding
// tables.
//
// Every selected format is written concurrently. File formats produce
// <prefix>narrow.<ext> and <prefix>wide.<ext>; the dictionary and coding
// tables are always written as <prefix>dictionary.tsv and <prefix>coding.tsv.
// SQL formats load tables named narrow, wide, dictionary and coding.
package output

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"phenoextract/internal/dataset"
	"phenoextract/internal/reference"
)

// Format is an output format name as given on the command line.
type Format string

const (
	FormatTSV      Format = "tsv"
	FormatCSV      Format = "csv"
	FormatArrow    Format = "arrow"
	FormatFeather  Format = "feather"
	FormatParquet  Format = "parquet"
	FormatSQLite   Format = "sqlite"
	FormatPostgres Format = "postgres"
)

// Formats lists every supported format.
var Formats = []Format{FormatTSV, FormatCSV, FormatArrow, FormatFeather, FormatParquet, FormatSQLite, FormatPostgres}

func (f Format) sql() bool { return f == FormatSQLite || f == FormatPostgres }

// ParseFormats parses a comma-separated format list. Blank entries are
// skipped and repeats collapse to the first occurrence. Every unknown name
// is reported in one error.
func ParseFormats(s string) ([]Format, error) {
	known := make(map[Format]bool, len(Formats))
	for _, f := range Formats {
		known[f] = true
	}

	var out []Format
	var unknown []string
	seen := map[Format]bool{}
	for _, part := range strings.Split(s, ",") {
		f := Format(strings.ToLower(strings.TrimSpace(part)))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		if !known[f] {
			unknown = append(unknown, string(f))
			continue
		}
		out = append(out, f)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("output: unknown output formats %v", unknown)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("output: no output formats given")
	}
	return out, nil
}

// Options controls where and how tables are written.
type Options struct {
	// Prefix is prepended to every output file name, e.g. "out/ukb_".
	Prefix  string
	Formats []Format

	// SQLDSN is the postgres connection string; required for postgres.
	SQLDSN string

	// SQLitePath is the sqlite database file, <Prefix>extract.db when empty.
	SQLitePath string

	Logger *slog.Logger
}

// Validate checks opt before any work is done.
func (o Options) Validate() error {
	if len(o.Formats) == 0 {
		return fmt.Errorf("output: no output formats given")
	}
	for _, f := range o.Formats {
		if f == FormatPostgres && strings.TrimSpace(o.SQLDSN) == "" {
			return fmt.Errorf("output: format %q requires a DSN", f)
		}
	}
	return nil
}

// Tables are the datasets to write. Wide may be nil.
type Tables struct {
	Narrow     *dataset.Narrow
	Wide       *dataset.Wide
	Dictionary *reference.Dictionary
	Codings    *reference.Codings
}

// Write writes t in every format of opt and returns the written locations,
// sorted. SQL locations are reported as "<format>:<table>".
func Write(ctx context.Context, t Tables, opt Options) ([]string, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	log := opt.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if dir := filepath.Dir(opt.Prefix + "x"); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("output: create %s: %w", dir, err)
		}
	}

	var (
		mu      sync.Mutex
		written []string
	)
	done := func(loc string) {
		mu.Lock()
		written = append(written, loc)
		mu.Unlock()
		log.Info("wrote output", "location", loc)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, f := range opt.Formats {
		if f == FormatCSV {
			log.Warn("CSV output is unreliable for values with embedded quotes or commas; prefer tsv, arrow or parquet")
		}
		g.Go(func() error {
			if f.sql() {
				return writeSQL(gctx, log, f, sqlDSN(f, opt), t, done)
			}
			return writeFiles(gctx, f, opt.Prefix, t, done)
		})
	}
	g.Go(func() error {
		path := opt.Prefix + "dictionary.tsv"
		if err := writeDelimited(path, '\t', dictionaryRows(t.Dictionary)); err != nil {
			return err
		}
		done(path)
		return nil
	})
	g.Go(func() error {
		path := opt.Prefix + "coding.tsv"
		if err := writeDelimited(path, '\t', codingRows(t.Codings)); err != nil {
			return err
		}
		done(path)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(written)
	return written, nil
}

func sqlDSN(f Format, opt Options) string {
	if f != FormatSQLite {
		return opt.SQLDSN
	}
	if opt.SQLitePath != "" {
		return opt.SQLitePath
	}
	return opt.Prefix + "extract.db"
}

// writeFiles writes the narrow and wide datasets in one file format.
func writeFiles(ctx context.Context, f Format, prefix string, t Tables, done func(string)) error {
	type job struct {
		name  string
		write func(path string) error
	}
	jobs := []job{{"narrow", func(path string) error { return writeNarrow(path, f, t.Narrow) }}}
	if t.Wide != nil {
		jobs = append(jobs, job{"wide", func(path string) error { return writeWide(path, f, t.Wide) }})
	}
	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := prefix + j.name + "." + string(f)
		if err := j.write(path); err != nil {
			return fmt.Errorf("output: write %s: %w", path, err)
		}
		done(path)
	}
	return nil
}

func writeNarrow(path string, f Format, n *dataset.Narrow) error {
	switch f {
	case FormatTSV:
		return writeDelimited(path, '\t', narrowRows(n))
	case FormatCSV:
		return writeDelimited(path, ',', narrowRows(n))
	case FormatArrow, FormatFeather:
		return writeIPC(path, func(b *recordBuilder) error { return b.narrow(n) })
	case FormatParquet:
		return writeParquet(path, func(b *recordBuilder) error { return b.narrow(n) })
	}
	return fmt.Errorf("unsupported file format %q", f)
}

func writeWide(path string, f Format, w *dataset.Wide) error {
	switch f {
	case FormatTSV:
		return writeDelimited(path, '\t', wideRows(w))
	case FormatCSV:
		return writeDelimited(path, ',', wideRows(w))
	case FormatArrow, FormatFeather:
		return writeIPC(path, func(b *recordBuilder) error { return b.wide(w) })
	case FormatParquet:
		return writeParquet(path, func(b *recordBuilder) error { return b.wide(w) })
	}
	return fmt.Errorf("unsupported file format %q", f)
}
