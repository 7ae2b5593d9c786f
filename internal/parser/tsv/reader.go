// Package tsv implements a streaming tab-separated reader for biobank tables.
// It never buffers the whole input, decodes bytes as lossy UTF-8 (invalid
// sequences become U+FFFD), and maps columns by header name.
//
// Two modes are supported:
//   - Quoted: fields may be wrapped in double quotes (encoding/csv rules).
//     Lenient about stray quotes unless Strict is set. Coding tables are read
//     leniently; long-format data files strictly, so an unterminated quote is
//     a line-numbered error instead of a cell that swallows later rows.
//   - Raw: fields are split on tabs only and quotes are literal. The data
//     dictionary needs this because free-text descriptions contain unbalanced
//     quotes.
package tsv

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Options configures a Reader.
type Options struct {
	// Quoted enables double-quote handling. When false, quotes are literal.
	Quoted bool

	// Strict rejects bare and unterminated quotes in Quoted mode.
	Strict bool
}

// Reader reads header-addressed rows.
type Reader struct {
	header []string
	index  map[string]int
	read   func() ([]string, error)
	line   int
}

// NewReader wraps r and consumes the header row. An input without a header
// row is an error.
func NewReader(r io.Reader, opt Options) (*Reader, error) {
	lossy := transform.NewReader(r, runes.ReplaceIllFormed())

	rd := &Reader{}
	if opt.Quoted {
		cr := csv.NewReader(lossy)
		cr.Comma = '\t'
		cr.LazyQuotes = !opt.Strict
		cr.FieldsPerRecord = -1
		cr.ReuseRecord = true
		rd.read = cr.Read
	} else {
		br := bufio.NewReaderSize(lossy, 256*1024)
		rd.read = func() ([]string, error) { return readRawLine(br) }
	}

	hdr, err := rd.next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("tsv: missing header row")
		}
		return nil, fmt.Errorf("tsv: read header: %w", err)
	}
	hdr = StripHeaderBOM(append([]string(nil), hdr...))
	rd.header = hdr
	rd.index = make(map[string]int, len(hdr))
	for i, h := range hdr {
		h = strings.TrimSpace(h)
		rd.header[i] = h
		if _, dup := rd.index[h]; !dup {
			rd.index[h] = i
		}
	}
	return rd, nil
}

// Header returns the normalized header cells.
func (r *Reader) Header() []string { return r.header }

// Line returns the 1-based line number of the most recently read row (the
// header is line 1).
func (r *Reader) Line() int { return r.line }

// Index returns the position of column name.
func (r *Reader) Index(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

// Require resolves every name to its position or reports all missing columns.
func (r *Reader) Require(names ...string) ([]int, error) {
	out := make([]int, len(names))
	var missing []string
	for i, n := range names {
		ix, ok := r.index[n]
		if !ok {
			missing = append(missing, n)
			continue
		}
		out[i] = ix
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("tsv: missing required columns %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// Read returns the next non-empty row, or io.EOF. The returned slice may be
// reused by the next call; callers copy what they keep. Cells beyond the end
// of a short row are absent, so use Cell for positional access.
func (r *Reader) Read() ([]string, error) {
	for {
		rec, err := r.next()
		if err != nil {
			return nil, err
		}
		if len(rec) == 1 && rec[0] == "" {
			continue
		}
		return rec, nil
	}
}

func (r *Reader) next() ([]string, error) {
	rec, err := r.read()
	if err == nil {
		r.line++
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("line %d: %w", r.line+1, err)
	}
	return rec, err
}

// Cell returns rec[i], or "" when the row is shorter than i+1.
func Cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// readRawLine reads one line and splits it on tabs. A final line without a
// trailing newline is returned before io.EOF.
func readRawLine(br *bufio.Reader) ([]string, error) {
	s, err := br.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || s == "") {
		return nil, err
	}
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return strings.Split(s, "\t"), nil
}
