package output

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"

	"phenoextract/internal/dataset"
	"phenoextract/internal/reference"
)

// table is a text rendering of one dataset: a header and n rows.
type table struct {
	header []string
	n      int
	row    func(i int) []string
}

func narrowRows(n *dataset.Narrow) table {
	return table{
		header: dataset.NarrowColumns,
		n:      n.Len(),
		row:    func(i int) []string { return n.Rows[i].Cells() },
	}
}

func wideRows(w *dataset.Wide) table {
	return table{header: w.Header(), n: w.Len(), row: w.Cells}
}

func dictionaryRows(d *reference.Dictionary) table {
	if d == nil {
		return table{}
	}
	return table{
		header: d.Header,
		n:      d.Len(),
		row:    func(i int) []string { return fit(d.Entries[i].Raw, len(d.Header)) },
	}
}

func codingRows(c *reference.Codings) table {
	if c == nil {
		return table{}
	}
	return table{
		header: c.Header,
		n:      c.Len(),
		row:    func(i int) []string { return fit(c.Entries[i].Raw, len(c.Header)) },
	}
}

// fit pads or truncates cells to width.
func fit(cells []string, width int) []string {
	if len(cells) == width {
		return cells
	}
	out := make([]string, width)
	copy(out, cells)
	return out
}

// writeDelimited writes t to path. Cells containing the separator, a quote
// or a line break are quoted.
func writeDelimited(path string, comma rune, t table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriterSize(f, 1<<20)
	w := csv.NewWriter(bw)
	w.Comma = comma

	if len(t.header) > 0 {
		if err := w.Write(t.header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for i := 0; i < t.n; i++ {
		if err := w.Write(t.row(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return bw.Flush()
}
