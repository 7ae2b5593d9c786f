// Package dataset holds the concrete tables an extraction run hands back:
// the Narrow dataset (one row per observation) and the Wide dataset (one row
// per subject, instance and array index). Both are owned by the caller once
// returned and are never modified by the pipeline afterwards.
package dataset

import (
	"strconv"

	"github.com/zeebo/xxh3"
)

// NarrowColumns is the canonical column order of a Narrow dataset.
var NarrowColumns = []string{"SubjectID", "InstanceID", "ArrayID", "FieldID", "FieldValue"}

// Row is one observation. FieldName is set once field names are recoded;
// the FieldID column then renders as FieldName instead of the numeric id.
type Row struct {
	SubjectID  int64
	InstanceID int64
	ArrayID    int64
	FieldID    int64
	FieldName  string
	FieldValue string
}

// FieldKey returns the FieldID column value: the recoded name if present,
// otherwise the decimal id.
func (r Row) FieldKey() string {
	if r.FieldName != "" {
		return r.FieldName
	}
	return strconv.FormatInt(r.FieldID, 10)
}

// Cells renders r in NarrowColumns order.
func (r Row) Cells() []string {
	return []string{
		strconv.FormatInt(r.SubjectID, 10),
		strconv.FormatInt(r.InstanceID, 10),
		strconv.FormatInt(r.ArrayID, 10),
		r.FieldKey(),
		r.FieldValue,
	}
}

// Narrow is the materialized long-format result.
type Narrow struct {
	Rows []Row

	// FieldNamesRecoded reports whether FieldID holds text names.
	FieldNamesRecoded bool
}

// Len returns the number of rows.
func (n *Narrow) Len() int {
	if n == nil {
		return 0
	}
	return len(n.Rows)
}

// Digest returns an xxh3-64 hash of the tab-separated rendering of n,
// header included. Identical datasets always hash identically.
func (n *Narrow) Digest() uint64 {
	h := xxh3.New()
	writeLine(h, NarrowColumns)
	if n != nil {
		for _, r := range n.Rows {
			writeLine(h, r.Cells())
		}
	}
	return h.Sum64()
}

type stringWriter interface {
	WriteString(string) (int, error)
}

func writeLine(w stringWriter, cells []string) {
	for i, c := range cells {
		if i > 0 {
			_, _ = w.WriteString("\t")
		}
		_, _ = w.WriteString(c)
	}
	_, _ = w.WriteString("\n")
}
