// Package wide reshapes a Narrow dataset into one row per (SubjectID,
// InstanceID, ArrayID) with one column per field, then optionally types each
// column from the Data Dictionary.
//
// When two narrow rows fill the same cell, the first one wins and the later
// one is counted in Wide.Duplicates. Rows appear in order of first appearance
// of their key, columns in order of first appearance of their field.
//
// Coercion treats an empty string cell as null, so "" in an Integer or
// Continuous column does not leave the column as text.
package wide

import (
	"log/slog"

	"phenoextract/internal/dataset"
	"phenoextract/internal/reference"
)

// Options controls Pivot.
type Options struct {
	// Coerce types value columns by their dictionary ValueType. When false
	// every column stays TypeString.
	Coerce bool
	// CompoundToList splits Compound columns on "," into lists. Only used
	// when Coerce is set.
	CompoundToList bool

	Logger *slog.Logger
}

// Pivot builds the Wide dataset for n. dict resolves column ValueTypes and
// may be nil when opt.Coerce is false.
func Pivot(n *dataset.Narrow, dict *reference.Dictionary, opt Options) *dataset.Wide {
	log := opt.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	w := &dataset.Wide{}
	keyIdx := make(map[dataset.Key]int)
	colIdx := make(map[string]int)
	var cells []map[int]string

	for _, r := range n.Rows {
		k := dataset.Key{SubjectID: r.SubjectID, InstanceID: r.InstanceID, ArrayID: r.ArrayID}
		ri, ok := keyIdx[k]
		if !ok {
			ri = len(w.Keys)
			keyIdx[k] = ri
			w.Keys = append(w.Keys, k)
		}
		name := r.FieldKey()
		ci, ok := colIdx[name]
		if !ok {
			ci = len(w.Columns)
			colIdx[name] = ci
			w.Columns = append(w.Columns, dataset.Column{Name: name, Type: dataset.TypeString})
			cells = append(cells, make(map[int]string))
		}
		if _, dup := cells[ci][ri]; dup {
			w.Duplicates++
			continue
		}
		cells[ci][ri] = r.FieldValue
	}

	for ci := range w.Columns {
		vals := make([]any, len(w.Keys))
		for ri, v := range cells[ci] {
			vals[ri] = v
		}
		w.Columns[ci].Values = vals
	}

	if w.Duplicates > 0 {
		log.Warn("duplicate observations collapsed, first value kept", "duplicates", w.Duplicates)
	}

	if opt.Coerce {
		for ci := range w.Columns {
			if err := coerceColumn(&w.Columns[ci], dict, opt.CompoundToList); err != nil {
				w.Warnings = append(w.Warnings, err)
				log.Warn("column data type could not be set", "column", w.Columns[ci].Name, "err", err)
			}
		}
	}
	return w
}
