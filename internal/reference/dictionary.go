// Package reference holds the read-only tables that drive decoding: the Data
// Dictionary, the Coding table, the Category Tree and the Field Properties
// table. Each table keeps its original header and cells so that a subset can
// be written back out unchanged.
package reference

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/guregu/null.v3"

	"phenoextract/internal/parser/ints"
	"phenoextract/internal/parser/tsv"
)

// DictionaryEntry is one Data Dictionary row.
type DictionaryEntry struct {
	FieldID   int64
	Field     string
	ValueType ValueType
	Category  null.Int
	Coding    null.Int

	// Raw holds every cell of the source row, aligned with Dictionary.Header.
	Raw []string
}

// Dictionary is the Data Dictionary, keyed by FieldID.
type Dictionary struct {
	Header  []string
	Entries []DictionaryEntry
	byID    map[int64]int
}

// NewDictionary indexes entries by FieldID. When a FieldID repeats, the first
// entry is the one Lookup returns.
func NewDictionary(header []string, entries []DictionaryEntry) *Dictionary {
	d := &Dictionary{Header: header, Entries: entries, byID: make(map[int64]int, len(entries))}
	for i, e := range entries {
		if _, ok := d.byID[e.FieldID]; !ok {
			d.byID[e.FieldID] = i
		}
	}
	return d
}

// Lookup returns the entry for fieldID.
func (d *Dictionary) Lookup(fieldID int64) (DictionaryEntry, bool) {
	if d == nil {
		return DictionaryEntry{}, false
	}
	i, ok := d.byID[fieldID]
	if !ok {
		return DictionaryEntry{}, false
	}
	return d.Entries[i], true
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Entries)
}

// Filter returns a new Dictionary holding the entries for which keep is true,
// in their original order.
func (d *Dictionary) Filter(keep func(DictionaryEntry) bool) *Dictionary {
	var out []DictionaryEntry
	for _, e := range d.Entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return NewDictionary(d.Header, out)
}

// CodingIDs returns the distinct non-null Coding ids referenced by d.
func (d *Dictionary) CodingIDs() map[int64]struct{} {
	out := make(map[int64]struct{})
	for _, e := range d.Entries {
		if e.Coding.Valid {
			out[e.Coding.Int64] = struct{}{}
		}
	}
	return out
}

// LoadDictionary reads a tab-separated Data Dictionary. Quotes are literal:
// showcase descriptions contain unbalanced double quotes.
func LoadDictionary(r io.Reader) (*Dictionary, error) {
	tr, err := tsv.NewReader(r, tsv.Options{})
	if err != nil {
		return nil, fmt.Errorf("dictionary: %w", err)
	}
	idx, err := tr.Require("FieldID", "Field", "ValueType", "Category", "Coding")
	if err != nil {
		return nil, fmt.Errorf("dictionary: %w", err)
	}
	var entries []DictionaryEntry
	for {
		rec, err := tr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dictionary: %w", err)
		}
		fid, err := ints.ParseLenient(tsv.Cell(rec, idx[0]))
		if err != nil {
			return nil, fmt.Errorf("dictionary: line %d: FieldID: %w", tr.Line(), err)
		}
		cat, err := nullableInt(tsv.Cell(rec, idx[3]))
		if err != nil {
			return nil, fmt.Errorf("dictionary: line %d: Category: %w", tr.Line(), err)
		}
		coding, err := nullableInt(tsv.Cell(rec, idx[4]))
		if err != nil {
			return nil, fmt.Errorf("dictionary: line %d: Coding: %w", tr.Line(), err)
		}
		entries = append(entries, DictionaryEntry{
			FieldID:   fid,
			Field:     tsv.Cell(rec, idx[1]),
			ValueType: ParseValueType(strings.TrimSpace(tsv.Cell(rec, idx[2]))),
			Category:  cat,
			Coding:    coding,
			Raw:       padded(rec, len(tr.Header())),
		})
	}
	return NewDictionary(append([]string(nil), tr.Header()...), entries), nil
}

// nullableInt parses an optional integer cell; blank and "NA" are null.
func nullableInt(s string) (null.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "NA" {
		return null.Int{}, nil
	}
	v, err := ints.ParseLenient(s)
	if err != nil {
		return null.Int{}, err
	}
	return null.IntFrom(v), nil
}

// padded copies rec and pads it with empty cells up to width.
func padded(rec []string, width int) []string {
	n := len(rec)
	if n < width {
		n = width
	}
	out := make([]string, n)
	copy(out, rec)
	return out
}
