package reference

import (
	"errors"
	"fmt"
	"io"

	"phenoextract/internal/parser/ints"
	"phenoextract/internal/parser/tsv"
)

// CodingEntry maps a raw Value within one Coding to its Meaning.
type CodingEntry struct {
	Coding  int64
	Value   string
	Meaning string
	Raw     []string
}

type codingKey struct {
	coding int64
	value  string
}

// Codings is the Coding table, keyed by (Coding, Value).
type Codings struct {
	Header  []string
	Entries []CodingEntry
	byKey   map[codingKey]int
}

// NewCodings indexes entries; the first entry wins for a repeated key.
func NewCodings(header []string, entries []CodingEntry) *Codings {
	c := &Codings{Header: header, Entries: entries, byKey: make(map[codingKey]int, len(entries))}
	for i, e := range entries {
		k := codingKey{e.Coding, e.Value}
		if _, ok := c.byKey[k]; !ok {
			c.byKey[k] = i
		}
	}
	return c
}

// Meaning returns the decoded label for value under coding.
func (c *Codings) Meaning(coding int64, value string) (string, bool) {
	if c == nil {
		return "", false
	}
	i, ok := c.byKey[codingKey{coding, value}]
	if !ok {
		return "", false
	}
	return c.Entries[i].Meaning, true
}

func (c *Codings) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Entries)
}

// Filter returns the entries for which keep is true.
func (c *Codings) Filter(keep func(CodingEntry) bool) *Codings {
	var out []CodingEntry
	for _, e := range c.Entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return NewCodings(c.Header, out)
}

// LoadCodings reads a tab-separated Coding table with columns Coding, Value
// and Meaning.
func LoadCodings(r io.Reader) (*Codings, error) {
	tr, err := tsv.NewReader(r, tsv.Options{Quoted: true})
	if err != nil {
		return nil, fmt.Errorf("codings: %w", err)
	}
	idx, err := tr.Require("Coding", "Value", "Meaning")
	if err != nil {
		return nil, fmt.Errorf("codings: %w", err)
	}
	var entries []CodingEntry
	for {
		rec, err := tr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("codings: %w", err)
		}
		id, err := ints.ParseLenient(tsv.Cell(rec, idx[0]))
		if err != nil {
			return nil, fmt.Errorf("codings: line %d: Coding: %w", tr.Line(), err)
		}
		entries = append(entries, CodingEntry{
			Coding:  id,
			Value:   tsv.Cell(rec, idx[1]),
			Meaning: tsv.Cell(rec, idx[2]),
			Raw:     padded(rec, len(tr.Header())),
		})
	}
	return NewCodings(append([]string(nil), tr.Header()...), entries), nil
}
