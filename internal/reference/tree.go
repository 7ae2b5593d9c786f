package reference

import (
	"errors"
	"fmt"
	"io"

	"phenoextract/internal/parser/ints"
	"phenoextract/internal/parser/tsv"
)

// CategoryEdge is a parent/child link between two category ids.
type CategoryEdge struct {
	Parent int64
	Child  int64
}

// LoadCategoryTree reads edges from a file with parent_id and child_id
// columns. The result is non-nil even when the file has no edges.
func LoadCategoryTree(r io.Reader) ([]CategoryEdge, error) {
	tr, err := tsv.NewReader(r, tsv.Options{Quoted: true})
	if err != nil {
		return nil, fmt.Errorf("category tree: %w", err)
	}
	idx, err := tr.Require("parent_id", "child_id")
	if err != nil {
		return nil, fmt.Errorf("category tree: %w", err)
	}
	edges := make([]CategoryEdge, 0, 64)
	for {
		rec, err := tr.Read()
		if errors.Is(err, io.EOF) {
			return edges, nil
		}
		if err != nil {
			return nil, fmt.Errorf("category tree: %w", err)
		}
		p, err := ints.ParseLenient(tsv.Cell(rec, idx[0]))
		if err != nil {
			return nil, fmt.Errorf("category tree: line %d: parent_id: %w", tr.Line(), err)
		}
		c, err := ints.ParseLenient(tsv.Cell(rec, idx[1]))
		if err != nil {
			return nil, fmt.Errorf("category tree: line %d: child_id: %w", tr.Line(), err)
		}
		edges = append(edges, CategoryEdge{Parent: p, Child: c})
	}
}

// FieldProperties records which fields are instanced. Fields absent from the
// table are treated as instanced.
type FieldProperties map[int64]bool

// Instanced reports whether fieldID varies across instances.
func (p FieldProperties) Instanced(fieldID int64) bool {
	v, ok := p[fieldID]
	return !ok || v
}

// LoadFieldProperties reads a file with field_id and instanced columns.
// instanced is 0 for fields whose value is constant across instances.
func LoadFieldProperties(r io.Reader) (FieldProperties, error) {
	tr, err := tsv.NewReader(r, tsv.Options{Quoted: true})
	if err != nil {
		return nil, fmt.Errorf("field properties: %w", err)
	}
	idx, err := tr.Require("field_id", "instanced")
	if err != nil {
		return nil, fmt.Errorf("field properties: %w", err)
	}
	props := make(FieldProperties)
	for {
		rec, err := tr.Read()
		if errors.Is(err, io.EOF) {
			return props, nil
		}
		if err != nil {
			return nil, fmt.Errorf("field properties: %w", err)
		}
		id, err := ints.ParseLenient(tsv.Cell(rec, idx[0]))
		if err != nil {
			return nil, fmt.Errorf("field properties: line %d: field_id: %w", tr.Line(), err)
		}
		inst, err := ints.ParseLenient(tsv.Cell(rec, idx[1]))
		if err != nil {
			return nil, fmt.Errorf("field properties: line %d: instanced: %w", tr.Line(), err)
		}
		if _, seen := props[id]; !seen {
			props[id] = inst != 0
		}
	}
}
