package extract

import (
	"context"
	"slices"

	"phenoextract/internal/config"
	"phenoextract/internal/reference"
)

// IDSet is a set of integer ids. A nil or empty set means "no restriction"
// when used as a filter.
type IDSet map[int64]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...int64) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership. It is safe on a nil set.
func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending order.
func (s IDSet) Sorted() []int64 {
	out := make([]int64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// ResolveCategories closes requested over the category edges (every
// descendant of a requested category is added) and returns that closure
// together with the FieldIDs whose dictionary Category lies inside it, in
// dictionary order. It is a pure function of its inputs and terminates on
// cyclic edge sets.
func ResolveCategories(requested []int64, edges []reference.CategoryEdge, dict *reference.Dictionary) (IDSet, []int64) {
	closure := NewIDSet(requested...)
	for grew := len(closure) > 0; grew; {
		grew = false
		for _, e := range edges {
			if closure.Has(e.Parent) && !closure.Has(e.Child) {
				closure[e.Child] = struct{}{}
				grew = true
			}
		}
	}

	var fields []int64
	if dict == nil {
		return closure, fields
	}
	seen := make(IDSet)
	for _, e := range dict.Entries {
		if e.Category.Valid && closure.Has(e.Category.Int64) && !seen.Has(e.FieldID) {
			seen[e.FieldID] = struct{}{}
			fields = append(fields, e.FieldID)
		}
	}
	return closure, fields
}

// FilterSet is the resolved set of row filters for one run. It is computed
// from the Configuration and never written back into it.
type FilterSet struct {
	SubjectIDs  IDSet
	FieldIDs    IDSet
	InstanceIDs IDSet
	ArrayIDs    IDSet

	// Categories is the category closure; empty when none were requested.
	Categories IDSet
	// CategoryFieldIDs lists the FieldIDs contributed by Categories.
	CategoryFieldIDs []int64
}

// ResolveFilters unions SubjectIDs with the ids listed in SubjectIDFiles and
// FieldIDs with the fields of the requested categories.
func ResolveFilters(ctx context.Context, op Opener, cfg config.Config, refs *References) (FilterSet, error) {
	fileIDs, err := ReadSubjectFiles(ctx, op, cfg.SubjectIDFiles)
	if err != nil {
		return FilterSet{}, err
	}
	return resolveFilters(cfg, fileIDs, refs)
}

func resolveFilters(cfg config.Config, subjectFileIDs []int64, refs *References) (FilterSet, error) {
	fs := FilterSet{
		SubjectIDs:  NewIDSet(cfg.SubjectIDs.Values()...),
		FieldIDs:    NewIDSet(cfg.FieldIDs.Values()...),
		InstanceIDs: NewIDSet(cfg.InstanceIDs.Values()...),
		ArrayIDs:    NewIDSet(cfg.ArrayIDs.Values()...),
	}
	for _, id := range subjectFileIDs {
		fs.SubjectIDs[id] = struct{}{}
	}

	if len(cfg.Categories) > 0 {
		if refs == nil || refs.Tree == nil || refs.Dictionary == nil {
			return FilterSet{}, &InputError{Kind: ErrReferenceDataUnavailable, Path: "category tree"}
		}
		fs.Categories, fs.CategoryFieldIDs = ResolveCategories(cfg.Categories.Values(), refs.Tree, refs.Dictionary)
		for _, id := range fs.CategoryFieldIDs {
			fs.FieldIDs[id] = struct{}{}
		}
	}
	return fs, nil
}
