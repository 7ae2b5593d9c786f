package extract

import (
	"phenoextract/internal/bitmap"
	"phenoextract/internal/config"
)

// idFilter keeps rows whose id (selected by key) is in set.
func idFilter(name string, set IDSet, key func(Row) int64) Stage {
	return filterStage(name, func(r Row) bool { return set.Has(key(r)) })
}

// denseWordsPerSubject bounds the bitmap size, in 64-bit words per selected
// subject, above which the subject filter keeps the hash set.
const denseWordsPerSubject = 16

// subjectFilter keeps rows of the selected subjects. Compact id sets are
// checked against a bitmap.
func subjectFilter(set IDSet) Stage {
	ids := set.Sorted()
	if bitmap.Dense(ids, denseWordsPerSubject) {
		bm := bitmap.FromIDs(ids)
		return filterStage("subject-filter", func(r Row) bool { return bm.Has(r.SubjectID) })
	}
	return idFilter("subject-filter", set, func(r Row) int64 { return r.SubjectID })
}

// defaultInstances are replicated into when no InstanceIDs are configured.
var defaultInstances = []int64{0, 1, 2, 3}

// TargetInstances returns the instances non-instanced rows fan out to:
// InstanceIDs when configured, otherwise 0 through 3.
func TargetInstances(cfg config.Config) []int64 {
	if ids := cfg.InstanceIDs.Values(); len(ids) > 0 {
		return ids
	}
	return append([]int64(nil), defaultInstances...)
}
