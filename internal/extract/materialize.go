package extract

import (
	"context"
	"errors"
	"fmt"
	"io"

	"phenoextract/internal/dataset"
	"phenoextract/internal/reference"
)

// StageCount records how many rows entered and left a stage.
type StageCount struct {
	Name string
	In   int64
	Out  int64
}

// ctxCheckEvery bounds how many rows are processed between context checks.
const ctxCheckEvery = 4096

// Materialize runs p over src in a single pass and returns the projected
// narrow rows in source order. src is read to EOF but not closed.
func (p *Plan) Materialize(ctx context.Context, src RowSource) (*dataset.Narrow, []StageCount, error) {
	counts := make([]StageCount, len(p.stages))
	narrow := &dataset.Narrow{FieldNamesRecoded: p.recodedFields}

	var emit Emit = func(r Row) error {
		narrow.Rows = append(narrow.Rows, r.Row)
		return nil
	}
	for i := len(p.stages) - 1; i >= 0; i-- {
		s, next, c := p.stages[i], emit, &counts[i]
		c.Name = s.Name()
		out := func(r Row) error {
			c.Out++
			return next(r)
		}
		emit = func(r Row) error {
			c.In++
			return s.Process(r, out)
		}
	}

	for n := 0; ; n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, counts, err
			}
		}
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, counts, fmt.Errorf("read data: %w", err)
		}
		if err := emit(Row{Row: rec}); err != nil {
			return nil, counts, err
		}
	}
	return narrow, counts, nil
}

// Contract returns the dictionary rows for fieldIDs and the coding rows
// referenced by them. With an empty fieldIDs the full tables are returned.
func Contract(dict *reference.Dictionary, codings *reference.Codings, fieldIDs IDSet) (*reference.Dictionary, *reference.Codings) {
	if len(fieldIDs) == 0 {
		return dict, codings
	}
	d := dict.Filter(func(e reference.DictionaryEntry) bool { return fieldIDs.Has(e.FieldID) })
	used := d.CodingIDs()
	c := codings.Filter(func(e reference.CodingEntry) bool {
		_, ok := used[e.Coding]
		return ok
	})
	return d, c
}
