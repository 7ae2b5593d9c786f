package extract

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"phenoextract/internal/dataset"
	"phenoextract/internal/parser/ints"
	"phenoextract/internal/parser/ipc"
	"phenoextract/internal/parser/tsv"
)

// Opener resolves input locations. datasource.Resolver implements it.
type Opener interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
	LocalPath(ctx context.Context, location string) (path string, cleanup func(), err error)
}

// RowSource yields raw long-format rows in source order.
type RowSource interface {
	// Next returns the next row or io.EOF.
	Next() (dataset.Row, error)
	Close() error
}

// OpenRowSource picks a reader by the extension of location: .tsv and .txt
// are tab-separated, .arrow and .feather are Arrow IPC.
func OpenRowSource(ctx context.Context, op Opener, location string) (RowSource, error) {
	switch ext := strings.ToLower(path.Ext(location)); ext {
	case ".tsv", ".txt":
		rc, err := op.Open(ctx, location)
		if err != nil {
			return nil, fmt.Errorf("open data file: %w", err)
		}
		src, err := newTSVSource(rc)
		if err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("data file %s: %w", location, err)
		}
		return src, nil
	case ".arrow", ".feather":
		p, cleanup, err := op.LocalPath(ctx, location)
		if err != nil {
			return nil, fmt.Errorf("open data file: %w", err)
		}
		r, err := ipc.Open(p)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("data file %s: %w", location, err)
		}
		return &ipcSource{r: r, cleanup: cleanup}, nil
	default:
		return nil, &InputError{
			Kind: ErrUnsupportedInput,
			Path: location,
			Err:  fmt.Errorf("extension %q is not one of .tsv, .txt, .arrow, .feather", ext),
		}
	}
}

type tsvSource struct {
	rc  io.Closer
	r   *tsv.Reader
	idx []int
}

func newTSVSource(rc io.ReadCloser) (*tsvSource, error) {
	r, err := tsv.NewReader(rc, tsv.Options{Quoted: true, Strict: true})
	if err != nil {
		return nil, err
	}
	idx, err := r.Require(ipc.Columns...)
	if err != nil {
		return nil, err
	}
	return &tsvSource{rc: rc, r: r, idx: idx}, nil
}

func (s *tsvSource) Next() (dataset.Row, error) {
	rec, err := s.r.Read()
	if err != nil {
		return dataset.Row{}, err
	}
	var out dataset.Row
	dst := [4]*int64{&out.SubjectID, &out.FieldID, &out.InstanceID, &out.ArrayID}
	for i, p := range dst {
		v, err := ints.ParseLenient(tsv.Cell(rec, s.idx[i]))
		if err != nil {
			return dataset.Row{}, fmt.Errorf("line %d: %s: %w", s.r.Line(), ipc.Columns[i], err)
		}
		*p = v
	}
	out.FieldValue = tsv.Cell(rec, s.idx[4])
	return out, nil
}

func (s *tsvSource) Close() error { return s.rc.Close() }

type ipcSource struct {
	r       *ipc.Reader
	cleanup func()
}

func (s *ipcSource) Next() (dataset.Row, error) {
	rec, err := s.r.Next()
	if err != nil {
		return dataset.Row{}, err
	}
	return dataset.Row{
		SubjectID:  rec.SubjectID,
		FieldID:    rec.FieldID,
		InstanceID: rec.InstanceID,
		ArrayID:    rec.ArrayID,
		FieldValue: rec.FieldValue,
	}, nil
}

func (s *ipcSource) Close() error {
	err := s.r.Close()
	s.cleanup()
	return err
}

// sliceSource serves rows from memory.
type sliceSource struct {
	rows []dataset.Row
	i    int
}

// NewSliceSource returns a RowSource over rows.
func NewSliceSource(rows []dataset.Row) RowSource { return &sliceSource{rows: rows} }

func (s *sliceSource) Next() (dataset.Row, error) {
	if s.i >= len(s.rows) {
		return dataset.Row{}, io.EOF
	}
	s.i++
	return s.rows[s.i-1], nil
}

func (s *sliceSource) Close() error { return nil }
