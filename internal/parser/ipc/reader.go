// Package ipc reads long-format biobank rows from Arrow IPC files (.arrow and
// feather v2). Record batches are consumed one at a time so the whole table
// is never resident in memory.
package ipc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Columns are the required input columns, in Record field order.
var Columns = []string{"SubjectID", "FieldID", "InstanceID", "ArrayID", "FieldValue"}

// Record is one long-format row.
type Record struct {
	SubjectID  int64
	FieldID    int64
	InstanceID int64
	ArrayID    int64
	FieldValue string
}

// Reader iterates the rows of an IPC file.
type Reader struct {
	f     *os.File
	next  func() (arrow.Record, error)
	close func()

	cur   arrow.Record
	cols  [5]arrow.Array
	row   int
	batch int
}

// Open opens path as an IPC file, falling back to the IPC stream format.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ipc: open %s: %w", path, err)
	}
	mem := memory.NewGoAllocator()

	r := &Reader{f: f}
	if fr, ferr := ipc.NewFileReader(f, ipc.WithAllocator(mem)); ferr == nil {
		r.next = fr.Read
		r.close = func() { _ = fr.Close() }
		return r, nil
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("ipc: rewind %s: %w", path, err)
	}
	sr, err := ipc.NewReader(f, ipc.WithAllocator(mem))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("ipc: %s is neither an IPC file nor stream: %w", path, err)
	}
	r.next = func() (arrow.Record, error) {
		if sr.Next() {
			return sr.Record(), nil
		}
		if err := sr.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	r.close = sr.Release
	return r, nil
}

// Next returns the next row or io.EOF.
func (r *Reader) Next() (Record, error) {
	for r.cur == nil || r.row >= int(r.cur.NumRows()) {
		rec, err := r.next()
		if err != nil {
			return Record{}, err
		}
		r.batch++
		if err := r.bind(rec); err != nil {
			return Record{}, err
		}
	}
	i := r.row
	r.row++

	var out Record
	ints := [4]*int64{&out.SubjectID, &out.FieldID, &out.InstanceID, &out.ArrayID}
	for c, dst := range ints {
		v, err := intAt(r.cols[c], i)
		if err != nil {
			return Record{}, fmt.Errorf("ipc: batch %d row %d: %s: %w", r.batch, i, Columns[c], err)
		}
		*dst = v
	}
	out.FieldValue = stringAt(r.cols[4], i)
	return out, nil
}

func (r *Reader) bind(rec arrow.Record) error {
	r.cur = rec
	r.row = 0
	sc := rec.Schema()
	for c, name := range Columns {
		idx := sc.FieldIndices(name)
		if len(idx) == 0 {
			return fmt.Errorf("ipc: missing required column %s", name)
		}
		r.cols[c] = rec.Column(idx[0])
	}
	return nil
}

// Close releases the reader and the underlying file.
func (r *Reader) Close() error {
	if r.close != nil {
		r.close()
	}
	return r.f.Close()
}

var errNull = errors.New("null value")

func intAt(col arrow.Array, i int) (int64, error) {
	if col.IsNull(i) {
		return 0, errNull
	}
	switch a := col.(type) {
	case *array.Int64:
		return a.Value(i), nil
	case *array.Int32:
		return int64(a.Value(i)), nil
	case *array.Int16:
		return int64(a.Value(i)), nil
	case *array.Int8:
		return int64(a.Value(i)), nil
	case *array.Uint32:
		return int64(a.Value(i)), nil
	case *array.Uint16:
		return int64(a.Value(i)), nil
	case *array.Uint8:
		return int64(a.Value(i)), nil
	case *array.String, *array.LargeString, *array.StringView, *array.Dictionary:
		return strconv.ParseInt(stringAt(col, i), 10, 64)
	default:
		return 0, fmt.Errorf("unsupported integer column type %s", col.DataType())
	}
}

// stringAt renders cell i as text. Nulls render as "".
func stringAt(col arrow.Array, i int) string {
	if col.IsNull(i) {
		return ""
	}
	switch a := col.(type) {
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.StringView:
		return a.Value(i)
	case *array.Dictionary:
		return stringAt(a.Dictionary(), a.GetValueIndex(i))
	default:
		return a.ValueStr(i)
	}
}
