package ipc

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/go-cmp/cmp"
)

// writeFixture writes a two-batch IPC file with columns in a non-canonical
// order and a 32-bit ArrayID.
func writeFixture(t *testing.T, stream bool) string {
	t.Helper()
	mem := memory.NewGoAllocator()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "FieldValue", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "SubjectID", Type: arrow.PrimitiveTypes.Int64},
		{Name: "FieldID", Type: arrow.PrimitiveTypes.Int64},
		{Name: "InstanceID", Type: arrow.PrimitiveTypes.Int64},
		{Name: "ArrayID", Type: arrow.PrimitiveTypes.Int32},
	}, nil)

	path := filepath.Join(t.TempDir(), "data.arrow")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	type writer interface {
		Write(arrow.Record) error
		Close() error
	}
	var w writer
	if stream {
		w = ipc.NewWriter(f, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	} else {
		w, err = ipc.NewFileWriter(f, ipc.WithSchema(schema), ipc.WithAllocator(mem))
		if err != nil {
			t.Fatal(err)
		}
	}

	batches := [][]Record{
		{{1, 31, 0, 0, "1"}, {1, 21001, 0, 0, "24.5"}},
		{{2, 31, 0, 0, ""}},
	}
	for _, rows := range batches {
		b := array.NewRecordBuilder(mem, schema)
		for _, r := range rows {
			if r.FieldValue == "" {
				b.Field(0).(*array.StringBuilder).AppendNull()
			} else {
				b.Field(0).(*array.StringBuilder).Append(r.FieldValue)
			}
			b.Field(1).(*array.Int64Builder).Append(r.SubjectID)
			b.Field(2).(*array.Int64Builder).Append(r.FieldID)
			b.Field(3).(*array.Int64Builder).Append(r.InstanceID)
			b.Field(4).(*array.Int32Builder).Append(int32(r.ArrayID))
		}
		rec := b.NewRecord()
		if err := w.Write(rec); err != nil {
			t.Fatal(err)
		}
		rec.Release()
		b.Release()
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func readAll(t *testing.T, path string) []Record {
	t.Helper()
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	var out []Record
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		out = append(out, rec)
	}
}

/*
TestReader_FileAndStream verifies that both IPC file and stream encodings
yield the same rows, with columns matched by name and nulls read as "".
*/
func TestReader_FileAndStream(t *testing.T) {
	want := []Record{
		{SubjectID: 1, FieldID: 31, FieldValue: "1"},
		{SubjectID: 1, FieldID: 21001, FieldValue: "24.5"},
		{SubjectID: 2, FieldID: 31},
	}
	for _, stream := range []bool{false, true} {
		got := readAll(t, writeFixture(t, stream))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("stream=%v rows mismatch (-want +got):\n%s", stream, diff)
		}
	}
}

func TestReader_MissingColumn(t *testing.T) {
	mem := memory.NewGoAllocator()
	schema := arrow.NewSchema([]arrow.Field{{Name: "SubjectID", Type: arrow.PrimitiveTypes.Int64}}, nil)
	path := filepath.Join(t.TempDir(), "bad.arrow")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w, err := ipc.NewFileWriter(f, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		t.Fatal(err)
	}
	b := array.NewRecordBuilder(mem, schema)
	b.Field(0).(*array.Int64Builder).Append(1)
	rec := b.NewRecord()
	if err := w.Write(rec); err != nil {
		t.Fatal(err)
	}
	_ = w.Close()
	_ = f.Close()

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	if _, err := r.Next(); err == nil {
		t.Fatalf("expected missing column error")
	}
}

func TestOpen_NotIPC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.arrow")
	if err := os.WriteFile(path, []byte("SubjectID\tFieldID\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Fatalf("expected error for non-IPC input")
	}
}
