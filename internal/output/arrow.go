package output

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"phenoextract/internal/dataset"
)

// recordBuilder turns a dataset into a single Arrow record.
type recordBuilder struct {
	mem memory.Allocator
	rec arrow.Record
}

func (b *recordBuilder) release() {
	if b.rec != nil {
		b.rec.Release()
	}
}

func (b *recordBuilder) narrow(n *dataset.Narrow) error {
	fieldType := arrow.DataType(arrow.PrimitiveTypes.Int64)
	if n.FieldNamesRecoded {
		fieldType = arrow.BinaryTypes.String
	}
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "SubjectID", Type: arrow.PrimitiveTypes.Int64},
		{Name: "InstanceID", Type: arrow.PrimitiveTypes.Int64},
		{Name: "ArrayID", Type: arrow.PrimitiveTypes.Int64},
		{Name: "FieldID", Type: fieldType},
		{Name: "FieldValue", Type: arrow.BinaryTypes.String},
	}, nil)

	rb := array.NewRecordBuilder(b.mem, schema)
	defer rb.Release()

	subjects := rb.Field(0).(*array.Int64Builder)
	instances := rb.Field(1).(*array.Int64Builder)
	arrays := rb.Field(2).(*array.Int64Builder)
	values := rb.Field(4).(*array.StringBuilder)
	for _, r := range n.Rows {
		subjects.Append(r.SubjectID)
		instances.Append(r.InstanceID)
		arrays.Append(r.ArrayID)
		switch fb := rb.Field(3).(type) {
		case *array.StringBuilder:
			fb.Append(r.FieldKey())
		case *array.Int64Builder:
			fb.Append(r.FieldID)
		}
		values.Append(r.FieldValue)
	}
	b.rec = rb.NewRecord()
	return nil
}

// arrowType maps a wide column type to its Arrow type. Categorical columns
// are dictionary-encoded strings.
func arrowType(t dataset.ColumnType) arrow.DataType {
	switch t {
	case dataset.TypeDate:
		return arrow.FixedWidthTypes.Date32
	case dataset.TypeTimestamp:
		return &arrow.TimestampType{Unit: arrow.Microsecond}
	case dataset.TypeFloat64:
		return arrow.PrimitiveTypes.Float64
	case dataset.TypeInt64:
		return arrow.PrimitiveTypes.Int64
	case dataset.TypeCategorical:
		return &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int32, ValueType: arrow.BinaryTypes.String}
	case dataset.TypeList:
		return arrow.ListOf(arrow.BinaryTypes.String)
	default:
		return arrow.BinaryTypes.String
	}
}

func (b *recordBuilder) wide(w *dataset.Wide) error {
	fields := make([]arrow.Field, 0, len(dataset.IndexColumns)+len(w.Columns))
	for _, name := range dataset.IndexColumns {
		fields = append(fields, arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Int64})
	}
	for _, c := range w.Columns {
		fields = append(fields, arrow.Field{Name: c.Name, Type: arrowType(c.Type), Nullable: true})
	}

	rb := array.NewRecordBuilder(b.mem, arrow.NewSchema(fields, nil))
	defer rb.Release()

	subjects := rb.Field(0).(*array.Int64Builder)
	instances := rb.Field(1).(*array.Int64Builder)
	arrays := rb.Field(2).(*array.Int64Builder)
	for _, k := range w.Keys {
		subjects.Append(k.SubjectID)
		instances.Append(k.InstanceID)
		arrays.Append(k.ArrayID)
	}
	for ci, c := range w.Columns {
		fb := rb.Field(len(dataset.IndexColumns) + ci)
		for _, v := range c.Values {
			if err := appendCell(fb, v); err != nil {
				return fmt.Errorf("column %q: %w", c.Name, err)
			}
		}
	}
	b.rec = rb.NewRecord()
	return nil
}

func appendCell(fb array.Builder, v any) error {
	if v == nil {
		fb.AppendNull()
		return nil
	}
	switch bb := fb.(type) {
	case *array.StringBuilder:
		if s, ok := v.(string); ok {
			bb.Append(s)
			return nil
		}
	case *array.BinaryDictionaryBuilder:
		if s, ok := v.(string); ok {
			return bb.AppendString(s)
		}
	case *array.Int64Builder:
		if x, ok := v.(int64); ok {
			bb.Append(x)
			return nil
		}
	case *array.Float64Builder:
		if x, ok := v.(float64); ok {
			bb.Append(x)
			return nil
		}
	case *array.Date32Builder:
		if t, ok := v.(time.Time); ok {
			bb.Append(arrow.Date32FromTime(t))
			return nil
		}
	case *array.TimestampBuilder:
		if t, ok := v.(time.Time); ok {
			bb.Append(arrow.Timestamp(t.UnixMicro()))
			return nil
		}
	case *array.ListBuilder:
		if xs, ok := v.([]string); ok {
			bb.Append(true)
			vb := bb.ValueBuilder().(*array.StringBuilder)
			for _, s := range xs {
				vb.Append(s)
			}
			return nil
		}
	}
	return fmt.Errorf("cannot append %T to %s builder", v, fb.Type())
}

// writeIPC writes an Arrow IPC file (Feather v2) compressed with zstd.
func writeIPC(path string, build func(*recordBuilder) error) (err error) {
	b := &recordBuilder{mem: memory.NewGoAllocator()}
	defer b.release()
	if err := build(b); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	w, err := ipc.NewFileWriter(f, ipc.WithSchema(b.rec.Schema()), ipc.WithAllocator(b.mem), ipc.WithZstd())
	if err != nil {
		return fmt.Errorf("ipc writer: %w", err)
	}
	if err := w.Write(b.rec); err != nil {
		_ = w.Close()
		return fmt.Errorf("ipc write: %w", err)
	}
	return w.Close()
}

// writeParquet writes a zstd-compressed Parquet file. The Arrow schema is
// stored so readers recover dictionary and timestamp types.
func writeParquet(path string, build func(*recordBuilder) error) (err error) {
	b := &recordBuilder{mem: memory.NewGoAllocator()}
	defer b.release()
	if err := build(b); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		// the parquet writer closes its sink
		if cerr := f.Close(); err == nil && cerr != nil && !errors.Is(cerr, os.ErrClosed) {
			err = cerr
		}
	}()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Zstd),
		parquet.WithAllocator(b.mem),
	)
	arrProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())
	w, err := pqarrow.NewFileWriter(b.rec.Schema(), f, props, arrProps)
	if err != nil {
		return fmt.Errorf("parquet writer: %w", err)
	}
	if err := w.Write(b.rec); err != nil {
		_ = w.Close()
		return fmt.Errorf("parquet write: %w", err)
	}
	return w.Close()
}
