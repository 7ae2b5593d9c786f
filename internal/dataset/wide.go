package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ColumnType is the storage type of a wide value column.
type ColumnType int

const (
	TypeString ColumnType = iota
	TypeDate
	TypeTimestamp
	TypeFloat64
	TypeInt64
	TypeCategorical
	TypeList
)

func (t ColumnType) String() string {
	switch t {
	case TypeDate:
		return "date"
	case TypeTimestamp:
		return "timestamp"
	case TypeFloat64:
		return "float64"
	case TypeInt64:
		return "int64"
	case TypeCategorical:
		return "categorical"
	case TypeList:
		return "list"
	default:
		return "string"
	}
}

// Key identifies one wide row.
type Key struct {
	SubjectID  int64
	InstanceID int64
	ArrayID    int64
}

// Column is one wide value column. Values is aligned with Wide.Keys; a nil
// element is a null cell. Non-nil elements have the Go type implied by Type:
//
//	TypeString, TypeCategorical  string
//	TypeDate, TypeTimestamp      time.Time (UTC)
//	TypeFloat64                  float64
//	TypeInt64                    int64
//	TypeList                     []string
type Column struct {
	Name   string
	Type   ColumnType
	Values []any
}

// Wide is the pivoted result.
type Wide struct {
	Keys    []Key
	Columns []Column

	// Duplicates counts (key, FieldID) observations discarded because an
	// earlier row already filled the cell.
	Duplicates int

	// Warnings lists per-column coercion failures. The affected columns are
	// left as TypeString.
	Warnings []error
}

// IndexColumns are the leading key columns of a wide table.
var IndexColumns = []string{"SubjectID", "InstanceID", "ArrayID"}

// Header returns the index column names followed by the value column names.
func (w *Wide) Header() []string {
	out := append([]string(nil), IndexColumns...)
	for _, c := range w.Columns {
		out = append(out, c.Name)
	}
	return out
}

// Len returns the number of rows.
func (w *Wide) Len() int {
	if w == nil {
		return 0
	}
	return len(w.Keys)
}

// Cells renders row i as text; null cells render as "".
func (w *Wide) Cells(i int) []string {
	k := w.Keys[i]
	out := []string{
		strconv.FormatInt(k.SubjectID, 10),
		strconv.FormatInt(k.InstanceID, 10),
		strconv.FormatInt(k.ArrayID, 10),
	}
	for _, c := range w.Columns {
		out = append(out, FormatCell(c.Type, c.Values[i]))
	}
	return out
}

// FormatCell renders a typed cell value as text.
func FormatCell(t ColumnType, v any) string {
	if v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		if t == TypeDate {
			return x.Format(time.DateOnly)
		}
		return x.Format("2006-01-02T15:04:05.999999")
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case []string:
		return strings.Join(x, ",")
	default:
		return fmt.Sprint(x)
	}
}
