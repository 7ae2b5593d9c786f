package wide

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"phenoextract/internal/dataset"
	"phenoextract/internal/parser/ints"
	"phenoextract/internal/reference"
)

// ErrNoValueType marks a column whose field has no dictionary ValueType.
var ErrNoValueType = errors.New("no dictionary value type")

// CoercionWarning reports a column left as text because its values could not
// share the type its ValueType dictates.
type CoercionWarning struct {
	Column    string
	ValueType reference.ValueType
	Row       int
	Value     string
	Err       error
}

func (w *CoercionWarning) Error() string {
	if w.Value == "" && w.Row < 0 {
		return fmt.Sprintf("column %s: %v", w.Column, w.Err)
	}
	return fmt.Sprintf("column %s (%s): row %d value %q: %v", w.Column, w.ValueType, w.Row, w.Value, w.Err)
}

func (w *CoercionWarning) Unwrap() error { return w.Err }

// coerceColumn converts col in place. On failure col is left untouched and a
// *CoercionWarning is returned.
func coerceColumn(col *dataset.Column, dict *reference.Dictionary, compoundToList bool) error {
	id, ok := ints.Suffix(col.Name)
	if !ok {
		return &CoercionWarning{Column: col.Name, Row: -1, Err: ErrNoValueType}
	}
	e, ok := dict.Lookup(id)
	if !ok || e.ValueType == reference.ValueTypeUnknown {
		return &CoercionWarning{Column: col.Name, Row: -1, Err: ErrNoValueType}
	}

	typ, conv := converter(e.ValueType, compoundToList)
	if conv == nil {
		col.Type = typ
		return nil
	}

	out := make([]any, len(col.Values))
	for i, v := range col.Values {
		s, _ := v.(string)
		if v == nil || s == "" {
			continue
		}
		x, err := conv(s)
		if err != nil {
			return &CoercionWarning{Column: col.Name, ValueType: e.ValueType, Row: i, Value: s, Err: err}
		}
		out[i] = x
	}
	col.Type = typ
	col.Values = out
	return nil
}

// converter selects the rule for vt. A nil func means the values stay as
// they are and only the column type changes.
func converter(vt reference.ValueType, compoundToList bool) (dataset.ColumnType, func(string) (any, error)) {
	switch vt {
	case reference.ValueTypeDate:
		return dataset.TypeDate, parseDate
	case reference.ValueTypeTime:
		return dataset.TypeTimestamp, parseTime
	case reference.ValueTypeCompound:
		if compoundToList {
			return dataset.TypeList, splitList
		}
		return dataset.TypeString, nil
	case reference.ValueTypeContinuous:
		return dataset.TypeFloat64, func(s string) (any, error) { return strconv.ParseFloat(s, 64) }
	case reference.ValueTypeInteger:
		return dataset.TypeInt64, func(s string) (any, error) { return strconv.ParseInt(s, 10, 64) }
	case reference.ValueTypeCategoricalSingle, reference.ValueTypeCategoricalMultiple:
		return dataset.TypeCategorical, nil
	default:
		return dataset.TypeString, nil
	}
}

func parseDate(s string) (any, error) {
	t, err := dateparse.ParseStrict(s)
	if err != nil {
		return nil, err
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

func parseTime(s string) (any, error) {
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return nil, err
	}
	return t.UTC(), nil
}

func splitList(s string) (any, error) {
	return strings.Split(s, ","), nil
}
