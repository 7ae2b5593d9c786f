package reference

// ValueType is the closed set of value types a Data Dictionary assigns to a
// field. Coercion rules in the wide pivot switch on it exhaustively.
type ValueType int

const (
	ValueTypeUnknown ValueType = iota
	ValueTypeDate
	ValueTypeTime
	ValueTypeContinuous
	ValueTypeText
	ValueTypeInteger
	ValueTypeCategoricalMultiple
	ValueTypeCategoricalSingle
	ValueTypeCompound
)

var valueTypeNames = [...]string{
	ValueTypeUnknown:             "",
	ValueTypeDate:                "Date",
	ValueTypeTime:                "Time",
	ValueTypeContinuous:          "Continuous",
	ValueTypeText:                "Text",
	ValueTypeInteger:             "Integer",
	ValueTypeCategoricalMultiple: "Categorical multiple",
	ValueTypeCategoricalSingle:   "Categorical single",
	ValueTypeCompound:            "Compound",
}

// ParseValueType maps a dictionary ValueType cell to its enum value.
// Unrecognised strings map to ValueTypeUnknown.
func ParseValueType(s string) ValueType {
	for i, n := range valueTypeNames {
		if i > 0 && n == s {
			return ValueType(i)
		}
	}
	return ValueTypeUnknown
}

// String returns the dictionary spelling of v.
func (v ValueType) String() string {
	if v < 0 || int(v) >= len(valueTypeNames) {
		return ""
	}
	return valueTypeNames[v]
}
