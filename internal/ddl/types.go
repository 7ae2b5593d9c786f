package ddl

// ColumnKind is the logical type of a column. Dialects map it to a concrete
// SQL type.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindInteger
	KindReal
	KindDate
	KindTimestamp
	KindTextList
)

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: logical column name (unquoted; quoting happens at render time)
//   - Kind: logical type, mapped per dialect
//   - Nullable: whether NULL is allowed
type ColumnDef struct {
	Name     string
	Kind     ColumnKind
	Nullable bool
}

// TableDef holds the table name and an ordered list of columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// ColumnNames returns the column names in order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Dialect renders identifiers, types and values for one SQL backend.
type Dialect struct {
	Name  string
	Quote func(ident string) string
	Type  func(k ColumnKind) string
	// Value converts a typed cell into a driver argument. Nil means values
	// are passed through unchanged.
	Value func(k ColumnKind, v any) any
}

// Convert applies d.Value to v when set.
func (d Dialect) Convert(k ColumnKind, v any) any {
	if d.Value == nil || v == nil {
		return v
	}
	return d.Value(k, v)
}
