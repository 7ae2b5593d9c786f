package output

import (
	"context"
	"fmt"
	"log/slog"

	"phenoextract/internal/dataset"
	"phenoextract/internal/ddl"
	"phenoextract/internal/storage"
	_ "phenoextract/internal/storage/all"
)

// sqlTable pairs a table definition with a row producer for storage.Load.
type sqlTable struct {
	def     ddl.TableDef
	produce func(emit func([]any) error) error
}

// writeSQL recreates and loads every table into the database named by dsn.
// Tables are loaded one after another over a single connection.
func writeSQL(ctx context.Context, log *slog.Logger, f Format, dsn string, t Tables, done func(string)) error {
	repo, err := storage.New(ctx, storage.Config{Kind: string(f), DSN: dsn})
	if err != nil {
		return fmt.Errorf("output: open %s: %w", f, err)
	}
	defer repo.Close()

	for _, st := range sqlTables(t) {
		n, err := storage.Load(ctx, log, repo, st.def, st.produce)
		if err != nil {
			return fmt.Errorf("output: load %s table %s: %w", f, st.def.FQN, err)
		}
		log.Debug("loaded table", "format", f, "table", st.def.FQN, "rows", n)
		done(string(f) + ":" + st.def.FQN)
	}
	return nil
}

func sqlTables(t Tables) []sqlTable {
	out := []sqlTable{narrowTable(t.Narrow)}
	if t.Wide != nil {
		out = append(out, wideTable(t.Wide))
	}
	for _, ref := range []struct {
		name string
		rows table
	}{
		{"dictionary", dictionaryRows(t.Dictionary)},
		{"coding", codingRows(t.Codings)},
	} {
		if len(ref.rows.header) > 0 {
			out = append(out, textTable(ref.name, ref.rows))
		}
	}
	return out
}

func narrowTable(n *dataset.Narrow) sqlTable {
	fieldKind := ddl.KindInteger
	if n.FieldNamesRecoded {
		fieldKind = ddl.KindText
	}
	def := ddl.TableDef{FQN: "narrow", Columns: []ddl.ColumnDef{
		{Name: "SubjectID", Kind: ddl.KindInteger},
		{Name: "InstanceID", Kind: ddl.KindInteger},
		{Name: "ArrayID", Kind: ddl.KindInteger},
		{Name: "FieldID", Kind: fieldKind},
		{Name: "FieldValue", Kind: ddl.KindText},
	}}
	return sqlTable{def: def, produce: func(emit func([]any) error) error {
		for _, r := range n.Rows {
			var field any = r.FieldID
			if n.FieldNamesRecoded {
				field = r.FieldKey()
			}
			if err := emit([]any{r.SubjectID, r.InstanceID, r.ArrayID, field, r.FieldValue}); err != nil {
				return err
			}
		}
		return nil
	}}
}

func columnKind(t dataset.ColumnType) ddl.ColumnKind {
	switch t {
	case dataset.TypeDate:
		return ddl.KindDate
	case dataset.TypeTimestamp:
		return ddl.KindTimestamp
	case dataset.TypeFloat64:
		return ddl.KindReal
	case dataset.TypeInt64:
		return ddl.KindInteger
	case dataset.TypeList:
		return ddl.KindTextList
	default:
		return ddl.KindText
	}
}

func wideTable(w *dataset.Wide) sqlTable {
	def := ddl.TableDef{FQN: "wide"}
	for _, name := range dataset.IndexColumns {
		def.Columns = append(def.Columns, ddl.ColumnDef{Name: name, Kind: ddl.KindInteger})
	}
	for _, c := range w.Columns {
		def.Columns = append(def.Columns, ddl.ColumnDef{Name: c.Name, Kind: columnKind(c.Type), Nullable: true})
	}
	return sqlTable{def: def, produce: func(emit func([]any) error) error {
		for i, k := range w.Keys {
			row := make([]any, 0, len(def.Columns))
			row = append(row, k.SubjectID, k.InstanceID, k.ArrayID)
			for _, c := range w.Columns {
				row = append(row, c.Values[i])
			}
			if err := emit(row); err != nil {
				return err
			}
		}
		return nil
	}}
}

// textTable loads a reference table with every column as nullable text.
func textTable(name string, t table) sqlTable {
	def := ddl.TableDef{FQN: name}
	for _, h := range t.header {
		def.Columns = append(def.Columns, ddl.ColumnDef{Name: h, Kind: ddl.KindText, Nullable: true})
	}
	return sqlTable{def: def, produce: func(emit func([]any) error) error {
		for i := 0; i < t.n; i++ {
			cells := t.row(i)
			row := make([]any, len(cells))
			for j, c := range cells {
				row[j] = c
			}
			if err := emit(row); err != nil {
				return err
			}
		}
		return nil
	}}
}
