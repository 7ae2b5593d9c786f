package ddl

import (
	"strings"
	"testing"
)

var testDialect = Dialect{
	Name:  "test",
	Quote: DoubleQuote,
	Type: func(k ColumnKind) string {
		switch k {
		case KindInteger:
			return "INT"
		case KindReal:
			return "REAL"
		default:
			return "TEXT"
		}
	},
}

/*
TestBuildCreateTableSQL verifies column rendering, NOT NULL handling and
per-segment quoting of dotted table names.
*/
func TestBuildCreateTableSQL(t *testing.T) {
	td := TableDef{
		FQN: "main.narrow",
		Columns: []ColumnDef{
			{Name: "SubjectID", Kind: KindInteger},
			{Name: `odd"name`, Kind: KindReal, Nullable: true},
		},
	}
	got, err := BuildCreateTableSQL(td, testDialect)
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	want := "CREATE TABLE \"main\".\"narrow\" (\n  \"SubjectID\" INT NOT NULL,\n  \"odd\"\"name\" REAL\n)"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
	if drop := BuildDropTableSQL(td, testDialect); drop != `DROP TABLE IF EXISTS "main"."narrow"` {
		t.Fatalf("drop = %q", drop)
	}
}

func TestBuildCreateTableSQL_Errors(t *testing.T) {
	tests := []struct {
		name string
		td   TableDef
		want string
	}{
		{"empty fqn", TableDef{Columns: []ColumnDef{{Name: "a"}}}, "FQN"},
		{"no columns", TableDef{FQN: "t"}, "at least one column"},
		{"blank column", TableDef{FQN: "t", Columns: []ColumnDef{{Name: " "}}}, "empty name"},
		{"duplicate column", TableDef{FQN: "t", Columns: []ColumnDef{{Name: "a"}, {Name: "a"}}}, "duplicate"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildCreateTableSQL(tc.td, testDialect)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want containing %q", err, tc.want)
			}
		})
	}
}

func TestColumnNames(t *testing.T) {
	td := TableDef{Columns: []ColumnDef{{Name: "a"}, {Name: "b"}}}
	if got := strings.Join(td.ColumnNames(), ","); got != "a,b" {
		t.Fatalf("ColumnNames = %q", got)
	}
}
