// Package ddl defines a small, backend-agnostic model for the tables an
// extraction run writes to SQL, and renders CREATE/DROP statements for a
// given Dialect.
package ddl

import (
	"fmt"
	"strings"
)

// BuildCreateTableSQL renders a CREATE TABLE statement for t in dialect d.
//
// Rules:
//
//   - t.FQN must be non-empty; it and every column name are quoted with
//     d.Quote (dotted names are quoted per segment).
//   - Each column must have a non-empty Name; its type is d.Type(Kind).
//   - NOT NULL is added when Nullable is false.
func BuildCreateTableSQL(t TableDef, d Dialect) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required in table %s", fqn)
	}

	cols := make([]string, 0, len(t.Columns))
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		if _, dup := seen[name]; dup {
			return "", fmt.Errorf("ddl: duplicate column %s in table %s", name, fqn)
		}
		seen[name] = struct{}{}

		var sb strings.Builder
		sb.WriteString(d.Quote(name))
		sb.WriteByte(' ')
		sb.WriteString(d.Type(c.Kind))
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", QuoteFQN(fqn, d), strings.Join(cols, ",\n  ")), nil
}

// BuildDropTableSQL renders DROP TABLE IF EXISTS for t.
func BuildDropTableSQL(t TableDef, d Dialect) string {
	return "DROP TABLE IF EXISTS " + QuoteFQN(t.FQN, d)
}

// QuoteFQN quotes each dot-separated segment of name.
func QuoteFQN(name string, d Dialect) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.Quote(p)
	}
	return strings.Join(parts, ".")
}

// DoubleQuote quotes an identifier ANSI-style, escaping embedded quotes.
func DoubleQuote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
