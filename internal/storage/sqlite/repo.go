// Package sqlite implements a SQLite-backed storage.Repository using sqlx over
// the pure-Go modernc.org/sqlite driver. It performs batched INSERTs inside a
// transaction; SQLite has no dedicated bulk-load API like Postgres COPY, but
// transactions keep performance acceptable for extraction-sized outputs.
package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"phenoextract/internal/ddl"
)

// Config holds SQLite repository configuration.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:extract.db?_pragma=journal_mode(WAL)"
	//   "out/ukb_extract.db"
	DSN string
}

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db *sqlx.DB
}

// NewRepository opens a SQLite database and returns a Repository plus a
// Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sqlx.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db}, closeFn, nil
}

// CopyFrom inserts rows into table using a single transaction and a prepared
// INSERT statement.
//
// len(row) must equal len(columns) for every row.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	d := Dialect()
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.Quote(c)
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		ddl.QuoteFQN(table, d),
		strings.Join(quoted, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "),
	)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PreparexContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("sqlite: CopyFrom: row length %d != columns length %d", len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("sqlite: insert: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("sqlite: commit: %w", err)
	}
	return inserted, nil
}

// Exec executes an arbitrary SQL statement (typically DDL).
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// Dialect returns the SQLite dialect.
func (r *Repository) Dialect() ddl.Dialect { return Dialect() }

// Dialect describes SQLite: dates and timestamps are stored as ISO-8601 text
// and lists as comma-joined text.
func Dialect() ddl.Dialect {
	return ddl.Dialect{
		Name:  "sqlite",
		Quote: ddl.DoubleQuote,
		Type: func(k ddl.ColumnKind) string {
			switch k {
			case ddl.KindInteger:
				return "INTEGER"
			case ddl.KindReal:
				return "REAL"
			default:
				return "TEXT"
			}
		},
		Value: func(k ddl.ColumnKind, v any) any {
			switch x := v.(type) {
			case time.Time:
				if k == ddl.KindDate {
					return x.Format(time.DateOnly)
				}
				return x.Format("2006-01-02 15:04:05.999999")
			case []string:
				return strings.Join(x, ",")
			default:
				return v
			}
		},
	}
}
