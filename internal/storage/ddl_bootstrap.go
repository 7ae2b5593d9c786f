package storage

import (
	"context"
	"fmt"

	"phenoextract/internal/ddl"
)

// EnsureTable drops any existing table named td.FQN and creates it afresh
// using the repository's dialect. Each run replaces its output tables.
func EnsureTable(ctx context.Context, repo Repository, td ddl.TableDef) error {
	d := repo.Dialect()
	create, err := ddl.BuildCreateTableSQL(td, d)
	if err != nil {
		return err
	}
	if err := repo.Exec(ctx, ddl.BuildDropTableSQL(td, d)); err != nil {
		return fmt.Errorf("drop %s: %w", td.FQN, err)
	}
	if err := repo.Exec(ctx, create); err != nil {
		return fmt.Errorf("create %s: %w", td.FQN, err)
	}
	return nil
}
