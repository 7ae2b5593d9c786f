package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"phenoextract/internal/ddl"
	"phenoextract/internal/storage"
)

/*
TestLoad_RoundTrip writes a typed table through the registered "sqlite"
backend into a temp database file and reads it back.
*/
func TestLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "extract.db")

	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	defer repo.Close()

	td := ddl.TableDef{FQN: "wide", Columns: []ddl.ColumnDef{
		{Name: "SubjectID", Kind: ddl.KindInteger},
		{Name: "Date of attending_53", Kind: ddl.KindDate, Nullable: true},
		{Name: "BMI_21001", Kind: ddl.KindReal, Nullable: true},
		{Name: "Codes_20001", Kind: ddl.KindTextList, Nullable: true},
	}}
	day := time.Date(2009, 3, 14, 0, 0, 0, 0, time.UTC)
	rows := [][]any{
		{int64(1), day, 24.5, []string{"a", "b"}},
		{int64(2), nil, nil, nil},
	}

	for pass := 0; pass < 2; pass++ {
		n, err := storage.Load(ctx, nil, repo, td, func(emit func([]any) error) error {
			for _, r := range rows {
				if err := emit(r); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			t.Fatalf("pass %d: Load: %v", pass, err)
		}
		if n != 2 {
			t.Fatalf("pass %d: inserted %d, want 2", pass, n)
		}
	}

	type wideRow struct {
		SubjectID int64    `db:"SubjectID"`
		Date      *string  `db:"Date of attending_53"`
		BMI       *float64 `db:"BMI_21001"`
		Codes     *string  `db:"Codes_20001"`
	}
	var got []wideRow
	db := repo.(*wrappedRepo).db
	if err := db.SelectContext(ctx, &got, `SELECT * FROM "wide" ORDER BY "SubjectID"`); err != nil {
		t.Fatalf("select: %v", err)
	}

	date, bmi, codes := "2009-03-14", 24.5, "a,b"
	want := []wideRow{
		{SubjectID: 1, Date: &date, BMI: &bmi, Codes: &codes},
		{SubjectID: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("rows mismatch after reload (-want +got):\n%s", diff)
	}
}

func TestCopyFrom_RowWidthMismatch(t *testing.T) {
	ctx := context.Background()
	r, closeFn, err := NewRepository(ctx, Config{DSN: filepath.Join(t.TempDir(), "x.db")})
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()
	if err := r.Exec(ctx, `CREATE TABLE "t" ("a" TEXT, "b" TEXT)`); err != nil {
		t.Fatal(err)
	}
	if _, err := r.CopyFrom(ctx, "t", []string{"a", "b"}, [][]any{{"x"}}); err == nil {
		t.Fatalf("expected width mismatch error")
	}
}

func TestNewRepository_EmptyDSN(t *testing.T) {
	if _, _, err := NewRepository(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}

func TestDialect_Types(t *testing.T) {
	d := Dialect()
	got := []string{d.Type(ddl.KindInteger), d.Type(ddl.KindReal), d.Type(ddl.KindDate), d.Type(ddl.KindTextList)}
	if diff := cmp.Diff([]string{"INTEGER", "REAL", "TEXT", "TEXT"}, got); diff != "" {
		t.Fatalf("types mismatch (-want +got):\n%s", diff)
	}
	ts := time.Date(2010, 1, 2, 3, 4, 5, 0, time.UTC)
	if v := d.Convert(ddl.KindTimestamp, ts); v != "2010-01-02 03:04:05" {
		t.Fatalf("timestamp = %v", v)
	}
}
