package extract

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"phenoextract/internal/config"
	"phenoextract/internal/datasource/file"
	"phenoextract/internal/reference"
)

// References holds the read-only reference tables for one run. Tree and
// Props are nil when the features that need them are disabled.
type References struct {
	Dictionary *reference.Dictionary
	Codings    *reference.Codings
	Tree       []reference.CategoryEdge
	Props      reference.FieldProperties
}

// ReferencePaths locates the reference tables.
type ReferencePaths struct {
	Dictionary      string
	Coding          string
	CategoryTree    string
	FieldProperties string
}

// LoadReferences reads the tables cfg needs concurrently. The Dictionary and
// Coding tables are always loaded; the Category Tree only when Categories is
// non-empty, the Field Properties only when replicating non-instanced fields.
// The first failure cancels the rest and is returned as an *InputError of
// kind ErrReferenceDataUnavailable.
func LoadReferences(ctx context.Context, op Opener, paths ReferencePaths, cfg config.Config) (*References, error) {
	refs := &References{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return loadTable(gctx, op, paths.Dictionary, func(r io.Reader) (err error) {
			refs.Dictionary, err = reference.LoadDictionary(r)
			return err
		})
	})
	g.Go(func() error {
		return loadTable(gctx, op, paths.Coding, func(r io.Reader) (err error) {
			refs.Codings, err = reference.LoadCodings(r)
			return err
		})
	})
	if len(cfg.Categories) > 0 {
		g.Go(func() error {
			return loadTable(gctx, op, paths.CategoryTree, func(r io.Reader) (err error) {
				refs.Tree, err = reference.LoadCategoryTree(r)
				return err
			})
		})
	}
	if cfg.ReplicateNonInstanced {
		g.Go(func() error {
			return loadTable(gctx, op, paths.FieldProperties, func(r io.Reader) (err error) {
				refs.Props, err = reference.LoadFieldProperties(r)
				return err
			})
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return refs, nil
}

func loadTable(ctx context.Context, op Opener, location string, load func(io.Reader) error) error {
	if location == "" {
		return &InputError{Kind: ErrReferenceDataUnavailable, Err: errors.New("no location configured")}
	}
	rc, err := op.Open(ctx, location)
	if err != nil {
		return &InputError{Kind: ErrReferenceDataUnavailable, Path: location, Err: err}
	}
	defer rc.Close()
	if err := load(rc); err != nil {
		return &InputError{Kind: ErrReferenceDataUnavailable, Path: location, Err: err}
	}
	return nil
}

// ReadSubjectFiles reads one subject id per line from each location, in
// order. A file that cannot be opened fails with ErrMissingInputFile; one with
// an unparseable line fails with ErrMalformedInputFile.
func ReadSubjectFiles(ctx context.Context, op Opener, locations []string) ([]int64, error) {
	var out []int64
	for _, loc := range locations {
		ids, err := readSubjectFile(ctx, op, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, ids...)
	}
	return out, nil
}

func readSubjectFile(ctx context.Context, op Opener, location string) ([]int64, error) {
	rc, err := op.Open(ctx, location)
	if err != nil {
		return nil, &InputError{Kind: ErrMissingInputFile, Path: location, Err: err}
	}
	defer rc.Close()
	ids, err := file.ReadIDs(rc)
	if err != nil {
		return nil, &InputError{Kind: ErrMalformedInputFile, Path: location, Err: fmt.Errorf("read subject ids: %w", err)}
	}
	return ids, nil
}
