// Package extract turns a long-format biobank table and its reference tables
// into a filtered, decoded Narrow dataset and, optionally, a typed Wide one.
//
// A run resolves its filter set (subject id files, category closure), builds
// an ordered chain of stages from the Configuration, and executes the chain
// in one streaming pass over the data file:
//
//	subject-filter → field-filter → replicate-non-instanced →
//	instance-filter → array-filter → drop-empty-strings →
//	join-dictionary → join-coding → drop-extra-na-codes →
//	drop-null-strings → drop-null-numerics → recode-values →
//	less-than-integer → less-than-continuous → recode-field-names
//
// Disabled stages are left out of the chain. Dictionary and coding misses
// are not errors; the affected rows pass through undecoded.
package extract

import (
	"context"
	"log/slog"
	"time"

	"phenoextract/internal/config"
	"phenoextract/internal/dataset"
	"phenoextract/internal/datasource"
	"phenoextract/internal/reference"
	"phenoextract/internal/wide"
)

// Inputs locates the data file and reference tables.
type Inputs struct {
	DataFile   string
	References ReferencePaths
}

// Options carries run collaborators. Zero values are usable.
type Options struct {
	// Opener resolves locations; defaults to a datasource.Resolver.
	Opener Opener
	Logger *slog.Logger

	// OnStep, when set, is called after each run step ("load-references",
	// "materialize", "pivot") with its outcome and duration.
	OnStep func(step string, err error, d time.Duration)
}

func (o Options) step(name string, start time.Time, err error) {
	if o.OnStep != nil {
		o.OnStep(name, err, time.Since(start))
	}
}

// Result is everything a run produces. The caller owns it.
type Result struct {
	Narrow *dataset.Narrow
	// Wide is nil unless the Configuration asked for it.
	Wide *dataset.Wide

	// Dictionary and Codings are contracted to the extracted fields.
	Dictionary *reference.Dictionary
	Codings    *reference.Codings

	Filters FilterSet
	Stages  []StageCount
}

// Run executes one extraction. cfg is normalized before use.
func Run(ctx context.Context, cfg config.Config, in Inputs, opt Options) (*Result, error) {
	cfg = config.Normalize(cfg)
	log := opt.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	op := opt.Opener
	if op == nil {
		op = &datasource.Resolver{}
	}

	log.Info("input configuration", "config", cfg)

	start := time.Now()
	refs, err := LoadReferences(ctx, op, in.References, cfg)
	opt.step("load-references", start, err)
	if err != nil {
		return nil, err
	}
	log.Debug("reference tables loaded",
		"dictionary_rows", refs.Dictionary.Len(),
		"coding_rows", refs.Codings.Len(),
		"category_edges", len(refs.Tree),
		"field_properties", len(refs.Props))

	fs, err := ResolveFilters(ctx, op, cfg, refs)
	if err != nil {
		return nil, err
	}
	log.Info("resolved filters",
		"subjects", len(fs.SubjectIDs),
		"fields", len(fs.FieldIDs),
		"instances", fs.InstanceIDs.Sorted(),
		"arrays", fs.ArrayIDs.Sorted(),
		"categories", fs.Categories.Sorted(),
		"category_fields", len(fs.CategoryFieldIDs))
	if len(cfg.Categories) > 0 && len(fs.FieldIDs) == 0 {
		log.Warn("categories resolved to no fields; field filter disabled", "categories", cfg.Categories.Values())
	}

	plan, err := BuildPlan(cfg, fs, refs)
	if err != nil {
		return nil, err
	}
	log.Info("stage plan", "stages", plan.StageNames())

	start = time.Now()
	narrow, counts, err := materialize(ctx, log, op, plan, in.DataFile)
	opt.step("materialize", start, err)
	if err != nil {
		return nil, err
	}
	for _, c := range counts {
		log.Debug("stage rows", "stage", c.Name, "in", c.In, "out", c.Out)
	}
	log.Info("materialized narrow dataset", "rows", narrow.Len())

	res := &Result{Narrow: narrow, Filters: fs, Stages: counts}
	res.Dictionary, res.Codings = Contract(refs.Dictionary, refs.Codings, fs.FieldIDs)

	if cfg.Wide {
		log.Info("pivoting narrow dataset to wide")
		start = time.Now()
		res.Wide = wide.Pivot(narrow, res.Dictionary, wide.Options{
			Coerce:         cfg.RecodeWideColumnValueTypes,
			CompoundToList: cfg.ConvertCompoundToList,
			Logger:         log,
		})
		opt.step("pivot", start, nil)
		log.Info("pivoted wide dataset", "rows", res.Wide.Len(), "columns", len(res.Wide.Columns))
	}
	return res, nil
}

func materialize(ctx context.Context, log *slog.Logger, op Opener, plan *Plan, dataFile string) (*dataset.Narrow, []StageCount, error) {
	src, err := OpenRowSource(ctx, op, dataFile)
	if err != nil {
		return nil, nil, err
	}
	defer src.Close()

	log.Info("loading data", "data_file", dataFile)
	return plan.Materialize(ctx, src)
}
