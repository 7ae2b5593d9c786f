package extract

import "phenoextract/internal/config"

// Emit forwards a row to the next stage.
type Emit func(Row) error

// Stage is one named row transform. Process is called once per input row
// and calls emit zero or more times.
type Stage interface {
	Name() string
	Process(r Row, emit Emit) error
}

type stageFunc struct {
	name string
	fn   func(Row, Emit) error
}

func (s stageFunc) Name() string { return s.name }
func (s stageFunc) Process(r Row, emit Emit) error { return s.fn(r, emit) }

// filterStage passes rows for which keep is true.
func filterStage(name string, keep func(Row) bool) Stage {
	return stageFunc{name: name, fn: func(r Row, emit Emit) error {
		if !keep(r) {
			return nil
		}
		return emit(r)
	}}
}

// mapStage rewrites each row in place.
func mapStage(name string, fn func(*Row)) Stage {
	return stageFunc{name: name, fn: func(r Row, emit Emit) error {
		fn(&r)
		return emit(r)
	}}
}

// Plan is an ordered chain of enabled stages. Building a Plan reads no data;
// Materialize runs it over a RowSource.
type Plan struct {
	stages        []Stage
	recodedFields bool
}

// StageNames lists the enabled stages in execution order.
func (p *Plan) StageNames() []string {
	out := make([]string, len(p.stages))
	for i, s := range p.stages {
		out[i] = s.Name()
	}
	return out
}

// BuildPlan assembles the stage chain in its fixed order, skipping stages
// whose driving option or filter set is empty. The dictionary and coding
// joins always run.
func BuildPlan(cfg config.Config, fs FilterSet, refs *References) (*Plan, error) {
	if refs == nil || refs.Dictionary == nil || refs.Codings == nil {
		return nil, &InputError{Kind: ErrReferenceDataUnavailable, Path: "dictionary/coding"}
	}
	if cfg.ReplicateNonInstanced && refs.Props == nil {
		return nil, &InputError{Kind: ErrReferenceDataUnavailable, Path: "field properties"}
	}

	p := &Plan{recodedFields: cfg.RecodeFieldNames}
	add := func(enabled bool, s Stage) {
		if enabled {
			p.stages = append(p.stages, s)
		}
	}

	add(len(fs.SubjectIDs) > 0, subjectFilter(fs.SubjectIDs))
	add(len(fs.FieldIDs) > 0, idFilter("field-filter", fs.FieldIDs, func(r Row) int64 { return r.FieldID }))
	if cfg.ReplicateNonInstanced {
		add(true, replicateStage(refs.Props, TargetInstances(cfg)))
	}
	add(len(fs.InstanceIDs) > 0, idFilter("instance-filter", fs.InstanceIDs, func(r Row) int64 { return r.InstanceID }))
	add(len(fs.ArrayIDs) > 0, idFilter("array-filter", fs.ArrayIDs, func(r Row) int64 { return r.ArrayID }))
	add(cfg.DropEmptyStrings, filterStage("drop-empty-strings", func(r Row) bool { return r.FieldValue != "" }))

	add(true, joinDictionary(refs.Dictionary))
	add(true, joinCoding(refs.Codings))
	add(cfg.DropExtraNACodes, dropExtraNACodes())
	add(len(cfg.DropNullStrings) > 0, dropNullStrings(cfg.DropNullStrings))
	add(len(cfg.DropNullNumerics) > 0, dropNullNumerics(cfg.DropNullNumerics))
	add(cfg.RecodeDataValues, mapStage("recode-values", recodeValue))
	if v := cfg.ConvertLessThanValueInteger; v != nil {
		add(true, lessThan("less-than-integer", integerGuard, *v))
	}
	if v := cfg.ConvertLessThanValueContinuous; v != nil {
		add(true, lessThan("less-than-continuous", continuousGuard, *v))
	}
	add(cfg.RecodeFieldNames, mapStage("recode-field-names", recodeFieldName))

	return p, nil
}
