package extract

import "phenoextract/internal/reference"

// replicateStage emits one copy of each non-instanced row per target
// instance, with InstanceID rewritten. Instanced rows, including rows whose
// field is absent from props, pass through unchanged.
func replicateStage(props reference.FieldProperties, targets []int64) Stage {
	return stageFunc{name: "replicate-non-instanced", fn: func(r Row, emit Emit) error {
		if props.Instanced(r.FieldID) {
			return emit(r)
		}
		for _, inst := range targets {
			c := r
			c.InstanceID = inst
			if err := emit(c); err != nil {
				return err
			}
		}
		return nil
	}}
}
