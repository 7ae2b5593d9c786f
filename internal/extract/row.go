package extract

import (
	"gopkg.in/guregu/null.v3"

	"phenoextract/internal/dataset"
	"phenoextract/internal/reference"
)

// Row is a narrow row in flight through the plan. The embedded dataset.Row
// holds the canonical columns; the remaining fields are helper columns filled
// by the dictionary and coding joins and dropped at projection.
type Row struct {
	dataset.Row

	Field     null.String
	ValueType reference.ValueType
	Coding    null.Int
	Meaning   null.String
}
