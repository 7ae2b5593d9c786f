// Package config defines the extraction configuration record and its YAML
// loader. A Config is decoded once, normalized, validated, and then passed
// through the program as an immutable value.
//
// Example (trimmed):
//
//	FieldIDs: [31, 21001]
//	InstanceIDs: [0, 2]
//	SubjectIDs: []
//	SubjectIDFiles: [subjects.txt]
//	Categories: [100078]
//	recode_field_names: true
//	recode_data_values: true
//	drop_empty_strings: true
//	wide: true
//	recode_wide_column_valuetypes: true
//	convert_less_than_value_integer: 1
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes which rows to extract from a melted biobank table and how
// to decode and reshape them. Empty id lists mean "no restriction".
type Config struct {
	// Filtering.
	FieldIDs       IDList   `yaml:"FieldIDs"`
	InstanceIDs    IDList   `yaml:"InstanceIDs"`
	SubjectIDs     IDList   `yaml:"SubjectIDs"`
	SubjectIDFiles []string `yaml:"SubjectIDFiles"`
	ArrayIDs       IDList   `yaml:"ArrayIDs"`
	Categories     IDList   `yaml:"Categories"`

	// Replicate values of non-instanced fields across every requested instance.
	ReplicateNonInstanced bool `yaml:"replicate_non_instanced"`

	// Output control.
	RecodeFieldNames bool `yaml:"recode_field_names"`
	RecodeDataValues bool `yaml:"recode_data_values"`
	DropEmptyStrings bool `yaml:"drop_empty_strings"`
	DropExtraNACodes bool `yaml:"drop_extra_NA_codes"`

	// Explicit Meaning strings and numeric FieldValues to drop.
	DropNullStrings  []string  `yaml:"drop_null_strings"`
	DropNullNumerics []float64 `yaml:"drop_null_numerics"`

	// Wide output control.
	Wide                       bool `yaml:"wide"`
	RecodeWideColumnValueTypes bool `yaml:"recode_wide_column_valuetypes"`
	ConvertCompoundToList      bool `yaml:"convert_compound_to_list"`

	// Substitutes for "Less than ..." values of Integer / Continuous fields.
	ConvertLessThanValueInteger    *float64 `yaml:"convert_less_than_value_integer"`
	ConvertLessThanValueContinuous *float64 `yaml:"convert_less_than_value_continuous"`
}

// IDList is a list of integer ids. YAML null entries decode as absent and
// are dropped by Normalize.
type IDList []*int64

// Values returns the non-null ids in order.
func (l IDList) Values() []int64 {
	out := make([]int64, 0, len(l))
	for _, v := range l {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// Ints builds an IDList from plain values.
func Ints(vs ...int64) IDList {
	out := make(IDList, len(vs))
	for i := range vs {
		v := vs[i]
		out[i] = &v
	}
	return out
}

// LogValue renders c for structured logs with id lists flattened.
func (c Config) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Any("FieldIDs", c.FieldIDs.Values()),
		slog.Any("InstanceIDs", c.InstanceIDs.Values()),
		slog.Any("SubjectIDs", c.SubjectIDs.Values()),
		slog.Any("SubjectIDFiles", c.SubjectIDFiles),
		slog.Any("ArrayIDs", c.ArrayIDs.Values()),
		slog.Any("Categories", c.Categories.Values()),
		slog.Bool("replicate_non_instanced", c.ReplicateNonInstanced),
		slog.Bool("recode_field_names", c.RecodeFieldNames),
		slog.Bool("recode_data_values", c.RecodeDataValues),
		slog.Bool("drop_empty_strings", c.DropEmptyStrings),
		slog.Bool("drop_extra_NA_codes", c.DropExtraNACodes),
		slog.Any("drop_null_strings", c.DropNullStrings),
		slog.Any("drop_null_numerics", c.DropNullNumerics),
		slog.Bool("wide", c.Wide),
		slog.Bool("recode_wide_column_valuetypes", c.RecodeWideColumnValueTypes),
		slog.Bool("convert_compound_to_list", c.ConvertCompoundToList),
	}
	if v := c.ConvertLessThanValueInteger; v != nil {
		attrs = append(attrs, slog.Float64("convert_less_than_value_integer", *v))
	}
	if v := c.ConvertLessThanValueContinuous; v != nil {
		attrs = append(attrs, slog.Float64("convert_less_than_value_continuous", *v))
	}
	return slog.GroupValue(attrs...)
}

// Load reads and decodes a YAML config file. The result is not normalized.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses YAML from r. Unknown keys are rejected so that typos such as
// "FieldID" do not silently disable a filter.
func Decode(r io.Reader) (Config, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

// Normalize returns a copy of c with null list entries stripped and
// duplicate ids removed (first occurrence wins). c itself is not modified.
func Normalize(c Config) Config {
	out := c
	out.FieldIDs = dedup(c.FieldIDs)
	out.InstanceIDs = dedup(c.InstanceIDs)
	out.SubjectIDs = dedup(c.SubjectIDs)
	out.ArrayIDs = dedup(c.ArrayIDs)
	out.Categories = dedup(c.Categories)

	out.SubjectIDFiles = nil
	for _, p := range c.SubjectIDFiles {
		if p != "" {
			out.SubjectIDFiles = append(out.SubjectIDFiles, p)
		}
	}
	out.DropNullStrings = append([]string(nil), c.DropNullStrings...)
	out.DropNullNumerics = append([]float64(nil), c.DropNullNumerics...)
	return out
}

func dedup(in IDList) IDList {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(in))
	out := make(IDList, 0, len(in))
	for _, v := range in {
		if v == nil {
			continue
		}
		if _, ok := seen[*v]; ok {
			continue
		}
		seen[*v] = struct{}{}
		x := *v
		out = append(out, &x)
	}
	return out
}
