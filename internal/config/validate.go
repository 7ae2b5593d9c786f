// Package config provides configuration models and helpers for extraction
// runs.
//
// This file adds a lightweight linter/validator for Config values. It
// performs static checks over a normalized Config and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"math"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Config.
//
// Path names the offending key (e.g. "InstanceIDs[2]"). Message is
// human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static validation of c. It does not mutate c.
//
// Example:
//
//	c, err := config.Load(path)
//	if err != nil { ... }
//	c = config.Normalize(c)
//	for _, iss := range config.Validate(c) {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func Validate(c Config) []Issue {
	var issues []Issue

	issues = append(issues, validateIDs("FieldIDs", c.FieldIDs)...)
	issues = append(issues, validateIDs("InstanceIDs", c.InstanceIDs)...)
	issues = append(issues, validateIDs("SubjectIDs", c.SubjectIDs)...)
	issues = append(issues, validateIDs("ArrayIDs", c.ArrayIDs)...)
	issues = append(issues, validateIDs("Categories", c.Categories)...)

	for i, p := range c.SubjectIDFiles {
		if strings.TrimSpace(p) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("SubjectIDFiles[%d]", i),
				Message:  "subject id file path must not be blank",
			})
		}
	}

	for i, f := range c.DropNullNumerics {
		if math.IsNaN(f) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("drop_null_numerics[%d]", i),
				Message:  "NaN never matches a value; remove it",
			})
		}
	}

	issues = append(issues, validateLessThan("convert_less_than_value_integer", c.ConvertLessThanValueInteger, true)...)
	issues = append(issues, validateLessThan("convert_less_than_value_continuous", c.ConvertLessThanValueContinuous, false)...)
	issues = append(issues, validateWide(c)...)

	return issues
}

func validateIDs(key string, ids IDList) []Issue {
	var issues []Issue
	for i, v := range ids {
		if v == nil {
			continue
		}
		if *v < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("%s[%d]", key, i),
				Message:  fmt.Sprintf("id must be non-negative, got %d", *v),
			})
		}
	}
	return issues
}

func validateLessThan(key string, v *float64, integer bool) []Issue {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return []Issue{{
			Severity: SeverityError,
			Path:     key,
			Message:  "substitute must be a finite number",
		}}
	}
	if integer && *v != math.Trunc(*v) {
		return []Issue{{
			Severity: SeverityWarning,
			Path:     key,
			Message:  fmt.Sprintf("substitute %v is not integral; Integer columns will fail to coerce", *v),
		}}
	}
	return nil
}

// validateWide flags wide-only options that have no effect.
func validateWide(c Config) []Issue {
	var issues []Issue
	if !c.Wide {
		if c.RecodeWideColumnValueTypes {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "recode_wide_column_valuetypes",
				Message:  "has no effect unless wide is true",
			})
		}
		if c.ConvertCompoundToList {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "convert_compound_to_list",
				Message:  "has no effect unless wide is true",
			})
		}
		return issues
	}
	if c.ConvertCompoundToList && !c.RecodeWideColumnValueTypes {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "convert_compound_to_list",
			Message:  "has no effect unless recode_wide_column_valuetypes is true",
		})
	}
	return issues
}
