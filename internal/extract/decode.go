package extract

import (
	"strconv"
	"strings"

	"gopkg.in/guregu/null.v3"

	"phenoextract/internal/reference"
)

// extraNAMeanings are decoded labels treated as missing data.
var extraNAMeanings = map[string]struct{}{
	"Do not know":                  {},
	"Prefer not to answer":         {},
	"Time uncertain/unknown":       {},
	"Test not completed":           {},
	"Location could not be mapped": {},
	"Abandoned":                    {},
	"Next button not pressed":      {},
}

// extraNANumerics are raw sentinel values treated as missing data.
var extraNANumerics = []float64{99999, -9999999, -999999.0, -99999.0}

const lessThanPrefix = "Less than"

func joinDictionary(dict *reference.Dictionary) Stage {
	return mapStage("join-dictionary", func(r *Row) {
		e, ok := dict.Lookup(r.FieldID)
		if !ok {
			return
		}
		r.Field = null.StringFrom(e.Field)
		r.ValueType = e.ValueType
		r.Coding = e.Coding
	})
}

func joinCoding(codings *reference.Codings) Stage {
	return mapStage("join-coding", func(r *Row) {
		if !r.Coding.Valid {
			return
		}
		if m, ok := codings.Meaning(r.Coding.Int64, r.FieldValue); ok {
			r.Meaning = null.StringFrom(m)
		}
	})
}

func dropExtraNACodes() Stage {
	return filterStage("drop-extra-na-codes", func(r Row) bool {
		if r.Meaning.Valid {
			if _, drop := extraNAMeanings[r.Meaning.String]; drop {
				return false
			}
		}
		return !numericIn(r.FieldValue, extraNANumerics)
	})
}

func dropNullStrings(meanings []string) Stage {
	set := make(map[string]struct{}, len(meanings))
	for _, m := range meanings {
		set[m] = struct{}{}
	}
	return filterStage("drop-null-strings", func(r Row) bool {
		if !r.Meaning.Valid {
			return true
		}
		_, drop := set[r.Meaning.String]
		return !drop
	})
}

func dropNullNumerics(values []float64) Stage {
	vs := append([]float64(nil), values...)
	return filterStage("drop-null-numerics", func(r Row) bool {
		return !numericIn(r.FieldValue, vs)
	})
}

// numericIn parses s leniently as a float and reports whether it equals one
// of values. Unparsable text never matches.
func numericIn(s string, values []float64) bool {
	f, ok := parseFloat(s)
	if !ok {
		return false
	}
	for _, v := range values {
		if f == v {
			return true
		}
	}
	return false
}

// parseFloat accepts the typographic minus sign (U+2212) some exports carry.
func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	s = strings.Replace(s, "\u2212", "-", 1)
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func recodeValue(r *Row) {
	if r.Meaning.Valid {
		r.FieldValue = r.Meaning.String
	}
}

func integerGuard(vt reference.ValueType) bool { return vt == reference.ValueTypeInteger }
func continuousGuard(vt reference.ValueType) bool { return vt == reference.ValueTypeContinuous }

// lessThan replaces "Less than ..." values with substitute for rows whose
// ValueType passes guard.
func lessThan(name string, guard func(reference.ValueType) bool, substitute float64) Stage {
	text := strconv.FormatFloat(substitute, 'f', -1, 64)
	return mapStage(name, func(r *Row) {
		if guard(r.ValueType) && strings.HasPrefix(r.FieldValue, lessThanPrefix) {
			r.FieldValue = text
		}
	})
}

// recodeFieldName sets FieldName to "<Field>_<FieldID>". Rows without a
// dictionary match keep the numeric id.
func recodeFieldName(r *Row) {
	if !r.Field.Valid {
		return
	}
	r.FieldName = r.Field.String + "_" + strconv.FormatInt(r.FieldID, 10)
}
