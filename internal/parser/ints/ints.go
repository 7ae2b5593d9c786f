// Package ints provides helpers for extracting integer identifiers from text.
// Wide column names carry their FieldID as the trailing run after the last
// underscore (for example "Body mass index (BMI)_21001"), or are the bare id.
package ints

import (
	"strconv"
	"strings"
)

// Suffix returns the integer after the last underscore in s, or s itself
// when it has no underscore. ok is false when that trailing part is not a
// base-10 integer.
func Suffix(s string) (n int64, ok bool) {
	tail := s
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		tail = s[i+1:]
	}
	if tail == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(tail, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseLenient parses s as an integer, tolerating surrounding spaces and a
// trailing ".0" produced by float-typed exports.
func ParseLenient(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	if t, found := strings.CutSuffix(s, ".0"); found {
		return strconv.ParseInt(t, 10, 64)
	}
	return strconv.ParseInt(s, 10, 64)
}
