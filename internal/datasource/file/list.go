// Package file contains helpers for reading local files as datasources,
// such as line-based lists of subject ids.
package file

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadIDs reads one integer id per line from r.
//
// Lines that are empty or start with '#' (after trimming whitespace) are
// skipped. Any other line that does not parse as a base-10 integer is an
// error naming the line number. Order is preserved; duplicates are kept.
func ReadIDs(r io.Reader) ([]int64, error) {
	var out []int64
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		s := strings.TrimSpace(scanner.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid id %q", line, s)
		}
		out = append(out, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
