package domain

import (
	"regexp"
	"strconv"
)

var dayDigits = regexp.MustCompile(`\d+`)

// NormalizeDay parses a day label into a conference day number.
// Labels arrive in several historical forms ("2", "Day 2", "day 2"); the
// first run of digits wins. Absent or unparseable labels default to day 1 —
// a parse failure must never propagate.
func NormalizeDay(label string) int {
	m := dayDigits.FindString(label)
	if m == "" {
		return 1
	}
	n, err := strconv.Atoi(m)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
