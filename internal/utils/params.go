package utils

import (
	"strconv"
)

// ToInt parses s as a base-10 int; unparseable input is 0.
func ToInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// PositiveInt parses a query parameter that must be at least 1, falling back
// otherwise. Used for page numbers.
func PositiveInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// LimitParam parses a page-size parameter: fallback when unset or invalid,
// never more than max.
func LimitParam(s string, fallback, max int) int {
	n := PositiveInt(s, fallback)
	if n > max {
		return max
	}
	return n
}
