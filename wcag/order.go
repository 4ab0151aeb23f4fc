package wcag

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// parseNumber splits a dotted criterion number ("2.4.11") into its integer
// components. Empty or non-numeric components are rejected.
func parseNumber(s string) ([]int, error) {
	if s == "" {
		return nil, fmt.Errorf("wcag: empty criterion number")
	}
	parts := strings.Split(s, ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || p[0] == '+' {
			return nil, fmt.Errorf("wcag: malformed criterion number %q", s)
		}
		out[i] = n
	}
	return out, nil
}

// CompareNumbers orders dotted criterion numbers component-wise as integers,
// so "1.4.10" sorts after "1.4.9". A shorter prefix sorts first ("1.4" <
// "1.4.1"). Malformed numbers fall back to lexical order after all
// well-formed ones.
func CompareNumbers(a, b string) int {
	pa, errA := parseNumber(a)
	pb, errB := parseNumber(b)
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	}
	return slices.Compare(pa, pb)
}

// SortCriteria sorts cs in place by ascending criterion number.
func SortCriteria(cs []Criterion) {
	slices.SortStableFunc(cs, func(x, y Criterion) int {
		return CompareNumbers(x.Number, y.Number)
	})
}

// SortNumbers sorts dotted numbers in place.
func SortNumbers(ns []string) {
	slices.SortStableFunc(ns, func(x, y string) int {
		return cmp.Or(CompareNumbers(x, y), strings.Compare(x, y))
	})
}
