package internal

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FieldFunc normalizes a single field value.
type FieldFunc func(string) (string, error)

// TrimField strips surrounding whitespace.
func TrimField(s string) (string, error) {
	return strings.TrimSpace(s), nil
}

// IntField strips surrounding whitespace and re-serializes the value as a
// base-10 integer.
func IntField(s string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("not an integer: %q", s)
	}
	return strconv.Itoa(n), nil
}

// SortedListField canonicalizes a comma-separated list of tokens by sorting
// them, so "b,a,c" and "c,a,b" serialize identically.
func SortedListField(s string) (string, error) {
	tokens := strings.Split(strings.TrimSpace(s), ",")
	sort.Strings(tokens)
	return strings.Join(tokens, ","), nil
}

// NormalizeRows applies fns positionally to every field of every row.
// Missing or nil entries in fns leave the field unchanged. Rows with zero
// fields (stray blank lines) are dropped. A failing field fn aborts with a
// MalformedRowError carrying the raw row.
func NormalizeRows(rows [][]string, fns []FieldFunc) ([][]string, error) {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		normalized := make([]string, len(row))
		for i, field := range row {
			if i < len(fns) && fns[i] != nil {
				value, err := fns[i](field)
				if err != nil {
					return nil, &MalformedRowError{Row: row, Reason: err}
				}
				normalized[i] = value
			} else {
				normalized[i] = field
			}
		}
		out = append(out, normalized)
	}
	return out, nil
}

// SortRows sorts rows in place by the natural ordering of their normalized
// values: column by column, numerically where intCols marks the column and
// byte-wise otherwise. The sort is stable, so fully identical rows keep
// their input order. descending flips the ordering.
func SortRows(rows [][]string, intCols []bool, descending bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		if descending {
			return compareRows(rows[j], rows[i], intCols) < 0
		}
		return compareRows(rows[i], rows[j], intCols) < 0
	})
}

func compareRows(a, b []string, intCols []bool) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for col := 0; col < n; col++ {
		var c int
		if col < len(intCols) && intCols[col] {
			c = compareInts(a[col], b[col])
		} else {
			c = strings.Compare(a[col], b[col])
		}
		if c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

// compareInts assumes both values already passed IntField. A value that
// somehow did not parse sorts by its text form.
func compareInts(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	switch {
	case na < nb:
		return -1
	case na > nb:
		return 1
	default:
		return 0
	}
}
