package sparql

import (
	"strconv"
	"strings"
)

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// Literal renders s as a double-quoted string literal, escaping characters
// that would otherwise end the literal or the line.
func Literal(s string) string {
	return `"` + literalEscaper.Replace(s) + `"`
}

// FilterString builds FILTER(?field = "v1" || ?field = "v2" || ...).
// No values yields FILTER().
func FilterString(field string, values []string) string {
	terms := make([]string, len(values))
	for i, v := range values {
		terms[i] = "?" + field + " = " + Literal(v)
	}
	return "FILTER(" + strings.Join(terms, " || ") + ")"
}

// RangeFilter builds FILTER(?field >= min && ?field <= max).
func RangeFilter(field string, min, max float64) string {
	return "FILTER(?" + field + " >= " + formatNumber(min) +
		" && ?" + field + " <= " + formatNumber(max) + ")"
}

// Range is an inclusive numeric interval.
type Range struct {
	Min float64
	Max float64
}

// AnyRangeFilter builds FILTER((?field >= a && ?field <= b) || ...), matching
// values that fall in at least one of ranges. A single range renders the same
// as RangeFilter.
func AnyRangeFilter(field string, ranges ...Range) string {
	if len(ranges) == 1 {
		return RangeFilter(field, ranges[0].Min, ranges[0].Max)
	}
	terms := make([]string, len(ranges))
	for i, r := range ranges {
		terms[i] = "(?" + field + " >= " + formatNumber(r.Min) +
			" && ?" + field + " <= " + formatNumber(r.Max) + ")"
	}
	return "FILTER(" + strings.Join(terms, " || ") + ")"
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
