// Package listview implements the derivation pipeline shared by every list
// screen: filtering a fetched collection by user criteria and slicing the
// result into pages. All functions are pure; inputs are never mutated.
package listview

import (
	"strconv"
	"strings"
	"time"
)

// EqualsFilter is a categorical criterion: the record's field must equal
// Value exactly. An empty Value imposes no constraint.
type EqualsFilter[T any] struct {
	Value string
	Field func(T) string
}

// Criteria describes the user-chosen constraints for one list screen.
// Every criterion with an empty or unparsable value imposes no constraint;
// non-empty criteria are ANDed.
//
// Pre, when set, excludes rows before any user criterion is considered
// (e.g. hiding the acting admin from the user list). It is not a
// user-visible filter and is not affected by a criteria reset.
type Criteria[T any] struct {
	Pre func(T) bool // keep the row when true; nil keeps everything

	Search       string
	SearchFields func(T) []string

	Equals []EqualsFilter[T]

	MinAmount   string // raw user input; non-numeric imposes no constraint
	AmountField func(T) float64

	DateFrom  string // "2006-01-02"; date-only comparison, time of day ignored
	DateField func(T) time.Time
}

// Apply returns the subset of records matching every non-empty criterion,
// preserving input order (stable filter, never a re-sort).
func Apply[T any](records []T, c Criteria[T]) []T {
	search := strings.ToLower(strings.TrimSpace(c.Search))
	minAmount, hasMin := parseAmount(c.MinAmount)
	from, hasFrom := parseDate(c.DateFrom)

	out := make([]T, 0, len(records))
	for _, rec := range records {
		if c.Pre != nil && !c.Pre(rec) {
			continue
		}
		if search != "" && c.SearchFields != nil && !matchesSearch(c.SearchFields(rec), search) {
			continue
		}
		if !matchesEquals(rec, c.Equals) {
			continue
		}
		if hasMin && c.AmountField != nil && c.AmountField(rec) < minAmount {
			continue
		}
		if hasFrom && c.DateField != nil && truncateToDay(c.DateField(rec)).Before(from) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func matchesSearch(fields []string, search string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

func matchesEquals[T any](rec T, filters []EqualsFilter[T]) bool {
	for _, f := range filters {
		if f.Value == "" || f.Field == nil {
			continue
		}
		if f.Field(rec) != f.Value {
			return false
		}
	}
	return true
}

func parseAmount(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
