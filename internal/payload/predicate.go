package payload

import "github.com/KaramelBytes/callpulse/internal/table"

// Predicate accepts or rejects a row.
type Predicate func(table.Row) bool

// NonMissing accepts rows where every named column has a value.
func NonMissing(cols ...string) Predicate {
	return func(r table.Row) bool {
		for _, c := range cols {
			if r.Get(c).IsMissing() {
				return false
			}
		}
		return true
	}
}

// Equals accepts rows whose col text equals value as an identifier
// (see table.IDKey).
func Equals(col, value string) Predicate {
	value = table.IDKey(value)
	return func(r table.Row) bool {
		v := r.Get(col)
		return !v.IsMissing() && table.IDKey(v.Text()) == value
	}
}

// In is Equals over a set of values.
func In(col string, values []string) Predicate {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[table.IDKey(v)] = true
	}
	return func(r table.Row) bool {
		v := r.Get(col)
		return !v.IsMissing() && set[table.IDKey(v.Text())]
	}
}

// All accepts rows accepted by every predicate; nil entries are skipped.
func All(ps ...Predicate) Predicate {
	return func(r table.Row) bool {
		for _, p := range ps {
			if p != nil && !p(r) {
				return false
			}
		}
		return true
	}
}
