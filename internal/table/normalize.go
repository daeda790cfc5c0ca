package table

import (
	"math"
	"strconv"
	"strings"
)

// Op names a normalization rule.
type Op int

const (
	OpToString Op = iota + 1
	OpToNumber
	OpLowercaseTrim
)

// Rule is one per-column coercion.
type Rule struct {
	Op      Op
	Default float64
}

// ToString coerces to a canonical identifier string.
func ToString() Rule { return Rule{Op: OpToString} }

// ToNumber coerces to a number; unparsable and missing cells become def.
func ToNumber(def float64) Rule { return Rule{Op: OpToNumber, Default: def} }

// LowercaseTrim trims and lower-cases text.
func LowercaseTrim() Rule { return Rule{Op: OpLowercaseTrim} }

// Rules maps column names to their coercion.
type Rules map[string]Rule

// Normalize returns a copy of t with rules applied. It never fails:
// numeric coercion falls back to the rule default and rules naming
// absent columns are ignored.
func Normalize(t *Table, rules Rules) *Table {
	type colRule struct {
		idx  int
		rule Rule
	}
	var active []colRule
	for i, c := range t.Columns {
		if r, ok := rules[c]; ok {
			active = append(active, colRule{idx: i, rule: r})
		}
	}
	rows := make([]Record, len(t.Rows))
	for i, r := range t.Rows {
		rec := make(Record, len(r))
		copy(rec, r)
		for _, cr := range active {
			rec[cr.idx] = apply(rec[cr.idx], cr.rule)
		}
		rows[i] = rec
	}
	return New(t.Name, t.Schema, t.Columns, rows)
}

func apply(v Value, r Rule) Value {
	switch r.Op {
	case OpToString:
		if v.IsMissing() {
			return v
		}
		s := CanonicalID(v.Text())
		if s == "" {
			return Null()
		}
		return Str(s)
	case OpToNumber:
		switch v.Kind() {
		case Number:
			return v
		case String:
			if f, ok := parseNumeric(v.Text()); ok {
				return Num(f)
			}
		}
		return Num(r.Default)
	case OpLowercaseTrim:
		if v.IsMissing() {
			return v
		}
		return Str(strings.ToLower(strings.TrimSpace(v.Text())))
	default:
		return v
	}
}

// parseNumeric accepts both "1 234,5" and "1,234.5" style numbers. The
// right-most of ',' and '.' is the decimal separator unless it occurs more
// than once ("1,234,567"), in which case it groups thousands. A single
// separator with no other ("1,234") is read as decimal.
func parseNumeric(s string) (float64, bool) {
	raw := strings.ReplaceAll(strings.TrimSpace(s), "\u00A0", " ")
	raw = strings.TrimSpace(strings.TrimSuffix(raw, "%"))
	if raw == "" {
		return 0, false
	}
	dec := '.'
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	if cpos > dpos {
		dec = ','
	}
	if strings.Count(raw, string(dec)) > 1 {
		dec = 0
	}
	for _, sep := range []rune{',', '.', ' '} {
		if sep != dec {
			raw = strings.ReplaceAll(raw, string(sep), "")
		}
	}
	switch dec {
	case 0:
		raw = strings.ReplaceAll(raw, ".", "")
	case ',':
		raw = strings.ReplaceAll(raw, ",", ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
