package table

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Kind is the dynamic type of a cell value.
type Kind int

const (
	Missing Kind = iota
	String
	Number
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	default:
		return "missing"
	}
}

// Value is one typed cell: a string, a number, or missing.
type Value struct {
	kind Kind
	s    string
	n    float64
}

// Str returns a string value.
func Str(s string) Value { return Value{kind: String, s: s} }

// Num returns a numeric value.
func Num(f float64) Value { return Value{kind: Number, n: f} }

// Null returns a missing value.
func Null() Value { return Value{} }

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsMissing() bool { return v.kind == Missing }

// Float returns the numeric content when the value is a number.
func (v Value) Float() (float64, bool) {
	if v.kind != Number {
		return 0, false
	}
	return v.n, true
}

// Text renders the value as text. Integral numbers render without a
// fractional part so identifiers read back the way they were written.
func (v Value) Text() string {
	switch v.kind {
	case String:
		return v.s
	case Number:
		return formatNumber(v.n)
	default:
		return ""
	}
}

// MarshalJSON renders missing values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case String:
		return json.Marshal(v.s)
	case Number:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			return []byte("null"), nil
		}
		return []byte(formatNumber(v.n)), nil
	default:
		return []byte("null"), nil
	}
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Record is one row, aligned to the owning table's column order.
type Record []Value

// Row is a read-only, name-addressable view of a record.
type Row struct {
	index map[string]int
	rec   Record
}

// Get returns the named column or a missing value when the column is absent.
func (r Row) Get(col string) Value {
	if i, ok := r.index[col]; ok && i < len(r.rec) {
		return r.rec[i]
	}
	return Null()
}

// Table is an ordered sequence of records sharing one column set.
// Tables are not mutated after normalization; every transformation
// returns a new table.
type Table struct {
	Name    string
	Schema  Schema
	Columns []string
	Rows    []Record

	index map[string]int
}

// New builds a table; rows must be aligned to columns.
func New(name string, schema Schema, columns []string, rows []Record) *Table {
	t := &Table{Name: name, Schema: schema, Columns: columns, Rows: rows}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Has reports whether the column exists.
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// ColumnIndex returns the position of col.
func (t *Table) ColumnIndex(col string) (int, bool) {
	i, ok := t.index[col]
	return i, ok
}

// Row returns a named view of row i.
func (t *Table) Row(i int) Row { return Row{index: t.index, rec: t.Rows[i]} }

// Filter returns a new table with the rows accepted by keep.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := make([]Record, 0, len(t.Rows))
	for i := range t.Rows {
		if keep(t.Row(i)) {
			out = append(out, t.Rows[i])
		}
	}
	return New(t.Name, t.Schema, t.Columns, out)
}

// Distinct returns the distinct non-missing texts of col in first-seen order.
func (t *Table) Distinct(col string) []string {
	idx, ok := t.index[col]
	if !ok {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, r := range t.Rows {
		v := r[idx]
		if v.IsMissing() {
			continue
		}
		s := v.Text()
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// canonicalKey is the form used to compare identifiers across sources:
// trimmed, lower-cased, and with an integral ".0" suffix removed so that
// 42, "42" and "42.0" compare equal.
func canonicalKey(v Value) (string, bool) {
	if v.IsMissing() {
		return "", false
	}
	s := IDKey(v.Text())
	if s == "" {
		return "", false
	}
	return s, true
}

// IDKey is the form identifiers are compared in by joins, filters,
// grouping and dedup: CanonicalID, lower-cased.
func IDKey(s string) string { return strings.ToLower(CanonicalID(s)) }

// CanonicalID trims s and drops an all-zero fraction from an integer, so
// "42.0" and "42" name the same identifier.
func CanonicalID(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '.'); i > 0 {
		if strings.Trim(s[i+1:], "0") == "" {
			if _, err := strconv.ParseInt(s[:i], 10, 64); err == nil {
				return s[:i]
			}
		}
	}
	return s
}
