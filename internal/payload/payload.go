// Package payload bounds a joined table into the record set handed to the
// reasoning service: filter, de-duplicate, select, truncate, then keep the
// first N records within a token budget.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/KaramelBytes/callpulse/internal/table"
	"github.com/KaramelBytes/callpulse/internal/utils"
)

// TruncationMarker is appended to text fields cut to MaxFieldLength.
const TruncationMarker = "..."

// ErrEmptyPayload is returned when no record qualifies for analysis.
var ErrEmptyPayload = errors.New("no records qualify for analysis")

// Column selects a source column, optionally renamed in the output.
type Column struct {
	Name string
	As   string
}

// Output returns the column name as it appears in the payload.
func (c Column) Output() string {
	if c.As != "" {
		return c.As
	}
	return c.Name
}

// Cols selects columns under their own names.
func Cols(names ...string) []Column {
	out := make([]Column, len(names))
	for i, n := range names {
		out[i] = Column{Name: n}
	}
	return out
}

// Spec declares how a table is bounded.
type Spec struct {
	Columns []Column
	// DedupKey keeps only the first record per distinct identifier
	// (table.IDKey) when set.
	DedupKey string
	// MaxRecords caps the record count (head-N, no resorting).
	MaxRecords int
	// TextField is truncated to MaxFieldLength runes when both are set.
	TextField      string
	MaxFieldLength int
	Filter         Predicate
	// MaxTokens bounds the serialized payload; 0 disables the budget.
	// Trailing records are dropped until it fits, keeping at least one.
	MaxTokens int
}

// Payload is the bounded, ordered record set.
type Payload struct {
	Columns []string
	Records []table.Record
	// Qualified counts records that passed filter and dedup, before the cap.
	Qualified int
	// Truncated counts text fields that were cut.
	Truncated int
	// Dropped counts records removed to honor MaxTokens.
	Dropped int
}

// Len returns the number of records.
func (p *Payload) Len() int { return len(p.Records) }

// Get returns the value of col in record i.
func (p *Payload) Get(i int, col string) table.Value {
	for j, c := range p.Columns {
		if c == col {
			return p.Records[i][j]
		}
	}
	return table.Null()
}

// Build applies spec to t. The input table is not modified.
func Build(t *table.Table, spec Spec) (*Payload, error) {
	if spec.MaxRecords <= 0 {
		return nil, fmt.Errorf("payload: max records must be positive, got %d", spec.MaxRecords)
	}
	if len(spec.Columns) == 0 {
		return nil, errors.New("payload: no columns selected")
	}
	if err := checkColumns(t, spec); err != nil {
		return nil, err
	}

	rows := make([]int, 0, len(t.Rows))
	for i := range t.Rows {
		if spec.Filter == nil || spec.Filter(t.Row(i)) {
			rows = append(rows, i)
		}
	}
	if spec.DedupKey != "" {
		rows = dedup(t, rows, spec.DedupKey)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyPayload
	}

	p := &Payload{Qualified: len(rows)}
	if len(rows) > spec.MaxRecords {
		rows = rows[:spec.MaxRecords]
	}

	src := make([]int, len(spec.Columns))
	textCol := -1
	for j, c := range spec.Columns {
		src[j], _ = t.ColumnIndex(c.Name)
		p.Columns = append(p.Columns, c.Output())
		if spec.MaxFieldLength > 0 && c.Name == spec.TextField {
			textCol = j
		}
	}
	p.Records = make([]table.Record, 0, len(rows))
	for _, i := range rows {
		rec := make(table.Record, len(src))
		for j, s := range src {
			rec[j] = t.Rows[i][s]
		}
		if textCol >= 0 && rec[textCol].Kind() == table.String {
			if cut, ok := utils.TruncateRunes(rec[textCol].Text(), spec.MaxFieldLength, TruncationMarker); ok {
				rec[textCol] = table.Str(cut)
				p.Truncated++
			}
		}
		p.Records = append(p.Records, rec)
	}

	if spec.MaxTokens > 0 {
		if err := p.fitTokens(spec.MaxTokens); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func checkColumns(t *table.Table, spec Spec) error {
	var missing []string
	need := func(col string) {
		if col != "" && !t.Has(col) {
			missing = append(missing, col)
		}
	}
	for _, c := range spec.Columns {
		need(c.Name)
	}
	need(spec.DedupKey)
	need(spec.TextField)
	if len(missing) > 0 {
		return &table.SchemaError{Source: t.Name, Missing: missing}
	}
	return nil
}

// dedup keeps the first row per distinct key; missing keys form one group.
func dedup(t *table.Table, rows []int, key string) []int {
	idx, _ := t.ColumnIndex(key)
	seen := make(map[string]bool, len(rows))
	out := rows[:0:0]
	for _, i := range rows {
		v := t.Rows[i][idx]
		k := "\x00missing"
		if !v.IsMissing() {
			k = table.IDKey(v.Text())
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, i)
	}
	return out
}

// fitTokens keeps the longest prefix whose serialization fits the budget.
func (p *Payload) fitTokens(budget int) error {
	fits := func(n int) (bool, error) {
		s, err := encode(p.Columns, p.Records[:n])
		if err != nil {
			return false, err
		}
		return utils.CountTokens(s) <= budget, nil
	}
	ok, err := fits(len(p.Records))
	if err != nil || ok {
		return err
	}
	var ferr error
	// smallest n in [1, len) that does not fit; keep n-1 (at least one)
	n := sort.Search(len(p.Records), func(n int) bool {
		if n == 0 || ferr != nil {
			return false
		}
		ok, err := fits(n)
		if err != nil {
			ferr = err
		}
		return !ok
	})
	if ferr != nil {
		return ferr
	}
	keep := n - 1
	if keep < 1 {
		keep = 1
	}
	p.Dropped = len(p.Records) - keep
	p.Records = p.Records[:keep]
	return nil
}

// JSON renders the payload as an indented array of objects whose keys
// follow the payload column order. Non-ASCII text is kept as-is.
func (p *Payload) JSON() (string, error) {
	return encode(p.Columns, p.Records)
}

func encode(columns []string, records []table.Record) (string, error) {
	if len(records) == 0 {
		return "[]", nil
	}
	var b bytes.Buffer
	b.WriteString("[\n")
	for i, rec := range records {
		b.WriteString("  {\n")
		for j, col := range columns {
			k, err := marshalNoEscape(col)
			if err != nil {
				return "", err
			}
			v, err := marshalValue(rec[j])
			if err != nil {
				return "", err
			}
			b.WriteString("    ")
			b.Write(k)
			b.WriteString(": ")
			b.Write(v)
			if j < len(columns)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString("  }")
		if i < len(records)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString("]")
	return b.String(), nil
}

func marshalValue(v table.Value) ([]byte, error) {
	if v.Kind() == table.String {
		return marshalNoEscape(v.Text())
	}
	return v.MarshalJSON()
}

func marshalNoEscape(v any) ([]byte, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("marshal payload value: %w", err)
	}
	return bytes.TrimRight(b.Bytes(), "\n"), nil
}
