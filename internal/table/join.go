package table

// JoinKind selects relational join semantics.
type JoinKind int

const (
	LeftJoin JoinKind = iota
	InnerJoin
)

func (k JoinKind) String() string {
	if k == InnerJoin {
		return "inner"
	}
	return "left"
}

// JoinKey names the identifier column on each side. When Right is empty
// the same name is used on both sides.
type JoinKey struct {
	Left  string
	Right string
}

// On is a JoinKey using the same column name on both sides.
func On(col string) JoinKey { return JoinKey{Left: col, Right: col} }

// RightSuffix is appended to right-side column names that collide with a
// left-side column.
const RightSuffix = "_right"

// Join combines left and right on key. Keys are compared in canonical
// form. Duplicate keys produce one output row per matching pair, in left
// order then right order. Under LeftJoin unmatched left rows are kept with
// every right-side column missing; missing keys never match.
func Join(left, right *Table, key JoinKey, kind JoinKind) (*Table, error) {
	if key.Right == "" {
		key.Right = key.Left
	}
	li, ok := left.ColumnIndex(key.Left)
	if !ok {
		return nil, &JoinSchemaError{Table: left.Name, Target: right.Name, Key: key.Left, Side: "left"}
	}
	ri, ok := right.ColumnIndex(key.Right)
	if !ok {
		return nil, &JoinSchemaError{Table: left.Name, Target: right.Name, Key: key.Right, Side: "right"}
	}

	// Output columns: all of left, then right minus its key.
	columns := append([]string(nil), left.Columns...)
	taken := make(map[string]bool, len(columns))
	for _, c := range columns {
		taken[c] = true
	}
	var rightCols []int
	for j, c := range right.Columns {
		if j == ri {
			continue
		}
		name := c
		for taken[name] {
			name += RightSuffix
		}
		taken[name] = true
		columns = append(columns, name)
		rightCols = append(rightCols, j)
	}

	matches := make(map[string][]int, len(right.Rows))
	for j, r := range right.Rows {
		if k, ok := canonicalKey(r[ri]); ok {
			matches[k] = append(matches[k], j)
		}
	}

	width := len(columns)
	rows := make([]Record, 0, len(left.Rows))
	for _, l := range left.Rows {
		var hits []int
		if k, ok := canonicalKey(l[li]); ok {
			hits = matches[k]
		}
		if len(hits) == 0 {
			if kind == InnerJoin {
				continue
			}
			rec := make(Record, width)
			copy(rec, l)
			rows = append(rows, rec)
			continue
		}
		for _, j := range hits {
			rec := make(Record, width)
			copy(rec, l)
			for n, rc := range rightCols {
				rec[len(l)+n] = right.Rows[j][rc]
			}
			rows = append(rows, rec)
		}
	}

	schema := Schema{Columns: append(append([]Column(nil), left.Schema.Columns...), Optional(columns[len(left.Columns):]...)...)}
	return New(left.Name+"+"+right.Name, schema, columns, rows), nil
}
