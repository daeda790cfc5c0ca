package table

import "sort"

// GroupTotal is the summed value of one group.
type GroupTotal struct {
	Key   string
	Total float64
	Count int
}

// SumBy sums valueCol per distinct groupCol identifier (IDKey), preserving
// first-seen group order and spelling. Non-numeric values count as zero.
func SumBy(t *Table, groupCol, valueCol string) []GroupTotal {
	gi, ok := t.ColumnIndex(groupCol)
	if !ok {
		return nil
	}
	vi, hasValue := t.ColumnIndex(valueCol)
	pos := map[string]int{}
	var out []GroupTotal
	for _, r := range t.Rows {
		k := r[gi]
		if k.IsMissing() {
			continue
		}
		id := IDKey(k.Text())
		i, seen := pos[id]
		if !seen {
			i = len(out)
			pos[id] = i
			out = append(out, GroupTotal{Key: CanonicalID(k.Text())})
		}
		out[i].Count++
		if hasValue {
			if f, ok := r[vi].Float(); ok {
				out[i].Total += f
			}
		}
	}
	return out
}

// TopN returns the n groups with the largest totals; ties keep first-seen order.
func TopN(groups []GroupTotal, n int) []GroupTotal {
	out := append([]GroupTotal(nil), groups...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
