package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/callpulse/internal/table"
)

func callsTable(n int, text func(i int) string) *table.Table {
	rows := make([]table.Record, n)
	for i := range rows {
		rows[i] = table.Record{table.Str(fmt.Sprint(i % 7)), table.Str(text(i))}
	}
	return table.New("calls", table.Schema{}, []string{"ID_MANAGER", "CALL_CHIFR"}, rows)
}

func TestBuildRespectsMaxRecords(t *testing.T) {
	for _, max := range []int{1, 5, 30, 100} {
		tb := callsTable(250, func(i int) string { return "call" })
		p, err := Build(tb, Spec{Columns: Cols("ID_MANAGER", "CALL_CHIFR"), MaxRecords: max})
		require.NoError(t, err)
		assert.Equal(t, max, p.Len())
		assert.Equal(t, 250, p.Qualified)
		// head-N keeps source order
		assert.Equal(t, "0", p.Get(0, "ID_MANAGER").Text())
	}
}

func TestBuildTruncatesText(t *testing.T) {
	long := strings.Repeat("я", 400)
	tb := callsTable(3, func(i int) string {
		if i == 1 {
			return "short"
		}
		return long
	})
	p, err := Build(tb, Spec{
		Columns:        Cols("CALL_CHIFR"),
		MaxRecords:     10,
		TextField:      "CALL_CHIFR",
		MaxFieldLength: 200,
	})
	require.NoError(t, err)
	got := p.Get(0, "CALL_CHIFR").Text()
	assert.Equal(t, 203, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, TruncationMarker))
	assert.Equal(t, "short", p.Get(1, "CALL_CHIFR").Text())
	assert.Equal(t, 2, p.Truncated)
	for i := range p.Records {
		assert.LessOrEqual(t, utf8.RuneCountInString(p.Get(i, "CALL_CHIFR").Text()), 200+len(TruncationMarker))
	}
}

func TestBuildDedupKeepsFirst(t *testing.T) {
	tb := table.New("calls", table.Schema{}, []string{"ID_MANAGER", "CALL_CHIFR"}, []table.Record{
		{table.Str("1"), table.Str("first")},
		{table.Str("2"), table.Str("other")},
		{table.Str("1"), table.Str("second")},
		{table.Null(), table.Str("a")},
		{table.Null(), table.Str("b")},
	})
	p, err := Build(tb, Spec{Columns: Cols("ID_MANAGER", "CALL_CHIFR"), DedupKey: "ID_MANAGER", MaxRecords: 10})
	require.NoError(t, err)
	require.Equal(t, 3, p.Len())
	assert.Equal(t, "first", p.Get(0, "CALL_CHIFR").Text())
	assert.Equal(t, "other", p.Get(1, "CALL_CHIFR").Text())
	assert.Equal(t, "a", p.Get(2, "CALL_CHIFR").Text())
}

func TestIdentifierMatchingIgnoresCase(t *testing.T) {
	tb := table.New("calls", table.Schema{}, []string{"ID_MANAGER", "CALL_CHIFR"}, []table.Record{
		{table.Str("AB1"), table.Str("first")},
		{table.Str("ab1"), table.Str("second")},
		{table.Str("Cd2"), table.Str("third")},
	})
	p, err := Build(tb, Spec{Columns: Cols("CALL_CHIFR"), DedupKey: "ID_MANAGER", MaxRecords: 10})
	require.NoError(t, err)
	require.Equal(t, 2, p.Len())
	assert.Equal(t, "first", p.Get(0, "CALL_CHIFR").Text())
	assert.Equal(t, "third", p.Get(1, "CALL_CHIFR").Text())

	p, err = Build(tb, Spec{Columns: Cols("CALL_CHIFR"), MaxRecords: 10, Filter: Equals("ID_MANAGER", "ab1")})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())

	p, err = Build(tb, Spec{Columns: Cols("CALL_CHIFR"), MaxRecords: 10, Filter: In("ID_MANAGER", []string{"CD2"})})
	require.NoError(t, err)
	require.Equal(t, 1, p.Len())
	assert.Equal(t, "third", p.Get(0, "CALL_CHIFR").Text())
}

func TestBuildEmpty(t *testing.T) {
	tb := callsTable(5, func(int) string { return "x" })
	_, err := Build(tb, Spec{
		Columns:    Cols("CALL_CHIFR"),
		MaxRecords: 10,
		Filter:     Equals("ID_MANAGER", "does-not-exist"),
	})
	assert.True(t, errors.Is(err, ErrEmptyPayload))

	empty := table.New("calls", table.Schema{}, []string{"CALL_CHIFR"}, nil)
	_, err = Build(empty, Spec{Columns: Cols("CALL_CHIFR"), MaxRecords: 10})
	assert.True(t, errors.Is(err, ErrEmptyPayload))
}

func TestBuildMissingColumn(t *testing.T) {
	tb := callsTable(1, func(int) string { return "x" })
	_, err := Build(tb, Spec{Columns: Cols("NAME"), MaxRecords: 1})
	var serr *table.SchemaError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, []string{"NAME"}, serr.Missing)
}

func TestBuildTokenBudget(t *testing.T) {
	tb := callsTable(100, func(int) string { return strings.Repeat("w", 200) })
	p, err := Build(tb, Spec{Columns: Cols("CALL_CHIFR"), MaxRecords: 100, MaxTokens: 500})
	require.NoError(t, err)
	assert.Greater(t, p.Len(), 0)
	assert.Less(t, p.Len(), 100)
	assert.Equal(t, 100-p.Len(), p.Dropped)
	s, err := p.JSON()
	require.NoError(t, err)
	assert.LessOrEqual(t, len(s)/4, 500)

	// a single oversized record is still kept
	p, err = Build(tb, Spec{Columns: Cols("CALL_CHIFR"), MaxRecords: 100, MaxTokens: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Len())
}

func TestJSONOrderAndNulls(t *testing.T) {
	tb := table.New("calls", table.Schema{}, []string{"Z", "A", "SALES"}, []table.Record{
		{table.Str("<b>привет</b>"), table.Null(), table.Num(12)},
	})
	p, err := Build(tb, Spec{Columns: []Column{{Name: "Z"}, {Name: "A", As: "agent"}, {Name: "SALES"}}, MaxRecords: 5})
	require.NoError(t, err)
	s, err := p.JSON()
	require.NoError(t, err)
	want := "[\n  {\n    \"Z\": \"<b>привет</b>\",\n    \"agent\": null,\n    \"SALES\": 12\n  }\n]"
	assert.Equal(t, want, s)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &decoded))
	assert.Len(t, decoded, 1)
}

func TestPredicates(t *testing.T) {
	tb := table.New("t", table.Schema{}, []string{"K", "V"}, []table.Record{
		{table.Str(" 1 "), table.Str("a")},
		{table.Str("2"), table.Null()},
		{table.Num(3), table.Str("c")},
		{table.Str("1.0"), table.Str("d")},
	})
	count := func(p Predicate) int {
		n := 0
		for i := range tb.Rows {
			if p(tb.Row(i)) {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 2, count(Equals("K", "1")))
	assert.Equal(t, 1, count(Equals("K", "3.0")))
	assert.Equal(t, 3, count(NonMissing("V")))
	assert.Equal(t, 2, count(In("K", []string{"2", "3"})))
	assert.Equal(t, 1, count(All(In("K", []string{"2", "3"}), NonMissing("V"))))
	assert.Equal(t, 4, count(All()))
}
