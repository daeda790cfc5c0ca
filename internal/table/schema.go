package table

import (
	"fmt"
	"strings"
)

// Column declares one expected column of a source.
type Column struct {
	Name     string
	Required bool
}

// Schema is the declared column contract of a table.
type Schema struct {
	Columns []Column
}

// Required lists the names of required columns.
func (s Schema) Required() []string {
	var out []string
	for _, c := range s.Columns {
		if c.Required {
			out = append(out, c.Name)
		}
	}
	return out
}

// Names lists every declared column name in declaration order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// Require is shorthand for a required column declaration.
func Require(names ...string) []Column {
	out := make([]Column, len(names))
	for i, n := range names {
		out[i] = Column{Name: n, Required: true}
	}
	return out
}

// Optional is shorthand for an optional column declaration.
func Optional(names ...string) []Column {
	out := make([]Column, len(names))
	for i, n := range names {
		out[i] = Column{Name: n}
	}
	return out
}

// SchemaError reports required columns absent from a source.
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("source %q is missing required column(s): %s", e.Source, strings.Join(e.Missing, ", "))
}

// JoinSchemaError reports a join key column absent on one side of a join.
type JoinSchemaError struct {
	Table  string
	Key    string
	Side   string
	Target string
}

func (e *JoinSchemaError) Error() string {
	return fmt.Sprintf("cannot join %q with %q: key column %q missing on %s side", e.Table, e.Target, e.Key, e.Side)
}
