package table

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// SourceDescriptor names a tabular resource and its expected schema.
// Delimiter and Encoding only apply to delimited text files.
type SourceDescriptor struct {
	Name      string
	Path      string
	Delimiter rune
	Encoding  string
	Schema    Schema
	// MaxRows limits rows read; 0 means unlimited.
	MaxRows int
}

// Loader loads one source into a table.
type Loader interface {
	Load(ctx context.Context, d SourceDescriptor) (*Table, error)
}

// FileLoader reads CSV/TSV files and the first sheet of XLSX workbooks.
type FileLoader struct{}

// Load reads the source and validates its declared schema. Declared
// optional columns absent from the file are added with missing values.
func (FileLoader) Load(ctx context.Context, d SourceDescriptor) (*Table, error) {
	var (
		header []string
		rows   [][]string
		err    error
	)
	if strings.EqualFold(filepath.Ext(d.Path), ".xlsx") {
		header, rows, err = readXLSX(ctx, d)
	} else {
		header, rows, err = readDelimited(ctx, d)
	}
	if err != nil {
		return nil, err
	}
	return FromStrings(d, header, rows)
}

// FromStrings builds a table from raw string cells. Empty and
// whitespace-only cells become missing values.
func FromStrings(d SourceDescriptor, header []string, rows [][]string) (*Table, error) {
	columns := make([]string, 0, len(header))
	present := map[string]bool{}
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		columns = append(columns, h)
		present[h] = true
	}
	var missing []string
	for _, c := range d.Schema.Columns {
		if present[c.Name] {
			continue
		}
		if c.Required {
			missing = append(missing, c.Name)
			continue
		}
		columns = append(columns, c.Name)
		present[c.Name] = true
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Source: d.Name, Missing: missing}
	}

	recs := make([]Record, 0, len(rows))
	for _, raw := range rows {
		rec := make(Record, len(columns))
		for j := 0; j < len(header) && j < len(raw); j++ {
			if strings.TrimSpace(raw[j]) != "" {
				rec[j] = Str(raw[j])
			}
		}
		recs = append(recs, rec)
	}
	return New(d.Name, d.Schema, columns, recs), nil
}

func readDelimited(ctx context.Context, d SourceDescriptor) ([]string, [][]string, error) {
	f, err := os.Open(d.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", d.Name, err)
	}
	defer f.Close()

	enc, err := lookupEncoding(d.Encoding)
	if err != nil {
		return nil, nil, fmt.Errorf("source %s: %w", d.Name, err)
	}
	var src io.Reader = f
	if enc != nil {
		src = transform.NewReader(f, enc.NewDecoder())
	}

	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.Comma = d.Delimiter
	if r.Comma == 0 {
		r.Comma = sniffDelimiter(d.Path)
	}

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, &SchemaError{Source: d.Name, Missing: d.Schema.Required()}
		}
		return nil, nil, fmt.Errorf("read %s header: %w", d.Name, err)
	}
	header = append([]string(nil), header...)

	var rows [][]string
	for {
		if d.MaxRows > 0 && len(rows) >= d.MaxRows {
			break
		}
		if len(rows)%1024 == 0 && ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("read %s row %d: %w", d.Name, len(rows)+1, err)
		}
		rows = append(rows, rec)
	}
	return header, rows, nil
}

func readXLSX(ctx context.Context, d SourceDescriptor) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(d.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", d.Name, err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, &SchemaError{Source: d.Name, Missing: d.Schema.Required()}
	}
	all, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read %s sheet %q: %w", d.Name, sheets[0], err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if len(all) == 0 {
		return nil, nil, &SchemaError{Source: d.Name, Missing: d.Schema.Required()}
	}
	rows := all[1:]
	if d.MaxRows > 0 && len(rows) > d.MaxRows {
		rows = rows[:d.MaxRows]
	}
	return all[0], rows, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ';'
}

// lookupEncoding maps a descriptor encoding name to a decoder; nil means UTF-8.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", "-")) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "cp1251", "windows-1251":
		return charmap.Windows1251, nil
	case "cp1252", "windows-1252":
		return charmap.Windows1252, nil
	case "koi8-r", "koi8r":
		return charmap.KOI8R, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}
