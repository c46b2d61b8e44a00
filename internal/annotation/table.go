package annotation

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/salmonumbrella/wikigap-cli/internal/jsonv"
)

// Row is one table row keyed by column name.
type Row map[string]jsonv.Value

// Get returns the cell for column, or null when the column is absent.
func (r Row) Get(column string) jsonv.Value {
	if r == nil {
		return jsonv.Null()
	}
	return r[column]
}

// Text returns the cell as a string. Null, NaN and the literal "None" are
// treated as absent; numbers and booleans are rendered as text.
func (r Row) Text(column string) (string, bool) {
	v := r.Get(column)
	switch v.Kind() {
	case jsonv.KindString:
		s, _ := v.AsString()
		if s == "None" {
			return "", false
		}
		return s, true
	case jsonv.KindNumber:
		if v.IsNaN() {
			return "", false
		}
		n, _ := v.AsNumber()
		return n.String(), true
	case jsonv.KindBool:
		b, _ := v.AsBool()
		return strconv.FormatBool(b), true
	default:
		return "", false
	}
}

// Int returns the cell as an integer. Integral strings are accepted.
func (r Row) Int(column string) (int, bool) {
	v := r.Get(column)
	if n, ok := v.AsInt(); ok {
		return int(n), true
	}
	if s, ok := v.AsString(); ok {
		n, err := strconv.Atoi(s)
		if err == nil {
			return n, true
		}
	}
	return 0, false
}

// SetText stores s in column, or null when ok is false.
func (r Row) SetText(column, s string, ok bool) {
	if !ok {
		r[column] = jsonv.Null()
		return
	}
	r[column] = jsonv.String(s)
}

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is a set of rows sharing the same columns.
type Table struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool { return t.Len() == 0 }

// BuildTable aligns the extracted value lists into rows. Shorter lists are
// padded with null to the longest list. Context columns are unwrapped and
// every row records sourceFile in the source_file column.
//
// The lists are assumed to be aligned by position already; nothing checks
// that row i of one field belongs with row i of another.
func BuildTable(ex Extracted, sourceFile string) *Table {
	maxLen := ex.MaxLen()
	table := &Table{
		Columns: append([]string{}, ex.Names()...),
		Rows:    make([]Row, maxLen),
	}
	for i := range table.Rows {
		table.Rows[i] = make(Row, len(table.Columns)+1)
	}

	for _, name := range table.Columns {
		vals, _ := ex.Values(name)
		role := roleOf(name)
		for i := 0; i < maxLen; i++ {
			cell := jsonv.Null()
			if i < len(vals) {
				cell = vals[i]
			}
			table.Rows[i][name] = normalizeCell(role, cell)
		}
	}

	if maxLen > 0 {
		table.Columns = append(table.Columns, FieldSourceFile)
		for _, row := range table.Rows {
			row[FieldSourceFile] = jsonv.String(sourceFile)
		}
	}
	return table
}

// LoadFile reads an annotation export and builds its table.
func LoadFile(path string, targets FieldSet) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading annotations: %w", err)
	}
	tree, err := jsonv.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing annotations %s: %w", filepath.Base(path), err)
	}
	return BuildTable(Extract(tree, targets), filepath.Base(path)), nil
}

// FileName returns the export file name for a topic and language on date.
func FileName(date, topic, lang string) string {
	return fmt.Sprintf("annotation_%s_%s_%s.json", date, topic, lang)
}
