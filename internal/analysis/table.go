package analysis

import (
	"math"
	"strconv"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
)

// ColumnKind is the declared type of a column, fixed by whoever builds the Table.
type ColumnKind int

const (
	Numeric ColumnKind = iota
	Text
)

func (k ColumnKind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Text:
		return "text"
	default:
		return "unknown"
	}
}

// ColumnData is the raw input for one column of a Table.
type ColumnData struct {
	Name  string
	Kind  ColumnKind
	Nums  []float64
	Texts []string
	// Valid marks present cells; nil means every cell is present.
	Valid []bool
}

// NumericData builds a numeric column. NaN values are treated as missing.
func NumericData(name string, vals ...float64) ColumnData {
	valid := make([]bool, len(vals))
	for i, v := range vals {
		valid[i] = !math.IsNaN(v)
	}
	return ColumnData{Name: name, Kind: Numeric, Nums: vals, Valid: valid}
}

// TextData builds a text column. Empty strings are treated as missing.
func TextData(name string, vals ...string) ColumnData {
	valid := make([]bool, len(vals))
	for i, v := range vals {
		valid[i] = v != ""
	}
	return ColumnData{Name: name, Kind: Text, Texts: vals, Valid: valid}
}

// Len returns the number of cells in the column.
func (d ColumnData) Len() int {
	if d.Kind == Numeric {
		return len(d.Nums)
	}
	return len(d.Texts)
}

func (d ColumnData) present(i int) bool {
	return d.Valid == nil || (i < len(d.Valid) && d.Valid[i])
}

// Table is an immutable in-memory columnar dataset backed by an Arrow record.
type Table struct {
	name  string
	rec   arrow.Record
	kinds []ColumnKind
	index map[string]int
}

// NewTable validates the columns (unique names, equal lengths) and builds a Table.
func NewTable(name string, cols ...ColumnData) (*Table, error) {
	if len(cols) == 0 {
		return nil, Errorf(KindParseError, "", "table %q has no columns", name)
	}
	rows := cols[0].Len()
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		if c.Name == "" {
			return nil, Errorf(KindParseError, "", "column %d has an empty name", i+1)
		}
		if _, dup := index[c.Name]; dup {
			return nil, Errorf(KindParseError, c.Name, "duplicate column name")
		}
		index[c.Name] = i
		if c.Len() != rows {
			return nil, Errorf(KindLengthMismatch, c.Name, "has %d rows, want %d", c.Len(), rows)
		}
	}

	mem := memory.DefaultAllocator
	fields := make([]arrow.Field, len(cols))
	arrs := make([]arrow.Array, len(cols))
	kinds := make([]ColumnKind, len(cols))
	for i, c := range cols {
		kinds[i] = c.Kind
		switch c.Kind {
		case Numeric:
			b := array.NewFloat64Builder(mem)
			for j, v := range c.Nums {
				if c.present(j) {
					b.Append(v)
				} else {
					b.AppendNull()
				}
			}
			arrs[i] = b.NewArray()
			b.Release()
			fields[i] = arrow.Field{Name: c.Name, Type: arrow.PrimitiveTypes.Float64, Nullable: true}
		default:
			b := array.NewStringBuilder(mem)
			for j, v := range c.Texts {
				if c.present(j) {
					b.Append(v)
				} else {
					b.AppendNull()
				}
			}
			arrs[i] = b.NewArray()
			b.Release()
			fields[i] = arrow.Field{Name: c.Name, Type: arrow.BinaryTypes.String, Nullable: true}
		}
	}
	rec := array.NewRecord(arrow.NewSchema(fields, nil), arrs, int64(rows))
	// the record holds its own references
	for _, a := range arrs {
		a.Release()
	}
	return &Table{name: name, rec: rec, kinds: kinds, index: index}, nil
}

// Name returns the dataset name, usually the source file's base name.
func (t *Table) Name() string { return t.name }

// NumRows returns the shared row count.
func (t *Table) NumRows() int { return int(t.rec.NumRows()) }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return int(t.rec.NumCols()) }

// ColumnNames returns column names in table order.
func (t *Table) ColumnNames() []string {
	out := make([]string, t.NumCols())
	for i := range out {
		out[i] = t.rec.ColumnName(i)
	}
	return out
}

// Columns returns every column in table order.
func (t *Table) Columns() []Column {
	out := make([]Column, t.NumCols())
	for i := range out {
		out[i] = t.column(i)
	}
	return out
}

// Resolve looks up a column by its exact name. It is the one place a missing
// column is reported; every analysis goes through it.
func (t *Table) Resolve(name string) (Column, error) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, &Error{Kind: KindColumnNotFound, Column: name}
	}
	return t.column(i), nil
}

// Row returns the cells of row i across all columns, rendered as text.
// Missing cells are empty strings.
func (t *Table) Row(i int) []string {
	out := make([]string, t.NumCols())
	for j := range out {
		out[j] = t.column(j).Text(i)
	}
	return out
}

// Release frees the underlying Arrow memory. The Table must not be used afterwards.
func (t *Table) Release() {
	if t.rec != nil {
		t.rec.Release()
		t.rec = nil
	}
}

func (t *Table) column(i int) Column {
	return Column{Name: t.rec.ColumnName(i), Kind: t.kinds[i], arr: t.rec.Column(i)}
}

// Column is a read-only view of one column of a Table.
type Column struct {
	Name string
	Kind ColumnKind
	arr  arrow.Array
}

// Len returns the row count of the column.
func (c Column) Len() int { return c.arr.Len() }

// Missing returns the number of missing cells.
func (c Column) Missing() int { return c.arr.NullN() }

// IsMissing reports whether cell i is missing.
func (c Column) IsMissing(i int) bool { return c.arr.IsNull(i) }

// Float returns cell i as a number; ok is false for missing cells and text columns.
func (c Column) Float(i int) (v float64, ok bool) {
	f, isNum := c.arr.(*array.Float64)
	if !isNum || f.IsNull(i) {
		return 0, false
	}
	return f.Value(i), true
}

// Text returns cell i as text.
func (c Column) Text(i int) string {
	if c.arr.IsNull(i) {
		return ""
	}
	switch a := c.arr.(type) {
	case *array.Float64:
		return strconv.FormatFloat(a.Value(i), 'f', -1, 64)
	case *array.String:
		return a.Value(i)
	}
	return ""
}

// Floats returns the non-missing values of a numeric column in row order.
func (c Column) Floats() ([]float64, error) {
	f, ok := c.arr.(*array.Float64)
	if c.Kind != Numeric || !ok {
		return nil, &Error{Kind: KindNonNumericColumn, Column: c.Name}
	}
	out := make([]float64, 0, f.Len()-f.NullN())
	for i := 0; i < f.Len(); i++ {
		if !f.IsNull(i) {
			out = append(out, f.Value(i))
		}
	}
	return out, nil
}
