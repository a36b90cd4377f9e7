package dataprocessing

import (
	"strconv"
	"strings"
	"time"
)

// Column names of the employee dataset
const (
	ColEEID         = "EEID"
	ColFullName     = "Full Name"
	ColJobTitle     = "Job Title"
	ColDepartment   = "Department"
	ColBusinessUnit = "Business Unit"
	ColGender       = "Gender"
	ColEthnicity    = "Ethnicity"
	ColAge          = "Age"
	ColHireDate     = "Hire Date"
	ColAnnualSalary = "Annual Salary"
	ColBonus        = "Bonus %"
	ColCountry      = "Country"
	ColCity         = "City"
	ColExitDate     = "Exit Date"
)

// DateLayout is how Time cells render as text
const DateLayout = "2006-01-02"

// Kind identifies what a Value holds
type Kind int

const (
	Missing Kind = iota
	String
	Number
	Time
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	case Time:
		return "time"
	default:
		return "missing"
	}
}

// Value is one typed cell
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Time time.Time
}

// MissingValue returns an empty cell
func MissingValue() Value { return Value{} }

// StringValue returns a text cell
func StringValue(s string) Value { return Value{Kind: String, Str: s} }

// NumberValue returns a numeric cell
func NumberValue(f float64) Value { return Value{Kind: Number, Num: f} }

// TimeValue returns a date cell
func TimeValue(t time.Time) Value { return Value{Kind: Time, Time: t} }

// IsMissing reports whether v is empty
func (v Value) IsMissing() bool { return v.Kind == Missing }

// String renders v as text. Missing renders as "".
func (v Value) String() string {
	switch v.Kind {
	case String:
		return v.Str
	case Number:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case Time:
		return v.Time.Format(DateLayout)
	default:
		return ""
	}
}

// Float returns v as a number. String cells are parsed.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case Number:
		return v.Num, true
	case String:
		return parseNumber(v.Str)
	default:
		return 0, false
	}
}

// Equal reports whether two cells hold the same kind and content
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case String:
		return v.Str == o.Str
	case Number:
		return v.Num == o.Num
	case Time:
		return v.Time.Equal(o.Time)
	default:
		return true
	}
}

func (v Value) key() string {
	switch v.Kind {
	case Time:
		return "t:" + v.Time.UTC().Format(time.RFC3339Nano)
	case Number:
		return "n:" + v.String()
	case String:
		return "s:" + v.Str
	default:
		return "-"
	}
}

// Table is a header plus rows of typed cells. Every row has len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]Value
}

// NewTable creates an empty table with the given header
func NewTable(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// AddRow appends a row, padding or truncating it to the column count
func (t *Table) AddRow(cells ...Value) {
	row := make([]Value, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// Len returns the number of rows
func (t *Table) Len() int { return len(t.Rows) }

// ColumnIndex returns the position of name, or -1
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the named column's cells
func (t *Table) Column(name string) ([]Value, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]Value, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, true
}

// Clone returns a deep copy of t
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]Value, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]Value(nil), row...)
	}
	return out
}

// DropColumn returns a copy of t without the named column
func (t *Table) DropColumn(name string) *Table {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return t.Clone()
	}

	out := &Table{Columns: make([]string, 0, len(t.Columns)-1)}
	out.Columns = append(out.Columns, t.Columns[:idx]...)
	out.Columns = append(out.Columns, t.Columns[idx+1:]...)
	out.Rows = make([][]Value, len(t.Rows))
	for i, row := range t.Rows {
		r := make([]Value, 0, len(row)-1)
		r = append(r, row[:idx]...)
		r = append(r, row[idx+1:]...)
		out.Rows[i] = r
	}
	return out
}

// Equal reports whether two tables have the same header and cells
func (t *Table) Equal(o *Table) bool {
	if len(t.Columns) != len(o.Columns) || len(t.Rows) != len(o.Rows) {
		return false
	}
	for i := range t.Columns {
		if t.Columns[i] != o.Columns[i] {
			return false
		}
	}
	for i := range t.Rows {
		for j := range t.Rows[i] {
			if !t.Rows[i][j].Equal(o.Rows[i][j]) {
				return false
			}
		}
	}
	return true
}

// Records renders the table as text rows with the header first
func (t *Table) Records() [][]string {
	records := make([][]string, 0, len(t.Rows)+1)
	records = append(records, append([]string(nil), t.Columns...))
	for _, row := range t.Rows {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = v.String()
		}
		records = append(records, rec)
	}
	return records
}

func rowKey(row []Value) string {
	var b strings.Builder
	for i, v := range row {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteString(v.key())
	}
	return b.String()
}
