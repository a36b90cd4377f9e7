package dataprocessing

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// FillValue replaces missing cells in fillable columns
const FillValue = "N/A"

// noFillColumns keep their missing cells
var noFillColumns = map[string]bool{
	ColHireDate:     true,
	ColExitDate:     true,
	ColAnnualSalary: true,
}

var textDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"02-Jan-2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// CleanStats counts what Clean changed
type CleanStats struct {
	InputRows         int
	DuplicatesDropped int
	FilledCells       int
	TitlesCorrected   int
	Unparseable       int
}

// Clean returns a cleaned copy of t:
//
//   - exact duplicate rows are dropped, first occurrence kept
//   - missing cells become "N/A" except in Hire Date, Exit Date and Annual Salary
//   - "Sr. Manger" is corrected to "Sr. Manager" in Job Title
//   - Annual Salary loses "$" and "," and becomes a Number
//   - Bonus % loses "%" and becomes a Number multiplied by 100
//   - Hire Date and Exit Date become UTC Time
//   - Age becomes a Number when it parses
//
// Values that fail to parse become Missing. Only String cells are coerced,
// so cleaning a cleaned table changes nothing.
func Clean(t *Table) *Table {
	out, _ := CleanWithStats(t)
	return out
}

// CleanWithStats is Clean plus counters for logging
func CleanWithStats(t *Table) (*Table, CleanStats) {
	stats := CleanStats{InputRows: t.Len()}

	out := dedupe(t)
	stats.DuplicatesDropped = t.Len() - out.Len()

	for _, row := range out.Rows {
		for i, col := range out.Columns {
			v := row[i]
			if v.IsMissing() && !noFillColumns[col] {
				v = StringValue(FillValue)
				stats.FilledCells++
			}

			switch col {
			case ColJobTitle:
				if v.Kind == String && strings.Contains(v.Str, "Sr. Manger") {
					v = StringValue(strings.ReplaceAll(v.Str, "Sr. Manger", "Sr. Manager"))
					stats.TitlesCorrected++
				}
			case ColAnnualSalary:
				if v.Kind == String {
					n, ok := parseSalary(v.Str)
					v = coerce(n, ok, &stats)
				}
			case ColBonus:
				if v.Kind == String {
					n, ok := parseBonus(v.Str)
					v = coerce(n, ok, &stats)
				}
			case ColHireDate, ColExitDate:
				switch v.Kind {
				case String:
					t, ok := parseDate(v.Str)
					v = coerceTime(t, ok, &stats)
				case Time:
					v = TimeValue(v.Time.UTC())
				}
			case ColAge:
				if v.Kind == String {
					if n, ok := parseNumber(v.Str); ok {
						v = NumberValue(n)
					}
				}
			}
			row[i] = v
		}
	}

	deduped := dedupe(out)
	stats.DuplicatesDropped += out.Len() - deduped.Len()
	return deduped, stats
}

func coerce(n float64, ok bool, stats *CleanStats) Value {
	if !ok {
		stats.Unparseable++
		return MissingValue()
	}
	return NumberValue(n)
}

func coerceTime(t time.Time, ok bool, stats *CleanStats) Value {
	if !ok {
		stats.Unparseable++
		return MissingValue()
	}
	return TimeValue(t)
}

// dedupe returns a copy of t without repeated rows
func dedupe(t *Table) *Table {
	out := &Table{Columns: append([]string(nil), t.Columns...)}
	seen := make(map[string]struct{}, len(t.Rows))
	for _, row := range t.Rows {
		k := rowKey(row)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out.Rows = append(out.Rows, append([]Value(nil), row...))
	}
	return out
}

// ParseSalary turns "$1,234" into 1234
func ParseSalary(s string) (float64, bool) {
	return parseSalary(s)
}

func parseSalary(s string) (float64, bool) {
	s = strings.NewReplacer("$", "", ",", "").Replace(s)
	return parseNumber(s)
}

// ParseBonus turns "5%" into 500
func ParseBonus(s string) (float64, bool) {
	return parseBonus(s)
}

func parseBonus(s string) (float64, bool) {
	n, ok := parseNumber(strings.ReplaceAll(s, "%", ""))
	if !ok {
		return 0, false
	}
	return n * 100, true
}

func parseNumber(s string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range textDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	if serial, ok := parseNumber(s); ok && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
