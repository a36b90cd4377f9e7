package dataprocessing

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	apperrors "hrreport/internal/errors"
)

// BlankLabel stands in for a missing grouping value, as Excel shows it
const BlankLabel = "(blank)"

// PivotSpec describes the aggregation
type PivotSpec struct {
	Name    string
	Rows    []string
	Filters []string
	Value   string
	// Selections restricts filter fields to one value each
	Selections map[string]string
}

// DefaultPivotSpec averages Annual Salary by Business Unit and Department,
// with Gender and Ethnicity as page filters.
func DefaultPivotSpec() PivotSpec {
	return PivotSpec{
		Name:    "EmployeePivot",
		Rows:    []string{ColBusinessUnit, ColDepartment},
		Filters: []string{ColGender, ColEthnicity},
		Value:   ColAnnualSalary,
	}
}

// ValueCaption is the data field caption Excel uses for the average
func (s PivotSpec) ValueCaption() string {
	return "Average of " + s.Value
}

// PivotRow is one line of the pivot in display order. Level 0 rows are
// subtotals of the first row field; deeper levels add one key each.
type PivotRow struct {
	Keys    []string
	Level   int
	Count   int
	Sum     float64
	Average float64
}

// Label is the last key of the row
func (r PivotRow) Label() string {
	return r.Keys[len(r.Keys)-1]
}

// Pivot is the computed aggregation
type Pivot struct {
	Spec         PivotSpec
	Rows         []PivotRow
	Total        PivotRow
	FilterValues map[string][]string
}

type groupAcc struct {
	keys   []string
	values []float64
}

// BuildPivot groups t by spec.Rows and averages spec.Value within each
// group. Cells of spec.Value that are not numeric are ignored. Groups at
// every level are sorted by key.
func BuildPivot(t *Table, spec PivotSpec) (*Pivot, error) {
	valueIdx := t.ColumnIndex(spec.Value)
	if valueIdx < 0 {
		return nil, apperrors.NewTransformError(fmt.Sprintf("value column %q not found", spec.Value), nil)
	}
	rowIdx, err := columnIndices(t, spec.Rows)
	if err != nil {
		return nil, err
	}
	filterIdx, err := columnIndices(t, spec.Filters)
	if err != nil {
		return nil, err
	}

	p := &Pivot{Spec: spec, FilterValues: make(map[string][]string, len(spec.Filters))}
	distinct := make([]map[string]struct{}, len(spec.Filters))
	for i := range distinct {
		distinct[i] = make(map[string]struct{})
	}

	groups := make(map[string]*groupAcc)
	var all []float64
	for _, row := range t.Rows {
		for i, idx := range filterIdx {
			distinct[i][label(row[idx])] = struct{}{}
		}
		if !selected(row, t, spec.Selections) {
			continue
		}

		v, ok := row[valueIdx].Float()
		if !ok {
			continue
		}
		all = append(all, v)

		keys := make([]string, 0, len(rowIdx))
		for _, idx := range rowIdx {
			keys = append(keys, label(row[idx]))
			k := strings.Join(keys, "\x1f")
			acc, exists := groups[k]
			if !exists {
				acc = &groupAcc{keys: append([]string(nil), keys...)}
				groups[k] = acc
			}
			acc.values = append(acc.values, v)
		}
	}

	for i, name := range spec.Filters {
		p.FilterValues[name] = sortedMapKeys(distinct[i])
	}

	accs := make([]*groupAcc, 0, len(groups))
	for _, acc := range groups {
		accs = append(accs, acc)
	}
	sort.Slice(accs, func(i, j int) bool {
		return lessKeys(accs[i].keys, accs[j].keys)
	})
	for _, acc := range accs {
		p.Rows = append(p.Rows, aggregate(acc.keys, acc.values))
	}
	p.Total = aggregate([]string{"Grand Total"}, all)

	slog.Debug("Pivot built",
		slog.String("name", spec.Name),
		slog.Int("rows", len(p.Rows)),
		slog.Int("values", p.Total.Count))

	return p, nil
}

// Leaves returns the rows at the deepest grouping level
func (p *Pivot) Leaves() []PivotRow {
	depth := len(p.Spec.Rows) - 1
	var out []PivotRow
	for _, r := range p.Rows {
		if r.Level == depth {
			out = append(out, r)
		}
	}
	return out
}

func aggregate(keys []string, values []float64) PivotRow {
	row := PivotRow{Keys: keys, Level: len(keys) - 1, Count: len(values)}
	if len(values) == 0 {
		return row
	}
	row.Sum, _ = stats.Sum(values)
	row.Average, _ = stats.Mean(values)
	return row
}

// lessKeys orders parents before their children
func lessKeys(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func columnIndices(t *Table, names []string) ([]int, error) {
	out := make([]int, len(names))
	for i, name := range names {
		idx := t.ColumnIndex(name)
		if idx < 0 {
			return nil, apperrors.NewTransformError(fmt.Sprintf("pivot column %q not found", name), nil)
		}
		out[i] = idx
	}
	return out, nil
}

func selected(row []Value, t *Table, selections map[string]string) bool {
	for col, want := range selections {
		idx := t.ColumnIndex(col)
		if idx < 0 || label(row[idx]) != want {
			return false
		}
	}
	return true
}

func label(v Value) string {
	if v.IsMissing() {
		return BlankLabel
	}
	return v.String()
}
