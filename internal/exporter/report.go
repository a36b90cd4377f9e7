package exporter

import (
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"hrreport/internal/dataprocessing"
)

// Sheet names of the report workbook
const (
	DataSheet    = "Data"
	PivotSheet   = "Pivot"
	SummarySheet = "Summary"
	defaultSheet = "Sheet1"
)

const (
	minColumnWidth = 8
	maxColumnWidth = 50
	// pivotTop leaves room above the pivot for its page filters
	pivotTop = 3
)

// WriteReport lays the filtered table, the native pivot and a static summary
// into wb. It does not save wb.
func WriteReport(wb Workbook, t *dataprocessing.Table, p *dataprocessing.Pivot) error {
	for _, name := range []string{DataSheet, PivotSheet, SummarySheet} {
		if err := wb.NewSheet(name); err != nil {
			return err
		}
	}
	if err := wb.DeleteSheet(defaultSheet); err != nil {
		return fmt.Errorf("remove default sheet: %w", err)
	}

	if err := writeData(wb, t); err != nil {
		return fmt.Errorf("write data sheet: %w", err)
	}

	// A pivot over a header-only range is rejected by Excel
	if t.Len() > 0 {
		opts := PivotOptions{
			SourceSheet: DataSheet,
			Source:      Range{FromCol: 1, FromRow: 1, ToCol: len(t.Columns), ToRow: t.Len() + 1},
			TargetSheet: PivotSheet,
			Target:      Range{FromCol: 1, FromRow: pivotTop, ToCol: 2, ToRow: pivotTop + len(p.Rows) + 2},
			Spec:        p.Spec,
		}
		if err := wb.BuildPivot(opts); err != nil {
			return err
		}
	} else {
		slog.Warn("No rows after filtering, pivot table skipped")
	}

	if err := writeSummary(wb, p); err != nil {
		return fmt.Errorf("write summary sheet: %w", err)
	}

	return wb.SetActiveSheet(PivotSheet)
}

func writeData(wb Workbook, t *dataprocessing.Table) error {
	header := make([]any, len(t.Columns))
	widths := make([]int, len(t.Columns))
	for i, name := range t.Columns {
		header[i] = name
		widths[i] = utf8.RuneCountInString(name)
	}
	if err := wb.SetRow(DataSheet, 1, header); err != nil {
		return err
	}

	for r, row := range t.Rows {
		values := make([]any, len(row))
		for c, v := range row {
			values[c] = cellValue(v)
			if n := utf8.RuneCountInString(v.String()); n > widths[c] {
				widths[c] = n
			}
		}
		if err := wb.SetRow(DataSheet, r+2, values); err != nil {
			return err
		}
	}

	last := len(t.Columns)
	if last == 0 {
		return nil
	}
	if err := wb.ApplyStyle(DataSheet, Range{1, 1, last, 1}, StyleHeader); err != nil {
		return err
	}

	if t.Len() > 0 {
		bottom := t.Len() + 1
		if err := wb.ApplyStyle(DataSheet, Range{1, 2, last, bottom}, StyleBody); err != nil {
			return err
		}
		for c, name := range t.Columns {
			style, ok := columnStyle(name)
			if !ok {
				continue
			}
			if err := wb.ApplyStyle(DataSheet, Range{c + 1, 2, c + 1, bottom}, style); err != nil {
				return err
			}
		}
	}

	for c, w := range widths {
		if err := wb.SetColumnWidth(DataSheet, c+1, fitWidth(w)); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(wb Workbook, p *dataprocessing.Pivot) error {
	row := 1
	if err := wb.SetRow(SummarySheet, row, []any{p.Spec.ValueCaption() + " by " + joinFields(p.Spec.Rows)}); err != nil {
		return err
	}
	if err := wb.ApplyStyle(SummarySheet, Range{1, row, 1, row}, StyleTitle); err != nil {
		return err
	}
	row++

	for _, name := range p.Spec.Filters {
		selection := "(All)"
		if v, ok := p.Spec.Selections[name]; ok {
			selection = v
		}
		if err := wb.SetRow(SummarySheet, row, []any{name, selection}); err != nil {
			return err
		}
		row++
	}
	row++

	header := []any{"Row Labels", "Count", "Sum", p.Spec.ValueCaption()}
	if err := wb.SetRow(SummarySheet, row, header); err != nil {
		return err
	}
	if err := wb.ApplyStyle(SummarySheet, Range{1, row, len(header), row}, StyleHeader); err != nil {
		return err
	}
	first := row + 1

	for _, r := range append(append([]dataprocessing.PivotRow(nil), p.Rows...), p.Total) {
		row++
		if err := wb.SetRow(SummarySheet, row, []any{indent(r), r.Count, r.Sum, r.Average}); err != nil {
			return err
		}
	}

	if row >= first {
		if err := wb.ApplyStyle(SummarySheet, Range{1, first, 1, row}, StyleBody); err != nil {
			return err
		}
		if err := wb.ApplyStyle(SummarySheet, Range{2, first, len(header), row}, StyleMoney); err != nil {
			return err
		}
	}

	for c, w := range []float64{36, 10, 16, 26} {
		if err := wb.SetColumnWidth(SummarySheet, c+1, w); err != nil {
			return err
		}
	}
	return nil
}

func cellValue(v dataprocessing.Value) any {
	switch v.Kind {
	case dataprocessing.Number:
		return v.Num
	case dataprocessing.Time:
		return v.Time
	case dataprocessing.String:
		return v.Str
	default:
		return nil
	}
}

func columnStyle(name string) (Style, bool) {
	switch name {
	case dataprocessing.ColHireDate, dataprocessing.ColExitDate:
		return StyleDate, true
	case dataprocessing.ColAnnualSalary:
		return StyleMoney, true
	default:
		return 0, false
	}
}

func fitWidth(chars int) float64 {
	w := chars + 2
	if w < minColumnWidth {
		w = minColumnWidth
	}
	if w > maxColumnWidth {
		w = maxColumnWidth
	}
	return float64(w)
}

// indent renders a pivot row label the way Excel's compact layout does
func indent(r dataprocessing.PivotRow) string {
	pad := ""
	for i := 0; i < r.Level; i++ {
		pad += "    "
	}
	return pad + r.Label()
}

func joinFields(fields []string) string {
	out := ""
	for i, f := range fields {
		switch {
		case i == 0:
		case i == len(fields)-1:
			out += " and "
		default:
			out += ", "
		}
		out += f
	}
	return out
}

// reportTimestamp is the date stamp written into generated artifacts
func reportTimestamp(now time.Time) string {
	return now.UTC().Format("2006-01-02 15:04 MST")
}
