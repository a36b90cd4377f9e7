package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"hrreport/internal/dataprocessing"
)

// Style names a cell format used by the report
type Style int

const (
	StyleHeader Style = iota
	StyleBody
	StyleDate
	StyleMoney
	StyleTitle
)

// Range is an inclusive block of cells, 1-based
type Range struct {
	FromCol, FromRow int
	ToCol, ToRow     int
}

// PivotOptions places a pivot table over a block of source data
type PivotOptions struct {
	SourceSheet string
	Source      Range
	TargetSheet string
	Target      Range
	Spec        dataprocessing.PivotSpec
}

// Workbook is the spreadsheet the report is written into
type Workbook interface {
	NewSheet(name string) error
	SetRow(sheet string, row int, values []any) error
	ApplyStyle(sheet string, r Range, style Style) error
	SetColumnWidth(sheet string, col int, width float64) error
	BuildPivot(opts PivotOptions) error
	DeleteSheet(name string) error
	SetActiveSheet(name string) error
	Save(path string) error
	Close() error
}

// ExcelWorkbook is a Workbook backed by excelize
type ExcelWorkbook struct {
	f      *excelize.File
	styles map[Style]int
}

// NewExcelWorkbook creates an empty workbook. excelize starts it with Sheet1.
func NewExcelWorkbook() *ExcelWorkbook {
	return &ExcelWorkbook{f: excelize.NewFile(), styles: make(map[Style]int)}
}

// File exposes the underlying excelize file
func (w *ExcelWorkbook) File() *excelize.File { return w.f }

func (w *ExcelWorkbook) NewSheet(name string) error {
	if _, err := w.f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	return nil
}

func (w *ExcelWorkbook) SetRow(sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return w.f.SetSheetRow(sheet, cell, &values)
}

func (w *ExcelWorkbook) ApplyStyle(sheet string, r Range, style Style) error {
	id, err := w.styleID(style)
	if err != nil {
		return err
	}
	from, to, err := cellNames(r)
	if err != nil {
		return err
	}
	return w.f.SetCellStyle(sheet, from, to, id)
}

func (w *ExcelWorkbook) SetColumnWidth(sheet string, col int, width float64) error {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return err
	}
	return w.f.SetColWidth(sheet, name, name, width)
}

// BuildPivot adds a native pivot table. Excel computes its values on open.
func (w *ExcelWorkbook) BuildPivot(opts PivotOptions) error {
	src, err := sheetRange(opts.SourceSheet, opts.Source)
	if err != nil {
		return err
	}
	dst, err := sheetRange(opts.TargetSheet, opts.Target)
	if err != nil {
		return err
	}

	spec := opts.Spec
	pt := &excelize.PivotTableOptions{
		DataRange:       src,
		PivotTableRange: dst,
		Name:            spec.Name,
		Data: []excelize.PivotTableField{{
			Data:     spec.Value,
			Name:     spec.ValueCaption(),
			Subtotal: "Average",
			NumFmt:   3,
		}},
		RowGrandTotals:      true,
		ColGrandTotals:      true,
		ShowDrill:           true,
		ShowRowHeaders:      true,
		ShowColHeaders:      true,
		ShowLastColumn:      true,
		PivotTableStyleName: "PivotStyleLight16",
	}
	for _, name := range spec.Rows {
		pt.Rows = append(pt.Rows, excelize.PivotTableField{Data: name, DefaultSubtotal: true})
	}
	for _, name := range spec.Filters {
		pt.Filter = append(pt.Filter, excelize.PivotTableField{Data: name})
	}

	if err := w.f.AddPivotTable(pt); err != nil {
		return fmt.Errorf("add pivot table %s: %w", spec.Name, err)
	}
	return nil
}

func (w *ExcelWorkbook) DeleteSheet(name string) error {
	return w.f.DeleteSheet(name)
}

func (w *ExcelWorkbook) SetActiveSheet(name string) error {
	idx, err := w.f.GetSheetIndex(name)
	if err != nil {
		return err
	}
	if idx < 0 {
		return fmt.Errorf("sheet %s does not exist", name)
	}
	w.f.SetActiveSheet(idx)
	return nil
}

func (w *ExcelWorkbook) Save(path string) error {
	if err := w.f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func (w *ExcelWorkbook) Close() error {
	return w.f.Close()
}

func (w *ExcelWorkbook) styleID(style Style) (int, error) {
	if id, ok := w.styles[style]; ok {
		return id, nil
	}

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}

	var s excelize.Style
	switch style {
	case StyleHeader:
		s = excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			Border:    border,
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F0F0F0"}},
		}
	case StyleBody:
		s = excelize.Style{Border: border}
	case StyleDate:
		s = excelize.Style{Border: border, NumFmt: 14}
	case StyleMoney:
		s = excelize.Style{Border: border, NumFmt: 3}
	case StyleTitle:
		s = excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}}
	default:
		return 0, fmt.Errorf("unknown style %d", style)
	}

	id, err := w.f.NewStyle(&s)
	if err != nil {
		return 0, fmt.Errorf("create style: %w", err)
	}
	w.styles[style] = id
	return id, nil
}

func cellNames(r Range) (string, string, error) {
	from, err := excelize.CoordinatesToCellName(r.FromCol, r.FromRow)
	if err != nil {
		return "", "", err
	}
	to, err := excelize.CoordinatesToCellName(r.ToCol, r.ToRow)
	if err != nil {
		return "", "", err
	}
	return from, to, nil
}

func sheetRange(sheet string, r Range) (string, error) {
	from, to, err := cellNames(r)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s!%s:%s", sheet, from, to), nil
}
