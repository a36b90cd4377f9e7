package dataprocessing

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "hrreport/internal/errors"
)

// dateColumns hold Excel serial dates in the source workbook
var dateColumns = map[string]bool{
	ColHireDate: true,
	ColExitDate: true,
}

// LoadWorkbook reads the first sheet of the workbook at path into a Table.
// The first row is the header. Numeric serials in date columns become Time
// cells, empty cells become Missing and everything else loads as String.
func LoadWorkbook(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewTransformError("failed to open workbook", err).
			WithContext("path", path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewTransformError("workbook has no sheets", nil).
			WithContext("path", path)
	}

	table, err := ReadSheet(f, sheets[0])
	if err != nil {
		return nil, err
	}

	slog.Info("Workbook loaded",
		slog.String("path", path),
		slog.String("sheet", sheets[0]),
		slog.Int("columns", len(table.Columns)),
		slog.Int("rows", table.Len()))

	return table, nil
}

// ReadSheet reads one sheet of an open workbook into a Table
func ReadSheet(f *excelize.File, sheet string) (*Table, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewTransformError(fmt.Sprintf("failed to read sheet %s", sheet), err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewTransformError(fmt.Sprintf("sheet %s is empty", sheet), nil)
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	table := NewTable(header...)

	for _, raw := range rows[1:] {
		if isBlankRow(raw) {
			continue
		}
		row := make([]Value, len(header))
		for i := range header {
			if i >= len(raw) || raw[i] == "" {
				continue
			}
			row[i] = loadCell(header[i], raw[i])
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func loadCell(column, raw string) Value {
	if dateColumns[column] {
		if serial, err := strconv.ParseFloat(raw, 64); err == nil {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return TimeValue(t.UTC())
			}
		}
	}
	return StringValue(raw)
}

func isBlankRow(raw []string) bool {
	for _, cell := range raw {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
