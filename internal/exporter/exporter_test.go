package exporter

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"hrreport/internal/config"
	"hrreport/internal/dataprocessing"
)

func sampleTable() *dataprocessing.Table {
	s := dataprocessing.StringValue
	n := dataprocessing.NumberValue
	hired := dataprocessing.TimeValue(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))

	t := dataprocessing.NewTable(
		dataprocessing.ColBusinessUnit,
		dataprocessing.ColDepartment,
		dataprocessing.ColGender,
		dataprocessing.ColEthnicity,
		dataprocessing.ColAnnualSalary,
		dataprocessing.ColHireDate,
	)
	t.AddRow(s("Research & Development"), s("IT"), s("Female"), s("Asian"), n(85000), hired)
	t.AddRow(s("Research & Development"), s("IT"), s("Male"), s("Latino"), n(95000), hired)
	t.AddRow(s("Corporate"), s("Finance"), s("Female"), s("Black"), n(120000), dataprocessing.MissingValue())
	return t
}

func samplePivot(t *testing.T, table *dataprocessing.Table) *dataprocessing.Pivot {
	t.Helper()
	p, err := dataprocessing.BuildPivot(table, dataprocessing.DefaultPivotSpec())
	require.NoError(t, err)
	return p
}

type call struct {
	op    string
	sheet string
}

type fakeWorkbook struct {
	calls []call
	rows  map[string][][]any
}

func newFakeWorkbook() *fakeWorkbook {
	return &fakeWorkbook{rows: make(map[string][][]any)}
}

func (f *fakeWorkbook) NewSheet(name string) error {
	f.calls = append(f.calls, call{"new", name})
	return nil
}

func (f *fakeWorkbook) SetRow(sheet string, _ int, values []any) error {
	f.rows[sheet] = append(f.rows[sheet], values)
	return nil
}

func (f *fakeWorkbook) ApplyStyle(string, Range, Style) error { return nil }
func (f *fakeWorkbook) SetColumnWidth(string, int, float64) error { return nil }

func (f *fakeWorkbook) BuildPivot(opts PivotOptions) error {
	f.calls = append(f.calls, call{"pivot", opts.TargetSheet})
	return nil
}

func (f *fakeWorkbook) DeleteSheet(name string) error {
	f.calls = append(f.calls, call{"delete", name})
	return nil
}

func (f *fakeWorkbook) SetActiveSheet(name string) error {
	f.calls = append(f.calls, call{"active", name})
	return nil
}

func (f *fakeWorkbook) Save(string) error { return nil }
func (f *fakeWorkbook) Close() error { return nil }

func (f *fakeWorkbook) has(op string) bool {
	for _, c := range f.calls {
		if c.op == op {
			return true
		}
	}
	return false
}

func TestWriteReportExcel(t *testing.T) {
	table := sampleTable()
	pivot := samplePivot(t, table)
	path := filepath.Join(t.TempDir(), "report.xlsx")

	wb := NewExcelWorkbook()
	require.NoError(t, WriteReport(wb, table, pivot))
	require.NoError(t, wb.Save(path))
	require.NoError(t, wb.Close())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DataSheet, PivotSheet, SummarySheet}, f.GetSheetList())
	assert.Equal(t, 1, f.GetActiveSheetIndex())

	header, err := f.GetCellValue(DataSheet, "E1")
	require.NoError(t, err)
	assert.Equal(t, dataprocessing.ColAnnualSalary, header)

	raw := excelize.Options{RawCellValue: true}
	salary, err := f.GetCellValue(DataSheet, "E2", raw)
	require.NoError(t, err)
	assert.Equal(t, "85000", salary)

	hired, err := f.GetCellValue(DataSheet, "F2", raw)
	require.NoError(t, err)
	assert.Equal(t, "44927", hired)

	pivots, err := f.GetPivotTables(PivotSheet)
	require.NoError(t, err)
	require.Len(t, pivots, 1)
	assert.Equal(t, "EmployeePivot", pivots[0].Name)

	rows, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	var labels []string
	for _, r := range rows {
		if len(r) > 0 {
			labels = append(labels, strings.TrimSpace(r[0]))
		}
	}
	assert.Contains(t, labels, "Corporate")
	assert.Contains(t, labels, "IT")
	assert.Contains(t, labels, "Grand Total")
}

func TestWriteReportLayout(t *testing.T) {
	table := sampleTable()
	wb := newFakeWorkbook()
	require.NoError(t, WriteReport(wb, table, samplePivot(t, table)))

	assert.Equal(t, call{"delete", "Sheet1"}, wb.calls[3])
	assert.True(t, wb.has("pivot"))
	assert.Equal(t, call{"active", PivotSheet}, wb.calls[len(wb.calls)-1])

	data := wb.rows[DataSheet]
	require.Len(t, data, 4)
	assert.Equal(t, dataprocessing.ColBusinessUnit, data[0][0])
	assert.Equal(t, 85000.0, data[1][4])
	assert.Nil(t, data[3][5])

	summary := wb.rows[SummarySheet]
	last := summary[len(summary)-1]
	assert.Equal(t, "Grand Total", last[0])
	assert.Equal(t, 3, last[1])
	assert.InDelta(t, 100000.0, last[3], 0.001)
}

func TestWriteReportSkipsPivotWhenEmpty(t *testing.T) {
	table := dataprocessing.NewTable(sampleTable().Columns...)
	wb := newFakeWorkbook()

	require.NoError(t, WriteReport(wb, table, samplePivot(t, table)))
	assert.False(t, wb.has("pivot"))
	assert.Len(t, wb.rows[DataSheet], 1)
}

func TestRenderPivotHTML(t *testing.T) {
	table := sampleTable()
	html, err := RenderPivotHTML(samplePivot(t, table), time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Contains(t, html, `id="pivot"`)
	assert.Contains(t, html, "Average of Annual Salary")
	assert.Contains(t, html, "Research &amp; Development")
	assert.Contains(t, html, "90,000")
	assert.Contains(t, html, "100,000")
	assert.Contains(t, html, "2024-05-01 09:30 UTC")
}

type fakeCapturer struct {
	png []byte
	err error
}

func (f *fakeCapturer) Capture(context.Context, *dataprocessing.Pivot) ([]byte, error) {
	return f.png, f.err
}

func TestSaveSnapshot(t *testing.T) {
	pivot := samplePivot(t, sampleTable())
	path := filepath.Join(t.TempDir(), "nested", "pivot.png")

	require.NoError(t, SaveSnapshot(context.Background(), &fakeCapturer{png: []byte("\x89PNG")}, pivot, path))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), content)

	failure := errors.New("chrome gone")
	other := filepath.Join(t.TempDir(), "pivot.png")
	assert.ErrorIs(t, SaveSnapshot(context.Background(), &fakeCapturer{err: failure}, pivot, other), failure)
	assert.NoFileExists(t, other)
}

func TestCSVWriterWriteTable(t *testing.T) {
	base := t.TempDir()
	w := NewCSVWriter(config.NewPaths(base), nil)

	require.NoError(t, w.WriteTable("employees.csv", sampleTable()))

	content, err := os.ReadFile(filepath.Join(base, "data", "reports", "employees.csv"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte{0xEF, 0xBB, 0xBF}))

	lines := strings.Split(strings.TrimSpace(string(content[3:])), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Business Unit,Department,Gender,Ethnicity,Annual Salary,Hire Date", lines[0])
	assert.Equal(t, "Research & Development,IT,Female,Asian,85000,2023-01-01", lines[1])
	assert.Equal(t, "Corporate,Finance,Female,Black,120000,", lines[3])
}

func TestCSVWriterResolvePath(t *testing.T) {
	paths := config.NewPaths("/srv/hr")
	w := NewCSVWriter(paths, nil)

	tests := []struct {
		in   string
		want string
	}{
		{"/tmp/out.csv", "/tmp/out.csv"},
		{"out.csv", filepath.Join(paths.ReportsDir, "out.csv")},
		{"cache/tmp.csv", filepath.Join(paths.CacheDir, "tmp.csv")},
		{"downloads/raw.csv", filepath.Join(paths.DownloadsDir, "raw.csv")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, w.resolvePath(tt.in))
	}
}
