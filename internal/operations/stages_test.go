package operations

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"hrreport/internal/browser"
	"hrreport/internal/config"
	"hrreport/internal/dataprocessing"
	apperrors "hrreport/internal/errors"
	"hrreport/internal/exporter"
	"hrreport/internal/files"
)

var datasetRows = [][]any{
	{"EEID", "Full Name", "Job Title", "Department", "Business Unit", "Gender", "Ethnicity", "Age", "Hire Date", "Annual Salary", "Bonus %", "Country", "City", "Exit Date"},
	{"E02002", "Kai Le", "Sr. Manger", "IT", "Research & Development", "Female", "Asian", "45", "2016-10-15", "$141,604", "15%", "United States", "Seattle", ""},
	{"E02002", "Kai Le", "Sr. Manger", "IT", "Research & Development", "Female", "Asian", "45", "2016-10-15", "$141,604", "15%", "United States", "Seattle", ""},
	{"E02003", "Robert Patel", "Manager", "Finance", "Corporate", "Male", "Black", "61", "2005-01-01", "$99,975", "0%", "United States", "Chicago", ""},
	{"E02004", "Cameron Lo", "Analyst", "IT", "Manufacturing", "Male", "Latino", "30", "2020-01-01", "$80,000", "0%", "Brazil", "Manaus", "2022-05-01"},
	{"E02005", "Harper Castillo", "Director", "Finance", "Corporate", "Female", "Caucasian", "50", "2010-03-01", "$200,500", "30%", "United States", "Miami", ""},
}

func datasetWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range datasetRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// downloadingSession drops the dataset archive into its download dir on click
type downloadingSession struct {
	dir      string
	workbook []byte
	quits    int
}

func (s *downloadingSession) Navigate(context.Context, string) error { return nil }
func (s *downloadingSession) HTML(context.Context) (string, error) { return "", nil }

func (s *downloadingSession) Click(context.Context, string) error {
	f, err := os.Create(filepath.Join(s.dir, "Employee Sample Data.zip"))
	if err != nil {
		return err
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("Employee Sample Data/Employee Sample Data.xlsx")
	if err != nil {
		return err
	}
	if _, err := w.Write(s.workbook); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return f.Close()
}

func (s *downloadingSession) Quit() error {
	s.quits++
	return nil
}

type stubCapturer struct{}

func (stubCapturer) Capture(context.Context, *dataprocessing.Pivot) ([]byte, error) {
	return []byte("\x89PNG\r\n"), nil
}

type recordingMailer struct {
	insights    *dataprocessing.Insights
	attachments []string
}

func (m *recordingMailer) SendReport(_ context.Context, insights *dataprocessing.Insights, attachments ...string) error {
	m.insights = insights
	m.attachments = attachments
	return nil
}

func testStageOptions(t *testing.T) (*StageOptions, *downloadingSession, *recordingMailer) {
	t.Helper()
	base := t.TempDir()
	paths := config.NewPaths(base)

	session := &downloadingSession{workbook: datasetWorkbook(t)}
	mailer := &recordingMailer{}

	opts := &StageOptions{
		Browsers: func(_ context.Context, dir string) (browser.Session, error) {
			session.dir = dir
			return session, nil
		},
		Trigger:      browser.NewTrigger(config.SourceConfig{PageURL: "https://example.com/", ButtonXPath: "//a"}, nil, nil),
		DownloadDir:  paths.DownloadsDir,
		Waiter:       files.NewDownloadWatcher(paths.DownloadsDir, 10*time.Millisecond, 5*time.Second, nil),
		Files:        files.NewManager(paths, nil),
		WorkDir:      paths.WorkDir,
		Filter:       dataprocessing.FilterActive,
		PivotSpec:    dataprocessing.DefaultPivotSpec(),
		NewWorkbook:  func() exporter.Workbook { return exporter.NewExcelWorkbook() },
		Capturer:     stubCapturer{},
		CSV:          exporter.NewCSVWriter(paths, nil),
		WorkbookPath: paths.WorkbookFile,
		CSVPath:      paths.CSVFile,
		SnapshotPath: paths.SnapshotFile,
		Mailer:       mailer,
	}
	return opts, session, mailer
}

func TestDefaultStepsEndToEnd(t *testing.T) {
	opts, session, mailer := testStageOptions(t)
	stale := filepath.Join(opts.DownloadDir, "previous run.zip")
	require.NoError(t, os.MkdirAll(opts.DownloadDir, 0755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0644))

	reg := NewRegistry()
	for _, step := range DefaultSteps(opts) {
		require.NoError(t, reg.Register(step))
	}
	ids := make([]string, 0, reg.Count())
	for _, s := range reg.List() {
		ids = append(ids, s.ID())
	}
	assert.Equal(t, []string{StageIDFetch, StageIDDownload, StageIDExtract, StageIDTransform, StageIDReport, StageIDNotify}, ids)

	state, err := NewPipeline(reg, nil, nil, nil).RunOnce(context.Background(), "run-1", 1)
	require.NoError(t, err)

	assert.Equal(t, 1, session.quits)
	assert.NoFileExists(t, stale)
	require.NotNil(t, state.Archive)
	assert.Equal(t, "Employee Sample Data.xlsx", filepath.Base(state.SourceWorkbook))

	assert.Equal(t, 5, state.CleanStats.InputRows)
	assert.Equal(t, 1, state.CleanStats.DuplicatesDropped)
	require.Equal(t, 2, state.Filtered.Len())
	assert.Equal(t, -1, state.Filtered.ColumnIndex(dataprocessing.ColExitDate))

	titles, _ := state.Filtered.Column(dataprocessing.ColJobTitle)
	assert.Equal(t, "Sr. Manager", titles[0].Str)
	salaries, _ := state.Filtered.Column(dataprocessing.ColAnnualSalary)
	assert.Equal(t, dataprocessing.NumberValue(141604), salaries[0])

	assert.InDelta(t, 171052.0, state.Pivot.Total.Average, 0.001)

	for _, p := range []string{state.WorkbookPath, state.CSVPath, state.SnapshotPath} {
		assert.FileExists(t, p)
	}
	assert.Equal(t, []string{state.WorkbookPath, state.SnapshotPath}, mailer.attachments)
	require.NotNil(t, mailer.insights)
	assert.Equal(t, 2, mailer.insights.Employees)
}

func TestExtractStageWithoutArchive(t *testing.T) {
	opts, _, _ := testStageOptions(t)
	err := NewExtractStage(opts).Execute(context.Background(), NewRunState("run-1", 1))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeMissingArtifact))
}

func TestDownloadStageTimesOut(t *testing.T) {
	opts, _, _ := testStageOptions(t)
	opts.Waiter = files.NewDownloadWatcher(t.TempDir(), 5*time.Millisecond, 30*time.Millisecond, nil)

	state := NewRunState("run-1", 1)
	err := NewDownloadStage(opts).Execute(context.Background(), state)
	assert.ErrorIs(t, err, apperrors.ErrDownloadTimeout)
	assert.Nil(t, state.Archive)
}

func TestReportStageRequiresTransform(t *testing.T) {
	opts, _, _ := testStageOptions(t)
	err := NewReportStage(opts).Execute(context.Background(), NewRunState("run-1", 1))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeTransform))
}
