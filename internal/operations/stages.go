package operations

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"hrreport/internal/browser"
	"hrreport/internal/dataprocessing"
	apperrors "hrreport/internal/errors"
	"hrreport/internal/exporter"
	"hrreport/internal/files"
	"hrreport/internal/validation"
)

// ArchiveWaiter blocks until a completed archive lands. *files.DownloadWatcher
// satisfies it.
type ArchiveWaiter interface {
	WaitForArchive(ctx context.Context, since time.Time) (*files.Archive, error)
}

// ReportSender emails the finished report. *notify.Mailer satisfies it.
type ReportSender interface {
	SendReport(ctx context.Context, insights *dataprocessing.Insights, attachments ...string) error
}

// StageOptions carries what the steps need
type StageOptions struct {
	Browsers    browser.Factory
	Trigger     *browser.Trigger
	DownloadDir string
	Waiter      ArchiveWaiter
	// Files clears leftovers of earlier attempts from DownloadDir when set
	Files       *files.Manager

	WorkDir string

	Filter    dataprocessing.FilterMode
	PivotSpec dataprocessing.PivotSpec

	NewWorkbook  func() exporter.Workbook
	Capturer     exporter.Capturer
	CSV          *exporter.CSVWriter
	WorkbookPath string
	CSVPath      string
	SnapshotPath string

	Mailer ReportSender
	Tracer *OperationTracer
	Logger *slog.Logger
}

func (o *StageOptions) logger(step string) *slog.Logger {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("step", step))
}

func (o *StageOptions) tracer() *OperationTracer {
	if o.Tracer == nil {
		return NewOperationTracer(nil)
	}
	return o.Tracer
}

// DefaultSteps returns the pipeline steps in run order
func DefaultSteps(opts *StageOptions) []Step {
	return []Step{
		NewFetchStage(opts),
		NewDownloadStage(opts),
		NewExtractStage(opts),
		NewTransformStage(opts),
		NewReportStage(opts),
		NewNotifyStage(opts),
	}
}

var staleDownloads = []string{"*.zip", "*.crdownload", "*.part"}

// FetchStage opens a browser and triggers the archive download
type FetchStage struct {
	BaseStage
	opts   *StageOptions
	logger *slog.Logger
}

// NewFetchStage creates the page fetch step
func NewFetchStage(opts *StageOptions) *FetchStage {
	return &FetchStage{
		BaseStage: NewBaseStage(StageIDFetch, StageNameFetch),
		opts:      opts,
		logger:    opts.logger(StageIDFetch),
	}
}

// Execute starts a fresh browser session and triggers the download. The
// session is left open on state for the download step.
func (s *FetchStage) Execute(ctx context.Context, state *RunState) error {
	if err := os.MkdirAll(s.opts.DownloadDir, 0755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}
	if s.opts.Files != nil {
		for _, pattern := range staleDownloads {
			if _, err := s.opts.Files.RemoveStale(s.opts.DownloadDir, pattern); err != nil {
				s.logger.WarnContext(ctx, "Failed to clear stale downloads",
					slog.String("pattern", pattern),
					slog.String("error", err.Error()))
			}
		}
	}

	session, err := s.opts.Browsers(ctx, s.opts.DownloadDir)
	if err != nil {
		return err
	}
	state.Browser = session
	state.DownloadStarted = time.Now()

	if err := s.opts.Trigger.Start(ctx, session, s.opts.DownloadDir); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Download triggered", slog.String("download_dir", s.opts.DownloadDir))
	return nil
}

// DownloadStage waits for the archive to finish downloading
type DownloadStage struct {
	BaseStage
	opts   *StageOptions
	logger *slog.Logger
}

// NewDownloadStage creates the download wait step
func NewDownloadStage(opts *StageOptions) *DownloadStage {
	return &DownloadStage{
		BaseStage: NewBaseStage(StageIDDownload, StageNameDownload),
		opts:      opts,
		logger:    opts.logger(StageIDDownload),
	}
}

// Execute polls for the archive and closes the browser once it has landed
func (s *DownloadStage) Execute(ctx context.Context, state *RunState) error {
	since := state.DownloadStarted
	if since.IsZero() {
		since = state.StartTime
	}

	archive, err := s.opts.Waiter.WaitForArchive(ctx, since)
	if err != nil {
		return err
	}
	state.Archive = archive
	s.opts.tracer().RecordDownloadWait(ctx, time.Since(since))

	if err := state.CloseBrowser(); err != nil {
		s.logger.WarnContext(ctx, "Failed to close browser", slog.String("error", err.Error()))
	}

	s.logger.InfoContext(ctx, "Archive ready",
		slog.String("archive", archive.Path),
		slog.Int64("size_bytes", archive.Size))
	return nil
}

// ExtractStage unpacks the archive and locates the workbook
type ExtractStage struct {
	BaseStage
	opts      *StageOptions
	validator *validation.FileValidator
	logger    *slog.Logger
}

// NewExtractStage creates the extraction step
func NewExtractStage(opts *StageOptions) *ExtractStage {
	logger := opts.logger(StageIDExtract)
	return &ExtractStage{
		BaseStage: NewBaseStage(StageIDExtract, StageNameExtract),
		opts:      opts,
		validator: validation.NewFileValidator(logger),
		logger:    logger,
	}
}

// Execute extracts state.Archive into the work dir
func (s *ExtractStage) Execute(ctx context.Context, state *RunState) error {
	if state.Archive == nil {
		return apperrors.NewMissingArtifactError("downloaded archive")
	}

	dest := filepath.Join(s.opts.WorkDir, ExtractDirName)
	entries, err := files.Extract(state.Archive.Path, dest)
	if err != nil {
		return err
	}
	workbook, err := files.FindWorkbook(entries, dest)
	if err != nil {
		return err
	}
	if err := s.validator.ValidateExcelFile(workbook); err != nil {
		return apperrors.NewExtractionError("archive holds no usable workbook", err)
	}

	state.ExtractDir = dest
	state.Entries = entries
	state.SourceWorkbook = workbook

	s.logger.InfoContext(ctx, "Archive extracted",
		slog.Int("entries", len(entries)),
		slog.String("workbook", workbook))
	return nil
}

// TransformStage loads, cleans, filters and aggregates the dataset
type TransformStage struct {
	BaseStage
	opts   *StageOptions
	logger *slog.Logger
}

// NewTransformStage creates the transform step
func NewTransformStage(opts *StageOptions) *TransformStage {
	return &TransformStage{
		BaseStage: NewBaseStage(StageIDTransform, StageNameTransform),
		opts:      opts,
		logger:    opts.logger(StageIDTransform),
	}
}

// Execute fills state.Filtered, state.Pivot and state.Insights
func (s *TransformStage) Execute(ctx context.Context, state *RunState) error {
	raw, err := dataprocessing.LoadWorkbook(state.SourceWorkbook)
	if err != nil {
		return err
	}
	state.Table = raw

	cleaned, stats := dataprocessing.CleanWithStats(raw)
	state.CleanStats = stats

	filtered, err := dataprocessing.Filter(cleaned, s.opts.Filter)
	if err != nil {
		return err
	}
	state.Filtered = filtered

	pivot, err := dataprocessing.BuildPivot(filtered, s.opts.PivotSpec)
	if err != nil {
		return err
	}
	state.Pivot = pivot
	state.Insights = dataprocessing.ComputeInsights(filtered)

	s.opts.tracer().RecordRows(ctx, filtered.Len())
	s.logger.InfoContext(ctx, "Dataset transformed",
		slog.Int("input_rows", stats.InputRows),
		slog.Int("duplicates_dropped", stats.DuplicatesDropped),
		slog.Int("filled_cells", stats.FilledCells),
		slog.Int("titles_corrected", stats.TitlesCorrected),
		slog.Int("unparseable", stats.Unparseable),
		slog.String("filter", string(s.opts.Filter)),
		slog.Int("output_rows", filtered.Len()),
		slog.Int("pivot_rows", len(pivot.Rows)))
	return nil
}

// ReportStage writes the workbook, the CSV copy and the pivot snapshot
type ReportStage struct {
	BaseStage
	opts      *StageOptions
	validator *validation.FileValidator
	logger    *slog.Logger
}

// NewReportStage creates the report step
func NewReportStage(opts *StageOptions) *ReportStage {
	logger := opts.logger(StageIDReport)
	return &ReportStage{
		BaseStage: NewBaseStage(StageIDReport, StageNameReport),
		opts:      opts,
		validator: validation.NewFileValidator(logger),
		logger:    logger,
	}
}

// Execute writes every artifact and records their paths on state
func (s *ReportStage) Execute(ctx context.Context, state *RunState) error {
	if state.Filtered == nil || state.Pivot == nil {
		return apperrors.NewTransformError("no transformed data to report", nil)
	}

	for _, p := range []string{s.opts.WorkbookPath, s.opts.CSVPath, s.opts.SnapshotPath} {
		if p == "" {
			continue
		}
		if err := s.validator.ValidateOutputDirectory(filepath.Dir(p)); err != nil {
			return err
		}
	}

	if err := s.writeWorkbook(state); err != nil {
		return err
	}
	state.WorkbookPath = s.opts.WorkbookPath

	if s.opts.CSV != nil && s.opts.CSVPath != "" {
		if err := s.opts.CSV.WriteTable(s.opts.CSVPath, state.Filtered); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		state.CSVPath = s.opts.CSVPath
	}

	if err := exporter.SaveSnapshot(ctx, s.opts.Capturer, state.Pivot, s.opts.SnapshotPath); err != nil {
		return err
	}
	state.SnapshotPath = s.opts.SnapshotPath

	s.logger.InfoContext(ctx, "Report written",
		slog.String("workbook", state.WorkbookPath),
		slog.String("csv", state.CSVPath),
		slog.String("snapshot", state.SnapshotPath))
	return nil
}

func (s *ReportStage) writeWorkbook(state *RunState) error {
	wb := s.opts.NewWorkbook()
	defer wb.Close()

	if err := exporter.WriteReport(wb, state.Filtered, state.Pivot); err != nil {
		return apperrors.NewTransformError("failed to lay out workbook", err)
	}
	if err := wb.Save(s.opts.WorkbookPath); err != nil {
		return err
	}
	return nil
}

// NotifyStage emails the workbook and snapshot
type NotifyStage struct {
	BaseStage
	opts   *StageOptions
	logger *slog.Logger
}

// NewNotifyStage creates the email step
func NewNotifyStage(opts *StageOptions) *NotifyStage {
	return &NotifyStage{
		BaseStage: NewBaseStage(StageIDNotify, StageNameNotify),
		opts:      opts,
		logger:    opts.logger(StageIDNotify),
	}
}

// Execute sends the report email
func (s *NotifyStage) Execute(ctx context.Context, state *RunState) error {
	if err := s.opts.Mailer.SendReport(ctx, state.Insights, state.WorkbookPath, state.SnapshotPath); err != nil {
		return err
	}
	s.opts.tracer().RecordEmail(ctx, "report")
	return nil
}
