package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"hrreport/internal/browser"
	"hrreport/internal/config"
	"hrreport/internal/dataprocessing"
	"hrreport/internal/exporter"
	"hrreport/internal/files"
	"hrreport/internal/infrastructure"
	"hrreport/internal/notify"
	"hrreport/internal/operations"
)

func main() {
	os.Exit(run())
}

func run() (code int) {
	var logger *slog.Logger
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "PANIC RECOVERED: %v\n%s\n", r, debug.Stack())
			if logger != nil {
				logger.Error("Report run panicked",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())))
			}
			code = 1
		}
	}()

	configFile := flag.String("config", "", "path to a YAML config file (defaults to hrreport.yaml or config.yaml)")
	headless := flag.Bool("headless", true, "run Chrome without a window")
	skipMail := flag.Bool("skip-mail", false, "build the report without sending any email")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		return 1
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "headless" {
			cfg.Browser.Headless = *headless
		}
	})
	if *skipMail {
		cfg.Mail.Enabled = false
	}

	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", slog.String("error", err.Error()))
		return 1
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", slog.String("error", err.Error()))
		return 1
	}

	logger, err = infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()
	paths.LogPathResolution(logger)

	tel, err := infrastructure.InitializeTelemetry(cfg.Telemetry, logger)
	if err != nil {
		logger.Error("Failed to initialize telemetry", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tel.Shutdown(ctx)
	}()

	sysMetrics, err := infrastructure.NewSystemMetrics(tel.Meter)
	if err != nil {
		logger.Warn("System metrics unavailable", slog.String("error", err.Error()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.NewRunContext(ctx)
	start := time.Now()

	runner, err := buildRunner(cfg, paths, tel, logger)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to assemble pipeline", slog.String("error", err.Error()))
		return 1
	}

	logger.InfoContext(ctx, "Starting employee report",
		slog.String("version", config.AppVersion),
		slog.String("page_url", cfg.Source.PageURL),
		slog.Bool("headless", cfg.Browser.Headless),
		slog.Bool("mail_enabled", cfg.Mail.Enabled),
		slog.String("filter", cfg.Report.Filter))

	result, err := runner.Run(ctx)
	if sysMetrics != nil {
		sysMetrics.Collect(ctx, start, logger)
	}
	if err != nil {
		logger.ErrorContext(ctx, "Employee report failed",
			slog.String("error", err.Error()),
			slog.String("step", operations.FailedStep(err)),
			slog.Duration("duration", time.Since(start)))
		return 1
	}

	logger.InfoContext(ctx, "Employee report finished",
		slog.Int("attempts", result.Attempts),
		slog.String("workbook", result.State.WorkbookPath),
		slog.String("snapshot", result.State.SnapshotPath),
		slog.Duration("duration", time.Since(start)))
	return 0
}

// buildRunner wires the concrete browser, exporter and mail dependencies
// into the pipeline steps.
func buildRunner(cfg *config.Config, paths *config.Paths, tel *infrastructure.Telemetry, logger *slog.Logger) (*operations.Runner, error) {
	filter, err := dataprocessing.ParseFilterMode(cfg.Report.Filter)
	if err != nil {
		return nil, err
	}

	var sender notify.Sender
	if cfg.Mail.Enabled {
		client, err := notify.NewSMTPClient(cfg.Mail)
		if err != nil {
			return nil, err
		}
		sender = client
	}
	mailer := notify.NewMailer(cfg.Mail, sender, infrastructure.WithComponent(logger, "notify"))

	manager := files.NewManager(paths, logger)
	downloader := browser.NewLinkDownloader(
		&http.Client{Timeout: cfg.Browser.Timeout},
		manager,
		cfg.Browser.UserAgent,
		infrastructure.WithComponent(logger, "browser"))

	tracer := operations.NewOperationTracer(tel)
	opts := &operations.StageOptions{
		Browsers:     browser.NewChromeFactory(cfg.Browser, infrastructure.WithComponent(logger, "browser")),
		Trigger:      browser.NewTrigger(cfg.Source, downloader, infrastructure.WithComponent(logger, "browser")),
		DownloadDir:  cfg.Download.Dir,
		Waiter:       files.NewDownloadWatcher(cfg.Download.Dir, cfg.Download.PollInterval, cfg.Download.Timeout, infrastructure.WithComponent(logger, "files")),
		Files:        manager,
		WorkDir:      cfg.Report.WorkDir,
		Filter:       filter,
		PivotSpec:    dataprocessing.DefaultPivotSpec(),
		NewWorkbook:  func() exporter.Workbook { return exporter.NewExcelWorkbook() },
		Capturer:     exporter.NewChromeCapturer(cfg.Browser, paths.CacheDir, infrastructure.WithComponent(logger, "exporter")),
		CSV:          exporter.NewCSVWriter(paths, logger),
		WorkbookPath: cfg.Report.WorkbookPath,
		CSVPath:      cfg.Report.CSVPath,
		SnapshotPath: cfg.Report.SnapshotPath,
		Mailer:       mailer,
		Tracer:       tracer,
		Logger:       infrastructure.WithComponent(logger, "pipeline"),
	}

	registry := operations.NewRegistry()
	for _, step := range operations.DefaultSteps(opts) {
		if err := registry.Register(step); err != nil {
			return nil, err
		}
	}

	opCfg := operations.NewConfig(cfg)
	pipeline := operations.NewPipeline(registry, opCfg, tracer, infrastructure.WithComponent(logger, "pipeline"))
	return operations.NewRunner(pipeline, opCfg.Retry, mailer, infrastructure.WithComponent(logger, "runner")), nil
}
