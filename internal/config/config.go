package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Source    SourceConfig    `yaml:"source" envconfig:"SOURCE"`
	Browser   BrowserConfig   `yaml:"browser" envconfig:"BROWSER"`
	Download  DownloadConfig  `yaml:"download" envconfig:"DOWNLOAD"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
	Mail      MailConfig      `yaml:"mail" envconfig:"MAIL"`
	Retry     RetryConfig     `yaml:"retry" envconfig:"RETRY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// SourceConfig describes where the dataset archive comes from
type SourceConfig struct {
	PageURL     string `yaml:"page_url" envconfig:"PAGE_URL" default:"https://www.thespreadsheetguru.com/sample-data/" validate:"required,url"`
	ButtonXPath string `yaml:"button_xpath" envconfig:"BUTTON_XPATH" default:"/html/body/section/div/div[1]/article/div[6]/div/div/a" validate:"required"`

	// LinkSelector is used with goquery when the XPath click fails
	LinkSelector string `yaml:"link_selector" envconfig:"LINK_SELECTOR" default:"a[href$='.zip']"`

	// ClickTimeout bounds the button wait so the fallback keeps the rest of the fetch budget
	ClickTimeout time.Duration `yaml:"click_timeout" envconfig:"CLICK_TIMEOUT" default:"20s" validate:"gte=0"`
}

// BrowserConfig contains chromedp settings
type BrowserConfig struct {
	Headless      bool          `yaml:"headless" envconfig:"HEADLESS" default:"true"`
	PageLoadDelay time.Duration `yaml:"page_load_delay" envconfig:"PAGE_LOAD_DELAY" default:"5s"`
	Timeout       time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"2m" validate:"gt=0"`
	UserAgent     string        `yaml:"user_agent" envconfig:"USER_AGENT"`
}

// DownloadConfig controls how the archive is awaited
type DownloadConfig struct {
	Dir          string        `yaml:"dir" envconfig:"DIR"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"60s" validate:"gt=0"`
	PollInterval time.Duration `yaml:"poll_interval" envconfig:"POLL_INTERVAL" default:"2s" validate:"gt=0"`
}

// ReportConfig contains artifact locations and the filter selection
type ReportConfig struct {
	WorkDir      string `yaml:"work_dir" envconfig:"WORK_DIR"`
	WorkbookPath string `yaml:"workbook_path" envconfig:"WORKBOOK_PATH"`
	CSVPath      string `yaml:"csv_path" envconfig:"CSV_PATH"`
	SnapshotPath string `yaml:"snapshot_path" envconfig:"SNAPSHOT_PATH"`
	Filter       string `yaml:"filter" envconfig:"FILTER" default:"active" validate:"oneof=active exited"`
}

// MailConfig contains SMTP and recipient settings
type MailConfig struct {
	Enabled       bool          `yaml:"enabled" envconfig:"ENABLED" default:"false"`
	Host          string        `yaml:"host" envconfig:"HOST" default:"localhost" validate:"required_if=Enabled true"`
	Port          int           `yaml:"port" envconfig:"PORT" default:"587" validate:"min=1,max=65535"`
	Username      string        `yaml:"username" envconfig:"USERNAME"`
	Password      string        `yaml:"password" envconfig:"PASSWORD"`
	TLS           string        `yaml:"tls" envconfig:"TLS" default:"opportunistic" validate:"oneof=mandatory opportunistic none"`
	From          string        `yaml:"from" envconfig:"FROM" validate:"omitempty,email"`
	To            string        `yaml:"to" envconfig:"TO" validate:"omitempty,email"`
	ErrorTo       string        `yaml:"error_to" envconfig:"ERROR_TO" validate:"omitempty,email"`
	Subject       string        `yaml:"subject" envconfig:"SUBJECT" default:"Pivot Table Analysis Report - Employee Dataset"`
	ErrorSubject  string        `yaml:"error_subject" envconfig:"ERROR_SUBJECT" default:"Error in Pivot Table Analysis Report - Employee Dataset"`
	RecipientName string        `yaml:"recipient_name" envconfig:"RECIPIENT_NAME"`
	SenderName    string        `yaml:"sender_name" envconfig:"SENDER_NAME"`
	RepositoryURL string        `yaml:"repository_url" envconfig:"REPOSITORY_URL"`
	Timeout       time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"30s" validate:"gt=0"`
}

// RetryConfig bounds how often the whole pipeline is attempted
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" envconfig:"MAX_ATTEMPTS" default:"3" validate:"min=1"`
	Delay       time.Duration `yaml:"delay" envconfig:"DELAY" default:"1s" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig selects OpenTelemetry exporters
type TelemetryConfig struct {
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none" validate:"oneof=none stdout file"`
	TraceFile     string `yaml:"trace_file" envconfig:"TRACE_FILE"`
	MetricsFile   string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// Load loads configuration from .env, environment variables and an optional YAML file.
// configFile may be empty, in which case the common locations are searched.
func Load(configFile string) (*Config, error) {
	// A missing .env is normal
	_ = godotenv.Load()

	var cfg Config
	var keys fileKeys
	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		var err error
		if keys, err = loadFromFile(configFile, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Environment and defaults are layered over the file values
	if err := applyEnv(&cfg, keys); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	paths, err := GetPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	cfg.ApplyPaths(paths)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// fileKeys records the "section.field" keys written in the YAML file, so an
// explicit zero or false survives the merge with defaults.
type fileKeys map[string]bool

// has reports whether the field behind envKey (HRREPORT_RETRY_DELAY) was
// present in the file (retry.delay).
func (k fileKeys) has(envKey string) bool {
	name := strings.ToLower(strings.TrimPrefix(envKey, EnvPrefix+"_"))
	section, field, _ := strings.Cut(name, "_")
	return k[section+"."+field]
}

// loadFromFile loads configuration from a YAML file and returns the keys it sets
func loadFromFile(filePath string, cfg *Config) (fileKeys, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	keys := fileKeys{}
	for section, v := range raw {
		fields, ok := v.(map[interface{}]interface{})
		if !ok {
			continue
		}
		for field := range fields {
			keys[section+"."+fmt.Sprint(field)] = true
		}
	}
	return keys, nil
}

// applyEnv overlays environment variables and defaults onto cfg.
func applyEnv(cfg *Config, keys fileKeys) error {
	var env Config
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return err
	}
	*cfg = mergeConfigs(*cfg, env, keys)
	return nil
}

// mergeConfigs merges file config with env config. A value set explicitly in the
// environment wins; otherwise a value written in the file is kept, even when it is
// zero, and the default fills any gap.
func mergeConfigs(file, env Config, keys fileKeys) Config {
	merged := env

	fromFile := func(key string, nonZero bool) bool {
		if _, set := os.LookupEnv(key); set {
			return false
		}
		return nonZero || keys.has(key)
	}
	pickString := func(dst *string, fileVal, key string) {
		if fromFile(key, fileVal != "") {
			*dst = fileVal
		}
	}
	pickDuration := func(dst *time.Duration, fileVal time.Duration, key string) {
		if fromFile(key, fileVal != 0) {
			*dst = fileVal
		}
	}
	pickInt := func(dst *int, fileVal int, key string) {
		if fromFile(key, fileVal != 0) {
			*dst = fileVal
		}
	}
	pickBool := func(dst *bool, fileVal bool, key string) {
		if fromFile(key, false) {
			*dst = fileVal
		}
	}
	key := func(parts ...string) string {
		k := EnvPrefix
		for _, p := range parts {
			k += "_" + p
		}
		return k
	}

	pickString(&merged.Source.PageURL, file.Source.PageURL, key("SOURCE", "PAGE_URL"))
	pickString(&merged.Source.ButtonXPath, file.Source.ButtonXPath, key("SOURCE", "BUTTON_XPATH"))
	pickString(&merged.Source.LinkSelector, file.Source.LinkSelector, key("SOURCE", "LINK_SELECTOR"))
	pickDuration(&merged.Source.ClickTimeout, file.Source.ClickTimeout, key("SOURCE", "CLICK_TIMEOUT"))

	pickBool(&merged.Browser.Headless, file.Browser.Headless, key("BROWSER", "HEADLESS"))
	pickDuration(&merged.Browser.PageLoadDelay, file.Browser.PageLoadDelay, key("BROWSER", "PAGE_LOAD_DELAY"))
	pickDuration(&merged.Browser.Timeout, file.Browser.Timeout, key("BROWSER", "TIMEOUT"))
	pickString(&merged.Browser.UserAgent, file.Browser.UserAgent, key("BROWSER", "USER_AGENT"))

	pickString(&merged.Download.Dir, file.Download.Dir, key("DOWNLOAD", "DIR"))
	pickDuration(&merged.Download.Timeout, file.Download.Timeout, key("DOWNLOAD", "TIMEOUT"))
	pickDuration(&merged.Download.PollInterval, file.Download.PollInterval, key("DOWNLOAD", "POLL_INTERVAL"))

	pickString(&merged.Report.WorkDir, file.Report.WorkDir, key("REPORT", "WORK_DIR"))
	pickString(&merged.Report.WorkbookPath, file.Report.WorkbookPath, key("REPORT", "WORKBOOK_PATH"))
	pickString(&merged.Report.CSVPath, file.Report.CSVPath, key("REPORT", "CSV_PATH"))
	pickString(&merged.Report.SnapshotPath, file.Report.SnapshotPath, key("REPORT", "SNAPSHOT_PATH"))
	pickString(&merged.Report.Filter, file.Report.Filter, key("REPORT", "FILTER"))

	pickBool(&merged.Mail.Enabled, file.Mail.Enabled, key("MAIL", "ENABLED"))
	pickString(&merged.Mail.Host, file.Mail.Host, key("MAIL", "HOST"))
	pickInt(&merged.Mail.Port, file.Mail.Port, key("MAIL", "PORT"))
	pickString(&merged.Mail.Username, file.Mail.Username, key("MAIL", "USERNAME"))
	pickString(&merged.Mail.Password, file.Mail.Password, key("MAIL", "PASSWORD"))
	pickString(&merged.Mail.TLS, file.Mail.TLS, key("MAIL", "TLS"))
	pickString(&merged.Mail.From, file.Mail.From, key("MAIL", "FROM"))
	pickString(&merged.Mail.To, file.Mail.To, key("MAIL", "TO"))
	pickString(&merged.Mail.ErrorTo, file.Mail.ErrorTo, key("MAIL", "ERROR_TO"))
	pickString(&merged.Mail.Subject, file.Mail.Subject, key("MAIL", "SUBJECT"))
	pickString(&merged.Mail.ErrorSubject, file.Mail.ErrorSubject, key("MAIL", "ERROR_SUBJECT"))
	pickString(&merged.Mail.RecipientName, file.Mail.RecipientName, key("MAIL", "RECIPIENT_NAME"))
	pickString(&merged.Mail.SenderName, file.Mail.SenderName, key("MAIL", "SENDER_NAME"))
	pickString(&merged.Mail.RepositoryURL, file.Mail.RepositoryURL, key("MAIL", "REPOSITORY_URL"))
	pickDuration(&merged.Mail.Timeout, file.Mail.Timeout, key("MAIL", "TIMEOUT"))

	pickInt(&merged.Retry.MaxAttempts, file.Retry.MaxAttempts, key("RETRY", "MAX_ATTEMPTS"))
	pickDuration(&merged.Retry.Delay, file.Retry.Delay, key("RETRY", "DELAY"))

	pickString(&merged.Logging.Level, file.Logging.Level, key("LOGGING", "LEVEL"))
	pickString(&merged.Logging.Format, file.Logging.Format, key("LOGGING", "FORMAT"))
	pickString(&merged.Logging.Output, file.Logging.Output, key("LOGGING", "OUTPUT"))
	pickString(&merged.Logging.FilePath, file.Logging.FilePath, key("LOGGING", "FILE_PATH"))

	pickString(&merged.Telemetry.TraceExporter, file.Telemetry.TraceExporter, key("TELEMETRY", "TRACE_EXPORTER"))
	pickString(&merged.Telemetry.TraceFile, file.Telemetry.TraceFile, key("TELEMETRY", "TRACE_FILE"))
	pickString(&merged.Telemetry.MetricsFile, file.Telemetry.MetricsFile, key("TELEMETRY", "METRICS_FILE"))

	return merged
}

// ApplyPaths fills every unset location with its executable-relative default
func (c *Config) ApplyPaths(p *Paths) {
	setDefault := func(dst *string, val string) {
		if *dst == "" {
			*dst = val
		}
	}
	setDefault(&c.Download.Dir, p.DownloadsDir)
	setDefault(&c.Report.WorkDir, p.WorkDir)
	setDefault(&c.Report.WorkbookPath, p.WorkbookFile)
	setDefault(&c.Report.CSVPath, p.CSVFile)
	setDefault(&c.Report.SnapshotPath, p.SnapshotFile)
	setDefault(&c.Logging.FilePath, p.GetLogPath(DefaultLogFile))
	setDefault(&c.Telemetry.TraceFile, p.GetLogPath(DefaultTraceFile))
	setDefault(&c.Telemetry.MetricsFile, p.GetLogPath(DefaultMetricsFile))
	if c.Mail.ErrorTo == "" {
		c.Mail.ErrorTo = c.Mail.From
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	// Always JSON
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output != "both" && c.Logging.Output != "file" && c.Logging.Output != "console" {
		c.Logging.Output = "both"
	}

	if c.Mail.Enabled && (c.Mail.From == "" || c.Mail.To == "") {
		return fmt.Errorf("mail is enabled but sender or recipient is missing")
	}
	if filepath.Ext(c.Report.WorkbookPath) != ".xlsx" {
		return fmt.Errorf("workbook path must end in .xlsx: %s", c.Report.WorkbookPath)
	}
	// The watcher needs two polls with an unchanged size before it accepts a file
	if 2*c.Download.PollInterval > c.Download.Timeout {
		return fmt.Errorf("download timeout %s must cover two poll intervals of %s", c.Download.Timeout, c.Download.PollInterval)
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"hrreport.yaml",
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration resolved against paths
func Default(p *Paths) *Config {
	cfg := &Config{
		Source: SourceConfig{
			PageURL:      DefaultPageURL,
			ButtonXPath:  DefaultButtonXPath,
			LinkSelector: "a[href$='.zip']",
			ClickTimeout: 20 * time.Second,
		},
		Browser: BrowserConfig{
			Headless:      true,
			PageLoadDelay: 5 * time.Second,
			Timeout:       2 * time.Minute,
		},
		Download: DownloadConfig{
			Timeout:      60 * time.Second,
			PollInterval: 2 * time.Second,
		},
		Report: ReportConfig{
			Filter: "active",
		},
		Mail: MailConfig{
			Enabled:      false,
			Host:         "localhost",
			Port:         587,
			TLS:          "opportunistic",
			Subject:      "Pivot Table Analysis Report - Employee Dataset",
			ErrorSubject: "Error in Pivot Table Analysis Report - Employee Dataset",
			Timeout:      30 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts: DefaultMaxAttempts,
			Delay:       DefaultRetryDelay,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "both",
		},
		Telemetry: TelemetryConfig{
			TraceExporter: "none",
		},
	}
	if p != nil {
		cfg.ApplyPaths(p)
	}
	return cfg
}
