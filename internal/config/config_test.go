package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default(NewPaths(t.TempDir()))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.Delay)
	assert.Equal(t, "active", cfg.Report.Filter)
	assert.Equal(t, DefaultWorkbookName, filepath.Base(cfg.Report.WorkbookPath))
	assert.Equal(t, DefaultSnapshotName, filepath.Base(cfg.Report.SnapshotPath))
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "hrreport.yaml")
	content := `
source:
  page_url: https://example.com/data/
download:
  timeout: 90s
  poll_interval: 3s
report:
  filter: exited
retry:
  max_attempts: 5
mail:
  enabled: true
  host: smtp.example.com
  port: 2525
  from: reports@example.com
  to: manager@example.com
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/data/", cfg.Source.PageURL)
	assert.Equal(t, DefaultButtonXPath, cfg.Source.ButtonXPath)
	assert.Equal(t, 90*time.Second, cfg.Download.Timeout)
	assert.Equal(t, 3*time.Second, cfg.Download.PollInterval)
	assert.Equal(t, "exited", cfg.Report.Filter)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.True(t, cfg.Mail.Enabled)
	assert.Equal(t, 2525, cfg.Mail.Port)
	assert.Equal(t, "reports@example.com", cfg.Mail.ErrorTo, "error recipient falls back to sender")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "hrreport.yaml")
	require.NoError(t, os.WriteFile(file, []byte("retry:\n  max_attempts: 5\nreport:\n  filter: exited\n"), 0644))

	t.Setenv("HRREPORT_RETRY_MAX_ATTEMPTS", "2")
	t.Setenv("HRREPORT_REPORT_CSV_PATH", filepath.Join(dir, "out.csv"))

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Retry.MaxAttempts)
	assert.Equal(t, "exited", cfg.Report.Filter)
	assert.Equal(t, filepath.Join(dir, "out.csv"), cfg.Report.CSVPath)
}

func TestLoadKeepsExplicitZeroValues(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "hrreport.yaml")
	content := `
retry:
  delay: 0s
browser:
  headless: false
source:
  click_timeout: 0s
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), cfg.Retry.Delay)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, time.Duration(0), cfg.Source.ClickTimeout)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts, "absent keys still take defaults")
	assert.Equal(t, 2*time.Minute, cfg.Browser.Timeout)
}

func TestLoadEnvOverridesExplicitZero(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "hrreport.yaml")
	require.NoError(t, os.WriteFile(file, []byte("retry:\n  delay: 0s\n"), 0644))

	t.Setenv("HRREPORT_RETRY_DELAY", "250ms")

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.Delay)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "unknown filter", mutate: func(c *Config) { c.Report.Filter = "retired" }, wantErr: true},
		{name: "zero attempts", mutate: func(c *Config) { c.Retry.MaxAttempts = 0 }, wantErr: true},
		{name: "bad url", mutate: func(c *Config) { c.Source.PageURL = "not a url" }, wantErr: true},
		{name: "mail without recipient", mutate: func(c *Config) {
			c.Mail.Enabled = true
			c.Mail.From = "a@example.com"
		}, wantErr: true},
		{name: "mail with bad address", mutate: func(c *Config) {
			c.Mail.Enabled = true
			c.Mail.From = "a@example.com"
			c.Mail.To = "nobody"
		}, wantErr: true},
		{name: "workbook not xlsx", mutate: func(c *Config) { c.Report.WorkbookPath = "/tmp/out.xls" }, wantErr: true},
		{name: "interval above timeout", mutate: func(c *Config) {
			c.Download.PollInterval = time.Minute
			c.Download.Timeout = time.Second
		}, wantErr: true},
		{name: "interval equal to timeout", mutate: func(c *Config) {
			c.Download.PollInterval = time.Second
			c.Download.Timeout = time.Second
		}, wantErr: true},
		{name: "two polls fit in timeout", mutate: func(c *Config) {
			c.Download.PollInterval = time.Second
			c.Download.Timeout = 2 * time.Second
		}},
		{name: "format forced to json", mutate: func(c *Config) { c.Logging.Format = "text" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(NewPaths(t.TempDir()))
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "json", cfg.Logging.Format)
		})
	}
}

func TestEnsureDirectoriesIsIdempotent(t *testing.T) {
	paths := NewPaths(t.TempDir())

	require.NoError(t, paths.EnsureDirectories())
	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.DownloadsDir, paths.WorkDir, paths.ReportsDir, paths.CacheDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir(), dir)
	}
}
