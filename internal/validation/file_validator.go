package validation

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "hrreport/internal/errors"
)

// zipMagic opens every OOXML package, .xlsx included
var zipMagic = []byte("PK\x03\x04")

// FileValidator checks the files a run reads and produces
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger}
}

// ValidateOutputDirectory creates dir when needed and proves it is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Cannot create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		v.logger.Error("Output directory not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s not writable: %w", dir, err)
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}

// ValidateFile opens path for reading. A missing path is reported as a
// missing artifact so callers can tell it apart from I/O failures.
func (v *FileValidator) ValidateFile(path string) error {
	_, err := v.open(path)
	return err
}

func (v *FileValidator) open(path string) ([]byte, error) {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		v.logger.Error("Expected file is missing", slog.String("file", path))
		return nil, apperrors.NewMissingArtifactError(path)
	case err != nil:
		return nil, fmt.Errorf("stat %s: %w", path, err)
	case info.IsDir():
		return nil, fmt.Errorf("%s is a directory, not a file", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, len(zipMagic))
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size_bytes", info.Size()))
	return head[:n], nil
}

// ValidateFiles validates every path and returns the first failure
func (v *FileValidator) ValidateFiles(paths ...string) error {
	for _, path := range paths {
		if err := v.ValidateFile(path); err != nil {
			return err
		}
	}
	return nil
}

// ValidateExcelFile checks that path is a readable .xlsx package and not an
// Office lock file.
func (v *FileValidator) ValidateExcelFile(path string) error {
	base := filepath.Base(path)
	if ext := strings.ToLower(filepath.Ext(base)); ext != ".xlsx" {
		return fmt.Errorf("%s is not an Excel workbook (extension %q)", base, ext)
	}
	if strings.HasPrefix(base, "~$") {
		return fmt.Errorf("%s is an Office lock file", base)
	}

	head, err := v.open(path)
	if err != nil {
		return err
	}
	if !bytes.Equal(head, zipMagic) {
		v.logger.Error("Workbook is not a zip package", slog.String("file", path))
		return fmt.Errorf("%s is not a valid xlsx package", base)
	}
	return nil
}
