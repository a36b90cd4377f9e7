package files

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "hrreport/internal/errors"
)

// Extract decompresses every entry of the archive at src into dest and
// returns the entry names in archive order. Entries that would land outside
// dest are rejected.
func Extract(src, dest string) ([]string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, apperrors.NewExtractionError("failed to open archive", err).
			WithContext("archive", src)
	}
	defer r.Close()

	if err := os.MkdirAll(dest, 0755); err != nil {
		return nil, apperrors.NewExtractionError("failed to create destination", err).
			WithContext("dest", dest)
	}

	root := filepath.Clean(dest) + string(os.PathSeparator)
	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		path := filepath.Join(dest, f.Name)
		if !strings.HasPrefix(path+string(os.PathSeparator), root) {
			return nil, apperrors.NewExtractionError("entry escapes destination", nil).
				WithContext("entry", f.Name).
				WithContext("dest", dest)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(path, 0755); err != nil {
				return nil, apperrors.NewExtractionError("failed to create directory", err)
			}
			names = append(names, f.Name)
			continue
		}

		if err := extractEntry(f, path); err != nil {
			return nil, apperrors.NewExtractionError(fmt.Sprintf("failed to extract %s", f.Name), err)
		}
		names = append(names, f.Name)
	}

	return names, nil
}

func extractEntry(f *zip.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// FindWorkbook returns the first .xlsx entry in names joined to dest
func FindWorkbook(names []string, dest string) (string, error) {
	for _, name := range names {
		if strings.HasSuffix(strings.ToLower(name), ".xlsx") && !strings.HasPrefix(filepath.Base(name), "~$") {
			return filepath.Join(dest, name), nil
		}
	}
	return "", apperrors.ErrWorkbookNotFound
}
