package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "hrreport/internal/errors"
)

func TestFileValidator_ValidateFile(t *testing.T) {
	tests := []struct {
		name          string
		setupFunc     func(t *testing.T) string
		wantMissing   bool
		wantErr       bool
		errorContains string
	}{
		{
			name: "existing file",
			setupFunc: func(t *testing.T) string {
				file := filepath.Join(t.TempDir(), "report.png")
				require.NoError(t, os.WriteFile(file, []byte("png"), 0644))
				return file
			},
		},
		{
			name: "missing file",
			setupFunc: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nope.png")
			},
			wantErr:     true,
			wantMissing: true,
		},
		{
			name: "directory",
			setupFunc: func(t *testing.T) string {
				return t.TempDir()
			},
			wantErr:       true,
			errorContains: "is a directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewFileValidator(nil)
			err := v.ValidateFile(tt.setupFunc(t))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantMissing, apperrors.IsType(err, apperrors.ErrTypeMissingArtifact))
			if tt.errorContains != "" {
				assert.Contains(t, err.Error(), tt.errorContains)
			}
		})
	}
}

func TestFileValidator_ValidateFiles(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "Employee_Data_Summary.xlsx")
	require.NoError(t, os.WriteFile(present, []byte("x"), 0644))
	missing := filepath.Join(dir, "PivotTable_Data_Insights.png")

	v := NewFileValidator(nil)
	assert.NoError(t, v.ValidateFiles(present))

	err := v.ValidateFiles(present, missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PivotTable_Data_Insights.png")
}

func TestFileValidator_ValidateExcelFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}
	pkg := "PK\x03\x04rest-of-package"

	v := NewFileValidator(nil)
	assert.NoError(t, v.ValidateExcelFile(write("data.xlsx", pkg)))
	assert.Error(t, v.ValidateExcelFile(write("data.csv", pkg)))
	assert.Error(t, v.ValidateExcelFile(write("~$data.xlsx", pkg)))

	err := v.ValidateExcelFile(write("truncated.xlsx", "PK"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid xlsx package")

	err = v.ValidateExcelFile(filepath.Join(dir, "gone.xlsx"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeMissingArtifact))
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports", "nested")

	v := NewFileValidator(nil)
	require.NoError(t, v.ValidateOutputDirectory(dir))

	assert.DirExists(t, dir)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
