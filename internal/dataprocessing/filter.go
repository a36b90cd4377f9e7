package dataprocessing

import (
	"fmt"

	apperrors "hrreport/internal/errors"
)

// RetirementAge is the exclusive upper bound on Age for reported rows
const RetirementAge = 60

// FilterMode selects which employees a report covers
type FilterMode string

const (
	// FilterActive keeps current employees under RetirementAge and drops Exit Date
	FilterActive FilterMode = "active"
	// FilterExited keeps former employees under RetirementAge
	FilterExited FilterMode = "exited"
)

// ParseFilterMode validates a configured filter name
func ParseFilterMode(s string) (FilterMode, error) {
	switch FilterMode(s) {
	case FilterActive, FilterExited:
		return FilterMode(s), nil
	default:
		return "", apperrors.NewConfigError(fmt.Sprintf("unknown filter mode %q", s), nil)
	}
}

// Filter returns the rows of t that match mode. Rows whose Age is not
// numeric never match.
func Filter(t *Table, mode FilterMode) (*Table, error) {
	ageIdx := t.ColumnIndex(ColAge)
	exitIdx := t.ColumnIndex(ColExitDate)
	if ageIdx < 0 || exitIdx < 0 {
		return nil, apperrors.NewTransformError("table lacks Age or Exit Date column", nil).
			WithContext("columns", t.Columns)
	}

	var wantExited bool
	switch mode {
	case FilterActive:
	case FilterExited:
		wantExited = true
	default:
		return nil, apperrors.NewTransformError(fmt.Sprintf("unknown filter mode %q", mode), nil)
	}

	out := &Table{Columns: append([]string(nil), t.Columns...)}
	for _, row := range t.Rows {
		age, ok := row[ageIdx].Float()
		if !ok || age >= RetirementAge {
			continue
		}
		if exited := !row[exitIdx].IsMissing(); exited != wantExited {
			continue
		}
		out.Rows = append(out.Rows, append([]Value(nil), row...))
	}

	if mode == FilterActive {
		return out.DropColumn(ColExitDate), nil
	}
	return out, nil
}
