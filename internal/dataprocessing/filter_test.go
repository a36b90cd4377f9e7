package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ageTable() *Table {
	t := NewTable(ColEEID, ColAge, ColExitDate)
	t.AddRow(StringValue("A"), NumberValue(25), MissingValue())
	t.AddRow(StringValue("B"), NumberValue(61), MissingValue())
	t.AddRow(StringValue("C"), NumberValue(40), TimeValue(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))
	t.AddRow(StringValue("D"), StringValue(FillValue), MissingValue())
	return t
}

func TestFilterActive(t *testing.T) {
	out, err := Filter(ageTable(), FilterActive)
	require.NoError(t, err)

	require.Equal(t, 1, out.Len())
	assert.Equal(t, "A", out.Rows[0][0].Str)
	assert.Equal(t, -1, out.ColumnIndex(ColExitDate), "exit date dropped")
	assert.Equal(t, []string{ColEEID, ColAge}, out.Columns)
}

func TestFilterExited(t *testing.T) {
	out, err := Filter(ageTable(), FilterExited)
	require.NoError(t, err)

	require.Equal(t, 1, out.Len())
	assert.Equal(t, "C", out.Rows[0][0].Str)
	assert.NotEqual(t, -1, out.ColumnIndex(ColExitDate))
}

func TestFilterBoundaryAge(t *testing.T) {
	tbl := NewTable(ColAge, ColExitDate)
	tbl.AddRow(NumberValue(59.9), MissingValue())
	tbl.AddRow(NumberValue(60), MissingValue())
	tbl.AddRow(StringValue("45"), MissingValue())

	out, err := Filter(tbl, FilterActive)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Len())
}

func TestFilterErrors(t *testing.T) {
	_, err := Filter(NewTable(ColAge), FilterActive)
	assert.Error(t, err)

	_, err = Filter(ageTable(), FilterMode("retired"))
	assert.Error(t, err)

	_, err = ParseFilterMode("retired")
	assert.Error(t, err)

	mode, err := ParseFilterMode("exited")
	require.NoError(t, err)
	assert.Equal(t, FilterExited, mode)
}
