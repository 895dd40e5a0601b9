package sheet

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/ansel1/merry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestAnalyze(t *testing.T) {
	rows := [][]interface{}{
		{"item", "quantity", "unit_cost", "note"},
		{"concrete", 12, 250.5, "C30"},
		{"steel", 3, 4000, ""},
		{},
		{"timber", "", 800, "pine"},
	}
	s, err := Analyze(workbook(t, rows), "boq.xlsx")
	require.NoError(t, err)

	assert.Equal(t, "XLSX", s.Extension)
	assert.Equal(t, "Sheet1", s.Sheet)
	assert.Equal(t, 3, s.Rows)
	assert.Equal(t, []string{"item", "quantity", "unit_cost", "note"}, s.Columns)
	require.Len(t, s.Preview, 3)
	assert.Equal(t, "timber", s.Preview[2][0])
	assert.Greater(t, s.SizeKB, 0.0)

	require.Len(t, s.Numeric, 2)
	q := s.Numeric[0]
	assert.Equal(t, "quantity", q.Column)
	assert.Equal(t, 2, q.Count)
	assert.Equal(t, 15.0, q.Sum)
	assert.Equal(t, 7.5, q.Mean)
	assert.Equal(t, 3.0, q.Min)
	assert.Equal(t, 12.0, q.Max)

	c := s.Numeric[1]
	assert.Equal(t, "unit_cost", c.Column)
	assert.InDelta(t, 5050.5, c.Sum, 1e-9)
	assert.InDelta(t, 5050.5/3, c.Mean, 1e-9)

	assert.True(t, bytes.HasPrefix(s.Scatter, []byte("\x89PNG")))
	assert.Equal(t, Record{Filename: "boq.xlsx", Rows: 3, Columns: 4, NumericColumns: 2}, s.Record())
}

func TestAnalyzePreviewLimit(t *testing.T) {
	rows := [][]interface{}{{"n"}}
	for i := 0; i < 25; i++ {
		rows = append(rows, []interface{}{i})
	}
	s, err := Analyze(workbook(t, rows), "n.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 25, s.Rows)
	assert.Len(t, s.Preview, PreviewRows)
	require.Len(t, s.Numeric, 1)
	assert.Equal(t, 300.0, s.Numeric[0].Sum)
	assert.Nil(t, s.Scatter)
}

func TestAnalyzeHeaderOnly(t *testing.T) {
	s, err := Analyze(workbook(t, [][]interface{}{{"a"}}), "h.xlsx")
	require.NoError(t, err)
	assert.Zero(t, s.Rows)
	assert.Empty(t, s.Preview)
	assert.Empty(t, s.Numeric)
	assert.Equal(t, []string{"a"}, s.Columns)
}

func TestAnalyzeNonFiniteText(t *testing.T) {
	rows := [][]interface{}{
		{"x", "y", "z"},
		{1, 2, "Inf"},
		{"NaN", 3, "infinity"},
	}
	s, err := Analyze(workbook(t, rows), "levels.xlsx")
	require.NoError(t, err)
	require.Len(t, s.Numeric, 1)
	assert.Equal(t, "y", s.Numeric[0].Column)
	assert.Equal(t, 5.0, s.Numeric[0].Sum)
	assert.Empty(t, s.Scatter)
}

func TestAnalyzeErrors(t *testing.T) {
	_, err := Analyze(bytes.NewBufferString("plain text"), "x.xls")
	assert.True(t, merry.Is(err, ErrUnreadable))
	assert.Equal(t, 400, merry.HTTPCode(err))

	_, err = Analyze(workbook(t, nil), "empty.xlsx")
	assert.True(t, merry.Is(err, ErrEmpty), fmt.Sprint(err))
}
