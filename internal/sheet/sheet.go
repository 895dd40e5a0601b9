// Package sheet summarizes uploaded spreadsheets: shape, preview and
// statistics of the numeric columns.
package sheet

import (
	"bytes"
	"io"
	"math"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"Girder/internal/chart"

	"github.com/ansel1/merry"
	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const PreviewRows = 10

var (
	ErrUnreadable = merry.New("not a readable xlsx workbook").WithHTTPCode(http.StatusBadRequest)
	ErrEmpty      = merry.New("workbook has no header row").WithHTTPCode(http.StatusBadRequest)
)

type ColumnStats struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

type Summary struct {
	Filename  string        `json:"filename"`
	Extension string        `json:"extension"`
	SizeKB    float64       `json:"size_kb"`
	Sheet     string        `json:"sheet"`
	Rows      int           `json:"rows"`
	Columns   []string      `json:"columns"`
	Preview   [][]string    `json:"preview"`
	Numeric   []ColumnStats `json:"numeric"`
	// Scatter is a PNG of the first two numeric columns, if there are two.
	Scatter []byte `json:"scatter_png,omitempty"`
}

// Record is the part of a Summary kept in the analysis history.
type Record struct {
	Filename       string `json:"filename"`
	Rows           int    `json:"rows"`
	Columns        int    `json:"columns"`
	NumericColumns int    `json:"numeric_columns"`
}

func (s Summary) Record() Record {
	return Record{Filename: s.Filename, Rows: s.Rows, Columns: len(s.Columns), NumericColumns: len(s.Numeric)}
}

// Analyze summarizes the first sheet of an xlsx workbook. The first row is
// the header; blank rows are ignored.
func Analyze(r io.Reader, filename string) (Summary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Summary{}, merry.Prepend(err, "read upload")
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Summary{}, merry.Here(ErrUnreadable).Append(err.Error())
	}
	defer f.Close()

	name := f.GetSheetName(0)
	rows, err := f.GetRows(name)
	if err != nil {
		return Summary{}, merry.Here(ErrUnreadable).Append(err.Error())
	}
	if len(rows) == 0 || blank(rows[0]) {
		return Summary{}, merry.Here(ErrEmpty)
	}

	s := Summary{
		Filename:  filename,
		Extension: strings.ToUpper(strings.TrimPrefix(filepath.Ext(filename), ".")),
		SizeKB:    float64(len(data)) / 1024,
		Sheet:     name,
		Columns:   header(rows[0]),
		Preview:   [][]string{},
		Numeric:   []ColumnStats{},
	}
	var body [][]string
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		body = append(body, pad(row, len(s.Columns)))
	}
	s.Rows = len(body)
	if len(body) > PreviewRows {
		s.Preview = body[:PreviewRows]
	} else if body != nil {
		s.Preview = body
	}

	var numeric [][]float64 // per numeric column, aligned with body
	var present [][]bool
	for c, col := range s.Columns {
		vals, ok, seen := column(body, c)
		if !seen {
			continue
		}
		s.Numeric = append(s.Numeric, describe(col, vals, ok))
		numeric = append(numeric, vals)
		present = append(present, ok)
	}
	if len(numeric) >= 2 {
		xs, ys := pairs(numeric[0], numeric[1], present[0], present[1])
		if len(xs) > 0 {
			png, err := chart.Scatter(s.Numeric[0].Column+" vs "+s.Numeric[1].Column,
				s.Numeric[0].Column, s.Numeric[1].Column, xs, ys)
			if err != nil {
				return Summary{}, err
			}
			s.Scatter = png
		}
	}
	return s, nil
}

// column returns the values of column c when every non-blank cell in it is
// a finite number and there is at least one. ok marks rows holding a value.
func column(body [][]string, c int) (vals []float64, ok []bool, numeric bool) {
	vals = make([]float64, len(body))
	ok = make([]bool, len(body))
	for i, row := range body {
		cell := strings.TrimSpace(row[c])
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, nil, false
		}
		vals[i], ok[i] = v, true
		numeric = true
	}
	return vals, ok, numeric
}

func describe(name string, all []float64, ok []bool) ColumnStats {
	var vals []float64
	for i, v := range all {
		if ok[i] {
			vals = append(vals, v)
		}
	}
	return ColumnStats{
		Column: name,
		Count:  len(vals),
		Sum:    floats.Sum(vals),
		Mean:   stat.Mean(vals, nil),
		Min:    floats.Min(vals),
		Max:    floats.Max(vals),
	}
}

func pairs(x, y []float64, okX, okY []bool) (xs, ys []float64) {
	for i := range x {
		if okX[i] && okY[i] {
			xs = append(xs, x[i])
			ys = append(ys, y[i])
		}
	}
	return xs, ys
}

func header(row []string) []string {
	out := make([]string, len(row))
	for i, h := range row {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "column_" + strconv.Itoa(i+1)
		}
		out[i] = h
	}
	return out
}

func pad(row []string, n int) []string {
	if len(row) >= n {
		return row[:n]
	}
	out := make([]string, n)
	copy(out, row)
	return out
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
