package importer

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"Girder/internal/calc/beam"

	"github.com/ansel1/merry"
	"github.com/xuri/excelize/v2"
)

// Columns is the expected header of a beam sheet. Columns after height_m may be left blank.
var Columns = []string{
	"support", "material", "span_m", "width_m", "height_m",
	"point_load_kn", "load_position_m", "udl_kn_m", "target_safety_factor",
}

// DefaultTargetSafetyFactor applies to rows without a target.
const DefaultTargetSafetyFactor = 2.5

var ErrEmptySheet = merry.New("empty sheet").WithHTTPCode(http.StatusBadRequest)

type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Sheet holds the parsed configurations and the sheet row each came from.
type Sheet struct {
	Name    string
	Configs []beam.Config
	Rows    []int
	Skipped []RowError
}

// ReadSheet reads beam configurations from the first sheet of an xlsx
// workbook. Row numbers are 1-based as shown by spreadsheet programs.
func ReadSheet(r io.Reader) (Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Sheet{}, merry.Prepend(err, "open workbook").WithHTTPCode(http.StatusBadRequest)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	rows, err := f.GetRows(name)
	if err != nil {
		return Sheet{}, merry.Prepend(err, "read rows").WithHTTPCode(http.StatusBadRequest)
	}
	if len(rows) < 2 {
		return Sheet{}, merry.Here(ErrEmptySheet)
	}

	out := Sheet{Name: name}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}
		cfg, err := parseBeamRow(row)
		if err != nil {
			out.Skipped = append(out.Skipped, RowError{Row: i + 1, Reason: err.Error()})
			continue
		}
		out.Configs = append(out.Configs, cfg)
		out.Rows = append(out.Rows, i+1)
	}
	return out, nil
}

func parseBeamRow(row []string) (beam.Config, error) {
	if len(row) < 5 {
		return beam.Config{}, merry.Errorf("expected at least %d columns, got %d", 5, len(row))
	}
	cfg := beam.Config{
		Support:            beam.Support(normalize(row[0])),
		Material:           beam.Material(normalize(row[1])),
		TargetSafetyFactor: DefaultTargetSafetyFactor,
	}
	fields := []*float64{
		&cfg.SpanM, &cfg.WidthM, &cfg.HeightM,
		&cfg.PointLoadKN, &cfg.LoadPositionM, &cfg.UDLKNM, &cfg.TargetSafetyFactor,
	}
	positionSet := false
	for j, dst := range fields {
		col := j + 2
		if col >= len(row) || strings.TrimSpace(row[col]) == "" {
			continue
		}
		v, err := toFloat(row[col])
		if err != nil {
			return beam.Config{}, merry.Prependf(err, "column %s", Columns[col])
		}
		*dst = v
		if Columns[col] == "load_position_m" {
			positionSet = true
		}
	}
	if !positionSet {
		cfg.LoadPositionM = cfg.SpanM / 2
	}
	return cfg, nil
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func toFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, merry.Errorf("not a number: %q", s)
	}
	return v, nil
}
