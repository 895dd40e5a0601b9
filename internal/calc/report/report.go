package report

import (
	"bytes"
	"fmt"
	"time"

	"Girder/internal/calc/beam"
	"Girder/internal/chart"

	"github.com/ansel1/merry"
	"github.com/phpdave11/gofpdf"
)

type Input struct {
	Project string      `json:"project"`
	Author  string      `json:"author"`
	Title   string      `json:"title"`
	Notes   string      `json:"notes"`
	Beam    beam.Config `json:"beam"`
}

type row struct {
	label, value string
}

// PDF renders the beam report: inputs, section, results, classification
// and the deflection chart.
func PDF(in Input, rep beam.Report, date time.Time) ([]byte, error) {
	if in.Title == "" {
		in.Title = "Beam Analysis Report"
	}
	png, err := chart.Deflection(rep.Result.Curve, "Deflected shape")
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(in.Title))
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Project: %s", in.Project)))
	pdf.Ln(6)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Author: %s", in.Author)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", date.Format("2006-01-02")))
	pdf.Ln(10)

	c, r := rep.Input, rep.Result
	table(pdf, tr, "Input", []row{
		{"Support", string(c.Support)},
		{"Material", string(c.Material)},
		{"Span", fmt.Sprintf("%.3f m", c.SpanM)},
		{"Section b × h", fmt.Sprintf("%.3f × %.3f m", c.WidthM, c.HeightM)},
		{"Point load", fmt.Sprintf("%.2f kN at %.3f m", c.PointLoadKN, c.LoadPositionM)},
		{"Distributed load", fmt.Sprintf("%.2f kN/m", c.UDLKNM)},
		{"Target safety factor", fmt.Sprintf("%.2f", c.TargetSafetyFactor)},
	})
	table(pdf, tr, "Section", []row{
		{"Area", fmt.Sprintf("%.4f m²", r.Section.AreaM2)},
		{"Moment of inertia", fmt.Sprintf("%.6e m^4", r.Section.InertiaM4)},
	})
	table(pdf, tr, "Results", []row{
		{"Maximum moment", fmt.Sprintf("%.2f kN·m", r.MaxMomentNM/1000)},
		{"Maximum deflection", fmt.Sprintf("%.2f mm", r.MaxDeflectionMM())},
		{"Maximum stress", fmt.Sprintf("%.2f MPa", r.MaxStressPa/1e6)},
		{"Safety factor", r.SafetyFactor.String()},
		{"Status", string(rep.Status)},
	})

	pdf.RegisterImageOptionsReader("deflection", gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	pdf.ImageOptions("deflection", 15, pdf.GetY()+4, 180, 0, true, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	if in.Notes != "" {
		pdf.Ln(4)
		pdf.MultiCell(0, 6, tr(in.Notes), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, merry.Prepend(err, "render pdf")
	}
	return buf.Bytes(), nil
}

func table(pdf *gofpdf.Fpdf, tr func(string) string, title string, rows []row) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	for _, r := range rows {
		pdf.CellFormat(70, 6, tr(r.label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(100, 6, tr(r.value), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}
