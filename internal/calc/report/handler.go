package report

import (
	"encoding/json"
	"net/http"
	"time"

	"Girder/internal/calc/beam"
	"Girder/internal/chart"

	"github.com/ansel1/merry"
	"github.com/powerman/structlog"
)

var log = structlog.New(structlog.KeyUnit, "report")

type Handler struct{}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	rep, err := beam.Analyze(input.Beam)
	if err != nil {
		http.Error(w, err.Error(), merry.HTTPCode(err))
		return
	}
	b, err := PDF(input, rep, time.Now())
	if err != nil {
		log.PrintErr(err, "project", input.Project)
		http.Error(w, "Report generation error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\"report.pdf\"")
	w.Write(b)
}

// Chart renders the deflection curve of the posted beam configuration.
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	var input beam.Config
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	rep, err := beam.Analyze(input)
	if err != nil {
		http.Error(w, err.Error(), merry.HTTPCode(err))
		return
	}
	png, err := chart.Deflection(rep.Result.Curve, string(input.Support)+" beam, "+string(input.Material))
	if err != nil {
		log.PrintErr(err)
		http.Error(w, "Chart generation error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
