package importer

import (
	"encoding/json"
	"net/http"
	"sort"

	"Girder/internal/calc/beam"

	"github.com/ansel1/merry"
	"github.com/powerman/structlog"
)

var log = structlog.New(structlog.KeyUnit, "importer")

const MaxUploadSize = 10 << 20 // 10MB

type Handler struct {
	Recorder beam.Recorder
	MaxBytes int64 // MaxUploadSize when zero
}

type BeamImportResult struct {
	Sheet   string        `json:"sheet"`
	Count   int           `json:"count"`
	Reports []beam.Report `json:"reports"`
	Skipped []RowError    `json:"skipped"`
}

func (h *Handler) Beam(w http.ResponseWriter, r *http.Request) {
	limit := h.MaxBytes
	if limit <= 0 {
		limit = MaxUploadSize
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "File required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	sheet, err := ReadSheet(file)
	if err != nil {
		http.Error(w, err.Error(), merry.HTTPCode(err))
		return
	}

	out := BeamImportResult{Sheet: sheet.Name, Reports: []beam.Report{}, Skipped: sheet.Skipped}
	for i, cfg := range sheet.Configs {
		rep, err := beam.Analyze(cfg)
		if err != nil {
			out.Skipped = append(out.Skipped, RowError{Row: sheet.Rows[i], Reason: err.Error()})
			continue
		}
		if h.Recorder != nil {
			if _, err := h.Recorder.RecordBeam(r.Context(), rep); err != nil {
				log.PrintErr(err, "row", sheet.Rows[i])
			}
		}
		out.Reports = append(out.Reports, rep)
	}
	sort.Slice(out.Skipped, func(i, j int) bool { return out.Skipped[i].Row < out.Skipped[j].Row })
	out.Count = len(out.Reports)
	log.Debug("beam sheet imported", "sheet", sheet.Name, "count", out.Count, "skipped", len(out.Skipped))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
