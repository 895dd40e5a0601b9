package batch

import (
	"encoding/json"
	"net/http"

	"Girder/internal/calc/beam"

	"github.com/ansel1/merry"
	"github.com/powerman/structlog"
)

var log = structlog.New(structlog.KeyUnit, "batch")

type Handler struct {
	Recorder beam.Recorder
}

func (h *Handler) Beam(w http.ResponseWriter, r *http.Request) {
	var input BeamBatchInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	res, err := CalculateBeam(input)
	if err != nil {
		http.Error(w, err.Error(), merry.HTTPCode(err))
		return
	}
	if h.Recorder != nil {
		for _, rep := range res.Reports {
			if _, err := h.Recorder.RecordBeam(r.Context(), rep); err != nil {
				log.PrintErr(err)
				break
			}
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
