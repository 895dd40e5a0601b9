package beam

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ansel1/merry"
	"github.com/powerman/structlog"
)

var log = structlog.New(structlog.KeyUnit, "beam")

// Recorder keeps a finished calculation, e.g. in the session's record store.
type Recorder interface {
	RecordBeam(ctx context.Context, r Report) (id string, err error)
}

// Report is a calculation together with its classification.
type Report struct {
	Input  Config `json:"input"`
	Result Result `json:"result"`
	Status Status `json:"status"`
}

// Analyze runs Calculate and Classify on in.
func Analyze(in Config) (Report, error) {
	res, err := Calculate(in)
	if err != nil {
		return Report{}, err
	}
	return Report{Input: in, Result: res, Status: Classify(res.SafetyFactor, in.TargetSafetyFactor)}, nil
}

type Handler struct {
	Recorder Recorder
}

type CalcResponse struct {
	Report
	AnalysisID string `json:"analysis_id,omitempty"`
}

func (h *Handler) Calc(w http.ResponseWriter, r *http.Request) {
	var input Config
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	rep, err := Analyze(input)
	if err != nil {
		http.Error(w, err.Error(), merry.HTTPCode(err))
		return
	}
	resp := CalcResponse{Report: rep}
	if h.Recorder != nil {
		id, err := h.Recorder.RecordBeam(r.Context(), rep)
		if err != nil {
			log.PrintErr(err, "support", input.Support)
		}
		resp.AnalysisID = id
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.PrintErr(err)
	}
}

type MaterialInfo struct {
	Name Material `json:"name"`
	Properties
}

type CatalogResponse struct {
	Materials []MaterialInfo `json:"materials"`
	Supports  []Support      `json:"supports"`
}

// Catalog lists materials and support conditions accepted by Calc.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	resp := CatalogResponse{Supports: Supports()}
	for _, m := range Materials() {
		p, _ := m.Properties()
		resp.Materials = append(resp.Materials, MaterialInfo{Name: m, Properties: p})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
