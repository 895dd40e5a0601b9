package autodesign

import (
	"encoding/json"
	"net/http"

	"Girder/internal/calc/beam"

	"github.com/ansel1/merry"
)

type Handler struct{}

func (h *Handler) Beam(w http.ResponseWriter, r *http.Request) {
	var input beam.Config
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	res, err := Beam(input)
	if err != nil {
		http.Error(w, err.Error(), merry.HTTPCode(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
