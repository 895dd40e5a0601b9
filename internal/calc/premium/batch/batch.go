package batch

import (
	"net/http"

	"Girder/internal/calc/beam"

	"github.com/ansel1/merry"
)

var ErrEmpty = merry.New("no items").WithHTTPCode(http.StatusBadRequest)

type BeamBatchInput struct {
	Items []beam.Config `json:"items"`
}

type BeamBatchResult struct {
	Reports []beam.Report `json:"reports"`
}

// CalculateBeam analyzes every item. The first invalid item fails the whole
// batch and is named by its index.
func CalculateBeam(in BeamBatchInput) (BeamBatchResult, error) {
	if len(in.Items) == 0 {
		return BeamBatchResult{}, merry.Here(ErrEmpty)
	}
	out := BeamBatchResult{Reports: make([]beam.Report, 0, len(in.Items))}
	for i, item := range in.Items {
		rep, err := beam.Analyze(item)
		if err != nil {
			return BeamBatchResult{}, merry.Prependf(err, "item %d", i)
		}
		out.Reports = append(out.Reports, rep)
	}
	return out, nil
}
