package autodesign

import (
	"math"
	"net/http"

	"Girder/internal/calc/beam"

	"github.com/ansel1/merry"
)

// StepM is the increment section heights are rounded up to.
const StepM = 0.01

// MaxHeightM is the deepest section Beam proposes.
const MaxHeightM = 10.0

// maxSteps bounds the StepM increments after the closed-form estimate.
const maxSteps = 100

var (
	ErrNoLoad    = merry.New("beam carries no load, nothing to size").WithHTTPCode(http.StatusBadRequest)
	ErrNoSection = merry.New("no section height reaches the target safety factor").WithHTTPCode(http.StatusBadRequest)
)

type BeamAutoResult struct {
	RequiredHeightM float64     `json:"required_height_m"`
	Report          beam.Report `json:"report"`
	Notes           string      `json:"notes"`
}

// Beam picks the smallest height, in StepM increments, whose safety factor
// reaches the target. The height of in is ignored.
func Beam(in beam.Config) (BeamAutoResult, error) {
	// any positive height passes validation; the moment does not depend on it
	probe := in
	probe.HeightM = 1
	res, err := beam.Calculate(probe)
	if err != nil {
		return BeamAutoResult{}, err
	}
	if res.MaxMomentNM == 0 {
		return BeamAutoResult{}, merry.Here(ErrNoLoad)
	}
	mat, _ := in.Material.Properties()

	// σ = 6M/(b·h²) = allowable/target
	h := math.Sqrt(6 * res.MaxMomentNM * in.TargetSafetyFactor / (in.WidthM * mat.AllowableStressPa))
	h = math.Ceil(h/StepM-1e-9) * StepM
	if math.IsNaN(h) || h > MaxHeightM {
		return BeamAutoResult{}, merry.Here(ErrNoSection).Appendf("needs more than %v m", MaxHeightM)
	}

	sized := in
	sized.HeightM = h
	rep, err := beam.Analyze(sized)
	for i := 0; err == nil && float64(rep.Result.SafetyFactor) < in.TargetSafetyFactor; i++ {
		if i == maxSteps || sized.HeightM+StepM > MaxHeightM {
			return BeamAutoResult{}, merry.Here(ErrNoSection).Appendf("stopped at %v m", sized.HeightM)
		}
		sized.HeightM += StepM
		rep, err = beam.Analyze(sized)
	}
	if err != nil {
		return BeamAutoResult{}, err
	}
	return BeamAutoResult{
		RequiredHeightM: sized.HeightM,
		Report:          rep,
		Notes:           "Auto-sized section height (stress governs, 10 mm steps).",
	}, nil
}
