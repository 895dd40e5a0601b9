package beam

import (
	"math"
)

// CurveSamples is the number of points of a deflection curve, both supports included.
const CurveSamples = 50

type Config struct {
	Support            Support  `json:"support"`
	Material           Material `json:"material"`
	SpanM              float64  `json:"span_m"`
	WidthM             float64  `json:"width_m"`
	HeightM            float64  `json:"height_m"`
	PointLoadKN        float64  `json:"point_load_kn"`
	LoadPositionM      float64  `json:"load_position_m"`
	UDLKNM             float64  `json:"udl_kn_m"`
	TargetSafetyFactor float64  `json:"target_safety_factor"`
}

// Section holds the properties of the rectangular cross-section.
type Section struct {
	AreaM2    float64 `json:"area_m2"`
	InertiaM4 float64 `json:"inertia_m4"`
}

// Sample is one point of the deflection curve. DeflectionMM is negative downwards.
type Sample struct {
	XM           float64 `json:"x_m"`
	DeflectionMM float64 `json:"deflection_mm"`
}

type Result struct {
	Section        Section      `json:"section"`
	MaxMomentNM    float64      `json:"max_moment_nm"`
	MaxDeflectionM float64      `json:"max_deflection_m"`
	MaxStressPa    float64      `json:"max_stress_pa"`
	SafetyFactor   SafetyFactor `json:"safety_factor"`
	Curve          []Sample     `json:"deflection_curve"`
}

// SectionOf returns the rectangular section properties of b x h.
func SectionOf(widthM, heightM float64) Section {
	return Section{
		AreaM2:    widthM * heightM,
		InertiaM4: widthM * heightM * heightM * heightM / 12.0,
	}
}

// Calculate evaluates the closed-form response of the beam described by in.
// It fails with ErrInvalidConfiguration and no result if in is not valid.
func Calculate(in Config) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	mat, _ := in.Material.Properties()
	f := supports[in.Support]

	sec := SectionOf(in.WidthM, in.HeightM)
	if !finite(sec.InertiaM4) || !(sec.InertiaM4 > 0) {
		return Result{}, invalid("height_m", "section %v x %v m has no usable second moment of area", in.WidthM, in.HeightM)
	}
	ld := loading{
		L:  in.SpanM,
		W:  in.UDLKNM * 1000.0 * in.SpanM,
		P:  in.PointLoadKN * 1000.0,
		A:  in.LoadPositionM,
		EI: mat.ElasticModulusPa * sec.InertiaM4,
	}

	M := f.moment(ld)
	defl := f.deflection(ld)
	if !finite(M) || !finite(defl) {
		return Result{}, invalid("span_m", "response of a %v m span under these loads is out of range", in.SpanM)
	}
	stress := M * (in.HeightM / 2.0) / sec.InertiaM4
	if !finite(stress) {
		return Result{}, invalid("height_m", "bending stress of a %v x %v m section is out of range", in.WidthM, in.HeightM)
	}

	sf := Infinite
	if stress != 0 {
		sf = SafetyFactor(mat.AllowableStressPa / stress)
	}

	return Result{
		Section:        sec,
		MaxMomentNM:    M,
		MaxDeflectionM: defl,
		MaxStressPa:    stress,
		SafetyFactor:   sf,
		Curve:          curve(in.SpanM, defl, f.shape),
	}, nil
}

func curve(L, maxDefl float64, shape func(float64) float64) []Sample {
	out := make([]Sample, CurveSamples)
	for i := range out {
		x := L * float64(i) / float64(CurveSamples-1)
		if i == CurveSamples-1 {
			x = L
		}
		d := maxDefl * shape(x/L)
		mm := 0.0
		if d != 0 {
			mm = -d * 1000.0
		}
		out[i] = Sample{XM: x, DeflectionMM: mm}
	}
	return out
}

// MaxDeflectionMM is the largest downward curve ordinate, in mm.
func (r Result) MaxDeflectionMM() float64 {
	return r.MaxDeflectionM * 1000.0
}

// finite reports whether v is neither NaN nor infinite.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
