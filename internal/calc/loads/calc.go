package loads

import (
	"math"
	"net/http"

	"github.com/ansel1/merry"
)

// Method is a load combination rule for one dead and one live load case.
type Method string

const (
	MethodSBC  Method = "SBC301"
	MethodASCE Method = "ASCE7"
	MethodEC0  Method = "EC0"
)

var ErrInvalidLoads = merry.New("invalid load cases").WithHTTPCode(http.StatusBadRequest)

// Input holds characteristic (unfactored) loads of a beam.
type Input struct {
	Method      Method  `json:"method"`
	DeadUDLKNM  float64 `json:"dead_udl_kn_m"`
	LiveUDLKNM  float64 `json:"live_udl_kn_m"`
	DeadPointKN float64 `json:"dead_point_kn"`
	LivePointKN float64 `json:"live_point_kn"`
}

type Combo struct {
	Name  string  `json:"name"`
	Dead  float64 `json:"dead"`
	Live  float64 `json:"live"`
	UDL   float64 `json:"udl_kn_m"`
	Point float64 `json:"point_load_kn"`
}

// Result carries the governing design loads, ready for a beam calculation.
type Result struct {
	Method      Method  `json:"method"`
	UDLKNM      float64 `json:"udl_kn_m"`
	PointLoadKN float64 `json:"point_load_kn"`
	Governing   string  `json:"governing"`
	Combos      []Combo `json:"combos"`
}

func Calculate(in Input) (Result, error) {
	for name, v := range map[string]float64{
		"dead_udl_kn_m": in.DeadUDLKNM, "live_udl_kn_m": in.LiveUDLKNM,
		"dead_point_kn": in.DeadPointKN, "live_point_kn": in.LivePointKN,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return Result{}, merry.Here(ErrInvalidLoads).Appendf("%s must be a finite number >= 0", name)
		}
	}
	if in.Method == "" {
		in.Method = MethodSBC
	}
	combos, ok := factors[in.Method]
	if !ok {
		return Result{}, merry.Here(ErrInvalidLoads).Appendf("unknown method %q", in.Method)
	}

	res := Result{Method: in.Method}
	best := -1.0
	for _, c := range combos {
		c.UDL = c.Dead*in.DeadUDLKNM + c.Live*in.LiveUDLKNM
		c.Point = c.Dead*in.DeadPointKN + c.Live*in.LivePointKN
		res.Combos = append(res.Combos, c)
		// largest total load governs
		if total := c.UDL + c.Point; total > best {
			best = total
			res.UDLKNM, res.PointLoadKN, res.Governing = c.UDL, c.Point, c.Name
		}
	}
	return res, nil
}

var factors = map[Method][]Combo{
	MethodSBC: {
		{Name: "1.4D", Dead: 1.4},
		{Name: "1.2D + 1.6L", Dead: 1.2, Live: 1.6},
	},
	MethodASCE: {
		{Name: "1.4D", Dead: 1.4},
		{Name: "1.2D + 1.6L", Dead: 1.2, Live: 1.6},
	},
	MethodEC0: {
		{Name: "1.35G + 1.5Q", Dead: 1.35, Live: 1.5},
	},
}
