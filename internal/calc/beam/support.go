package beam

import "sort"

type Support string

const (
	SimplySupported Support = "simply_supported"
	Cantilever      Support = "cantilever"
	Continuous      Support = "continuous"
)

// loading is the load case of one configuration in SI units.
type loading struct {
	L  float64 // span, m
	W  float64 // total distributed load w*L, N
	P  float64 // point load, N
	A  float64 // point load position from the left support (fixed end for a cantilever), m
	EI float64 // flexural rigidity, N*m^2
}

// formulas is the closed-form solution of one support condition.
// shape maps the relative position x/L to the fraction of the maximum deflection.
type formulas struct {
	moment     func(ld loading) float64
	deflection func(ld loading) float64
	shape      func(xi float64) float64
}

func parabola(xi float64) float64 { return 4 * xi * (1 - xi) }

var supports = map[Support]formulas{
	SimplySupported: {
		moment: func(ld loading) float64 {
			return ld.W*ld.L/8 + ld.P*ld.A*(ld.L-ld.A)/ld.L
		},
		deflection: func(ld loading) float64 {
			L, a, b := ld.L, ld.A, ld.L-ld.A
			return 5*ld.W*pow4(L)/(384*ld.EI) +
				ld.P*a*b*(L*L-a*a-b*b)/(6*ld.EI*L)
		},
		shape: parabola,
	},
	Cantilever: {
		moment: func(ld loading) float64 {
			return ld.W*ld.L*ld.L/2 + ld.P*ld.A
		},
		deflection: func(ld loading) float64 {
			return ld.W*pow4(ld.L)/(8*ld.EI) + ld.P*ld.A*ld.A*ld.A/(3*ld.EI)
		},
		shape: func(xi float64) float64 { return xi * xi },
	},
	// Continuous is a coefficient-reduced approximation of an interior span
	// (wL²/12, PL/8, with the simply supported shape scaled by 0.6).
	// It is not a statically indeterminate solution and ignores the point load position.
	Continuous: {
		moment: func(ld loading) float64 {
			return ld.W*ld.L*ld.L/12 + ld.P*ld.L/8
		},
		deflection: func(ld loading) float64 {
			return ld.W*pow4(ld.L)/(384*ld.EI) + ld.P*ld.L*ld.L*ld.L/(192*ld.EI)
		},
		shape: func(xi float64) float64 { return parabola(xi) * 0.6 },
	},
}

func (s Support) Valid() bool {
	_, ok := supports[s]
	return ok
}

// Supports lists the known support conditions in a stable order.
func Supports() []Support {
	out := make([]Support, 0, len(supports))
	for s := range supports {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func pow4(x float64) float64 {
	x2 := x * x
	return x2 * x2
}
