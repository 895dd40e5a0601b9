package beam

import "sort"

type Material string

const (
	ReinforcedConcrete Material = "reinforced_concrete"
	Steel              Material = "steel"
	Timber             Material = "timber"
)

// Properties are the fixed constants of a material.
type Properties struct {
	ElasticModulusPa  float64 `json:"elastic_modulus_pa"`
	AllowableStressPa float64 `json:"allowable_stress_pa"`
	DensityKgM3       float64 `json:"density_kg_m3"`
}

var materials = map[Material]Properties{
	ReinforcedConcrete: {ElasticModulusPa: 30e9, AllowableStressPa: 25e6, DensityKgM3: 2400},
	Steel:              {ElasticModulusPa: 200e9, AllowableStressPa: 250e6, DensityKgM3: 7850},
	Timber:             {ElasticModulusPa: 12e9, AllowableStressPa: 40e6, DensityKgM3: 600},
}

// Properties returns the constants of m. ok is false for an unknown material.
func (m Material) Properties() (p Properties, ok bool) {
	p, ok = materials[m]
	return p, ok
}

func (m Material) Valid() bool {
	_, ok := materials[m]
	return ok
}

// Materials lists the known materials in a stable order.
func Materials() []Material {
	out := make([]Material, 0, len(materials))
	for m := range materials {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
