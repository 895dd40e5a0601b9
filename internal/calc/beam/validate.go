package beam

import (
	"net/http"

	"github.com/ansel1/merry"
)

// ErrInvalidConfiguration is the only error returned by Calculate.
// Use Field to learn which input was rejected.
var ErrInvalidConfiguration = merry.New("invalid beam configuration").WithHTTPCode(http.StatusBadRequest)

type fieldKey struct{}

func invalid(field, format string, args ...interface{}) error {
	return merry.Here(ErrInvalidConfiguration).
		WithValue(fieldKey{}, field).
		Appendf("%s: "+format, append([]interface{}{field}, args...)...)
}

// Field returns the json name of the input rejected by err, or "" if err is
// not an ErrInvalidConfiguration.
func Field(err error) string {
	s, _ := merry.Value(err, fieldKey{}).(string)
	return s
}

// Validate checks in without correcting anything.
func (in Config) Validate() error {
	if !in.Support.Valid() {
		return invalid("support", "unknown support condition %q", in.Support)
	}
	if !in.Material.Valid() {
		return invalid("material", "unknown material %q", in.Material)
	}
	for _, x := range []struct {
		field string
		v     float64
	}{
		{"span_m", in.SpanM},
		{"width_m", in.WidthM},
		{"height_m", in.HeightM},
		{"target_safety_factor", in.TargetSafetyFactor},
	} {
		if !finite(x.v) || x.v <= 0 {
			return invalid(x.field, "must be a positive number, got %v", x.v)
		}
	}
	if !finite(in.LoadPositionM) || in.LoadPositionM < 0 || in.LoadPositionM > in.SpanM {
		return invalid("load_position_m", "must lie within [0, %v], got %v", in.SpanM, in.LoadPositionM)
	}
	if !finite(in.PointLoadKN) || in.PointLoadKN < 0 {
		return invalid("point_load_kn", "must not be negative, got %v", in.PointLoadKN)
	}
	if !finite(in.UDLKNM) || in.UDLKNM < 0 {
		return invalid("udl_kn_m", "must not be negative, got %v", in.UDLKNM)
	}
	return nil
}
