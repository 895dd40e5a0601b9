package beam

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/ansel1/merry"
)

// SafetyFactor is allowable stress over maximum stress. A beam without
// stress has the Infinite factor.
type SafetyFactor float64

var Infinite = SafetyFactor(math.Inf(1))

func (sf SafetyFactor) IsInfinite() bool {
	return math.IsInf(float64(sf), 1)
}

func (sf SafetyFactor) String() string {
	if sf.IsInfinite() {
		return "inf"
	}
	return strconv.FormatFloat(float64(sf), 'f', 2, 64)
}

// MarshalJSON writes the Infinite factor as the string "inf", which JSON numbers cannot hold.
func (sf SafetyFactor) MarshalJSON() ([]byte, error) {
	if sf.IsInfinite() {
		return []byte(`"inf"`), nil
	}
	return json.Marshal(float64(sf))
}

func (sf *SafetyFactor) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if s != "inf" {
			return merry.Errorf("safety factor: unexpected string %q", s)
		}
		*sf = Infinite
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*sf = SafetyFactor(v)
	return nil
}

type Status string

const (
	Safe     Status = "safe"
	Marginal Status = "marginal"
	Unsafe   Status = "unsafe"
)

// Classify grades an actual safety factor against the target one.
// An Infinite factor is always Safe.
func Classify(actual SafetyFactor, target float64) Status {
	switch {
	case actual.IsInfinite():
		return Safe
	case float64(actual) >= target:
		return Safe
	case actual >= 1.0:
		return Marginal
	default:
		return Unsafe
	}
}
