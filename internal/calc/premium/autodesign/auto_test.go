package autodesign

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"Girder/internal/calc/beam"

	"github.com/ansel1/merry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func steelBeam() beam.Config {
	return beam.Config{
		Support:            beam.SimplySupported,
		Material:           beam.Steel,
		SpanM:              8,
		WidthM:             0.2,
		PointLoadKN:        40,
		LoadPositionM:      4,
		UDLKNM:             12,
		TargetSafetyFactor: 2,
	}
}

func TestBeamReachesTarget(t *testing.T) {
	for _, sup := range beam.Supports() {
		in := steelBeam()
		in.Support = sup

		res, err := Beam(in)
		require.NoError(t, err, sup)
		assert.Equal(t, beam.Safe, res.Report.Status)
		assert.GreaterOrEqual(t, float64(res.Report.Result.SafetyFactor), in.TargetSafetyFactor)

		// one step lower must fall short of the target
		lower := in
		lower.HeightM = res.RequiredHeightM - StepM
		below, err := beam.Calculate(lower)
		require.NoError(t, err)
		assert.Less(t, float64(below.SafetyFactor), in.TargetSafetyFactor, sup)
	}
}

func TestBeamNoLoad(t *testing.T) {
	in := steelBeam()
	in.PointLoadKN, in.UDLKNM = 0, 0
	_, err := Beam(in)
	assert.True(t, merry.Is(err, ErrNoLoad))
}

func TestBeamNoSection(t *testing.T) {
	for _, tc := range []struct{ width, target float64 }{
		{2e-29, 1000},
		{3e-25, 1e6},
		{0.2, 1e9},
	} {
		in := steelBeam()
		in.WidthM, in.TargetSafetyFactor = tc.width, tc.target
		_, err := Beam(in)
		require.Error(t, err, tc)
		assert.True(t, merry.Is(err, ErrNoSection), tc)
		assert.Equal(t, http.StatusBadRequest, merry.HTTPCode(err))
	}
}

func TestBeamInvalid(t *testing.T) {
	in := steelBeam()
	in.WidthM = 0
	_, err := Beam(in)
	assert.True(t, merry.Is(err, beam.ErrInvalidConfiguration))
	assert.Equal(t, "width_m", beam.Field(err))
}

func TestHandler(t *testing.T) {
	b, _ := json.Marshal(steelBeam())
	w := httptest.NewRecorder()
	(&Handler{}).Beam(w, httptest.NewRequest(http.MethodPost, "/tools/beam/auto", bytes.NewReader(b)))
	require.Equal(t, http.StatusOK, w.Code)

	var out BeamAutoResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Greater(t, out.RequiredHeightM, 0.0)

	in := steelBeam()
	in.UDLKNM, in.PointLoadKN = 0, 0
	b, _ = json.Marshal(in)
	w = httptest.NewRecorder()
	(&Handler{}).Beam(w, httptest.NewRequest(http.MethodPost, "/tools/beam/auto", bytes.NewReader(b)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
