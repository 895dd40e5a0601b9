package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"Girder/internal/calc/beam"

	"github.com/ansel1/merry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(sup beam.Support, p float64) beam.Config {
	return beam.Config{
		Support: sup, Material: beam.Timber,
		SpanM: 4, WidthM: 0.1, HeightM: 0.25,
		PointLoadKN: p, LoadPositionM: 2, UDLKNM: 1,
		TargetSafetyFactor: 2,
	}
}

func TestCalculateBeam(t *testing.T) {
	res, err := CalculateBeam(BeamBatchInput{Items: []beam.Config{
		item(beam.SimplySupported, 1),
		item(beam.Cantilever, 1),
	}})
	require.NoError(t, err)
	require.Len(t, res.Reports, 2)
	assert.Equal(t, beam.Cantilever, res.Reports[1].Input.Support)
	assert.Greater(t, res.Reports[1].Result.MaxMomentNM, res.Reports[0].Result.MaxMomentNM)
}

func TestCalculateBeamFailsOnFirstInvalid(t *testing.T) {
	bad := item(beam.SimplySupported, 1)
	bad.SpanM = 0
	_, err := CalculateBeam(BeamBatchInput{Items: []beam.Config{item(beam.Continuous, 1), bad}})
	require.Error(t, err)
	assert.True(t, merry.Is(err, beam.ErrInvalidConfiguration))
	assert.Contains(t, err.Error(), "item 1")
	assert.Equal(t, "span_m", beam.Field(err))

	_, err = CalculateBeam(BeamBatchInput{})
	assert.True(t, merry.Is(err, ErrEmpty))
}

type countRecorder int

func (c *countRecorder) RecordBeam(context.Context, beam.Report) (string, error) {
	*c++
	return "", nil
}

func TestHandler(t *testing.T) {
	var rec countRecorder
	h := &Handler{Recorder: &rec}
	b, _ := json.Marshal(BeamBatchInput{Items: []beam.Config{item(beam.SimplySupported, 2), item(beam.Continuous, 0)}})

	w := httptest.NewRecorder()
	h.Beam(w, httptest.NewRequest(http.MethodPost, "/tools/beam/batch", bytes.NewReader(b)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, countRecorder(2), rec)

	var out BeamBatchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Len(t, out.Reports, 2)

	w = httptest.NewRecorder()
	h.Beam(w, httptest.NewRequest(http.MethodPost, "/tools/beam/batch", bytes.NewBufferString(`{"items":[]}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, countRecorder(2), rec)
}
