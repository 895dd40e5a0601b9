package beam

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRecorder struct {
	reports []Report
}

func (m *memRecorder) RecordBeam(_ context.Context, r Report) (string, error) {
	m.reports = append(m.reports, r)
	return "a-1", nil
}

func postJSON(t *testing.T, h http.HandlerFunc, v interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/tools/beam/calc", bytes.NewReader(b))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandlerCalc(t *testing.T) {
	rec := &memRecorder{}
	h := &Handler{Recorder: rec}

	resp := postJSON(t, h.Calc, concreteBeam())
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))

	var out CalcResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, Safe, out.Status)
	assert.Equal(t, "a-1", out.AnalysisID)
	assert.InDelta(t, 37500.0, out.Result.MaxMomentNM, 1e-6)
	assert.Len(t, out.Result.Curve, CurveSamples)

	require.Len(t, rec.reports, 1)
	assert.Equal(t, concreteBeam(), rec.reports[0].Input)
}

func TestHandlerCalcUnloadedBeam(t *testing.T) {
	in := concreteBeam()
	in.PointLoadKN, in.UDLKNM = 0, 0

	resp := postJSON(t, (&Handler{}).Calc, in)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"safety_factor":"inf"`)
	assert.NotContains(t, resp.Body.String(), "analysis_id")
}

func TestHandlerCalcRejectsInvalidInput(t *testing.T) {
	rec := &memRecorder{}
	in := concreteBeam()
	in.LoadPositionM = 7

	resp := postJSON(t, (&Handler{Recorder: rec}).Calc, in)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "load_position_m")
	assert.Empty(t, rec.reports)

	req := httptest.NewRequest(http.MethodPost, "/tools/beam/calc", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	(&Handler{}).Calc(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerCalcDegenerateSection(t *testing.T) {
	in := concreteBeam()
	in.WidthM, in.HeightM, in.PointLoadKN, in.UDLKNM = 1e-110, 1e-110, 0, 0

	resp := postJSON(t, (&Handler{}).Calc, in)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "height_m")
}

func TestHandlerCatalog(t *testing.T) {
	w := httptest.NewRecorder()
	(&Handler{}).Catalog(w, httptest.NewRequest(http.MethodGet, "/api/materials", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var out CatalogResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Materials, 3)
	assert.Equal(t, ReinforcedConcrete, out.Materials[0].Name)
	assert.Equal(t, 30e9, out.Materials[0].ElasticModulusPa)
	assert.Len(t, out.Supports, 3)
}
