package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"Girder/internal/calc/beam"
	"Girder/internal/config"
	"Girder/internal/repo"
	"Girder/internal/session"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := &config.Config{
		TokenKey:       []byte("0123456789abcdef"),
		Users:          map[string]string{"eng": string(hash)},
		StaticDir:      t.TempDir(),
		SessionTTL:     time.Hour,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		MaxUploadBytes: 1 << 20,
	}
	opener, closeStore, err := openStore(cfg)
	require.NoError(t, err)
	sessions := session.NewManager(opener, cfg.SessionTTL)
	t.Cleanup(func() {
		sessions.Close()
		closeStore()
	})

	r := mux.NewRouter()
	HandleList(r, cfg, sessions)
	srv := httptest.NewServer(CORS(r))
	t.Cleanup(srv.Close)
	return srv
}

func client(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
}

func postJSON(t *testing.T, c *http.Client, url string, v interface{}) *http.Response {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	resp, err := c.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestDashboardFlow(t *testing.T) {
	srv := testServer(t)
	c := client(t)

	resp, err := c.Get(srv.URL + "/api/user/projects")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, c, srv.URL+"/api/login", map[string]string{"login": "eng", "password": "s3cret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = c.Get(srv.URL + "/api/user/projects")
	require.NoError(t, err)
	var projects []repo.Project
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&projects))
	resp.Body.Close()
	assert.Len(t, projects, len(repo.DemoProjects))

	resp = postJSON(t, c, srv.URL+"/api/user/tools/beam/calc", beam.Config{
		Support: beam.SimplySupported, Material: beam.ReinforcedConcrete,
		SpanM: 6, WidthM: 0.3, HeightM: 0.5, PointLoadKN: 10, LoadPositionM: 3, UDLKNM: 5, TargetSafetyFactor: 2.5,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var calc beam.CalcResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&calc))
	assert.Equal(t, beam.Safe, calc.Status)
	assert.NotEmpty(t, calc.AnalysisID)

	resp, err = c.Get(srv.URL + "/api/user/stats")
	require.NoError(t, err)
	var st repo.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	resp.Body.Close()
	assert.Equal(t, 1, st.TotalAnalyses)

	resp = postJSON(t, c, srv.URL+"/api/logout", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, err = c.Get(srv.URL + "/api/user/stats")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPublicRoutes(t *testing.T) {
	srv := testServer(t)
	c := client(t)

	resp, err := c.Get(srv.URL + "/api/materials")
	require.NoError(t, err)
	var cat beam.CatalogResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cat))
	resp.Body.Close()
	assert.Len(t, cat.Materials, 3)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/user/projects", nil)
	require.NoError(t, err)
	resp, err = c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, err = c.Get(srv.URL + "/dashboard/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}
