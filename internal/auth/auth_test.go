package auth

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Girder/internal/repo"
	"Girder/internal/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newEnv(t *testing.T) *Authenv {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	return &Authenv{
		JWTkey: []byte("0123456789abcdef"),
		Users:  map[string]string{"eng": string(hash)},
		Sessions: session.NewManager(func(context.Context, string) (repo.Repository, error) {
			return repo.NewMemoryRepository(), nil
		}, time.Hour),
		TTL: time.Hour,
	}
}

func login(t *testing.T, env *Authenv, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	env.AuthHandler(w, httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString(body)))
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

var protected = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "no session", http.StatusInternalServerError)
		return
	}
	w.Write([]byte(s.Login))
})

func TestLoginAndAccess(t *testing.T) {
	env := newEnv(t)
	w := login(t, env, `{"login":" eng ","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, w.Code)
	c := sessionCookie(t, w)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, 1, env.Sessions.Len())

	req := httptest.NewRequest(http.MethodGet, "/api/user/projects", nil)
	req.AddCookie(c)
	rec := httptest.NewRecorder()
	env.AuthMiddleware(protected).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "eng", rec.Body.String())
}

func TestLoginRefused(t *testing.T) {
	env := newEnv(t)
	assert.Equal(t, http.StatusUnauthorized, login(t, env, `{"login":"eng","password":"wrong"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, login(t, env, `{"login":"nobody","password":"s3cret"}`).Code)
	assert.Equal(t, http.StatusBadRequest, login(t, env, `{"login":"eng"}`).Code)
	assert.Equal(t, http.StatusBadRequest, login(t, env, `{`).Code)
	assert.Zero(t, env.Sessions.Len())
}

func TestMiddlewareRejects(t *testing.T) {
	env := newEnv(t)
	sign := func(method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	exp := time.Now().Add(time.Hour).Unix()
	tokens := map[string]string{
		"garbage":         "not-a-token",
		"wrong key":       sign(jwt.SigningMethodHS256, []byte("another-key-0000"), jwt.MapClaims{"sid": "x", "login": "eng", "exp": exp}),
		"none alg":        sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"sid": "x", "login": "eng", "exp": exp}),
		"expired":         sign(jwt.SigningMethodHS256, env.JWTkey, jwt.MapClaims{"sid": "x", "login": "eng", "exp": time.Now().Add(-time.Hour).Unix()}),
		"unknown session": sign(jwt.SigningMethodHS256, env.JWTkey, jwt.MapClaims{"sid": "x", "login": "eng", "exp": exp}),
		"missing claims":  sign(jwt.SigningMethodHS256, env.JWTkey, jwt.MapClaims{"exp": exp}),
	}
	for name, tok := range tokens {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/user/stats", nil)
			req.AddCookie(&http.Cookie{Name: CookieName, Value: tok})
			rec := httptest.NewRecorder()
			env.AuthMiddleware(protected).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}

	rec := httptest.NewRecorder()
	env.AuthMiddleware(protected).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard/", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/", rec.Header().Get("Location"))
}

func TestLogout(t *testing.T) {
	env := newEnv(t)
	c := sessionCookie(t, login(t, env, `{"login":"eng","password":"s3cret"}`))

	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.AddCookie(c)
	w := httptest.NewRecorder()
	env.LogoutHandler(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, -1, sessionCookie(t, w).MaxAge)
	assert.Zero(t, env.Sessions.Len())

	req = httptest.NewRequest(http.MethodGet, "/api/user/stats", nil)
	req.AddCookie(c)
	rec := httptest.NewRecorder()
	env.AuthMiddleware(protected).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRedirectIfLoggedIn(t *testing.T) {
	env := newEnv(t)
	page := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("login page")) })

	rec := httptest.NewRecorder()
	env.RedirectIfLoggedIn(page).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/", nil))
	assert.Equal(t, "login page", rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/auth/", nil)
	req.AddCookie(sessionCookie(t, login(t, env, `{"login":"eng","password":"s3cret"}`)))
	rec = httptest.NewRecorder()
	env.RedirectIfLoggedIn(page).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := NewIPRateLimiter(0.001, 2).LimitMiddleware(ok)

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/materials", nil)
		req.RemoteAddr = "10.0.0.1:" + []string{"1000", "1001", "1002"}[i]
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/api/materials", nil)
	req.RemoteAddr = "10.0.0.2:1000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiterSweep(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.getLimiter("10.0.0.1")
	now = now.Add(5 * time.Minute)
	l.getLimiter("10.0.0.2")
	require.Equal(t, 2, l.Len())

	now = now.Add(6 * time.Minute)
	assert.Equal(t, 1, l.Sweep(10*time.Minute))
	assert.Equal(t, 1, l.Len())
	_, kept := l.ips["10.0.0.2"]
	assert.True(t, kept)

	now = now.Add(10 * time.Minute)
	assert.Equal(t, 1, l.Sweep(10*time.Minute))
	assert.Equal(t, 0, l.Len())
}

func TestRateLimiterRunStops(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx, time.Millisecond, time.Hour)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("pw")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("pw")))
}
