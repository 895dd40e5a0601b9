package auth

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"Girder/internal/session"

	"github.com/ansel1/merry"
	"github.com/golang-jwt/jwt/v5"
	"github.com/powerman/structlog"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

var log = structlog.New(structlog.KeyUnit, "auth")

const CookieName = "session_token"

var errBadToken = merry.New("invalid session token").WithHTTPCode(http.StatusUnauthorized)

type Authenv struct {
	JWTkey   []byte
	Users    map[string]string // login -> bcrypt hash
	Sessions *session.Manager
	TTL      time.Duration
	Secure   bool
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type IPRateLimiter struct {
	ips map[string]*visitor
	mu  sync.RWMutex
	r   rate.Limit
	b   int
	now func() time.Time
}

type Loginrequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips: make(map[string]*visitor),
		r:   r,
		b:   b,
		now: time.Now,
	}
}

func (i *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	v, exists := i.ips[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(i.r, i.b)}
		i.ips[ip] = v
	}
	v.lastSeen = i.now()
	return v.limiter
}

// Sweep forgets addresses not seen for idle and returns how many.
func (i *IPRateLimiter) Sweep(idle time.Duration) int {
	i.mu.Lock()
	defer i.mu.Unlock()

	n := 0
	cutoff := i.now().Add(-idle)
	for ip, v := range i.ips {
		if v.lastSeen.Before(cutoff) {
			delete(i.ips, ip)
			n++
		}
	}
	return n
}

// Run sweeps idle addresses every interval until ctx is done.
func (i *IPRateLimiter) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := i.Sweep(idle); n > 0 {
				log.Debug("idle client limiters dropped", "count", n)
			}
		}
	}
}

func (i *IPRateLimiter) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.ips)
}

// LimitMiddleware rejects requests of a client address over its rate.
func (i *IPRateLimiter) LimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !i.getLimiter(ip).Allow() {
			http.Error(w, "Too Many Requests. Try again later.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func (env *Authenv) RedirectIfLoggedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := env.session(r); err == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AuthMiddleware admits requests carrying the token of a live session.
// API requests are refused with 401, pages are redirected to the login page.
func (env *Authenv) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := env.session(r)
		if err != nil {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/auth/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), s)))
	})
}

func (env *Authenv) session(r *http.Request) (*session.Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, merry.Here(errBadToken).Append("no cookie")
	}
	sid, login, err := env.parseToken(cookie.Value)
	if err != nil {
		return nil, err
	}
	s, err := env.Sessions.Get(sid)
	if err != nil {
		return nil, err
	}
	if s.Login != login {
		return nil, merry.Here(errBadToken).Append("login does not match session")
	}
	return s, nil
}

func (env *Authenv) parseToken(tokenString string) (sid, login string, err error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return env.JWTkey, nil
	})
	if err != nil || !token.Valid {
		return "", "", merry.Here(errBadToken).Append(errString(err))
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", merry.Here(errBadToken)
	}
	sid, _ = claims["sid"].(string)
	login, _ = claims["login"].(string)
	if sid == "" || login == "" {
		return "", "", merry.Here(errBadToken).Append("missing claims")
	}
	return sid, login, nil
}

func errString(err error) string {
	if err == nil {
		return "token not valid"
	}
	return err.Error()
}

func (env *Authenv) addCookie(w http.ResponseWriter, s *session.Session) error {
	expiration := time.Now().Add(env.TTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid":   s.ID,
		"login": s.Login,
		"exp":   expiration.Unix(),
	})
	tokenString, err := token.SignedString(env.JWTkey)
	if err != nil {
		return merry.Prepend(err, "sign token")
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    tokenString,
		Expires:  expiration,
		Path:     "/",
		HttpOnly: true,
		Secure:   env.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (env *Authenv) AuthHandler(w http.ResponseWriter, r *http.Request) {
	var req Loginrequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	req.Login = strings.TrimSpace(req.Login)
	if req.Login == "" || req.Password == "" {
		http.Error(w, "Login and password required", http.StatusBadRequest)
		return
	}

	storedHash, ok := env.Users[req.Login]
	if !ok || bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(req.Password)) != nil {
		log.Info("login refused", "login", req.Login)
		http.Error(w, "Invalid login or password", http.StatusUnauthorized)
		return
	}

	s, err := env.Sessions.Start(r.Context(), req.Login)
	if err != nil {
		log.PrintErr(err, "login", req.Login)
		http.Error(w, "Could not start session", http.StatusInternalServerError)
		return
	}
	if err := env.addCookie(w, s); err != nil {
		env.Sessions.End(s.ID)
		log.PrintErr(err, "login", req.Login)
		http.Error(w, "Could not start session", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Authentication successful"))
}

// LogoutHandler ends the caller's session, if any, and expires the cookie.
func (env *Authenv) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(CookieName); err == nil {
		if sid, _, err := env.parseToken(cookie.Value); err == nil {
			env.Sessions.End(sid)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   env.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Logged out"))
}
