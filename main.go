package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"Girder/internal/auth"
	"Girder/internal/calc/beam"
	"Girder/internal/calc/loads"
	"Girder/internal/calc/premium/autodesign"
	"Girder/internal/calc/premium/batch"
	"Girder/internal/calc/premium/importer"
	"Girder/internal/calc/report"
	"Girder/internal/config"
	"Girder/internal/dashboard"
	"Girder/internal/repo"
	"Girder/internal/session"

	"github.com/gorilla/mux"
	"github.com/powerman/structlog"
	"golang.org/x/time/rate"
)

var log = structlog.New()

var wg sync.WaitGroup

// limiterIdle is how long a client address keeps its rate limiter without requests.
const limiterIdle = 10 * time.Minute

func CORS(mux *mux.Router) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})
}

func initLog() {
	structlog.DefaultLogger.
		SetPrefixKeys(
			structlog.KeyApp, structlog.KeyPID, structlog.KeyLevel, structlog.KeyUnit, structlog.KeyTime,
		).
		SetDefaultKeyvals(
			structlog.KeyApp, filepath.Base(os.Args[0]),
			structlog.KeySource, structlog.Auto,
		).
		SetSuffixKeys(
			structlog.KeyStack,
		).
		SetSuffixKeys(structlog.KeySource).
		SetKeysFormat(map[string]string{
			structlog.KeyTime:   " %[2]s",
			structlog.KeySource: " %6[2]s",
			structlog.KeyUnit:   " %6[2]s",
		})
}

// openStore picks the record store backend: Postgres, SQLite or per-session memory.
func openStore(cfg *config.Config) (session.Opener, func() error, error) {
	var store *repo.SQLStore
	var err error
	switch {
	case cfg.DatabaseURL != "":
		store, err = repo.OpenSQL(repo.DriverPostgres, cfg.DatabaseURL)
	case cfg.SQLitePath != "":
		store, err = repo.OpenSQL(repo.DriverSQLite, cfg.SQLitePath)
	default:
		log.Info("records are kept in memory per session")
		return func(ctx context.Context, login string) (repo.Repository, error) {
			r := repo.NewMemoryRepository()
			return r, repo.Seed(ctx, r)
		}, func() error { return nil }, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return func(ctx context.Context, login string) (repo.Repository, error) {
		r := store.For(login)
		return r, repo.Seed(ctx, r)
	}, store.Close, nil
}

// HandleList registers every route and returns the API rate limiter, whose
// idle clients the caller sweeps.
func HandleList(mux *mux.Router, cfg *config.Config, sessions *session.Manager) *auth.IPRateLimiter {
	authEnv := &auth.Authenv{
		JWTkey:   cfg.TokenKey,
		Users:    cfg.Users,
		Sessions: sessions,
		TTL:      cfg.SessionTTL,
		Secure:   cfg.TLS(),
	}
	dashH := &dashboard.Handler{MaxBytes: cfg.MaxUploadBytes}

	limiter := auth.NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	api := mux.PathPrefix("/api").Subrouter()
	api.Use(limiter.LimitMiddleware)

	beamH := &beam.Handler{Recorder: dashH}
	api.HandleFunc("/login", authEnv.AuthHandler).Methods("POST")
	api.HandleFunc("/logout", authEnv.LogoutHandler).Methods("POST")
	api.HandleFunc("/materials", beamH.Catalog).Methods("GET")

	secureApi := api.PathPrefix("/user").Subrouter()
	secureApi.Use(authEnv.AuthMiddleware)

	secureApi.HandleFunc("/me", dashH.Me).Methods("GET")
	secureApi.HandleFunc("/projects", dashH.ListProjects).Methods("GET")
	secureApi.HandleFunc("/projects", dashH.CreateProject).Methods("POST")
	secureApi.HandleFunc("/projects/export.xlsx", dashH.ExportProjects).Methods("GET")
	secureApi.HandleFunc("/projects/{id}", dashH.GetProject).Methods("GET")
	secureApi.HandleFunc("/analyses", dashH.ListAnalyses).Methods("GET")
	secureApi.HandleFunc("/analyses/{id}", dashH.GetAnalysis).Methods("GET")
	secureApi.HandleFunc("/stats", dashH.Stats).Methods("GET")
	secureApi.HandleFunc("/stats/status.png", dashH.StatusChart).Methods("GET")
	secureApi.HandleFunc("/settings", dashH.GetSettings).Methods("GET")
	secureApi.HandleFunc("/settings", dashH.UpdateSettings).Methods("PATCH", "PUT")
	secureApi.HandleFunc("/backup", dashH.Backup).Methods("GET")
	secureApi.HandleFunc("/backup", dashH.Restore).Methods("POST")
	secureApi.HandleFunc("/tools/excel/analyze", dashH.AnalyzeExcel).Methods("POST")

	autoH := &autodesign.Handler{}
	batchH := &batch.Handler{Recorder: dashH}
	importH := &importer.Handler{Recorder: dashH, MaxBytes: cfg.MaxUploadBytes}
	reportH := &report.Handler{}
	loadsH := &loads.Handler{}

	secureApi.HandleFunc("/tools/beam/calc", beamH.Calc).Methods("POST")
	secureApi.HandleFunc("/tools/beam/chart.png", reportH.Chart).Methods("POST")
	secureApi.HandleFunc("/tools/beam/auto", autoH.Beam).Methods("POST")
	secureApi.HandleFunc("/tools/beam/batch", batchH.Beam).Methods("POST")
	secureApi.HandleFunc("/tools/beam/import", importH.Beam).Methods("POST")
	secureApi.HandleFunc("/tools/loads/calc", loadsH.Calc).Methods("POST")
	secureApi.HandleFunc("/tools/report/pdf", reportH.Generate).Methods("POST")

	static := cfg.StaticDir
	authFileServer := http.FileServer(http.Dir(filepath.Join(static, "auth")))
	mux.PathPrefix("/auth/").
		Handler(authEnv.RedirectIfLoggedIn(http.StripPrefix("/auth", authFileServer)))
	dashFileServer := http.FileServer(http.Dir(filepath.Join(static, "dashboard")))
	mux.PathPrefix("/dashboard/").
		Handler(authEnv.AuthMiddleware(http.StripPrefix("/dashboard", dashFileServer)))
	mainFileServer := http.FileServer(http.Dir(filepath.Join(static, "main")))
	mux.PathPrefix("/").
		Handler(mainFileServer)
	return limiter
}

func main() {
	initLog()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	opener, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer log.ErrIfFail(closeStore)

	sessions := session.NewManager(opener, cfg.SessionTTL)
	defer sessions.Close()
	wg.Add(1)
	go func() {
		defer wg.Done()
		sessions.Run(ctx, time.Minute)
	}()

	mux := mux.NewRouter()
	limiter := HandleList(mux, cfg, sessions)
	wg.Add(1)
	go func() {
		defer wg.Done()
		limiter.Run(ctx, time.Minute, limiterIdle)
	}()
	handler := CORS(mux)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("starting server", "addr", cfg.Addr, "tls", cfg.TLS())
		var err error
		if cfg.TLS() {
			err = server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.PrintErr(err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, closing active connections")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.PrintErr(err)
	}
	wg.Wait()
	log.Info("server stopped")
}
