package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"Contour/internal/api"
	"Contour/internal/auth"
	"Contour/internal/config"
	"Contour/internal/export"
	"Contour/internal/repo"
	"Contour/internal/service"
	"Contour/internal/validation"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

var wg sync.WaitGroup

const (
	limiterSweep = time.Minute
	limiterIdle  = 10 * time.Minute
)

func CORS(router *mux.Router) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Profile-Warning, X-Batch-Failed")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		router.ServeHTTP(w, r)
	})
}

// HandleList registers every route. authEnv is nil when accounts are
// disabled; generate and parse stay public either way. Idle rate limiter
// entries are swept until ctx is done.
func HandleList(ctx context.Context, router *mux.Router, cfg *config.Config, h *api.Handler, authEnv *auth.Authenv) {
	limiter := auth.NewIPRateLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	wg.Add(1)
	go func() {
		defer wg.Done()
		limiter.Cleanup(ctx, limiterSweep, limiterIdle)
	}()

	optionalUser := func(next http.Handler) http.Handler { return next }
	if authEnv != nil {
		optionalUser = authEnv.OptionalUser
	}

	// Unprefixed paths kept for existing frontends.
	public := func(f http.HandlerFunc) http.Handler {
		return limiter.LimitMiddleware(optionalUser(f))
	}
	router.Handle("/generate", public(h.Generate)).Methods(http.MethodPost)
	router.Handle("/parse-dxf", public(h.Parse)).Methods(http.MethodPost)

	router.HandleFunc("/api/health", h.Health).Methods(http.MethodGet)

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(limiter.LimitMiddleware)
	apiRouter.Use(optionalUser)

	apiRouter.HandleFunc("/generate", h.Generate).Methods(http.MethodPost)
	apiRouter.HandleFunc("/parse-dxf", h.Parse).Methods(http.MethodPost)
	apiRouter.HandleFunc("/batch", h.Batch).Methods(http.MethodPost)
	apiRouter.HandleFunc("/batch/import", h.BatchImport).Methods(http.MethodPost)
	apiRouter.HandleFunc("/report", h.Report).Methods(http.MethodPost)
	apiRouter.HandleFunc("/rules", h.Rules).Methods(http.MethodGet)

	if authEnv != nil {
		apiRouter.HandleFunc("/login", authEnv.AuthHandler).Methods(http.MethodPost)
		apiRouter.HandleFunc("/register", authEnv.RegisterHandler).Methods(http.MethodPost)
		apiRouter.HandleFunc("/logout", authEnv.LogoutHandler).Methods(http.MethodPost)

		secureApi := apiRouter.PathPrefix("/user").Subrouter()
		secureApi.Use(authEnv.AuthMiddleware)
		secureApi.HandleFunc("/drawings", h.History).Methods(http.MethodGet)
	}

	if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
		router.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.StaticDir)))
	}
}

// openStore picks the account store: Postgres when DATABASE_URL is set,
// memory when AUTH_MEMORY is on, none otherwise.
func openStore(ctx context.Context, cfg *config.Config) (repo.Repository, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		db, err := repo.InitDB(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store := repo.NewPostgresRepository(db)
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, func() { db.Close() }, nil
	case cfg.AuthMemory:
		return repo.NewMemoryRepository(), func() {}, nil
	default:
		return nil, func() {}, nil
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	svc := service.New(
		validation.New(validation.DefaultRules(), validation.WithLogger(logger)),
		nil,
		export.NewService(cfg.OutputDir, cfg.Workers, logger),
		logger,
	)
	handler := api.NewHandler(svc, store, logger, cfg.MaxUploadBytes)

	var authEnv *auth.Authenv
	if store != nil {
		authEnv = auth.NewAuthenv([]byte(cfg.TokenKey), store, logger, cfg.TLSCert != "")
	}

	router := mux.NewRouter()
	HandleList(ctx, router, cfg, handler, authEnv)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           CORS(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting server", "addr", cfg.Addr, "tls", cfg.TLSCert != "", "accounts", authEnv != nil)
	wg.Add(1)
	go func() {
		defer wg.Done()
		var err error
		if cfg.TLSCert != "" {
			err = server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received, closing active connections")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	wg.Wait()
	logger.Info("server stopped")
}
