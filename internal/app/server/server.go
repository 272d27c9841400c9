package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrms/internal/domain/attendance"
	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/bonus"
	"hrms/internal/domain/core"
	"hrms/internal/domain/leave"
	"hrms/internal/domain/payroll"
	"hrms/internal/domain/performance"
	"hrms/internal/domain/reports"
	"hrms/internal/platform/config"
	"hrms/internal/platform/db"
	"hrms/internal/platform/logging"
	"hrms/internal/platform/metrics"
	"hrms/internal/transport/http/api"
	attendancehandler "hrms/internal/transport/http/handlers/attendance"
	audithandler "hrms/internal/transport/http/handlers/audit"
	authhandler "hrms/internal/transport/http/handlers/auth"
	bonushandler "hrms/internal/transport/http/handlers/bonus"
	corehandler "hrms/internal/transport/http/handlers/core"
	leavehandler "hrms/internal/transport/http/handlers/leave"
	payrollhandler "hrms/internal/transport/http/handlers/payroll"
	performancehandler "hrms/internal/transport/http/handlers/performance"
	reportshandler "hrms/internal/transport/http/handlers/reports"
	"hrms/internal/transport/http/middleware"
)

// Pinger reports database readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps is everything the router needs. Build fills it from a pool; tests
// fill it with fakes.
type Deps struct {
	Config  config.Config
	DB      Pinger
	Metrics *metrics.Collector
	Audit   audit.Sink
	Keys    middleware.IdempotencyKeys

	Auth        authhandler.Service
	Core        corehandler.Service
	Attendance  attendancehandler.Service
	Leave       leavehandler.Service
	Performance performancehandler.Service
	Bonus       bonushandler.Service
	Payroll     payrollhandler.Service
	AuditLogs   audithandler.Service
	Reports     reportshandler.Service
}

// Build wires stores and services on top of the pool.
func Build(cfg config.Config, pool *pgxpool.Pool, collector *metrics.Collector) (Deps, error) {
	rates := payroll.DefaultRates()
	if cfg.PayrollRatesFile != "" {
		loaded, err := payroll.LoadRates(cfg.PayrollRatesFile)
		if err != nil {
			return Deps{}, fmt.Errorf("load payroll rates: %w", err)
		}
		rates = loaded
	}

	auditSvc := audit.New(pool)
	coreSvc := core.NewService(core.NewStore(pool), auditSvc)
	performanceSvc := performance.NewService(performance.NewStore(pool), coreSvc, auditSvc)
	leaveSvc := leave.NewService(leave.NewStore(pool), coreSvc, auditSvc)

	return Deps{
		Config:      cfg,
		DB:          pool,
		Metrics:     collector,
		Audit:       auditSvc,
		Keys:        middleware.NewIdempotencyStore(pool),
		Auth:        auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.JWTTTL, cfg.RefreshTTL),
		Core:        coreSvc,
		Attendance:  attendance.NewService(attendance.NewStore(pool), coreSvc, auditSvc),
		Leave:       leaveSvc,
		Performance: performanceSvc,
		Bonus:       bonus.NewService(bonus.NewStore(pool), coreSvc, performanceSvc, auditSvc),
		Payroll:     payroll.NewService(payroll.NewStore(pool), coreSvc, auditSvc, rates),
		AuditLogs:   auditSvc,
		Reports:     reports.NewService(reports.NewStore(pool), leaveSvc, auditSvc),
	}, nil
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Logger(d.Metrics))
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Total-Count", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.DB == nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := d.DB.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled && d.Metrics != nil {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, d.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	authHandler := authhandler.NewHandler(d.Auth, d.Audit)
	router.Route("/api/v1", func(r chi.Router) {
		authHandler.RegisterPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.ActiveSession(d.Auth))
			authHandler.RegisterRoutes(r)
			corehandler.NewHandler(d.Core).RegisterRoutes(r)
			attendancehandler.NewHandler(d.Attendance).RegisterRoutes(r)
			leavehandler.NewHandler(d.Leave).RegisterRoutes(r)
			performancehandler.NewHandler(d.Performance).RegisterRoutes(r)
			bonushandler.NewHandler(d.Bonus, d.Keys, d.Metrics).RegisterRoutes(r)
			payrollhandler.NewHandler(d.Payroll, d.Keys).RegisterRoutes(r)
			audithandler.NewHandler(d.AuditLogs).RegisterRoutes(r)
			reportshandler.NewHandler(d.Reports).RegisterRoutes(r)
		})
	})

	return router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context, cfg config.Config) error {
	slog.SetDefault(logging.New(cfg.LogLevel, cfg.LogFormat))
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = uuid.NewString()
		slog.Warn("JWT_SECRET not set; using an ephemeral secret, tokens will not survive a restart")
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool); err != nil {
			return err
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	collector := metrics.New()
	deps, err := Build(cfg, pool, collector)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HRMS server listening", "addr", cfg.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
