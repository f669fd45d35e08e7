package server

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"feedback360/internal/domain/auth"
	"feedback360/internal/domain/cycle"
	"feedback360/internal/domain/feedback"
	"feedback360/internal/domain/nomination"
	"feedback360/internal/domain/org"
	"feedback360/internal/domain/reports"
	"feedback360/internal/domain/summary"
	"feedback360/internal/platform/config"
	"feedback360/internal/platform/db"
	"feedback360/internal/platform/metrics"
	authhandler "feedback360/internal/transport/http/handlers/auth"
	cyclehandler "feedback360/internal/transport/http/handlers/cycle"
	feedbackhandler "feedback360/internal/transport/http/handlers/feedback"
	nominationhandler "feedback360/internal/transport/http/handlers/nomination"
	orghandler "feedback360/internal/transport/http/handlers/org"
	reportshandler "feedback360/internal/transport/http/handlers/reports"
	summaryhandler "feedback360/internal/transport/http/handlers/summary"
	"feedback360/internal/transport/http/api"
	"feedback360/internal/transport/http/middleware"
)

func Run() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}

	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	templates, err := cycle.LoadTemplates(cfg.QuestionTemplatesPath)
	if err != nil {
		log.Fatalf("question templates failed: %v", err)
	}

	nomCfg := nomination.Config{
		MaxActivePerRequester:    cfg.MaxActiveNominations,
		MaxReviewerLoad:          cfg.MaxReviewerLoad,
		ExternalMinLevel:         cfg.ExternalMinLevel,
		ReviewerLoadAcrossCycles: cfg.ReviewerLoadAcrossCycles,
		AllowReapproval:          cfg.AllowReapproval,
	}

	orgStore := org.NewStore(pool)
	authStore := auth.NewStore(pool)
	cycleService := cycle.NewService(cycle.NewStore(pool))
	nominationStore := nomination.NewStore(pool)
	nominationService := nomination.NewService(nomCfg, nominationStore, orgStore, cycleService)
	feedbackService := feedback.NewService(feedback.NewStore(pool), nominationStore, cycleService)
	summaryService := summary.NewService(summary.NewStore(pool), cycleService, nomCfg)
	reportsService := reports.NewService(summaryService, cycleService)

	collector := metrics.New()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(authStore, cfg.JWTSecret)
		r.Post("/auth/login", authHandler.HandleLogin)

		orghandler.NewHandler(orgStore).RegisterRoutes(r)
		cyclehandler.NewHandler(cycleService, templates).RegisterRoutes(r)
		nominationhandler.NewHandler(nominationService).RegisterRoutes(r)
		feedbackhandler.NewHandler(feedbackService).RegisterRoutes(r)
		summaryhandler.NewHandler(summaryService).RegisterRoutes(r)
		reportshandler.NewHandler(reportsService).RegisterRoutes(r)
	})

	slog.Info("server listening", "addr", cfg.Addr, "env", cfg.Environment)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
