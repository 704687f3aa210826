package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"studentpulse/internal/config"
	"studentpulse/internal/dataprocessing"
	"studentpulse/internal/datasource"
	apierrors "studentpulse/internal/errors"
	"studentpulse/internal/infrastructure"
	customMiddleware "studentpulse/internal/middleware"
	"studentpulse/internal/services"
	handlers "studentpulse/internal/transport/http"
	"studentpulse/internal/validation"
	ws "studentpulse/internal/websocket"
	"studentpulse/pkg/contracts"
)

// AppName is logged at startup
const AppName = "StudentPulse"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	DataSource    *datasource.DataSource
	Hub           *ws.Hub
	Dashboard     *services.DashboardService
	Health        *services.HealthService

	errorHandler *apierrors.ErrorHandler
}

// NewApplication loads configuration from the environment and builds the application
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return New(cfg, infrastructure.InitializeLogger(cfg.Logging))
}

// New wires every component for cfg. The returned application is not started.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("source", cfg.Data.Source))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry, contracts.Version), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		errorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the dataset, hub and services
func (a *Application) initializeServices() error {
	source, err := datasource.NewRowSource(a.Config.Data)
	if err != nil {
		return err
	}

	// A missing file is not fatal: the server reports not ready until a reload succeeds
	if a.Config.Data.Source != config.SourceSheets {
		if err := validation.NewFileValidator(a.Logger).ValidateDataFile(a.Config.Data.Path, a.Config.Data.Source); err != nil {
			a.Logger.Warn("Data file check failed", slog.String("error", err.Error()))
		}
	}

	policy, err := dataprocessing.ParseMissingPolicy(a.Config.Data.MissingPolicy)
	if err != nil {
		return apierrors.NewConfigError("invalid data.missing_policy", err)
	}

	a.DataSource = datasource.New(source, datasource.SchemaFor(a.Config.Data), a.Logger,
		datasource.WithLoadTimeout(a.Config.Data.LoadTimeout))
	a.Hub = ws.NewHub(a.Logger, a.Metrics)

	a.Dashboard = services.NewDashboardService(a.DataSource, services.DashboardOptions{
		Subjects:  a.Config.Data.Subjects,
		Derive:    dataprocessing.DeriveOptions{MissingPolicy: policy},
		ExportBOM: a.Config.Data.ExportBOM,
	}, a.Hub, a.OTelProviders.Tracer, a.Metrics, a.Logger)

	a.Health = services.NewHealthService(contracts.Version, a.DataSource, a.Hub, a.Logger)
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Only middleware that leaves the ResponseWriter alone may run before /ws
	r.Use(customMiddleware.RequestID)
	r.Use(middleware.RealIP)

	r.Handle("/ws", ws.NewHandler(a.Hub, a.Config.WebSocket, a.allowedOrigins(), a.Logger, a.errorHandler))

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(apierrors.RecoveryMiddleware(a.errorHandler))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))
		r.Use(customMiddleware.DefaultSecureHeaders(a.Config.Logging.Development).Handler)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.errorHandler,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	// Prometheus stays outside the group so scrapes skip tracing and rate limits
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	// Registered last so every mounted sub-router inherits them
	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
	dashboardHandler := handlers.NewDashboardHandler(
		a.Dashboard,
		customMiddleware.NewValidator(a.Dashboard.Subjects()),
		a.Logger,
		a.errorHandler,
	)
	clientLogHandler := handlers.NewClientLogHandler(a.Logger, a.errorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)
		r.Post("/logs", clientLogHandler.Handle)
		r.Mount("/", dashboardHandler.Routes())
	})
}

// allowedOrigins lists the browser origins accepted for CORS and websocket upgrades
func (a *Application) allowedOrigins() []string {
	origins := []string{
		fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
		fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port),
	}
	if a.Config.Logging.Development {
		origins = append(origins, "http://localhost:3000", "http://127.0.0.1:3000")
	}
	for _, o := range a.Config.Security.AllowedOrigins {
		if !contains(origins, o) {
			origins = append(origins, o)
		}
	}
	return origins
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	cfg := customMiddleware.CORSConfig{
		AllowedOrigins: a.allowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		MaxAge:         300,
		Logger:         a.Logger,
	}
	a.Logger.Info("CORS configured", slog.Any("allowed_origins", cfg.AllowedOrigins))
	return cfg
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start serves HTTP and runs the hub until ctx is cancelled, then shuts
// everything down. A failed warmup load is logged; the server keeps
// running and reports not ready until a reload succeeds.
func (a *Application) Start(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Hub.Run(gctx)
	})

	g.Go(func() error {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		warmCtx := infrastructure.EnsureTraceID(gctx)
		if err := a.Dashboard.Warmup(warmCtx); err != nil {
			a.Logger.WarnContext(warmCtx, "Initial dataset load failed",
				slog.String("origin", a.DataSource.Status().Origin),
				slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Stop(context.WithoutCancel(ctx))
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stop gracefully stops the HTTP server and flushes telemetry
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	err := a.Start(ctx)
	a.Logger.Info("Application stopped", slog.Duration("uptime", time.Since(start)))
	return err
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
