package server

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

	"github.com/aleph-zero/flutterddl/api"
	"github.com/aleph-zero/flutterddl/service/index"
	"github.com/aleph-zero/flutterddl/service/metastore"
	"github.com/aleph-zero/flutterddl/service/query"
	"github.com/aleph-zero/flutterddl/service/storage"
	"github.com/aleph-zero/flutterddl/service/storage/memory"
	"github.com/aleph-zero/flutterddl/service/storage/sqlite"
	"github.com/aleph-zero/flutterddl/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/riandyrn/otelchi"
)

const (
	serviceName     = "flutterddl"
	serviceVersion  = "0.0.1"
	shutdownTimeout = 10 * time.Second
)

var collectorURL = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")

/* *** Server Config *** */

type Config struct {
	Address         string
	Port            uint16
	MetastoreConfig *metastore.Config
	StorageConfig   *storage.Config
}

type Option func(*Config)

func NewConfig(options ...Option) *Config {
	cfg := &Config{
		MetastoreConfig: metastore.NewConfig(),
		StorageConfig:   storage.NewConfig(),
	}
	for _, option := range options {
		option(cfg)
	}
	return cfg
}

func WithAddress(address string) Option {
	return func(c *Config) {
		c.Address = address
	}
}

func WithPort(port uint16) Option {
	return func(c *Config) {
		c.Port = port
	}
}

func WithMetastoreConfig(metastoreConfig *metastore.Config) Option {
	return func(c *Config) {
		c.MetastoreConfig = metastoreConfig
	}
}

func WithStorageConfig(storageConfig *storage.Config) Option {
	return func(c *Config) {
		c.StorageConfig = storageConfig
	}
}

// NewStorage opens the backend named by cfg.
func NewStorage(cfg *storage.Config, logger *slog.Logger) (storage.Adapter, error) {
	switch cfg.Engine {
	case storage.EngineMemory, "":
		return memory.New(), nil
	case storage.EngineSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("storage engine %s requires a path", cfg.Engine)
		}
		return sqlite.Open(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unknown storage engine: %s", cfg.Engine)
	}
}

// NewRouter builds the HTTP surface over already opened services.
func NewRouter(logger *httplog.Logger, querySvc query.Service, indexSvc index.Service) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Heartbeat("/heartbeat"))
	router.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(router)))
	router.Use(middleware.RequestID)
	router.Use(render.SetContentType(render.ContentTypeJSON))
	router.Use(httplog.RequestLogger(logger))

	api.Routes(router, api.NewDDLHandler(querySvc), api.NewCatalogHandler(querySvc, indexSvc))
	return router
}

func Bootstrap(config *Config) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger := httplog.NewLogger(serviceName, httplog.Options{
		LogLevel:         slog.LevelInfo,
		MessageFieldName: "msg",
		JSON:             true,
		Concise:          true,
		RequestHeaders:   false,
		ResponseHeaders:  false,
	})

	logger.InfoContext(ctx, "Bootstrapping server...", "config", config)

	/* *** Initialize Opentelemetry *** */
	shutdownTelemetry, err := telemetry.New(serviceName, serviceVersion, collectorURL)
	if err != nil {
		logger.ErrorContext(ctx, "Error initializing telemetry", "err", err)
		shutdownTelemetry = func() {}
	}
	defer shutdownTelemetry()

	/* *** Initialize services *** */
	metaSvc := metastore.NewService(config.MetastoreConfig)
	if err := metaSvc.Open(); err != nil {
		logger.ErrorContext(ctx, "Error opening metastore", "err", err)
		os.Exit(1)
	}

	storageSvc, err := NewStorage(config.StorageConfig, logger.Logger)
	if err != nil {
		logger.ErrorContext(ctx, "Error opening storage", "err", err)
		os.Exit(1)
	}
	defer storageSvc.Close()

	indexSvc, err := index.NewService()
	if err != nil {
		logger.ErrorContext(ctx, "Error opening catalog index", "err", err)
		os.Exit(1)
	}
	defer indexSvc.Close()

	querySvc := query.NewService(metaSvc, storageSvc, indexSvc)
	if err := querySvc.Reload(ctx); err != nil {
		logger.ErrorContext(ctx, "Error loading catalog", "err", err)
		os.Exit(1)
	}

	srv := http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Address, config.Port),
		Handler: NewRouter(logger, querySvc, indexSvc),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "Error starting server", "err", err)
		}
		logger.InfoContext(ctx, "Server stopped accepting connections")
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-sig

	shutdown(logger, &srv, querySvc, shutdownTimeout)
}

// shutdown drains in-flight requests for up to timeout, then persists the
// metastore whether or not draining finished.
func shutdown(logger *httplog.Logger, srv *http.Server, querySvc query.Service, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorContext(ctx, "Error shutting down server", "err", err)
	}
	if err := querySvc.View(func(meta metastore.Service) error { return meta.Persist() }); err != nil {
		logger.ErrorContext(ctx, "Error persisting metastore", "err", err)
	}
	logger.InfoContext(ctx, "Server shutdown complete")
}
