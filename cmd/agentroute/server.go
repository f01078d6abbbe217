package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/agentroute/agentroute/api/handlers"
	"github.com/agentroute/agentroute/classifier"
	"github.com/agentroute/agentroute/config"
	"github.com/agentroute/agentroute/internal/database"
	"github.com/agentroute/agentroute/internal/metrics"
	"github.com/agentroute/agentroute/internal/server"
	"github.com/agentroute/agentroute/internal/telemetry"
	"github.com/agentroute/agentroute/kg"
	"github.com/agentroute/agentroute/kg/kgcache"
	"github.com/agentroute/agentroute/routing"
)

// Server wires the knowledge graph store, classifier, router, and the
// HTTP surface together.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	otelProviders *telemetry.Providers
	db            *gorm.DB
	pool          *database.PoolManager
	redisClient   *redis.Client
	store         kg.Store
	router        *routing.Router

	httpManager    *server.Manager
	metricsManager *server.Manager

	metricsCollector *metrics.Collector

	rateLimiterCancel context.CancelFunc
}

// NewServer creates a server instance. Start must be called before use.
func NewServer(cfg *config.Config, logger *zap.Logger, otelProviders *telemetry.Providers, db *gorm.DB) *Server {
	return &Server{
		cfg:           cfg,
		logger:        logger,
		otelProviders: otelProviders,
		db:            db,
	}
}

// Start brings up the store, the routing engine, and both HTTP servers.
func (s *Server) Start() error {
	s.metricsCollector = metrics.NewCollector(prometheus.DefaultRegisterer)

	if err := s.initStore(); err != nil {
		return fmt.Errorf("failed to init store: %w", err)
	}
	if err := s.initRouter(); err != nil {
		return fmt.Errorf("failed to init router: %w", err)
	}
	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.Bool("redis_cache", s.cfg.Redis.Enabled),
	)

	return nil
}

// initStore sets up the connection pool, migrates the schema, and
// layers the Redis read-through cache on top when enabled.
func (s *Server) initStore() error {
	pool, err := database.NewPoolManager(s.db, poolConfigFrom(s.cfg.Database), s.logger)
	if err != nil {
		return err
	}
	s.pool = pool

	if err := database.Instrument(s.db, s.metricsCollector); err != nil {
		return err
	}

	gormStore := kg.NewGormStore(s.db, s.logger)

	ctx := context.Background()
	if err := gormStore.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := kg.Seed(ctx, gormStore, s.logger); err != nil {
		return err
	}

	s.store = gormStore

	if s.cfg.Redis.Enabled {
		s.redisClient = redis.NewClient(&redis.Options{
			Addr:     s.cfg.Redis.Addr,
			Password: s.cfg.Redis.Password,
			DB:       s.cfg.Redis.DB,
		})
		s.store = kgcache.New(gormStore, s.redisClient, s.cfg.Redis.TTL, s.logger, s.metricsCollector)
		s.logger.Info("Redis cache enabled", zap.String("addr", s.cfg.Redis.Addr))
	}

	return nil
}

// initRouter selects the classifier and builds the routing engine.
// Without a Gemini API key the keyword classifier is used, which is
// enough for local development.
func (s *Server) initRouter() error {
	var cls classifier.Classifier
	if s.cfg.Classifier.APIKey != "" {
		gemini, err := classifier.NewGeminiClassifier(classifier.GeminiOptions{
			APIKey:  s.cfg.Classifier.APIKey,
			Model:   s.cfg.Classifier.Model,
			BaseURL: s.cfg.Classifier.BaseURL,
			HTTPClient: &http.Client{
				Timeout: s.cfg.Classifier.Timeout,
			},
		}, s.logger)
		if err != nil {
			return err
		}
		cls = gemini
		s.logger.Info("Gemini classifier initialized", zap.String("model", s.cfg.Classifier.Model))
	} else {
		cls = classifier.NewKeywordClassifier(s.logger)
		s.logger.Info("Classifier API key not configured, using keyword classifier")
	}

	s.router = routing.NewRouter(s.store, cls, s.cfg.Routing, s.logger, s.metricsCollector)
	return nil
}

func (s *Server) startHTTPServer() error {
	routingHandler := handlers.NewRoutingHandler(s.router, s.logger)
	feedbackHandler := handlers.NewFeedbackHandler(s.router, s.logger)
	explainHandler := handlers.NewExplainHandler(s.router, s.logger)
	agentsHandler := handlers.NewAgentsHandler(s.store, s.logger)
	graphHandler := handlers.NewGraphHandler(s.store, s.logger)
	healthHandler := handlers.NewHealthHandler(s.store, s.logger)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.HandleHealth)
	mux.HandleFunc("GET /healthz", healthHandler.HandleHealth)
	mux.HandleFunc("GET /ready", healthHandler.HandleReady)
	mux.HandleFunc("GET /readyz", healthHandler.HandleReady)
	mux.HandleFunc("GET /version", healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	mux.HandleFunc("POST /routing/", routingHandler.HandleRoute)
	mux.HandleFunc("GET /routing/candidates", routingHandler.HandleListCandidates)
	mux.HandleFunc("POST /feedback/", feedbackHandler.HandleFeedback)
	mux.HandleFunc("GET /explanations/routing/{id}/explanation", explainHandler.HandleExplanation)
	mux.HandleFunc("GET /explanations/routing/{id}/path", explainHandler.HandlePath)
	// /agents/?task_type= returns the ranked candidate view, the bare
	// list otherwise.
	mux.HandleFunc("GET /agents/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("task_type") != "" {
			routingHandler.HandleListCandidates(w, r)
			return
		}
		agentsHandler.HandleList(w, r)
	})
	mux.HandleFunc("GET /agents/{name}", agentsHandler.HandleGet)
	mux.HandleFunc("GET /agents/{name}/similar", agentsHandler.HandleSimilar)
	mux.HandleFunc("GET /agents/{name}/decisions", agentsHandler.HandleDecisions)
	mux.HandleFunc("GET /visualization/kg", graphHandler.HandleVisualization)
	mux.HandleFunc("GET /metrics/routing", graphHandler.HandleRoutingMetrics)

	middlewares := []Middleware{
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.metricsCollector),
	}
	if s.cfg.Telemetry.Enabled {
		middlewares = append(middlewares, OTelTracing())
	}
	middlewares = append(middlewares, CORS(s.cfg.Server.CORSAllowedOrigins))
	if s.cfg.Server.RateLimitRPS > 0 {
		rateLimiterCtx, cancel := context.WithCancel(context.Background())
		s.rateLimiterCancel = cancel
		middlewares = append(middlewares,
			RateLimiter(rateLimiterCtx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger))
	}
	handler := Chain(mux, middlewares...)

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20, // 1 MB
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)

	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)

	if err := s.metricsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("Metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// WaitForShutdown blocks until a termination signal, then shuts down.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}
	s.Shutdown()
}

// Shutdown stops both HTTP servers and releases backing resources.
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	ctx := context.Background()

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Redis close error", zap.Error(err))
		}
	}
	if s.pool != nil {
		if err := s.pool.Close(); err != nil {
			s.logger.Error("Database pool close error", zap.Error(err))
		}
	}
	if s.otelProviders != nil {
		if err := s.otelProviders.Shutdown(ctx); err != nil {
			s.logger.Error("Telemetry shutdown error", zap.Error(err))
		}
	}

	s.logger.Info("Graceful shutdown completed")
}

// poolConfigFrom maps database settings onto pool tuning knobs.
func poolConfigFrom(cfg config.DatabaseConfig) database.PoolConfig {
	pc := database.DefaultPoolConfig()
	if cfg.MaxIdleConns > 0 {
		pc.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.MaxOpenConns > 0 {
		pc.MaxOpenConns = cfg.MaxOpenConns
	}
	if cfg.ConnMaxLifetime > 0 {
		pc.ConnMaxLifetime = cfg.ConnMaxLifetime
	}
	return pc
}
