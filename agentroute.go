// Package agentroute provides a top-level convenience entry point for
// embedding the router in another process with minimal boilerplate.
//
// Usage:
//
//	import "github.com/agentroute/agentroute"
//
//	r, err := agentroute.New()                              // in-memory store, keyword classifier
//	r, err := agentroute.New(agentroute.WithDatabase(db))   // your own gorm handle
//	r, err := agentroute.New(agentroute.WithGeminiAPIKey(k))
//
// The returned router is ready to use: the schema is migrated and the
// reference agents are seeded. The HTTP server in cmd/agentroute is a
// thin layer over the same router.
package agentroute

import (
	"context"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/agentroute/agentroute/classifier"
	"github.com/agentroute/agentroute/config"
	"github.com/agentroute/agentroute/kg"
	"github.com/agentroute/agentroute/routing"
)

type options struct {
	db           *gorm.DB
	logger       *zap.Logger
	cls          classifier.Classifier
	routing      config.RoutingConfig
	geminiAPIKey string
	skipSeed     bool
}

// Option configures the router created by [New].
type Option func(*options)

// WithDatabase uses an existing gorm handle instead of an in-memory
// sqlite database.
func WithDatabase(db *gorm.DB) Option {
	return func(o *options) { o.db = db }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithClassifier sets a pre-built query classifier.
func WithClassifier(cls classifier.Classifier) Option {
	return func(o *options) { o.cls = cls }
}

// WithGeminiAPIKey enables the Gemini classifier with default model
// settings. Ignored when WithClassifier is also given.
func WithGeminiAPIKey(key string) Option {
	return func(o *options) { o.geminiAPIKey = key }
}

// WithRoutingConfig overrides the routing thresholds.
func WithRoutingConfig(cfg config.RoutingConfig) Option {
	return func(o *options) { o.routing = cfg }
}

// WithoutSeed skips loading the reference agents. Use when the caller
// registers its own agent catalog.
func WithoutSeed() Option {
	return func(o *options) { o.skipSeed = true }
}

// New creates a ready-to-use [routing.Router]. With no options it runs
// on an in-memory sqlite store with the keyword classifier, which is
// enough for tests and local experiments.
func New(opts ...Option) (*routing.Router, error) {
	o := options{
		logger:  zap.NewNop(),
		routing: config.DefaultRoutingConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.db == nil {
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// in-memory sqlite is per-connection
		sqlDB.SetMaxOpenConns(1)
		o.db = db
	}

	ctx := context.Background()
	store := kg.NewGormStore(o.db, o.logger)
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	if !o.skipSeed {
		if err := kg.Seed(ctx, store, o.logger); err != nil {
			return nil, err
		}
	}

	if o.cls == nil {
		if o.geminiAPIKey != "" {
			gemini, err := classifier.NewGeminiClassifier(classifier.GeminiOptions{APIKey: o.geminiAPIKey}, o.logger)
			if err != nil {
				return nil, err
			}
			o.cls = gemini
		} else {
			o.cls = classifier.NewKeywordClassifier(o.logger)
		}
	}

	return routing.NewRouter(store, o.cls, o.routing, o.logger, nil), nil
}
