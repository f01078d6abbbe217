package config

import "time"

// DefaultConfig returns the configuration defaults. File and environment
// values override these.
func DefaultConfig() *Config {
	return &Config{
		Server:     DefaultServerConfig(),
		Database:   DefaultDatabaseConfig(),
		Redis:      DefaultRedisConfig(),
		Routing:    DefaultRoutingConfig(),
		Classifier: DefaultClassifierConfig(),
		Log:        DefaultLogConfig(),
		Telemetry:  DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig returns the default HTTP server settings.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:           8000,
		MetricsPort:        9090,
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       30 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		RateLimitRPS:       50,
		RateLimitBurst:     100,
		CORSAllowedOrigins: []string{"*"},
	}
}

// DefaultDatabaseConfig returns the default graph store settings.
// The sqlite driver with an in-memory name keeps local development
// free of external services.
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "sqlite",
		Host:            "localhost",
		Port:            5432,
		User:            "agentroute",
		Password:        "",
		Name:            "agentroute.db",
		SSLMode:         "disable",
		MaxIdleConns:    5,
		MaxOpenConns:    25,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// DefaultRedisConfig returns the default cache settings.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:  false,
		Addr:     "localhost:6379",
		Password: "",
		DB:       0,
		TTL:      5 * time.Minute,
	}
}

// DefaultRoutingConfig returns the default decision engine settings.
func DefaultRoutingConfig() RoutingConfig {
	return RoutingConfig{
		LowConfidenceThreshold: 0.6,
		SystemFallbackAgent:    "PerplexityFallbackAgent",
		MinCapabilityThreshold: 0.0,
		TopCandidates:          3,
	}
}

// DefaultClassifierConfig returns the default classifier settings.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		APIKey:  "",
		Model:   "gemini-1.5-flash",
		BaseURL: "https://generativelanguage.googleapis.com",
		Timeout: 10 * time.Second,
	}
}

// DefaultLogConfig returns the default logging settings.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{"stdout"},
	}
}

// DefaultTelemetryConfig returns the default telemetry settings.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "agentroute",
		SampleRate:   1.0,
	}
}
