// Copyright (c) AgentRoute Authors.
// Licensed under the MIT License.

/*
Package config provides unified configuration loading for AgentRoute.

Configuration is resolved in three layers, later layers overriding
earlier ones:

	defaults -> YAML file -> environment variables

Usage:

	cfg, err := config.NewLoader().
	    WithConfigPath("config.yaml").
	    WithEnvPrefix("AGENTROUTE").
	    Load()

Environment variables follow the struct layout via `env` tags, e.g.
AGENTROUTE_DATABASE_HOST or AGENTROUTE_ROUTING_LOW_CONFIDENCE_THRESHOLD.
*/
package config
