// Copyright (c) AgentRoute Authors.
// Licensed under the MIT License.

// Command agentroute runs the agent routing service.
//
// Usage:
//
//	agentroute serve                       # start the server
//	agentroute serve --config config.yaml  # with a config file
//	agentroute seed                        # load the reference agents
//	agentroute version                     # show version information
//	agentroute health                      # probe a running server
//
// The serve command exposes the routing API on the configured HTTP
// port and Prometheus metrics on a separate metrics port.
package main
