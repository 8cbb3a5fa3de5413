// Package config handles configuration loading for parley-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable
// expansion, parsed durations, and a distinct validation phase that fails
// fast on misconfiguration - before the server accepts any connection.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	provider:
//	  api_key: "${OPENAI_API_KEY}"
//
// An unset variable expands to the empty string, which then trips
// validation for required fields.
//
// # Configuration Sections
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//
//	database:
//	  path: "/var/lib/parley/gateway.db"
//
//	provider:
//	  api_key: "${OPENAI_API_KEY}"
//	  base_url: ""                    # optional OpenAI-compatible endpoint
//	  default_model: "gpt-4o-mini"
//
//	chat:
//	  turn_timeout: "60s"             # bounds one full message round trip
//
//	auth:
//	  jwt_secret: "${PARLEY_JWT_SECRET}"  # empty disables API auth
//
//	cors:
//	  allowed_origins: []             # empty allows any origin
//
//	tailscale:
//	  enabled: false
//	  hostname: "parley-gateway"
//	  auth_key: "${TS_AUTHKEY}"
//	  https: false
//	  funnel: false
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
//	metrics:
//	  enabled: false
//	  path: "/metrics"
package config
