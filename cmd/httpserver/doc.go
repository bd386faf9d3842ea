// Package main (cmd/httpserver) runs the asset storage API server.
//
// The server reads the storage configuration file (--config, default assets.yaml),
// resolves vault:<path>#<field> credentials against Vault when present, and builds the
// storage adapter for the configured remote backend. With serveLocalFiles enabled, files
// in the local store are served directly and reads try the local store first.
//
// Example:
//
//	asset-server --config /etc/assets.yaml --listen-addr 0.0.0.0:8080 --log-json
//
// Prometheus metrics are exposed on --metrics-addr, health checks on /livez and /readyz.
package main
