// Package main is the entry point for the zipline-mcp server.
//
// The server exposes file transfer and sandbox tools over a small REST
// surface for a tool-calling agent:
//   - POST /execute runs a tool ("transfer.upload", "sandbox.list", ...)
//   - GET /services lists registered services and their tools
//   - GET /metrics serves Prometheus metrics
//
// Configuration:
//   - Environment variables (12-factor)
//   - Optional TOML or YAML config file via -config
//   - CLI flags override both
//
// Usage:
//
//	./server -port 8090
//	./server -config /etc/zipline-mcp/config.toml
//
// Signals:
//   - SIGINT, SIGTERM: graceful shutdown, draining in-flight transfers
package main
