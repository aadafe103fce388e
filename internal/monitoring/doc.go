// Package monitoring provides Prometheus metrics for the tool backend.
//
// Collectors cover the HTTP surface, tool executions, downloads, staging
// decisions, sandbox lock attempts, and reaper sweeps. Components report
// through small callback hooks so the core packages stay free of metrics
// dependencies.
package monitoring
