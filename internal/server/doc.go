// Package server wires the HTTP surface: the gin router, middleware chain,
// tool execution endpoint, and the background sandbox sweeper.
package server
