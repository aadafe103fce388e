// Package service provides the registry that exposes tool providers to the
// calling agent.
//
// The registry maintains a catalog of providers and routes tool executions
// ("<service>.<operation>") to the owning provider.
//
// Components:
//   - Registry: Central service catalog
//   - Provider: Interface for tool provider implementations
//
// Example Usage:
//
//	registry := service.NewRegistry()
//	registry.Register(transferProvider)
//	result, err := registry.Execute(ctx, "transfer.upload", params, appCtx)
package service
