// Package types provides shared data structures for the zipline tool backend.
//
// Core Types:
//   - Service: Service provider definition
//   - Tool: Tool definition surfaced to the calling agent
//   - Context: Execution context (caller token, request ID)
//   - Result: Standard operation result envelope
package types
