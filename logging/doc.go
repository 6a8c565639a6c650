// Package logging provides a minimal logging interface and adapters shared by
// the agent, graph and tool packages.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) used for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - EngineLogger with domain helpers for model, tool and routing events
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
