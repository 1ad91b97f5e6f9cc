// Package services defines shared utilities consumed by the mirror engine
// components and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp mirror IDs, alternative IDs, operation names,
//     and correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (configuration vs validation vs external service)
//     consistent across components.
//
// Use these helpers when wiring new engine logic so operational behaviour
// (error handling, observability) stays uniform across the daemon and CLI.
package services
