// Package daemon coordinates the long-running Prism process.
//
// It wires configuration, mirror storage, the sync scheduler, and the
// filesystem watcher into a single lifecycle with flock-based locking to
// prevent multiple instances. The daemon exposes the operations the IPC
// server and CLI need: status, mirror listings, on-demand sync and cleanup,
// and notification tests.
//
// Keep orchestration logic here: sync and cleanup mechanics live in their
// respective packages while the daemon focuses on startup, shutdown, and
// high level coordination.
package daemon
