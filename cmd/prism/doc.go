// Package main hosts the Prism CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into IPC calls
// against the daemon, mirror and language-alternative management, library
// inspection, and configuration scaffolding. It centralizes configuration
// resolution and socket discovery so subcommands can focus on user
// experience instead of wiring.
//
// Commands that only read or edit configuration state fall back to direct
// database access when the daemon socket is unreachable; commands that need
// the running engine (sync kicks, notification tests) require the daemon.
package main
