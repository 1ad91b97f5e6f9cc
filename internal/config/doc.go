// Package config loads, normalizes, and validates Prism configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// JELLYFIN_API_KEY. The Config type centralizes every knob the daemon and CLI
// need, from sync intervals to classifier exclusion rules, so downstream code
// receives sanitized paths and canonical values in one pass.
//
// Always obtain settings through this package so path helpers like
// DatabasePath and SocketPath stay consistent between the daemon and CLI.
package config
