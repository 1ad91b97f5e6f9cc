// Package notifications delivers sync and cleanup events via ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and gracefully degrades to a no-op when no topic is set.
// Per-event gates (sync, cleanup, errors) let operators mute categories
// without removing the topic.
//
// Extend this package if you need alternative transports; the engine
// depends only on the Service interface.
package notifications
