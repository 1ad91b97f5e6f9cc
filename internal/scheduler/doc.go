// Package scheduler drives mirrors through their recurring reconciliation.
//
// The Manager runs two loops: a sync cycle that fetches the library listing
// once, then synchronizes each mirror in turn, and a slower orphan-cleanup
// sweep. Mirrors fail independently; one broken source root marks that
// mirror errored and the cycle moves on. A kick channel lets the filesystem
// watcher and the control socket request an immediate cycle, optionally
// scoped to a single mirror.
//
// Routine polls stay quiet apart from logs. Kicked cycles send a completion
// notification, so a watcher-triggered sync after a library change surfaces
// to the user.
package scheduler
