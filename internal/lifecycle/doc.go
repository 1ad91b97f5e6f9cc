// Package lifecycle creates mirrors end to end: validation against the
// host's live library listing, the pending database row, target library
// registration, id resolution, the first synchronization, and the initial
// metadata refresh.
package lifecycle
