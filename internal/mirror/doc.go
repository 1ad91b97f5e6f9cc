// Package mirror persists language alternatives, their mirrors, and user
// assignments in SQLite.
//
// The Store manages database connections, schema initialization, stats
// queries, and the sync status transitions workers rely on. A mirror row
// tracks which source library it shadows, where the hardlink tree lives,
// the registered target library, and the outcome of the last sync so the
// scheduler and CLI can coordinate without additional state.
//
// Claims are enforced in SQL: BeginSync flips a mirror to syncing only when
// no other worker holds it, and ResetStuckSyncing releases claims left
// behind by a crashed daemon. Schema changes bump the version in schema.go;
// users delete the database and re-add mirrors to adopt the new schema.
package mirror
