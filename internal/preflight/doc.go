// Package preflight provides readiness checks for the Jellyfin connection
// and the filesystem paths that Prism depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup, then RunMirrorChecks once the
//     library listing is available, and logs failures before the scheduler
//     starts, so a dead server, an unwritable data dir, or a mirror target
//     on the wrong filesystem surfaces immediately instead of on the first
//     sync.
//   - The CLI "prism status" command assembles CheckDirectoryAccess,
//     CheckJellyfinFromConfig, and ProbeDatabase into its System Status
//     section whether or not the daemon is up.
package preflight
