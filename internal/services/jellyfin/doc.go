// Package jellyfin talks to the media server's library management API.
//
// The Service interface covers the four calls the mirror engine needs:
// enumerate virtual folders, create one, trigger a refresh, and probe
// server info. Callers authenticate with an API key sent as X-Emby-Token.
// Errors are tagged with services.ErrExternalService so the scheduler can
// tell a flaky server apart from local failures.
package jellyfin
