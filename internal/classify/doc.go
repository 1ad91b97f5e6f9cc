// Package classify separates library content from server-generated metadata.
//
// Mirrors carry video, audio, and subtitle files; NFO sidecars, artwork,
// trickplay tiles, and actor thumbnails are regenerated by the media server
// per library and must never be hardlinked across libraries. The classifier
// is an exclusion list so unknown file types default to content.
package classify
