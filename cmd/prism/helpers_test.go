package main

import (
	"strings"
	"testing"
	"time"

	"prism/internal/ipc"
	"prism/internal/mirror"
)

func TestShortID(t *testing.T) {
	if got := shortID("9f1c2d3e-4a5b-6c7d-8e9f-0a1b2c3d4e5f"); got != "9f1c2d3e" {
		t.Fatalf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Fatalf("shortID = %q, want unchanged short value", got)
	}
}

func TestFormatStatusLabel(t *testing.T) {
	cases := map[string]string{
		"pending":     "Pending",
		"syncing":     "Syncing",
		"synced":      "Synced",
		"error":       "Error",
		"needs_check": "Needs Check",
		"":            "",
	}
	for input, want := range cases {
		if got := formatStatusLabel(input); got != want {
			t.Fatalf("formatStatusLabel(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestMirrorStatusCell(t *testing.T) {
	syncing := ipc.MirrorRecord{Status: string(mirror.StatusSyncing), ProgressPercent: 42.4}
	if got := mirrorStatusCell(syncing); got != "Syncing 42%" {
		t.Fatalf("syncing cell = %q", got)
	}
	stalled := ipc.MirrorRecord{Status: string(mirror.StatusSyncing)}
	if got := mirrorStatusCell(stalled); got != "Syncing" {
		t.Fatalf("stalled cell = %q", got)
	}
	synced := ipc.MirrorRecord{Status: string(mirror.StatusSynced), ProgressPercent: 100}
	if got := mirrorStatusCell(synced); got != "Synced" {
		t.Fatalf("synced cell = %q", got)
	}
}

func TestFormatSyncedCell(t *testing.T) {
	if got := formatSyncedCell(nil); got != "-" {
		t.Fatalf("nil cell = %q", got)
	}
	ts := time.Date(2026, time.March, 5, 21, 30, 0, 0, time.UTC)
	if got := formatSyncedCell(&ts); got != "2026-03-05 21:30" {
		t.Fatalf("cell = %q", got)
	}
}

func TestFormatFileCount(t *testing.T) {
	if got := formatFileCount(nil); got != "-" {
		t.Fatalf("nil count = %q", got)
	}
	count := 37
	if got := formatFileCount(&count); got != "37" {
		t.Fatalf("count = %q", got)
	}
}

func TestMatchMirrorRecord(t *testing.T) {
	records := []ipc.MirrorRecord{
		{ID: "aaaa1111"},
		{ID: "aabb2222"},
	}

	got, err := matchMirrorRecord(records, "aaaa1111")
	if err != nil || got.ID != "aaaa1111" {
		t.Fatalf("exact match = %v, %v", got, err)
	}

	got, err = matchMirrorRecord(records, "aab")
	if err != nil || got.ID != "aabb2222" {
		t.Fatalf("prefix match = %v, %v", got, err)
	}

	if _, err := matchMirrorRecord(records, "zz"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found, got %v", err)
	}

	if _, err := matchMirrorRecord(records, "aa"); err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Fatalf("expected ambiguous, got %v", err)
	}
}

func TestMetadataLanguageCell(t *testing.T) {
	if got := metadataLanguageCell(ipc.LibraryRecord{}); got != "-" {
		t.Fatalf("empty cell = %q", got)
	}
	if got := metadataLanguageCell(ipc.LibraryRecord{PreferredMetadataLanguage: "fr"}); got != "fr" {
		t.Fatalf("language cell = %q", got)
	}
	record := ipc.LibraryRecord{PreferredMetadataLanguage: "fr", MetadataCountryCode: "FR"}
	if got := metadataLanguageCell(record); got != "fr-FR" {
		t.Fatalf("language+country cell = %q", got)
	}
}

func TestBuildLibraryListRows(t *testing.T) {
	records := []ipc.LibraryRecord{
		{Name: "Movies", CollectionType: "movies", Locations: []string{"/media/movies"}},
		{Name: "Movies (French)", IsMirror: true, AlternativeName: "French"},
		{Name: "Movies (German)", IsMirror: true, MirrorID: "9f1c2d3e4a5b"},
	}
	rows := buildLibraryListRows(records)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0][4] != "-" {
		t.Fatalf("plain library mirror cell = %q", rows[0][4])
	}
	if rows[1][4] != "French" {
		t.Fatalf("mirror cell = %q", rows[1][4])
	}
	if rows[2][4] != "9f1c2d3e" {
		t.Fatalf("anonymous mirror cell = %q", rows[2][4])
	}
}

func TestBuildMirrorStatusRows(t *testing.T) {
	if rows := buildMirrorStatusRows(mirror.Summary{}); rows != nil {
		t.Fatalf("expected nil rows for empty stats, got %v", rows)
	}

	rows := buildMirrorStatusRows(mirror.Summary{Total: 3, Pending: 1, Synced: 2})
	want := [][]string{{"Pending", "1"}, {"Synced", "2"}, {"Total", "3"}}
	if len(rows) != len(want) {
		t.Fatalf("rows = %v, want %v", rows, want)
	}
	for i := range want {
		if rows[i][0] != want[i][0] || rows[i][1] != want[i][1] {
			t.Fatalf("row %d = %v, want %v", i, rows[i], want[i])
		}
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Now()
	if got := formatRelativeTime(now.Add(-10 * time.Second)); !strings.HasSuffix(got, "seconds ago") {
		t.Fatalf("recent = %q", got)
	}
	if got := formatRelativeTime(now.Add(-5 * time.Minute)); got != "5 minutes ago" {
		t.Fatalf("minutes = %q", got)
	}
	if got := formatRelativeTime(now.Add(-90 * time.Minute)); got != "1 hour ago" {
		t.Fatalf("hour = %q", got)
	}
	old := now.Add(-72 * time.Hour)
	if got := formatRelativeTime(old); got != old.Format("2006-01-02 15:04") {
		t.Fatalf("old = %q", got)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "fallback"); got != "fallback" {
		t.Fatalf("firstNonEmpty = %q", got)
	}
	if got := firstNonEmpty("primary", "fallback"); got != "primary" {
		t.Fatalf("firstNonEmpty = %q", got)
	}
	if got := firstNonEmpty("", ""); got != "" {
		t.Fatalf("firstNonEmpty = %q", got)
	}
}
