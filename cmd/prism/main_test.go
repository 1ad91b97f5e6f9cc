package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"prism/internal/mirror"
	"prism/internal/testsupport"
)

func TestCLIAlternativeLifecycle(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"alternative", "add", "French", "-l", "fr-FR"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("alternative add: %v", err)
	}
	requireContains(t, out, "Added alternative French")

	_, _, err = runCLI(t, []string{"alternative", "add", "French", "-l", "fr"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected duplicate name error, got %v", err)
	}

	out, _, err = runCLI(t, []string{"alt", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("alternative list: %v", err)
	}
	requireContains(t, out, "French")
	requireContains(t, out, "fr-FR")

	out, _, err = runCLI(t, []string{"alternative", "remove", "French"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("alternative remove: %v", err)
	}
	requireContains(t, out, "Removed alternative French (0 mirror records dropped)")

	out, _, err = runCLI(t, []string{"alternative", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("alternative list after remove: %v", err)
	}
	requireContains(t, out, "No alternatives configured")
}

func TestCLIAlternativeAddRejectsUnderivableName(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"alternative", "add", "Foreign Films"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "cannot derive a language tag") {
		t.Fatalf("expected derivation error, got %v", err)
	}
}

func TestCLIAlternativeRemoveDropsMirrorRecords(t *testing.T) {
	env := setupCLITestEnv(t)
	alt := testsupport.NewAlternative(t, env.store, "German", "de")
	testsupport.NewMirror(t, env.store, alt.ID, "lib-src", filepath.Join(env.baseDir, "mirror-de"))

	out, _, err := runCLI(t, []string{"alternative", "remove", "German"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("alternative remove: %v", err)
	}
	requireContains(t, out, "Removed alternative German (1 mirror records dropped)")

	mirrors, err := env.store.ListMirrors(context.Background())
	if err != nil {
		t.Fatalf("ListMirrors: %v", err)
	}
	if len(mirrors) != 0 {
		t.Fatalf("mirrors = %d, want 0 after cascade", len(mirrors))
	}
}

func TestCLIMirrorAddListLibrariesAndRemove(t *testing.T) {
	env := setupCLITestEnv(t)

	source := filepath.Join(env.baseDir, "source")
	rels := testsupport.SeedLibraryTree(t, source)
	env.host.addLibrary("Movies", "movies", source)

	if _, _, err := runCLI(t, []string{"alternative", "add", "French", "--language", "fr-FR"}, env.socketPath, env.configPath); err != nil {
		t.Fatalf("alternative add: %v", err)
	}

	target := filepath.Join(env.baseDir, "mirrors", "films")
	out, _, err := runCLI(t, []string{"mirror", "add", "Movies", target, "--alternative", "French"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("mirror add: %v", err)
	}
	requireContains(t, out, "Mirror Movies (French) created for French")
	requireContains(t, out, fmt.Sprintf("Linked %d files", len(rels)))

	for _, rel := range rels {
		if _, err := os.Stat(filepath.Join(target, rel)); err != nil {
			t.Fatalf("mirror missing %s: %v", rel, err)
		}
	}
	srcInfo, err := os.Stat(filepath.Join(source, rels[0]))
	if err != nil {
		t.Fatalf("stat source: %v", err)
	}
	dstInfo, err := os.Stat(filepath.Join(target, rels[0]))
	if err != nil {
		t.Fatalf("stat target: %v", err)
	}
	if !os.SameFile(srcInfo, dstInfo) {
		t.Fatalf("expected %s to be hardlinked into the mirror", rels[0])
	}

	mirrors, err := env.store.ListMirrors(context.Background())
	if err != nil {
		t.Fatalf("ListMirrors: %v", err)
	}
	if len(mirrors) != 1 {
		t.Fatalf("mirrors = %d, want 1", len(mirrors))
	}
	m := mirrors[0]
	if m.Status != mirror.StatusSynced {
		t.Fatalf("status = %s, want synced", m.Status)
	}
	if m.LastSyncFileCount == nil || *m.LastSyncFileCount != len(rels) {
		t.Fatalf("file count = %v, want %d", m.LastSyncFileCount, len(rels))
	}
	if m.TargetLibraryID == "" {
		t.Fatal("expected target library id resolved from the host listing")
	}

	out, _, err = runCLI(t, []string{"mirror", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("mirror list: %v", err)
	}
	requireContains(t, out, "French")
	requireContains(t, out, "Movies")
	requireContains(t, out, "Synced")

	out, _, err = runCLI(t, []string{"libraries"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("libraries: %v", err)
	}
	requireContains(t, out, "Movies (French)")
	requireContains(t, out, "fr-FR")

	_, _, err = runCLI(t, []string{"mirror", "add", "Movies", filepath.Join(env.baseDir, "mirrors", "dup"), "-a", "French"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "already mirrors") {
		t.Fatalf("expected duplicate source error, got %v", err)
	}

	out, _, err = runCLI(t, []string{"mirror", "remove", m.ID[:8]}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("mirror remove: %v", err)
	}
	requireContains(t, out, "Removed mirror")
	if _, err := os.Stat(filepath.Join(target, rels[0])); err != nil {
		t.Fatalf("target tree should survive mirror removal: %v", err)
	}

	out, _, err = runCLI(t, []string{"mirror", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("mirror list after remove: %v", err)
	}
	requireContains(t, out, "No mirrors configured")
}

func TestCLIMirrorListFallsBackWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	alt := testsupport.NewAlternative(t, env.store, "German", "de")
	testsupport.NewMirror(t, env.store, alt.ID, "lib-src", filepath.Join(env.baseDir, "mirror-de"))

	out, _, err := runCLI(t, []string{"mirror", "list"}, env.missingSocket(), env.configPath)
	if err != nil {
		t.Fatalf("mirror list offline: %v", err)
	}
	requireContains(t, out, "German")
	requireContains(t, out, "lib-src")
	requireContains(t, out, "Pending")
}

func TestCLIMirrorListStatusFilter(t *testing.T) {
	env := setupCLITestEnv(t)
	alt := testsupport.NewAlternative(t, env.store, "German", "de")
	testsupport.NewMirror(t, env.store, alt.ID, "lib-src", filepath.Join(env.baseDir, "mirror-de"))
	synced := testsupport.NewMirror(t, env.store, alt.ID, "lib-docs", filepath.Join(env.baseDir, "docs-de"))

	ctx := context.Background()
	if ok, err := env.store.BeginSync(ctx, synced.ID); err != nil || !ok {
		t.Fatalf("BeginSync: ok=%v err=%v", ok, err)
	}
	if err := env.store.FinishSync(ctx, synced.ID, 3); err != nil {
		t.Fatalf("FinishSync: %v", err)
	}

	out, _, err := runCLI(t, []string{"mirror", "list", "--status", "synced"}, env.missingSocket(), env.configPath)
	if err != nil {
		t.Fatalf("mirror list --status synced: %v", err)
	}
	requireContains(t, out, "lib-docs")
	if strings.Contains(out, "lib-src") {
		t.Fatalf("expected pending mirror to be filtered out, got:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"mirror", "list", "--status", "error"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("mirror list --status error: %v", err)
	}
	requireContains(t, out, "No mirrors with status error")

	_, _, err = runCLI(t, []string{"mirror", "list", "--status", "bogus"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "unknown status") {
		t.Fatalf("expected unknown status error, got %v", err)
	}
}

func TestCLIMirrorHealth(t *testing.T) {
	env := setupCLITestEnv(t)
	alt := testsupport.NewAlternative(t, env.store, "German", "de")
	testsupport.NewMirror(t, env.store, alt.ID, "lib-src", filepath.Join(env.baseDir, "mirror-de"))

	out, _, err := runCLI(t, []string{"mirror", "health"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("mirror health: %v", err)
	}
	requireContains(t, out, "Database exists: yes")
	requireContains(t, out, "Responding to queries: yes")
	requireContains(t, out, "Mirror records: 1")
}

func TestCLIUsersAssignListUnassign(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.NewAlternative(t, env.store, "German", "de")

	out, _, err := runCLI(t, []string{"users", "assign", "user-1", "German"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("users assign: %v", err)
	}
	requireContains(t, out, "User user-1 assigned to German")

	out, _, err = runCLI(t, []string{"users", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("users list: %v", err)
	}
	requireContains(t, out, "user-1")
	requireContains(t, out, "German")

	out, _, err = runCLI(t, []string{"users", "unassign", "user-1"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("users unassign: %v", err)
	}
	requireContains(t, out, "User user-1 unassigned")

	out, _, err = runCLI(t, []string{"users", "unassign", "user-1"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("users unassign repeat: %v", err)
	}
	requireContains(t, out, "User user-1 has no assignment")

	out, _, err = runCLI(t, []string{"users", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("users list after unassign: %v", err)
	}
	requireContains(t, out, "No user assignments")

	_, _, err = runCLI(t, []string{"users", "assign", "user-2", "German"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("users assign user-2: %v", err)
	}

	out, _, err = runCLI(t, []string{"alternative", "remove", "German"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("alternative remove: %v", err)
	}
	requireContains(t, out, "Removed alternative German (0 mirror records, 1 user assignments dropped)")

	out, _, err = runCLI(t, []string{"users", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("users list after remove: %v", err)
	}
	requireContains(t, out, "No user assignments")
}

func TestCLISyncRequestsViaDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	alt := testsupport.NewAlternative(t, env.store, "French", "fr")
	m := testsupport.NewMirror(t, env.store, alt.ID, "lib-src", filepath.Join(env.baseDir, "mirror-fr"))

	out, _, err := runCLI(t, []string{"sync"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	requireContains(t, out, "sync requested for all mirrors")

	out, _, err = runCLI(t, []string{"sync", "--mirror", m.ID[:8]}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("sync --mirror: %v", err)
	}
	requireContains(t, out, "sync requested for mirror "+m.ID)

	_, _, err = runCLI(t, []string{"sync", "-m", "nope"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected unknown mirror error, got %v", err)
	}
}

func TestCLISyncRunsDirectlyWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	source := filepath.Join(env.baseDir, "source")
	rels := testsupport.SeedLibraryTree(t, source)
	libID := env.host.addLibrary("Movies", "movies", source)

	alt := testsupport.NewAlternative(t, env.store, "French", "fr")
	target := filepath.Join(env.baseDir, "mirror-fr")
	m := testsupport.NewMirror(t, env.store, alt.ID, libID, target)
	testsupport.NewMirror(t, env.store, alt.ID, "vanished-lib", filepath.Join(env.baseDir, "mirror-gone"))

	out, _, err := runCLI(t, []string{"sync"}, env.missingSocket(), env.configPath)
	if err != nil {
		t.Fatalf("sync offline: %v", err)
	}
	requireContains(t, out, "source library unavailable")
	requireContains(t, out, "Synchronized 1 mirrors, 1 skipped")

	for _, rel := range rels {
		if _, err := os.Stat(filepath.Join(target, rel)); err != nil {
			t.Fatalf("mirror missing %s: %v", rel, err)
		}
	}
	synced, err := env.store.GetMirror(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("GetMirror: %v", err)
	}
	if synced.Status != mirror.StatusSynced {
		t.Fatalf("status = %s, want synced", synced.Status)
	}
}

func TestCLICleanup(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"cleanup"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	requireContains(t, out, "No orphaned mirrors found")

	source := filepath.Join(env.baseDir, "source")
	testsupport.SeedLibraryTree(t, source)
	libID := env.host.addLibrary("Movies", "movies", source)

	alt := testsupport.NewAlternative(t, env.store, "French", "fr")
	target := filepath.Join(env.baseDir, "mirror-fr")
	testsupport.NewMirror(t, env.store, alt.ID, libID, target)
	testsupport.WriteFile(t, filepath.Join(target, "Movie A (2001)", "Movie A (2001).mkv"), 4096)

	env.host.removeLibrary(libID)

	out, _, err = runCLI(t, []string{"cleanup"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("cleanup after source removal: %v", err)
	}
	requireContains(t, out, "Cleaned 1 orphaned mirrors")
	requireContains(t, out, "freed")
	requireContains(t, out, "source deleted")
	requireContains(t, out, "Source libraries without mirrors: 1")

	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatalf("expected orphaned target tree removed, stat err = %v", err)
	}
}

func TestCLICleanupRunsDirectlyWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	alt := testsupport.NewAlternative(t, env.store, "French", "fr")
	target := filepath.Join(env.baseDir, "mirror-fr")
	testsupport.NewMirror(t, env.store, alt.ID, "vanished-lib", target)
	testsupport.WriteFile(t, filepath.Join(target, "movie.mkv"), 2048)

	out, _, err := runCLI(t, []string{"cleanup"}, env.missingSocket(), env.configPath)
	if err != nil {
		t.Fatalf("cleanup offline: %v", err)
	}
	requireContains(t, out, "Cleaned 1 orphaned mirrors")

	mirrors, err := env.store.ListMirrors(context.Background())
	if err != nil {
		t.Fatalf("ListMirrors: %v", err)
	}
	if len(mirrors) != 0 {
		t.Fatalf("mirrors = %d, want 0 after cleanup", len(mirrors))
	}
}

func TestCLITestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"test-notify"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "ntfy topic not configured")
}

func TestCLITestNotifyRequiresDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"test-notify"}, env.missingSocket(), env.configPath)
	if err == nil || !strings.Contains(err.Error(), "start the daemon") {
		t.Fatalf("expected daemon-not-running error, got %v", err)
	}
}
