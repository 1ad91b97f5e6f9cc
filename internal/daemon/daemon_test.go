package daemon_test

import (
	"context"
	"os"
	"testing"

	"prism/internal/daemon"
	"prism/internal/logging"
	"prism/internal/mirror"
	"prism/internal/services/jellyfin"
	"prism/internal/testsupport"
)

type stubHost struct {
	libraries []jellyfin.VirtualLibrary
}

func (s *stubHost) ListLibraries(ctx context.Context) ([]jellyfin.VirtualLibrary, error) {
	return s.libraries, nil
}

func (s *stubHost) AddLibrary(ctx context.Context, req jellyfin.AddLibraryRequest) error {
	return nil
}

func (s *stubHost) RefreshLibrary(ctx context.Context, libraryID string, opts jellyfin.RefreshOptions) error {
	return nil
}

func (s *stubHost) SystemInfo(ctx context.Context) (jellyfin.SystemInfo, error) {
	return jellyfin.SystemInfo{ServerName: "stub"}, nil
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, store, &stubHost{}, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.DatabasePath != cfg.DatabasePath() {
		t.Fatalf("DatabasePath = %q, want %q", status.DatabasePath, cfg.DatabasePath())
	}
	if status.LockFilePath != cfg.LockPath() {
		t.Fatalf("LockFilePath = %q, want %q", status.LockFilePath, cfg.LockPath())
	}
	if status.PID != os.Getpid() {
		t.Fatalf("PID = %d, want %d", status.PID, os.Getpid())
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	status = d.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	first, err := daemon.New(cfg, store, &stubHost{}, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { first.Close() })

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer first.Stop()

	secondStore := testsupport.MustOpenStore(t, cfg)
	second, err := daemon.New(cfg, secondStore, &stubHost{}, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected second instance to be refused")
	}
}

func TestDaemonResetsInterruptedSyncs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	alt := testsupport.NewAlternative(t, store, "French", "fr-FR")
	m := testsupport.NewMirror(t, store, alt.ID, "lib1", t.TempDir())

	ctx := context.Background()
	claimed, err := store.BeginSync(ctx, m.ID)
	if err != nil || !claimed {
		t.Fatalf("BeginSync: claimed=%v err=%v", claimed, err)
	}

	d, err := daemon.New(cfg, store, &stubHost{}, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	got, err := store.GetMirror(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMirror: %v", err)
	}
	if got.Status != mirror.StatusPending {
		t.Fatalf("status = %q, want %q", got.Status, mirror.StatusPending)
	}
	if got.ProgressMessage != mirror.InterruptedMessage {
		t.Fatalf("progress message = %q, want %q", got.ProgressMessage, mirror.InterruptedMessage)
	}
}

func TestDaemonTestNotificationWithoutTopic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, store, &stubHost{}, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	sent, message, err := d.TestNotification(context.Background())
	if err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if sent {
		t.Fatal("expected notification to be skipped without a topic")
	}
	if message != "ntfy topic not configured" {
		t.Fatalf("message = %q", message)
	}
}
