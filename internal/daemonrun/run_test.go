package daemonrun_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"prism/internal/daemonctl"
	"prism/internal/daemonrun"
	"prism/internal/testsupport"
)

func TestRunServesIPC(t *testing.T) {
	jellyfinSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/Library/VirtualFolders" {
			_, _ = w.Write([]byte("[]"))
			return
		}
		_, _ = w.Write([]byte("{}"))
	}))
	defer jellyfinSrv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithJellyfin(jellyfinSrv.URL, "test"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- daemonrun.Run(ctx, cfg)
	}()

	// The socket comes up before Start finishes, so poll until the daemon
	// reports its services running.
	deadline := time.Now().Add(5 * time.Second)
	for {
		client, err := daemonctl.WaitForClient(cfg.SocketPath(), time.Second)
		if err == nil {
			status, statusErr := client.Status()
			_ = client.Close()
			if statusErr == nil && status.Running {
				if status.PID != os.Getpid() {
					t.Fatalf("PID = %d, want %d", status.PID, os.Getpid())
				}
				break
			}
		}
		if time.Now().After(deadline) {
			t.Fatal("daemon never reported running")
		}
		time.Sleep(100 * time.Millisecond)
	}

	pid, err := daemonctl.ReadPID(cfg.PIDPath())
	if err != nil {
		t.Fatalf("ReadPID: %v", err)
	}
	if pid != os.Getpid() {
		t.Fatalf("pid file = %d, want %d", pid, os.Getpid())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not shut down")
	}

	if _, err := os.Stat(cfg.PIDPath()); !os.IsNotExist(err) {
		t.Fatalf("pid file should be removed on shutdown, stat err = %v", err)
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if err := daemonrun.Run(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}
