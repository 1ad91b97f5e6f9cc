package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"prism/internal/notifications"
	"prism/internal/testsupport"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc := notifications.NewService(cfg)
	if err := svc.NotifySyncCompleted(context.Background(), 3, 0, time.Minute); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsMessages(t *testing.T) {
	var captured struct {
		title    string
		tags     string
		priority string
		body     string
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		captured.title = r.Header.Get("Title")
		captured.tags = r.Header.Get("Tags")
		captured.priority = r.Header.Get("Priority")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		captured.body = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL))
	svc := notifications.NewService(cfg)

	tests := []struct {
		name           string
		send           func() error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "sync completed",
			send: func() error {
				return svc.NotifySyncCompleted(context.Background(), 3, 0, 90*time.Second)
			},
			expectTitle:   "Prism - Sync Complete",
			expectMessage: "Synchronized 3 mirrors in 1m30s",
			expectTags:    "prism,sync,completed",
		},
		{
			name: "sync completed with failures",
			send: func() error {
				return svc.NotifySyncCompleted(context.Background(), 2, 1, 10*time.Second)
			},
			expectTitle:   "Prism - Sync Complete (with errors)",
			expectMessage: "Synchronized 2 mirrors, 1 failed in 10s",
			expectTags:    "prism,sync,completed",
		},
		{
			name: "mirror failed",
			send: func() error {
				return svc.NotifyMirrorFailed(context.Background(), "Movies (Deutsch)", errors.New("walk source: permission denied"))
			},
			expectTitle:    "Prism - Mirror Sync Failed",
			expectMessage:  "❌ Sync failed for Movies (Deutsch): walk source: permission denied",
			expectTags:     "prism,sync,failed",
			expectPriority: "high",
		},
		{
			name: "cleanup completed",
			send: func() error {
				return svc.NotifyCleanupCompleted(context.Background(), 2, 1500000)
			},
			expectTitle:   "Prism - Cleanup Complete",
			expectMessage: "Removed 2 orphaned mirrors, freed 1.5 MB",
			expectTags:    "prism,cleanup,completed",
		},
		{
			name: "test notification",
			send: func() error {
				return svc.TestNotification(context.Background())
			},
			expectTitle:    "Prism - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "prism,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			captured.title, captured.tags, captured.priority, captured.body = "", "", "", ""
			if err := tc.send(); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}
			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceHonorsEventGates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for gated event: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL))
	cfg.Notifications.Sync = false
	cfg.Notifications.Cleanup = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(cfg)
	ctx := context.Background()
	if err := svc.NotifySyncCompleted(ctx, 1, 0, time.Second); err != nil {
		t.Fatalf("gated sync event returned error: %v", err)
	}
	if err := svc.NotifyCleanupCompleted(ctx, 1, 100); err != nil {
		t.Fatalf("gated cleanup event returned error: %v", err)
	}
	if err := svc.NotifyMirrorFailed(ctx, "Movies", errors.New("boom")); err != nil {
		t.Fatalf("gated error event returned error: %v", err)
	}
}

func TestNtfyServiceSkipsEmptyCleanup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for empty cleanup: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL))
	svc := notifications.NewService(cfg)
	if err := svc.NotifyCleanupCompleted(context.Background(), 0, 0); err != nil {
		t.Fatalf("empty cleanup returned error: %v", err)
	}
}
