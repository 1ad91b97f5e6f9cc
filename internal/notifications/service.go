package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"prism/internal/config"
)

const userAgent = "Prism/0.1.0"

// Service defines the notification surface exposed to the sync engine.
type Service interface {
	NotifySyncCompleted(ctx context.Context, synced, failed int, duration time.Duration) error
	NotifyMirrorFailed(ctx context.Context, mirrorName string, cause error) error
	NotifyCleanupCompleted(ctx context.Context, cleaned int, bytesFreed int64) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		syncEvents:  cfg.Notifications.Sync,
		cleanEvents: cfg.Notifications.Cleanup,
		errorEvents: cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	syncEvents  bool
	cleanEvents bool
	errorEvents bool
}

func (n *ntfyService) NotifySyncCompleted(ctx context.Context, synced, failed int, duration time.Duration) error {
	if !n.syncEvents {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration <= 0 {
		duration = 0
	}

	var title, message string
	if failed == 0 {
		title = "Prism - Sync Complete"
		message = fmt.Sprintf("Synchronized %d mirrors in %s", synced, duration)
	} else {
		title = "Prism - Sync Complete (with errors)"
		message = fmt.Sprintf("Synchronized %d mirrors, %d failed in %s", synced, failed, duration)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"prism", "sync", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyMirrorFailed(ctx context.Context, mirrorName string, cause error) error {
	if !n.errorEvents {
		return nil
	}
	mirrorName = strings.TrimSpace(mirrorName)
	reason := "unknown"
	if cause != nil {
		reason = strings.TrimSpace(cause.Error())
	}
	data := payload{
		title:    "Prism - Mirror Sync Failed",
		message:  fmt.Sprintf("❌ Sync failed for %s: %s", mirrorName, reason),
		tags:     []string{"prism", "sync", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyCleanupCompleted(ctx context.Context, cleaned int, bytesFreed int64) error {
	if !n.cleanEvents {
		return nil
	}
	if cleaned == 0 {
		return nil
	}
	freed := humanize.Bytes(uint64(bytesFreed))
	data := payload{
		title:   "Prism - Cleanup Complete",
		message: fmt.Sprintf("Removed %d orphaned mirrors, freed %s", cleaned, freed),
		tags:    []string{"prism", "cleanup", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errorEvents {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Prism - Error",
		message:  builder.String(),
		tags:     []string{"prism", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Prism - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"prism", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifySyncCompleted(context.Context, int, int, time.Duration) error { return nil }
func (noopService) NotifyMirrorFailed(context.Context, string, error) error            { return nil }
func (noopService) NotifyCleanupCompleted(context.Context, int, int64) error           { return nil }
func (noopService) NotifyError(context.Context, error, string) error                   { return nil }
func (noopService) TestNotification(context.Context) error                             { return nil }
