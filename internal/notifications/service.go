package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"medley/internal/config"
)

const userAgent = "Medley-Go/0.1.0"

// Service defines the notification surface exposed to the daemon and workflow.
type Service interface {
	NotifyScanCompleted(ctx context.Context, added, changed, missing int) error
	NotifyIndexingCompleted(ctx context.Context, indexed, failed int, duration time.Duration) error
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
	dedup := time.Duration(cfg.Notifications.DedupWindowSeconds) * time.Second

	return &ntfyService{
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		scanEnabled:   cfg.Notifications.ScanComplete,
		indexEnabled:  cfg.Notifications.IndexComplete,
		errorsEnabled: cfg.Notifications.Errors,
		dedupWindow:   dedup,
		recentErrors:  make(map[string]time.Time),
		now:           time.Now,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	scanEnabled   bool
	indexEnabled  bool
	errorsEnabled bool
	dedupWindow   time.Duration
	now           func() time.Time

	mu           sync.Mutex
	recentErrors map[string]time.Time
}

func (n *ntfyService) NotifyScanCompleted(ctx context.Context, added, changed, missing int) error {
	if !n.scanEnabled {
		return nil
	}
	data := payload{
		title:   "Medley - Scan Complete",
		message: fmt.Sprintf("Library scan complete: %d added, %d changed, %d missing", added, changed, missing),
		tags:    []string{"medley", "scan", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyIndexingCompleted(ctx context.Context, indexed, failed int, duration time.Duration) error {
	if !n.indexEnabled {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	var title, message string
	if failed == 0 {
		title = "Medley - Indexing Complete"
		message = fmt.Sprintf("Indexing complete: %d items indexed in %s", indexed, duration)
	} else {
		title = "Medley - Indexing Complete (with errors)"
		message = fmt.Sprintf("Indexing complete: %d indexed, %d failed in %s", indexed, failed, duration)
	}
	data := payload{
		title:   title,
		message: message,
		tags:    []string{"medley", "index", "completed"},
	}
	return n.send(ctx, data)
}

// NotifyError suppresses repeats of the same error text inside the dedup
// window so a flapping dependency does not flood the topic.
func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errorsEnabled {
		return nil
	}

	var builder strings.Builder
	builder.WriteString("Error")
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
	message := builder.String()

	if n.suppressed(message) {
		return nil
	}

	data := payload{
		title:    "Medley - Error",
		message:  message,
		tags:     []string{"medley", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) suppressed(message string) bool {
	if n.dedupWindow <= 0 {
		return false
	}
	now := n.now()
	n.mu.Lock()
	defer n.mu.Unlock()
	if last, ok := n.recentErrors[message]; ok && now.Sub(last) < n.dedupWindow {
		return true
	}
	n.recentErrors[message] = now
	for key, seen := range n.recentErrors {
		if now.Sub(seen) >= n.dedupWindow {
			delete(n.recentErrors, key)
		}
	}
	return false
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Medley - Test",
		message:  "Notification system test",
		tags:     []string{"medley", "test"},
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

func (noopService) NotifyScanCompleted(context.Context, int, int, int) error { return nil }
func (noopService) NotifyIndexingCompleted(context.Context, int, int, time.Duration) error {
	return nil
}
func (noopService) NotifyError(context.Context, error, string) error { return nil }
func (noopService) TestNotification(context.Context) error           { return nil }
