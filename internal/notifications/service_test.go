package notifications

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"medley/internal/testsupport"
)

func newNtfyServer(t *testing.T) (*httptest.Server, *atomic.Int32, *atomic.Value) {
	t.Helper()
	var count atomic.Int32
	var lastTitle atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count.Add(1)
		lastTitle.Store(r.Header.Get("Title"))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, &count, &lastTitle
}

func newNtfyService(t *testing.T, url string) *ntfyService {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = url
	cfg.Notifications.ScanComplete = true
	cfg.Notifications.IndexComplete = true
	cfg.Notifications.Errors = true
	cfg.Notifications.DedupWindowSeconds = 60
	service, ok := NewService(cfg).(*ntfyService)
	if !ok {
		t.Fatal("expected ntfy-backed service")
	}
	return service
}

func TestNewServiceReturnsNoopWithoutTopic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, ok := NewService(cfg).(noopService); !ok {
		t.Fatal("expected noop service when topic unset")
	}
}

func TestNotifyScanCompletedPostsToTopic(t *testing.T) {
	server, count, lastTitle := newNtfyServer(t)
	service := newNtfyService(t, server.URL)

	if err := service.NotifyScanCompleted(context.Background(), 3, 1, 0); err != nil {
		t.Fatalf("NotifyScanCompleted failed: %v", err)
	}
	if count.Load() != 1 {
		t.Fatalf("expected 1 request, got %d", count.Load())
	}
	if got := lastTitle.Load(); got != "Medley - Scan Complete" {
		t.Fatalf("unexpected title: %v", got)
	}
}

func TestNotifyErrorDeduplicatesWithinWindow(t *testing.T) {
	server, count, _ := newNtfyServer(t)
	service := newNtfyService(t, server.URL)

	now := time.Now()
	service.now = func() time.Time { return now }

	failure := errors.New("ollama unreachable")
	if err := service.NotifyError(context.Background(), failure, "embedding"); err != nil {
		t.Fatalf("first NotifyError failed: %v", err)
	}
	if err := service.NotifyError(context.Background(), failure, "embedding"); err != nil {
		t.Fatalf("second NotifyError failed: %v", err)
	}
	if count.Load() != 1 {
		t.Fatalf("expected duplicate to be suppressed, got %d requests", count.Load())
	}

	now = now.Add(2 * time.Minute)
	if err := service.NotifyError(context.Background(), failure, "embedding"); err != nil {
		t.Fatalf("third NotifyError failed: %v", err)
	}
	if count.Load() != 2 {
		t.Fatalf("expected resend after window, got %d requests", count.Load())
	}
}

func TestDisabledCategoriesAreSilent(t *testing.T) {
	server, count, _ := newNtfyServer(t)
	service := newNtfyService(t, server.URL)
	service.scanEnabled = false
	service.indexEnabled = false
	service.errorsEnabled = false

	_ = service.NotifyScanCompleted(context.Background(), 1, 0, 0)
	_ = service.NotifyIndexingCompleted(context.Background(), 1, 0, time.Second)
	_ = service.NotifyError(context.Background(), errors.New("x"), "y")
	if count.Load() != 0 {
		t.Fatalf("expected no requests, got %d", count.Load())
	}
}

func TestNtfyErrorStatusSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)
	service := newNtfyService(t, server.URL)

	if err := service.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error from non-2xx response")
	}
}
