package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"medley/internal/library"
	"medley/internal/testsupport"
)

func TestCLIScanAndList(t *testing.T) {
	env := setupCLITestEnv(t)

	if err := os.WriteFile(filepath.Join(env.mediaRoot, "holiday.mkv"), []byte("video"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "scan")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	requireContains(t, out, "Added:        1")

	out, _, err = runCLI(t, env.configPath, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "holiday.mkv")
	requireContains(t, out, "pending")

	out, _, err = runCLI(t, env.configPath, "list", "--status", "indexed")
	if err != nil {
		t.Fatalf("list --status indexed: %v", err)
	}
	requireContains(t, out, "Catalog is empty")

	if _, _, err := runCLI(t, env.configPath, "list", "--status", "bogus"); err == nil {
		t.Fatal("expected error for unknown status filter")
	}
}

func TestCLIListJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	path := filepath.Join(env.mediaRoot, "song.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	item := testsupport.SeedItem(t, env.store, path, library.MediaTypeAudio)
	item.Title = "Song"
	item.SetTags([]string{"jazz"})
	if err := env.store.Update(ctx, item); err != nil {
		t.Fatalf("update item: %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "list", "--json")
	if err != nil {
		t.Fatalf("list --json: %v", err)
	}
	var payload struct {
		Items []struct {
			ID    int64    `json:"id"`
			Title string   `json:"title"`
			Tags  []string `json:"tags"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode list JSON: %v\n%s", err, out)
	}
	if len(payload.Items) != 1 || payload.Items[0].Title != "Song" || len(payload.Items[0].Tags) != 1 {
		t.Fatalf("unexpected JSON payload: %+v", payload)
	}
}

func TestCLIShowAndTags(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	path := filepath.Join(env.mediaRoot, "sunset.jpg")
	if err := os.WriteFile(path, []byte("img"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	item := testsupport.SeedItem(t, env.store, path, library.MediaTypeImage)
	item.Title = "Sunset"
	item.Description = "An orange sunset over water"
	item.SetTags([]string{"sunset", "landscape"})
	if err := env.store.Update(ctx, item); err != nil {
		t.Fatalf("update item: %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "show", "1")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, "Sunset")
	requireContains(t, out, "landscape, sunset")
	requireContains(t, out, "An orange sunset over water")

	if _, _, err := runCLI(t, env.configPath, "show", "999"); err == nil {
		t.Fatal("expected error for unknown item")
	}

	out, _, err = runCLI(t, env.configPath, "tags")
	if err != nil {
		t.Fatalf("tags: %v", err)
	}
	requireContains(t, out, "sunset")
	requireContains(t, out, "landscape")
}

func TestCLIRetryAndRemove(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	path := filepath.Join(env.mediaRoot, "broken.mkv")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	item := testsupport.SeedItem(t, env.store, path, library.MediaTypeVideo)
	item.SetFailed("probe exploded")
	if err := env.store.Update(ctx, item); err != nil {
		t.Fatalf("update item: %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "retry")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	requireContains(t, out, "Requeued 1 failed items")

	updated, err := env.store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID after retry: %v", err)
	}
	if updated.Status != library.StatusPending {
		t.Fatalf("expected pending after retry, got %s", updated.Status)
	}

	out, _, err = runCLI(t, env.configPath, "remove", "1")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	requireContains(t, out, "Removed item 1")

	gone, err := env.store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID after remove: %v", err)
	}
	if gone != nil {
		t.Fatal("expected item removed from catalog")
	}

	if _, _, err := runCLI(t, env.configPath, "remove"); err == nil {
		t.Fatal("expected error when neither IDs nor --missing given")
	}
}

func TestCLIStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Catalog")
	requireContains(t, out, "Dependencies")
	requireContains(t, out, "Ollama")
}

func TestCLIHelpWithoutConfig(t *testing.T) {
	cmd := newRootCommand()
	var stdout strings.Builder
	cmd.SetOut(&stdout)
	cmd.SetErr(&strings.Builder{})
	cmd.SetArgs([]string{"--help"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("help: %v", err)
	}
	requireContains(t, stdout.String(), "medley")
}
