package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"medley/internal/library"
	"medley/internal/testsupport"
)

func TestCLICollectionLifecycle(t *testing.T) {
	env := setupCLITestEnv(t)

	path := filepath.Join(env.mediaRoot, "keeper.mkv")
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	item := testsupport.SeedItem(t, env.store, path, library.MediaTypeVideo)

	out, _, err := runCLI(t, env.configPath, "collection", "list")
	if err != nil {
		t.Fatalf("collection list: %v", err)
	}
	requireContains(t, out, "No collections yet")

	out, _, err = runCLI(t, env.configPath, "collection", "create", "Favorites", "-d", "the keepers")
	if err != nil {
		t.Fatalf("collection create: %v", err)
	}
	requireContains(t, out, `Created collection "Favorites"`)

	if _, _, err := runCLI(t, env.configPath, "collection", "create", "Favorites"); err == nil {
		t.Fatal("expected error creating duplicate collection")
	}

	out, _, err = runCLI(t, env.configPath, "collection", "add", "Favorites", "1", "999")
	if err != nil {
		t.Fatalf("collection add: %v", err)
	}
	requireContains(t, out, `Added item 1 to "Favorites"`)
	requireContains(t, out, "Item 999 not found")

	out, _, err = runCLI(t, env.configPath, "collection", "add", "Favorites", "1")
	if err != nil {
		t.Fatalf("collection add: %v", err)
	}
	requireContains(t, out, `Item 1 is already in "Favorites"`)

	out, _, err = runCLI(t, env.configPath, "collection", "show", "Favorites")
	if err != nil {
		t.Fatalf("collection show: %v", err)
	}
	requireContains(t, out, "Favorites (1 items)")
	requireContains(t, out, "the keepers")
	requireContains(t, out, "keeper.mkv")

	if _, _, err := runCLI(t, env.configPath, "collection", "show", "Nonexistent"); err == nil {
		t.Fatal("expected error for unknown collection")
	}

	out, _, err = runCLI(t, env.configPath, "collection", "remove", "Favorites", "1")
	if err != nil {
		t.Fatalf("collection remove: %v", err)
	}
	requireContains(t, out, `Removed item 1 from "Favorites"`)

	out, _, err = runCLI(t, env.configPath, "collection", "prune")
	if err != nil {
		t.Fatalf("collection prune: %v", err)
	}
	requireContains(t, out, "Deleted 1 empty collections")

	// The catalog item outlives its collections.
	got, err := env.store.GetByID(context.Background(), item.ID)
	if err != nil || got == nil {
		t.Fatalf("expected item to survive, got %v, %v", got, err)
	}
}

func TestCLICollectionDelete(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, env.configPath, "collection", "create", "Doomed"); err != nil {
		t.Fatalf("collection create: %v", err)
	}
	out, _, err := runCLI(t, env.configPath, "collection", "delete", "Doomed")
	if err != nil {
		t.Fatalf("collection delete: %v", err)
	}
	requireContains(t, out, `Deleted collection "Doomed"`)

	out, _, err = runCLI(t, env.configPath, "collection", "list")
	if err != nil {
		t.Fatalf("collection list: %v", err)
	}
	requireContains(t, out, "No collections yet")
}
