package library_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"medley/internal/library"
	"medley/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewScannedFile(ctx, "/media/movies/heat.mkv", library.MediaTypeVideo, "abc123", 4096, time.Now())
	if err != nil {
		t.Fatalf("NewScannedFile failed: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected item ID to be assigned")
	}
	if item.Status != library.StatusPending {
		t.Fatalf("expected pending status, got %s", item.Status)
	}

	fetched, err := store.GetByPath(ctx, "/media/movies/heat.mkv")
	if err != nil {
		t.Fatalf("GetByPath failed: %v", err)
	}
	if fetched == nil || fetched.ID != item.ID {
		t.Fatalf("unexpected fetched item: %#v", fetched)
	}
}

func TestNewScannedFileRequiresHash(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := store.NewScannedFile(context.Background(), "/media/a.mkv", library.MediaTypeVideo, "", 1, time.Now()); err == nil {
		t.Fatal("expected error when content hash missing")
	}
}

func TestFindByHashExcludesOwnPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if _, err := store.NewScannedFile(ctx, "/media/a.mkv", library.MediaTypeVideo, "samehash", 1, time.Now()); err != nil {
		t.Fatalf("insert a: %v", err)
	}
	if _, err := store.NewScannedFile(ctx, "/media/b.mkv", library.MediaTypeVideo, "samehash", 1, time.Now()); err != nil {
		t.Fatalf("insert b: %v", err)
	}

	dupes, err := store.FindByHash(ctx, "samehash", "/media/a.mkv")
	if err != nil {
		t.Fatalf("FindByHash failed: %v", err)
	}
	if len(dupes) != 1 || dupes[0].Path != "/media/b.mkv" {
		t.Fatalf("unexpected duplicates: %#v", dupes)
	}
}

func TestUpdateRoundTripsTagsAndMetadata(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewScannedFile(ctx, "/media/photo.jpg", library.MediaTypeImage, "h1", 10, time.Now())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	item.Title = "Photo"
	item.Status = library.StatusTagged
	item.Description = "A sunset over water"
	item.SetTags([]string{"Sunset", "water", "sunset", " "})
	item.MediaInfoJSON = `{"format":{"format_name":"image2"}}`
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	tags := fetched.Tags()
	if len(tags) != 2 || tags[0] != "sunset" || tags[1] != "water" {
		t.Fatalf("unexpected tags: %v", tags)
	}
	if fetched.Description != "A sunset over water" {
		t.Fatalf("unexpected description: %q", fetched.Description)
	}
	if fetched.Status != library.StatusTagged {
		t.Fatalf("unexpected status: %s", fetched.Status)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	cases := []struct {
		name          string
		initialStatus library.Status
		expected      library.Status
	}{
		{"probing", library.StatusProbing, library.StatusPending},
		{"tagging", library.StatusTagging, library.StatusProbed},
		{"embedding", library.StatusEmbedding, library.StatusTagged},
	}
	var ids []int64
	for i, tc := range cases {
		item, err := store.NewScannedFile(ctx, fmt.Sprintf("/media/%s.mkv", tc.name), library.MediaTypeVideo, fmt.Sprintf("hash-%d", i), 1, time.Now())
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		item.Status = tc.initialStatus
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		ids = append(ids, item.ID)
	}

	reset, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if reset != int64(len(cases)) {
		t.Fatalf("expected %d resets, got %d", len(cases), reset)
	}
	for i, tc := range cases {
		item, err := store.GetByID(ctx, ids[i])
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if item.Status != tc.expected {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.expected, item.Status)
		}
	}
}

func TestReclaimStaleProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewScannedFile(ctx, "/media/stale.mkv", library.MediaTypeVideo, "h-stale", 1, time.Now())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	item.Status = library.StatusProbing
	stale := time.Now().Add(-10 * time.Minute)
	item.LastHeartbeat = &stale
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	reclaimed, err := store.ReclaimStaleProcessing(ctx, time.Now().Add(-5*time.Minute), library.ProcessingStatuses()...)
	if err != nil {
		t.Fatalf("ReclaimStaleProcessing failed: %v", err)
	}
	if reclaimed != 1 {
		t.Fatalf("expected 1 reclaimed, got %d", reclaimed)
	}
	fetched, _ := store.GetByID(ctx, item.ID)
	if fetched.Status != library.StatusPending {
		t.Fatalf("expected pending after reclaim, got %s", fetched.Status)
	}

	// A fresh heartbeat must survive.
	fetched.Status = library.StatusProbing
	fresh := time.Now()
	fetched.LastHeartbeat = &fresh
	if err := store.Update(ctx, fetched); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	reclaimed, err = store.ReclaimStaleProcessing(ctx, time.Now().Add(-5*time.Minute), library.ProcessingStatuses()...)
	if err != nil {
		t.Fatalf("ReclaimStaleProcessing failed: %v", err)
	}
	if reclaimed != 0 {
		t.Fatalf("expected no reclaims for fresh heartbeat, got %d", reclaimed)
	}
}

func TestNextForStatusesOrdersByCreation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first, err := store.NewScannedFile(ctx, "/media/first.mkv", library.MediaTypeVideo, "h1", 1, time.Now())
	if err != nil {
		t.Fatalf("insert first: %v", err)
	}
	if _, err := store.NewScannedFile(ctx, "/media/second.mkv", library.MediaTypeVideo, "h2", 1, time.Now()); err != nil {
		t.Fatalf("insert second: %v", err)
	}

	next, err := store.NextForStatuses(ctx, library.StatusPending)
	if err != nil {
		t.Fatalf("NextForStatuses failed: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("expected first item, got %#v", next)
	}
}

func TestMarkMissingAndRediscover(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewScannedFile(ctx, "/media/gone.mkv", library.MediaTypeVideo, "h-gone", 1, time.Now())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	marked, err := store.MarkMissing(ctx, []string{"/media/gone.mkv"})
	if err != nil {
		t.Fatalf("MarkMissing failed: %v", err)
	}
	if marked != 1 {
		t.Fatalf("expected 1 marked, got %d", marked)
	}

	index, err := store.PathIndex(ctx)
	if err != nil {
		t.Fatalf("PathIndex failed: %v", err)
	}
	if _, ok := index["/media/gone.mkv"]; ok {
		t.Fatal("missing item should not appear in path index")
	}

	if err := store.Rediscover(ctx, item.ID, "h-new", 2, time.Now()); err != nil {
		t.Fatalf("Rediscover failed: %v", err)
	}
	fetched, _ := store.GetByID(ctx, item.ID)
	if fetched.Status != library.StatusPending || fetched.ContentHash != "h-new" {
		t.Fatalf("unexpected rediscovered item: %#v", fetched)
	}
}

func TestRetryFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewScannedFile(ctx, "/media/bad.mkv", library.MediaTypeVideo, "h-bad", 1, time.Now())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	item.SetFailed("probe exploded")
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	retried, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if retried != 1 {
		t.Fatalf("expected 1 retried, got %d", retried)
	}
	fetched, _ := store.GetByID(ctx, item.ID)
	if fetched.Status != library.StatusPending || fetched.ErrorMessage != "" {
		t.Fatalf("unexpected retried item: %#v", fetched)
	}
}

func TestEmbeddingRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewScannedFile(ctx, "/media/vec.mkv", library.MediaTypeVideo, "h-vec", 1, time.Now())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	blob := []byte{1, 2, 3, 4}
	if err := store.SetEmbedding(ctx, item.ID, "nomic-embed-text", blob); err != nil {
		t.Fatalf("SetEmbedding failed: %v", err)
	}

	record, err := store.Embedding(ctx, item.ID)
	if err != nil {
		t.Fatalf("Embedding failed: %v", err)
	}
	if record == nil || record.Model != "nomic-embed-text" || len(record.Vector) != 4 {
		t.Fatalf("unexpected embedding record: %#v", record)
	}

	records, err := store.Embeddings(ctx)
	if err != nil {
		t.Fatalf("Embeddings failed: %v", err)
	}
	if len(records) != 1 || records[0].ItemID != item.ID {
		t.Fatalf("unexpected embeddings: %#v", records)
	}

	// Missing items fall out of the ranking set.
	if _, err := store.MarkMissing(ctx, []string{item.Path}); err != nil {
		t.Fatalf("MarkMissing failed: %v", err)
	}
	records, err = store.Embeddings(ctx)
	if err != nil {
		t.Fatalf("Embeddings after missing failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no embeddings for missing item, got %d", len(records))
	}
}

func TestTagCounts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	for i, tags := range [][]string{{"jazz", "live"}, {"jazz"}, nil} {
		item, err := store.NewScannedFile(ctx, fmt.Sprintf("/media/t%d.flac", i), library.MediaTypeAudio, fmt.Sprintf("h-t%d", i), 1, time.Now())
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		if tags != nil {
			item.SetTags(tags)
			if err := store.Update(ctx, item); err != nil {
				t.Fatalf("Update failed: %v", err)
			}
		}
	}

	counts, err := store.TagCounts(ctx)
	if err != nil {
		t.Fatalf("TagCounts failed: %v", err)
	}
	if counts["jazz"] != 2 || counts["live"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}

	matched, err := store.ItemsByTag(ctx, "JAZZ")
	if err != nil {
		t.Fatalf("ItemsByTag failed: %v", err)
	}
	if len(matched) != 2 {
		t.Fatalf("expected 2 jazz items, got %d", len(matched))
	}
}

func TestHealthSummary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	statuses := []library.Status{
		library.StatusPending,
		library.StatusProbing,
		library.StatusIndexed,
		library.StatusFailed,
	}
	for i, status := range statuses {
		item, err := store.NewScannedFile(ctx, fmt.Sprintf("/media/h%d.mkv", i), library.MediaTypeVideo, fmt.Sprintf("h-h%d", i), 1, time.Now())
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		item.Status = status
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}

	summary, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if summary.Total != 4 || summary.Pending != 1 || summary.Processing != 1 || summary.Indexed != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
}

func TestReclaimStaleProcessingSubSecondCutoff(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewScannedFile(ctx, "/media/precise.mkv", library.MediaTypeVideo, "h-precise", 1, time.Now())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	item.Status = library.StatusProbing
	// A heartbeat whose fraction ends in zeros. Stored timestamps must keep
	// every digit so a cutoff a few nanoseconds later still compares greater
	// as a string; a trimmed encoding like "...05.1Z" would sort after
	// "...05.100000100Z" and the row would never be reclaimed.
	heartbeat := time.Date(2026, 3, 14, 9, 26, 5, 100_000_000, time.UTC)
	item.LastHeartbeat = &heartbeat
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	cutoff := heartbeat.Add(100 * time.Nanosecond)
	reclaimed, err := store.ReclaimStaleProcessing(ctx, cutoff, library.ProcessingStatuses()...)
	if err != nil {
		t.Fatalf("ReclaimStaleProcessing failed: %v", err)
	}
	if reclaimed != 1 {
		t.Fatalf("expected 1 reclaimed, got %d", reclaimed)
	}
	fetched, _ := store.GetByID(ctx, item.ID)
	if fetched.Status != library.StatusPending {
		t.Fatalf("expected pending after reclaim, got %s", fetched.Status)
	}
}

func TestThumbnailPathPersistsAndClearsOnRequeue(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	modTime := time.Now()
	item, err := store.NewScannedFile(ctx, "/media/clip.mkv", library.MediaTypeVideo, "h-clip", 64, modTime)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	item.Status = library.StatusIndexed
	item.ThumbnailPath = "/data/thumbnails/1.jpg"
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.ThumbnailPath != "/data/thumbnails/1.jpg" {
		t.Fatalf("unexpected thumbnail path: %q", fetched.ThumbnailPath)
	}

	// Content changes send the item back through the pipeline and drop the
	// stale derived fields, the thumbnail included.
	if err := store.RequeueChanged(ctx, item.ID, "h-clip-v2", 65, modTime.Add(time.Minute)); err != nil {
		t.Fatalf("RequeueChanged failed: %v", err)
	}
	fetched, err = store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.ThumbnailPath != "" {
		t.Fatalf("expected thumbnail cleared on requeue, got %q", fetched.ThumbnailPath)
	}
}
