package api

import (
	"context"
	"testing"
	"time"

	"medley/internal/library"
	"medley/internal/search"
	"medley/internal/testsupport"
)

func TestFromItemCopiesFields(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	item := &library.Item{
		ID:            7,
		Path:          "/media/film.mkv",
		Title:         "Film",
		MediaType:     library.MediaTypeVideo,
		Status:        library.StatusIndexed,
		SizeBytes:     1024,
		Description:   "a film",
		MediaInfoJSON: `{"streams":[]}`,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	item.SetTags([]string{"drama"})

	dto := FromItem(item)
	if dto.ID != 7 || dto.Path != "/media/film.mkv" || dto.Status != "indexed" {
		t.Fatalf("unexpected dto: %+v", dto)
	}
	if len(dto.Tags) != 1 || dto.Tags[0] != "drama" {
		t.Fatalf("unexpected tags: %v", dto.Tags)
	}
	if dto.CreatedAt == "" || dto.MediaInfo == nil {
		t.Fatalf("expected timestamps and media info, got %+v", dto)
	}
}

func TestFromItemSkipsInvalidMediaInfo(t *testing.T) {
	dto := FromItem(&library.Item{MediaInfoJSON: "{broken"})
	if dto.MediaInfo != nil {
		t.Fatal("expected invalid media info to be dropped")
	}
}

func TestFromMatches(t *testing.T) {
	matches := []search.Match{
		{Item: &library.Item{ID: 1}, Similarity: 0.9},
		{Item: &library.Item{ID: 2}, Similarity: 0.5},
	}
	dtos := FromMatches(matches)
	if len(dtos) != 2 || dtos[0].Similarity != 0.9 || dtos[1].Item.ID != 2 {
		t.Fatalf("unexpected matches: %+v", dtos)
	}
}

func TestSortItemsNewestFirst(t *testing.T) {
	items := []MediaItem{
		{ID: 1, CreatedAt: "2026-01-01T00:00:00.000Z"},
		{ID: 3, CreatedAt: "2026-02-01T00:00:00.000Z"},
		{ID: 2, CreatedAt: "2026-02-01T00:00:00.000Z"},
	}
	sorted := SortItemsNewestFirst(items)
	if sorted[0].ID != 3 || sorted[1].ID != 2 || sorted[2].ID != 1 {
		t.Fatalf("unexpected order: %+v", sorted)
	}
}

func TestCatalogServiceRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	service := NewCatalogService(store)

	path := testsupport.WriteMediaFile(t, cfg, "svc.mp3", []byte("x"))
	seeded := testsupport.SeedItem(t, store, path, library.MediaTypeAudio)

	items, err := service.List(context.Background())
	if err != nil || len(items) != 1 {
		t.Fatalf("List = %v, %v", items, err)
	}

	dto, err := service.Describe(context.Background(), seeded.ID)
	if err != nil || dto == nil || dto.ID != seeded.ID {
		t.Fatalf("Describe = %v, %v", dto, err)
	}

	missing, err := service.Describe(context.Background(), 9999)
	if err != nil || missing != nil {
		t.Fatalf("expected nil for unknown id, got %v, %v", missing, err)
	}

	counts, err := service.Stats(context.Background())
	if err != nil || counts["pending"] != 1 {
		t.Fatalf("Stats = %v, %v", counts, err)
	}

	removed, err := service.Remove(context.Background(), seeded.ID)
	if err != nil || !removed {
		t.Fatalf("Remove = %v, %v", removed, err)
	}
}
