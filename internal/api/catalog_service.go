package api

import (
	"context"

	"medley/internal/library"
)

// CatalogReader abstracts catalog persistence interactions needed for API queries.
type CatalogReader interface {
	List(ctx context.Context, statuses ...library.Status) ([]*library.Item, error)
	Stats(ctx context.Context) (map[library.Status]int, error)
	GetByID(ctx context.Context, id int64) (*library.Item, error)
	TagCounts(ctx context.Context) (map[string]int, error)
	ItemsByTag(ctx context.Context, tag string) ([]*library.Item, error)
	Remove(ctx context.Context, id int64) (bool, error)
	RetryFailed(ctx context.Context, ids ...int64) (int64, error)
	ListCollections(ctx context.Context) ([]*library.Collection, error)
	GetCollection(ctx context.Context, id int64) (*library.Collection, error)
	CreateCollection(ctx context.Context, name, description string) (*library.Collection, error)
	DeleteCollection(ctx context.Context, id int64) (bool, error)
	AddToCollection(ctx context.Context, collectionID, itemID int64) (bool, error)
	RemoveFromCollection(ctx context.Context, collectionID, itemID int64) (bool, error)
	CollectionItems(ctx context.Context, collectionID int64) ([]*library.Item, error)
}

// CatalogService exposes catalog operations returning API DTOs.
type CatalogService struct {
	store CatalogReader
}

// NewCatalogService constructs a CatalogService around the provided reader.
func NewCatalogService(store CatalogReader) *CatalogService {
	if store == nil {
		return nil
	}
	return &CatalogService{store: store}
}

// List returns catalog items filtered by status, newest first.
func (s *CatalogService) List(ctx context.Context, statuses ...library.Status) ([]MediaItem, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	items, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return SortItemsNewestFirst(FromItems(items)), nil
}

// ListByTag returns catalog items carrying the given tag.
func (s *CatalogService) ListByTag(ctx context.Context, tag string) ([]MediaItem, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	items, err := s.store.ItemsByTag(ctx, tag)
	if err != nil {
		return nil, err
	}
	return FromItems(items), nil
}

// Stats returns catalog summary counts keyed by status string.
func (s *CatalogService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(stats))
	for status, count := range stats {
		counts[string(status)] = count
	}
	return counts, nil
}

// Describe fetches a single catalog item.
func (s *CatalogService) Describe(ctx context.Context, id int64) (*MediaItem, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	item, err := s.store.GetByID(ctx, id)
	if err != nil || item == nil {
		return nil, err
	}
	dto := FromItem(item)
	return &dto, nil
}

// TagCounts returns per-tag item counts.
func (s *CatalogService) TagCounts(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	return s.store.TagCounts(ctx)
}

// Remove deletes a catalog item, reporting whether it existed.
func (s *CatalogService) Remove(ctx context.Context, id int64) (bool, error) {
	if s == nil || s.store == nil {
		return false, nil
	}
	return s.store.Remove(ctx, id)
}

// RetryFailed requeues failed items, returning how many were reset.
func (s *CatalogService) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	if s == nil || s.store == nil {
		return 0, nil
	}
	return s.store.RetryFailed(ctx, ids...)
}

// Collections returns every collection with item counts.
func (s *CatalogService) Collections(ctx context.Context) ([]Collection, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	collections, err := s.store.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	return FromCollections(collections), nil
}

// DescribeCollection fetches a collection and its member items.
func (s *CatalogService) DescribeCollection(ctx context.Context, id int64) (*CollectionResponse, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	collection, err := s.store.GetCollection(ctx, id)
	if err != nil || collection == nil {
		return nil, err
	}
	items, err := s.store.CollectionItems(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CollectionResponse{
		Collection: FromCollection(collection),
		Items:      FromItems(items),
	}, nil
}

// CreateCollection creates a new, empty collection.
func (s *CatalogService) CreateCollection(ctx context.Context, name, description string) (*Collection, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	collection, err := s.store.CreateCollection(ctx, name, description)
	if err != nil || collection == nil {
		return nil, err
	}
	dto := FromCollection(collection)
	return &dto, nil
}

// DeleteCollection removes a collection, reporting whether it existed.
func (s *CatalogService) DeleteCollection(ctx context.Context, id int64) (bool, error) {
	if s == nil || s.store == nil {
		return false, nil
	}
	return s.store.DeleteCollection(ctx, id)
}

// AddToCollection records an item's membership in a collection.
func (s *CatalogService) AddToCollection(ctx context.Context, collectionID, itemID int64) (bool, error) {
	if s == nil || s.store == nil {
		return false, nil
	}
	return s.store.AddToCollection(ctx, collectionID, itemID)
}

// RemoveFromCollection drops an item's membership in a collection.
func (s *CatalogService) RemoveFromCollection(ctx context.Context, collectionID, itemID int64) (bool, error) {
	if s == nil || s.store == nil {
		return false, nil
	}
	return s.store.RemoveFromCollection(ctx, collectionID, itemID)
}
