package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrCollectionExists is returned when creating or renaming a collection to a
// name that is already taken.
var ErrCollectionExists = errors.New("collection already exists")

const collectionColumns = `c.id, c.name, c.description, c.created_at, c.updated_at,
    (SELECT COUNT(1) FROM collection_items ci WHERE ci.collection_id = c.id)`

// CreateCollection inserts a new, empty collection.
func (s *Store) CreateCollection(ctx context.Context, name, description string) (*Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("collection name is required")
	}

	existing, err := s.GetCollectionByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrCollectionExists, name)
	}

	timestamp := formatTime(time.Now())
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO collections (name, description, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		name,
		nullableString(strings.TrimSpace(description)),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert collection: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetCollection(ctx, id)
}

// GetCollection fetches a collection with its item count.
func (s *Store) GetCollection(ctx context.Context, id int64) (*Collection, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+collectionColumns+` FROM collections c WHERE c.id = ?`, id)
	collection, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}
	return collection, nil
}

// GetCollectionByName fetches a collection by its unique name.
func (s *Store) GetCollectionByName(ctx context.Context, name string) (*Collection, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+collectionColumns+` FROM collections c WHERE c.name = ?`, strings.TrimSpace(name))
	collection, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get collection by name: %w", err)
	}
	return collection, nil
}

// ListCollections returns every collection with item counts, ordered by name.
func (s *Store) ListCollections(ctx context.Context) ([]*Collection, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+collectionColumns+` FROM collections c ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var collections []*Collection
	for rows.Next() {
		collection, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		collections = append(collections, collection)
	}
	return collections, rows.Err()
}

// RenameCollection changes a collection's name, reporting whether it existed.
func (s *Store) RenameCollection(ctx context.Context, id int64, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, errors.New("collection name is required")
	}
	existing, err := s.GetCollectionByName(ctx, name)
	if err != nil {
		return false, err
	}
	if existing != nil && existing.ID != id {
		return false, fmt.Errorf("%w: %s", ErrCollectionExists, name)
	}

	res, err := s.db.ExecContext(
		ctx,
		`UPDATE collections SET name = ?, updated_at = ? WHERE id = ?`,
		name,
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("rename collection: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeleteCollection removes a collection and its memberships.
func (s *Store) DeleteCollection(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete collection: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeleteEmptyCollections removes every collection with no items and returns
// the count.
func (s *Store) DeleteEmptyCollections(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM collections WHERE id NOT IN (SELECT DISTINCT collection_id FROM collection_items)`,
	)
	if err != nil {
		return 0, fmt.Errorf("delete empty collections: %w", err)
	}
	return res.RowsAffected()
}

// AddToCollection records an item's membership. Adding an item twice is a
// no-op and reports false.
func (s *Store) AddToCollection(ctx context.Context, collectionID, itemID int64) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO collection_items (collection_id, item_id, added_at) VALUES (?, ?, ?)`,
		collectionID,
		itemID,
		formatTime(time.Now()),
	)
	if err != nil {
		return false, fmt.Errorf("add to collection: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		_, err = s.db.ExecContext(
			ctx,
			`UPDATE collections SET updated_at = ? WHERE id = ?`,
			formatTime(time.Now()),
			collectionID,
		)
		if err != nil {
			return true, fmt.Errorf("touch collection: %w", err)
		}
	}
	return affected > 0, nil
}

// RemoveFromCollection drops an item's membership, reporting whether it was present.
func (s *Store) RemoveFromCollection(ctx context.Context, collectionID, itemID int64) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM collection_items WHERE collection_id = ? AND item_id = ?`,
		collectionID,
		itemID,
	)
	if err != nil {
		return false, fmt.Errorf("remove from collection: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// CollectionItems returns the catalog items belonging to a collection.
func (s *Store) CollectionItems(ctx context.Context, collectionID int64) ([]*Item, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+itemColumns+` FROM media_items
         WHERE id IN (SELECT item_id FROM collection_items WHERE collection_id = ?)
         ORDER BY path`,
		collectionID,
	)
	if err != nil {
		return nil, fmt.Errorf("collection items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

func scanCollection(scanner interface{ Scan(dest ...any) error }) (*Collection, error) {
	var (
		collection  Collection
		description sql.NullString
		createdRaw  string
		updatedRaw  string
	)
	if err := scanner.Scan(
		&collection.ID,
		&collection.Name,
		&description,
		&createdRaw,
		&updatedRaw,
		&collection.ItemCount,
	); err != nil {
		return nil, err
	}
	collection.Description = description.String
	if created, err := parseTimeString(createdRaw); err == nil {
		collection.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		collection.UpdatedAt = updated
	}
	return &collection, nil
}
