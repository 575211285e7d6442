package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// VectorRecord pairs a stored embedding with the item it describes.
type VectorRecord struct {
	ItemID int64
	Model  string
	Vector []byte
}

// SetEmbedding stores the embedding blob and model for an item.
func (s *Store) SetEmbedding(ctx context.Context, id int64, model string, vector []byte) error {
	if len(vector) == 0 {
		return errors.New("embedding vector is empty")
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE media_items SET embedding = ?, embedding_model = ? WHERE id = ?`,
		vector,
		model,
		id,
	)
	if err != nil {
		return fmt.Errorf("set embedding: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("set embedding: item %d not found", id)
	}
	return nil
}

// Embedding returns the stored embedding blob for an item, or nil when absent.
func (s *Store) Embedding(ctx context.Context, id int64) (*VectorRecord, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, embedding_model, embedding FROM media_items WHERE id = ? AND embedding IS NOT NULL`,
		id,
	)
	record := VectorRecord{}
	var model sql.NullString
	err := row.Scan(&record.ItemID, &model, &record.Vector)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get embedding: %w", err)
	}
	record.Model = model.String
	return &record, nil
}

// Embeddings streams every indexed item's embedding for similarity ranking.
// Items flagged missing are excluded so vanished files never surface in
// search results.
func (s *Store) Embeddings(ctx context.Context) ([]VectorRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, embedding_model, embedding FROM media_items
         WHERE embedding IS NOT NULL AND status != ? ORDER BY id`,
		StatusMissing,
	)
	if err != nil {
		return nil, fmt.Errorf("list embeddings: %w", err)
	}
	defer rows.Close()

	var records []VectorRecord
	for rows.Next() {
		record := VectorRecord{}
		var model sql.NullString
		if err := rows.Scan(&record.ItemID, &model, &record.Vector); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		record.Model = model.String
		records = append(records, record)
	}
	return records, rows.Err()
}
