package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/stint"
	"github.com/xraph/stint/content"
	"github.com/xraph/stint/id"
)

// GetItem retrieves a content item by ID.
func (s *Store) GetItem(ctx context.Context, itemID string) (*content.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, type, collection, properties, relationships, created_at, updated_at
		FROM stint_items WHERE id = ?`, itemID)
	return scanItem(row)
}

// CreateItem persists a new item and returns it with its generated ID.
func (s *Store) CreateItem(ctx context.Context, typ, collection string, properties map[string]any, relationships map[string]string) (*content.Item, error) {
	item := &content.Item{
		Entity:        stint.NewEntity(),
		ID:            id.NewItemID().String(),
		Type:          typ,
		Collection:    collection,
		Properties:    properties,
		Relationships: relationships,
	}

	props, err := json.Marshal(item.Properties)
	if err != nil {
		return nil, fmt.Errorf("stint/sqlite: encode item properties: %w", err)
	}
	var rels []byte
	if item.Relationships != nil {
		if rels, err = json.Marshal(item.Relationships); err != nil {
			return nil, fmt.Errorf("stint/sqlite: encode item relationships: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO stint_items (id, type, collection, properties, relationships, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Type, item.Collection, string(props), nullableString(rels),
		formatTime(item.CreatedAt), formatTime(item.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("stint/sqlite: create item: %w", err)
	}
	return item, nil
}

// UpdateItem merges properties into an existing item inside a
// transaction so concurrent merges don't lose fields.
func (s *Store) UpdateItem(ctx context.Context, itemID string, properties map[string]any) (*content.Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("stint/sqlite: begin update item: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	row := tx.QueryRowContext(ctx, `
		SELECT id, type, collection, properties, relationships, created_at, updated_at
		FROM stint_items WHERE id = ?`, itemID)
	item, err := scanItem(row)
	if err != nil {
		return nil, err
	}

	if item.Properties == nil {
		item.Properties = make(map[string]any, len(properties))
	}
	for k, v := range properties {
		item.Properties[k] = v
	}
	item.Touch()

	props, err := json.Marshal(item.Properties)
	if err != nil {
		return nil, fmt.Errorf("stint/sqlite: encode item properties: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE stint_items SET properties = ?, updated_at = ? WHERE id = ?`,
		string(props), formatTime(item.UpdatedAt), itemID,
	); err != nil {
		return nil, fmt.Errorf("stint/sqlite: update item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("stint/sqlite: commit update item: %w", err)
	}
	return item, nil
}

func scanItem(row rowScanner) (*content.Item, error) {
	var (
		item                 content.Item
		props                string
		rels                 sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&item.ID, &item.Type, &item.Collection, &props, &rels, &createdAt, &updatedAt)
	if isNoRows(err) {
		return nil, stint.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("stint/sqlite: scan item: %w", err)
	}

	if err := json.Unmarshal([]byte(props), &item.Properties); err != nil {
		return nil, fmt.Errorf("stint/sqlite: decode item properties: %w", err)
	}
	if rels.Valid && rels.String != "" {
		if err := json.Unmarshal([]byte(rels.String), &item.Relationships); err != nil {
			return nil, fmt.Errorf("stint/sqlite: decode item relationships: %w", err)
		}
	}
	item.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	item.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &item, nil
}

func nullableString(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
