package bunstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/stint"
	"github.com/xraph/stint/content"
	"github.com/xraph/stint/id"
)

// GetItem retrieves a content item by ID.
func (s *Store) GetItem(ctx context.Context, itemID string) (*content.Item, error) {
	m := new(itemModel)
	err := s.db.NewSelect().Model(m).
		Where("id = ?", itemID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, stint.ErrItemNotFound
		}
		return nil, fmt.Errorf("stint/bun: get item: %w", err)
	}
	return fromItemModel(m), nil
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
	if _, err := s.db.NewInsert().Model(toItemModel(item)).Exec(ctx); err != nil {
		return nil, fmt.Errorf("stint/bun: create item: %w", err)
	}
	return item, nil
}

// UpdateItem merges properties into an existing item. The merge happens
// in Postgres with the jsonb || operator, so concurrent updates to
// different fields don't clobber each other.
func (s *Store) UpdateItem(ctx context.Context, itemID string, properties map[string]any) (*content.Item, error) {
	patch, err := json.Marshal(properties)
	if err != nil {
		return nil, fmt.Errorf("stint/bun: encode item patch: %w", err)
	}

	m := new(itemModel)
	res, err := s.db.NewUpdate().Model(m).
		Set("properties = properties || ?::jsonb", string(patch)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", itemID).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("stint/bun: update item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, stint.ErrItemNotFound
	}
	return fromItemModel(m), nil
}
