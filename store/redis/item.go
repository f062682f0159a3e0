package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/stint"
	"github.com/xraph/stint/content"
	"github.com/xraph/stint/id"
)

// GetItem retrieves a content item stored as a JSON string.
func (s *Store) GetItem(ctx context.Context, itemID string) (*content.Item, error) {
	data, err := s.client.Get(ctx, itemKey(itemID)).Bytes()
	if err == goredis.Nil {
		return nil, stint.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("stint/redis: get item: %w", err)
	}

	var item content.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("stint/redis: decode item %s: %w", itemID, err)
	}
	return &item, nil
}

// CreateItem persists a new item as a JSON string.
func (s *Store) CreateItem(ctx context.Context, typ, collection string, properties map[string]any, relationships map[string]string) (*content.Item, error) {
	item := &content.Item{
		Entity:        stint.NewEntity(),
		ID:            id.NewItemID().String(),
		Type:          typ,
		Collection:    collection,
		Properties:    properties,
		Relationships: relationships,
	}
	if err := s.putItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItem merges properties into an existing item.
func (s *Store) UpdateItem(ctx context.Context, itemID string, properties map[string]any) (*content.Item, error) {
	item, err := s.GetItem(ctx, itemID)
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
	if err := s.putItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Store) putItem(ctx context.Context, item *content.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("stint/redis: encode item %s: %w", item.ID, err)
	}
	if err := s.client.Set(ctx, itemKey(item.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("stint/redis: put item %s: %w", item.ID, err)
	}
	return nil
}
