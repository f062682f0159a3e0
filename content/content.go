// Package content defines the entity storage contract the actor runtime
// uses to fetch job inputs and create outputs. The backing store is an
// external collaborator; store/memory and the durable backends provide
// implementations for development and self-contained deployments.
package content

import (
	"context"

	"github.com/xraph/stint"
)

// Item is one stored entity: a typed record inside a collection with
// free-form properties and named relationships to other items.
type Item struct {
	stint.Entity

	ID            string            `json:"id"`
	Type          string            `json:"type"`
	Collection    string            `json:"collection"`
	Properties    map[string]any    `json:"properties"`
	Relationships map[string]string `json:"relationships,omitempty"`
}

// Store is the entity storage contract.
type Store interface {
	// GetItem retrieves an item by ID. Returns stint.ErrItemNotFound when
	// no item exists.
	GetItem(ctx context.Context, itemID string) (*Item, error)

	// CreateItem persists a new item of the given type into the given
	// collection and returns it with its generated ID.
	CreateItem(ctx context.Context, typ, collection string, properties map[string]any, relationships map[string]string) (*Item, error)

	// UpdateItem merges the given properties into an existing item and
	// returns the updated item.
	UpdateItem(ctx context.Context, itemID string, properties map[string]any) (*Item, error)
}
