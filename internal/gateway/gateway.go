package gateway

import (
	"context"
	"errors"
	"time"
)

// Record is an opaque row as the remote platform sees it. Shapes are owned
// by the remote schema; callers parse at the boundary.
type Record map[string]interface{}

// ChangeEvent is pushed to subscribers after every accepted mutation.
type ChangeEvent struct {
	Type       string    `json:"type"` // insert, update
	Collection string    `json:"collection"`
	Record     Record    `json:"record"`
	At         time.Time `json:"at"`
}

var (
	ErrNotFound    = errors.New("record not found")
	ErrUnavailable = errors.New("remote gateway unavailable")
)

// Gateway is the remote data platform: per-collection CRUD, filtered
// queries and a realtime change feed. Everything above it (offline queue,
// read cache, order/table state) depends on this interface only.
type Gateway interface {
	Select(ctx context.Context, collection string, filters map[string]interface{}, ordering string, limit int) ([]Record, error)
	Insert(ctx context.Context, collection string, record Record) (Record, error)
	Update(ctx context.Context, collection string, partial Record, id string) (Record, error)
	Subscribe(ctx context.Context, collection string, onChange func(ChangeEvent)) error
	Ping(ctx context.Context) error
}
