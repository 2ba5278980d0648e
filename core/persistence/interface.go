package persistence

import (
	"context"
	"errors"

	"github.com/tsrpcx/redis-omx-node/core/index"
	"github.com/tsrpcx/redis-omx-node/core/query"
	"github.com/tsrpcx/redis-omx-node/core/schema"
)

// ErrNotFound is returned by a Store when a key does not exist.
var ErrNotFound = errors.New("persistence: key not found")

// Store defines the commands a repository needs from the underlying database.
// A Store is safe for concurrent use.
type Store interface {
	// CreateIndex creates the search index described by def.
	CreateIndex(ctx context.Context, def *index.Definition) error

	// DropIndex drops a search index. Dropping an unknown index is not an error.
	DropIndex(ctx context.Context, name string) error

	// Get reads a string key, returning ErrNotFound when it does not exist.
	Get(ctx context.Context, key string) (string, error)

	// Set writes a string key.
	Set(ctx context.Context, key, value string) error

	// Unlink removes keys. Missing keys are ignored.
	Unlink(ctx context.Context, keys ...string) error

	// WriteHash replaces the hash at key with record.
	WriteHash(ctx context.Context, key string, record map[string]string) error

	// ReadHash reads the hash at key. A missing key reads as an empty record.
	ReadHash(ctx context.Context, key string) (map[string]string, error)

	// WriteJSON replaces the document at key with doc.
	WriteJSON(ctx context.Context, key string, doc map[string]any) error

	// ReadJSON reads the document at key, returning ErrNotFound when it does not exist.
	ReadJSON(ctx context.Context, key string) (map[string]any, error)

	// Search runs dsl against the index of s.
	Search(ctx context.Context, s *schema.Schema, dsl *query.QueryDSL) (*SearchReply, error)
}

// Document is one search hit. Exactly one of Hash and JSON is set, matching the
// schema's data structure.
type Document struct {
	Key  string
	Hash map[string]string
	JSON map[string]any
}

// SearchReply is one page of search hits plus the total number of matches.
type SearchReply struct {
	Total     int64
	Documents []Document
}

// PersistenceEventType defines the possible event types for repository operations.
type PersistenceEventType string

const (
	IndexCreateStart       PersistenceEventType = "index:create:start"
	IndexCreateSuccess     PersistenceEventType = "index:create:success"
	IndexCreateFailed      PersistenceEventType = "index:create:failed"
	IndexDropStart         PersistenceEventType = "index:drop:start"
	IndexDropSuccess       PersistenceEventType = "index:drop:success"
	IndexDropFailed        PersistenceEventType = "index:drop:failed"
	EntitySaveStart        PersistenceEventType = "entity:save:start"
	EntitySaveSuccess      PersistenceEventType = "entity:save:success"
	EntitySaveFailed       PersistenceEventType = "entity:save:failed"
	EntityFetchStart       PersistenceEventType = "entity:fetch:start"
	EntityFetchSuccess     PersistenceEventType = "entity:fetch:success"
	EntityFetchFailed      PersistenceEventType = "entity:fetch:failed"
	EntityRemoveStart      PersistenceEventType = "entity:remove:start"
	EntityRemoveSuccess    PersistenceEventType = "entity:remove:success"
	EntityRemoveFailed     PersistenceEventType = "entity:remove:failed"
	EntitySearchStart      PersistenceEventType = "entity:search:start"
	EntitySearchSuccess    PersistenceEventType = "entity:search:success"
	EntitySearchFailed     PersistenceEventType = "entity:search:failed"
	SubscriptionRegister   PersistenceEventType = "subscription:register"
	SubscriptionUnregister PersistenceEventType = "subscription:unregister"
)

// PersistenceEvent represents events emitted during repository operations.
type PersistenceEvent struct {
	Type      PersistenceEventType `json:"type"`               // The type of event (e.g., 'entity:save:start').
	Timestamp int64                `json:"timestamp"`          // Timestamp when the event occurred (Unix milliseconds).
	Operation string               `json:"operation"`          // The operation being performed (e.g., 'save').
	Entity    string               `json:"entity"`             // Entity type of the repository.
	Input     any                  `json:"input,omitempty"`    // Data passed to the operation (if applicable).
	Output    any                  `json:"output,omitempty"`   // Data returned by the operation (if applicable).
	Error     *string              `json:"error,omitempty"`    // Error message if the operation failed.
	Query     any                  `json:"query,omitempty"`    // Query used in the operation (if applicable).
	Duration  *int64               `json:"duration,omitempty"` // Duration of the operation in milliseconds.
}

// EventCallbackFunction receives repository events.
type EventCallbackFunction func(ctx context.Context, event PersistenceEvent) error

// SubscriptionInfo describes a subscription configuration.
type SubscriptionInfo struct {
	Id          string               `json:"id"`
	Event       PersistenceEventType `json:"event"`                 // The event subscribed to.
	Label       *string              `json:"label,omitempty"`       // Optional short identifier.
	Description *string              `json:"description,omitempty"` // Optional description.
	Unsubscribe func()               `json:"-"`
}

// RegisterSubscriptionOptions defines options for registering a subscription.
type RegisterSubscriptionOptions struct {
	Event       PersistenceEventType `json:"event"`
	Label       *string              `json:"label,omitempty"`
	Description *string              `json:"description,omitempty"`
	Callback    EventCallbackFunction
}
