// Package persistence stores entities and manages their search index through a
// Store. A Repository is bound to one schema; it compiles the schema's index,
// rebuilds it only when the definition changes, and emits an event around
// every operation.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/google/uuid"
	"github.com/tsrpcx/redis-omx-node/core/entity"
	"github.com/tsrpcx/redis-omx-node/core/index"
	"github.com/tsrpcx/redis-omx-node/core/query"
	"github.com/tsrpcx/redis-omx-node/core/schema"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultPageSize is the page size ReturnAll uses when none is configured.
const DefaultPageSize = 10

// RepositoryOptions configures a Repository.
type RepositoryOptions struct {
	// Resolver resolves nested object types. Defaults to none, which makes any
	// object field fail as unregistered.
	Resolver schema.Resolver

	// Logger receives debug output for operations and compiler warnings.
	Logger *zap.Logger

	// PageSize is the number of hits ReturnAll requests per page.
	PageSize int

	// Limiter paces the pages of ReturnAll. Nil means unpaced.
	Limiter *rate.Limiter
}

// Repository reads, writes and searches the entities of one schema.
type Repository struct {
	schema   *schema.Schema
	store    Store
	resolver schema.Resolver
	compiler *index.Compiler
	logger   *zap.Logger
	pageSize int
	limiter  *rate.Limiter

	events        *emitter
	bus           *events.TypedEventBus[PersistenceEvent]
	subscriptions map[string]*SubscriptionInfo
	subMu         sync.RWMutex
}

// NewRepository creates a repository for s backed by store.
func NewRepository(s *schema.Schema, store Store, opts RepositoryOptions) (*Repository, error) {
	if s == nil {
		return nil, fmt.Errorf("schema cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	bus, err := events.NewTypedEventBus[PersistenceEvent](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("could not initialize event bus: %w", err)
	}

	logger = logger.With(zap.String("entity", s.Entity()))
	return &Repository{
		schema:        s,
		store:         store,
		resolver:      opts.Resolver,
		compiler:      index.NewCompiler(opts.Resolver, logger),
		logger:        logger,
		pageSize:      pageSize,
		limiter:       opts.Limiter,
		events:        &emitter{bus: bus, entity: s.Entity()},
		bus:           bus,
		subscriptions: make(map[string]*SubscriptionInfo),
	}, nil
}

// Schema returns the repository's schema.
func (r *Repository) Schema() *schema.Schema { return r.schema }

// CreateEntity builds a new entity with a generated id. Nothing is written
// until Save.
func (r *Repository) CreateEntity(data map[string]any) (*entity.Entity, error) {
	return entity.New(r.resolver, r.schema, r.schema.GenerateID(), data)
}

// CreateIndex creates the search index unless an identical one already exists.
// A changed definition drops the old index first. It reports whether the
// index was (re)built.
func (r *Repository) CreateIndex(ctx context.Context) (bool, error) {
	return withEventEmission(r.events, opCreateIndex, r.schema.IndexName(), nil, func() (bool, error) {
		def, err := r.compiler.Define(r.schema)
		if err != nil {
			return false, err
		}
		hash, err := def.Hash()
		if err != nil {
			return false, err
		}

		current, err := r.store.Get(ctx, def.IndexHashName)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return false, fmt.Errorf("failed to read index hash %s: %w", def.IndexHashName, err)
		}
		if current == hash {
			r.logger.Debug("index is up to date", zap.String("index", def.IndexName))
			return false, nil
		}

		if err := r.dropIndex(ctx); err != nil {
			return false, err
		}
		if err := r.store.CreateIndex(ctx, def); err != nil {
			return false, fmt.Errorf("failed to create index %s: %w", def.IndexName, err)
		}
		if err := r.store.Set(ctx, def.IndexHashName, hash); err != nil {
			return false, fmt.Errorf("failed to store index hash %s: %w", def.IndexHashName, err)
		}

		r.logger.Debug("index created",
			zap.String("index", def.IndexName),
			zap.Int("tokens", len(def.Schema)),
			zap.Int("warnings", len(def.Warnings)))
		return true, nil
	})
}

// DropIndex removes the search index and its stored hash. A missing index is
// not an error.
func (r *Repository) DropIndex(ctx context.Context) error {
	_, err := withEventEmission(r.events, opDropIndex, r.schema.IndexName(), nil, func() (struct{}, error) {
		return struct{}{}, r.dropIndex(ctx)
	})
	return err
}

func (r *Repository) dropIndex(ctx context.Context) error {
	if err := r.store.Unlink(ctx, r.schema.IndexHashName()); err != nil {
		return fmt.Errorf("failed to remove index hash %s: %w", r.schema.IndexHashName(), err)
	}
	if err := r.store.DropIndex(ctx, r.schema.IndexName()); err != nil {
		return fmt.Errorf("failed to drop index %s: %w", r.schema.IndexName(), err)
	}
	return nil
}

// Save writes e in the schema's data structure. An entity with no values is
// removed instead.
func (r *Repository) Save(ctx context.Context, e *entity.Entity) (string, error) {
	if e == nil {
		return "", fmt.Errorf("entity cannot be nil")
	}
	if e.Schema() != r.schema {
		return "", schema.ValidationError("", fmt.Sprintf("entity of type '%s' cannot be saved by the '%s' repository",
			e.Schema().Entity(), r.schema.Entity()))
	}

	return withEventEmission(r.events, opSave, e, nil, func() (string, error) {
		key := e.KeyName()
		if len(e.Data()) == 0 {
			r.logger.Debug("removing empty entity", zap.String("key", key))
			return e.ID(), r.store.Unlink(ctx, key)
		}

		var err error
		if r.schema.DataStructure() == schema.DataStructureHash {
			err = r.store.WriteHash(ctx, key, e.ToHash())
		} else {
			err = r.store.WriteJSON(ctx, key, e.ToJSON())
		}
		if err != nil {
			return "", fmt.Errorf("failed to save %s: %w", key, err)
		}
		return e.ID(), nil
	})
}

// Fetch loads the entity stored under id. A missing record yields an entity
// whose fields hold their defaults, or null.
func (r *Repository) Fetch(ctx context.Context, id string) (*entity.Entity, error) {
	return withEventEmission(r.events, opFetch, id, nil, func() (*entity.Entity, error) {
		e, err := entity.New(r.resolver, r.schema, id, nil)
		if err != nil {
			return nil, err
		}

		key := e.KeyName()
		if r.schema.DataStructure() == schema.DataStructureHash {
			record, err := r.store.ReadHash(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch %s: %w", key, err)
			}
			if err := e.FromHash(record); err != nil {
				return nil, err
			}
			return e, nil
		}

		doc, err := r.store.ReadJSON(ctx, key)
		if errors.Is(err, ErrNotFound) {
			doc = map[string]any{}
		} else if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", key, err)
		}
		if err := e.FromJSON(doc); err != nil {
			return nil, err
		}
		return e, nil
	})
}

// Remove deletes the entities stored under ids. Missing ids are ignored.
func (r *Repository) Remove(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := withEventEmission(r.events, opRemove, ids, nil, func() (int, error) {
		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = r.schema.KeyName(id)
		}
		if err := r.store.Unlink(ctx, keys...); err != nil {
			return 0, fmt.Errorf("failed to remove entities: %w", err)
		}
		return len(keys), nil
	})
	return err
}

// Search returns one page of entities matching dsl.
func (r *Repository) Search(ctx context.Context, dsl *query.QueryDSL) ([]*entity.Entity, int64, error) {
	if dsl == nil {
		dsl = &query.QueryDSL{}
	}

	type page struct {
		entities []*entity.Entity
		total    int64
	}
	result, err := withEventEmission(r.events, opSearch, nil, dsl, func() (page, error) {
		reply, err := r.store.Search(ctx, r.schema, dsl)
		if err != nil {
			return page{}, fmt.Errorf("failed to search %s: %w", r.schema.IndexName(), err)
		}
		entities, err := r.decodeDocuments(reply.Documents)
		if err != nil {
			return page{}, err
		}
		return page{entities: entities, total: reply.Total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return result.entities, result.total, nil
}

// ReturnAll pages through every entity matching dsl. Pagination in dsl is
// ignored; sorting and filters are kept.
func (r *Repository) ReturnAll(ctx context.Context, dsl *query.QueryDSL) ([]*entity.Entity, error) {
	var base query.QueryDSL
	if dsl != nil {
		base = *dsl
	}

	var all []*entity.Entity
	for offset := 0; ; offset += r.pageSize {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("page wait interrupted: %w", err)
			}
		}

		pageDSL := base
		pageDSL.Pagination = &query.PaginationOptions{Limit: r.pageSize, Offset: query.IntPtr(offset)}
		entities, total, err := r.Search(ctx, &pageDSL)
		if err != nil {
			return nil, err
		}

		all = append(all, entities...)
		if len(entities) == 0 || int64(offset+r.pageSize) >= total {
			return all, nil
		}
	}
}

func (r *Repository) decodeDocuments(docs []Document) ([]*entity.Entity, error) {
	out := make([]*entity.Entity, 0, len(docs))
	keyPrefix := r.schema.Prefix() + ":"
	for _, doc := range docs {
		id := strings.TrimPrefix(doc.Key, keyPrefix)
		e, err := entity.New(r.resolver, r.schema, id, nil)
		if err != nil {
			return nil, err
		}
		if r.schema.DataStructure() == schema.DataStructureHash {
			err = e.FromHash(doc.Hash)
		} else {
			err = e.FromJSON(doc.JSON)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", doc.Key, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// RegisterSubscription registers a callback for a repository event. It returns
// a unique ID that can be used to unregister the subscription later.
func (r *Repository) RegisterSubscription(options RegisterSubscriptionOptions) string {
	r.subMu.Lock()
	unsubscribe := r.bus.Subscribe(string(options.Event), options.Callback)
	id := uuid.New().String()
	r.subscriptions[id] = &SubscriptionInfo{
		Id:          id,
		Event:       options.Event,
		Unsubscribe: unsubscribe,
		Label:       options.Label,
		Description: options.Description,
	}
	r.subMu.Unlock()

	r.events.emit(createEvent(SubscriptionRegister, "registerSubscription", r.schema.Entity(),
		map[string]any{"event": options.Event, "label": options.Label},
		map[string]any{"subscriptionId": id}, nil, nil, time.Time{}))
	return id
}

// UnregisterSubscription removes a subscription by its ID.
func (r *Repository) UnregisterSubscription(id string) {
	r.subMu.Lock()
	info, ok := r.subscriptions[id]
	if ok {
		info.Unsubscribe()
		delete(r.subscriptions, id)
	}
	r.subMu.Unlock()

	if ok {
		r.events.emit(createEvent(SubscriptionUnregister, "unregisterSubscription", r.schema.Entity(),
			map[string]any{"subscriptionId": id}, nil, nil, nil, time.Time{}))
	}
}

// Subscriptions returns a list of all currently active subscriptions.
func (r *Repository) Subscriptions() []SubscriptionInfo {
	r.subMu.RLock()
	defer r.subMu.RUnlock()

	subs := make([]SubscriptionInfo, 0, len(r.subscriptions))
	for _, sub := range r.subscriptions {
		subs = append(subs, *sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Id < subs[j].Id })
	return subs
}
