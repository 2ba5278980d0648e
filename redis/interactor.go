// Package redis implements persistence.Store on Redis Stack: hashes and
// RedisJSON documents for storage, RediSearch for indexing and search.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/tsrpcx/redis-omx-node/core/index"
	"github.com/tsrpcx/redis-omx-node/core/persistence"
	"github.com/tsrpcx/redis-omx-node/core/query"
	"github.com/tsrpcx/redis-omx-node/core/schema"
	"go.uber.org/zap"
)

// Options configures the connection of an Interactor.
type Options struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Resolver resolves nested object paths in search filters.
	Resolver schema.Resolver
	Logger   *zap.Logger
}

// Interactor implements persistence.Store using a go-redis client.
type Interactor struct {
	client     *goredis.Client
	generators query.QueryGeneratorFactory
	logger     *zap.Logger

	mu     sync.RWMutex
	closed bool
}

var _ persistence.Store = (*Interactor)(nil)

// NewInteractor connects to Redis and verifies the connection with PING.
func NewInteractor(ctx context.Context, opts Options) (*Interactor, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:         opts.Addr,
		Username:     opts.Username,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		// FT.SEARCH replies are parsed in their RESP2 array form.
		Protocol: 2,
	})

	if opts.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.DialTimeout)
		defer cancel()
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewInteractorWithClient(client, opts.Resolver, opts.Logger), nil
}

// NewInteractorWithClient wraps an existing client. The client should speak
// RESP2.
func NewInteractorWithClient(client *goredis.Client, r schema.Resolver, logger *zap.Logger) *Interactor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interactor{
		client:     client,
		generators: NewSearchQueryGeneratorFactory(r),
		logger:     logger,
	}
}

// Client returns the underlying Redis client for advanced operations.
func (i *Interactor) Client() *goredis.Client {
	return i.client
}

// Close closes the connection pool. Closing twice is a no-op.
func (i *Interactor) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil
	}
	i.closed = true
	return i.client.Close()
}

func (i *Interactor) checkOpen() error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return fmt.Errorf("redis interactor is closed")
	}
	return nil
}

// CreateIndex runs FT.CREATE for def.
func (i *Interactor) CreateIndex(ctx context.Context, def *index.Definition) error {
	if err := i.checkOpen(); err != nil {
		return err
	}
	args := createIndexArgs(def)
	i.logger.Debug("creating index", zap.String("index", def.IndexName), zap.Int("args", len(args)))
	if err := i.client.Do(ctx, args...).Err(); err != nil {
		i.logger.Error("FT.CREATE failed", zap.String("index", def.IndexName), zap.Error(err))
		return fmt.Errorf("FT.CREATE %s: %w", def.IndexName, err)
	}
	return nil
}

func createIndexArgs(def *index.Definition) []any {
	tokens := def.Args()
	args := make([]any, 0, len(tokens)+1)
	args = append(args, "FT.CREATE")
	for _, t := range tokens {
		args = append(args, t)
	}
	return args
}

// DropIndex runs FT.DROPINDEX, treating an unknown index as already dropped.
func (i *Interactor) DropIndex(ctx context.Context, name string) error {
	if err := i.checkOpen(); err != nil {
		return err
	}
	err := i.client.Do(ctx, "FT.DROPINDEX", name).Err()
	if err != nil && !isUnknownIndex(err) {
		return fmt.Errorf("FT.DROPINDEX %s: %w", name, err)
	}
	return nil
}

// isUnknownIndex matches the error RediSearch versions return for a missing index.
func isUnknownIndex(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unknown index name") || strings.Contains(msg, "no such index")
}

// Get reads a string key.
func (i *Interactor) Get(ctx context.Context, key string) (string, error) {
	if err := i.checkOpen(); err != nil {
		return "", err
	}
	val, err := i.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", fmt.Errorf("%s: %w", key, persistence.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return val, nil
}

// Set writes a string key with no expiration.
func (i *Interactor) Set(ctx context.Context, key, value string) error {
	if err := i.checkOpen(); err != nil {
		return err
	}
	if err := i.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Unlink removes keys asynchronously on the server.
func (i *Interactor) Unlink(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := i.checkOpen(); err != nil {
		return err
	}
	if err := i.client.Unlink(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to unlink %d keys: %w", len(keys), err)
	}
	return nil
}

// WriteHash replaces the hash at key in one MULTI/EXEC so readers never see a
// mix of old and new fields.
func (i *Interactor) WriteHash(ctx context.Context, key string, record map[string]string) error {
	if err := i.checkOpen(); err != nil {
		return err
	}
	_, err := i.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Unlink(ctx, key)
		if len(record) > 0 {
			pipe.HSet(ctx, key, hashArgs(record)...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write hash %s: %w", key, err)
	}
	return nil
}

// hashArgs flattens a record into HSET field/value pairs in key order.
func hashArgs(record map[string]string) []any {
	fields := make([]string, 0, len(record))
	for f := range record {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	args := make([]any, 0, len(record)*2)
	for _, f := range fields {
		args = append(args, f, record[f])
	}
	return args
}

// ReadHash reads every field of the hash at key.
func (i *Interactor) ReadHash(ctx context.Context, key string) (map[string]string, error) {
	if err := i.checkOpen(); err != nil {
		return nil, err
	}
	record, err := i.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read hash %s: %w", key, err)
	}
	return record, nil
}

// WriteJSON replaces the RedisJSON document at key.
func (i *Interactor) WriteJSON(ctx context.Context, key string, doc map[string]any) error {
	if err := i.checkOpen(); err != nil {
		return err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", key, err)
	}
	if err := i.client.Do(ctx, "JSON.SET", key, "$", string(body)).Err(); err != nil {
		return fmt.Errorf("JSON.SET %s: %w", key, err)
	}
	return nil
}

// ReadJSON reads the RedisJSON document at key.
func (i *Interactor) ReadJSON(ctx context.Context, key string) (map[string]any, error) {
	if err := i.checkOpen(); err != nil {
		return nil, err
	}
	body, err := i.client.Do(ctx, "JSON.GET", key).Text()
	if errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("%s: %w", key, persistence.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("JSON.GET %s: %w", key, err)
	}

	doc := map[string]any{}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", key, err)
	}
	return doc, nil
}

// Search runs FT.SEARCH against the index of s.
func (i *Interactor) Search(ctx context.Context, s *schema.Schema, dsl *query.QueryDSL) (*persistence.SearchReply, error) {
	if err := i.checkOpen(); err != nil {
		return nil, err
	}
	args, err := i.searchArgs(s, dsl)
	if err != nil {
		return nil, err
	}

	i.logger.Debug("searching", zap.String("index", s.IndexName()), zap.Any("query", args[2]))
	raw, err := i.client.Do(ctx, args...).Result()
	if err != nil {
		i.logger.Warn("FT.SEARCH failed", zap.String("index", s.IndexName()), zap.Error(err))
		return nil, fmt.Errorf("FT.SEARCH %s: %w", s.IndexName(), err)
	}
	return parseSearchReply(raw, s.DataStructure())
}

func (i *Interactor) searchArgs(s *schema.Schema, dsl *query.QueryDSL) ([]any, error) {
	generator, err := i.generators.CreateGenerator(s)
	if err != nil {
		return nil, err
	}
	searchArgs, err := generator.GenerateSearchArgs(dsl)
	if err != nil {
		return nil, fmt.Errorf("failed to build search for %s: %w", s.Entity(), err)
	}
	return append([]any{"FT.SEARCH", s.IndexName()}, searchArgs...), nil
}
