package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tsrpcx/redis-omx-node/config"
	"github.com/tsrpcx/redis-omx-node/core/index"
	"github.com/tsrpcx/redis-omx-node/core/persistence"
	"github.com/tsrpcx/redis-omx-node/core/query"
	"github.com/tsrpcx/redis-omx-node/core/schema"
	"github.com/tsrpcx/redis-omx-node/redis"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	dryRun := flag.Bool("dry-run", false, "print the FT.CREATE commands without connecting to Redis")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	registry, people, err := buildSchemas()
	if err != nil {
		logger.Fatal("failed to build schemas", zap.Error(err))
	}

	if *dryRun {
		if err := printIndexes(registry, logger); err != nil {
			logger.Fatal("failed to compile indexes", zap.Error(err))
		}
		return
	}

	if err := run(cfg, registry, people, logger); err != nil {
		logger.Fatal("demo failed", zap.Error(err))
	}
}

func buildSchemas() (*schema.SchemaRegistry, *schema.Schema, error) {
	registry := schema.NewSchemaRegistry()

	address, err := schema.NewBuilder("address").
		String("city").
		String("country", schema.WithSeparator(";")).
		Point("location").
		Build()
	if err != nil {
		return nil, nil, fmt.Errorf("address schema: %w", err)
	}
	if err := registry.Register(address); err != nil {
		return nil, nil, err
	}

	people, err := schema.NewBuilder("person").
		String("name", schema.Sortable()).
		Text("bio").
		Number("age", schema.Sortable()).
		Boolean("verified", schema.WithDefault(false)).
		Date("joined", schema.Sortable()).
		StringArray("skills").
		Object("home", "address", schema.WithAlias("address")).
		WithOptions(schema.Options{
			Prefix:        "demo:person",
			DataStructure: schema.DataStructureJSON,
		}).
		Build()
	if err != nil {
		return nil, nil, fmt.Errorf("person schema: %w", err)
	}
	if err := registry.Register(people); err != nil {
		return nil, nil, err
	}
	return registry, people, nil
}

func printIndexes(registry *schema.SchemaRegistry, logger *zap.Logger) error {
	compiler := index.NewCompiler(registry, logger)
	for _, name := range registry.Entities() {
		s, err := registry.Schema(name)
		if err != nil {
			return err
		}
		def, err := compiler.Define(s)
		if err != nil {
			return err
		}
		hash, err := def.Hash()
		if err != nil {
			return err
		}
		fmt.Printf("FT.CREATE %s\n  hash: %s\n", strings.Join(def.Args(), " "), hash)
	}
	return nil
}

func run(cfg *config.Config, registry *schema.SchemaRegistry, people *schema.Schema, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := redis.NewInteractor(ctx, redis.Options{
		Addr:         cfg.Redis.Addr,
		Username:     cfg.Redis.Username,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		Resolver:     registry,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	repo, err := persistence.NewRepository(people, store, persistence.RepositoryOptions{
		Resolver: registry,
		Logger:   logger,
		PageSize: cfg.Search.PageSize,
		Limiter:  cfg.Search.Limiter(),
	})
	if err != nil {
		return err
	}

	id := repo.RegisterSubscription(persistence.RegisterSubscriptionOptions{
		Event: persistence.EntitySaveSuccess,
		Callback: func(ctx context.Context, event persistence.PersistenceEvent) error {
			logger.Info("entity saved", zap.Any("id", event.Output), zap.Int64p("durationMs", event.Duration))
			return nil
		},
	})
	defer repo.UnregisterSubscription(id)

	rebuilt, err := repo.CreateIndex(ctx)
	if err != nil {
		return err
	}
	logger.Info("index ready", zap.String("index", people.IndexName()), zap.Bool("rebuilt", rebuilt))

	ada, err := repo.CreateEntity(map[string]any{
		"name":   "Ada Lovelace",
		"bio":    "Wrote the first published algorithm for a machine",
		"age":    36,
		"joined": time.Date(1843, 9, 1, 0, 0, 0, 0, time.UTC),
		"skills": []string{"mathematics", "poetry"},
		"address": map[string]any{
			"city":     "London",
			"country":  "United Kingdom",
			"location": "-0.1276,51.5072",
		},
	})
	if err != nil {
		return err
	}
	if _, err := repo.Save(ctx, ada); err != nil {
		return err
	}

	fetched, err := repo.Fetch(ctx, ada.ID())
	if err != nil {
		return err
	}
	printJSON("fetched", fetched)

	dsl := query.NewQueryBuilder().
		Where("age").Gte(18).
		Where("home.city").Eq("London").
		OrderByAsc("age").
		Build()
	found, total, err := repo.Search(ctx, &dsl)
	if err != nil {
		return err
	}
	logger.Info("search complete", zap.Int64("total", total), zap.Int("page", len(found)))

	all, err := repo.ReturnAll(ctx, &dsl)
	if err != nil {
		return err
	}
	printJSON("all", all)

	return repo.Remove(ctx, ada.ID())
}

func printJSON(label string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%s: %v\n", label, err)
		return
	}
	fmt.Printf("%s: %s\n", label, data)
}
