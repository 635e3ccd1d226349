package records

import (
	"context"
	"fmt"

	"credit-risk-workers/internal/common/config"
	"credit-risk-workers/internal/common/database"
	"credit-risk-workers/internal/common/logger"
)

// Open connects the backend selected by cfg.Records.Backend and returns it
// wrapped with timeouts, metrics and error conversion.
func Open(ctx context.Context, cfg *config.Config, log logger.Logger) (Store, error) {
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	var (
		store Store
		err   error
	)

	switch cfg.Records.Backend {
	case config.BackendPostgres:
		store, err = openPostgres(ctx, cfg.Database.Postgres, log)
	case config.BackendRedis:
		client := database.NewRedis(cfg.Database.Redis)
		store = NewRedisStore(client.Client, cfg.Database.Redis.KeyPrefix, log)
	case config.BackendElasticsearch:
		var client *database.ElasticsearchClient
		client, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err == nil {
			store = NewElasticsearchStore(client.Client, cfg.Database.Elasticsearch.IndexPrefix, log)
		}
	case config.BackendSQLite:
		store, err = openSQLite(ctx, cfg.Database.SQLite, log)
	default:
		return nil, fmt.Errorf("records backend %q is not supported", cfg.Records.Backend)
	}
	if err != nil {
		return nil, err
	}

	log.Info("record store opened", map[string]interface{}{
		"backend":    cfg.Records.Backend,
		"collection": cfg.Records.Collection,
	})

	return Instrument(store, cfg.Records.Backend, config.GetDuration(cfg.Records.Timeout), log), nil
}

func openPostgres(ctx context.Context, cfg config.PostgresConfig, log logger.Logger) (Store, error) {
	client, err := database.NewPostgres(cfg)
	if err != nil {
		return nil, err
	}
	store := NewPostgresStore(client.DB, log)
	if err := store.EnsureSchema(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return store, nil
}

func openSQLite(ctx context.Context, cfg config.SQLiteConfig, log logger.Logger) (Store, error) {
	client, err := database.NewSQLite(cfg)
	if err != nil {
		return nil, err
	}
	store, err := NewSQLiteStore(ctx, client.DB, log)
	if err != nil {
		client.Close()
		return nil, err
	}
	return store, nil
}
