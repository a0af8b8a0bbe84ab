package core

import (
	"context"
	"fmt"
	"strings"

	"gardenplanner/internal/config"
	"gardenplanner/internal/infra/persistence/memory"
	"gardenplanner/internal/infra/persistence/postgres"
	"gardenplanner/internal/infra/persistence/sqlite"
	"gardenplanner/pkg/domain"
)

// OpenKeyValueStore selects the backend named by cfg.Driver (sqlite when
// empty). Configuration comes from config.Load, which already folded in the
// GARDENPLANNER_STORAGE_DRIVER, GARDENPLANNER_SQLITE_PATH and
// GARDENPLANNER_POSTGRES_DSN variables.
func OpenKeyValueStore(ctx context.Context, cfg config.StorageConfig) (domain.KeyValueStore, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = config.StorageSQLite
	}
	switch driver {
	case config.StorageMemory:
		return memory.NewStore(), nil
	case config.StorageSQLite:
		store, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoragePostgres:
		store, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}
