package servecmder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/chatter/cmd/chatter/sqlitepath"
	"github.com/papercomputeco/chatter/pkg/config"
	"github.com/papercomputeco/chatter/pkg/eventstream"
	"github.com/papercomputeco/chatter/pkg/eventstream/kafka"
	"github.com/papercomputeco/chatter/pkg/eventstream/nop"
	"github.com/papercomputeco/chatter/pkg/storage"
	"github.com/papercomputeco/chatter/pkg/storage/inmemory"
	"github.com/papercomputeco/chatter/pkg/storage/postgres"
	"github.com/papercomputeco/chatter/pkg/storage/sqlite"
)

// newDriver opens the storage driver named by cfg. dir is the .chatter/
// directory holding the default SQLite database.
func newDriver(ctx context.Context, cfg config.StorageConfig, dir string, l *slog.Logger) (storage.Driver, error) {
	switch cfg.Driver {
	case config.StorageMemory:
		l.Info("using in-memory storage")
		return inmemory.NewDriver(), nil

	case config.StoragePostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("storage.driver %q requires storage.postgres_dsn", cfg.Driver)
		}
		driver, err := postgres.NewDriver(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL storage: %w", err)
		}
		l.Info("using PostgreSQL storage")
		return driver, nil

	case config.StorageSQLite, "":
		path, err := sqlitepath.ResolveSQLitePath(cfg.SQLitePath, dir)
		if err != nil {
			return nil, err
		}
		driver, err := sqlite.NewDriver(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite storage: %w", err)
		}
		l.Info("using SQLite storage", "path", path)
		return driver, nil

	default:
		return nil, fmt.Errorf("unknown storage driver: %q", cfg.Driver)
	}
}

// newPublisher builds the turn publisher named by cfg.
func newPublisher(cfg config.EventStreamConfig, l *slog.Logger) (eventstream.Publisher, error) {
	switch cfg.Provider {
	case config.EventStreamNone, "":
		return nop.NewPublisher(), nil

	case config.EventStreamKafka:
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: cfg.Brokers,
			Topic:   cfg.Topic,
		})
		if err != nil {
			return nil, err
		}
		l.Info("publishing turns to kafka", "brokers", cfg.Brokers, "topic", cfg.Topic)
		return p, nil

	default:
		return nil, fmt.Errorf("unknown eventstream provider: %q", cfg.Provider)
	}
}
