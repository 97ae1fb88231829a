package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/integrity-cli/internal/store"
)

func initStore(ctx context.Context) (store.History, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = "integrity.db"
		}
		return store.NewSQLite(path, cfg.Store.HistoryLimit)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.HistoryLimit, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
