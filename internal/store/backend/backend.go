// Package backend opens the store.Store named by the configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/evcraddock/curbing/internal/config"
	"github.com/evcraddock/curbing/internal/db"
	"github.com/evcraddock/curbing/internal/store"
	"github.com/evcraddock/curbing/internal/store/memory"
	"github.com/evcraddock/curbing/internal/store/redisstore"
	"github.com/evcraddock/curbing/internal/store/sqlstore"
)

// Open connects to the configured store.
func Open(ctx context.Context, cfg config.Store) (store.Store, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(), nil
	case "redis":
		s, err := redisstore.Open(ctx, cfg.DSN, cfg.Collection)
		if err != nil {
			return nil, fmt.Errorf("opening redis store: %w", err)
		}
		return s, nil
	}

	d, err := db.DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	s, err := sqlstore.Open(d, cfg.DSN, cfg.Collection)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", d.Name, err)
	}
	return s, nil
}
