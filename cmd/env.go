package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/fiyatradar/crowdtrust/internal/intake"
	"github.com/fiyatradar/crowdtrust/internal/store"
)

// env holds the initialized store and service shared by the serve,
// sweep, and trust commands.
type env struct {
	Store   store.Store
	Service *intake.Service
}

// Close releases resources held by the environment.
func (e *env) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv opens the configured store, runs migrations, and builds the
// intake service. Callers should defer env.Close().
func initEnv(ctx context.Context) (*env, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	svc, err := intake.NewService(st, cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &env{Store: st, Service: svc}, nil
}

// initStore opens the store selected by store.driver.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store)
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
