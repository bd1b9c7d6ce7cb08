package main

import (
	"context"

	"github.com/sells-group/shop-dedupe/internal/config"
	"github.com/sells-group/shop-dedupe/internal/store"
)

// initStore opens the run-history store selected by config and runs
// migrations.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := config.OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
