package postgres

import (
	"context"
	"fmt"

	"go.uber.org/fx"
)

// BindLifecycle pings the database when the application starts and closes the pool on stop.
func BindLifecycle(lc fx.Lifecycle, storage *Storage) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := storage.HealthCheck(ctx); err != nil {
				return fmt.Errorf("database unreachable: %w", err)
			}
			return nil
		},
		OnStop: func(context.Context) error {
			storage.logger.Info("closing database pool")
			storage.Close()
			return nil
		},
	})
}
