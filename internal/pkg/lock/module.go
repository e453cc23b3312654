package lock

import (
	"context"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"go.uber.org/fx"

	"github.com/polkiloo/scribemart/internal/config"
)

// Module provides a Locker: redis when REDIS_ADDR is set, in-process otherwise.
var Module = fx.Provide(newLocker)

type lockerParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newLocker(p lockerParams) Locker {
	if p.Config.RedisAddr == "" {
		return NewLocal()
	}

	client := redis.NewClient(&redis.Options{Addr: p.Config.RedisAddr})
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	p.Logger.Info("using redis locks", slog.String("addr", p.Config.RedisAddr))
	return NewRedis(client, p.Config.LockTTL, p.Logger)
}
