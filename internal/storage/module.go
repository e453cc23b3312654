// Package storage selects the repository backend.
package storage

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/scribemart/internal/config"
	"github.com/polkiloo/scribemart/internal/domain/repository"
	"github.com/polkiloo/scribemart/internal/storage/memory"
	"github.com/polkiloo/scribemart/internal/storage/postgres"
)

// Module provides the repository factory and every repository it serves.
var Module = fx.Options(
	fx.Provide(newFactory),
	fx.Provide(
		func(f repository.Factory) repository.UserRepository { return f.Users() },
		func(f repository.Factory) repository.OrderRepository { return f.Orders() },
		func(f repository.Factory) repository.SubmissionRepository { return f.Submissions() },
		func(f repository.Factory) repository.PaymentRepository { return f.Payments() },
		func(f repository.Factory) repository.StatsRepository { return f.Stats() },
	),
)

type factoryParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Ctx       context.Context
	Config    *config.Config
	Logger    *slog.Logger
}

func newFactory(p factoryParams) (repository.Factory, error) {
	if p.Config.DatabaseURI == "" {
		p.Logger.Warn("database uri is empty, using in-memory storage")
		return memory.New(p.Logger), nil
	}

	st, err := postgres.New(p.Ctx, p.Config.DatabaseURI, p.Logger)
	if err != nil {
		return nil, err
	}
	postgres.BindLifecycle(p.Lifecycle, st)
	return st, nil
}
