package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/scribemart/internal/adapter/originality"
	"github.com/polkiloo/scribemart/internal/config"
	"github.com/polkiloo/scribemart/internal/server/http/handlers"
	"github.com/polkiloo/scribemart/internal/usecase"
	"github.com/polkiloo/scribemart/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		NewMarketplaceFacade,
		func(f *MarketplaceFacade) handlers.MarketplaceFacade { return f },
		newHTTPServer,
		newCheckProcessor,
	),
	fx.Invoke(bootstrapAdmin),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type workerParams struct {
	fx.In

	Facade  *MarketplaceFacade
	Checker originality.Checker
	Config  *config.Config
	Logger  *slog.Logger
}

func newCheckProcessor(p workerParams) *worker.CheckProcessor {
	return worker.NewCheckProcessor(
		p.Facade,
		p.Checker,
		p.Config.CheckPollInterval,
		p.Config.CheckBatchSize,
		p.Config.WorkerPoolSize,
		p.Logger,
	)
}

type adminParams struct {
	fx.In

	Ctx    context.Context
	Auth   *usecase.AuthUseCase
	Config *config.Config
}

func bootstrapAdmin(p adminParams) error {
	return p.Auth.EnsureAdmin(p.Ctx, p.Config.AdminEmail, p.Config.AdminPassword)
}

type lifecycleParams struct {
	fx.In

	Ctx        context.Context
	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Worker     *worker.CheckProcessor
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			p.Logger.Info("starting scribemart", slog.String("addr", p.Server.Addr))
			p.Worker.Start(p.Ctx)
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			err := p.Server.Shutdown(shutdownCtx)
			p.Worker.Stop()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("scribemart stopped")
			return nil
		},
	})
}
