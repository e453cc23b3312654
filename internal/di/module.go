package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/scribemart/internal/adapter/gateway"
	"github.com/polkiloo/scribemart/internal/adapter/notify"
	"github.com/polkiloo/scribemart/internal/adapter/originality"
	"github.com/polkiloo/scribemart/internal/app"
	"github.com/polkiloo/scribemart/internal/config"
	"github.com/polkiloo/scribemart/internal/logger"
	"github.com/polkiloo/scribemart/internal/pkg/auth"
	"github.com/polkiloo/scribemart/internal/pkg/lock"
	"github.com/polkiloo/scribemart/internal/server/http/router"
	"github.com/polkiloo/scribemart/internal/storage"
	"github.com/polkiloo/scribemart/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		lock.Module,
		storage.Module,
		originality.Module,
		gateway.Module,
		notify.Module,
		fx.Provide(
			func(e notify.Emitter) usecase.Notifier { return e },
			func(g gateway.Gateway) usecase.PaymentGateway { return g },
			func(l lock.Locker) usecase.Locker { return l },
		),
		usecase.Module,
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
