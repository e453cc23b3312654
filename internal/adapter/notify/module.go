package notify

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/scribemart/internal/config"
)

// Module provides the notification emitter: Kafka when brokers are configured, log otherwise.
var Module = fx.Provide(newEmitter)

type emitterParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newEmitter(p emitterParams) Emitter {
	if len(p.Config.KafkaBrokers) == 0 {
		return NewLog(p.Logger)
	}

	k := NewKafka(p.Config.KafkaBrokers, p.Config.KafkaTopic, p.Logger)
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return k.Start()
		},
		OnStop: k.Stop,
	})
	p.Logger.Info("publishing notifications to kafka", slog.String("topic", p.Config.KafkaTopic))
	return k
}
