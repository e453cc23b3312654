package gateway

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/scribemart/internal/config"
)

// Module selects the payment gateway named in configuration.
var Module = fx.Provide(newGateway)

type gatewayParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newGateway(p gatewayParams) (Gateway, error) {
	if p.Config.PaymentGateway == config.GatewayStripe {
		return NewStripe(p.Config.StripeSecretKey, p.Logger)
	}
	p.Logger.Warn("manual payment gateway in use, money is not moved")
	return Manual{}, nil
}
