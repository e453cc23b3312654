package usecase

import (
	"go.uber.org/fx"

	"github.com/polkiloo/scribemart/internal/config"
	"github.com/polkiloo/scribemart/internal/pricing"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	newPricingEngine,
	NewAuthUseCase,
	NewOrderUseCase,
	NewMatchingUseCase,
	NewWorkflowUseCase,
	NewSettlementUseCase,
)

func newPricingEngine(cfg *config.Config) *pricing.Engine {
	return pricing.NewEngine(
		pricing.WithBasePrice(cfg.BasePagePrice),
		pricing.WithLevels(cfg.LevelMultipliers),
		pricing.WithUrgencyMultipliers(cfg.UrgencyMultipliers),
	)
}
