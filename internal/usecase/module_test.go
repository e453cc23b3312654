package usecase

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/scribemart/internal/config"
)

func TestNewPricingEngineAppliesConfig(t *testing.T) {
	engine := newPricingEngine(&config.Config{
		BasePagePrice:      decimal.NewFromInt(10),
		LevelMultipliers:   map[string]decimal.Decimal{"phd": decimal.NewFromInt(3)},
		UrgencyMultipliers: map[string]decimal.Decimal{"14-days": decimal.NewFromInt(2)},
	})

	q := engine.Quote(500, "14-days", "phd")
	if !q.PricePerPage.Equal(decimal.NewFromInt(60)) || !q.TotalPrice.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("expected configured tables to price 2 pages at 60, got %+v", q)
	}
}
