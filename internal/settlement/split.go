// Package settlement holds the money arithmetic shared by payment flows.
package settlement

import (
	"github.com/shopspring/decimal"

	"github.com/polkiloo/scribemart/internal/domain/model"
)

// Split divides an order total into the platform fee and the writer's net amount.
// fee + net always equals total.
func Split(total, rate decimal.Decimal) (fee, net decimal.Decimal) {
	fee = total.Mul(rate).Round(2)
	if fee.GreaterThan(total) {
		fee = total
	}
	net = total.Sub(fee)
	return fee, net
}

// AverageScale is the number of decimal places kept for a stored rating average.
const AverageScale = 8

// NextAverage computes (avg×(n-1)+score)/n, where n is the completed-order count
// including the order being rated.
func NextAverage(avg decimal.Decimal, n int, score int) decimal.Decimal {
	s := decimal.NewFromInt(int64(score))
	if n <= 1 {
		return s
	}
	prev := decimal.NewFromInt(int64(n - 1))
	return avg.Mul(prev).Add(s).DivRound(decimal.NewFromInt(int64(n)), AverageScale)
}

// Available is what a writer may still withdraw.
func Available(earned, withdrawn, pending decimal.Decimal) decimal.Decimal {
	return earned.Sub(withdrawn).Sub(pending)
}

// ApplyCompletion returns writer stats after one more completed order.
func ApplyCompletion(stats model.WriterStats, onTime bool, rating *model.Rating) model.WriterStats {
	stats.CompletedOrders++
	if onTime {
		stats.OnTimeOrders++
	}
	if rating != nil {
		stats.AverageRating = NextAverage(stats.AverageRating, stats.CompletedOrders, rating.Score)
		stats.RatedOrders++
	}
	return stats
}
