package usecase

import (
	"context"

	"github.com/polkiloo/scribemart/internal/domain/model"
)

// Notifier receives user notifications after a state change has been stored.
type Notifier interface {
	Emit(ctx context.Context, n model.Notification)
}

// PaymentGateway moves money through a provider.
type PaymentGateway interface {
	Charge(ctx context.Context, req model.ChargeRequest) (*model.GatewayResult, error)
	Refund(ctx context.Context, req model.RefundRequest) (*model.GatewayResult, error)
	Payout(ctx context.Context, req model.PayoutRequest) (*model.GatewayResult, error)
}

// Locker serialises check-then-write sequences per key.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
