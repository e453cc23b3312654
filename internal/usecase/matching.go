package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/scribemart/internal/domain/errors"
	"github.com/polkiloo/scribemart/internal/domain/model"
	"github.com/polkiloo/scribemart/internal/domain/repository"
)

// MatchingUseCase handles bids and writer assignment.
type MatchingUseCase struct {
	orders repository.OrderRepository
	users  repository.UserRepository
	events events
	logger *slog.Logger
	now    func() time.Time
}

// NewMatchingUseCase constructs MatchingUseCase.
func NewMatchingUseCase(orders repository.OrderRepository, users repository.UserRepository, notifier Notifier, logger *slog.Logger) *MatchingUseCase {
	return &MatchingUseCase{
		orders: orders,
		users:  users,
		events: events{notifier: notifier},
		logger: logger,
		now:    time.Now,
	}
}

// Apply records a writer's bid on a pending order.
func (u *MatchingUseCase) Apply(ctx context.Context, actor model.Actor, orderID int64, amount decimal.Decimal, message string) (*model.Bid, error) {
	if actor.Role != model.RoleWriter {
		return nil, domainErrors.ErrForbidden
	}
	if !amount.IsPositive() {
		return nil, domainErrors.Invalid("amount", "must be positive")
	}
	message = strings.TrimSpace(message)
	if len(message) > 2000 {
		return nil, domainErrors.Invalid("message", "must be at most 2000 characters")
	}
	if _, err := u.activeWriter(ctx, actor.UserID); err != nil {
		return nil, err
	}

	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderStatusPending {
		return nil, &domainErrors.StateError{Op: "bid", Status: string(order.Status)}
	}
	if !order.Deadline.After(u.now()) {
		return nil, domainErrors.Invalid("deadline", "already passed")
	}

	bid, err := u.orders.AddBid(ctx, model.Bid{
		OrderID:  orderID,
		WriterID: actor.UserID,
		Amount:   amount.Round(2),
		Message:  message,
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("bid placed", slog.String("order", order.Number), slog.Int64("writer_id", actor.UserID))
	u.events.client(ctx, model.NotifyBidReceived, order, "A writer applied for order "+order.Number)
	return bid, nil
}

// WithdrawBid cancels the writer's pending bid.
func (u *MatchingUseCase) WithdrawBid(ctx context.Context, actor model.Actor, orderID int64) error {
	if actor.Role != model.RoleWriter {
		return domainErrors.ErrForbidden
	}
	return u.orders.WithdrawBid(ctx, orderID, actor.UserID)
}

// Assign gives a pending order to a writer. Clients accept a bid, admins assign anyone and
// writers take an order for themselves; all go through one conditional transition.
func (u *MatchingUseCase) Assign(ctx context.Context, actor model.Actor, orderID, writerID int64) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case model.RoleAdmin:
	case model.RoleClient:
		if !order.IsClient(actor.UserID) {
			return nil, domainErrors.ErrForbidden
		}
	case model.RoleWriter:
		if !actor.Is(writerID) {
			return nil, domainErrors.ErrForbidden
		}
	default:
		return nil, domainErrors.ErrForbidden
	}

	if order.Status != model.OrderStatusPending {
		return nil, &domainErrors.StateError{Op: "assign", Status: string(order.Status)}
	}
	if !order.Deadline.After(u.now()) {
		return nil, domainErrors.Invalid("deadline", "already passed")
	}
	if actor.Role == model.RoleClient && !hasPendingBid(order, writerID) {
		return nil, domainErrors.Invalid("writer_id", "writer has no pending bid")
	}

	writer, err := u.activeWriter(ctx, writerID)
	if err != nil {
		return nil, err
	}

	event, desc := "assigned", fmt.Sprintf("Assigned to writer #%d", writer.ID)
	if actor.Role == model.RoleWriter {
		event, desc = "taken", fmt.Sprintf("Taken by writer #%d", writer.ID)
	}
	id := writer.ID
	updated, err := u.orders.Transition(ctx, model.Transition{
		OrderID:   orderID,
		From:      []model.OrderStatus{model.OrderStatusPending},
		To:        model.OrderStatusAssigned,
		Entry:     entry(event, desc, &actor),
		WriterID:  &id,
		CloseBids: true,
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("writer assigned",
		slog.String("order", updated.Number),
		slog.Int64("writer_id", writer.ID),
		slog.String("by", string(actor.Role)),
	)
	switch actor.Role {
	case model.RoleWriter:
		u.events.client(ctx, model.NotifyOrderTaken, updated, "A writer took order "+updated.Number)
	case model.RoleAdmin:
		u.events.writer(ctx, model.NotifyOrderAssigned, updated, writer.ID, "You were assigned order "+updated.Number)
		u.events.client(ctx, model.NotifyOrderAssigned, updated, "A writer was assigned to order "+updated.Number)
	default:
		u.events.writer(ctx, model.NotifyOrderAssigned, updated, writer.ID, "Your bid on order "+updated.Number+" was accepted")
	}
	return updated, nil
}

// Take assigns a pending order to the calling writer.
func (u *MatchingUseCase) Take(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	if actor.Role != model.RoleWriter {
		return nil, domainErrors.ErrForbidden
	}
	return u.Assign(ctx, actor, orderID, actor.UserID)
}

func (u *MatchingUseCase) activeWriter(ctx context.Context, writerID int64) (*model.User, error) {
	writer, err := u.users.GetByID(ctx, writerID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, fmt.Errorf("writer %d: %w", writerID, domainErrors.ErrNotFound)
		}
		return nil, err
	}
	if writer.Role != model.RoleWriter || !writer.Active() {
		return nil, fmt.Errorf("writer %d: %w", writerID, domainErrors.ErrNotFound)
	}
	return writer, nil
}

func hasPendingBid(o *model.Order, writerID int64) bool {
	for _, b := range o.Bids {
		if b.WriterID == writerID && b.Status == model.BidStatusPending {
			return true
		}
	}
	return false
}
