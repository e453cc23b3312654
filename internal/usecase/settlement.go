package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/scribemart/internal/config"
	domainErrors "github.com/polkiloo/scribemart/internal/domain/errors"
	"github.com/polkiloo/scribemart/internal/domain/model"
	"github.com/polkiloo/scribemart/internal/domain/repository"
	"github.com/polkiloo/scribemart/internal/settlement"
)

// SettlementUseCase moves money: client charges, writer withdrawals and refunds.
type SettlementUseCase struct {
	orders   repository.OrderRepository
	payments repository.PaymentRepository
	stats    repository.StatsRepository
	users    repository.UserRepository
	gateway  PaymentGateway
	locker   Locker
	events   events
	logger   *slog.Logger

	feeRate       decimal.Decimal
	minWithdrawal decimal.Decimal
	currency      string
}

// PaymentInput carries the payment method and provider specific details.
type PaymentInput struct {
	Method  string          `json:"method" validate:"required,max=40"`
	Details json.RawMessage `json:"details"`
}

// NewSettlementUseCase constructs SettlementUseCase.
func NewSettlementUseCase(
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	stats repository.StatsRepository,
	users repository.UserRepository,
	gateway PaymentGateway,
	locker Locker,
	notifier Notifier,
	cfg *config.Config,
	logger *slog.Logger,
) *SettlementUseCase {
	return &SettlementUseCase{
		orders:        orders,
		payments:      payments,
		stats:         stats,
		users:         users,
		gateway:       gateway,
		locker:        locker,
		events:        events{notifier: notifier},
		logger:        logger,
		feeRate:       cfg.PlatformFeeRate,
		minWithdrawal: cfg.MinWithdrawal,
		currency:      cfg.Currency,
	}
}

// Pay charges the client for an order. A failed charge leaves the order unpaid so it can be retried.
func (u *SettlementUseCase) Pay(ctx context.Context, actor model.Actor, orderID int64, in PaymentInput) (*model.PaymentRecord, error) {
	in.Method = strings.TrimSpace(in.Method)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if actor.Role != model.RoleClient {
		return nil, domainErrors.ErrForbidden
	}

	release, err := u.locker.Acquire(ctx, "order:"+strconv.FormatInt(orderID, 10))
	if err != nil {
		return nil, fmt.Errorf("lock order: %w", err)
	}
	defer release()

	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsClient(actor.UserID) {
		return nil, domainErrors.ErrForbidden
	}
	if order.Status == model.OrderStatusCancelled {
		return nil, &domainErrors.StateError{Op: "pay", Status: string(order.Status)}
	}
	if order.PaymentStatus != model.OrderPaymentUnpaid {
		return nil, &domainErrors.StateError{Op: "pay", Status: string(order.PaymentStatus)}
	}

	fee, net := settlement.Split(order.TotalPrice, u.feeRate)
	payer := actor.UserID
	rec, err := u.payments.CreateCharge(ctx, model.PaymentRecord{
		Type:        model.PaymentTypeOrder,
		Amount:      order.TotalPrice,
		Currency:    order.Currency,
		PayerID:     &payer,
		OrderID:     &order.ID,
		Status:      model.PaymentStatusProcessing,
		PlatformFee: fee,
		NetAmount:   net,
		Method:      in.Method,
		Details:     in.Details,
	})
	if err != nil {
		return nil, err
	}

	res, err := u.gateway.Charge(ctx, model.ChargeRequest{
		PaymentID:   rec.ID,
		OrderNumber: order.Number,
		Amount:      rec.Amount,
		Currency:    rec.Currency,
		Method:      rec.Method,
		Details:     rec.Details,
	})
	if err != nil {
		return nil, u.fail(ctx, rec, "charge", err)
	}

	paid := model.OrderPaymentPaid
	done, err := u.payments.Update(ctx, rec.ID, []model.PaymentStatus{model.PaymentStatusProcessing}, model.PaymentUpdate{
		Status:             model.PaymentStatusCompleted,
		GatewayReference:   res.Reference,
		GatewayPayload:     res.Payload,
		OrderPaymentStatus: &paid,
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("order paid", slog.String("order", order.Number), slog.String("amount", done.Amount.String()))
	u.events.client(ctx, model.NotifyPaymentReceived, order, "Payment received for order "+order.Number)
	return done, nil
}

// RequestWithdrawal reserves part of a writer's available balance for payout.
func (u *SettlementUseCase) RequestWithdrawal(ctx context.Context, actor model.Actor, amount decimal.Decimal, in PaymentInput) (*model.PaymentRecord, error) {
	if actor.Role != model.RoleWriter {
		return nil, domainErrors.ErrForbidden
	}
	in.Method = strings.TrimSpace(in.Method)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, domainErrors.Invalid("amount", "must be positive")
	}
	if amount.LessThan(u.minWithdrawal) {
		return nil, domainErrors.Invalid("amount", "below minimum withdrawal of "+u.minWithdrawal.StringFixed(2))
	}

	writer, err := u.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !writer.Active() {
		return nil, domainErrors.ErrForbidden
	}

	release, err := u.locker.Acquire(ctx, "withdraw:"+strconv.FormatInt(actor.UserID, 10))
	if err != nil {
		return nil, fmt.Errorf("lock writer balance: %w", err)
	}
	defer release()

	payee := actor.UserID
	rec, err := u.payments.CreateWithdrawal(ctx, model.PaymentRecord{
		Type:      model.PaymentTypeWithdrawal,
		Amount:    amount,
		Currency:  u.currency,
		PayeeID:   &payee,
		Status:    model.PaymentStatusPending,
		NetAmount: amount,
		Method:    in.Method,
		Details:   in.Details,
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("withdrawal requested", slog.Int64("writer_id", payee), slog.String("amount", amount.String()))
	u.events.payment(ctx, model.NotifyWithdrawalRequested, rec, nil, model.RoleAdmin,
		fmt.Sprintf("Writer #%d requested a withdrawal of %s", payee, amount.StringFixed(2)))
	return rec, nil
}

// ApproveWithdrawal pays a pending withdrawal out through the gateway.
func (u *SettlementUseCase) ApproveWithdrawal(ctx context.Context, actor model.Actor, paymentID int64) (*model.PaymentRecord, error) {
	rec, err := u.withdrawal(ctx, actor, paymentID)
	if err != nil {
		return nil, err
	}

	rec, err = u.payments.Update(ctx, rec.ID, []model.PaymentStatus{model.PaymentStatusPending}, model.PaymentUpdate{
		Status: model.PaymentStatusProcessing,
	})
	if err != nil {
		return nil, err
	}

	res, err := u.gateway.Payout(ctx, model.PayoutRequest{
		PaymentID: rec.ID,
		WriterID:  *rec.PayeeID,
		Amount:    rec.Amount,
		Currency:  rec.Currency,
		Method:    rec.Method,
		Details:   rec.Details,
	})
	if err != nil {
		failErr := u.fail(ctx, rec, "payout", err)
		u.events.payment(ctx, model.NotifyWithdrawalFailed, rec, rec.PayeeID, model.RoleWriter,
			"Your withdrawal of "+rec.Amount.StringFixed(2)+" could not be paid out")
		return nil, failErr
	}

	done, err := u.payments.Update(ctx, rec.ID, []model.PaymentStatus{model.PaymentStatusProcessing}, model.PaymentUpdate{
		Status:           model.PaymentStatusCompleted,
		GatewayReference: res.Reference,
		GatewayPayload:   res.Payload,
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("withdrawal paid", slog.Int64("payment_id", done.ID), slog.String("reference", done.GatewayReference))
	u.events.payment(ctx, model.NotifyWithdrawalApproved, done, done.PayeeID, model.RoleWriter,
		"Your withdrawal of "+done.Amount.StringFixed(2)+" was paid out")
	return done, nil
}

// RejectWithdrawal declines a pending withdrawal; the amount becomes available again.
func (u *SettlementUseCase) RejectWithdrawal(ctx context.Context, actor model.Actor, paymentID int64, reason string) (*model.PaymentRecord, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domainErrors.Invalid("reason", "required")
	}
	rec, err := u.withdrawal(ctx, actor, paymentID)
	if err != nil {
		return nil, err
	}

	done, err := u.payments.Update(ctx, rec.ID, []model.PaymentStatus{model.PaymentStatusPending}, model.PaymentUpdate{
		Status:        model.PaymentStatusRejected,
		FailureReason: reason,
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("withdrawal rejected", slog.Int64("payment_id", done.ID))
	u.events.payment(ctx, model.NotifyWithdrawalRejected, done, done.PayeeID, model.RoleWriter,
		"Your withdrawal was rejected: "+reason)
	return done, nil
}

// Refund returns money from a completed order payment to the client.
func (u *SettlementUseCase) Refund(ctx context.Context, actor model.Actor, paymentID int64, amount decimal.Decimal, reason string) (*model.PaymentRecord, error) {
	if actor.Role != model.RoleAdmin {
		return nil, domainErrors.ErrForbidden
	}
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, domainErrors.Invalid("amount", "must be positive")
	}

	original, err := u.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if original.Type != model.PaymentTypeOrder {
		return nil, domainErrors.Invalid("payment_id", "not an order payment")
	}
	if !original.Charged() {
		return nil, &domainErrors.StateError{Op: "refund", Status: string(original.Status)}
	}

	release, err := u.locker.Acquire(ctx, "refund:"+strconv.FormatInt(original.ID, 10))
	if err != nil {
		return nil, fmt.Errorf("lock payment: %w", err)
	}
	defer release()

	rec, err := u.payments.CreateRefund(ctx, model.PaymentRecord{
		Type:      model.PaymentTypeRefund,
		Amount:    amount,
		Currency:  original.Currency,
		PayeeID:   original.PayerID,
		RelatedID: &original.ID,
		Status:    model.PaymentStatusProcessing,
		NetAmount: amount,
		Method:    original.Method,
		Details:   reasonDetails(reason),
	})
	if err != nil {
		return nil, err
	}

	res, err := u.gateway.Refund(ctx, model.RefundRequest{
		PaymentID:         rec.ID,
		OriginalReference: original.GatewayReference,
		Amount:            amount,
		Currency:          rec.Currency,
		Reason:            strings.TrimSpace(reason),
	})
	if err != nil {
		return nil, u.fail(ctx, rec, "refund", err)
	}

	refunded := model.OrderPaymentRefunded
	done, err := u.payments.Update(ctx, rec.ID, []model.PaymentStatus{model.PaymentStatusProcessing}, model.PaymentUpdate{
		Status:             model.PaymentStatusCompleted,
		GatewayReference:   res.Reference,
		GatewayPayload:     res.Payload,
		OrderPaymentStatus: &refunded,
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("refund issued", slog.Int64("payment_id", original.ID), slog.String("amount", amount.String()))
	u.events.payment(ctx, model.NotifyRefundIssued, done, done.PayeeID, model.RoleClient,
		"A refund of "+amount.StringFixed(2)+" was issued")
	return done, nil
}

// Balance summarises a writer's earnings. Writers see their own, admins anyone's.
func (u *SettlementUseCase) Balance(ctx context.Context, actor model.Actor, writerID int64) (*model.Balance, error) {
	if !(actor.Role == model.RoleAdmin || (actor.Role == model.RoleWriter && actor.Is(writerID))) {
		return nil, domainErrors.ErrForbidden
	}
	return u.payments.Balance(ctx, writerID)
}

// Payments lists ledger entries where the actor pays or is paid.
func (u *SettlementUseCase) Payments(ctx context.Context, actor model.Actor) ([]model.PaymentRecord, error) {
	return u.payments.ListByUser(ctx, actor.UserID)
}

// PendingWithdrawals lists withdrawals awaiting an admin decision or payout.
func (u *SettlementUseCase) PendingWithdrawals(ctx context.Context, actor model.Actor) ([]model.PaymentRecord, error) {
	if actor.Role != model.RoleAdmin {
		return nil, domainErrors.ErrForbidden
	}
	return u.payments.ListWithdrawals(ctx, []model.PaymentStatus{model.PaymentStatusPending, model.PaymentStatusProcessing})
}

// WriterStats returns a writer's public aggregates.
func (u *SettlementUseCase) WriterStats(ctx context.Context, writerID int64) (*model.WriterStats, error) {
	writer, err := u.users.GetByID(ctx, writerID)
	if err != nil {
		return nil, err
	}
	if writer.Role != model.RoleWriter {
		return nil, domainErrors.ErrNotFound
	}
	return u.stats.Get(ctx, writerID)
}

func (u *SettlementUseCase) withdrawal(ctx context.Context, actor model.Actor, paymentID int64) (*model.PaymentRecord, error) {
	if actor.Role != model.RoleAdmin {
		return nil, domainErrors.ErrForbidden
	}
	rec, err := u.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if rec.Type != model.PaymentTypeWithdrawal || rec.PayeeID == nil {
		return nil, domainErrors.ErrNotFound
	}
	return rec, nil
}

// fail marks a processing record failed and reports the gateway error.
func (u *SettlementUseCase) fail(ctx context.Context, rec *model.PaymentRecord, op string, cause error) error {
	u.logger.Warn("gateway call failed",
		slog.String("op", op),
		slog.Int64("payment_id", rec.ID),
		slog.String("error", cause.Error()),
	)
	if _, err := u.payments.Update(ctx, rec.ID, []model.PaymentStatus{model.PaymentStatusProcessing}, model.PaymentUpdate{
		Status:        model.PaymentStatusFailed,
		FailureReason: cause.Error(),
	}); err != nil {
		return errors.Join(&domainErrors.GatewayError{Op: op, Err: cause}, fmt.Errorf("mark payment failed: %w", err))
	}
	return &domainErrors.GatewayError{Op: op, Err: cause}
}

func reasonDetails(reason string) json.RawMessage {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil
	}
	raw, err := json.Marshal(map[string]string{"reason": reason})
	if err != nil {
		return nil
	}
	return raw
}
