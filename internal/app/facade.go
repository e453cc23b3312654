package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/scribemart/internal/domain/model"
	"github.com/polkiloo/scribemart/internal/pricing"
	"github.com/polkiloo/scribemart/internal/usecase"
)

// MarketplaceFacade is the single entry point the transport layer talks to.
type MarketplaceFacade struct {
	auth       *usecase.AuthUseCase
	orders     *usecase.OrderUseCase
	matching   *usecase.MatchingUseCase
	workflow   *usecase.WorkflowUseCase
	settlement *usecase.SettlementUseCase
}

func NewMarketplaceFacade(
	auth *usecase.AuthUseCase,
	orders *usecase.OrderUseCase,
	matching *usecase.MatchingUseCase,
	workflow *usecase.WorkflowUseCase,
	settlement *usecase.SettlementUseCase,
) *MarketplaceFacade {
	return &MarketplaceFacade{auth: auth, orders: orders, matching: matching, workflow: workflow, settlement: settlement}
}

func (f *MarketplaceFacade) Register(ctx context.Context, in usecase.RegisterInput) (*model.User, string, error) {
	return f.auth.Register(ctx, in)
}

func (f *MarketplaceFacade) Authenticate(ctx context.Context, email, password string) (*model.User, string, error) {
	return f.auth.Authenticate(ctx, email, password)
}

func (f *MarketplaceFacade) ParseToken(token string) (model.Actor, error) {
	return f.auth.ParseToken(token)
}

func (f *MarketplaceFacade) SetUserStatus(ctx context.Context, actor model.Actor, userID int64, status model.UserStatus) error {
	return f.auth.SetStatus(ctx, actor, userID, status)
}

func (f *MarketplaceFacade) CreateOrder(ctx context.Context, actor *model.Actor, in usecase.CreateOrderInput) (*model.Order, error) {
	return f.orders.Create(ctx, actor, in)
}

func (f *MarketplaceFacade) Quote(wordCount int, urgency, level string, deadline *time.Time) (pricing.Quote, string, error) {
	return f.orders.Quote(wordCount, urgency, level, deadline)
}

func (f *MarketplaceFacade) Order(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	return f.orders.Get(ctx, actor, orderID)
}

func (f *MarketplaceFacade) GuestOrder(ctx context.Context, number, email string) (*model.Order, error) {
	return f.orders.GetGuest(ctx, number, email)
}

func (f *MarketplaceFacade) Orders(ctx context.Context, actor model.Actor) ([]model.Order, error) {
	return f.orders.List(ctx, actor)
}

func (f *MarketplaceFacade) AvailableOrders(ctx context.Context, actor model.Actor) ([]model.Order, error) {
	return f.orders.ListAvailable(ctx, actor)
}

func (f *MarketplaceFacade) Timeline(ctx context.Context, actor model.Actor, orderID int64) ([]model.TimelineEntry, error) {
	return f.orders.Timeline(ctx, actor, orderID)
}

func (f *MarketplaceFacade) LinkGuestOrder(ctx context.Context, actor model.Actor, number, email string) (*model.Order, error) {
	return f.orders.LinkGuest(ctx, actor, number, email)
}

func (f *MarketplaceFacade) Now() time.Time {
	return f.orders.Now()
}

func (f *MarketplaceFacade) ApplyBid(ctx context.Context, actor model.Actor, orderID int64, amount decimal.Decimal, message string) (*model.Bid, error) {
	return f.matching.Apply(ctx, actor, orderID, amount, message)
}

func (f *MarketplaceFacade) WithdrawBid(ctx context.Context, actor model.Actor, orderID int64) error {
	return f.matching.WithdrawBid(ctx, actor, orderID)
}

func (f *MarketplaceFacade) AssignWriter(ctx context.Context, actor model.Actor, orderID, writerID int64) (*model.Order, error) {
	return f.matching.Assign(ctx, actor, orderID, writerID)
}

func (f *MarketplaceFacade) TakeOrder(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	return f.matching.Take(ctx, actor, orderID)
}

func (f *MarketplaceFacade) StartWork(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	return f.workflow.StartWork(ctx, actor, orderID)
}

func (f *MarketplaceFacade) SubmitWork(ctx context.Context, actor model.Actor, orderID int64, fileRef, note string) (*model.Order, error) {
	return f.workflow.Submit(ctx, actor, orderID, fileRef, note)
}

func (f *MarketplaceFacade) RequestRevision(ctx context.Context, actor model.Actor, orderID int64, in usecase.RevisionInput) (*model.Order, error) {
	return f.workflow.RequestRevision(ctx, actor, orderID, in)
}

func (f *MarketplaceFacade) CompleteOrder(ctx context.Context, actor model.Actor, orderID int64, rating *model.Rating) (*model.Order, *model.PaymentRecord, error) {
	return f.workflow.Complete(ctx, actor, orderID, rating)
}

func (f *MarketplaceFacade) CancelOrder(ctx context.Context, actor model.Actor, orderID int64, reason string) (*model.Order, error) {
	return f.workflow.Cancel(ctx, actor, orderID, reason)
}

func (f *MarketplaceFacade) RetryOriginalityCheck(ctx context.Context, actor model.Actor, orderID, submissionID int64) error {
	return f.workflow.RetryOriginalityCheck(ctx, actor, orderID, submissionID)
}

// ClaimPendingChecks and RecordCheck feed the originality worker.
func (f *MarketplaceFacade) ClaimPendingChecks(ctx context.Context, limit int) ([]model.Submission, error) {
	return f.workflow.ClaimPendingChecks(ctx, limit)
}

func (f *MarketplaceFacade) RecordCheck(ctx context.Context, submissionID int64, result *model.OriginalityResult) error {
	return f.workflow.RecordCheck(ctx, submissionID, result)
}

func (f *MarketplaceFacade) PayOrder(ctx context.Context, actor model.Actor, orderID int64, in usecase.PaymentInput) (*model.PaymentRecord, error) {
	return f.settlement.Pay(ctx, actor, orderID, in)
}

// Balance returns the caller's own balance.
func (f *MarketplaceFacade) Balance(ctx context.Context, actor model.Actor) (*model.Balance, error) {
	return f.settlement.Balance(ctx, actor, actor.UserID)
}

func (f *MarketplaceFacade) RequestWithdrawal(ctx context.Context, actor model.Actor, amount decimal.Decimal, in usecase.PaymentInput) (*model.PaymentRecord, error) {
	return f.settlement.RequestWithdrawal(ctx, actor, amount, in)
}

func (f *MarketplaceFacade) Payments(ctx context.Context, actor model.Actor) ([]model.PaymentRecord, error) {
	return f.settlement.Payments(ctx, actor)
}

func (f *MarketplaceFacade) WriterStats(ctx context.Context, writerID int64) (*model.WriterStats, error) {
	return f.settlement.WriterStats(ctx, writerID)
}

func (f *MarketplaceFacade) PendingWithdrawals(ctx context.Context, actor model.Actor) ([]model.PaymentRecord, error) {
	return f.settlement.PendingWithdrawals(ctx, actor)
}

func (f *MarketplaceFacade) ApproveWithdrawal(ctx context.Context, actor model.Actor, paymentID int64) (*model.PaymentRecord, error) {
	return f.settlement.ApproveWithdrawal(ctx, actor, paymentID)
}

func (f *MarketplaceFacade) RejectWithdrawal(ctx context.Context, actor model.Actor, paymentID int64, reason string) (*model.PaymentRecord, error) {
	return f.settlement.RejectWithdrawal(ctx, actor, paymentID, reason)
}

func (f *MarketplaceFacade) Refund(ctx context.Context, actor model.Actor, paymentID int64, amount decimal.Decimal, reason string) (*model.PaymentRecord, error) {
	return f.settlement.Refund(ctx, actor, paymentID, amount, reason)
}
