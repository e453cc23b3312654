package handlers

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/scribemart/internal/domain/model"
	"github.com/polkiloo/scribemart/internal/pricing"
	"github.com/polkiloo/scribemart/internal/usecase"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*model.User, string, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, string, error)
	ParseToken(token string) (model.Actor, error)
	SetUserStatus(ctx context.Context, actor model.Actor, userID int64, status model.UserStatus) error
}

// OrderFacade covers placing, reading and linking orders.
type OrderFacade interface {
	CreateOrder(ctx context.Context, actor *model.Actor, in usecase.CreateOrderInput) (*model.Order, error)
	Quote(wordCount int, urgency, level string, deadline *time.Time) (pricing.Quote, string, error)
	Order(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error)
	GuestOrder(ctx context.Context, number, email string) (*model.Order, error)
	Orders(ctx context.Context, actor model.Actor) ([]model.Order, error)
	AvailableOrders(ctx context.Context, actor model.Actor) ([]model.Order, error)
	Timeline(ctx context.Context, actor model.Actor, orderID int64) ([]model.TimelineEntry, error)
	LinkGuestOrder(ctx context.Context, actor model.Actor, number, email string) (*model.Order, error)
	Now() time.Time
}

// MatchingFacade covers bids and writer assignment.
type MatchingFacade interface {
	ApplyBid(ctx context.Context, actor model.Actor, orderID int64, amount decimal.Decimal, message string) (*model.Bid, error)
	WithdrawBid(ctx context.Context, actor model.Actor, orderID int64) error
	AssignWriter(ctx context.Context, actor model.Actor, orderID, writerID int64) (*model.Order, error)
	TakeOrder(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error)
}

// WorkflowFacade covers work delivery and the end of an order.
type WorkflowFacade interface {
	StartWork(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error)
	SubmitWork(ctx context.Context, actor model.Actor, orderID int64, fileRef, note string) (*model.Order, error)
	RequestRevision(ctx context.Context, actor model.Actor, orderID int64, in usecase.RevisionInput) (*model.Order, error)
	CompleteOrder(ctx context.Context, actor model.Actor, orderID int64, rating *model.Rating) (*model.Order, *model.PaymentRecord, error)
	CancelOrder(ctx context.Context, actor model.Actor, orderID int64, reason string) (*model.Order, error)
	RetryOriginalityCheck(ctx context.Context, actor model.Actor, orderID, submissionID int64) error
}

// SettlementFacade covers charges, balances, withdrawals and refunds.
type SettlementFacade interface {
	PayOrder(ctx context.Context, actor model.Actor, orderID int64, in usecase.PaymentInput) (*model.PaymentRecord, error)
	Balance(ctx context.Context, actor model.Actor) (*model.Balance, error)
	RequestWithdrawal(ctx context.Context, actor model.Actor, amount decimal.Decimal, in usecase.PaymentInput) (*model.PaymentRecord, error)
	Payments(ctx context.Context, actor model.Actor) ([]model.PaymentRecord, error)
	WriterStats(ctx context.Context, writerID int64) (*model.WriterStats, error)
	PendingWithdrawals(ctx context.Context, actor model.Actor) ([]model.PaymentRecord, error)
	ApproveWithdrawal(ctx context.Context, actor model.Actor, paymentID int64) (*model.PaymentRecord, error)
	RejectWithdrawal(ctx context.Context, actor model.Actor, paymentID int64, reason string) (*model.PaymentRecord, error)
	Refund(ctx context.Context, actor model.Actor, paymentID int64, amount decimal.Decimal, reason string) (*model.PaymentRecord, error)
}

// MarketplaceFacade aggregates the full set of operations used across handlers.
type MarketplaceFacade interface {
	AuthFacade
	OrderFacade
	MatchingFacade
	WorkflowFacade
	SettlementFacade
}
