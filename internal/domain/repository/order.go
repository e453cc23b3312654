package repository

import (
	"context"

	"github.com/polkiloo/scribemart/internal/domain/model"
)

// OrderRepository describes persistence operations with orders.
//
// Transition and Complete are conditional: when the order is not in one of the
// expected statuses nothing is written and the error matches ErrInvalidState.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order, entry model.TimelineEntry) (*model.Order, error)
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	GetByNumber(ctx context.Context, number string) (*model.Order, error)
	ListByClient(ctx context.Context, clientID int64) ([]model.Order, error)
	ListByWriter(ctx context.Context, writerID int64) ([]model.Order, error)
	ListAvailable(ctx context.Context) ([]model.Order, error)
	Timeline(ctx context.Context, orderID int64) ([]model.TimelineEntry, error)

	AddBid(ctx context.Context, bid model.Bid) (*model.Bid, error)
	WithdrawBid(ctx context.Context, orderID, writerID int64) error

	Transition(ctx context.Context, t model.Transition) (*model.Order, error)
	Complete(ctx context.Context, c model.Completion) (*model.Order, *model.PaymentRecord, error)
	LinkClient(ctx context.Context, orderID int64, guestEmail string, clientID int64, entry model.TimelineEntry) (*model.Order, error)
}

// SubmissionRepository is the queue of pending originality checks.
type SubmissionRepository interface {
	ClaimPendingChecks(ctx context.Context, limit int) ([]model.Submission, error)
	SaveCheckResult(ctx context.Context, submissionID int64, status model.CheckStatus, result *model.OriginalityResult) error
	Requeue(ctx context.Context, orderID, submissionID int64) error
}
