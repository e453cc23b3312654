package repository

import (
	"context"

	"github.com/polkiloo/scribemart/internal/domain/model"
)

// PaymentRepository persists the money ledger.
type PaymentRepository interface {
	// CreateCharge inserts an order payment. A second non-failed order payment for the same order
	// fails with ErrAlreadyExists.
	CreateCharge(ctx context.Context, rec model.PaymentRecord) (*model.PaymentRecord, error)
	// CreateWithdrawal checks the writer's available balance and inserts the request in one
	// atomic step; ErrInsufficientBalance when the balance does not cover it.
	CreateWithdrawal(ctx context.Context, rec model.PaymentRecord) (*model.PaymentRecord, error)
	// CreateRefund inserts a refund after checking it against the original payment and prior refunds.
	CreateRefund(ctx context.Context, rec model.PaymentRecord) (*model.PaymentRecord, error)
	// Update moves a record from one of the expected statuses; ErrInvalidState otherwise.
	Update(ctx context.Context, id int64, from []model.PaymentStatus, upd model.PaymentUpdate) (*model.PaymentRecord, error)

	GetByID(ctx context.Context, id int64) (*model.PaymentRecord, error)
	ListByUser(ctx context.Context, userID int64) ([]model.PaymentRecord, error)
	ListWithdrawals(ctx context.Context, statuses []model.PaymentStatus) ([]model.PaymentRecord, error)
	Balance(ctx context.Context, writerID int64) (*model.Balance, error)
}
