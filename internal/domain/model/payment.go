package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType distinguishes ledger entries.
type PaymentType string

const (
	PaymentTypeOrder      PaymentType = "order_payment"
	PaymentTypeWithdrawal PaymentType = "writer_withdrawal"
	PaymentTypeRefund     PaymentType = "refund"
)

// PaymentMethodLedger marks an order payment booked on completion without a gateway charge.
const PaymentMethodLedger = "ledger"

// PaymentStatus is the processing state of a ledger entry.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRejected   PaymentStatus = "rejected"
)

// Terminal reports whether the record can no longer change.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRejected:
		return true
	}
	return false
}

// PaymentRecord is an immutable-once-terminal entry of the money ledger.
type PaymentRecord struct {
	ID               int64
	Type             PaymentType
	Amount           decimal.Decimal
	Currency         string
	PayerID          *int64
	PayeeID          *int64
	OrderID          *int64
	RelatedID        *int64
	Status           PaymentStatus
	PlatformFee      decimal.Decimal
	NetAmount        decimal.Decimal
	Method           string
	Details          json.RawMessage
	GatewayReference string
	GatewayPayload   json.RawMessage
	FailureReason    string
	RequestedAt      time.Time
	ApprovedAt       *time.Time
	CompletedAt      *time.Time
}

// Charged reports whether the record is an order payment the gateway actually collected.
func (p PaymentRecord) Charged() bool {
	return p.Type == PaymentTypeOrder &&
		p.Status == PaymentStatusCompleted &&
		p.Method != PaymentMethodLedger &&
		p.GatewayReference != ""
}

// PaymentUpdate moves a record to a new status.
type PaymentUpdate struct {
	Status           PaymentStatus
	GatewayReference string
	GatewayPayload   json.RawMessage
	FailureReason    string
	// OrderPaymentStatus, when set, is written to the linked order in the same transaction.
	OrderPaymentStatus *OrderPaymentStatus
}

// GatewayResult is the outcome of a gateway call.
type GatewayResult struct {
	Reference string
	Status    string
	Payload   json.RawMessage
}

// Balance summarises a writer's money.
type Balance struct {
	Earned    decimal.Decimal
	Withdrawn decimal.Decimal
	Pending   decimal.Decimal
	Available decimal.Decimal
}

// WriterStats aggregates completed work of a writer.
type WriterStats struct {
	WriterID        int64
	CompletedOrders int
	OnTimeOrders    int
	RatedOrders     int
	AverageRating   decimal.Decimal
}
