package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRequest charges the client for an order.
type PaymentRequest struct {
	Method  string          `json:"method"`
	Details json.RawMessage `json:"details"`
}

// WithdrawalRequest asks for a payout of writer earnings.
type WithdrawalRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	Method  string          `json:"method"`
	Details json.RawMessage `json:"details"`
}

// RejectRequest explains an admin decision.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// RefundRequest returns money to a client.
type RefundRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

// PaymentResponse is one ledger entry.
type PaymentResponse struct {
	ID               int64           `json:"id"`
	Type             string          `json:"type"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	PayerID          *int64          `json:"payer_id,omitempty"`
	PayeeID          *int64          `json:"payee_id,omitempty"`
	OrderID          *int64          `json:"order_id,omitempty"`
	RelatedID        *int64          `json:"related_id,omitempty"`
	Status           string          `json:"status"`
	PlatformFee      decimal.Decimal `json:"platform_fee"`
	NetAmount        decimal.Decimal `json:"net_amount"`
	Method           string          `json:"method,omitempty"`
	GatewayReference string          `json:"gateway_reference,omitempty"`
	FailureReason    string          `json:"failure_reason,omitempty"`
	RequestedAt      time.Time       `json:"requested_at"`
	ApprovedAt       *time.Time      `json:"approved_at,omitempty"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
}

// CompleteResponse is the completed order with the writer's credit.
type CompleteResponse struct {
	Order   OrderResponse   `json:"order"`
	Payment PaymentResponse `json:"payment"`
}

// BalanceResponse summarises writer money.
type BalanceResponse struct {
	Earned    decimal.Decimal `json:"earned"`
	Withdrawn decimal.Decimal `json:"withdrawn"`
	Pending   decimal.Decimal `json:"pending"`
	Available decimal.Decimal `json:"available"`
}

// StatsResponse is a writer's public track record.
type StatsResponse struct {
	WriterID        int64           `json:"writer_id"`
	CompletedOrders int             `json:"completed_orders"`
	OnTimeOrders    int             `json:"on_time_orders"`
	RatedOrders     int             `json:"rated_orders"`
	AverageRating   decimal.Decimal `json:"average_rating"`
}
