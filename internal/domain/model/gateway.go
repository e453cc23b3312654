package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ChargeRequest asks the gateway to take money from a client.
type ChargeRequest struct {
	PaymentID   int64
	OrderNumber string
	Amount      decimal.Decimal
	Currency    string
	Method      string
	Details     json.RawMessage
}

// RefundRequest returns part or all of a completed charge.
type RefundRequest struct {
	PaymentID         int64
	OriginalReference string
	Amount            decimal.Decimal
	Currency          string
	Reason            string
}

// PayoutRequest sends writer earnings out of the platform.
type PayoutRequest struct {
	PaymentID int64
	WriterID  int64
	Amount    decimal.Decimal
	Currency  string
	Method    string
	Details   json.RawMessage
}
