package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BidStatus describes a writer application.
type BidStatus string

const (
	BidStatusPending   BidStatus = "pending"
	BidStatusAccepted  BidStatus = "accepted"
	BidStatusRejected  BidStatus = "rejected"
	BidStatusWithdrawn BidStatus = "withdrawn"
)

// Bid is a writer's application to take an order.
type Bid struct {
	ID        int64
	OrderID   int64
	WriterID  int64
	Amount    decimal.Decimal
	Message   string
	Status    BidStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
