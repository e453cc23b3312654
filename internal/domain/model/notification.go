package model

import "time"

// NotificationKind names an event users are told about.
type NotificationKind string

const (
	NotifyOrderCreated        NotificationKind = "order.created"
	NotifyBidReceived         NotificationKind = "order.bid_received"
	NotifyOrderAssigned       NotificationKind = "order.assigned"
	NotifyOrderTaken          NotificationKind = "order.taken"
	NotifyWorkStarted         NotificationKind = "order.work_started"
	NotifyWorkSubmitted       NotificationKind = "order.submitted"
	NotifyRevisionRequested   NotificationKind = "order.revision_requested"
	NotifyOrderCompleted      NotificationKind = "order.completed"
	NotifyOrderCancelled      NotificationKind = "order.cancelled"
	NotifyPaymentReceived     NotificationKind = "payment.received"
	NotifyWithdrawalRequested NotificationKind = "withdrawal.requested"
	NotifyWithdrawalApproved  NotificationKind = "withdrawal.approved"
	NotifyWithdrawalRejected  NotificationKind = "withdrawal.rejected"
	NotifyWithdrawalFailed    NotificationKind = "withdrawal.failed"
	NotifyRefundIssued        NotificationKind = "payment.refunded"
)

// Notification is handed to the emitter after a successful state change.
type Notification struct {
	Kind           NotificationKind `json:"kind"`
	RecipientID    *int64           `json:"recipient_id,omitempty"`
	RecipientRole  Role             `json:"recipient_role,omitempty"`
	RecipientEmail string           `json:"recipient_email,omitempty"`
	OrderID        *int64           `json:"order_id,omitempty"`
	OrderNumber    string           `json:"order_number,omitempty"`
	PaymentID      *int64           `json:"payment_id,omitempty"`
	Message        string           `json:"message"`
	CreatedAt      time.Time        `json:"created_at"`
}
