package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus describes the order lifecycle.
type OrderStatus string

const (
	OrderStatusPending           OrderStatus = "pending"
	OrderStatusAssigned          OrderStatus = "assigned"
	OrderStatusInProgress        OrderStatus = "in-progress"
	OrderStatusSubmitted         OrderStatus = "submitted"
	OrderStatusRevisionRequested OrderStatus = "revision-requested"
	OrderStatusCompleted         OrderStatus = "completed"
	OrderStatusCancelled         OrderStatus = "cancelled"
)

var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:           {OrderStatusAssigned, OrderStatusCancelled},
	OrderStatusAssigned:          {OrderStatusInProgress, OrderStatusSubmitted, OrderStatusCancelled},
	OrderStatusInProgress:        {OrderStatusSubmitted},
	OrderStatusSubmitted:         {OrderStatusCompleted, OrderStatusRevisionRequested},
	OrderStatusRevisionRequested: {OrderStatusInProgress, OrderStatusSubmitted},
}

// CanTransition reports whether the lifecycle allows moving from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SourcesOf lists every status that may move to the target.
func SourcesOf(to OrderStatus) []OrderStatus {
	var result []OrderStatus
	for _, from := range []OrderStatus{
		OrderStatusPending,
		OrderStatusAssigned,
		OrderStatusInProgress,
		OrderStatusSubmitted,
		OrderStatusRevisionRequested,
	} {
		if CanTransition(from, to) {
			result = append(result, from)
		}
	}
	return result
}

// Terminal reports whether no further transition exists.
func (s OrderStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// OrderPaymentStatus tracks client money for an order.
type OrderPaymentStatus string

const (
	OrderPaymentUnpaid   OrderPaymentStatus = "unpaid"
	OrderPaymentPaid     OrderPaymentStatus = "paid"
	OrderPaymentRefunded OrderPaymentStatus = "refunded"
)

// ClientRef identifies who commissioned an order. It is either IdentifiedClient or GuestClient.
type ClientRef interface {
	isClientRef()
}

// IdentifiedClient is a registered client account.
type IdentifiedClient struct {
	UserID int64
}

// GuestClient is a contact that placed an order without an account.
type GuestClient struct {
	Email string
	Name  string
}

func (IdentifiedClient) isClientRef() {}
func (GuestClient) isClientRef()      {}

// Requirements holds formatting constraints of the paper.
type Requirements struct {
	CitationStyle string `json:"citation_style,omitempty"`
	Spacing       string `json:"spacing,omitempty"`
	Language      string `json:"language,omitempty"`
	Sources       int    `json:"sources,omitempty"`
}

// RevisionRequest describes the client's latest revision demand.
type RevisionRequest struct {
	Reason       string    `json:"reason"`
	Instructions string    `json:"instructions,omitempty"`
	Deadline     time.Time `json:"deadline"`
	RequestedAt  time.Time `json:"requested_at"`
}

// Rating is the client's score for delivered work.
type Rating struct {
	Score  int    `json:"score"`
	Review string `json:"review,omitempty"`
}

// TimelineEntry records one event in the order history.
type TimelineEntry struct {
	ID          int64
	OrderID     int64
	Event       string
	Description string
	ActorID     *int64
	ActorRole   Role
	CreatedAt   time.Time
}

// Order is a commissioned piece of written work.
type Order struct {
	ID            int64
	Number        string
	Title         string
	Subject       string
	AcademicLevel string
	PaperType     string
	Instructions  string
	WordCount     int
	Pages         int
	Deadline      time.Time
	Urgency       string
	Requirements  Requirements

	PricePerPage     decimal.Decimal
	TotalPrice       decimal.Decimal
	Currency         string
	PaymentStatus    OrderPaymentStatus
	PaymentMethod    string
	PaymentReference string

	Client   ClientRef
	WriterID *int64
	Status   OrderStatus

	Bids        []Bid
	Submissions []Submission
	Revision    *RevisionRequest
	Rating      *Rating
	Timeline    []TimelineEntry

	ClientUnread int
	WriterUnread int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClientID returns the registered client of the order, if any.
func (o *Order) ClientID() (int64, bool) {
	if c, ok := o.Client.(IdentifiedClient); ok {
		return c.UserID, true
	}
	return 0, false
}

// Guest returns guest contact details when the order has no account yet.
func (o *Order) Guest() (GuestClient, bool) {
	g, ok := o.Client.(GuestClient)
	return g, ok
}

// IsClient reports whether the user is the order's registered client.
func (o *Order) IsClient(userID int64) bool {
	id, ok := o.ClientID()
	return ok && id == userID
}

// IsWriter reports whether the user is the assigned writer.
func (o *Order) IsWriter(userID int64) bool {
	return o.WriterID != nil && *o.WriterID == userID
}

// LatestSubmission returns the authoritative submission.
func (o *Order) LatestSubmission() *Submission {
	if len(o.Submissions) == 0 {
		return nil
	}
	return &o.Submissions[len(o.Submissions)-1]
}

// Overdue reports whether the deadline passed before the work was delivered.
func (o *Order) Overdue(now time.Time) bool {
	switch o.Status {
	case OrderStatusCompleted, OrderStatusCancelled, OrderStatusSubmitted:
		return false
	}
	return now.After(o.Deadline)
}

// RevisionOverdue reports whether a pending revision missed its deadline.
func (o *Order) RevisionOverdue(now time.Time) bool {
	if o.Revision == nil {
		return false
	}
	if o.Status != OrderStatusRevisionRequested && o.Status != OrderStatusInProgress {
		return false
	}
	return now.After(o.Revision.Deadline)
}

// Transition is a conditional status change applied atomically by the order store.
type Transition struct {
	OrderID int64
	From    []OrderStatus
	To      OrderStatus
	Entry   TimelineEntry

	// WriterID is stored on the order when set.
	WriterID *int64
	// CloseBids accepts WriterID's pending bid and rejects the other pending bids.
	CloseBids  bool
	Submission *Submission
	Revision   *RevisionRequest
}

// Completion is the submitted → completed transition together with its settlement writes.
type Completion struct {
	Transition
	Rating  *Rating
	OnTime  bool
	Payment PaymentRecord
}
