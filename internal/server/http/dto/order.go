package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequirementsDTO mirrors the formatting constraints of a paper.
type RequirementsDTO struct {
	CitationStyle string `json:"citation_style,omitempty"`
	Spacing       string `json:"spacing,omitempty"`
	Language      string `json:"language,omitempty"`
	Sources       int    `json:"sources,omitempty"`
}

// CreateOrderRequest describes a new order. Guest fields are read only on the guest route.
type CreateOrderRequest struct {
	Title         string          `json:"title"`
	Subject       string          `json:"subject"`
	AcademicLevel string          `json:"academic_level"`
	PaperType     string          `json:"paper_type"`
	Instructions  string          `json:"instructions"`
	WordCount     int             `json:"word_count"`
	Deadline      time.Time       `json:"deadline"`
	Urgency       string          `json:"urgency"`
	Requirements  RequirementsDTO `json:"requirements"`
	GuestEmail    string          `json:"guest_email"`
	GuestName     string          `json:"guest_name"`
}

// BidRequest is a writer application.
type BidRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	Message string          `json:"message"`
}

// AssignRequest picks the writer for an order.
type AssignRequest struct {
	WriterID int64 `json:"writer_id"`
}

// SubmitRequest delivers work.
type SubmitRequest struct {
	FileRef string `json:"file_ref"`
	Note    string `json:"note"`
}

// RevisionRequest asks the writer for changes.
type RevisionRequest struct {
	Reason       string     `json:"reason"`
	Instructions string     `json:"instructions"`
	Deadline     *time.Time `json:"deadline"`
}

// RatingDTO is the client's score for delivered work.
type RatingDTO struct {
	Score  int    `json:"score"`
	Review string `json:"review,omitempty"`
}

// CompleteRequest accepts the work, optionally with a rating.
type CompleteRequest struct {
	Rating *RatingDTO `json:"rating"`
}

// CancelRequest explains a cancellation.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// LinkRequest attaches a guest order to the caller.
type LinkRequest struct {
	Number string `json:"number"`
	Email  string `json:"email"`
}

// BidResponse is a writer application on an order.
type BidResponse struct {
	ID        int64           `json:"id"`
	WriterID  int64           `json:"writer_id"`
	Amount    decimal.Decimal `json:"amount"`
	Message   string          `json:"message,omitempty"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// SubmissionResponse is one delivery with its originality result.
type SubmissionResponse struct {
	ID          int64      `json:"id"`
	FileRef     string     `json:"file_ref"`
	Note        string     `json:"note,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	CheckStatus string     `json:"check_status"`
	Score       *float64   `json:"score,omitempty"`
	Flagged     bool       `json:"flagged"`
	CheckedAt   *time.Time `json:"checked_at,omitempty"`
}

// RevisionResponse is the latest revision demand.
type RevisionResponse struct {
	Reason       string    `json:"reason"`
	Instructions string    `json:"instructions,omitempty"`
	Deadline     time.Time `json:"deadline"`
	RequestedAt  time.Time `json:"requested_at"`
}

// TimelineResponse is one event in the order history.
type TimelineResponse struct {
	Event       string    `json:"event"`
	Description string    `json:"description"`
	ActorID     *int64    `json:"actor_id,omitempty"`
	ActorRole   string    `json:"actor_role,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrderResponse is the order as seen by its viewer.
type OrderResponse struct {
	ID            int64           `json:"id"`
	Number        string          `json:"number"`
	Title         string          `json:"title"`
	Subject       string          `json:"subject"`
	AcademicLevel string          `json:"academic_level"`
	PaperType     string          `json:"paper_type"`
	Instructions  string          `json:"instructions,omitempty"`
	WordCount     int             `json:"word_count"`
	Pages         int             `json:"pages"`
	Deadline      time.Time       `json:"deadline"`
	Urgency       string          `json:"urgency"`
	Requirements  RequirementsDTO `json:"requirements"`

	PricePerPage  decimal.Decimal `json:"price_per_page"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Currency      string          `json:"currency"`
	PaymentStatus string          `json:"payment_status"`

	ClientID   *int64 `json:"client_id,omitempty"`
	GuestEmail string `json:"guest_email,omitempty"`
	WriterID   *int64 `json:"writer_id,omitempty"`
	Status     string `json:"status"`

	Bids        []BidResponse        `json:"bids,omitempty"`
	Submissions []SubmissionResponse `json:"submissions,omitempty"`
	Revision    *RevisionResponse    `json:"revision,omitempty"`
	Rating      *RatingDTO           `json:"rating,omitempty"`

	Unread          int  `json:"unread"`
	Overdue         bool `json:"overdue"`
	RevisionOverdue bool `json:"revision_overdue"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QuoteResponse is a price estimate.
type QuoteResponse struct {
	Urgency      string          `json:"urgency"`
	Pages        int             `json:"pages"`
	PricePerPage decimal.Decimal `json:"price_per_page"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	Currency     string          `json:"currency"`
	Defaulted    []string        `json:"defaulted,omitempty"`
}
