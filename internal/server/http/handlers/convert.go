package handlers

import (
	"time"

	"github.com/polkiloo/scribemart/internal/domain/model"
	"github.com/polkiloo/scribemart/internal/server/http/dto"
)

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		Status:    string(u.Status),
		CreatedAt: u.CreatedAt,
	}
}

// toOrderResponse renders the order for a viewer. A nil viewer is the guest who placed it.
// Writers other than the assigned one see only their own bid.
func toOrderResponse(o *model.Order, viewer *model.Actor, now time.Time) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:            o.ID,
		Number:        o.Number,
		Title:         o.Title,
		Subject:       o.Subject,
		AcademicLevel: o.AcademicLevel,
		PaperType:     o.PaperType,
		Instructions:  o.Instructions,
		WordCount:     o.WordCount,
		Pages:         o.Pages,
		Deadline:      o.Deadline,
		Urgency:       o.Urgency,
		Requirements: dto.RequirementsDTO{
			CitationStyle: o.Requirements.CitationStyle,
			Spacing:       o.Requirements.Spacing,
			Language:      o.Requirements.Language,
			Sources:       o.Requirements.Sources,
		},
		PricePerPage:    o.PricePerPage,
		TotalPrice:      o.TotalPrice,
		Currency:        o.Currency,
		PaymentStatus:   string(o.PaymentStatus),
		WriterID:        o.WriterID,
		Status:          string(o.Status),
		Overdue:         o.Overdue(now),
		RevisionOverdue: o.RevisionOverdue(now),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}

	if id, ok := o.ClientID(); ok {
		resp.ClientID = &id
	}
	writerView := viewer != nil && viewer.Role == model.RoleWriter
	if g, ok := o.Guest(); ok && !writerView {
		resp.GuestEmail = g.Email
	}

	switch {
	case viewer == nil || viewer.Role == model.RoleClient:
		resp.Unread = o.ClientUnread
	case writerView:
		resp.Unread = o.WriterUnread
	}

	for _, b := range o.Bids {
		if writerView && b.WriterID != viewer.UserID {
			continue
		}
		resp.Bids = append(resp.Bids, dto.BidResponse{
			ID:        b.ID,
			WriterID:  b.WriterID,
			Amount:    b.Amount,
			Message:   b.Message,
			Status:    string(b.Status),
			CreatedAt: b.CreatedAt,
		})
	}
	for _, s := range o.Submissions {
		resp.Submissions = append(resp.Submissions, toSubmissionResponse(s))
	}
	if o.Revision != nil {
		resp.Revision = &dto.RevisionResponse{
			Reason:       o.Revision.Reason,
			Instructions: o.Revision.Instructions,
			Deadline:     o.Revision.Deadline,
			RequestedAt:  o.Revision.RequestedAt,
		}
	}
	if o.Rating != nil {
		resp.Rating = &dto.RatingDTO{Score: o.Rating.Score, Review: o.Rating.Review}
	}
	return resp
}

func toSubmissionResponse(s model.Submission) dto.SubmissionResponse {
	return dto.SubmissionResponse{
		ID:          s.ID,
		FileRef:     s.FileRef,
		Note:        s.Note,
		SubmittedAt: s.SubmittedAt,
		CheckStatus: string(s.CheckStatus),
		Score:       s.Score,
		Flagged:     s.Flagged,
		CheckedAt:   s.CheckedAt,
	}
}

func toOrderList(orders []model.Order, viewer model.Actor, now time.Time) dto.List[dto.OrderResponse] {
	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, toOrderResponse(&orders[i], &viewer, now))
	}
	return dto.NewList(items)
}

func toTimelineList(entries []model.TimelineEntry) dto.List[dto.TimelineResponse] {
	items := make([]dto.TimelineResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, dto.TimelineResponse{
			Event:       e.Event,
			Description: e.Description,
			ActorID:     e.ActorID,
			ActorRole:   string(e.ActorRole),
			CreatedAt:   e.CreatedAt,
		})
	}
	return dto.NewList(items)
}

func toPaymentResponse(p *model.PaymentRecord) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:               p.ID,
		Type:             string(p.Type),
		Amount:           p.Amount,
		Currency:         p.Currency,
		PayerID:          p.PayerID,
		PayeeID:          p.PayeeID,
		OrderID:          p.OrderID,
		RelatedID:        p.RelatedID,
		Status:           string(p.Status),
		PlatformFee:      p.PlatformFee,
		NetAmount:        p.NetAmount,
		Method:           p.Method,
		GatewayReference: p.GatewayReference,
		FailureReason:    p.FailureReason,
		RequestedAt:      p.RequestedAt,
		ApprovedAt:       p.ApprovedAt,
		CompletedAt:      p.CompletedAt,
	}
}

func toPaymentList(records []model.PaymentRecord) dto.List[dto.PaymentResponse] {
	items := make([]dto.PaymentResponse, 0, len(records))
	for i := range records {
		items = append(items, toPaymentResponse(&records[i]))
	}
	return dto.NewList(items)
}
