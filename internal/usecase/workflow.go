package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/scribemart/internal/config"
	domainErrors "github.com/polkiloo/scribemart/internal/domain/errors"
	"github.com/polkiloo/scribemart/internal/domain/model"
	"github.com/polkiloo/scribemart/internal/domain/repository"
	"github.com/polkiloo/scribemart/internal/settlement"
)

// WorkflowUseCase drives an assigned order through submission, revision and completion.
type WorkflowUseCase struct {
	orders         repository.OrderRepository
	submissions    repository.SubmissionRepository
	events         events
	logger         *slog.Logger
	feeRate        decimal.Decimal
	revisionWindow time.Duration
	now            func() time.Time
}

// RevisionInput is the client's revision demand. Deadline defaults to the configured window.
type RevisionInput struct {
	Reason       string     `json:"reason" validate:"required,max=2000"`
	Instructions string     `json:"instructions" validate:"max=20000"`
	Deadline     *time.Time `json:"deadline"`
}

// NewWorkflowUseCase constructs WorkflowUseCase.
func NewWorkflowUseCase(orders repository.OrderRepository, submissions repository.SubmissionRepository, notifier Notifier, cfg *config.Config, logger *slog.Logger) *WorkflowUseCase {
	return &WorkflowUseCase{
		orders:         orders,
		submissions:    submissions,
		events:         events{notifier: notifier},
		logger:         logger,
		feeRate:        cfg.PlatformFeeRate,
		revisionWindow: cfg.RevisionWindow,
		now:            time.Now,
	}
}

// StartWork marks an assigned or returned order as being worked on.
func (u *WorkflowUseCase) StartWork(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	order, err := u.assignedTo(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}

	updated, err := u.orders.Transition(ctx, model.Transition{
		OrderID: order.ID,
		From:    model.SourcesOf(model.OrderStatusInProgress),
		To:      model.OrderStatusInProgress,
		Entry:   entry("started", "Writer started working", &actor),
	})
	if err != nil {
		return nil, err
	}

	u.events.client(ctx, model.NotifyWorkStarted, updated, "Work started on order "+updated.Number)
	return updated, nil
}

// Submit stores a delivery of work and queues its originality check.
func (u *WorkflowUseCase) Submit(ctx context.Context, actor model.Actor, orderID int64, fileRef, note string) (*model.Order, error) {
	fileRef = strings.TrimSpace(fileRef)
	if fileRef == "" {
		return nil, domainErrors.Invalid("file_ref", "required")
	}
	order, err := u.assignedTo(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}

	updated, err := u.orders.Transition(ctx, model.Transition{
		OrderID: order.ID,
		From:    model.SourcesOf(model.OrderStatusSubmitted),
		To:      model.OrderStatusSubmitted,
		Entry:   entry("submitted", "Work submitted", &actor),
		Submission: &model.Submission{
			WriterID:    actor.UserID,
			FileRef:     fileRef,
			Note:        strings.TrimSpace(note),
			CheckStatus: model.CheckStatusPending,
		},
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("work submitted", slog.String("order", updated.Number), slog.Int("submissions", len(updated.Submissions)))
	u.events.client(ctx, model.NotifyWorkSubmitted, updated, "Work was delivered for order "+updated.Number)
	return updated, nil
}

// RequestRevision sends submitted work back to the writer.
func (u *WorkflowUseCase) RequestRevision(ctx context.Context, actor model.Actor, orderID int64, in RevisionInput) (*model.Order, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	order, err := u.ownedBy(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}

	now := u.now()
	deadline := now.Add(u.revisionWindow)
	if in.Deadline != nil {
		if !in.Deadline.After(now) {
			return nil, domainErrors.Invalid("deadline", "must be in the future")
		}
		deadline = *in.Deadline
	}

	updated, err := u.orders.Transition(ctx, model.Transition{
		OrderID: order.ID,
		From:    []model.OrderStatus{model.OrderStatusSubmitted},
		To:      model.OrderStatusRevisionRequested,
		Entry:   entry("revision_requested", in.Reason, &actor),
		Revision: &model.RevisionRequest{
			Reason:       in.Reason,
			Instructions: strings.TrimSpace(in.Instructions),
			Deadline:     deadline,
		},
	})
	if err != nil {
		return nil, err
	}

	if updated.WriterID != nil {
		u.events.writer(ctx, model.NotifyRevisionRequested, updated, *updated.WriterID, "Revision requested for order "+updated.Number)
	}
	return updated, nil
}

// Complete accepts the latest submission and settles the writer's earnings in the same write.
func (u *WorkflowUseCase) Complete(ctx context.Context, actor model.Actor, orderID int64, rating *model.Rating) (*model.Order, *model.PaymentRecord, error) {
	if rating != nil {
		if rating.Score < 1 || rating.Score > 5 {
			return nil, nil, domainErrors.Invalid("rating", "must be between 1 and 5")
		}
		rating.Review = strings.TrimSpace(rating.Review)
	}
	order, err := u.ownedBy(ctx, actor, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order.Status != model.OrderStatusSubmitted || order.WriterID == nil {
		return nil, nil, &domainErrors.StateError{Op: "complete", Status: string(order.Status)}
	}

	onTime := false
	if latest := order.LatestSubmission(); latest != nil {
		onTime = !latest.SubmittedAt.After(order.Deadline)
	}
	fee, net := settlement.Split(order.TotalPrice, u.feeRate)
	clientID := actor.UserID
	writerID := *order.WriterID
	id := order.ID

	updated, credited, err := u.orders.Complete(ctx, model.Completion{
		Transition: model.Transition{
			OrderID: order.ID,
			From:    []model.OrderStatus{model.OrderStatusSubmitted},
			To:      model.OrderStatusCompleted,
			Entry:   entry("completed", "Client accepted the work", &actor),
		},
		Rating: rating,
		OnTime: onTime,
		Payment: model.PaymentRecord{
			Type:        model.PaymentTypeOrder,
			Amount:      order.TotalPrice,
			Currency:    order.Currency,
			PayerID:     &clientID,
			PayeeID:     &writerID,
			OrderID:     &id,
			Status:      model.PaymentStatusCompleted,
			PlatformFee: fee,
			NetAmount:   net,
			Method:      model.PaymentMethodLedger,
		},
	})
	if err != nil {
		return nil, nil, err
	}

	u.logger.Info("order completed",
		slog.String("order", updated.Number),
		slog.Int64("writer_id", writerID),
		slog.String("net", credited.NetAmount.String()),
		slog.Bool("on_time", onTime),
	)
	u.events.writer(ctx, model.NotifyOrderCompleted, updated, writerID, "Order "+updated.Number+" was completed")
	u.events.payment(ctx, model.NotifyPaymentReceived, credited, &writerID, model.RoleWriter,
		"Earnings of "+credited.NetAmount.StringFixed(2)+" credited for order "+updated.Number)
	return updated, credited, nil
}

// Cancel stops an order before any work has been delivered.
func (u *WorkflowUseCase) Cancel(ctx context.Context, actor model.Actor, orderID int64, reason string) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleAdmin && !(actor.Role == model.RoleClient && order.IsClient(actor.UserID)) {
		return nil, domainErrors.ErrForbidden
	}

	desc := "Order cancelled"
	if reason = strings.TrimSpace(reason); reason != "" {
		desc += ": " + reason
	}
	updated, err := u.orders.Transition(ctx, model.Transition{
		OrderID:   order.ID,
		From:      model.SourcesOf(model.OrderStatusCancelled),
		To:        model.OrderStatusCancelled,
		Entry:     entry("cancelled", desc, &actor),
		CloseBids: true,
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("order cancelled", slog.String("order", updated.Number), slog.String("by", string(actor.Role)))
	if updated.WriterID != nil {
		u.events.writer(ctx, model.NotifyOrderCancelled, updated, *updated.WriterID, "Order "+updated.Number+" was cancelled")
	}
	if actor.Role == model.RoleAdmin {
		u.events.client(ctx, model.NotifyOrderCancelled, updated, "Order "+updated.Number+" was cancelled")
	}
	return updated, nil
}

// RetryOriginalityCheck puts an unchecked submission back on the check queue.
func (u *WorkflowUseCase) RetryOriginalityCheck(ctx context.Context, actor model.Actor, orderID, submissionID int64) error {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if actor.Role != model.RoleAdmin && !(actor.Role == model.RoleWriter && order.IsWriter(actor.UserID)) {
		return domainErrors.ErrForbidden
	}
	return u.submissions.Requeue(ctx, orderID, submissionID)
}

// ClaimPendingChecks hands a batch of queued submissions to the checker.
func (u *WorkflowUseCase) ClaimPendingChecks(ctx context.Context, limit int) ([]model.Submission, error) {
	return u.submissions.ClaimPendingChecks(ctx, limit)
}

// RecordCheck stores the checker outcome. A nil result marks the submission unchecked.
func (u *WorkflowUseCase) RecordCheck(ctx context.Context, submissionID int64, result *model.OriginalityResult) error {
	status := model.CheckStatusChecked
	if result == nil {
		status = model.CheckStatusUnchecked
	}
	return u.submissions.SaveCheckResult(ctx, submissionID, status, result)
}

func (u *WorkflowUseCase) assignedTo(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	if actor.Role != model.RoleWriter {
		return nil, domainErrors.ErrForbidden
	}
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsWriter(actor.UserID) {
		return nil, domainErrors.ErrForbidden
	}
	return order, nil
}

func (u *WorkflowUseCase) ownedBy(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	if actor.Role != model.RoleClient {
		return nil, domainErrors.ErrForbidden
	}
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsClient(actor.UserID) {
		return nil, domainErrors.ErrForbidden
	}
	return order, nil
}
