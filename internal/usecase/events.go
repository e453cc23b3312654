package usecase

import (
	"context"
	"time"

	"github.com/polkiloo/scribemart/internal/domain/model"
)

// events builds notifications for order parties.
type events struct {
	notifier Notifier
}

func (e events) client(ctx context.Context, kind model.NotificationKind, o *model.Order, msg string) {
	n := orderNotification(kind, o, msg)
	n.RecipientRole = model.RoleClient
	switch c := o.Client.(type) {
	case model.IdentifiedClient:
		id := c.UserID
		n.RecipientID = &id
	case model.GuestClient:
		n.RecipientEmail = c.Email
	}
	e.notifier.Emit(ctx, n)
}

func (e events) writer(ctx context.Context, kind model.NotificationKind, o *model.Order, writerID int64, msg string) {
	n := orderNotification(kind, o, msg)
	n.RecipientID = &writerID
	n.RecipientRole = model.RoleWriter
	e.notifier.Emit(ctx, n)
}

func (e events) payment(ctx context.Context, kind model.NotificationKind, rec *model.PaymentRecord, recipient *int64, role model.Role, msg string) {
	id := rec.ID
	n := model.Notification{
		Kind:          kind,
		RecipientID:   recipient,
		RecipientRole: role,
		OrderID:       rec.OrderID,
		PaymentID:     &id,
		Message:       msg,
		CreatedAt:     time.Now(),
	}
	e.notifier.Emit(ctx, n)
}

func orderNotification(kind model.NotificationKind, o *model.Order, msg string) model.Notification {
	id := o.ID
	return model.Notification{
		Kind:        kind,
		OrderID:     &id,
		OrderNumber: o.Number,
		Message:     msg,
		CreatedAt:   time.Now(),
	}
}

func entry(event, description string, actor *model.Actor) model.TimelineEntry {
	e := model.TimelineEntry{Event: event, Description: description}
	if actor != nil {
		id := actor.UserID
		e.ActorID = &id
		e.ActorRole = actor.Role
	}
	return e
}
