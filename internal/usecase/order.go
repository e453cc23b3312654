package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/polkiloo/scribemart/internal/config"
	domainErrors "github.com/polkiloo/scribemart/internal/domain/errors"
	"github.com/polkiloo/scribemart/internal/domain/model"
	"github.com/polkiloo/scribemart/internal/domain/repository"
	"github.com/polkiloo/scribemart/internal/pricing"
)

const numberAttempts = 3

// OrderUseCase creates orders and serves order reads.
type OrderUseCase struct {
	orders   repository.OrderRepository
	pricing  *pricing.Engine
	events   events
	logger   *slog.Logger
	currency string
	now      func() time.Time
}

// CreateOrderInput describes a new order. Guest fields are required when there is no caller.
type CreateOrderInput struct {
	Title         string             `json:"title" validate:"required,max=200"`
	Subject       string             `json:"subject" validate:"required,max=120"`
	AcademicLevel string             `json:"academic_level" validate:"required"`
	PaperType     string             `json:"paper_type" validate:"required"`
	Instructions  string             `json:"instructions" validate:"max=20000"`
	WordCount     int                `json:"word_count" validate:"gt=0"`
	Deadline      time.Time          `json:"deadline" validate:"required"`
	Urgency       string             `json:"urgency"`
	Requirements  model.Requirements `json:"requirements"`
	GuestEmail    string             `json:"guest_email" validate:"omitempty,email"`
	GuestName     string             `json:"guest_name" validate:"max=120"`
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(orders repository.OrderRepository, engine *pricing.Engine, notifier Notifier, cfg *config.Config, logger *slog.Logger) *OrderUseCase {
	return &OrderUseCase{
		orders:   orders,
		pricing:  engine,
		events:   events{notifier: notifier},
		logger:   logger,
		currency: cfg.Currency,
		now:      time.Now,
	}
}

// Create validates input, prices the order and stores it as pending.
// A nil actor places a guest order.
func (u *OrderUseCase) Create(ctx context.Context, actor *model.Actor, in CreateOrderInput) (*model.Order, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Subject = strings.TrimSpace(in.Subject)
	in.GuestEmail = strings.ToLower(strings.TrimSpace(in.GuestEmail))
	if err := validateInput(in); err != nil {
		return nil, err
	}

	now := u.now()
	if !in.Deadline.After(now) {
		return nil, domainErrors.Invalid("deadline", "must be in the future")
	}

	var client model.ClientRef
	switch {
	case actor == nil:
		if in.GuestEmail == "" {
			return nil, domainErrors.Invalid("guest_email", "required")
		}
		client = model.GuestClient{Email: in.GuestEmail, Name: strings.TrimSpace(in.GuestName)}
	case actor.Role == model.RoleClient:
		client = model.IdentifiedClient{UserID: actor.UserID}
	default:
		return nil, domainErrors.ErrForbidden
	}

	urgency := in.Urgency
	if urgency == "" {
		urgency = u.pricing.UrgencyFor(in.Deadline, now)
	}
	quote := u.pricing.Quote(in.WordCount, urgency, in.AcademicLevel)
	if len(quote.Defaulted) > 0 {
		u.logger.Warn("order priced with default multipliers",
			slog.String("urgency", urgency),
			slog.String("academic_level", in.AcademicLevel),
			slog.String("defaulted", strings.Join(quote.Defaulted, ",")),
		)
	}

	order := &model.Order{
		Title:         in.Title,
		Subject:       in.Subject,
		AcademicLevel: in.AcademicLevel,
		PaperType:     in.PaperType,
		Instructions:  in.Instructions,
		WordCount:     in.WordCount,
		Pages:         quote.Pages,
		Deadline:      in.Deadline,
		Urgency:       urgency,
		Requirements:  in.Requirements,
		PricePerPage:  quote.PricePerPage,
		TotalPrice:    quote.TotalPrice,
		Currency:      u.currency,
		PaymentStatus: model.OrderPaymentUnpaid,
		Client:        client,
		Status:        model.OrderStatusPending,
	}
	created := entry("created", fmt.Sprintf("Order placed for %d pages", quote.Pages), actor)

	var (
		stored *model.Order
		err    error
	)
	for attempt := 0; attempt < numberAttempts; attempt++ {
		order.Number = NewOrderNumber(now)
		stored, err = u.orders.Create(ctx, order, created)
		if !errors.Is(err, domainErrors.ErrAlreadyExists) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	u.logger.Info("order created", slog.String("order", stored.Number), slog.String("total", stored.TotalPrice.String()))
	u.events.client(ctx, model.NotifyOrderCreated, stored, "Your order "+stored.Number+" was placed")
	return stored, nil
}

// Quote prices an order without storing it.
func (u *OrderUseCase) Quote(wordCount int, urgency, level string, deadline *time.Time) (pricing.Quote, string, error) {
	if wordCount <= 0 {
		return pricing.Quote{}, "", domainErrors.Invalid("word_count", "must be at least 1")
	}
	if urgency == "" {
		if deadline == nil {
			return pricing.Quote{}, "", domainErrors.Invalid("urgency", "urgency or deadline required")
		}
		urgency = u.pricing.UrgencyFor(*deadline, u.now())
	}
	return u.pricing.Quote(wordCount, urgency, level), urgency, nil
}

// Get returns an order the actor is allowed to see.
func (u *OrderUseCase) Get(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canView(actor, order) {
		return nil, domainErrors.ErrForbidden
	}
	return order, nil
}

// GetGuest returns a guest order when the contact email matches.
func (u *OrderUseCase) GetGuest(ctx context.Context, number, email string) (*model.Order, error) {
	order, err := u.orders.GetByNumber(ctx, strings.TrimSpace(number))
	if err != nil {
		return nil, err
	}
	guest, ok := order.Guest()
	if !ok || !strings.EqualFold(guest.Email, strings.TrimSpace(email)) {
		return nil, domainErrors.ErrNotFound
	}
	return order, nil
}

// List returns the actor's own orders; admins see the open market.
func (u *OrderUseCase) List(ctx context.Context, actor model.Actor) ([]model.Order, error) {
	switch actor.Role {
	case model.RoleClient:
		return u.orders.ListByClient(ctx, actor.UserID)
	case model.RoleWriter:
		return u.orders.ListByWriter(ctx, actor.UserID)
	case model.RoleAdmin:
		return u.orders.ListAvailable(ctx)
	}
	return nil, domainErrors.ErrForbidden
}

// ListAvailable returns pending orders open for bids.
func (u *OrderUseCase) ListAvailable(ctx context.Context, actor model.Actor) ([]model.Order, error) {
	if actor.Role != model.RoleWriter && actor.Role != model.RoleAdmin {
		return nil, domainErrors.ErrForbidden
	}
	return u.orders.ListAvailable(ctx)
}

// Timeline returns the order history.
func (u *OrderUseCase) Timeline(ctx context.Context, actor model.Actor, orderID int64) ([]model.TimelineEntry, error) {
	if _, err := u.Get(ctx, actor, orderID); err != nil {
		return nil, err
	}
	return u.orders.Timeline(ctx, orderID)
}

// LinkGuest attaches a guest order to the calling client account.
func (u *OrderUseCase) LinkGuest(ctx context.Context, actor model.Actor, number, guestEmail string) (*model.Order, error) {
	if actor.Role != model.RoleClient {
		return nil, domainErrors.ErrForbidden
	}
	order, err := u.orders.GetByNumber(ctx, strings.TrimSpace(number))
	if err != nil {
		return nil, err
	}
	linked, err := u.orders.LinkClient(ctx, order.ID, strings.TrimSpace(guestEmail), actor.UserID,
		entry("linked", "Guest order linked to client account", &actor))
	if err != nil {
		return nil, err
	}
	u.logger.Info("guest order linked", slog.String("order", linked.Number), slog.Int64("client_id", actor.UserID))
	return linked, nil
}

// Now exposes the clock used for overdue flags.
func (u *OrderUseCase) Now() time.Time {
	return u.now()
}

func canView(actor model.Actor, o *model.Order) bool {
	switch actor.Role {
	case model.RoleAdmin:
		return true
	case model.RoleClient:
		return o.IsClient(actor.UserID)
	case model.RoleWriter:
		return o.IsWriter(actor.UserID) || o.Status == model.OrderStatusPending
	}
	return false
}
