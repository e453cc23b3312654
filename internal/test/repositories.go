package test

import (
	"context"
	"strings"
	"sync"

	domainErrors "github.com/polkiloo/scribemart/internal/domain/errors"
	"github.com/polkiloo/scribemart/internal/domain/model"
)

// UserRepositoryStub stores users in-memory for tests.
type UserRepositoryStub struct {
	Users map[string]*model.User
	ByID  map[int64]*model.User
	Next  int64
	Err   error
}

// NewUserRepositoryStub constructs stub repository with initialized maps.
func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{
		Users: make(map[string]*model.User),
		ByID:  make(map[int64]*model.User),
		Next:  1,
	}
}

// Create registers user unless already exists or stub has explicit error.
func (s *UserRepositoryStub) Create(_ context.Context, user model.User) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Users == nil {
		s.Users = make(map[string]*model.User)
	}
	if s.ByID == nil {
		s.ByID = make(map[int64]*model.User)
	}
	key := strings.ToLower(user.Email)
	if _, exists := s.Users[key]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	if s.Next == 0 {
		s.Next = 1
	}
	user.ID = s.Next
	if user.Status == "" {
		user.Status = model.UserStatusActive
	}
	s.Next++
	stored := user
	s.Users[key] = &stored
	s.ByID[user.ID] = &stored
	return &user, nil
}

// GetByEmail fetches user by email or returns not found.
func (s *UserRepositoryStub) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.Users[strings.ToLower(email)]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, domainErrors.ErrNotFound
}

// GetByID fetches user by identifier or returns not found.
func (s *UserRepositoryStub) GetByID(_ context.Context, id int64) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.ByID[id]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, domainErrors.ErrNotFound
}

// SetStatus updates the stored account status.
func (s *UserRepositoryStub) SetStatus(_ context.Context, id int64, status model.UserStatus) error {
	if s.Err != nil {
		return s.Err
	}
	user, ok := s.ByID[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	user.Status = status
	return nil
}

// NotifierStub records emitted notifications.
type NotifierStub struct {
	mu    sync.Mutex
	Items []model.Notification
}

// Emit stores the notification.
func (s *NotifierStub) Emit(_ context.Context, n model.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Items = append(s.Items, n)
}

// Kinds returns the kinds of recorded notifications in order.
func (s *NotifierStub) Kinds() []model.NotificationKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]model.NotificationKind, 0, len(s.Items))
	for _, n := range s.Items {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}

// GatewayStub is a payment gateway with overridable outcomes.
type GatewayStub struct {
	ChargeFn func(context.Context, model.ChargeRequest) (*model.GatewayResult, error)
	RefundFn func(context.Context, model.RefundRequest) (*model.GatewayResult, error)
	PayoutFn func(context.Context, model.PayoutRequest) (*model.GatewayResult, error)
}

// Charge succeeds unless overridden.
func (g GatewayStub) Charge(ctx context.Context, req model.ChargeRequest) (*model.GatewayResult, error) {
	if g.ChargeFn != nil {
		return g.ChargeFn(ctx, req)
	}
	return &model.GatewayResult{Reference: "ch_stub", Status: "succeeded", Payload: []byte(`{}`)}, nil
}

// Refund succeeds unless overridden.
func (g GatewayStub) Refund(ctx context.Context, req model.RefundRequest) (*model.GatewayResult, error) {
	if g.RefundFn != nil {
		return g.RefundFn(ctx, req)
	}
	return &model.GatewayResult{Reference: "re_stub", Status: "succeeded", Payload: []byte(`{}`)}, nil
}

// Payout succeeds unless overridden.
func (g GatewayStub) Payout(ctx context.Context, req model.PayoutRequest) (*model.GatewayResult, error) {
	if g.PayoutFn != nil {
		return g.PayoutFn(ctx, req)
	}
	return &model.GatewayResult{Reference: "po_stub", Status: "succeeded", Payload: []byte(`{}`)}, nil
}
