package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/scribemart/internal/domain/errors"
	"github.com/polkiloo/scribemart/internal/domain/model"
	"github.com/polkiloo/scribemart/internal/pricing"
	"github.com/polkiloo/scribemart/internal/server/http/dto"
	"github.com/polkiloo/scribemart/internal/server/http/middleware"
	"github.com/polkiloo/scribemart/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var handlerNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// facadeStub overrides the facade calls a test exercises. Anything else panics on the nil embed.
type facadeStub struct {
	MarketplaceFacade

	registerFn     func(ctx context.Context, in usecase.RegisterInput) (*model.User, string, error)
	authenticateFn func(ctx context.Context, email, password string) (*model.User, string, error)
	statusFn       func(ctx context.Context, actor model.Actor, userID int64, status model.UserStatus) error
	createFn       func(ctx context.Context, actor *model.Actor, in usecase.CreateOrderInput) (*model.Order, error)
	quoteFn        func(wordCount int, urgency, level string, deadline *time.Time) (pricing.Quote, string, error)
	orderFn        func(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error)
	guestFn        func(ctx context.Context, number, email string) (*model.Order, error)
	assignFn       func(ctx context.Context, actor model.Actor, orderID, writerID int64) (*model.Order, error)
	bidFn          func(ctx context.Context, actor model.Actor, orderID int64, amount decimal.Decimal, message string) (*model.Bid, error)
	cancelFn       func(ctx context.Context, actor model.Actor, orderID int64, reason string) (*model.Order, error)
	completeFn     func(ctx context.Context, actor model.Actor, orderID int64, rating *model.Rating) (*model.Order, *model.PaymentRecord, error)
	balanceFn      func(ctx context.Context, actor model.Actor) (*model.Balance, error)
	withdrawFn     func(ctx context.Context, actor model.Actor, amount decimal.Decimal, in usecase.PaymentInput) (*model.PaymentRecord, error)
	statsFn        func(ctx context.Context, writerID int64) (*model.WriterStats, error)
	rejectFn       func(ctx context.Context, actor model.Actor, paymentID int64, reason string) (*model.PaymentRecord, error)
	refundFn       func(ctx context.Context, actor model.Actor, paymentID int64, amount decimal.Decimal, reason string) (*model.PaymentRecord, error)
}

func (s facadeStub) Now() time.Time { return handlerNow }

func (s facadeStub) Register(ctx context.Context, in usecase.RegisterInput) (*model.User, string, error) {
	return s.registerFn(ctx, in)
}

func (s facadeStub) Authenticate(ctx context.Context, email, password string) (*model.User, string, error) {
	return s.authenticateFn(ctx, email, password)
}

func (s facadeStub) SetUserStatus(ctx context.Context, actor model.Actor, userID int64, status model.UserStatus) error {
	return s.statusFn(ctx, actor, userID, status)
}

func (s facadeStub) CreateOrder(ctx context.Context, actor *model.Actor, in usecase.CreateOrderInput) (*model.Order, error) {
	return s.createFn(ctx, actor, in)
}

func (s facadeStub) Quote(wordCount int, urgency, level string, deadline *time.Time) (pricing.Quote, string, error) {
	return s.quoteFn(wordCount, urgency, level, deadline)
}

func (s facadeStub) Order(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	return s.orderFn(ctx, actor, orderID)
}

func (s facadeStub) GuestOrder(ctx context.Context, number, email string) (*model.Order, error) {
	return s.guestFn(ctx, number, email)
}

func (s facadeStub) AssignWriter(ctx context.Context, actor model.Actor, orderID, writerID int64) (*model.Order, error) {
	return s.assignFn(ctx, actor, orderID, writerID)
}

func (s facadeStub) ApplyBid(ctx context.Context, actor model.Actor, orderID int64, amount decimal.Decimal, message string) (*model.Bid, error) {
	return s.bidFn(ctx, actor, orderID, amount, message)
}

func (s facadeStub) CancelOrder(ctx context.Context, actor model.Actor, orderID int64, reason string) (*model.Order, error) {
	return s.cancelFn(ctx, actor, orderID, reason)
}

func (s facadeStub) CompleteOrder(ctx context.Context, actor model.Actor, orderID int64, rating *model.Rating) (*model.Order, *model.PaymentRecord, error) {
	return s.completeFn(ctx, actor, orderID, rating)
}

func (s facadeStub) Balance(ctx context.Context, actor model.Actor) (*model.Balance, error) {
	return s.balanceFn(ctx, actor)
}

func (s facadeStub) RequestWithdrawal(ctx context.Context, actor model.Actor, amount decimal.Decimal, in usecase.PaymentInput) (*model.PaymentRecord, error) {
	return s.withdrawFn(ctx, actor, amount, in)
}

func (s facadeStub) WriterStats(ctx context.Context, writerID int64) (*model.WriterStats, error) {
	return s.statsFn(ctx, writerID)
}

func (s facadeStub) RejectWithdrawal(ctx context.Context, actor model.Actor, paymentID int64, reason string) (*model.PaymentRecord, error) {
	return s.rejectFn(ctx, actor, paymentID, reason)
}

func (s facadeStub) Refund(ctx context.Context, actor model.Actor, paymentID int64, amount decimal.Decimal, reason string) (*model.PaymentRecord, error) {
	return s.refundFn(ctx, actor, paymentID, amount, reason)
}

type request struct {
	method  string
	pattern string
	path    string
	body    []byte
	actor   *model.Actor
}

func performRequest(t *testing.T, handler gin.HandlerFunc, r request) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Handle(r.method, r.pattern, func(c *gin.Context) {
		if r.actor != nil {
			c.Set(middleware.ActorContextKey, *r.actor)
		}
		handler(c)
	})

	var reader io.Reader
	if r.body != nil {
		reader = bytes.NewReader(r.body)
	}
	req := httptest.NewRequest(r.method, r.path, reader)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", resp.Body.String(), err)
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func sampleOrder() *model.Order {
	return &model.Order{
		ID:            7,
		Number:        "SM-000007",
		Title:         "Essay",
		Subject:       "History",
		AcademicLevel: "undergraduate",
		PaperType:     "essay",
		WordCount:     550,
		Pages:         2,
		Deadline:      handlerNow.Add(72 * time.Hour),
		Urgency:       "standard",
		PricePerPage:  decimal.RequireFromString("15"),
		TotalPrice:    decimal.RequireFromString("30"),
		Currency:      "USD",
		PaymentStatus: model.OrderPaymentUnpaid,
		Client:        model.IdentifiedClient{UserID: 1},
		Status:        model.OrderStatusPending,
		ClientUnread:  2,
		WriterUnread:  5,
		Bids: []model.Bid{
			{ID: 1, OrderID: 7, WriterID: 3, Amount: decimal.RequireFromString("25"), Status: model.BidStatusPending},
			{ID: 2, OrderID: 7, WriterID: 4, Amount: decimal.RequireFromString("28"), Status: model.BidStatusPending},
		},
	}
}

var (
	client = &model.Actor{UserID: 1, Role: model.RoleClient}
	writer = &model.Actor{UserID: 3, Role: model.RoleWriter}
	admin  = &model.Actor{UserID: 9, Role: model.RoleAdmin}
)

func TestCurrentActor(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := CurrentActor(c); got != (model.Actor{}) {
		t.Fatalf("expected zero actor, got %+v", got)
	}
	c.Set(middleware.ActorContextKey, *writer)
	if got := CurrentActor(c); got != *writer {
		t.Fatalf("expected writer, got %+v", got)
	}
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domainErrors.Invalid("word_count", "must be positive"), http.StatusUnprocessableEntity},
		{fmt.Errorf("wrap: %w", domainErrors.ErrValidation), http.StatusUnprocessableEntity},
		{domainErrors.ErrInvalidCredentials, http.StatusUnauthorized},
		{domainErrors.ErrForbidden, http.StatusForbidden},
		{domainErrors.ErrNotFound, http.StatusNotFound},
		{domainErrors.ErrAlreadyExists, http.StatusConflict},
		{domainErrors.ErrDuplicateBid, http.StatusConflict},
		{&domainErrors.StateError{Op: "assign", Status: "completed"}, http.StatusConflict},
		{domainErrors.ErrInsufficientBalance, http.StatusPaymentRequired},
		{&domainErrors.GatewayError{Op: "charge", Err: errors.New("declined")}, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondError(c, tt.err)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, w.Code)
			}
		})
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, domainErrors.Invalid("email", "malformed"))
	if body := decode[dto.Error](t, w); body.Field != "email" {
		t.Fatalf("expected field in error body, got %+v", body)
	}
}

func TestAuthHandlerRegister(t *testing.T) {
	var got usecase.RegisterInput
	h := NewAuthHandler(facadeStub{registerFn: func(_ context.Context, in usecase.RegisterInput) (*model.User, string, error) {
		got = in
		return &model.User{ID: 5, Email: in.Email, Role: in.Role, Status: model.UserStatusActive}, "jwt", nil
	}})
	body := mustJSON(t, dto.RegisterRequest{Email: "w@example.com", Password: "secret", Name: "W", Role: "writer"})
	resp := performRequest(t, h.Register, request{method: http.MethodPost, pattern: "/register", path: "/register", body: body})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	if got.Role != model.RoleWriter || got.Email != "w@example.com" {
		t.Fatalf("unexpected input %+v", got)
	}
	if resp.Header().Get("Authorization") != "Bearer jwt" {
		t.Fatalf("expected auth header, got %q", resp.Header().Get("Authorization"))
	}
	out := decode[dto.AuthResponse](t, resp)
	if out.Token != "jwt" || out.User.ID != 5 || out.User.Role != "writer" {
		t.Fatalf("unexpected response %+v", out)
	}

	resp = performRequest(t, h.Register, request{method: http.MethodPost, pattern: "/register", path: "/register", body: []byte("{")})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", resp.Code)
	}
}

func TestAuthHandlerLogin(t *testing.T) {
	h := NewAuthHandler(facadeStub{authenticateFn: func(_ context.Context, email, password string) (*model.User, string, error) {
		if password != "secret" {
			return nil, "", domainErrors.ErrInvalidCredentials
		}
		return &model.User{ID: 1, Email: email, Role: model.RoleClient}, "jwt", nil
	}})

	body := mustJSON(t, dto.LoginRequest{Email: "c@example.com", Password: "secret"})
	if resp := performRequest(t, h.Login, request{method: http.MethodPost, pattern: "/login", path: "/login", body: body}); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body = mustJSON(t, dto.LoginRequest{Email: "c@example.com", Password: "wrong"})
	if resp := performRequest(t, h.Login, request{method: http.MethodPost, pattern: "/login", path: "/login", body: body}); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthHandlerSetStatus(t *testing.T) {
	var gotID int64
	var gotStatus model.UserStatus
	h := NewAuthHandler(facadeStub{statusFn: func(_ context.Context, actor model.Actor, userID int64, status model.UserStatus) error {
		gotID, gotStatus = userID, status
		return nil
	}})
	body := mustJSON(t, dto.UserStatusRequest{Status: "suspended"})
	resp := performRequest(t, h.SetStatus, request{method: http.MethodPost, pattern: "/users/:id/status", path: "/users/3/status", body: body, actor: admin})
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if gotID != 3 || gotStatus != model.UserStatusSuspended {
		t.Fatalf("unexpected call %d %s", gotID, gotStatus)
	}

	resp = performRequest(t, h.SetStatus, request{method: http.MethodPost, pattern: "/users/:id/status", path: "/users/abc/status", body: body, actor: admin})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", resp.Code)
	}
}

func TestOrderHandlerCreate(t *testing.T) {
	var gotActor *model.Actor
	var gotInput usecase.CreateOrderInput
	h := NewOrderHandler(facadeStub{createFn: func(_ context.Context, actor *model.Actor, in usecase.CreateOrderInput) (*model.Order, error) {
		gotActor, gotInput = actor, in
		return sampleOrder(), nil
	}}, "USD")

	body := mustJSON(t, dto.CreateOrderRequest{
		Title: "Essay", Subject: "History", AcademicLevel: "undergraduate", PaperType: "essay",
		WordCount: 550, Deadline: handlerNow.Add(72 * time.Hour),
		Requirements: dto.RequirementsDTO{CitationStyle: "APA", Sources: 3},
		GuestEmail:   "ignored@example.com",
	})
	resp := performRequest(t, h.Create, request{method: http.MethodPost, pattern: "/orders", path: "/orders", body: body, actor: client})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if gotActor == nil || gotActor.UserID != client.UserID {
		t.Fatalf("expected client actor, got %+v", gotActor)
	}
	if gotInput.GuestEmail != "" || gotInput.Requirements.CitationStyle != "APA" || gotInput.Requirements.Sources != 3 {
		t.Fatalf("unexpected input %+v", gotInput)
	}
	out := decode[dto.OrderResponse](t, resp)
	if out.Number != "SM-000007" || out.Unread != 2 || len(out.Bids) != 2 {
		t.Fatalf("unexpected response %+v", out)
	}
	if out.ClientID == nil || *out.ClientID != 1 {
		t.Fatalf("expected client id, got %v", out.ClientID)
	}
}

func TestOrderHandlerCreateGuest(t *testing.T) {
	var gotActor *model.Actor
	var gotInput usecase.CreateOrderInput
	h := NewOrderHandler(facadeStub{createFn: func(_ context.Context, actor *model.Actor, in usecase.CreateOrderInput) (*model.Order, error) {
		gotActor, gotInput = actor, in
		o := sampleOrder()
		o.Client = model.GuestClient{Email: in.GuestEmail, Name: in.GuestName}
		return o, nil
	}}, "USD")

	body := mustJSON(t, dto.CreateOrderRequest{Title: "Essay", WordCount: 300, GuestEmail: "g@example.com", GuestName: "Guest"})
	resp := performRequest(t, h.CreateGuest, request{method: http.MethodPost, pattern: "/orders/guest", path: "/orders/guest", body: body})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	if gotActor != nil {
		t.Fatalf("expected no actor for guest order, got %+v", gotActor)
	}
	if gotInput.GuestEmail != "g@example.com" || gotInput.GuestName != "Guest" {
		t.Fatalf("unexpected guest input %+v", gotInput)
	}
	if out := decode[dto.OrderResponse](t, resp); out.GuestEmail != "g@example.com" || out.ClientID != nil {
		t.Fatalf("unexpected response %+v", out)
	}
}

func TestOrderHandlerGuestLookup(t *testing.T) {
	h := NewOrderHandler(facadeStub{guestFn: func(_ context.Context, number, email string) (*model.Order, error) {
		if number != "SM-000007" || email != "g@example.com" {
			return nil, domainErrors.ErrNotFound
		}
		return sampleOrder(), nil
	}}, "USD")

	resp := performRequest(t, h.GuestLookup, request{method: http.MethodGet, pattern: "/orders/guest", path: "/orders/guest?number=SM-000007&email=g@example.com"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	resp = performRequest(t, h.GuestLookup, request{method: http.MethodGet, pattern: "/orders/guest", path: "/orders/guest?number=SM-000007&email=x@example.com"})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestOrderHandlerQuote(t *testing.T) {
	var gotDeadline *time.Time
	h := NewOrderHandler(facadeStub{quoteFn: func(words int, urgency, level string, deadline *time.Time) (pricing.Quote, string, error) {
		gotDeadline = deadline
		if words <= 0 {
			return pricing.Quote{}, "", domainErrors.Invalid("word_count", "must be positive")
		}
		return pricing.Quote{
			Pages:        2,
			PricePerPage: decimal.RequireFromString("15"),
			TotalPrice:   decimal.RequireFromString("30"),
			Defaulted:    []string{"academic_level"},
		}, "urgent", nil
	}}, "EUR")

	deadline := handlerNow.Add(24 * time.Hour).Format(time.RFC3339)
	resp := performRequest(t, h.Quote, request{method: http.MethodGet, pattern: "/quote", path: "/quote?word_count=550&academic_level=phd&deadline=" + deadline})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	out := decode[dto.QuoteResponse](t, resp)
	if out.Currency != "EUR" || out.Urgency != "urgent" || out.Pages != 2 || !out.TotalPrice.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("unexpected quote %+v", out)
	}
	if gotDeadline == nil || !gotDeadline.Equal(handlerNow.Add(24*time.Hour)) {
		t.Fatalf("expected parsed deadline, got %v", gotDeadline)
	}

	for _, path := range []string{"/quote", "/quote?word_count=abc", "/quote?word_count=5&deadline=tomorrow"} {
		if resp := performRequest(t, h.Quote, request{method: http.MethodGet, pattern: "/quote", path: path}); resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, resp.Code)
		}
	}
	if resp := performRequest(t, h.Quote, request{method: http.MethodGet, pattern: "/quote", path: "/quote?word_count=0"}); resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for rejected word count, got %d", resp.Code)
	}
}

func TestOrderHandlerGetHidesOtherBids(t *testing.T) {
	h := NewOrderHandler(facadeStub{orderFn: func(_ context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
		if orderID != 7 {
			return nil, domainErrors.ErrNotFound
		}
		return sampleOrder(), nil
	}}, "USD")

	resp := performRequest(t, h.Get, request{method: http.MethodGet, pattern: "/orders/:id", path: "/orders/7", actor: writer})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	out := decode[dto.OrderResponse](t, resp)
	if len(out.Bids) != 1 || out.Bids[0].WriterID != writer.UserID {
		t.Fatalf("writer should see only their own bid, got %+v", out.Bids)
	}
	if out.Unread != 5 {
		t.Fatalf("expected writer unread counter, got %d", out.Unread)
	}

	if resp := performRequest(t, h.Get, request{method: http.MethodGet, pattern: "/orders/:id", path: "/orders/8", actor: writer}); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if resp := performRequest(t, h.Get, request{method: http.MethodGet, pattern: "/orders/:id", path: "/orders/0", actor: writer}); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestOrderHandlerBid(t *testing.T) {
	h := NewOrderHandler(facadeStub{bidFn: func(_ context.Context, actor model.Actor, orderID int64, amount decimal.Decimal, message string) (*model.Bid, error) {
		if message == "again" {
			return nil, domainErrors.ErrDuplicateBid
		}
		return &model.Bid{ID: 11, OrderID: orderID, WriterID: actor.UserID, Amount: amount, Message: message, Status: model.BidStatusPending}, nil
	}}, "USD")

	body := mustJSON(t, dto.BidRequest{Amount: decimal.RequireFromString("25.50"), Message: "hi"})
	resp := performRequest(t, h.Bid, request{method: http.MethodPost, pattern: "/orders/:id/bids", path: "/orders/7/bids", body: body, actor: writer})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	if out := decode[dto.BidResponse](t, resp); out.WriterID != writer.UserID || !out.Amount.Equal(decimal.RequireFromString("25.5")) {
		t.Fatalf("unexpected bid %+v", out)
	}

	body = mustJSON(t, dto.BidRequest{Amount: decimal.RequireFromString("25"), Message: "again"})
	resp = performRequest(t, h.Bid, request{method: http.MethodPost, pattern: "/orders/:id/bids", path: "/orders/7/bids", body: body, actor: writer})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}

func TestOrderHandlerAssign(t *testing.T) {
	called := false
	h := NewOrderHandler(facadeStub{assignFn: func(_ context.Context, actor model.Actor, orderID, writerID int64) (*model.Order, error) {
		called = true
		o := sampleOrder()
		o.Status = model.OrderStatusAssigned
		o.WriterID = ptr(writerID)
		return o, nil
	}}, "USD")

	resp := performRequest(t, h.Assign, request{method: http.MethodPost, pattern: "/orders/:id/assign", path: "/orders/7/assign", body: []byte("not json"), actor: client})
	if resp.Code != http.StatusBadRequest || called {
		t.Fatalf("expected 400 without facade call, got %d called=%v", resp.Code, called)
	}

	body := mustJSON(t, dto.AssignRequest{WriterID: 3})
	resp = performRequest(t, h.Assign, request{method: http.MethodPost, pattern: "/orders/:id/assign", path: "/orders/7/assign", body: body, actor: client})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if out := decode[dto.OrderResponse](t, resp); out.Status != "assigned" || out.WriterID == nil || *out.WriterID != 3 {
		t.Fatalf("unexpected order %+v", out)
	}
}

func TestOrderHandlerCancelWithoutBody(t *testing.T) {
	var gotReason string
	h := NewOrderHandler(facadeStub{cancelFn: func(_ context.Context, actor model.Actor, orderID int64, reason string) (*model.Order, error) {
		gotReason = reason
		o := sampleOrder()
		o.Status = model.OrderStatusCancelled
		return o, nil
	}}, "USD")

	resp := performRequest(t, h.Cancel, request{method: http.MethodPost, pattern: "/orders/:id/cancel", path: "/orders/7/cancel", actor: client})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if gotReason != "" {
		t.Fatalf("expected empty reason, got %q", gotReason)
	}

	body := mustJSON(t, dto.CancelRequest{Reason: "changed my mind"})
	performRequest(t, h.Cancel, request{method: http.MethodPost, pattern: "/orders/:id/cancel", path: "/orders/7/cancel", body: body, actor: client})
	if gotReason != "changed my mind" {
		t.Fatalf("expected reason, got %q", gotReason)
	}
}

func TestOrderHandlerComplete(t *testing.T) {
	var gotRating *model.Rating
	h := NewOrderHandler(facadeStub{completeFn: func(_ context.Context, actor model.Actor, orderID int64, rating *model.Rating) (*model.Order, *model.PaymentRecord, error) {
		gotRating = rating
		o := sampleOrder()
		o.Status = model.OrderStatusCompleted
		o.WriterID = ptr(int64(3))
		o.Rating = rating
		return o, &model.PaymentRecord{
			ID:          4,
			Type:        model.PaymentTypeOrder,
			Amount:      decimal.RequireFromString("30"),
			PlatformFee: decimal.RequireFromString("6"),
			NetAmount:   decimal.RequireFromString("24"),
			Status:      model.PaymentStatusCompleted,
			PayeeID:     ptr(int64(3)),
		}, nil
	}}, "USD")

	body := mustJSON(t, dto.CompleteRequest{Rating: &dto.RatingDTO{Score: 5, Review: "great"}})
	resp := performRequest(t, h.Complete, request{method: http.MethodPost, pattern: "/orders/:id/complete", path: "/orders/7/complete", body: body, actor: client})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if gotRating == nil || gotRating.Score != 5 {
		t.Fatalf("expected rating to be passed, got %+v", gotRating)
	}
	out := decode[dto.CompleteResponse](t, resp)
	if out.Order.Status != "completed" || !out.Payment.NetAmount.Equal(decimal.NewFromInt(24)) {
		t.Fatalf("unexpected response %+v", out)
	}

	gotRating = &model.Rating{}
	resp = performRequest(t, h.Complete, request{method: http.MethodPost, pattern: "/orders/:id/complete", path: "/orders/7/complete", actor: client})
	if resp.Code != http.StatusOK || gotRating != nil {
		t.Fatalf("expected completion without rating, got %d %+v", resp.Code, gotRating)
	}
}

func TestWalletHandler(t *testing.T) {
	h := NewWalletHandler(facadeStub{
		balanceFn: func(_ context.Context, actor model.Actor) (*model.Balance, error) {
			if actor.Role != model.RoleWriter {
				return nil, domainErrors.ErrForbidden
			}
			return &model.Balance{
				Earned:    decimal.RequireFromString("100"),
				Withdrawn: decimal.RequireFromString("20"),
				Pending:   decimal.RequireFromString("30"),
				Available: decimal.RequireFromString("50"),
			}, nil
		},
		withdrawFn: func(_ context.Context, actor model.Actor, amount decimal.Decimal, in usecase.PaymentInput) (*model.PaymentRecord, error) {
			if amount.GreaterThan(decimal.NewFromInt(50)) {
				return nil, domainErrors.ErrInsufficientBalance
			}
			return &model.PaymentRecord{ID: 8, Type: model.PaymentTypeWithdrawal, Amount: amount, Method: in.Method, Status: model.PaymentStatusPending}, nil
		},
		statsFn: func(_ context.Context, writerID int64) (*model.WriterStats, error) {
			return &model.WriterStats{WriterID: writerID, CompletedOrders: 4, OnTimeOrders: 3, RatedOrders: 2, AverageRating: decimal.RequireFromString("4.5")}, nil
		},
	})

	resp := performRequest(t, h.Balance, request{method: http.MethodGet, pattern: "/balance", path: "/balance", actor: writer})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if out := decode[dto.BalanceResponse](t, resp); !out.Available.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected balance %+v", out)
	}
	if resp := performRequest(t, h.Balance, request{method: http.MethodGet, pattern: "/balance", path: "/balance", actor: client}); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for client, got %d", resp.Code)
	}

	body := mustJSON(t, dto.WithdrawalRequest{Amount: decimal.NewFromInt(40), Method: "paypal"})
	resp = performRequest(t, h.Withdraw, request{method: http.MethodPost, pattern: "/withdrawals", path: "/withdrawals", body: body, actor: writer})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	if out := decode[dto.PaymentResponse](t, resp); out.Type != "writer_withdrawal" || out.Method != "paypal" || out.Status != "pending" {
		t.Fatalf("unexpected withdrawal %+v", out)
	}
	body = mustJSON(t, dto.WithdrawalRequest{Amount: decimal.NewFromInt(60), Method: "paypal"})
	resp = performRequest(t, h.Withdraw, request{method: http.MethodPost, pattern: "/withdrawals", path: "/withdrawals", body: body, actor: writer})
	if resp.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", resp.Code)
	}

	resp = performRequest(t, h.Stats, request{method: http.MethodGet, pattern: "/writers/:id/stats", path: "/writers/3/stats"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if out := decode[dto.StatsResponse](t, resp); out.WriterID != 3 || out.CompletedOrders != 4 {
		t.Fatalf("unexpected stats %+v", out)
	}
}

func TestAdminHandler(t *testing.T) {
	var gotReason string
	h := NewAdminHandler(facadeStub{
		rejectFn: func(_ context.Context, actor model.Actor, paymentID int64, reason string) (*model.PaymentRecord, error) {
			gotReason = reason
			return &model.PaymentRecord{ID: paymentID, Type: model.PaymentTypeWithdrawal, Status: model.PaymentStatusRejected, FailureReason: reason}, nil
		},
		refundFn: func(_ context.Context, actor model.Actor, paymentID int64, amount decimal.Decimal, reason string) (*model.PaymentRecord, error) {
			if paymentID == 99 {
				return nil, &domainErrors.GatewayError{Op: "refund", Err: errors.New("timeout")}
			}
			return &model.PaymentRecord{ID: 12, Type: model.PaymentTypeRefund, Amount: amount, RelatedID: ptr(paymentID), Status: model.PaymentStatusCompleted}, nil
		},
	})

	body := mustJSON(t, dto.RejectRequest{Reason: "details missing"})
	resp := performRequest(t, h.Reject, request{method: http.MethodPost, pattern: "/withdrawals/:id/reject", path: "/withdrawals/8/reject", body: body, actor: admin})
	if resp.Code != http.StatusOK || gotReason != "details missing" {
		t.Fatalf("expected rejection, got %d %q", resp.Code, gotReason)
	}
	if out := decode[dto.PaymentResponse](t, resp); out.Status != "rejected" || out.FailureReason != "details missing" {
		t.Fatalf("unexpected payment %+v", out)
	}

	body = mustJSON(t, dto.RefundRequest{Amount: decimal.NewFromInt(10), Reason: "late"})
	resp = performRequest(t, h.Refund, request{method: http.MethodPost, pattern: "/payments/:id/refund", path: "/payments/4/refund", body: body, actor: admin})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	if out := decode[dto.PaymentResponse](t, resp); out.RelatedID == nil || *out.RelatedID != 4 || out.Type != "refund" {
		t.Fatalf("unexpected refund %+v", out)
	}

	resp = performRequest(t, h.Refund, request{method: http.MethodPost, pattern: "/payments/:id/refund", path: "/payments/99/refund", body: body, actor: admin})
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
}
