package usecase

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/scribemart/internal/config"
	"github.com/polkiloo/scribemart/internal/domain/model"
	"github.com/polkiloo/scribemart/internal/pkg/lock"
	"github.com/polkiloo/scribemart/internal/pricing"
	"github.com/polkiloo/scribemart/internal/storage/memory"
	testhelpers "github.com/polkiloo/scribemart/internal/test"
)

type fixture struct {
	t          *testing.T
	ctx        context.Context
	store      *memory.Storage
	notifier   *testhelpers.NotifierStub
	orders     *OrderUseCase
	matching   *MatchingUseCase
	workflow   *WorkflowUseCase
	settlement *SettlementUseCase
}

func testConfig() *config.Config {
	return &config.Config{
		Currency:        "USD",
		PlatformFeeRate: decimal.RequireFromString("0.20"),
		MinWithdrawal:   decimal.NewFromInt(20),
		BasePagePrice:   decimal.NewFromInt(12),
		RevisionWindow:  24 * time.Hour,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newFixture(t *testing.T, gateway PaymentGateway) *fixture {
	t.Helper()
	if gateway == nil {
		gateway = testhelpers.GatewayStub{}
	}
	cfg := testConfig()
	logger := discardLogger()
	store := memory.New(logger)
	notifier := &testhelpers.NotifierStub{}

	return &fixture{
		t:          t,
		ctx:        context.Background(),
		store:      store,
		notifier:   notifier,
		orders:     NewOrderUseCase(store.Orders(), pricing.NewEngine(), notifier, cfg, logger),
		matching:   NewMatchingUseCase(store.Orders(), store.Users(), notifier, logger),
		workflow:   NewWorkflowUseCase(store.Orders(), store.Submissions(), notifier, cfg, logger),
		settlement: NewSettlementUseCase(store.Orders(), store.Payments(), store.Stats(), store.Users(), gateway, lock.NewLocal(), notifier, cfg, logger),
	}
}

func (f *fixture) user(email string, role model.Role) model.Actor {
	f.t.Helper()
	u, err := f.store.Users().Create(f.ctx, model.User{Email: email, PasswordHash: "x", Role: role})
	if err != nil {
		f.t.Fatalf("create user %s: %v", email, err)
	}
	return model.Actor{UserID: u.ID, Role: u.Role}
}

func orderInput() CreateOrderInput {
	return CreateOrderInput{
		Title:         "The causes of the French Revolution",
		Subject:       "History",
		AcademicLevel: "undergraduate",
		PaperType:     "essay",
		WordCount:     1000,
		Deadline:      time.Now().Add(8 * 24 * time.Hour),
		Urgency:       "7-days",
	}
}

func (f *fixture) order(client model.Actor) *model.Order {
	f.t.Helper()
	o, err := f.orders.Create(f.ctx, &client, orderInput())
	if err != nil {
		f.t.Fatalf("create order: %v", err)
	}
	return o
}

// delivered returns an order assigned to writer with one submission awaiting the client.
func (f *fixture) delivered(client, writer model.Actor) *model.Order {
	f.t.Helper()
	o := f.order(client)
	if _, err := f.matching.Take(f.ctx, writer, o.ID); err != nil {
		f.t.Fatalf("take: %v", err)
	}
	o, err := f.workflow.Submit(f.ctx, writer, o.ID, "files/draft-1.docx", "")
	if err != nil {
		f.t.Fatalf("submit: %v", err)
	}
	return o
}

func (f *fixture) completed(client, writer model.Actor) *model.Order {
	f.t.Helper()
	o := f.delivered(client, writer)
	o, _, err := f.workflow.Complete(f.ctx, client, o.ID, nil)
	if err != nil {
		f.t.Fatalf("complete: %v", err)
	}
	return o
}

func (f *fixture) orderPayments(orderID int64) []model.PaymentRecord {
	f.t.Helper()
	o, err := f.store.Orders().GetByID(f.ctx, orderID)
	if err != nil {
		f.t.Fatalf("get order: %v", err)
	}
	clientID, _ := o.ClientID()
	payments, err := f.store.Payments().ListByUser(f.ctx, clientID)
	if err != nil {
		f.t.Fatalf("list payments: %v", err)
	}
	var result []model.PaymentRecord
	for _, p := range payments {
		if p.Type == model.PaymentTypeOrder && p.OrderID != nil && *p.OrderID == orderID {
			result = append(result, p)
		}
	}
	return result
}
