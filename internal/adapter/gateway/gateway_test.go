package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"github.com/polkiloo/scribemart/internal/config"
	"github.com/polkiloo/scribemart/internal/domain/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type fakeIntents struct {
	got    *stripe.PaymentIntentParams
	status stripe.PaymentIntentStatus
	err    error
}

func (f *fakeIntents) New(p *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.got = p
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.PaymentIntent{ID: "pi_123", Status: f.status}, nil
}

type fakeRefunds struct {
	got    *stripe.RefundParams
	status stripe.RefundStatus
}

func (f *fakeRefunds) New(p *stripe.RefundParams) (*stripe.Refund, error) {
	f.got = p
	return &stripe.Refund{ID: "re_1", Status: f.status}, nil
}

type fakeTransfers struct {
	got *stripe.TransferParams
}

func (f *fakeTransfers) New(p *stripe.TransferParams) (*stripe.Transfer, error) {
	f.got = p
	return &stripe.Transfer{ID: "tr_1"}, nil
}

func TestManualGateway(t *testing.T) {
	ctx := context.Background()
	var g Gateway = Manual{}

	res, err := g.Charge(ctx, model.ChargeRequest{OrderNumber: "SM-1", Amount: decimal.RequireFromString("69.12"), Currency: "USD"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Reference, "manual_ch_"))
	assert.Equal(t, "succeeded", res.Status)
	assert.Contains(t, string(res.Payload), "69.12")

	_, err = g.Charge(ctx, model.ChargeRequest{Details: json.RawMessage(`{"simulate":"decline"}`)})
	assert.ErrorIs(t, err, ErrDeclined)

	_, err = g.Payout(ctx, model.PayoutRequest{Details: json.RawMessage(`{"simulate":"decline"}`)})
	assert.ErrorIs(t, err, ErrDeclined)

	res, err = g.Refund(ctx, model.RefundRequest{Amount: decimal.NewFromInt(5)})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Reference, "manual_re_"))
}

func TestStripeCharge(t *testing.T) {
	intents := &fakeIntents{status: stripe.PaymentIntentStatusSucceeded}
	s := &Stripe{intents: intents, logger: testLogger()}

	res, err := s.Charge(context.Background(), model.ChargeRequest{
		PaymentID:   9,
		OrderNumber: "SM-9",
		Amount:      decimal.RequireFromString("69.12"),
		Currency:    "USD",
		Details:     json.RawMessage(`{"payment_method":"pm_card_visa"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", res.Reference)
	assert.Equal(t, int64(6912), *intents.got.Amount)
	assert.Equal(t, "usd", *intents.got.Currency)
	assert.Equal(t, "pm_card_visa", *intents.got.PaymentMethod)
	assert.Equal(t, "charge-9", *intents.got.IdempotencyKey)
	assert.Equal(t, "SM-9", intents.got.Metadata["order_number"])
}

func TestStripeChargeFailures(t *testing.T) {
	s := &Stripe{intents: &fakeIntents{status: stripe.PaymentIntentStatusRequiresAction}, logger: testLogger()}
	_, err := s.Charge(context.Background(), model.ChargeRequest{Details: json.RawMessage(`{"payment_method":"pm"}`)})
	assert.ErrorIs(t, err, ErrDeclined)

	_, err = s.Charge(context.Background(), model.ChargeRequest{})
	assert.Error(t, err, "payment method is required")

	boom := errors.New("card_declined")
	s = &Stripe{intents: &fakeIntents{err: boom}, logger: testLogger()}
	_, err = s.Charge(context.Background(), model.ChargeRequest{Details: json.RawMessage(`{"payment_method":"pm"}`)})
	assert.ErrorIs(t, err, boom)
}

func TestStripeRefundAndPayout(t *testing.T) {
	rf := &fakeRefunds{status: stripe.RefundStatusSucceeded}
	tr := &fakeTransfers{}
	s := &Stripe{refunds: rf, transfers: tr, logger: testLogger()}

	res, err := s.Refund(context.Background(), model.RefundRequest{PaymentID: 3, OriginalReference: "pi_123", Amount: decimal.RequireFromString("10.5")})
	require.NoError(t, err)
	assert.Equal(t, "re_1", res.Reference)
	assert.Equal(t, "pi_123", *rf.got.PaymentIntent)
	assert.Equal(t, int64(1050), *rf.got.Amount)

	_, err = s.Refund(context.Background(), model.RefundRequest{PaymentID: 3})
	assert.Error(t, err)

	rf.status = stripe.RefundStatusFailed
	_, err = s.Refund(context.Background(), model.RefundRequest{PaymentID: 4, OriginalReference: "pi_123", Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrDeclined)

	res, err = s.Payout(context.Background(), model.PayoutRequest{
		PaymentID: 5,
		WriterID:  10,
		Amount:    decimal.NewFromInt(40),
		Currency:  "USD",
		Details:   json.RawMessage(`{"account_id":"acct_1"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "tr_1", res.Reference)
	assert.Equal(t, "acct_1", *tr.got.Destination)
	assert.Equal(t, int64(4000), *tr.got.Amount)

	_, err = s.Payout(context.Background(), model.PayoutRequest{PaymentID: 6})
	assert.Error(t, err)
}

func TestNewGatewaySelectsImplementation(t *testing.T) {
	g, err := newGateway(gatewayParams{Config: &config.Config{PaymentGateway: config.GatewayManual}, Logger: testLogger()})
	require.NoError(t, err)
	assert.IsType(t, Manual{}, g)

	g, err = newGateway(gatewayParams{Config: &config.Config{PaymentGateway: config.GatewayStripe, StripeSecretKey: "sk_test_123"}, Logger: testLogger()})
	require.NoError(t, err)
	assert.IsType(t, &Stripe{}, g)

	_, err = newGateway(gatewayParams{Config: &config.Config{PaymentGateway: config.GatewayStripe}, Logger: testLogger()})
	assert.ErrorIs(t, err, ErrStripeClientInitFailed)
}
