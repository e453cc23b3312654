package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/polkiloo/scribemart/internal/domain/model"
)

var ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")

type paymentIntents interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type refunds interface {
	New(params *stripe.RefundParams) (*stripe.Refund, error)
}

type transfers interface {
	New(params *stripe.TransferParams) (*stripe.Transfer, error)
}

// Stripe charges clients with PaymentIntents, refunds them and pays writers with Connect transfers.
type Stripe struct {
	intents   paymentIntents
	refunds   refunds
	transfers transfers
	logger    *slog.Logger
}

type chargeDetails struct {
	PaymentMethod string `json:"payment_method"`
	Customer      string `json:"customer"`
}

type payoutDetails struct {
	AccountID string `json:"account_id"`
}

// NewStripe builds the gateway from a secret key.
func NewStripe(secretKey string, logger *slog.Logger) (*Stripe, error) {
	if secretKey == "" {
		return nil, ErrStripeClientInitFailed
	}
	sc := client.New(secretKey, nil)
	if sc == nil {
		return nil, ErrStripeClientInitFailed
	}
	return &Stripe{intents: sc.PaymentIntents, refunds: sc.Refunds, transfers: sc.Transfers, logger: logger}, nil
}

func (s *Stripe) Charge(ctx context.Context, req model.ChargeRequest) (*model.GatewayResult, error) {
	var details chargeDetails
	if len(req.Details) > 0 {
		if err := json.Unmarshal(req.Details, &details); err != nil {
			return nil, fmt.Errorf("charge details: %w", err)
		}
	}
	if details.PaymentMethod == "" {
		return nil, fmt.Errorf("charge %s: payment_method is required", req.OrderNumber)
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(toMinorUnits(req.Amount)),
		Currency:      stripe.String(strings.ToLower(req.Currency)),
		PaymentMethod: stripe.String(details.PaymentMethod),
		Confirm:       stripe.Bool(true),
		Description:   stripe.String("Order " + req.OrderNumber),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	if details.Customer != "" {
		params.Customer = stripe.String(details.Customer)
	}
	params.Context = ctx
	params.SetIdempotencyKey("charge-" + strconv.FormatInt(req.PaymentID, 10))
	params.AddMetadata("order_number", req.OrderNumber)
	params.AddMetadata("payment_id", strconv.FormatInt(req.PaymentID, 10))

	pi, err := s.intents.New(params)
	if err != nil {
		s.logger.Error("stripe charge failed", slog.String("order", req.OrderNumber), slog.String("error", err.Error()))
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, fmt.Errorf("payment intent %s is %s: %w", pi.ID, pi.Status, ErrDeclined)
	}
	return result(pi.ID, string(pi.Status), pi)
}

func (s *Stripe) Refund(ctx context.Context, req model.RefundRequest) (*model.GatewayResult, error) {
	if req.OriginalReference == "" {
		return nil, fmt.Errorf("refund %d: original reference is required", req.PaymentID)
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.OriginalReference),
		Amount:        stripe.Int64(toMinorUnits(req.Amount)),
	}
	params.Context = ctx
	params.SetIdempotencyKey("refund-" + strconv.FormatInt(req.PaymentID, 10))
	if req.Reason != "" {
		params.AddMetadata("reason", req.Reason)
	}

	rf, err := s.refunds.New(params)
	if err != nil {
		s.logger.Error("stripe refund failed", slog.Int64("payment_id", req.PaymentID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("create refund: %w", err)
	}
	switch rf.Status {
	case stripe.RefundStatusSucceeded, stripe.RefundStatusPending:
	default:
		return nil, fmt.Errorf("refund %s is %s: %w", rf.ID, rf.Status, ErrDeclined)
	}
	return result(rf.ID, string(rf.Status), rf)
}

func (s *Stripe) Payout(ctx context.Context, req model.PayoutRequest) (*model.GatewayResult, error) {
	var details payoutDetails
	if len(req.Details) > 0 {
		if err := json.Unmarshal(req.Details, &details); err != nil {
			return nil, fmt.Errorf("payout details: %w", err)
		}
	}
	if details.AccountID == "" {
		return nil, fmt.Errorf("payout %d: account_id is required", req.PaymentID)
	}

	params := &stripe.TransferParams{
		Amount:      stripe.Int64(toMinorUnits(req.Amount)),
		Currency:    stripe.String(strings.ToLower(req.Currency)),
		Destination: stripe.String(details.AccountID),
	}
	params.Context = ctx
	params.SetIdempotencyKey("payout-" + strconv.FormatInt(req.PaymentID, 10))
	params.AddMetadata("writer_id", strconv.FormatInt(req.WriterID, 10))

	tr, err := s.transfers.New(params)
	if err != nil {
		s.logger.Error("stripe payout failed", slog.Int64("payment_id", req.PaymentID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("create transfer: %w", err)
	}
	return result(tr.ID, "succeeded", tr)
}

func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func result(ref, status string, obj any) (*model.GatewayResult, error) {
	payload, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	return &model.GatewayResult{Reference: ref, Status: status, Payload: payload}, nil
}
