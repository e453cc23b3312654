// Package gateway moves money through an external payment provider.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/polkiloo/scribemart/internal/domain/model"
)

// ErrDeclined means the provider refused the operation.
var ErrDeclined = errors.New("declined by provider")

// Gateway is the provider-agnostic payment port.
type Gateway interface {
	Charge(ctx context.Context, req model.ChargeRequest) (*model.GatewayResult, error)
	Refund(ctx context.Context, req model.RefundRequest) (*model.GatewayResult, error)
	Payout(ctx context.Context, req model.PayoutRequest) (*model.GatewayResult, error)
}

// Manual settles everything in-process. Details of {"simulate":"decline"} make it fail.
type Manual struct{}

type manualDetails struct {
	Simulate string `json:"simulate"`
}

func (Manual) Charge(_ context.Context, req model.ChargeRequest) (*model.GatewayResult, error) {
	if declined(req.Details) {
		return nil, fmt.Errorf("charge %s: %w", req.OrderNumber, ErrDeclined)
	}
	return manualResult("ch", req.Amount.String(), req.Currency)
}

func (Manual) Refund(_ context.Context, req model.RefundRequest) (*model.GatewayResult, error) {
	return manualResult("re", req.Amount.String(), req.Currency)
}

func (Manual) Payout(_ context.Context, req model.PayoutRequest) (*model.GatewayResult, error) {
	if declined(req.Details) {
		return nil, fmt.Errorf("payout %d: %w", req.PaymentID, ErrDeclined)
	}
	return manualResult("po", req.Amount.String(), req.Currency)
}

func manualResult(prefix, amount, currency string) (*model.GatewayResult, error) {
	ref := fmt.Sprintf("manual_%s_%s", prefix, strings.ReplaceAll(uuid.NewString(), "-", ""))
	payload, err := json.Marshal(map[string]string{
		"reference": ref,
		"amount":    amount,
		"currency":  currency,
		"status":    "succeeded",
	})
	if err != nil {
		return nil, err
	}
	return &model.GatewayResult{Reference: ref, Status: "succeeded", Payload: payload}, nil
}

func declined(details json.RawMessage) bool {
	if len(details) == 0 {
		return false
	}
	var d manualDetails
	if err := json.Unmarshal(details, &d); err != nil {
		return false
	}
	return d.Simulate == "decline"
}
