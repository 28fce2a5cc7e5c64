package stripe

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/refund"
)

// ErrorKind classifies gateway failures into the coordinator's vocabulary.
type ErrorKind int

const (
	KindCardDeclined ErrorKind = iota
	KindInvalidRequest
	KindUnavailable
)

// GatewayError carries a human-readable message plus the raw gateway detail.
type GatewayError struct {
	Kind    ErrorKind
	Message string
	Raw     string
}

func (e *GatewayError) Error() string {
	return e.Message
}

type ChargeParams struct {
	PaymentMethodID  string
	AmountMinorUnits int64
	Currency         string
	Description      string
	// IdempotencyKey must be stable for one logical charge: a transaction
	// body retried by the store re-issues the same request instead of
	// charging twice.
	IdempotencyKey string
	Metadata       map[string]string
}

// ChargeResult reports the gateway's view of the charge. Succeeded is true
// only for the terminal success status.
type ChargeResult struct {
	IntentID  string
	Status    string
	Succeeded bool
}

// Gateway wraps the external charge-creation API.
type Gateway interface {
	Charge(ctx context.Context, params ChargeParams) (*ChargeResult, error)
	Refund(ctx context.Context, paymentIntentID string, amountMinorUnits int64) error
}

type stripeGateway struct{}

func NewStripeGateway(apiKey string) Gateway {
	stripe.Key = apiKey

	return &stripeGateway{}
}

// Charge creates and immediately confirms an off-session PaymentIntent
// against the given payment method.
func (g *stripeGateway) Charge(ctx context.Context, params ChargeParams) (*ChargeResult, error) {

	piParams := &stripe.PaymentIntentParams{
		Params: stripe.Params{
			Context: ctx,
		},
		Amount:        stripe.Int64(params.AmountMinorUnits),
		Currency:      stripe.String(params.Currency),
		PaymentMethod: stripe.String(params.PaymentMethodID),
		Confirm:       stripe.Bool(true),
		OffSession:    stripe.Bool(true),
		Description:   stripe.String(params.Description),
	}

	if params.IdempotencyKey != "" {
		piParams.SetIdempotencyKey(params.IdempotencyKey)
	}

	for key, value := range params.Metadata {
		piParams.AddMetadata(key, value)
	}

	intent, err := paymentintent.New(piParams)
	if err != nil {
		return nil, normalizeError(err)
	}

	return &ChargeResult{
		IntentID:  intent.ID,
		Status:    string(intent.Status),
		Succeeded: intent.Status == stripe.PaymentIntentStatusSucceeded,
	}, nil
}

// Refund returns funds for a previously captured PaymentIntent.
func (g *stripeGateway) Refund(ctx context.Context, paymentIntentID string, amountMinorUnits int64) error {

	params := &stripe.RefundParams{
		Params: stripe.Params{
			Context: ctx,
		},
		PaymentIntent: stripe.String(paymentIntentID),
		Amount:        stripe.Int64(amountMinorUnits),
	}

	if _, err := refund.New(params); err != nil {
		return normalizeError(err)
	}

	return nil
}

func normalizeError(err error) error {

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {

		message := stripeErr.Msg
		if message == "" {
			message = fmt.Sprintf("payment failed with code %s", stripeErr.Code)
		}

		switch stripeErr.Type {
		case stripe.ErrorTypeCard:
			return &GatewayError{Kind: KindCardDeclined, Message: message, Raw: stripeErr.Error()}
		case stripe.ErrorTypeInvalidRequest:
			return &GatewayError{Kind: KindInvalidRequest, Message: message, Raw: stripeErr.Error()}
		default:
			return &GatewayError{Kind: KindUnavailable, Message: message, Raw: stripeErr.Error()}
		}
	}

	return &GatewayError{Kind: KindUnavailable, Message: "payment gateway unavailable", Raw: err.Error()}
}
