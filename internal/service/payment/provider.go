package payment

import (
	"context"
	"fmt"
	"net/http"

	"github.com/stakepact/stakepact/internal/model"
)

const ProviderStripe = "stripe"

// Error is a processor rejection or transport failure.
type Error struct {
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payment: %s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("payment: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ChargeRequest describes one off-session charge. IdempotencyKey is
// required: the processor deduplicates retried requests carrying the same
// key, which is what collapses concurrent charge attempts for one goal
// into a single real charge.
type ChargeRequest struct {
	CustomerRef     string
	PaymentMethodID string
	AmountCents     int64
	Description     string
	IdempotencyKey  string
}

// Provider defines the interface that all payment providers must implement
type Provider interface {
	// ListSavedCards returns the customer's saved cards in processor-stable
	// order (possibly empty).
	ListSavedCards(ctx context.Context, customerRef string) ([]model.PaymentMethod, error)

	// ChargeOffSession creates and confirms a charge without the cardholder
	// present. A successful call moves real money.
	ChargeOffSession(ctx context.Context, req ChargeRequest) (*model.ChargeResult, error)

	// CreateSetupIntent starts card capture for a goal and returns the
	// client secret the frontend needs.
	CreateSetupIntent(ctx context.Context, goalID, userEmail string) (string, error)

	// HandleWebhook processes webhook events from the payment provider
	HandleWebhook(payload []byte, headers http.Header) error

	// PublishableKey returns the client-side API key.
	PublishableKey() string

	// Name returns the provider name (e.g., "stripe")
	Name() string
}

// ChargeIdempotencyKey derives the processor idempotency key for a goal.
// It is a pure function of the goal ID so that every entry point - either
// sweep or the on-demand check - produces the same key for the same goal.
func ChargeIdempotencyKey(goalID string) string {
	return "goal-charge:" + goalID
}
