package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/paymentmethod"
	"github.com/stripe/stripe-go/v81/setupintent"
	"github.com/stripe/stripe-go/v81/webhook"
	"github.com/stakepact/stakepact/internal/config"
	"github.com/stakepact/stakepact/internal/model"
	"github.com/stakepact/stakepact/internal/repository"
)

type StripeProvider struct {
	cfg   *config.Config
	goals repository.GoalRepository
}

func NewStripeProvider(cfg *config.Config, goals repository.GoalRepository) *StripeProvider {
	// Set Stripe API key
	stripe.Key = cfg.StripeSecretKey

	slog.Info("stripe provider initialized", "app_env", cfg.AppEnv)

	return &StripeProvider{
		cfg:   cfg,
		goals: goals,
	}
}

func (s *StripeProvider) Name() string {
	return ProviderStripe
}

func (s *StripeProvider) PublishableKey() string {
	return s.cfg.StripePublishableKey
}

func (s *StripeProvider) ListSavedCards(ctx context.Context, customerRef string) ([]model.PaymentMethod, error) {
	params := &stripe.PaymentMethodListParams{
		Customer: stripe.String(customerRef),
		Type:     stripe.String(string(stripe.PaymentMethodTypeCard)),
	}
	params.Context = ctx

	var methods []model.PaymentMethod
	iter := paymentmethod.List(params)
	for iter.Next() {
		pm := iter.PaymentMethod()
		method := model.PaymentMethod{ID: pm.ID}
		if pm.Card != nil {
			method.Brand = string(pm.Card.Brand)
			method.Last4 = pm.Card.Last4
		}
		methods = append(methods, method)
	}
	err := iter.Err()
	if err != nil {
		return nil, wrapStripeErr(err)
	}

	return methods, nil
}

func (s *StripeProvider) ChargeOffSession(ctx context.Context, req ChargeRequest) (*model.ChargeResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.AmountCents),
		Currency:      stripe.String(string(stripe.CurrencyUSD)),
		Customer:      stripe.String(req.CustomerRef),
		PaymentMethod: stripe.String(req.PaymentMethodID),
		OffSession:    stripe.Bool(true),
		Confirm:       stripe.Bool(true),
		Description:   stripe.String(req.Description),
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, wrapStripeErr(err)
	}

	slog.Info("stripe off-session charge confirmed",
		"payment_intent_id", pi.ID, "amount_cents", pi.Amount, "customer", req.CustomerRef)

	return &model.ChargeResult{
		ChargeID:    pi.ID,
		AmountCents: pi.Amount,
		Currency:    string(pi.Currency),
	}, nil
}

func (s *StripeProvider) CreateSetupIntent(ctx context.Context, goalID, userEmail string) (string, error) {
	params := &stripe.SetupIntentParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Metadata: map[string]string{
			"goal_id":    goalID,
			"user_email": userEmail,
		},
	}
	params.Context = ctx

	si, err := setupintent.New(params)
	if err != nil {
		return "", wrapStripeErr(err)
	}

	slog.Info("stripe setup intent created", "goal_id", goalID, "setup_intent_id", si.ID)
	return si.ClientSecret, nil
}

func (s *StripeProvider) HandleWebhook(payload []byte, headers http.Header) error {
	signature := headers.Get("Stripe-Signature")

	// Use ConstructEventWithOptions to ignore API version mismatch
	// Stripe's API versions are backwards compatible, so this is safe
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		s.cfg.StripeWebhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to verify webhook signature: %w", err)
	}

	slog.Info("stripe webhook received", "event_type", event.Type)

	switch event.Type {
	case "setup_intent.succeeded":
		return s.handleSetupIntentSucceeded(event.Data.Raw)
	case "setup_intent.setup_failed":
		return s.handleSetupIntentFailed(event.Data.Raw)
	default:
		slog.Warn("stripe webhook unknown event type", "event_type", event.Type)
		return nil
	}
}

// handleSetupIntentSucceeded performs the card-capture flow's transition:
// the goal gains its processor customer reference and moves to
// card-on-file. This is the only path that moves payment status towards
// chargeable; settlement only ever moves it away.
func (s *StripeProvider) handleSetupIntentSucceeded(data json.RawMessage) error {
	var setupIntent struct {
		ID            string            `json:"id"`
		CustomerID    string            `json:"customer"`
		PaymentMethod string            `json:"payment_method"`
		Metadata      map[string]string `json:"metadata"`
	}

	err := json.Unmarshal(data, &setupIntent)
	if err != nil {
		return fmt.Errorf("failed to parse setup intent: %w", err)
	}

	goalID := setupIntent.Metadata["goal_id"]
	if goalID == "" {
		slog.Warn("stripe setup intent has no goal_id in metadata, skipping")
		return nil
	}
	if setupIntent.CustomerID == "" {
		slog.Warn("stripe setup intent has no customer, skipping", "goal_id", goalID)
		return nil
	}

	ctx := context.Background()

	goal, err := s.goals.ByID(ctx, goalID)
	if err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			slog.Warn("stripe setup intent references unknown goal, skipping", "goal_id", goalID)
			return nil
		}
		return fmt.Errorf("failed to load goal for setup intent: %w", err)
	}

	// Stripe redelivers webhook events; a replay arriving after the goal
	// was charged must not move it back to chargeable. Charge-failed goals
	// do go back to card-on-file: that is the retry path after the user
	// fixes their card.
	if goal.PaymentStatus == model.PaymentCharged {
		slog.Warn("stripe setup intent for already charged goal, skipping", "goal_id", goalID)
		return nil
	}

	err = s.goals.SetCardOnFile(ctx, goalID, setupIntent.CustomerID)
	if err != nil {
		return fmt.Errorf("failed to record card on file: %w", err)
	}

	slog.Info("card on file recorded", "goal_id", goalID, "customer", setupIntent.CustomerID)
	return nil
}

func (s *StripeProvider) handleSetupIntentFailed(data json.RawMessage) error {
	var setupIntent struct {
		ID       string            `json:"id"`
		Metadata map[string]string `json:"metadata"`
	}

	err := json.Unmarshal(data, &setupIntent)
	if err != nil {
		return fmt.Errorf("failed to parse setup intent: %w", err)
	}

	slog.Warn("stripe card setup failed", "setup_intent_id", setupIntent.ID, "goal_id", setupIntent.Metadata["goal_id"])
	// The goal stays at no-card-on-file; the user can retry card capture.
	return nil
}

func wrapStripeErr(err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		return &Error{Code: string(serr.Code), Err: err}
	}
	return &Error{Err: err}
}
