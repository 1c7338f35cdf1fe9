package payment

import (
	"fmt"
	"log/slog"

	"github.com/stakepact/stakepact/internal/config"
	"github.com/stakepact/stakepact/internal/repository"
)

// NewProvider creates a payment provider based on configuration
func NewProvider(cfg *config.Config, goals repository.GoalRepository) (Provider, error) {
	provider := cfg.PaymentProvider

	slog.Info("initializing payment provider", "provider", provider)

	switch provider {
	case ProviderStripe:
		if cfg.StripeSecretKey == "" {
			return nil, fmt.Errorf("STRIPE_SECRET_KEY is required when using Stripe provider")
		}
		return NewStripeProvider(cfg, goals), nil

	default:
		return nil, fmt.Errorf("unknown payment provider: %s (supported: stripe)", provider)
	}
}
