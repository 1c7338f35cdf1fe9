package routes

import (
	"net/http"

	"github.com/stakepact/stakepact/internal/app"
	"github.com/stakepact/stakepact/internal/handler"
	"github.com/stakepact/stakepact/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	goal := handler.NewGoalHandler(app.GoalService, app.Cfg)
	pay := handler.NewPaymentHandler(app.PaymentService)
	sweep := handler.NewSweepHandler(app.SettlementService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES (goal intake + card capture glue)
	// ============================================================================

	rateLimiter := middleware.RateLimitIntake()

	mux.HandleFunc("POST /api/goals", rateLimiter(goal.Submit))
	mux.HandleFunc("POST /api/setup-intent", rateLimiter(goal.SetupIntent))
	mux.HandleFunc("GET /api/config", pay.ClientConfig)

	// ============================================================================
	// OPERATOR ROUTES
	// ============================================================================

	admin := middleware.RequireAdminToken(app.Cfg.AdminToken)

	mux.HandleFunc("POST /admin/sweeps/confirmations", admin(sweep.SweepConfirmations))
	mux.HandleFunc("POST /admin/sweeps/deadlines", admin(sweep.SweepDeadlines))
	mux.HandleFunc("POST /admin/goals/{id}/check", admin(sweep.CheckGoal))
	mux.HandleFunc("GET /admin/goals/{id}/attempts", admin(sweep.Attempts))

	// ============================================================================
	// WEBHOOKS
	// ============================================================================

	mux.HandleFunc("POST /webhooks/payment", pay.Webhook)

	// Global middleware - executed in order (top to bottom)
	h := middleware.Chain(
		mux,
		middleware.RequestLogging,
	)

	return h
}
