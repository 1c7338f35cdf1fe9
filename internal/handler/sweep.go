package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/stakepact/stakepact/internal/repository"
	"github.com/stakepact/stakepact/internal/service"
)

// SweepHandler exposes the settlement entry points to operators. Each
// endpoint is safe to re-invoke: the engine's idempotency guards live in
// the engine, not here.
type SweepHandler struct {
	settlement *service.SettlementService
}

func NewSweepHandler(settlement *service.SettlementService) *SweepHandler {
	return &SweepHandler{settlement: settlement}
}

func (h *SweepHandler) SweepConfirmations(w http.ResponseWriter, r *http.Request) {
	summary, err := h.settlement.SweepConfirmations(r.Context())
	if err != nil {
		slog.Error("confirmation sweep failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *SweepHandler) SweepDeadlines(w http.ResponseWriter, r *http.Request) {
	now := time.Now()

	// Optional override for replaying a past sweep window.
	if v := r.URL.Query().Get("now"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "now must be RFC3339")
			return
		}
		now = parsed
	}

	summary, err := h.settlement.SweepDeadlines(r.Context(), now)
	if err != nil {
		slog.Error("deadline sweep failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *SweepHandler) CheckGoal(w http.ResponseWriter, r *http.Request) {
	goalID := r.PathValue("id")

	outcome, err := h.settlement.CheckSingleGoal(r.Context(), goalID)
	if err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			writeError(w, http.StatusNotFound, "goal not found")
			return
		}
		slog.Error("single-goal check failed", "goal_id", goalID, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	resp := map[string]any{
		"goalId":      outcome.GoalID,
		"status":      outcome.Status,
		"reason":      outcome.Reason,
		"amountCents": outcome.AmountCents,
	}
	if outcome.Err != nil {
		resp["error"] = outcome.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Attempts returns the audit ledger for one goal so an operator can
// reconcile store state against the processor.
func (h *SweepHandler) Attempts(w http.ResponseWriter, r *http.Request) {
	goalID := r.PathValue("id")

	attempts, err := h.settlement.Attempts(r.Context(), goalID)
	if err != nil {
		slog.Error("failed to load charge attempts", "goal_id", goalID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load charge attempts")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"attempts": attempts})
}
