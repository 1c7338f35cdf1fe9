package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stakepact/stakepact/internal/config"
	"github.com/stakepact/stakepact/internal/repository"
	"github.com/stakepact/stakepact/internal/service"
	"github.com/stakepact/stakepact/internal/validation"
)

type GoalHandler struct {
	goalService *service.GoalService
	cfg         *config.Config
	validate    *validator.Validate
}

func NewGoalHandler(goalService *service.GoalService, cfg *config.Config) *GoalHandler {
	return &GoalHandler{
		goalService: goalService,
		cfg:         cfg,
		validate:    validator.New(),
	}
}

type submitGoalRequest struct {
	Goal      string  `json:"goal" validate:"required,max=500"`
	Deadline  string  `json:"deadline" validate:"required"`
	Stake     float64 `json:"stake" validate:"required"`
	Referee   string  `json:"referee" validate:"required,email"`
	UserEmail string  `json:"userEmail" validate:"required,email"`
	Terms     bool    `json:"terms"`
}

func (h *GoalHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitGoalRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err = h.validate.Struct(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Terms {
		writeError(w, http.StatusBadRequest, "terms must be accepted")
		return
	}
	err = validation.ValidateEmail(req.Referee)
	if err != nil {
		writeError(w, http.StatusBadRequest, "referee: "+err.Error())
		return
	}
	err = validation.ValidateEmail(req.UserEmail)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	err = validation.ValidateStake(req.Stake, h.cfg.MaxStakeUSD)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	err = validation.ValidateDeadline(req.Deadline, time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Staking against your own judgement defeats the point.
	if req.Referee == req.UserEmail {
		writeError(w, http.StatusBadRequest, "referee must be a different person")
		return
	}

	goal, err := h.goalService.Submit(r.Context(), req.Goal, req.Deadline, req.Stake, req.Referee, req.UserEmail, req.Terms)
	if err != nil {
		slog.Error("failed to submit goal", "error", err)
		writeError(w, http.StatusBadGateway, "failed to create goal")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"goalId":  goal.ID,
	})
}

type setupIntentRequest struct {
	GoalID string `json:"goalId" validate:"required"`
}

// SetupIntent starts card capture for a submitted goal and returns the
// processor client secret for the frontend.
func (h *GoalHandler) SetupIntent(w http.ResponseWriter, r *http.Request) {
	var req setupIntentRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err = h.validate.Struct(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	secret, err := h.goalService.StartCardSetup(r.Context(), req.GoalID)
	if err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			writeError(w, http.StatusNotFound, "goal not found")
			return
		}
		slog.Error("failed to create setup intent", "goal_id", req.GoalID, "error", err)
		writeError(w, http.StatusBadGateway, "failed to start card setup")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"clientSecret": secret})
}
