package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stakepact/stakepact/internal/model"
	"github.com/stakepact/stakepact/internal/repository"
	"github.com/stakepact/stakepact/internal/service/payment"
)

// GoalService handles goal intake: creating the record and kicking off
// card capture. Everything after intake belongs to the settlement engine.
type GoalService struct {
	repo         repository.GoalRepository
	payments     payment.Provider
	emailService *EmailService
}

func NewGoalService(repo repository.GoalRepository, payments payment.Provider, emailService *EmailService) *GoalService {
	return &GoalService{
		repo:         repo,
		payments:     payments,
		emailService: emailService,
	}
}

// Submit creates a new open goal and notifies the referee. The record
// starts Pending with no card on file; card capture moves it to
// card-on-file via the processor webhook.
func (s *GoalService) Submit(ctx context.Context, description, deadlineDate string, stakeUSD float64, refereeEmail, userEmail string, termsAccepted bool) (*model.Goal, error) {
	goal := &model.Goal{
		Description:   description,
		DeadlineDate:  deadlineDate,
		StakeUSD:      stakeUSD,
		RefereeEmail:  refereeEmail,
		UserEmail:     userEmail,
		Achievement:   model.AchievementPending,
		PaymentStatus: model.PaymentNoCardOnFile,
		TermsAccepted: termsAccepted,
	}

	created, err := s.repo.Create(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	// Notification is best-effort; the goal exists either way and the
	// referee link can be re-sent.
	err = s.emailService.SendRefereeRequest(created)
	if err != nil {
		slog.Error("failed to send referee request", "goal_id", created.ID, "error", err)
	}

	slog.Info("goal submitted", "goal_id", created.ID, "deadline", created.DeadlineDate, "stake_usd", created.StakeUSD)
	return created, nil
}

// StartCardSetup returns the processor client secret the frontend needs to
// capture a card for the goal.
func (s *GoalService) StartCardSetup(ctx context.Context, goalID string) (string, error) {
	goal, err := s.repo.ByID(ctx, goalID)
	if err != nil {
		return "", err
	}

	secret, err := s.payments.CreateSetupIntent(ctx, goal.ID, goal.UserEmail)
	if err != nil {
		return "", fmt.Errorf("failed to create setup intent: %w", err)
	}
	return secret, nil
}

func (s *GoalService) ByID(ctx context.Context, goalID string) (*model.Goal, error) {
	return s.repo.ByID(ctx, goalID)
}
