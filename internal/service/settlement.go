package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stakepact/stakepact/internal/model"
	"github.com/stakepact/stakepact/internal/repository"
	"github.com/stakepact/stakepact/internal/service/payment"
)

// Skip reasons surfaced in charge outcomes and the audit ledger.
const (
	SkipGoalNotFailed     = "goal_not_failed"
	SkipAlreadyCharged    = "already_charged"
	SkipChargeFailedPrior = "charge_previously_failed"
	SkipNoCardOnFile      = "no_card_on_file"
	SkipNoCustomerRef     = "no_customer_ref"
	SkipNoPaymentMethod   = "no_payment_method"
	SkipNonPositiveStake  = "non_positive_stake"
)

// ChargeOutcome is the result of one pass through the charge path.
type ChargeOutcome struct {
	GoalID      string `json:"goal_id"`
	Status      string `json:"status"` // charged, skipped, failed
	Reason      string `json:"reason,omitempty"`
	AmountCents int64  `json:"amount_cents,omitempty"`
	Err         error  `json:"-"`
}

func (o *ChargeOutcome) Charged() bool {
	return o != nil && o.Status == model.AttemptCharged
}

// SettlementService decides, per goal, whether and when to move it to a
// terminal state and whether to charge. All of its entry points may run
// concurrently against the same remote store; the only shared state is the
// store itself, so every irreversible step is gated on a fresh read and the
// processor call carries a deterministic idempotency key.
type SettlementService struct {
	goals         repository.GoalRepository
	confirmations repository.ConfirmationRepository
	attempts      repository.ChargeAttemptRepository
	payments      payment.Provider
	gracePeriod   time.Duration
	emails        *EmailService
}

// WithEmailNotifier enables the charge notice email to the goal's owner.
func (s *SettlementService) WithEmailNotifier(emails *EmailService) *SettlementService {
	s.emails = emails
	return s
}

func NewSettlementService(
	goals repository.GoalRepository,
	confirmations repository.ConfirmationRepository,
	attempts repository.ChargeAttemptRepository,
	payments payment.Provider,
	gracePeriod time.Duration,
) *SettlementService {
	return &SettlementService{
		goals:         goals,
		confirmations: confirmations,
		attempts:      attempts,
		payments:      payments,
		gracePeriod:   gracePeriod,
	}
}

// ResolveVerdict applies a verdict to an open goal and, on failure
// verdicts, runs the charge path. Calling it on an already-settled goal is
// a no-op: that is the re-entrancy guard that makes re-processing the same
// confirmation or re-sweeping the same deadline safe.
//
// A charge failure never propagates as the operation's error; recording
// the verdict must succeed even when charging does not. The returned
// outcome (nil for no-ops and Yes verdicts) carries the charge result for
// the caller's summary.
func (s *SettlementService) ResolveVerdict(ctx context.Context, goal *model.Goal, verdict string) (*ChargeOutcome, error) {
	if verdict != model.VerdictYes && verdict != model.VerdictNo {
		return nil, fmt.Errorf("invalid verdict %q for goal %s", verdict, goal.ID)
	}

	if goal.Terminal() {
		slog.Debug("verdict already settled, skipping", "goal_id", goal.ID, "achievement", goal.Achievement)
		return nil, nil
	}

	err := s.goals.SetAchievement(ctx, goal.ID, verdict)
	if err != nil {
		return nil, fmt.Errorf("failed to record verdict for goal %s: %w", goal.ID, err)
	}

	slog.Info("verdict recorded", "goal_id", goal.ID, "verdict", verdict)

	if verdict != model.VerdictNo {
		return nil, nil
	}

	outcome, err := s.AttemptCharge(ctx, goal.ID)
	if err != nil {
		// Isolated: the verdict is durably recorded, the charge can be
		// retried via the single-goal check.
		slog.Error("charge attempt errored after verdict", "goal_id", goal.ID, "error", err)
		return &ChargeOutcome{
			GoalID: goal.ID,
			Status: model.AttemptFailed,
			Reason: "charge_error",
			Err:    err,
		}, nil
	}
	return outcome, nil
}

// AttemptCharge re-reads the goal and, if it is still chargeable, issues
// exactly one off-session charge. The fresh read closes the window where a
// concurrent invocation already settled the goal; the idempotency key
// closes the rest of it at the processor. Returns an error only for
// infrastructure failures before any charge was attempted.
func (s *SettlementService) AttemptCharge(ctx context.Context, goalID string) (*ChargeOutcome, error) {
	// Precondition check against authoritative state, never the caller's
	// in-memory copy.
	goal, err := s.goals.ByID(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read goal %s: %w", goalID, err)
	}

	if reason := chargeSkipReason(goal); reason != "" {
		outcome := &ChargeOutcome{GoalID: goalID, Status: model.AttemptSkipped, Reason: reason}
		s.recordAttempt(ctx, outcome, "")
		slog.Info("charge skipped", "goal_id", goalID, "reason", reason)
		return outcome, nil
	}

	amount := goal.StakeCents()
	if amount <= 0 {
		outcome := &ChargeOutcome{GoalID: goalID, Status: model.AttemptSkipped, Reason: SkipNonPositiveStake}
		s.recordAttempt(ctx, outcome, "")
		slog.Info("charge skipped", "goal_id", goalID, "reason", SkipNonPositiveStake, "stake_usd", goal.StakeUSD)
		return outcome, nil
	}

	cards, err := s.payments.ListSavedCards(ctx, *goal.CustomerRef)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved cards for goal %s: %w", goalID, err)
	}
	if len(cards) == 0 {
		outcome := &ChargeOutcome{GoalID: goalID, Status: model.AttemptSkipped, Reason: SkipNoPaymentMethod}
		s.recordAttempt(ctx, outcome, "")
		slog.Warn("charge skipped, no saved cards", "goal_id", goalID, "customer", *goal.CustomerRef)
		return outcome, nil
	}

	key := payment.ChargeIdempotencyKey(goalID)
	req := payment.ChargeRequest{
		CustomerRef:     *goal.CustomerRef,
		PaymentMethodID: cards[0].ID,
		AmountCents:     amount,
		Description:     fmt.Sprintf("Charge for failed goal: %s", goal.Description),
		IdempotencyKey:  key,
	}

	result, chargeErr := s.payments.ChargeOffSession(ctx, req)
	if chargeErr != nil {
		outcome := &ChargeOutcome{
			GoalID:      goalID,
			Status:      model.AttemptFailed,
			Reason:      "processor_rejected",
			AmountCents: amount,
			Err:         chargeErr,
		}
		s.recordAttempt(ctx, outcome, key)

		// Best-effort status patch. Failed charges are NOT retried
		// automatically; the operator re-runs the single-goal check once
		// the underlying card problem is fixed.
		patchErr := s.goals.SetPaymentStatus(ctx, goalID, model.PaymentChargeFailed)
		if patchErr != nil {
			slog.Error("failed to record charge failure status", "goal_id", goalID, "error", patchErr)
		}

		slog.Error("off-session charge failed", "goal_id", goalID, "amount_cents", amount, "error", chargeErr)
		return outcome, nil
	}

	outcome := &ChargeOutcome{
		GoalID:      goalID,
		Status:      model.AttemptCharged,
		AmountCents: result.AmountCents,
	}

	err = s.goals.SetPaymentStatus(ctx, goalID, model.PaymentCharged)
	if err != nil {
		// The charge has happened; the processor is the source of truth.
		// Retrying the patch here could mask the divergence, and retrying
		// the whole path risks confusing a future operator, so the row in
		// the audit ledger plus this error is the reconciliation trail.
		outcome.Reason = "charged_status_patch_failed"
		outcome.Err = err
		slog.Error("charged but failed to mark goal as charged, manual reconciliation required",
			"goal_id", goalID, "charge_id", result.ChargeID, "error", err)
	}
	s.recordAttempt(ctx, outcome, key)

	if s.emails != nil {
		notifyErr := s.emails.SendChargeNotice(goal, result.AmountCents)
		if notifyErr != nil {
			slog.Error("failed to send charge notice", "goal_id", goalID, "error", notifyErr)
		}
	}

	slog.Info("goal charged", "goal_id", goalID, "charge_id", result.ChargeID, "amount_cents", result.AmountCents)
	return outcome, nil
}

// SweepConfirmations processes every unprocessed referee confirmation. A
// confirmation is marked processed only after its verdict (and any charge)
// has been applied or explicitly recorded as failed; a per-record failure
// leaves it unprocessed for the next sweep, which is safe because the
// verdict application no-ops once settled.
func (s *SettlementService) SweepConfirmations(ctx context.Context) (*model.SweepSummary, error) {
	runID := uuid.New().String()[:8]

	confirmations, err := s.confirmations.Unprocessed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unprocessed confirmations: %w", err)
	}

	slog.Info("confirmation sweep started", "run_id", runID, "candidates", len(confirmations))
	summary := &model.SweepSummary{}

	for _, conf := range confirmations {
		if !conf.Valid() {
			slog.Warn("skipping malformed confirmation", "run_id", runID, "confirmation_id", conf.ID)
			summary.AddError(conf.ID, "missing goal reference or verdict")
			continue
		}

		goal, err := s.goals.ByID(ctx, conf.GoalID)
		if err != nil {
			summary.AddError(conf.ID, fmt.Sprintf("failed to load goal %s: %v", conf.GoalID, err))
			continue
		}

		outcome, err := s.ResolveVerdict(ctx, goal, conf.Verdict)
		if err != nil {
			summary.AddError(conf.ID, err.Error())
			continue
		}
		s.tally(summary, conf.ID, outcome)

		// Marked consumed last, after the verdict+charge sequence.
		err = s.confirmations.MarkProcessed(ctx, conf.ID)
		if err != nil {
			// The verdict is applied; the next sweep re-marks after a no-op
			// resolve, so this is an error entry, not a correctness problem.
			summary.AddError(conf.ID, fmt.Sprintf("failed to mark processed: %v", err))
			continue
		}

		summary.Processed++
	}

	slog.Info("confirmation sweep finished", "run_id", runID,
		"processed", summary.Processed, "charged", summary.Charged,
		"skipped", summary.Skipped, "errors", len(summary.Errors))
	return summary, nil
}

// SweepDeadlines fails every goal whose deadline passed more than the
// grace period ago with no referee verdict. Silence is treated as failure.
func (s *SettlementService) SweepDeadlines(ctx context.Context, now time.Time) (*model.SweepSummary, error) {
	runID := uuid.New().String()[:8]
	cutoff := now.Add(-s.gracePeriod)

	goals, err := s.goals.PendingPastDeadline(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch overdue goals: %w", err)
	}

	slog.Info("deadline sweep started", "run_id", runID, "cutoff", cutoff.UTC().Format("2006-01-02"), "candidates", len(goals))
	summary := &model.SweepSummary{}

	for _, goal := range goals {
		// The store snapshot can lag a concurrent sweep.
		if goal.Terminal() {
			continue
		}

		outcome, err := s.ResolveVerdict(ctx, goal, model.VerdictNo)
		if err != nil {
			summary.AddError(goal.ID, err.Error())
			continue
		}
		s.tally(summary, goal.ID, outcome)
		summary.Processed++
	}

	slog.Info("deadline sweep finished", "run_id", runID,
		"processed", summary.Processed, "charged", summary.Charged,
		"skipped", summary.Skipped, "errors", len(summary.Errors))
	return summary, nil
}

// CheckSingleGoal is the operator's idempotent retry entry point after a
// transient charge failure. It never records a verdict; it only re-runs
// the charge path when the goal is already in the chargeable state.
func (s *SettlementService) CheckSingleGoal(ctx context.Context, goalID string) (*ChargeOutcome, error) {
	goal, err := s.goals.ByID(ctx, goalID)
	if err != nil {
		return nil, err
	}

	if reason := chargeSkipReason(goal); reason != "" {
		slog.Info("single-goal check skipped", "goal_id", goalID, "reason", reason)
		return &ChargeOutcome{GoalID: goalID, Status: model.AttemptSkipped, Reason: reason}, nil
	}

	return s.AttemptCharge(ctx, goalID)
}

// Attempts returns the audit ledger rows for a goal, oldest first.
func (s *SettlementService) Attempts(ctx context.Context, goalID string) ([]*model.ChargeAttempt, error) {
	return s.attempts.ByGoal(ctx, goalID)
}

func (s *SettlementService) tally(summary *model.SweepSummary, recordID string, outcome *ChargeOutcome) {
	if outcome == nil {
		return
	}
	switch outcome.Status {
	case model.AttemptCharged:
		summary.Charged++
		if outcome.Err != nil {
			summary.AddError(recordID, fmt.Sprintf("charged but status patch failed: %v", outcome.Err))
		}
	case model.AttemptSkipped:
		summary.Skipped++
	case model.AttemptFailed:
		summary.AddError(recordID, fmt.Sprintf("charge failed for goal %s: %v", outcome.GoalID, outcome.Err))
	}
}

// recordAttempt appends to the audit ledger. Ledger failures are logged,
// never fatal: the ledger is an operator aid, not a settlement gate.
func (s *SettlementService) recordAttempt(ctx context.Context, outcome *ChargeOutcome, idempotencyKey string) {
	if s.attempts == nil {
		return
	}

	err := s.attempts.Record(ctx, &model.ChargeAttempt{
		ID:             uuid.New().String(),
		GoalID:         outcome.GoalID,
		Outcome:        outcome.Status,
		Reason:         outcome.Reason,
		AmountCents:    outcome.AmountCents,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		slog.Error("failed to record charge attempt in audit ledger", "goal_id", outcome.GoalID, "error", err)
	}
}

// chargeSkipReason returns why a goal cannot be charged right now, or ""
// when it is chargeable. Ordered so the most informative reason wins: a
// goal that was never failed reports that before any payment detail.
func chargeSkipReason(goal *model.Goal) string {
	if goal.Achievement != model.AchievementNo {
		return SkipGoalNotFailed
	}

	switch goal.PaymentStatus {
	case model.PaymentCardOnFile:
		// fall through to the customer reference check
	case model.PaymentCharged:
		return SkipAlreadyCharged
	case model.PaymentChargeFailed:
		return SkipChargeFailedPrior
	default:
		return SkipNoCardOnFile
	}

	if goal.CustomerRef == nil || *goal.CustomerRef == "" {
		return SkipNoCustomerRef
	}
	return ""
}
