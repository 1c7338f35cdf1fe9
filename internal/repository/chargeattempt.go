package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/stakepact/stakepact/internal/model"
)

// ChargeAttemptRepository is the local audit ledger. Unlike the goal and
// confirmation repositories it is not backed by the remote store: the
// ledger must stay writable even when the store patch after a successful
// charge fails, because that is exactly the divergence it exists to record.
type ChargeAttemptRepository interface {
	Record(ctx context.Context, attempt *model.ChargeAttempt) error
	ByGoal(ctx context.Context, goalID string) ([]*model.ChargeAttempt, error)
}

type chargeAttemptRepository struct {
	db *sqlx.DB
}

func NewChargeAttemptRepository(db *sqlx.DB) ChargeAttemptRepository {
	return &chargeAttemptRepository{db: db}
}

func (r *chargeAttemptRepository) Record(ctx context.Context, attempt *model.ChargeAttempt) error {
	query := `INSERT INTO charge_attempts (id, goal_id, outcome, reason, amount_cents, idempotency_key, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		attempt.ID,
		attempt.GoalID,
		attempt.Outcome,
		attempt.Reason,
		attempt.AmountCents,
		attempt.IdempotencyKey,
		attempt.CreatedAt,
	)

	return err
}

func (r *chargeAttemptRepository) ByGoal(ctx context.Context, goalID string) ([]*model.ChargeAttempt, error) {
	var attempts []*model.ChargeAttempt
	query := `SELECT * FROM charge_attempts WHERE goal_id = $1 ORDER BY created_at ASC`

	err := r.db.SelectContext(ctx, &attempts, query, goalID)
	if err != nil {
		return nil, err
	}

	return attempts, nil
}
