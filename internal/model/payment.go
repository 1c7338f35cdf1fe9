package model

import "time"

// PaymentMethod is a saved card at the payment processor.
type PaymentMethod struct {
	ID    string
	Brand string
	Last4 string
}

// ChargeResult describes a successful off-session charge.
type ChargeResult struct {
	ChargeID    string
	AmountCents int64
	Currency    string
}

// Charge attempt outcomes recorded in the audit ledger.
const (
	AttemptCharged = "charged"
	AttemptSkipped = "skipped"
	AttemptFailed  = "failed"
)

// ChargeAttempt is one row of the local audit ledger: every pass through
// the charge path, whatever its outcome, leaves a row. The processor is
// the source of truth for money movement; the ledger exists so an operator
// can reconcile the store against the processor after a partial failure.
type ChargeAttempt struct {
	ID             string    `db:"id" json:"id"`
	GoalID         string    `db:"goal_id" json:"goalId"`
	Outcome        string    `db:"outcome" json:"outcome"`
	Reason         string    `db:"reason" json:"reason,omitempty"`
	AmountCents    int64     `db:"amount_cents" json:"amountCents,omitempty"`
	IdempotencyKey string    `db:"idempotency_key" json:"idempotencyKey,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}
