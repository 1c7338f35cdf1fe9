package validation

import (
	"errors"
	"fmt"
	"time"
)

// ValidateStake checks a submitted stake amount. Zero is rejected at
// intake even though the settlement engine would skip a zero charge: a
// stakeless goal is a form mistake, not a commitment.
func ValidateStake(stakeUSD, maxUSD float64) error {
	if stakeUSD <= 0 {
		return errors.New("stake must be greater than zero")
	}
	if maxUSD > 0 && stakeUSD > maxUSD {
		return fmt.Errorf("stake must not exceed $%.2f", maxUSD)
	}
	return nil
}

// ValidateDeadline checks a submitted deadline date (YYYY-MM-DD). The
// deadline must be today or later; a goal born overdue would be swept
// immediately.
func ValidateDeadline(deadline string, now time.Time) error {
	d, err := time.Parse("2006-01-02", deadline)
	if err != nil {
		return errors.New("deadline must be a date in YYYY-MM-DD format")
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if d.Before(today) {
		return errors.New("deadline must not be in the past")
	}
	return nil
}
