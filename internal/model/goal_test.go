package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestGoalTerminal(t *testing.T) {
	assert.False(t, (&Goal{Achievement: AchievementPending}).Terminal())
	assert.False(t, (&Goal{Achievement: ""}).Terminal())
	assert.True(t, (&Goal{Achievement: AchievementYes}).Terminal())
	assert.True(t, (&Goal{Achievement: AchievementNo}).Terminal())
}

func TestGoalChargeable(t *testing.T) {
	tests := []struct {
		name string
		goal Goal
		want bool
	}{
		{"failed with card", Goal{Achievement: AchievementNo, PaymentStatus: PaymentCardOnFile, CustomerRef: strPtr("cus_1")}, true},
		{"still pending", Goal{Achievement: AchievementPending, PaymentStatus: PaymentCardOnFile, CustomerRef: strPtr("cus_1")}, false},
		{"achieved", Goal{Achievement: AchievementYes, PaymentStatus: PaymentCardOnFile, CustomerRef: strPtr("cus_1")}, false},
		{"already charged", Goal{Achievement: AchievementNo, PaymentStatus: PaymentCharged, CustomerRef: strPtr("cus_1")}, false},
		{"charge failed before", Goal{Achievement: AchievementNo, PaymentStatus: PaymentChargeFailed, CustomerRef: strPtr("cus_1")}, false},
		{"no card", Goal{Achievement: AchievementNo, PaymentStatus: PaymentNoCardOnFile, CustomerRef: strPtr("cus_1")}, false},
		{"missing customer ref", Goal{Achievement: AchievementNo, PaymentStatus: PaymentCardOnFile}, false},
		{"empty customer ref", Goal{Achievement: AchievementNo, PaymentStatus: PaymentCardOnFile, CustomerRef: strPtr("")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.goal.Chargeable())
		})
	}
}

func TestGoalStakeCents(t *testing.T) {
	tests := []struct {
		stakeUSD float64
		want     int64
	}{
		{50.00, 5000},
		{0, 0},
		{19.99, 1999},
		{10.125, 1013},   // half rounds away from zero
		{-10.125, -1013},
		{10.124, 1012},
	}

	for _, tt := range tests {
		g := &Goal{StakeUSD: tt.stakeUSD}
		assert.Equal(t, tt.want, g.StakeCents(), "stake %v", tt.stakeUSD)
	}
}

func TestGoalDeadlinePassed(t *testing.T) {
	cutoff := time.Date(2026, 6, 6, 12, 0, 0, 0, time.UTC)

	assert.True(t, (&Goal{DeadlineDate: "2026-06-01"}).DeadlinePassed(cutoff))
	assert.True(t, (&Goal{DeadlineDate: "2026-06-06"}).DeadlinePassed(cutoff), "deadline on the cutoff day counts as passed")
	assert.False(t, (&Goal{DeadlineDate: "2026-06-07"}).DeadlinePassed(cutoff))
	assert.False(t, (&Goal{DeadlineDate: "not a date"}).DeadlinePassed(cutoff), "unparseable dates are never swept")
	assert.False(t, (&Goal{DeadlineDate: ""}).DeadlinePassed(cutoff))
}

func TestConfirmationValid(t *testing.T) {
	assert.True(t, (&Confirmation{GoalID: "rec1", Verdict: VerdictYes}).Valid())
	assert.True(t, (&Confirmation{GoalID: "rec1", Verdict: VerdictNo}).Valid())
	assert.False(t, (&Confirmation{GoalID: "", Verdict: VerdictNo}).Valid())
	assert.False(t, (&Confirmation{GoalID: "rec1", Verdict: "Maybe"}).Valid())
	assert.False(t, (&Confirmation{GoalID: "rec1", Verdict: ""}).Valid())
}
