package model

import "time"

// Achievement status values stored on a goal record. Pending is the only
// non-terminal value; once Yes or No is written the goal never reverts.
const (
	AchievementPending = "Pending"
	AchievementYes     = "Yes"
	AchievementNo      = "No"
)

// Payment status values stored on a goal record. The only transition back
// towards CardOnFile is performed by the card-capture flow, never here.
const (
	PaymentNoCardOnFile = "No card on file"
	PaymentCardOnFile   = "Card on file"
	PaymentCharged      = "Charged"
	PaymentChargeFailed = "Charge Failed"
)

// Goal is a user's staked commitment, backed by one record in the remote
// store. IDs are opaque and store-assigned. DeadlineDate is a civil date
// (YYYY-MM-DD) because the referee deadline has day granularity.
type Goal struct {
	ID            string
	Description   string
	DeadlineDate  string
	StakeUSD      float64
	RefereeEmail  string
	UserEmail     string
	Achievement   string
	PaymentStatus string
	CustomerRef   *string
	TermsAccepted bool
}

// Terminal reports whether the goal's verdict has been decided.
func (g *Goal) Terminal() bool {
	return g.Achievement == AchievementYes || g.Achievement == AchievementNo
}

// Chargeable reports whether a charge attempt is allowed right now:
// verdict No, card on file, and a processor customer reference present.
func (g *Goal) Chargeable() bool {
	return g.Achievement == AchievementNo &&
		g.PaymentStatus == PaymentCardOnFile &&
		g.CustomerRef != nil && *g.CustomerRef != ""
}

// StakeCents converts the stored decimal stake to processor minor units,
// rounding half away from zero.
func (g *Goal) StakeCents() int64 {
	cents := g.StakeUSD * 100
	if cents >= 0 {
		return int64(cents + 0.5)
	}
	return int64(cents - 0.5)
}

// DeadlinePassed reports whether the goal's deadline date is at or before
// the given cutoff instant, interpreting the civil date as end-of-day UTC
// being irrelevant: the sweep already subtracts a multi-day grace period,
// so day precision is enough.
func (g *Goal) DeadlinePassed(cutoff time.Time) bool {
	d, err := time.Parse("2006-01-02", g.DeadlineDate)
	if err != nil {
		return false
	}
	return !d.After(cutoff)
}
