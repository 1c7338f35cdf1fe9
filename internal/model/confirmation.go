package model

// Verdict values a referee can submit.
const (
	VerdictYes = "Yes"
	VerdictNo  = "No"
)

// Confirmation is a referee's verdict submission, backed by one record in
// the remote store. Processed flips to true exactly once, after the verdict
// has been propagated into the referenced goal.
type Confirmation struct {
	ID        string
	GoalID    string
	Verdict   string
	Processed bool
}

// Valid reports whether the confirmation references a goal and carries a
// recognized verdict. Malformed confirmations are counted as sweep errors
// rather than consumed.
func (c *Confirmation) Valid() bool {
	if c.GoalID == "" {
		return false
	}
	return c.Verdict == VerdictYes || c.Verdict == VerdictNo
}
