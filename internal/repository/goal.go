package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stakepact/stakepact/internal/airtable"
	"github.com/stakepact/stakepact/internal/model"
)

var (
	ErrGoalNotFound = errors.New("goal not found")
)

// Goals table field names in the remote store.
const (
	fieldGoal          = "Goal"
	fieldDeadlineDate  = "Deadline Date"
	fieldStakeUSD      = "Money Stake USD"
	fieldRefereeEmail  = "Referee Email"
	fieldUserEmail     = "Email"
	fieldAchievement   = "Goal Achieved"
	fieldPaymentStatus = "Payment status"
	fieldCustomerRef   = "Customer ID"
	fieldTermsAccepted = "Terms Accepted"
)

type GoalRepository interface {
	ByID(ctx context.Context, id string) (*model.Goal, error)
	PendingPastDeadline(ctx context.Context, cutoff time.Time) ([]*model.Goal, error)
	Create(ctx context.Context, goal *model.Goal) (*model.Goal, error)
	SetAchievement(ctx context.Context, id, status string) error
	SetPaymentStatus(ctx context.Context, id, status string) error
	SetCardOnFile(ctx context.Context, id, customerRef string) error
}

type goalRepository struct {
	client *airtable.Client
	table  string
}

func NewGoalRepository(client *airtable.Client, table string) GoalRepository {
	return &goalRepository{client: client, table: table}
}

func (r *goalRepository) ByID(ctx context.Context, id string) (*model.Goal, error) {
	rec, err := r.client.GetRecord(ctx, r.table, id)
	if err != nil {
		if airtable.IsNotFound(err) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}
	return goalFromRecord(rec), nil
}

// PendingPastDeadline returns goals whose deadline date is at or before the
// cutoff (grace period already applied by the caller) and whose verdict is
// still open.
func (r *goalRepository) PendingPastDeadline(ctx context.Context, cutoff time.Time) ([]*model.Goal, error) {
	formula := fmt.Sprintf(`AND({%s} <= "%s", {%s} = "%s")`,
		fieldDeadlineDate, cutoff.UTC().Format("2006-01-02"),
		fieldAchievement, model.AchievementPending,
	)

	records, err := r.client.ListRecords(ctx, r.table, formula)
	if err != nil {
		return nil, err
	}

	goals := make([]*model.Goal, 0, len(records))
	for i := range records {
		goals = append(goals, goalFromRecord(&records[i]))
	}
	return goals, nil
}

func (r *goalRepository) Create(ctx context.Context, goal *model.Goal) (*model.Goal, error) {
	terms := "No"
	if goal.TermsAccepted {
		terms = "Yes"
	}

	fields := map[string]any{
		fieldGoal:          goal.Description,
		fieldDeadlineDate:  goal.DeadlineDate,
		fieldStakeUSD:      goal.StakeUSD,
		fieldRefereeEmail:  goal.RefereeEmail,
		fieldUserEmail:     goal.UserEmail,
		fieldAchievement:   model.AchievementPending,
		fieldPaymentStatus: model.PaymentNoCardOnFile,
		fieldTermsAccepted: terms,
	}

	rec, err := r.client.CreateRecord(ctx, r.table, fields)
	if err != nil {
		return nil, err
	}
	return goalFromRecord(rec), nil
}

func (r *goalRepository) SetAchievement(ctx context.Context, id, status string) error {
	return r.patch(ctx, id, map[string]any{fieldAchievement: status})
}

func (r *goalRepository) SetPaymentStatus(ctx context.Context, id, status string) error {
	return r.patch(ctx, id, map[string]any{fieldPaymentStatus: status})
}

// SetCardOnFile records the processor customer reference captured by the
// card-setup flow and moves the payment status to card-on-file in the same
// patch.
func (r *goalRepository) SetCardOnFile(ctx context.Context, id, customerRef string) error {
	return r.patch(ctx, id, map[string]any{
		fieldCustomerRef:   customerRef,
		fieldPaymentStatus: model.PaymentCardOnFile,
	})
}

func (r *goalRepository) patch(ctx context.Context, id string, fields map[string]any) error {
	err := r.client.PatchRecord(ctx, r.table, id, fields)
	if err != nil {
		if airtable.IsNotFound(err) {
			return ErrGoalNotFound
		}
		return err
	}
	return nil
}

func goalFromRecord(rec *airtable.Record) *model.Goal {
	goal := &model.Goal{
		ID:            rec.ID,
		Description:   stringField(rec, fieldGoal),
		DeadlineDate:  stringField(rec, fieldDeadlineDate),
		StakeUSD:      floatField(rec, fieldStakeUSD),
		RefereeEmail:  stringField(rec, fieldRefereeEmail),
		UserEmail:     stringField(rec, fieldUserEmail),
		Achievement:   stringField(rec, fieldAchievement),
		PaymentStatus: stringField(rec, fieldPaymentStatus),
		TermsAccepted: stringField(rec, fieldTermsAccepted) == "Yes",
	}

	// Records created before the verdict field is first written have no
	// achievement value at all; an open goal and an absent field mean the
	// same thing.
	if goal.Achievement == "" {
		goal.Achievement = model.AchievementPending
	}

	if ref := stringField(rec, fieldCustomerRef); ref != "" {
		goal.CustomerRef = &ref
	}

	return goal
}

func stringField(rec *airtable.Record, name string) string {
	v, ok := rec.Fields[name].(string)
	if !ok {
		return ""
	}
	return v
}

func floatField(rec *airtable.Record, name string) float64 {
	v, ok := rec.Fields[name].(float64)
	if !ok {
		return 0
	}
	return v
}
