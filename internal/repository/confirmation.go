package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/stakepact/stakepact/internal/airtable"
	"github.com/stakepact/stakepact/internal/model"
)

var (
	ErrConfirmationNotFound = errors.New("confirmation not found")
)

// Confirmations table field names in the remote store.
const (
	fieldConfGoalID    = "Goal Record ID"
	fieldConfVerdict   = "Completion"
	fieldConfProcessed = "Processed"
)

type ConfirmationRepository interface {
	ByID(ctx context.Context, id string) (*model.Confirmation, error)
	Unprocessed(ctx context.Context) ([]*model.Confirmation, error)
	MarkProcessed(ctx context.Context, id string) error
}

type confirmationRepository struct {
	client *airtable.Client
	table  string
}

func NewConfirmationRepository(client *airtable.Client, table string) ConfirmationRepository {
	return &confirmationRepository{client: client, table: table}
}

func (r *confirmationRepository) ByID(ctx context.Context, id string) (*model.Confirmation, error) {
	rec, err := r.client.GetRecord(ctx, r.table, id)
	if err != nil {
		if airtable.IsNotFound(err) {
			return nil, ErrConfirmationNotFound
		}
		return nil, err
	}
	return confirmationFromRecord(rec), nil
}

func (r *confirmationRepository) Unprocessed(ctx context.Context) ([]*model.Confirmation, error) {
	formula := fmt.Sprintf("NOT({%s})", fieldConfProcessed)

	records, err := r.client.ListRecords(ctx, r.table, formula)
	if err != nil {
		return nil, err
	}

	confirmations := make([]*model.Confirmation, 0, len(records))
	for i := range records {
		confirmations = append(confirmations, confirmationFromRecord(&records[i]))
	}
	return confirmations, nil
}

func (r *confirmationRepository) MarkProcessed(ctx context.Context, id string) error {
	err := r.client.PatchRecord(ctx, r.table, id, map[string]any{fieldConfProcessed: true})
	if err != nil {
		if airtable.IsNotFound(err) {
			return ErrConfirmationNotFound
		}
		return err
	}
	return nil
}

func confirmationFromRecord(rec *airtable.Record) *model.Confirmation {
	processed, _ := rec.Fields[fieldConfProcessed].(bool)

	return &model.Confirmation{
		ID:        rec.ID,
		GoalID:    stringField(rec, fieldConfGoalID),
		Verdict:   stringField(rec, fieldConfVerdict),
		Processed: processed,
	}
}
