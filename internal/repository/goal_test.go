package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakepact/stakepact/internal/airtable"
	"github.com/stakepact/stakepact/internal/model"
)

func newStoreBackedRepo(t *testing.T, handler http.HandlerFunc) GoalRepository {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := airtable.NewClient("appBase", "key", 5*time.Second).WithBaseURL(srv.URL)
	return NewGoalRepository(client, "Goals")
}

func TestGoalByID_FieldMapping(t *testing.T) {
	repo := newStoreBackedRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/appBase/Goals/rec1", r.URL.Path)
		fmt.Fprint(w, `{"id":"rec1","fields":{
			"Goal":"Run a marathon",
			"Deadline Date":"2026-06-01",
			"Money Stake USD":50,
			"Referee Email":"ref@example.com",
			"Email":"user@example.com",
			"Goal Achieved":"Pending",
			"Payment status":"Card on file",
			"Customer ID":"cus_1",
			"Terms Accepted":"Yes"
		}}`)
	})

	goal, err := repo.ByID(context.Background(), "rec1")

	require.NoError(t, err)
	assert.Equal(t, "rec1", goal.ID)
	assert.Equal(t, "Run a marathon", goal.Description)
	assert.Equal(t, "2026-06-01", goal.DeadlineDate)
	assert.Equal(t, 50.0, goal.StakeUSD)
	assert.Equal(t, "ref@example.com", goal.RefereeEmail)
	assert.Equal(t, "user@example.com", goal.UserEmail)
	assert.Equal(t, model.AchievementPending, goal.Achievement)
	assert.Equal(t, model.PaymentCardOnFile, goal.PaymentStatus)
	require.NotNil(t, goal.CustomerRef)
	assert.Equal(t, "cus_1", *goal.CustomerRef)
	assert.True(t, goal.TermsAccepted)
}

func TestGoalByID_AbsentFieldsDefaultToOpen(t *testing.T) {
	// Airtable omits empty cells from the field map entirely.
	repo := newStoreBackedRepo(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"rec1","fields":{"Goal":"Read a book"}}`)
	})

	goal, err := repo.ByID(context.Background(), "rec1")

	require.NoError(t, err)
	assert.Equal(t, model.AchievementPending, goal.Achievement)
	assert.Nil(t, goal.CustomerRef)
	assert.False(t, goal.TermsAccepted)
	assert.Zero(t, goal.StakeUSD)
}

func TestGoalByID_NotFound(t *testing.T) {
	repo := newStoreBackedRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := repo.ByID(context.Background(), "rec_missing")

	assert.ErrorIs(t, err, ErrGoalNotFound)
}

func TestPendingPastDeadline_Formula(t *testing.T) {
	repo := newStoreBackedRepo(t, func(w http.ResponseWriter, r *http.Request) {
		formula := r.URL.Query().Get("filterByFormula")
		assert.Equal(t, `AND({Deadline Date} <= "2026-06-06", {Goal Achieved} = "Pending")`, formula)
		fmt.Fprint(w, `{"records":[{"id":"rec1","fields":{"Goal Achieved":"Pending"}}]}`)
	})

	cutoff := time.Date(2026, 6, 6, 12, 0, 0, 0, time.UTC)
	goals, err := repo.PendingPastDeadline(context.Background(), cutoff)

	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "rec1", goals[0].ID)
}

func TestGoalCreate_WritesStoreDefaults(t *testing.T) {
	repo := newStoreBackedRepo(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Fields map[string]any `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, model.AchievementPending, body.Fields["Goal Achieved"])
		assert.Equal(t, model.PaymentNoCardOnFile, body.Fields["Payment status"])
		assert.Equal(t, "Yes", body.Fields["Terms Accepted"])

		fmt.Fprint(w, `{"id":"rec_new","fields":{"Goal":"Run a marathon","Goal Achieved":"Pending"}}`)
	})

	created, err := repo.Create(context.Background(), &model.Goal{
		Description:   "Run a marathon",
		DeadlineDate:  "2026-06-01",
		StakeUSD:      50,
		RefereeEmail:  "ref@example.com",
		UserEmail:     "user@example.com",
		TermsAccepted: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "rec_new", created.ID)
	assert.Equal(t, model.AchievementPending, created.Achievement)
}

func TestSetPaymentStatus_PatchesSingleField(t *testing.T) {
	repo := newStoreBackedRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		var body struct {
			Fields map[string]any `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"Payment status": "Charged"}, body.Fields)

		fmt.Fprint(w, `{"id":"rec1","fields":{}}`)
	})

	err := repo.SetPaymentStatus(context.Background(), "rec1", model.PaymentCharged)

	require.NoError(t, err)
}

func TestSetCardOnFile_PatchesRefAndStatusTogether(t *testing.T) {
	repo := newStoreBackedRepo(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Fields map[string]any `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "cus_1", body.Fields["Customer ID"])
		assert.Equal(t, model.PaymentCardOnFile, body.Fields["Payment status"])

		fmt.Fprint(w, `{"id":"rec1","fields":{}}`)
	})

	err := repo.SetCardOnFile(context.Background(), "rec1", "cus_1")

	require.NoError(t, err)
}
