package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakepact/stakepact/internal/config"
	"github.com/stakepact/stakepact/internal/model"
	"github.com/stakepact/stakepact/internal/repository"
	"github.com/stakepact/stakepact/internal/service"
	"github.com/stakepact/stakepact/internal/service/payment"
)

type stubGoalRepo struct {
	created *model.Goal
}

func (r *stubGoalRepo) ByID(_ context.Context, id string) (*model.Goal, error) {
	if r.created != nil && r.created.ID == id {
		return r.created, nil
	}
	return nil, repository.ErrGoalNotFound
}

func (r *stubGoalRepo) PendingPastDeadline(context.Context, time.Time) ([]*model.Goal, error) {
	return nil, nil
}

func (r *stubGoalRepo) Create(_ context.Context, goal *model.Goal) (*model.Goal, error) {
	copied := *goal
	copied.ID = "rec_new"
	r.created = &copied
	return &copied, nil
}

func (r *stubGoalRepo) SetAchievement(context.Context, string, string) error   { return nil }
func (r *stubGoalRepo) SetPaymentStatus(context.Context, string, string) error { return nil }
func (r *stubGoalRepo) SetCardOnFile(context.Context, string, string) error    { return nil }

type stubPaymentProvider struct{}

func (stubPaymentProvider) Name() string           { return "stub" }
func (stubPaymentProvider) PublishableKey() string { return "pk_test" }
func (stubPaymentProvider) ListSavedCards(context.Context, string) ([]model.PaymentMethod, error) {
	return nil, nil
}
func (stubPaymentProvider) ChargeOffSession(context.Context, payment.ChargeRequest) (*model.ChargeResult, error) {
	return nil, nil
}
func (stubPaymentProvider) CreateSetupIntent(context.Context, string, string) (string, error) {
	return "seti_secret_123", nil
}
func (stubPaymentProvider) HandleWebhook([]byte, http.Header) error { return nil }

func newGoalHandler(t *testing.T) (*GoalHandler, *stubGoalRepo) {
	t.Helper()
	repo := &stubGoalRepo{}
	emails := service.NewEmailService("", "noreply@stakepact.test", "http://localhost", "StakePact", true)
	goalService := service.NewGoalService(repo, stubPaymentProvider{}, emails)
	cfg := &config.Config{MaxStakeUSD: 1000}
	return NewGoalHandler(goalService, cfg), repo
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func tomorrow() string {
	return time.Now().AddDate(0, 0, 1).Format("2006-01-02")
}

func TestSubmit_CreatesGoal(t *testing.T) {
	handler, repo := newGoalHandler(t)

	body := `{"goal":"Run a marathon","deadline":"` + tomorrow() + `","stake":50,"referee":"ref@example.com","userEmail":"user@example.com","terms":true}`
	rec := postJSON(t, handler.Submit, body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success bool   `json:"success"`
		GoalID  string `json:"goalId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "rec_new", resp.GoalID)

	require.NotNil(t, repo.created)
	assert.Equal(t, model.AchievementPending, repo.created.Achievement)
	assert.Equal(t, model.PaymentNoCardOnFile, repo.created.PaymentStatus)
}

func TestSubmit_Rejections(t *testing.T) {
	deadline := tomorrow()

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing goal", `{"deadline":"` + deadline + `","stake":50,"referee":"ref@example.com","userEmail":"user@example.com","terms":true}`},
		{"terms not accepted", `{"goal":"Run","deadline":"` + deadline + `","stake":50,"referee":"ref@example.com","userEmail":"user@example.com","terms":false}`},
		{"zero stake", `{"goal":"Run","deadline":"` + deadline + `","stake":0,"referee":"ref@example.com","userEmail":"user@example.com","terms":true}`},
		{"stake over cap", `{"goal":"Run","deadline":"` + deadline + `","stake":5000,"referee":"ref@example.com","userEmail":"user@example.com","terms":true}`},
		{"past deadline", `{"goal":"Run","deadline":"2020-01-01","stake":50,"referee":"ref@example.com","userEmail":"user@example.com","terms":true}`},
		{"bad referee email", `{"goal":"Run","deadline":"` + deadline + `","stake":50,"referee":"nope","userEmail":"user@example.com","terms":true}`},
		{"referee email too long", `{"goal":"Run","deadline":"` + deadline + `","stake":50,"referee":"` + strings.Repeat("a", 250) + `@example.com","userEmail":"user@example.com","terms":true}`},
		{"self-refereed", `{"goal":"Run","deadline":"` + deadline + `","stake":50,"referee":"user@example.com","userEmail":"user@example.com","terms":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, repo := newGoalHandler(t)

			rec := postJSON(t, handler.Submit, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, repo.created, "no goal record on rejection")
		})
	}
}

func TestSetupIntent_ReturnsClientSecret(t *testing.T) {
	handler, repo := newGoalHandler(t)
	repo.created = &model.Goal{ID: "rec1", UserEmail: "user@example.com"}

	rec := postJSON(t, handler.SetupIntent, `{"goalId":"rec1"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "seti_secret_123", resp["clientSecret"])
}

func TestSetupIntent_UnknownGoal(t *testing.T) {
	handler, _ := newGoalHandler(t)

	rec := postJSON(t, handler.SetupIntent, `{"goalId":"rec_missing"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
