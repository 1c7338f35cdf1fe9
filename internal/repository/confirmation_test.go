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

func newConfirmationRepo(t *testing.T, handler http.HandlerFunc) ConfirmationRepository {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := airtable.NewClient("appBase", "key", 5*time.Second).WithBaseURL(srv.URL)
	return NewConfirmationRepository(client, "Confirmations")
}

func TestUnprocessed_FormulaAndMapping(t *testing.T) {
	repo := newConfirmationRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/appBase/Confirmations", r.URL.Path)
		assert.Equal(t, `NOT({Processed})`, r.URL.Query().Get("filterByFormula"))

		fmt.Fprint(w, `{"records":[
			{"id":"conf1","fields":{"Goal Record ID":"rec1","Completion":"No"}},
			{"id":"conf2","fields":{"Completion":"Yes"}}
		]}`)
	})

	confirmations, err := repo.Unprocessed(context.Background())

	require.NoError(t, err)
	require.Len(t, confirmations, 2)

	assert.Equal(t, "conf1", confirmations[0].ID)
	assert.Equal(t, "rec1", confirmations[0].GoalID)
	assert.Equal(t, model.VerdictNo, confirmations[0].Verdict)
	assert.False(t, confirmations[0].Processed)
	assert.True(t, confirmations[0].Valid())

	// Missing goal reference maps to an invalid confirmation, not an error.
	assert.Empty(t, confirmations[1].GoalID)
	assert.False(t, confirmations[1].Valid())
}

func TestMarkProcessed_PatchesFlag(t *testing.T) {
	repo := newConfirmationRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/appBase/Confirmations/conf1", r.URL.Path)

		var body struct {
			Fields map[string]any `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"Processed": true}, body.Fields)

		fmt.Fprint(w, `{"id":"conf1","fields":{"Processed":true}}`)
	})

	err := repo.MarkProcessed(context.Background(), "conf1")

	require.NoError(t, err)
}

func TestConfirmationByID_NotFound(t *testing.T) {
	repo := newConfirmationRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := repo.ByID(context.Background(), "conf_missing")

	assert.ErrorIs(t, err, ErrConfirmationNotFound)
}
