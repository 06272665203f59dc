package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/notesync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_FetchUpdatedSince(t *testing.T) {
	since := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	var gotQuery, gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("updated_since")
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]models.Record{
			{ID: "srv_1", Fields: models.NoteFields{Title: "a"}},
		})
	}))
	defer ts.Close()

	c := NewHTTPClient(ts.URL, "tok", time.Second)
	recs, err := c.FetchUpdatedSince(context.Background(), since)
	require.NoError(t, err)

	assert.Equal(t, since.Format(time.RFC3339Nano), gotQuery)
	assert.Equal(t, "Bearer tok", gotAuth)
	require.Len(t, recs, 1)
	assert.Equal(t, "srv_1", recs[0].ID)
}

func TestHTTPClient_Create(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/records", r.URL.Path)

		var rec models.Record
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
		assert.Equal(t, "x", rec.Fields.Title)

		_ = json.NewEncoder(w).Encode(CreateResult{ID: "srv_1", CreatedAt: now, UpdatedAt: now})
	}))
	defer ts.Close()

	c := NewHTTPClient(ts.URL, "", time.Second)
	res, err := c.Create(context.Background(), models.Record{
		ID:     models.NewTentativeID(),
		Fields: models.NoteFields{Title: "x"},
	})
	require.NoError(t, err)
	assert.Equal(t, "srv_1", res.ID)
	assert.Equal(t, now, res.CreatedAt)
}

func TestHTTPClient_Update_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewHTTPClient(ts.URL, "", time.Second)
	_, err := c.Update(context.Background(), models.Record{ID: "gone"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPClient_ServerErrorIsUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := NewHTTPClient(ts.URL, "", time.Second)
	_, err := c.FetchUpdatedSince(context.Background(), time.Time{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPClient_TransportErrorIsUnavailable(t *testing.T) {
	// a server that is already closed
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()

	c := NewHTTPClient(ts.URL, "", time.Second)
	err := c.Delete(context.Background(), "srv_1")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPClient_Delete(t *testing.T) {
	var gotPath, gotMethod string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := NewHTTPClient(ts.URL, "", time.Second)
	require.NoError(t, c.Delete(context.Background(), "srv_1"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/records/srv_1", gotPath)
}

func TestHTTPClient_DeleteAbsentIsOK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewHTTPClient(ts.URL, "", time.Second)
	assert.NoError(t, c.Delete(context.Background(), "already_gone"))
}
