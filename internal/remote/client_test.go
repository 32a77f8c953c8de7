package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/household-ledger/internal/models"
	"github.com/magabrotheeeer/household-ledger/internal/wire"
)

func TestClient_Fetch(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantErr   error
		wantNotes int
	}{
		{
			name:      "документ найден",
			status:    http.StatusOK,
			body:      `{"notes":[{"month":0,"year":2025,"content":"x"}],"updatedAt":10}`,
			wantNotes: 1,
		},
		{
			name:    "документа нет",
			status:  http.StatusNotFound,
			body:    `{"status":"Error","error":"document not found"}`,
			wantErr: ErrNotFound,
		},
		{
			name:    "ошибка сервера",
			status:  http.StatusInternalServerError,
			body:    `{"status":"Error","error":"boom"}`,
			wantErr: ErrUnavailable,
		},
		{
			name:    "битое тело",
			status:  http.StatusOK,
			body:    `{"notes":`,
			wantErr: ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/api/sync/maria%20silva", r.URL.EscapedPath())
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, time.Second)
			doc, err := c.Fetch(context.Background(), "maria silva")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, doc)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, doc.Notes)
			assert.Len(t, *doc.Notes, tt.wantNotes)
			assert.Equal(t, int64(10), doc.UpdatedAt)
		})
	}
}

func TestClient_FetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, 50*time.Millisecond)
	_, err := c.Fetch(context.Background(), "maria")

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_FetchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewClient(addr, time.Second).Fetch(context.Background(), "maria")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestClient_PushSendsOnlyGivenFields(t *testing.T) {
	var got map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/sync", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	doc := wire.Encode(models.NewSnapshot(), []models.Slice{models.SliceFleet}, time.Now())
	doc.UserID = "maria"

	err := NewClient(srv.URL, time.Second).Push(context.Background(), doc)
	require.NoError(t, err)

	assert.JSONEq(t, `"maria"`, string(got["userId"]))
	assert.Contains(t, got, "fleet")
	assert.NotContains(t, got, "expenses")
	assert.NotContains(t, got, "income")
}

func TestClient_PushNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, time.Second).Push(context.Background(), wire.Document{UserID: "maria"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_Delete(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/sync/maria", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, NewClient(srv.URL+"/", time.Second).Delete(context.Background(), "maria"))
	assert.Equal(t, 1, calls)
}

func TestClient_Upload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in wire.UploadRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "nf.pdf", in.Filename)
		_ = json.NewEncoder(w).Encode(wire.UploadResponse{Success: true, URL: "https://files/nf.pdf", PublicID: "users/maria/nf.pdf"})
	}))
	defer srv.Close()

	out, err := NewClient(srv.URL, time.Second).Upload(context.Background(), wire.UploadRequest{File: "aGVsbG8=", Filename: "nf.pdf", UserID: "maria"})
	require.NoError(t, err)
	assert.Equal(t, "users/maria/nf.pdf", out.PublicID)
}

func TestClient_UploadRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(wire.UploadResponse{Success: false})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Upload(context.Background(), wire.UploadRequest{File: "x", Filename: "y", UserID: "z"})
	assert.ErrorIs(t, err, ErrUnavailable)
}
