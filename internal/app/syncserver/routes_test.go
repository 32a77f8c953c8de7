package syncserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/household-ledger/internal/cache"
	"github.com/magabrotheeeer/household-ledger/internal/config"
	"github.com/magabrotheeeer/household-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/household-ledger/internal/models"
	"github.com/magabrotheeeer/household-ledger/internal/remote"
	"github.com/magabrotheeeer/household-ledger/internal/services/document"
	uploadservice "github.com/magabrotheeeer/household-ledger/internal/services/upload"
	"github.com/magabrotheeeer/household-ledger/internal/storage/repository"
	"github.com/magabrotheeeer/household-ledger/internal/wire"
)

// memRepo повторяет семантику upsert с COALESCE.
type memRepo struct {
	mu   sync.Mutex
	docs map[string]wire.RawDocument
}

func (r *memRepo) GetDocument(_ context.Context, userID string) (*wire.RawDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &doc, nil
}

func (r *memRepo) UpsertDocument(_ context.Context, in wire.RawDocument, updatedAt int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc := r.docs[in.UserID]
	doc.UserID = in.UserID
	for _, f := range wire.Fields {
		if v := *in.Value(f); wire.IsSet(v) {
			*doc.Value(f) = append(json.RawMessage(nil), v...)
		}
	}
	doc.UpdatedAt = updatedAt
	r.docs[in.UserID] = doc
	return nil
}

func (r *memRepo) DeleteDocument(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[userID]; !ok {
		return 0, nil
	}
	delete(r.docs, userID)
	return 1, nil
}

func (r *memRepo) Ping(context.Context) error { return nil }

type memObjects struct{}

func (memObjects) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	return "http://files/" + key, nil
}

func setupServer(t *testing.T) (*httptest.Server, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := cache.InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	repo := &memRepo{docs: map[string]wire.RawDocument{}}
	cfg := &config.Config{
		HTTPServer: config.HTTPServer{MaxBodyBytes: 1 << 20},
		RateLimit:  config.RateLimit{RPS: 1000, Burst: 1000},
	}

	router := chi.NewRouter()
	RegisterRoutes(router, sl.Discard(), cfg, Deps{
		Documents: document.New(repo, c, time.Hour, sl.Discard()),
		Uploads:   uploadservice.New(memObjects{}, sl.Discard()),
		DB:        repo,
		Registry:  prometheus.NewRegistry(),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, mr
}

func TestRoutes_PartialPushKeepsOmittedFields(t *testing.T) {
	srv, mr := setupServer(t)
	client := remote.NewClient(srv.URL, 5*time.Second)
	ctx := context.Background()

	_, err := client.Fetch(ctx, "maria")
	require.ErrorIs(t, err, remote.ErrNotFound)

	s := models.NewSnapshot()
	s.Expenses[2] = []models.Expense{{ID: "e1", Date: "2025-03-10", Description: "Mercado", Amount: decimal.RequireFromString("120.5"), Year: 2025}}
	s.Notes[0] = "seguro"
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	full := wire.Encode(s, models.AllSlices, now)
	full.UserID = "maria"
	require.NoError(t, client.Push(ctx, full))

	// прогреваем кеш, следующая запись должна его сбросить
	_, err = client.Fetch(ctx, "maria")
	require.NoError(t, err)
	assert.True(t, mr.Exists(cache.DocumentKey("maria")))

	s.Notes[0] = ""
	s.Notes[5] = "ipva"
	partial := wire.Encode(s, []models.Slice{models.SliceNotes}, now)
	partial.UserID = "maria"
	require.NoError(t, client.Push(ctx, partial))
	assert.False(t, mr.Exists(cache.DocumentKey("maria")))

	doc, err := client.Fetch(ctx, "maria")
	require.NoError(t, err)
	got := wire.Decode(*doc)
	require.Len(t, got.Expenses[2], 1)
	assert.Equal(t, "Mercado", got.Expenses[2][0].Description)
	assert.Equal(t, "ipva", got.Notes[5])
	assert.Equal(t, "", got.Notes[0])
	assert.NotZero(t, got.UpdatedAt)

	n, err := deleteDoc(t, srv.URL, "maria")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = client.Fetch(ctx, "maria")
	require.ErrorIs(t, err, remote.ErrNotFound)
}

func TestRoutes_Validation(t *testing.T) {
	srv, _ := setupServer(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "некорректный JSON", body: `{"userId":`, status: http.StatusBadRequest},
		{name: "без userId", body: `{"notes":[]}`, status: http.StatusUnprocessableEntity},
		{name: "месяц 12", body: `{"userId":"maria","expenses":[{"month":12,"year":2025,"items":[]}]}`, status: http.StatusUnprocessableEntity},
		{name: "пустой массив", body: `{"userId":"maria","expenses":[]}`, status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/sync", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRoutes_UploadHealthMetrics(t *testing.T) {
	srv, _ := setupServer(t)
	client := remote.NewClient(srv.URL, 5*time.Second)

	res, err := client.Upload(context.Background(), wire.UploadRequest{
		File:     wire.EncodeDataURL("nota.pdf", []byte("%PDF-")),
		Filename: "nota.pdf",
		UserID:   "maria",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.PublicID, "users/maria/"))
	assert.Equal(t, "http://files/"+res.PublicID, res.URL)

	for _, path := range []string{"/health", "/metrics", "/docs/index.html"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func deleteDoc(t *testing.T, base, userID string) (int, error) {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, base+"/api/sync/"+userID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	var out struct {
		Deleted int `json:"deleted"`
	}
	err = json.NewDecoder(resp.Body).Decode(&out)
	return out.Deleted, err
}

func TestAuditHandler(t *testing.T) {
	h := auditHandler(sl.Discard())

	assert.NoError(t, h([]byte(`{"userId":"maria","fields":["notes"],"at":"2025-06-01T12:00:00Z"}`)))
	assert.NoError(t, h([]byte(`not json`)))
}
