package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/household-ledger/internal/identity"
	"github.com/magabrotheeeer/household-ledger/internal/mirror"
	"github.com/magabrotheeeer/household-ledger/internal/remote"
	"github.com/magabrotheeeer/household-ledger/internal/wire"
)

const serverUpdatedAt int64 = 1735689600000

// fakeServer хранит документы так же, как сервер: переданные поля
// заменяются, отсутствующие сохраняются.
type fakeServer struct {
	mu     sync.Mutex
	docs   map[string]wire.Document
	down   bool
	pushes int
	// gate, если задан, блокирует Fetch до получения значения.
	// gateUser ограничивает блокировку одним пользователем.
	gate     chan struct{}
	gateUser string
	// fetching получает userID при входе в заблокированный Fetch.
	fetching chan string
}

func newFakeServer() *fakeServer {
	return &fakeServer{docs: make(map[string]wire.Document)}
}

func (f *fakeServer) Fetch(ctx context.Context, userID string) (*wire.Document, error) {
	if f.gate != nil && (f.gateUser == "" || f.gateUser == userID) {
		if f.fetching != nil {
			f.fetching <- userID
		}
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, fmt.Errorf("fetch: %w", remote.ErrUnavailable)
	}
	doc, ok := f.docs[userID]
	if !ok {
		return nil, remote.ErrNotFound
	}
	out := copyDoc(doc)
	return &out, nil
}

func (f *fakeServer) Push(_ context.Context, doc wire.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes++
	if f.down {
		return fmt.Errorf("push: %w", remote.ErrUnavailable)
	}
	in := copyDoc(doc)
	cur := f.docs[doc.UserID]
	cur.UserID = doc.UserID
	if in.Expenses != nil {
		cur.Expenses = in.Expenses
	}
	if in.Income != nil {
		cur.Income = in.Income
	}
	if in.Notes != nil {
		cur.Notes = in.Notes
	}
	if in.Fleet != nil {
		cur.Fleet = in.Fleet
	}
	if in.SystemUsers != nil {
		cur.SystemUsers = in.SystemUsers
	}
	if in.Maintenance != nil {
		cur.Maintenance = in.Maintenance
	}
	if in.Categories != nil {
		cur.Categories = in.Categories
	}
	cur.UpdatedAt = serverUpdatedAt
	f.docs[doc.UserID] = cur
	return nil
}

func (f *fakeServer) Delete(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return fmt.Errorf("delete: %w", remote.ErrUnavailable)
	}
	delete(f.docs, userID)
	return nil
}

func (f *fakeServer) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pushes
}

func (f *fakeServer) setDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

func copyDoc(doc wire.Document) wire.Document {
	raw, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	var out wire.Document
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return out
}

// remoteMock мок RemoteStore для проверки количества обращений к сети.
type remoteMock struct {
	mock.Mock
}

func (m *remoteMock) Fetch(ctx context.Context, userID string) (*wire.Document, error) {
	args := m.Called(ctx, userID)
	doc, _ := args.Get(0).(*wire.Document)
	return doc, args.Error(1)
}

func (m *remoteMock) Push(ctx context.Context, doc wire.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *remoteMock) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupMirror(t *testing.T) *mirror.Mirror {
	t.Helper()
	store, err := mirror.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return mirror.New(store, discardLogger())
}

func setupEngine(t *testing.T, rs RemoteStore, m *mirror.Mirror, ident *identity.Resolver) *Engine {
	t.Helper()
	n := 0
	return New(rs, m, ident, discardLogger(),
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
}
