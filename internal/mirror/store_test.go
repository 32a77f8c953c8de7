package mirror

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_SetGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "maria", "expenses", []byte(`[]`)))
	require.NoError(t, store.Set(ctx, "maria", "expenses", []byte(`[[]]`)))

	v, err := store.Get(ctx, "maria", "expenses")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[[]]`), v)
}

func TestSQLiteStore_GetMissingReturnsNilNil(t *testing.T) {
	store := setupStore(t)

	v, err := store.Get(context.Background(), "maria", "absent")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestSQLiteStore_ScopesAreIsolated(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "maria", "notes", []byte("a")))
	require.NoError(t, store.Set(ctx, "joao", "notes", []byte("b")))
	require.NoError(t, store.Set(ctx, "", "notes_0", []byte("c")))

	require.NoError(t, store.Clear(ctx, "maria"))

	v, err := store.Get(ctx, "maria", "notes")
	require.NoError(t, err)
	assert.Nil(t, v)

	list, err := store.List(ctx, "joao")
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"notes": []byte("b")}, list)

	list, err = store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "maria", "k", []byte("v")))
	require.NoError(t, store.Delete(ctx, "maria", "k"))
	require.NoError(t, store.Delete(ctx, "maria", "k"))

	v, err := store.Get(ctx, "maria", "k")
	require.NoError(t, err)
	assert.Nil(t, v)
}
