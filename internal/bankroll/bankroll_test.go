package bankroll

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Balance(ctx, "alice")
	assert.ErrorIs(t, err, ErrUnknownPlayer)
	assert.ErrorIs(t, store.Debit(ctx, "alice", 10), ErrUnknownPlayer)

	require.NoError(t, store.Credit(ctx, "alice", 1000))
	require.NoError(t, store.Credit(ctx, "alice", 500))
	bal, err := store.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), bal)

	require.NoError(t, store.Debit(ctx, "alice", 1500))
	assert.ErrorIs(t, store.Debit(ctx, "alice", 1), ErrInsufficientFunds)
	assert.ErrorIs(t, store.Debit(ctx, "alice", 0), ErrInvalidAmount)
	assert.ErrorIs(t, store.Credit(ctx, "alice", -5), ErrInvalidAmount)

	bal, err = store.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(0), bal)
}

func TestMemory(t *testing.T) {
	t.Parallel()

	testStore(t, NewMemory(nil))

	m := NewMemory(map[string]int64{"bob": 200, "carol": 300})
	assert.Equal(t, int64(500), m.Total())
}

func TestSQLite(t *testing.T) {
	t.Parallel()

	store, err := OpenSQL(context.Background(), "sqlite", filepath.Join(t.TempDir(), "bankroll.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	testStore(t, store)
}

func TestOpenSQLRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := OpenSQL(context.Background(), "mysql", "x")
	assert.Error(t, err)
	_, err = OpenSQL(context.Background(), "sqlite", " ")
	assert.Error(t, err)
}
