package ledger

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l := New(log.NewWithOptions(io.Discard, log.Options{}))
	t.Cleanup(func() { assert.NoError(t, l.Check()) })
	return l
}

func TestDepositOpensAccount(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	_, ok := l.Account(0)
	assert.False(t, ok)

	require.NoError(t, l.Deposit(0, 500))
	require.NoError(t, l.Deposit(0, 250))
	assert.Equal(t, int64(750), l.Balance(0))
	assert.Equal(t, int64(750), l.Available(0))
	assert.ErrorIs(t, l.Deposit(0, 0), ErrInvalidAmount)
}

func TestCommitNeverExceedsBalance(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	require.NoError(t, l.Deposit(1, 2000))

	assert.ErrorIs(t, l.Commit(1, 2001, "liability", "liability"), ErrInsufficientAvailable)
	require.NoError(t, l.Commit(1, 1800, "liability", "liability"))
	assert.ErrorIs(t, l.Commit(1, 201, "side game", "sg"), ErrInsufficientAvailable)
	require.NoError(t, l.Commit(1, 200, "side game", "sg"))

	acct, _ := l.Account(1)
	assert.Equal(t, int64(2000), acct.Committed)
	assert.Len(t, acct.Commitments, 2)
	assert.ErrorIs(t, l.Commit(2, 1, "x", "x"), ErrNoAccount)
}

func TestLiabilityRepricedToZeroIsReleased(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	require.NoError(t, l.Deposit(4, 2000))
	require.NoError(t, l.Commit(4, 1800, "liability", "liability"))
	assert.Equal(t, int64(200), l.Available(4))

	require.NoError(t, l.Reprice(4, "liability", 0))
	assert.Equal(t, int64(2000), l.Available(4))
	acct, ok := l.Account(4)
	require.True(t, ok)
	assert.Empty(t, acct.Commitments)

	// The next hand prices against the full balance again.
	require.NoError(t, l.Commit(4, 1800, "liability", "liability"))
}

func TestCommitExactLiability(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	require.NoError(t, l.Deposit(0, 2000))
	require.NoError(t, l.Commit(0, 200, "side game", "sg"))

	// 1800 available: exactly 1800 fits, 1801 does not.
	assert.ErrorIs(t, l.Commit(0, 1801, "liability", "liability"), ErrInsufficientAvailable)
	require.NoError(t, l.Commit(0, 1800, "liability", "liability"))
	assert.Equal(t, int64(0), l.Available(0))
}

func TestReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	require.NoError(t, l.Deposit(0, 1000))
	require.NoError(t, l.Commit(0, 400, "bet", "g1"))

	assert.Equal(t, int64(400), l.Release(0, "g1"))
	assert.Equal(t, int64(0), l.Release(0, "g1"))
	assert.Equal(t, int64(0), l.Release(0, "missing"))
	assert.Equal(t, int64(0), l.Release(9, "g1"))
	assert.Equal(t, int64(1000), l.Available(0))
}

func TestReprice(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	require.NoError(t, l.Deposit(0, 1000))
	require.NoError(t, l.Commit(0, 600, "liability", "liab"))

	require.NoError(t, l.Reprice(0, "liab", 300))
	assert.Equal(t, int64(700), l.Available(0))

	require.NoError(t, l.Reprice(0, "liab", 1000))
	assert.Equal(t, int64(0), l.Available(0))

	assert.ErrorIs(t, l.Reprice(0, "liab", 1001), ErrInsufficientAvailable)
	assert.ErrorIs(t, l.Reprice(0, "other", 10), ErrUnknownCommitment)
}

func TestSettleMovesOnlyCommittedFunds(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	require.NoError(t, l.Deposit(0, 1000))
	require.NoError(t, l.Deposit(1, 1000))
	require.NoError(t, l.Commit(0, 300, "color", "g1"))
	before := l.Total()

	results := l.Settle([]Transfer{
		{From: 0, To: 1, Amount: 500, Tag: "g1"},
	})
	require.Len(t, results, 1)
	assert.Equal(t, int64(300), results[0].Moved)
	assert.Equal(t, int64(200), results[0].Shortfall)

	assert.Equal(t, int64(700), l.Balance(0))
	assert.Equal(t, int64(700), l.Available(0))
	assert.Equal(t, int64(1300), l.Balance(1))
	assert.Equal(t, before, l.Total())
}

func TestSettleShortfallDoesNotFailBatch(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	require.NoError(t, l.Deposit(0, 100))
	require.NoError(t, l.Deposit(1, 1000))
	require.NoError(t, l.Commit(1, 400, "color", "g1"))

	results := l.Settle([]Transfer{
		{From: 0, To: 1, Amount: 50, Tag: "g1"},
		{From: 7, To: 1, Amount: 50, Tag: "g1"},
		{From: 1, To: 0, Amount: 250, Tag: "g1"},
	})
	require.Len(t, results, 3)
	assert.Equal(t, int64(0), results[0].Moved)
	assert.Equal(t, int64(50), results[1].Shortfall)
	assert.Equal(t, int64(250), results[2].Moved)
	assert.Equal(t, int64(350), l.Balance(0))
	assert.Equal(t, int64(150), l.Committed(1, "g1"))
}

func TestSettleUntaggedDrawsAcrossCommitments(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	require.NoError(t, l.Deposit(0, 1000))
	require.NoError(t, l.Commit(0, 100, "a", "a"))
	require.NoError(t, l.Commit(0, 100, "b", "b"))

	results := l.Settle([]Transfer{{From: 0, To: 1, Amount: 150}})
	assert.Equal(t, int64(150), results[0].Moved)
	assert.Equal(t, int64(0), l.Committed(0, "a"))
	assert.Equal(t, int64(50), l.Committed(0, "b"))
	assert.Equal(t, int64(150), l.Balance(1))
}

func TestWithdrawAndClose(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	require.NoError(t, l.Deposit(0, 1000))
	require.NoError(t, l.Commit(0, 400, "bet", "g1"))

	assert.ErrorIs(t, l.Withdraw(0, 601), ErrInsufficientAvailable)
	require.NoError(t, l.Withdraw(0, 600))
	assert.Equal(t, int64(400), l.Close(0))
	assert.Equal(t, int64(0), l.Total())
	assert.Empty(t, l.Seats())
}
