package engine_test

import (
	"fmt"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokertable/internal/bankroll"
	"github.com/lox/pokertable/internal/engine"
	"github.com/lox/pokertable/internal/rules"
	"github.com/lox/pokertable/poker"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// newEngine builds a table whose every hand deals from the stacked cards,
// seat by seat from seat 0, then the flop, turn and river.
func newEngine(t *testing.T, cfg engine.Config, stacked string, opts ...engine.Option) *engine.Engine {
	t.Helper()
	if cfg.Name == "" {
		cfg.Name = "test"
	}
	if cfg.SmallBlind == 0 {
		cfg.SmallBlind, cfg.BigBlind = 5, 10
	}
	base := []engine.Option{
		engine.WithLogger(quietLogger()),
		engine.WithClock(quartz.NewMock(t)),
	}
	if stacked != "" {
		cards := poker.MustParseCards(stacked)
		base = append(base, engine.WithDeckFactory(func() *poker.Deck {
			return poker.NewStackedDeck(cards...)
		}))
	}
	e, err := engine.New(cfg, append(base, opts...)...)
	require.NoError(t, err)
	return e
}

// seatPlayers seats p0..pN-1 in seats 0..N-1 with the given stacks.
func seatPlayers(t *testing.T, e *engine.Engine, stacks ...int64) {
	t.Helper()
	for i, stack := range stacks {
		idx := i
		_, err := e.SitPlayer(t.Context(), engine.Player{ID: player(i)}, &idx, stack, 0)
		require.NoError(t, err)
	}
}

func player(i int) string { return fmt.Sprintf("p%d", i) }

func act(t *testing.T, e *engine.Engine, playerID string, action rules.Action, amount int64) engine.ActionResult {
	t.Helper()
	res, err := e.HandlePlayerAction(t.Context(), playerID, action, amount)
	require.NoError(t, err, "%s %s %d", playerID, action, amount)
	return res
}

// checkDown checks every remaining street until the hand ends.
func checkDown(t *testing.T, e *engine.Engine) engine.ActionResult {
	t.Helper()
	var res engine.ActionResult
	for e.HandInProgress() {
		res = act(t, e, e.CurrentTurnPlayerID(), rules.Check, 0)
	}
	return res
}

func stack(t *testing.T, e *engine.Engine, playerID string) int64 {
	t.Helper()
	seat, ok := e.Snapshot().Seat(playerID)
	require.True(t, ok, "%s not seated", playerID)
	return seat.Stack
}

func TestNewRejectsBadConfig(t *testing.T) {
	t.Parallel()

	_, err := engine.New(engine.Config{Seats: 1, SmallBlind: 5, BigBlind: 10})
	assert.Error(t, err)

	_, err = engine.New(engine.Config{Seats: 6, SmallBlind: 10, BigBlind: 5})
	assert.Error(t, err)

	_, err = engine.New(engine.Config{Seats: 6, SmallBlind: 5, BigBlind: 10, Variant: "pineapple"}, engine.WithLogger(quietLogger()))
	assert.ErrorIs(t, err, rules.ErrUnknownVariant)
}

func TestSitPlayerErrors(t *testing.T) {
	t.Parallel()

	e := newEngine(t, engine.Config{Seats: 2, MinBuyIn: 100, MaxBuyIn: 1000}, "")
	ctx := t.Context()

	seat := 0
	_, err := e.SitPlayer(ctx, engine.Player{ID: "a"}, &seat, 500, 0)
	require.NoError(t, err)

	_, err = e.SitPlayer(ctx, engine.Player{ID: "a"}, nil, 500, 0)
	assert.ErrorIs(t, err, engine.ErrAlreadySeated)

	_, err = e.SitPlayer(ctx, engine.Player{ID: "b"}, &seat, 500, 0)
	assert.ErrorIs(t, err, engine.ErrSeatTaken)

	bad := 7
	_, err = e.SitPlayer(ctx, engine.Player{ID: "b"}, &bad, 500, 0)
	assert.ErrorIs(t, err, engine.ErrInvalidSeat)

	_, err = e.SitPlayer(ctx, engine.Player{ID: "b"}, nil, 50, 0)
	assert.ErrorIs(t, err, engine.ErrInvalidBuyIn)

	_, err = e.SitPlayer(ctx, engine.Player{ID: "b"}, nil, 5000, 0)
	assert.ErrorIs(t, err, engine.ErrInvalidBuyIn)

	idx, err := e.SitPlayer(ctx, engine.Player{ID: "b"}, nil, 500, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	_, err = e.SitPlayer(ctx, engine.Player{ID: "c"}, nil, 500, 0)
	assert.ErrorIs(t, err, engine.ErrTableFull)

	assert.ErrorIs(t, e.StandPlayer(ctx, "c", false), engine.ErrNotSeated)
}

func TestSitPlayerDebitsBankroll(t *testing.T) {
	t.Parallel()

	bank := bankroll.NewMemory(map[string]int64{"a": 1000})
	e := newEngine(t, engine.Config{Seats: 2}, "", engine.WithBankroll(bank))
	ctx := t.Context()

	_, err := e.SitPlayer(ctx, engine.Player{ID: "a"}, nil, 1500, 0)
	assert.ErrorIs(t, err, bankroll.ErrInsufficientFunds)
	_, ok := e.SeatIndex("a")
	assert.False(t, ok, "failed debit must not seat the player")

	_, err = e.SitPlayer(ctx, engine.Player{ID: "a"}, nil, 400, 0)
	require.NoError(t, err)
	balance, err := bank.Balance(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(600), balance)

	require.NoError(t, e.StandPlayer(ctx, "a", false))
	balance, err = bank.Balance(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance)
}

func TestStartHandNeedsTwoFundedSeats(t *testing.T) {
	t.Parallel()

	e := newEngine(t, engine.Config{Seats: 6}, "")
	seatPlayers(t, e, 1000)

	err := e.StartHand(t.Context(), engine.BlindLevel{})
	assert.ErrorIs(t, err, engine.ErrNotEnoughPlayers)
	assert.Equal(t, rules.Lobby, e.Phase())
	assert.Equal(t, 0, e.HandNumber())
}

func TestStartHandPostsBlindsAndDeals(t *testing.T) {
	t.Parallel()

	e := newEngine(t, engine.Config{Seats: 6}, "As Ks Qh Jh 2c 3d")
	seatPlayers(t, e, 1000, 1000, 1000)

	require.NoError(t, e.StartHand(t.Context(), engine.BlindLevel{}))

	snap := e.Snapshot()
	assert.Equal(t, rules.PreFlop, snap.Phase)
	assert.Equal(t, 0, snap.Dealer)
	assert.Equal(t, int64(15), snap.Pot)
	assert.Equal(t, int64(10), snap.CurrentBet)
	assert.Equal(t, int64(5), snap.Seats[1].Bet)
	assert.Equal(t, int64(10), snap.Seats[2].Bet)
	assert.Equal(t, "p0", snap.CurrentTurnPlayerID, "first to act sits after the big blind")
	assert.Equal(t, poker.MustParseCards("As Ks"), snap.Seats[0].HoleCards)
	assert.Equal(t, poker.MustParseCards("2c 3d"), snap.Seats[2].HoleCards)
	assert.NotEmpty(t, snap.HandID)

	assert.ErrorIs(t, e.StartHand(t.Context(), engine.BlindLevel{}), engine.ErrHandInProgress)
}
