package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokertable/internal/ledger"
	"github.com/lox/pokertable/poker"
)

// shortDeck ends the hand after the flop and ranks hands in reverse.
type shortDeck struct{}

func (shortDeck) Name() string { return "short" }

func (shortDeck) NextPhase(p Phase) (Phase, bool) {
	switch p {
	case PreHand:
		return PreFlop, true
	case PreFlop:
		return Flop, true
	case Flop:
		return Showdown, true
	}
	return 0, false
}

func (shortDeck) CompareHands(a, b poker.HandRank) int {
	return poker.CompareHands(b, a)
}

func TestResolveDefaults(t *testing.T) {
	t.Parallel()

	r := Resolve(Holdem{})
	assert.Equal(t, HoldemName, r.Name())
	assert.Equal(t, 2, r.HoleCards(PreFlop))
	assert.Equal(t, 0, r.HoleCards(Flop))
	assert.Equal(t, 3, r.CommunityCards(Flop))
	assert.Equal(t, 1, r.CommunityCards(River))
	assert.False(t, r.SkipBetting(PreFlop))
	assert.False(t, r.PricesLiability())
	assert.NoError(t, r.CanJoin(TableView{}, JoinRequest{}))

	next, ok := r.NextPhase(River)
	require.True(t, ok)
	assert.Equal(t, Showdown, next)
	next, ok = r.NextPhase(Showdown)
	require.True(t, ok)
	assert.Equal(t, PreHand, next)
}

func TestResolveOverrides(t *testing.T) {
	t.Parallel()

	r := Resolve(shortDeck{})
	next, ok := r.NextPhase(Flop)
	require.True(t, ok)
	assert.Equal(t, Showdown, next)
	_, ok = r.NextPhase(Turn)
	assert.False(t, ok)

	strong := poker.EvaluateCards(poker.MustParseCards("As Ks Qs Js Ts")...)
	weak := poker.EvaluateCards(poker.MustParseCards("2c 5d 9h Js Kc")...)
	assert.Equal(t, 1, r.Compare(weak, strong))
}

func TestDefaultValidActions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		seat       SeatView
		currentBet int64
		want       []Action
	}{
		{"unopened", SeatView{Stack: 100}, 0, []Action{Fold, Check, Bet, AllIn}},
		{"facing bet", SeatView{Stack: 100, Bet: 10}, 40, []Action{Fold, Call, Raise, AllIn}},
		{"big blind option", SeatView{Stack: 100, Bet: 20}, 20, []Action{Fold, Check, Raise, AllIn}},
		{"cannot cover raise", SeatView{Stack: 30}, 40, []Action{Fold, Call, AllIn}},
		{"no chips", SeatView{Stack: 0, Bet: 40}, 40, []Action{Fold, Check}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DefaultValidActions(tt.seat, PreFlop, tt.currentBet))
		})
	}
}

func TestOmahaUsesExactlyTwoHoleCards(t *testing.T) {
	t.Parallel()

	r := Resolve(Omaha{})
	assert.Equal(t, 4, r.HoleCards(PreFlop))

	// Four spades on board and one in hand is no flush in omaha.
	hole := poker.MustParseCards("As Kd 7c 2h")
	board := poker.MustParseCards("Qs Js 9s 4s 3d")
	rank := r.Evaluate(hole, board)
	assert.NotEqual(t, poker.Flush, rank.Type())
	assert.Equal(t, poker.Flush, DefaultEvaluate(hole, board).Type())

	// Two spades in hand make the nut flush.
	hole = poker.MustParseCards("As Ks 7c 2h")
	assert.Equal(t, poker.Flush, r.Evaluate(hole, board).Type())
}

func TestBombPotRoundStart(t *testing.T) {
	t.Parallel()

	r := Resolve(BombPot{})
	assert.True(t, r.SkipBetting(PreFlop))
	assert.False(t, r.SkipBetting(Flop))

	res := r.OnRoundStart(RoundContext{SmallBlind: 5, BigBlind: 10})
	assert.Equal(t, int64(20), res.Ante)
	assert.True(t, res.SkipBlinds)
	assert.True(t, res.LockTable)
	assert.Equal(t, true, res.CustomData["bomb_pot"])

	res = Resolve(BombPot{Ante: 50}).OnRoundStart(RoundContext{BigBlind: 10})
	assert.Equal(t, int64(50), res.Ante)
}

func TestDeuceSevenLiability(t *testing.T) {
	t.Parallel()

	r := Resolve(NewDeuceSeven(600))
	require.True(t, r.PricesLiability())

	seat := SeatView{Index: 1, DealtIn: true}
	assert.Equal(t, int64(1800), r.Liability(LiabilityContext{Seat: seat, Opponents: 3}))
	assert.Equal(t, int64(2400), r.Liability(LiabilityContext{Seat: seat, Opponents: 8}))

	seat.HoleCards = poker.MustParseCards("7h 2c")
	assert.Equal(t, int64(0), r.Liability(LiabilityContext{Seat: seat, Opponents: 3}))

	seat.HoleCards = poker.MustParseCards("7h 2h")
	assert.Equal(t, int64(1800), r.Liability(LiabilityContext{Seat: seat, Opponents: 3}), "suited seven-deuce does not count")

	assert.Equal(t, int64(0), r.Liability(LiabilityContext{Seat: SeatView{}, Opponents: 3}))
}

func TestDeuceSevenJoinGate(t *testing.T) {
	t.Parallel()

	r := Resolve(NewDeuceSeven(600))
	assert.ErrorIs(t, r.CanJoin(TableView{}, JoinRequest{SideDeposit: 599}), ErrSideDepositRequired)
	assert.NoError(t, r.CanJoin(TableView{}, JoinRequest{SideDeposit: 600}))
	assert.NoError(t, r.CanJoin(TableView{}, JoinRequest{Automated: true}))
}

func TestDeuceSevenPotWinTransfers(t *testing.T) {
	t.Parallel()

	r := Resolve(NewDeuceSeven(600))
	seats := []SeatView{
		{Index: 0, DealtIn: true, HoleCards: poker.MustParseCards("7d 2s")},
		{Index: 1, DealtIn: true, HoleCards: poker.MustParseCards("Ah Ad")},
		{Index: 2, DealtIn: false},
		{Index: 3, DealtIn: true, Folded: true, HoleCards: poker.MustParseCards("Kc Qc")},
	}

	res := r.OnPotWin(PotWinContext{PotIndex: 0, Winners: []int{0}, Seats: seats})
	assert.Equal(t, []ledger.Transfer{
		{From: 1, To: 0, Amount: 600, Tag: LiabilityTag},
		{From: 3, To: 0, Amount: 600, Tag: LiabilityTag},
	}, res.Transfers)
	assert.NotEmpty(t, res.CustomMessage)

	assert.Empty(t, r.OnPotWin(PotWinContext{PotIndex: 1, Winners: []int{0}, Seats: seats}).Transfers)
	assert.Empty(t, r.OnPotWin(PotWinContext{PotIndex: 0, Winners: []int{1}, Seats: seats}).Transfers)
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	assert.Equal(t, []string{BombPotName, DeuceSevenName, HoldemName, OmahaName}, reg.Names())

	r, err := reg.Resolve(DeuceSevenName, Options{Bounty: 250})
	require.NoError(t, err)
	assert.Equal(t, int64(250), r.Variant().(DeuceSeven).Bounty)

	_, err = reg.Resolve("razz", Options{})
	assert.ErrorIs(t, err, ErrUnknownVariant)

	reg.Register("short", func(Options) Variant { return shortDeck{} })
	r, err = reg.Resolve("short", Options{})
	require.NoError(t, err)
	assert.Equal(t, "short", r.Name())
}

func TestParseAction(t *testing.T) {
	t.Parallel()

	a, err := ParseAction("all-in")
	require.NoError(t, err)
	assert.Equal(t, AllIn, a)
	_, err = ParseAction("dance")
	assert.Error(t, err)
}
