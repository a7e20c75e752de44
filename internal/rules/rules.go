// Package rules defines the capabilities a game variant may supply to the
// hand engine. Every capability is an optional interface; Rules resolves
// them once against defaults so the engine never type-asserts a variant per call.
package rules

import (
	"github.com/lox/pokertable/internal/ledger"
	"github.com/lox/pokertable/poker"
)

// Variant is the only capability every variant must implement.
type Variant interface {
	Name() string
}

type HoleCardCounter interface {
	HoleCards(phase Phase) int
}

type CommunityCardCounter interface {
	CommunityCards(phase Phase) int
}

// PhaseSequencer picks the phase after current. Returning false means the
// variant has no next phase, which the engine treats as a structural error.
type PhaseSequencer interface {
	NextPhase(current Phase) (Phase, bool)
}

// PhaseSkipper reports phases whose cards are dealt but whose betting round
// is skipped.
type PhaseSkipper interface {
	SkipBetting(phase Phase) bool
}

type HandEvaluator interface {
	EvaluateHand(hole, board []poker.Card) poker.HandRank
}

// HandComparator returns 1 when a beats b, -1 when b beats a and 0 on a tie.
type HandComparator interface {
	CompareHands(a, b poker.HandRank) int
}

type JoinGate interface {
	CanJoin(table TableView, req JoinRequest) error
}

type RoundStartHook interface {
	OnRoundStart(ctx RoundContext) RoundStartResult
}

type PotWinHook interface {
	OnPotWin(ctx PotWinContext) PotWinResult
}

type ActionPolicy interface {
	ValidActions(seat SeatView, phase Phase, currentBet int64) []Action
}

// LiabilityPricer prices a seat's worst-case side-pot exposure. The engine
// commits the price before blinds and re-prices after every deal.
type LiabilityPricer interface {
	Liability(ctx LiabilityContext) int64
}

// SeatView is the read-only part of a seat a variant may inspect.
type SeatView struct {
	Index             int
	PlayerID          string
	Automated         bool
	Stack             int64
	Bet               int64
	TotalContribution int64
	Folded            bool
	AllIn             bool
	DealtIn           bool
	HoleCards         []poker.Card
}

// TableView describes a table to a join gate.
type TableView struct {
	Variant  string
	Seats    int
	Occupied int
	Phase    Phase
}

// JoinRequest describes a player asking to sit.
type JoinRequest struct {
	PlayerID    string
	Automated   bool
	BuyIn       int64
	SideDeposit int64
}

// RoundContext is passed to OnRoundStart after seats are reset and before
// any money moves.
type RoundContext struct {
	HandNumber int
	Dealer     int
	SmallBlind int64
	BigBlind   int64
	Seats      []SeatView
}

// RoundStartResult lets a variant shape the coming hand. Ante is collected
// from every dealt-in seat before blinds. LockTable refuses new seats until
// the hand ends.
type RoundStartResult struct {
	CustomData map[string]any
	LockTable  bool
	Ante       int64
	SkipBlinds bool
}

// PotWinContext describes one awarded pot.
type PotWinContext struct {
	PotIndex  int
	Amount    int64
	Winners   []int
	FoldedOut bool
	Board     []poker.Card
	Seats     []SeatView
}

// PotWinResult carries side-pot transfers to settle and an optional message.
// ShouldEndRound returns the table to the lobby once the hand finishes.
type PotWinResult struct {
	ShouldEndRound bool
	CustomMessage  string
	Transfers      []ledger.Transfer
}

// LiabilityContext is what a pricer sees of the hand so far.
type LiabilityContext struct {
	Seat      SeatView
	Opponents int
	Phase     Phase
	Board     []poker.Card
}
