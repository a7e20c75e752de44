package rules

import (
	"github.com/lox/pokertable/poker"
)

// Rules is a variant with every optional capability resolved to either the
// variant's implementation or the standard hold'em default.
type Rules struct {
	variant Variant

	holeCards      func(Phase) int
	communityCards func(Phase) int
	nextPhase      func(Phase) (Phase, bool)
	skipBetting    func(Phase) bool
	evaluate       func(hole, board []poker.Card) poker.HandRank
	compare        func(a, b poker.HandRank) int
	canJoin        func(TableView, JoinRequest) error
	onRoundStart   func(RoundContext) RoundStartResult
	onPotWin       func(PotWinContext) PotWinResult
	validActions   func(SeatView, Phase, int64) []Action
	liability      func(LiabilityContext) int64
}

// Resolve binds a variant's capabilities.
func Resolve(v Variant) *Rules {
	r := &Rules{
		variant:        v,
		holeCards:      DefaultHoleCards,
		communityCards: DefaultCommunityCards,
		nextPhase:      DefaultNextPhase,
		skipBetting:    func(Phase) bool { return false },
		evaluate:       DefaultEvaluate,
		compare:        poker.CompareHands,
		canJoin:        func(TableView, JoinRequest) error { return nil },
		onRoundStart:   func(RoundContext) RoundStartResult { return RoundStartResult{} },
		onPotWin:       func(PotWinContext) PotWinResult { return PotWinResult{} },
		validActions:   DefaultValidActions,
	}

	if c, ok := v.(HoleCardCounter); ok {
		r.holeCards = c.HoleCards
	}
	if c, ok := v.(CommunityCardCounter); ok {
		r.communityCards = c.CommunityCards
	}
	if c, ok := v.(PhaseSequencer); ok {
		r.nextPhase = c.NextPhase
	}
	if c, ok := v.(PhaseSkipper); ok {
		r.skipBetting = c.SkipBetting
	}
	if c, ok := v.(HandEvaluator); ok {
		r.evaluate = c.EvaluateHand
	}
	if c, ok := v.(HandComparator); ok {
		r.compare = c.CompareHands
	}
	if c, ok := v.(JoinGate); ok {
		r.canJoin = c.CanJoin
	}
	if c, ok := v.(RoundStartHook); ok {
		r.onRoundStart = c.OnRoundStart
	}
	if c, ok := v.(PotWinHook); ok {
		r.onPotWin = c.OnPotWin
	}
	if c, ok := v.(ActionPolicy); ok {
		r.validActions = c.ValidActions
	}
	if c, ok := v.(LiabilityPricer); ok {
		r.liability = c.Liability
	}
	return r
}

func (r *Rules) Name() string { return r.variant.Name() }
func (r *Rules) Variant() Variant { return r.variant }
func (r *Rules) HoleCards(p Phase) int { return r.holeCards(p) }
func (r *Rules) CommunityCards(p Phase) int { return r.communityCards(p) }
func (r *Rules) NextPhase(p Phase) (Phase, bool) { return r.nextPhase(p) }
func (r *Rules) SkipBetting(p Phase) bool { return r.skipBetting(p) }

func (r *Rules) Evaluate(hole, board []poker.Card) poker.HandRank {
	return r.evaluate(hole, board)
}

func (r *Rules) Compare(a, b poker.HandRank) int {
	return r.compare(a, b)
}

func (r *Rules) CanJoin(t TableView, req JoinRequest) error {
	return r.canJoin(t, req)
}

func (r *Rules) OnRoundStart(ctx RoundContext) RoundStartResult {
	return r.onRoundStart(ctx)
}

func (r *Rules) OnPotWin(ctx PotWinContext) PotWinResult {
	return r.onPotWin(ctx)
}

func (r *Rules) ValidActions(seat SeatView, phase Phase, currentBet int64) []Action {
	return r.validActions(seat, phase, currentBet)
}

// PricesLiability reports whether the variant carries side-pot liabilities.
func (r *Rules) PricesLiability() bool {
	return r.liability != nil
}

// Liability prices a seat's exposure; zero for variants without liabilities.
func (r *Rules) Liability(ctx LiabilityContext) int64 {
	if r.liability == nil {
		return 0
	}
	return max(0, r.liability(ctx))
}

// DefaultHoleCards deals two hole cards at pre-flop.
func DefaultHoleCards(p Phase) int {
	if p == PreFlop {
		return 2
	}
	return 0
}

// DefaultCommunityCards reveals three at the flop and one each on turn and river.
func DefaultCommunityCards(p Phase) int {
	switch p {
	case Flop:
		return 3
	case Turn, River:
		return 1
	}
	return 0
}

// DefaultNextPhase walks the standard sequence and loops showdown back to
// pre-hand.
func DefaultNextPhase(p Phase) (Phase, bool) {
	switch p {
	case Lobby:
		return PreHand, true
	case PreHand:
		return PreFlop, true
	case PreFlop:
		return Flop, true
	case Flop:
		return Turn, true
	case Turn:
		return River, true
	case River:
		return Showdown, true
	case Showdown:
		return PreHand, true
	}
	return 0, false
}

// DefaultEvaluate ranks the best five cards of hole and board together.
func DefaultEvaluate(hole, board []poker.Card) poker.HandRank {
	h := poker.NewHand(hole...)
	for _, c := range board {
		h.AddCard(c)
	}
	return poker.Evaluate(h)
}

// DefaultValidActions derives legal actions from the seat's bet against the
// table's current bet. Fold is always legal; check only when the bets match;
// bet, raise and all-in whenever chips remain.
func DefaultValidActions(seat SeatView, _ Phase, currentBet int64) []Action {
	actions := []Action{Fold}
	if seat.Bet == currentBet {
		actions = append(actions, Check)
	} else if seat.Stack > 0 {
		actions = append(actions, Call)
	}
	if seat.Stack > 0 {
		if currentBet == 0 {
			actions = append(actions, Bet)
		} else if seat.Stack > currentBet-seat.Bet {
			actions = append(actions, Raise)
		}
		actions = append(actions, AllIn)
	}
	return actions
}
