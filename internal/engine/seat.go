package engine

import (
	"slices"

	"github.com/lox/pokertable/internal/rules"
	"github.com/lox/pokertable/poker"
)

// Player identifies who sits in a seat.
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Automated bool   `json:"automated,omitempty"`
}

// Seat is one occupied chair. Empty chairs are nil entries in the engine's
// fixed seat slice.
type Seat struct {
	Index  int
	Player Player
	Stack  int64

	Bet               int64
	TotalContribution int64
	Folded            bool
	Acted             bool
	AllIn             bool
	DealtIn           bool
	HoleCards         []poker.Card
	LastAction        rules.Action

	// StandPending seats leave when the current hand ends.
	StandPending bool
	// Disconnected seats were folded by an immediate stand mid-hand.
	Disconnected bool
}

func (s *Seat) resetForHand() {
	s.Bet = 0
	s.TotalContribution = 0
	s.Folded = false
	s.Acted = false
	s.AllIn = false
	s.HoleCards = nil
	s.LastAction = ""
	s.DealtIn = s.Stack > 0
}

// inHand reports a seat still contesting the pot.
func (s *Seat) inHand() bool {
	return s.DealtIn && !s.Folded
}

// canAct reports a seat that still makes betting decisions.
func (s *Seat) canAct() bool {
	return s.inHand() && !s.AllIn
}

// contribute moves up to amount from the stack into the pot, capped at the
// stack. Bets count toward the round's matching amount; antes do not.
func (s *Seat) contribute(amount int64, isBet bool) int64 {
	amount = min(amount, s.Stack)
	if amount <= 0 {
		return 0
	}
	s.Stack -= amount
	s.TotalContribution += amount
	if isBet {
		s.Bet += amount
	}
	if s.Stack == 0 {
		s.AllIn = true
	}
	return amount
}

func (s *Seat) view() rules.SeatView {
	return rules.SeatView{
		Index:             s.Index,
		PlayerID:          s.Player.ID,
		Automated:         s.Player.Automated,
		Stack:             s.Stack,
		Bet:               s.Bet,
		TotalContribution: s.TotalContribution,
		Folded:            s.Folded,
		AllIn:             s.AllIn,
		DealtIn:           s.DealtIn,
		HoleCards:         slices.Clone(s.HoleCards),
	}
}
