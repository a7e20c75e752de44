package engine

import (
	"maps"
	"slices"

	"github.com/lox/pokertable/internal/ledger"
	"github.com/lox/pokertable/internal/rules"
	"github.com/lox/pokertable/internal/sidegame"
	"github.com/lox/pokertable/poker"
)

// SeatSnapshot is one chair in a Snapshot.
type SeatSnapshot struct {
	Index             int             `json:"index"`
	Empty             bool            `json:"empty"`
	PlayerID          string          `json:"playerId,omitempty"`
	Name              string          `json:"name,omitempty"`
	Automated         bool            `json:"automated,omitempty"`
	Stack             int64           `json:"stack"`
	Bet               int64           `json:"bet"`
	TotalContribution int64           `json:"totalContribution"`
	Folded            bool            `json:"folded"`
	Acted             bool            `json:"acted"`
	AllIn             bool            `json:"allIn"`
	DealtIn           bool            `json:"dealtIn"`
	HoleCards         []poker.Card    `json:"holeCards,omitempty"`
	LastAction        rules.Action    `json:"lastAction,omitempty"`
	StandPending      bool            `json:"standPending,omitempty"`
	Side              *ledger.Account `json:"side,omitempty"`
}

// Snapshot is the complete read-only state of a table. Every broadcast is a
// full replacement.
type Snapshot struct {
	Table               string               `json:"table"`
	Variant             string               `json:"variant"`
	HandID              string               `json:"handId,omitempty"`
	HandNumber          int                  `json:"handNumber"`
	Phase               rules.Phase          `json:"phase"`
	Seats               []SeatSnapshot       `json:"seats"`
	Pot                 int64                `json:"pot"`
	Pots                []Pot                `json:"pots,omitempty"`
	CurrentBet          int64                `json:"currentBet"`
	MinRaiseTo          int64                `json:"minRaiseTo"`
	SmallBlind          int64                `json:"smallBlind"`
	BigBlind            int64                `json:"bigBlind"`
	CommunityCards      []poker.Card         `json:"communityCards"`
	Dealer              int                  `json:"dealer"`
	CurrentTurnPlayerID string               `json:"currentTurnPlayerId,omitempty"`
	TurnEndsAtMs        int64                `json:"turnEndsAtMs,omitempty"`
	ActiveSideGames     []*sidegame.SideGame `json:"activeSideGames,omitempty"`
	Locked              bool                 `json:"locked,omitempty"`
	CustomData          map[string]any       `json:"customData,omitempty"`
	LastResult          *HandResult          `json:"lastResult,omitempty"`
}

// Snapshot copies the table state. Hole cards of every seat are included;
// use ForViewer before sending it to a player.
func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{
		Table:               e.cfg.Name,
		Variant:             e.rules.Name(),
		HandID:              e.handID,
		HandNumber:          e.handNumber,
		Phase:               e.phase,
		Pot:                 e.pot,
		CurrentBet:          e.currentBet,
		MinRaiseTo:          e.minRaiseTo(),
		SmallBlind:          e.smallBlind,
		BigBlind:            e.bigBlind,
		CommunityCards:      slices.Clone(e.board),
		Dealer:              e.dealer,
		CurrentTurnPlayerID: e.CurrentTurnPlayerID(),
		ActiveSideGames:     e.sideGames.Games(),
		Locked:              e.locked,
		CustomData:          maps.Clone(e.customData),
		LastResult:          e.lastResult,
	}
	if e.HandInProgress() {
		snap.Pots = e.pots()
	}

	snap.Seats = make([]SeatSnapshot, len(e.seats))
	for i, s := range e.seats {
		if s == nil {
			snap.Seats[i] = SeatSnapshot{Index: i, Empty: true}
			continue
		}
		ss := SeatSnapshot{
			Index:             i,
			PlayerID:          s.Player.ID,
			Name:              s.Player.Name,
			Automated:         s.Player.Automated,
			Stack:             s.Stack,
			Bet:               s.Bet,
			TotalContribution: s.TotalContribution,
			Folded:            s.Folded,
			Acted:             s.Acted,
			AllIn:             s.AllIn,
			DealtIn:           s.DealtIn,
			HoleCards:         slices.Clone(s.HoleCards),
			LastAction:        s.LastAction,
			StandPending:      s.StandPending,
		}
		if acct, ok := e.ledger.Account(i); ok {
			ss.Side = &acct
		}
		snap.Seats[i] = ss
	}
	return snap
}

// ForViewer hides hole cards the viewer may not see. A player sees their
// own cards, and everyone sees the cards of seats that reached a showdown.
func (s Snapshot) ForViewer(playerID string) Snapshot {
	out := s
	out.Seats = slices.Clone(s.Seats)
	shown := s.Phase == rules.Showdown && s.LastResult != nil && !s.LastResult.FoldedOut
	for i := range out.Seats {
		seat := &out.Seats[i]
		if seat.PlayerID == playerID {
			continue
		}
		if shown && seat.DealtIn && !seat.Folded {
			continue
		}
		seat.HoleCards = nil
	}
	return out
}

// Seat returns the seat a player occupies.
func (s Snapshot) Seat(playerID string) (SeatSnapshot, bool) {
	for _, seat := range s.Seats {
		if seat.PlayerID == playerID {
			return seat, true
		}
	}
	return SeatSnapshot{}, false
}
