package engine

import (
	"context"
	"slices"
	"sort"

	"github.com/lox/pokertable/internal/ledger"
	"github.com/lox/pokertable/internal/rules"
	"github.com/lox/pokertable/internal/sidegame"
	"github.com/lox/pokertable/poker"
)

// Pot is one layer of the main pot. Seats are eligible for every layer up
// to what they contributed.
type Pot struct {
	Amount   int64 `json:"amount"`
	Eligible []int `json:"eligible"`
}

// PotAward is how one pot was paid out.
type PotAward struct {
	Pot
	Winners []int         `json:"winners"`
	Shares  map[int]int64 `json:"shares"`
}

// HandResult summarises a finished hand.
type HandResult struct {
	HandID     string                 `json:"handId"`
	HandNumber int                    `json:"handNumber"`
	FoldedOut  bool                   `json:"foldedOut"`
	Aborted    bool                   `json:"aborted,omitempty"`
	Board      []poker.Card           `json:"board"`
	Pots       []PotAward             `json:"pots"`
	Ranks      map[int]poker.HandRank `json:"ranks,omitempty"`
	Transfers  []ledger.SettleResult  `json:"transfers,omitempty"`
	SideGames  []sidegame.Settlement  `json:"sideGames,omitempty"`
	Messages   []string               `json:"messages,omitempty"`
	EndRound   bool                   `json:"endRound,omitempty"`
	Winnings   map[int]int64          `json:"winnings"`
}

// pots layers the pot by contribution level. Each level is set by a
// contesting seat's total contribution; every seat, folded or not, pays into
// each layer up to its own contribution, and only contesting seats that
// reached a layer are eligible for it. Chips above the highest contesting
// level join the top layer.
func (e *Engine) pots() []Pot {
	var levels []int64
	for _, s := range e.seats {
		if s != nil && s.inHand() && s.TotalContribution > 0 && !slices.Contains(levels, s.TotalContribution) {
			levels = append(levels, s.TotalContribution)
		}
	}
	slices.Sort(levels)

	var pots []Pot
	var prev int64
	for i, level := range levels {
		top := i == len(levels)-1
		var p Pot
		for _, s := range e.seats {
			if s == nil {
				continue
			}
			upper := min(s.TotalContribution, level)
			if top {
				upper = s.TotalContribution
			}
			if share := upper - min(s.TotalContribution, prev); share > 0 {
				p.Amount += share
			}
			if s.inHand() && s.TotalContribution >= level {
				p.Eligible = append(p.Eligible, s.Index)
			}
		}
		if p.Amount > 0 {
			pots = append(pots, p)
		}
		prev = level
	}
	return pots
}

// finishHand pays out the pot. A lone remaining seat takes everything
// without a showdown; otherwise each layer goes to the best eligible hands,
// split evenly with odd chips dealt one at a time clockwise from the button.
// Variant pot-win hooks and hand-complete side games run afterwards, then
// liabilities are released and queued stand-ups are honoured.
func (e *Engine) finishHand(ctx context.Context) {
	contenders := e.count((*Seat).inHand)
	if contenders == 0 {
		e.abortHand(ctx, errNoContenders)
		return
	}

	res := &HandResult{
		HandID:     e.handID,
		HandNumber: e.handNumber,
		Board:      slices.Clone(e.board),
		FoldedOut:  contenders == 1,
		Winnings:   make(map[int]int64),
	}

	var pots []Pot
	if res.FoldedOut {
		winner := e.next(-1, (*Seat).inHand)
		pots = []Pot{{Amount: e.pot, Eligible: []int{winner}}}
	} else {
		pots = e.pots()
		res.Ranks = make(map[int]poker.HandRank)
		for _, s := range e.seats {
			if s != nil && s.inHand() {
				res.Ranks[s.Index] = e.rules.Evaluate(s.HoleCards, e.board)
			}
		}
	}

	var paid int64
	for _, p := range pots {
		paid += p.Amount
	}
	if paid != e.pot {
		e.logger.Error("Pot layers do not match pot", "hand", e.handID, "pot", e.pot, "layers", paid)
		e.abortHand(ctx, errPotMismatch)
		return
	}

	var transfers []ledger.Transfer
	for i, p := range pots {
		award := PotAward{Pot: p, Winners: e.bestHands(p.Eligible, res.Ranks), Shares: make(map[int]int64)}
		if len(award.Winners) == 0 {
			e.abortHand(ctx, errNoContenders)
			return
		}
		e.split(award)
		for seat, amount := range award.Shares {
			e.seats[seat].Stack += amount
			res.Winnings[seat] += amount
		}
		res.Pots = append(res.Pots, award)

		hook := e.rules.OnPotWin(rules.PotWinContext{
			PotIndex:  i,
			Amount:    p.Amount,
			Winners:   award.Winners,
			FoldedOut: res.FoldedOut,
			Board:     res.Board,
			Seats:     e.views(),
		})
		transfers = append(transfers, hook.Transfers...)
		if hook.CustomMessage != "" {
			res.Messages = append(res.Messages, hook.CustomMessage)
		}
		res.EndRound = res.EndRound || hook.ShouldEndRound
	}
	e.pot = 0

	if len(transfers) > 0 {
		res.Transfers = e.ledger.Settle(transfers)
	}
	e.ledger.ReleaseAll(rules.LiabilityTag)

	res.SideGames = e.sideGames.ResolveHandComplete(sidegame.HandResult{
		HandNumber: e.handNumber,
		Board:      res.Board,
		Ranks:      res.Ranks,
		Compare:    e.rules.Compare,
	})

	e.phase = rules.Showdown
	e.turn = -1
	e.locked = false
	e.lastResult = res
	e.logger.Info("Hand complete", "hand", e.handID, "folded_out", res.FoldedOut, "pots", len(res.Pots), "winnings", res.Winnings)

	e.housekeeping(ctx)
}

// bestHands returns the eligible seats holding the best hand. Without
// ranks every eligible seat wins, which only happens on a fold-out.
func (e *Engine) bestHands(eligible []int, ranks map[int]poker.HandRank) []int {
	if ranks == nil {
		return slices.Clone(eligible)
	}
	var winners []int
	var best poker.HandRank
	for _, seat := range eligible {
		rank := ranks[seat]
		if len(winners) == 0 {
			winners, best = []int{seat}, rank
			continue
		}
		switch cmp := e.rules.Compare(rank, best); {
		case cmp > 0:
			winners, best = []int{seat}, rank
		case cmp == 0:
			winners = append(winners, seat)
		}
	}
	return winners
}

// split divides a pot evenly. Odd chips go one each to winners in seat
// order starting left of the button.
func (e *Engine) split(a PotAward) {
	n := int64(len(a.Winners))
	share := a.Amount / n
	for _, w := range a.Winners {
		a.Shares[w] = share
	}

	remainder := a.Amount % n
	order := slices.Clone(a.Winners)
	sort.Slice(order, func(i, j int) bool {
		return e.clockwiseFromButton(order[i]) < e.clockwiseFromButton(order[j])
	})
	for i := int64(0); i < remainder; i++ {
		a.Shares[order[i]]++
	}
}

func (e *Engine) clockwiseFromButton(seat int) int {
	n := len(e.seats)
	d := (seat - e.dealer + n) % n
	if d == 0 {
		d = n
	}
	return d
}

// housekeeping runs between hands: queued stand-ups leave and disconnected
// seats are cleared.
func (e *Engine) housekeeping(ctx context.Context) {
	for _, s := range e.seats {
		if s != nil && s.StandPending {
			_ = e.removeSeat(ctx, s)
		}
	}
}

// abortHand voids a hand the engine cannot finish. Every contribution goes
// back to its seat, liabilities are released and the table returns to the
// lobby.
func (e *Engine) abortHand(ctx context.Context, err error) {
	e.logger.Error("Hand aborted", "hand", e.handID, "phase", e.phase, "error", err)

	for _, s := range e.seats {
		if s == nil {
			continue
		}
		s.Stack += s.TotalContribution
		e.pot -= s.TotalContribution
		s.TotalContribution = 0
		s.Bet = 0
	}
	if e.pot != 0 {
		e.logger.Error("Pot not fully refunded", "hand", e.handID, "remaining", e.pot)
	}
	e.pot = 0
	e.ledger.ReleaseAll(rules.LiabilityTag)

	e.phase = rules.Lobby
	e.turn = -1
	e.locked = false
	e.lastResult = &HandResult{HandID: e.handID, HandNumber: e.handNumber, Aborted: true, Messages: []string{err.Error()}}
	e.housekeeping(ctx)
}

// Abort ends a hand that a failed command left mid-flight: contributions
// are refunded and the table returns to the lobby. Between hands, and once
// a hand has been settled, it does nothing.
func (e *Engine) Abort(ctx context.Context, cause error) {
	if e.phase == rules.Lobby || e.phase == rules.Showdown {
		return
	}
	e.abortHand(ctx, cause)
}

// ReturnToLobby parks the table between hands.
func (e *Engine) ReturnToLobby() {
	if e.HandInProgress() {
		return
	}
	e.phase = rules.Lobby
	e.turn = -1
}
