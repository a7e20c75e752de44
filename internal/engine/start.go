package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/lox/pokertable/internal/gameid"
	"github.com/lox/pokertable/internal/rules"
)

// StartHand begins the next hand at level. It needs two funded seats.
// Side-game and liability commitments are locked before any blind or ante
// moves; seats that cannot cover them are handled by liquidity policy and
// occupancy is checked again before dealing.
func (e *Engine) StartHand(ctx context.Context, level BlindLevel) error {
	if e.HandInProgress() {
		return ErrHandInProgress
	}

	if level.Variant != "" && level.Variant != e.rules.Name() {
		r, err := e.variants.Resolve(level.Variant, level.Options)
		if err != nil {
			return err
		}
		e.logger.Info("Variant changed", "from", e.rules.Name(), "to", r.Name())
		e.rules = r
	}
	if level.SmallBlind > 0 && level.BigBlind >= level.SmallBlind {
		e.smallBlind, e.bigBlind = level.SmallBlind, level.BigBlind
	}

	if e.FundedSeats() < 2 {
		return ErrNotEnoughPlayers
	}

	for _, s := range e.seats {
		if s != nil {
			s.resetForHand()
		}
	}
	e.board = nil
	e.pot = 0
	e.currentBet = 0
	e.minRaise = e.bigBlind
	e.turn = -1
	e.customData = nil
	e.locked = false

	e.handNumber++
	e.handID = e.ids.New(gameid.PrefixHand)
	e.phase = rules.PreHand
	logger := e.logger.With("hand", e.handID)

	e.sideGames.LockForHand(e.handNumber)
	if err := e.lockLiabilities(ctx); err != nil {
		e.ledger.ReleaseAll(rules.LiabilityTag)
		e.phase = rules.Lobby
		return err
	}
	if e.count((*Seat).inHand) < 2 {
		e.ledger.ReleaseAll(rules.LiabilityTag)
		e.phase = rules.Lobby
		return ErrNotEnoughPlayers
	}

	e.dealer = e.next(e.dealer, (*Seat).inHand)

	start := e.rules.OnRoundStart(rules.RoundContext{
		HandNumber: e.handNumber,
		Dealer:     e.dealer,
		SmallBlind: e.smallBlind,
		BigBlind:   e.bigBlind,
		Seats:      e.views(),
	})
	e.customData = start.CustomData
	e.locked = start.LockTable

	if start.Ante > 0 {
		for _, s := range e.seats {
			if s != nil && s.inHand() {
				e.pot += s.contribute(start.Ante, false)
			}
		}
	}

	firstActor := e.dealer
	if !start.SkipBlinds {
		firstActor = e.postBlinds()
	}

	e.deck = e.newDeck()
	e.phase = rules.PreFlop
	if err := e.dealHoleCards(); err != nil {
		e.abortHand(ctx, err)
		return err
	}
	e.repriceLiabilities()

	logger.Info("Hand started",
		"number", e.handNumber,
		"variant", e.rules.Name(),
		"dealer", e.dealer,
		"players", e.count((*Seat).inHand),
		"blinds", fmt.Sprintf("%d/%d", e.smallBlind, e.bigBlind))

	if e.rules.SkipBetting(rules.PreFlop) || !e.needsBetting() {
		e.advancePhase(ctx)
		return nil
	}
	e.turn = e.next(firstActor, (*Seat).canAct)
	return nil
}

// postBlinds posts the blinds, each capped at the seat's stack, and returns
// the big blind's seat. Heads-up the dealer posts the small blind.
func (e *Engine) postBlinds() int {
	sb := e.next(e.dealer, (*Seat).inHand)
	if e.count((*Seat).inHand) == 2 {
		sb = e.dealer
	}
	bb := e.next(sb, (*Seat).inHand)

	e.pot += e.seats[sb].contribute(e.smallBlind, true)
	e.pot += e.seats[bb].contribute(e.bigBlind, true)
	e.currentBet = e.bigBlind
	return bb
}

func (e *Engine) dealHoleCards() error {
	n := e.rules.HoleCards(e.phase)
	if n <= 0 {
		return nil
	}
	for _, s := range e.seats {
		if s == nil || !s.inHand() {
			continue
		}
		cards := e.deck.Deal(n)
		if cards == nil {
			return fmt.Errorf("%w: deck exhausted dealing hole cards", ErrStructural)
		}
		s.HoleCards = append(s.HoleCards, cards...)
	}
	return nil
}

// lockLiabilities commits each dealt-in seat's worst-case exposure. A human
// seat that cannot cover it is removed and refunded; an automated seat is
// replenished from its bankroll first. Pricing repeats until stable because
// every removal changes the opponent count.
func (e *Engine) lockLiabilities(ctx context.Context) error {
	if !e.rules.PricesLiability() {
		return nil
	}

	for changed := true; changed; {
		changed = false
		for _, s := range e.seats {
			if s == nil || !s.inHand() {
				continue
			}
			price := e.liabilityOf(s)
			err := e.commitLiability(s, price)
			if err == nil {
				continue
			}
			if s.Player.Automated {
				if err = e.replenishSide(ctx, s, price); err == nil {
					err = e.commitLiability(s, price)
				}
				if err == nil {
					continue
				}
			}
			e.logger.Warn("Seat cannot cover liability", "player", s.Player.ID, "seat", s.Index, "liability", price, "error", err)
			if err := e.removeSeat(ctx, s); err != nil {
				return err
			}
			changed = true
		}
	}
	return nil
}

func (e *Engine) liabilityOf(s *Seat) int64 {
	return e.rules.Liability(rules.LiabilityContext{
		Seat:      s.view(),
		Opponents: e.count(func(s *Seat) bool { return s.DealtIn }) - 1,
		Phase:     e.phase,
		Board:     e.board,
	})
}

func (e *Engine) commitLiability(s *Seat, price int64) error {
	current := e.ledger.Committed(s.Index, rules.LiabilityTag)
	switch {
	case price == current:
		return nil
	case current == 0:
		return e.ledger.Commit(s.Index, price, "variant liability", rules.LiabilityTag)
	default:
		return e.ledger.Reprice(s.Index, rules.LiabilityTag, price)
	}
}

func (e *Engine) replenishSide(ctx context.Context, s *Seat, price int64) error {
	shortfall := price - e.ledger.Committed(s.Index, rules.LiabilityTag) - e.ledger.Available(s.Index)
	amount := max(shortfall, e.sideTopUpTo-e.ledger.Balance(s.Index))
	if amount <= 0 {
		return errors.New("nothing to replenish")
	}
	if e.bank != nil {
		if err := e.bank.Debit(ctx, s.Player.ID, amount); err != nil {
			return err
		}
	}
	e.logger.Info("Replenished side-pot account", "player", s.Player.ID, "seat", s.Index, "amount", amount)
	return e.ledger.Deposit(s.Index, amount)
}

// repriceLiabilities lowers each seat's liability as dealt cards reduce its
// exposure, releasing the difference. Prices never rise mid-hand.
func (e *Engine) repriceLiabilities() {
	if !e.rules.PricesLiability() {
		return
	}
	for _, s := range e.seats {
		if s == nil || !s.DealtIn {
			continue
		}
		current := e.ledger.Committed(s.Index, rules.LiabilityTag)
		price := e.liabilityOf(s)
		if price >= current {
			continue
		}
		if err := e.ledger.Reprice(s.Index, rules.LiabilityTag, price); err != nil {
			e.logger.Error("Liability reprice failed", "seat", s.Index, "error", err)
			continue
		}
		e.logger.Debug("Liability repriced", "seat", s.Index, "from", current, "to", price)
	}
}

func (e *Engine) views() []rules.SeatView {
	var out []rules.SeatView
	for _, s := range e.seats {
		if s != nil {
			out = append(out, s.view())
		}
	}
	return out
}
