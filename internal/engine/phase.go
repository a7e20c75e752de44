package engine

import (
	"context"
	"fmt"

	"github.com/lox/pokertable/internal/rules"
)

// advancePhase closes the betting round and moves to the next phase the
// rules name, dealing as it goes. Phases whose betting is skipped, or where
// nobody is left to bet, are dealt and passed straight through. The flop
// fires flop side games before its betting round opens.
func (e *Engine) advancePhase(ctx context.Context) {
	for {
		next, ok := e.rules.NextPhase(e.phase)
		if !ok {
			e.abortHand(ctx, fmt.Errorf("%w: %s has no phase after %s", ErrStructural, e.rules.Name(), e.phase))
			return
		}
		if next == rules.Showdown {
			e.phase = rules.Showdown
			e.turn = -1
			e.finishHand(ctx)
			return
		}
		if !next.IsBetting() {
			e.abortHand(ctx, fmt.Errorf("%w: %s moved from %s to %s mid-hand", ErrStructural, e.rules.Name(), e.phase, next))
			return
		}

		for _, s := range e.seats {
			if s != nil {
				s.Bet = 0
				s.Acted = false
			}
		}
		e.currentBet = 0
		e.minRaise = e.bigBlind
		e.phase = next

		if err := e.dealHoleCards(); err != nil {
			e.abortHand(ctx, err)
			return
		}
		if n := e.rules.CommunityCards(next); n > 0 {
			cards := e.deck.Deal(n)
			if cards == nil {
				e.abortHand(ctx, fmt.Errorf("%w: deck exhausted dealing %s", ErrStructural, next))
				return
			}
			if next == rules.Flop {
				e.board = cards
			} else {
				e.board = append(e.board, cards...)
			}
		}
		e.repriceLiabilities()
		e.logger.Debug("Phase", "hand", e.handID, "phase", next, "board", e.board)

		if next == rules.Flop {
			for _, st := range e.sideGames.ResolveFlop(e.handNumber, e.board) {
				e.logger.Info("Flop side game settled", "hand", e.handID, "game", st.GameID, "kind", st.Kind)
			}
		}

		if e.rules.SkipBetting(next) || !e.needsBetting() {
			continue
		}
		e.turn = e.next(e.dealer, (*Seat).canAct)
		return
	}
}
