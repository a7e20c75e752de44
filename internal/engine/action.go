package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/lox/pokertable/internal/rules"
)

// ActionOption is a legal action with the amounts it accepts. Bet and raise
// amounts are the total the seat's bet is raised to.
type ActionOption struct {
	Action rules.Action `json:"action"`
	Min    int64        `json:"min,omitempty"`
	Max    int64        `json:"max,omitempty"`
}

// ActionResult reports what an accepted action led to.
type ActionResult struct {
	Phase        rules.Phase `json:"phase"`
	HandComplete bool        `json:"handComplete"`
	Result       *HandResult `json:"result,omitempty"`
}

// CurrentTurn returns the seat due to act.
func (e *Engine) CurrentTurn() (*Seat, bool) {
	if !e.HandInProgress() || e.turn < 0 || e.seats[e.turn] == nil {
		return nil, false
	}
	return e.seats[e.turn], true
}

// CurrentTurnPlayerID returns the id of the player due to act, or "".
func (e *Engine) CurrentTurnPlayerID() string {
	if s, ok := e.CurrentTurn(); ok {
		return s.Player.ID
	}
	return ""
}

// ValidActions lists what playerID may do now. It is empty unless it is
// that player's turn.
func (e *Engine) ValidActions(playerID string) []ActionOption {
	s, ok := e.CurrentTurn()
	if !ok || s.Player.ID != playerID {
		return nil
	}

	allInTo := s.Stack + s.Bet
	var opts []ActionOption
	for _, a := range e.rules.ValidActions(s.view(), e.phase, e.currentBet) {
		opt := ActionOption{Action: a}
		switch a {
		case rules.Call:
			opt.Min = min(e.currentBet-s.Bet, s.Stack)
			opt.Max = opt.Min
		case rules.Bet, rules.Raise:
			opt.Min = min(e.minRaiseTo(), allInTo)
			opt.Max = allInTo
		case rules.AllIn:
			opt.Min, opt.Max = allInTo, allInTo
		}
		opts = append(opts, opt)
	}
	return opts
}

// DefaultAction is what a timed-out seat does: check when free, else fold.
func (e *Engine) DefaultAction(playerID string) rules.Action {
	for _, opt := range e.ValidActions(playerID) {
		if opt.Action == rules.Check {
			return rules.Check
		}
	}
	return rules.Fold
}

func (e *Engine) minRaiseTo() int64 {
	if e.currentBet == 0 {
		return e.bigBlind
	}
	return e.currentBet + e.minRaise
}

// HandlePlayerAction applies a decision from the seat whose turn it is. For
// bet and raise, amount is the total to raise the seat's bet to. A rejected
// action returns an *ActionError and leaves the hand untouched.
func (e *Engine) HandlePlayerAction(ctx context.Context, playerID string, action rules.Action, amount int64) (ActionResult, error) {
	if !e.HandInProgress() {
		return ActionResult{}, reject(playerID, action, amount, ErrNoHandInProgress)
	}
	s, ok := e.CurrentTurn()
	if !ok || s.Player.ID != playerID {
		if seat := e.seatOf(playerID); seat != nil && seat.Folded {
			return ActionResult{}, reject(playerID, action, amount, ErrSeatFolded)
		}
		return ActionResult{}, reject(playerID, action, amount, ErrNotYourTurn)
	}
	if !slices.Contains(e.rules.ValidActions(s.view(), e.phase, e.currentBet), action) {
		return ActionResult{}, reject(playerID, action, amount, ErrIllegalAction)
	}

	switch action {
	case rules.Fold:
		s.Folded = true

	case rules.Check:
		if s.Bet != e.currentBet {
			return ActionResult{}, reject(playerID, action, amount,
				fmt.Errorf("%w: must call %d", ErrIllegalAction, e.currentBet-s.Bet))
		}

	case rules.Call:
		e.pot += s.contribute(e.currentBet-s.Bet, true)

	case rules.Bet, rules.Raise:
		allInTo := s.Stack + s.Bet
		if amount > allInTo {
			return ActionResult{}, reject(playerID, action, amount, ErrInsufficientChips)
		}
		if amount <= e.currentBet {
			return ActionResult{}, reject(playerID, action, amount,
				fmt.Errorf("%w: must exceed current bet %d", ErrRaiseTooSmall, e.currentBet))
		}
		// An all-in may fall short of a full raise.
		if amount < e.minRaiseTo() && amount < allInTo {
			return ActionResult{}, reject(playerID, action, amount,
				fmt.Errorf("%w: minimum %d", ErrRaiseTooSmall, e.minRaiseTo()))
		}
		e.raiseTo(s, amount)

	case rules.AllIn:
		e.raiseTo(s, s.Stack+s.Bet)
	}

	s.Acted = true
	s.LastAction = action
	e.logger.Debug("Action", "hand", e.handID, "player", playerID, "action", action, "amount", amount, "pot", e.pot)

	return e.afterAction(ctx, s), nil
}

// raiseTo moves the seat's bet up to target. Anything above the current bet
// reopens action for every other seat still able to act.
func (e *Engine) raiseTo(s *Seat, target int64) {
	e.pot += s.contribute(target-s.Bet, true)
	if s.Bet <= e.currentBet {
		return
	}
	if increment := s.Bet - e.currentBet; increment >= e.minRaise {
		e.minRaise = increment
	}
	e.currentBet = s.Bet
	for _, other := range e.seats {
		if other != nil && other != s && other.canAct() {
			other.Acted = false
		}
	}
}

// afterAction ends the hand on a fold-out, advances the phase when the
// betting round is complete, or passes the turn on.
func (e *Engine) afterAction(ctx context.Context, acted *Seat) ActionResult {
	switch {
	case e.count((*Seat).inHand) <= 1:
		e.finishHand(ctx)
	case e.roundComplete():
		e.advancePhase(ctx)
	default:
		e.turn = e.next(acted.Index, (*Seat).canAct)
	}

	res := ActionResult{Phase: e.phase}
	if !e.HandInProgress() {
		res.HandComplete = true
		res.Result = e.lastResult
	}
	return res
}

// forceFold folds a seat out of turn, as when its player disconnects.
func (e *Engine) forceFold(ctx context.Context, s *Seat) {
	s.Folded = true
	s.Acted = true
	s.LastAction = rules.Fold
	e.logger.Info("Seat folded out of turn", "hand", e.handID, "player", s.Player.ID, "seat", s.Index)

	if e.turn != s.Index && e.count((*Seat).inHand) > 1 {
		return
	}
	e.afterAction(ctx, s)
}

// roundComplete is true when no seat can act, or every seat that can act
// has acted and matched the current bet.
func (e *Engine) roundComplete() bool {
	for _, s := range e.seats {
		if s == nil || !s.canAct() {
			continue
		}
		if !s.Acted || s.Bet != e.currentBet {
			return false
		}
	}
	return true
}

// needsBetting reports whether a new round has anyone to decide anything:
// at least two seats able to act, or one facing a bet it has not matched.
func (e *Engine) needsBetting() bool {
	actors := 0
	owes := false
	for _, s := range e.seats {
		if s == nil || !s.canAct() {
			continue
		}
		actors++
		if s.Bet < e.currentBet {
			owes = true
		}
	}
	return actors >= 2 || (actors == 1 && owes)
}
