package table

import (
	"context"

	"github.com/lox/pokertable/internal/bot"
	"github.com/lox/pokertable/internal/engine"
)

// maxInlineBotActions bounds how many zero-delay bot decisions one event
// may chain before yielding back to the actor loop.
const maxInlineBotActions = 64

// sync re-arms the scheduler after anything that may have moved the turn:
// the acting seat gets a fresh turn clock or think delay, and a hand that
// has just ended schedules the next one.
func (t *Table) sync(ctx context.Context) {
	for range maxInlineBotActions {
		if !t.engine.HandInProgress() {
			if k := t.sched.Pending(); k == KindTurn || k == KindThink {
				t.sched.Cancel()
			}
			if t.handLive {
				t.handLive = false
				t.scheduleNextHand()
			}
			return
		}

		seat, ok := t.engine.CurrentTurn()
		if !ok {
			t.sched.Cancel()
			return
		}
		strategy, automated := t.bots[seat.Player.ID]
		if !automated {
			t.sched.Arm(seat.Index, seat.Player.ID, t.cfg.TurnTimeout)
			return
		}
		if t.cfg.ThinkDelay > 0 {
			t.sched.ArmThinking(seat.Index, seat.Player.ID, t.cfg.ThinkDelay)
			return
		}
		t.sched.Cancel()
		t.botAct(ctx, seat.Player.ID, strategy)
	}
	t.logger.Warn("Bot chain yielded", "hand", t.engine.HandNumber())
	if seat, ok := t.engine.CurrentTurn(); ok {
		t.sched.ArmThinking(seat.Index, seat.Player.ID, 0)
	}
}

// botAct asks a strategy for a decision and applies it, falling back to
// the default action when the strategy picks something illegal.
func (t *Table) botAct(ctx context.Context, playerID string, strategy bot.Strategy) {
	view := bot.ViewFor(t.engine.Snapshot(), playerID, t.engine.ValidActions(playerID))
	d := strategy.Decide(view)
	t.logger.Debug("Bot decision", "player", playerID, "action", d.Action, "amount", d.Amount, "reasoning", d.Reasoning)

	if _, err := t.engine.HandlePlayerAction(ctx, playerID, d.Action, d.Amount); err != nil {
		t.logger.Warn("Bot decision rejected", "player", playerID, "action", d.Action, "amount", d.Amount, "error", err)
		if _, err := t.engine.HandlePlayerAction(ctx, playerID, t.engine.DefaultAction(playerID), 0); err != nil {
			t.logger.Error("Bot default action rejected", "player", playerID, "error", err)
		}
	}
}

// handleFire runs a timer continuation. Fires that were cancelled or
// superseded, and turn fires for a seat that has already acted, are
// dropped.
func (t *Table) handleFire(ctx context.Context, f Fire) {
	if f.Kind == KindExpiry {
		if !t.expiry.Take(f) {
			return
		}
		for _, g := range t.engine.ExpireSideGames(t.clock.Now()) {
			t.logger.Info("Side game proposal expired", "game", g.ID)
		}
		t.armExpiry()
		t.publish()
		return
	}

	if !t.sched.Take(f) {
		t.logger.Debug("Stale continuation dropped", "kind", f.Kind, "gen", f.Gen)
		return
	}

	switch f.Kind {
	case KindTurn:
		if t.engine.CurrentTurnPlayerID() != f.PlayerID {
			t.sync(ctx)
			break
		}
		action := t.engine.DefaultAction(f.PlayerID)
		t.logger.Info("Turn timed out", "player", f.PlayerID, "seat", f.Seat, "action", action)
		if _, err := t.engine.HandlePlayerAction(ctx, f.PlayerID, action, 0); err != nil {
			t.logger.Error("Timeout action rejected", "player", f.PlayerID, "error", err)
		}
		t.sync(ctx)

	case KindThink:
		if strategy, ok := t.bots[f.PlayerID]; ok && t.engine.CurrentTurnPlayerID() == f.PlayerID {
			t.botAct(ctx, f.PlayerID, strategy)
		}
		t.sync(ctx)

	case KindNextHand:
		t.nextHand(ctx)
	}
	t.publish()
}

// scheduleNextHand pauses for the result to be shown before moving on.
func (t *Table) scheduleNextHand() {
	delay := t.cfg.ShowdownDelay
	if res := t.engine.LastResult(); res != nil && (res.FoldedOut || res.Aborted) {
		delay = t.cfg.FoldDelay
	}
	t.sched.Schedule(KindNextHand, delay)
}

// nextHand starts another hand when the table can, else parks it in the
// lobby.
func (t *Table) nextHand(ctx context.Context) {
	if t.engine.HandInProgress() {
		return
	}
	res := t.engine.LastResult()
	if !t.cfg.AutoStart || (res != nil && res.EndRound) || t.engine.FundedSeats() < 2 {
		t.engine.ReturnToLobby()
		return
	}
	if err := t.startHand(ctx); err != nil {
		t.logger.Warn("Next hand not started", "error", err)
		t.engine.ReturnToLobby()
	}
}

func (t *Table) startHand(ctx context.Context) error {
	t.sched.Cancel()
	if err := t.engine.StartHand(ctx, t.level()); err != nil {
		return err
	}
	t.handLive = true
	t.forgetBots()
	t.sync(ctx)
	t.armExpiry()
	return nil
}

// maybeScheduleStart queues a hand once an idle auto-start table has two
// funded seats.
func (t *Table) maybeScheduleStart() {
	if !t.cfg.AutoStart || t.engine.HandInProgress() || t.sched.Pending() != KindNone {
		return
	}
	if res := t.engine.LastResult(); res != nil && res.EndRound {
		return
	}
	if t.engine.FundedSeats() >= 2 {
		t.sched.Schedule(KindNextHand, t.cfg.StartDelay)
	}
}

// armExpiry points the expiry timer at the earliest open proposal.
func (t *Table) armExpiry() {
	next, ok := t.engine.SideGames().NextExpiry()
	if !ok {
		t.expiry.Cancel()
		return
	}
	t.expiry.Schedule(KindExpiry, max(next.Sub(t.clock.Now()), 0))
}

// forgetBots drops strategies for players who have left.
func (t *Table) forgetBots() {
	for id := range t.bots {
		if _, ok := t.engine.SeatIndex(id); !ok {
			delete(t.bots, id)
		}
	}
}

// level picks the blind level for the next hand.
func (t *Table) level() engine.BlindLevel {
	if len(t.cfg.Levels) == 0 {
		return engine.BlindLevel{}
	}
	i := min(t.engine.HandNumber()/t.cfg.HandsPerLevel, len(t.cfg.Levels)-1)
	return t.cfg.Levels[i]
}
