package table

import (
	"time"

	"github.com/coder/quartz"
)

// Kind names what a scheduled continuation does when it fires.
type Kind int

const (
	KindNone Kind = iota
	// KindTurn applies the default action for a seat that ran out of time.
	KindTurn
	// KindThink lets an automated seat decide.
	KindThink
	// KindNextHand starts the next hand, or parks the table in the lobby.
	KindNextHand
	// KindExpiry cancels side-game proposals past their deadline.
	KindExpiry
)

var kindNames = [...]string{"none", "turn", "think", "next-hand", "expiry"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Fire is posted back to the table when a continuation's timer expires.
type Fire struct {
	Kind     Kind
	Gen      uint64
	Seat     int
	PlayerID string
}

// TurnScheduler owns a single timer. Arming it cancels whatever was
// scheduled before, and every arm bumps a generation so a fire that was
// already in flight when it was cancelled is recognised as stale by Take.
//
// It is driven from the table actor only; post is called from the clock's
// goroutine and must hand the Fire back to the actor.
type TurnScheduler struct {
	clock quartz.Clock
	post  func(Fire)

	timer    *quartz.Timer
	gen      uint64
	pending  Fire
	deadline time.Time
}

// NewTurnScheduler returns an idle scheduler.
func NewTurnScheduler(clock quartz.Clock, post func(Fire)) *TurnScheduler {
	return &TurnScheduler{clock: clock, post: post}
}

// Arm starts the turn clock for a seat and returns its deadline.
func (s *TurnScheduler) Arm(seat int, playerID string, d time.Duration) time.Time {
	return s.schedule(Fire{Kind: KindTurn, Seat: seat, PlayerID: playerID}, d)
}

// ArmThinking gives an automated seat a think delay before it decides.
func (s *TurnScheduler) ArmThinking(seat int, playerID string, d time.Duration) time.Time {
	return s.schedule(Fire{Kind: KindThink, Seat: seat, PlayerID: playerID}, d)
}

// Schedule arms a continuation that is not tied to a seat.
func (s *TurnScheduler) Schedule(kind Kind, d time.Duration) time.Time {
	return s.schedule(Fire{Kind: kind, Seat: -1}, d)
}

func (s *TurnScheduler) schedule(f Fire, d time.Duration) time.Time {
	s.Cancel()
	s.gen++
	f.Gen = s.gen
	s.pending = f
	s.deadline = s.clock.Now().Add(d)
	s.timer = s.clock.AfterFunc(d, func() { s.post(f) }, "scheduler", f.Kind.String())
	return s.deadline
}

// Cancel stops the pending continuation, if any.
func (s *TurnScheduler) Cancel() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = Fire{}
	s.deadline = time.Time{}
}

// Take claims a fire. It reports false for anything other than the
// continuation currently pending.
func (s *TurnScheduler) Take(f Fire) bool {
	if s.pending.Kind == KindNone || f.Gen != s.pending.Gen {
		return false
	}
	s.pending = Fire{}
	s.timer = nil
	s.deadline = time.Time{}
	return true
}

// Pending returns the continuation waiting to fire.
func (s *TurnScheduler) Pending() Kind {
	return s.pending.Kind
}

// Deadline returns when the pending continuation fires.
func (s *TurnScheduler) Deadline() (time.Time, bool) {
	return s.deadline, s.pending.Kind != KindNone
}
