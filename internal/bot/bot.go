// Package bot holds the scripted strategies that drive automated seats.
package bot

import (
	"fmt"
	rand "math/rand/v2"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/lox/pokertable/internal/engine"
	"github.com/lox/pokertable/internal/rules"
	"github.com/lox/pokertable/poker"
)

// View is what an automated seat knows when it is asked to act.
type View struct {
	PlayerID     string
	Phase        rules.Phase
	HoleCards    []poker.Card
	Board        []poker.Card
	Stack        int64
	Bet          int64
	CurrentBet   int64
	Pot          int64
	BigBlind     int64
	ValidActions []engine.ActionOption
}

// ToCall is what the seat must add to stay in.
func (v View) ToCall() int64 {
	return max(v.CurrentBet-v.Bet, 0)
}

// Decision is a strategy's answer. Amount is a raise-to total for bet and
// raise, ignored otherwise.
type Decision struct {
	Action    rules.Action
	Amount    int64
	Reasoning string
}

// Strategy picks an action for a seat. Implementations must only return
// actions listed in the view.
type Strategy interface {
	Decide(View) Decision
}

// ViewFor builds a seat's view from a table snapshot.
func ViewFor(snap engine.Snapshot, playerID string, opts []engine.ActionOption) View {
	v := View{
		PlayerID:     playerID,
		Phase:        snap.Phase,
		Board:        snap.CommunityCards,
		CurrentBet:   snap.CurrentBet,
		Pot:          snap.Pot,
		BigBlind:     snap.BigBlind,
		ValidActions: opts,
	}
	if seat, ok := snap.Seat(playerID); ok {
		v.HoleCards = seat.HoleCards
		v.Stack = seat.Stack
		v.Bet = seat.Bet
	}
	return v
}

// Strategy names accepted by New.
const (
	CallName  = "call"
	FoldName  = "fold"
	RandName  = "rand"
	AggroName = "aggro"
)

// Names lists the built-in strategies.
func Names() []string {
	return []string{AggroName, CallName, FoldName, RandName}
}

// New returns the named strategy. rng seeds strategies that randomise.
func New(name string, rng *rand.Rand, logger *log.Logger) (Strategy, error) {
	logger = logger.WithPrefix("bot").With("strategy", name)
	switch name {
	case CallName:
		return NewCallBot(logger), nil
	case FoldName:
		return NewFoldBot(logger), nil
	case RandName:
		return NewRandBot(rng, logger), nil
	case AggroName:
		return NewAggroBot(rng, logger), nil
	default:
		return nil, fmt.Errorf("unknown bot strategy %q", name)
	}
}

func option(v View, a rules.Action) (engine.ActionOption, bool) {
	i := slices.IndexFunc(v.ValidActions, func(o engine.ActionOption) bool { return o.Action == a })
	if i < 0 {
		return engine.ActionOption{}, false
	}
	return v.ValidActions[i], true
}

// pick returns the first of the preferred actions the view allows, falling
// back to the first legal action.
func pick(v View, reasoning string, preferred ...rules.Action) Decision {
	for _, a := range preferred {
		if opt, ok := option(v, a); ok {
			return Decision{Action: a, Amount: opt.Min, Reasoning: reasoning}
		}
	}
	if len(v.ValidActions) > 0 {
		first := v.ValidActions[0]
		return Decision{Action: first.Action, Amount: first.Min, Reasoning: "fallback: " + reasoning}
	}
	return Decision{Action: rules.Fold, Reasoning: "no valid actions"}
}
