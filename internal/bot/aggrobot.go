package bot

import (
	rand "math/rand/v2"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/lox/pokertable/internal/rules"
	"github.com/lox/pokertable/poker"
)

// AggroBot plays tight and aggressive: it raises premium starting hands and
// strong made hands, calls with medium holdings and folds the rest to a bet.
type AggroBot struct {
	rng    *rand.Rand
	logger *log.Logger
}

// NewAggroBot creates a new AggroBot instance
func NewAggroBot(rng *rand.Rand, logger *log.Logger) *AggroBot {
	return &AggroBot{rng: rng, logger: logger}
}

type strength int

const (
	weak strength = iota
	medium
	strong
)

func (a *AggroBot) Decide(v View) Decision {
	s := a.strength(v)
	a.logger.Debug("Hand strength", "player", v.PlayerID, "phase", v.Phase, "strength", s)

	switch s {
	case strong:
		if d, ok := a.raise(v); ok {
			return d
		}
		return pick(v, "aggro call strong", rules.Call, rules.Check)
	case medium:
		// Occasionally bets medium hands into an unopened pot.
		if v.ToCall() == 0 && a.rng.Float64() < 0.25 {
			if d, ok := a.raise(v); ok {
				return d
			}
		}
		return pick(v, "aggro call medium", rules.Check, rules.Call)
	default:
		return pick(v, "aggro fold weak", rules.Check, rules.Fold)
	}
}

// raise sizes a bet or raise at a quarter of the way from the minimum to
// the seat's whole stack.
func (a *AggroBot) raise(v View) (Decision, bool) {
	for _, act := range []rules.Action{rules.Raise, rules.Bet} {
		if opt, ok := option(v, act); ok {
			amount := opt.Min + (opt.Max-opt.Min)/4
			return Decision{Action: act, Amount: amount, Reasoning: "aggro " + string(act)}, true
		}
	}
	if _, ok := option(v, rules.AllIn); ok && v.ToCall() > 0 {
		return pick(v, "aggro shove", rules.AllIn), true
	}
	return Decision{}, false
}

func (a *AggroBot) strength(v View) strength {
	if len(v.HoleCards) < 2 {
		return weak
	}
	if len(v.Board) == 0 {
		switch poker.CategorizeHoleCards(v.HoleCards[0], v.HoleCards[1]) {
		case poker.CategoryPremium, poker.CategoryStrong:
			return strong
		case poker.CategoryMedium:
			return medium
		default:
			return weak
		}
	}

	rank := poker.EvaluateCards(append(slices.Clone(v.HoleCards[:2]), v.Board...)...)
	switch t := rank.Type(); {
	case t >= poker.TwoPair:
		return strong
	case t == poker.Pair:
		return medium
	default:
		return weak
	}
}
