package bot

import (
	rand "math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/lox/pokertable/internal/rules"
)

// RandBot makes uniform random legal actions from a seeded source.
type RandBot struct {
	rng    *rand.Rand
	logger *log.Logger
}

// NewRandBot creates a new RandBot instance
func NewRandBot(rng *rand.Rand, logger *log.Logger) *RandBot {
	return &RandBot{rng: rng, logger: logger}
}

func (r *RandBot) Decide(v View) Decision {
	if len(v.ValidActions) == 0 {
		return Decision{Action: rules.Fold, Reasoning: "rand-bot no valid actions"}
	}

	choice := v.ValidActions[r.rng.IntN(len(v.ValidActions))]
	amount := choice.Min
	if (choice.Action == rules.Bet || choice.Action == rules.Raise) && choice.Max > choice.Min {
		amount += r.rng.Int64N(choice.Max - choice.Min + 1)
	}
	return Decision{Action: choice.Action, Amount: amount, Reasoning: "rand-bot random action"}
}
