package bot

import (
	"github.com/charmbracelet/log"

	"github.com/lox/pokertable/internal/rules"
)

// shortStackBigBlinds is the stack, in big blinds, below which the call
// bot shoves into an unraised pot.
const shortStackBigBlinds = 10

// CallBot is a calling station: it checks or calls to the end, shoving only
// when short-stacked in an unraised pot.
type CallBot struct {
	logger *log.Logger
}

// NewCallBot creates a new CallBot instance
func NewCallBot(logger *log.Logger) *CallBot {
	return &CallBot{logger: logger}
}

func (c *CallBot) Decide(v View) Decision {
	if v.BigBlind > 0 && v.Stack < shortStackBigBlinds*v.BigBlind && v.CurrentBet <= v.BigBlind {
		if _, ok := option(v, rules.AllIn); ok {
			c.logger.Debug("Short stack shove", "player", v.PlayerID, "stack", v.Stack)
			return pick(v, "shoving with short stack", rules.AllIn)
		}
	}
	return pick(v, "call-bot", rules.Check, rules.Call, rules.Fold)
}
