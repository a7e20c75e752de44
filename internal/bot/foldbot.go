package bot

import (
	"github.com/charmbracelet/log"

	"github.com/lox/pokertable/internal/rules"
)

// FoldBot checks when it can and folds otherwise.
type FoldBot struct {
	logger *log.Logger
}

// NewFoldBot creates a new FoldBot instance
func NewFoldBot(logger *log.Logger) *FoldBot {
	return &FoldBot{logger: logger}
}

func (f *FoldBot) Decide(v View) Decision {
	return pick(v, "fold-bot", rules.Check, rules.Fold)
}
