package rules

import "fmt"

// Phase is one step of a hand.
type Phase uint8

const (
	Lobby Phase = iota
	PreHand
	PreFlop
	Flop
	Turn
	River
	Showdown
)

var phaseNames = [...]string{"lobby", "pre-hand", "pre-flop", "flop", "turn", "river", "showdown"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", p)
}

// MarshalText renders the phase name for snapshots.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a phase name.
func (p *Phase) UnmarshalText(b []byte) error {
	for i, name := range phaseNames {
		if name == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}

// IsBetting reports whether a phase carries a betting round.
func (p Phase) IsBetting() bool {
	return p >= PreFlop && p <= River
}

// Action is a player decision.
type Action string

const (
	Fold  Action = "fold"
	Check Action = "check"
	Call  Action = "call"
	Bet   Action = "bet"
	Raise Action = "raise"
	AllIn Action = "allin"
)

// ParseAction normalises a client action name.
func ParseAction(s string) (Action, error) {
	switch s {
	case "fold":
		return Fold, nil
	case "check":
		return Check, nil
	case "call":
		return Call, nil
	case "bet":
		return Bet, nil
	case "raise":
		return Raise, nil
	case "allin", "all-in", "all_in":
		return AllIn, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}
