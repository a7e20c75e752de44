package engine

import (
	"errors"
	"fmt"

	"github.com/lox/pokertable/internal/rules"
)

// Rejected commands. None of them change table state.
var (
	ErrTableFull         = errors.New("table is full")
	ErrSeatTaken         = errors.New("seat is taken")
	ErrInvalidSeat       = errors.New("invalid seat")
	ErrAlreadySeated     = errors.New("player is already seated")
	ErrNotSeated         = errors.New("player is not seated")
	ErrInvalidBuyIn      = errors.New("buy-in outside table limits")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrTableLocked       = errors.New("table is locked for this hand")
	ErrHandInProgress    = errors.New("hand in progress")
	ErrNoHandInProgress  = errors.New("no hand in progress")
	ErrNotEnoughPlayers  = errors.New("not enough funded seats")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrSeatFolded        = errors.New("seat has folded")
	ErrIllegalAction     = errors.New("action not allowed")
	ErrInsufficientChips = errors.New("insufficient chips")
	ErrRaiseTooSmall     = errors.New("raise below minimum")
)

// ErrStructural marks a hand aborted because the variant configuration left
// the engine with no legal way forward.
var ErrStructural = errors.New("structural error")

var (
	errNoContenders = fmt.Errorf("%w: showdown has no eligible hands", ErrStructural)
	errPotMismatch  = fmt.Errorf("%w: pot layers do not match pot", ErrStructural)
)

// ActionError is a rejected player action.
type ActionError struct {
	PlayerID string
	Action   rules.Action
	Amount   int64
	Err      error
}

func (e *ActionError) Error() string {
	if e.Amount > 0 {
		return fmt.Sprintf("%s %s %d: %v", e.PlayerID, e.Action, e.Amount, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.PlayerID, e.Action, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

func reject(playerID string, action rules.Action, amount int64, err error) error {
	return &ActionError{PlayerID: playerID, Action: action, Amount: amount, Err: err}
}
