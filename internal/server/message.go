package server

import (
	"encoding/json"
	"errors"

	"github.com/lox/pokertable/internal/bankroll"
	"github.com/lox/pokertable/internal/engine"
	"github.com/lox/pokertable/internal/ledger"
	"github.com/lox/pokertable/internal/rules"
	"github.com/lox/pokertable/internal/sidegame"
	"github.com/lox/pokertable/internal/table"
)

// Message is the envelope for every frame in both directions.
type Message struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage marshals data into an envelope.
func NewMessage(messageType string, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{Type: messageType, Data: dataBytes}, nil
}

// Client → Server
const (
	TypeWatch            = "watch"
	TypeSit              = "sit"
	TypeStand            = "stand"
	TypeAction           = "action"
	TypeValidActions     = "valid_actions"
	TypeProposeSideGame  = "propose_side_game"
	TypeRespondSideGame  = "respond_side_game"
	TypeActivateSideGame = "activate_side_game"
)

// Server → Client
const (
	TypeSnapshot = "snapshot"
	TypeResponse = "response"
	TypeError    = "error"
)

type WatchData struct {
	TableID string `json:"tableId"`
}

type SitData struct {
	TableID     string `json:"tableId"`
	Seat        *int   `json:"seat,omitempty"`
	BuyIn       int64  `json:"buyIn"`
	SideDeposit int64  `json:"sideDeposit,omitempty"`
}

type StandData struct {
	TableID   string `json:"tableId"`
	Immediate bool   `json:"immediate,omitempty"`
}

type ActionData struct {
	TableID string `json:"tableId"`
	Action  string `json:"action"`
	Amount  int64  `json:"amount,omitempty"`
}

type ValidActionsData struct {
	TableID string `json:"tableId"`
}

type ProposeSideGameData struct {
	TableID  string            `json:"tableId"`
	Kind     string            `json:"kind"`
	Stake    int64             `json:"stake"`
	Params   map[string]string `json:"params,omitempty"`
	Invitees []string          `json:"invitees"`
	TTLMs    int64             `json:"ttlMs,omitempty"`
}

type RespondSideGameData struct {
	TableID string `json:"tableId"`
	GameID  string `json:"gameId"`
	Accept  bool   `json:"accept"`
}

type ActivateSideGameData struct {
	TableID string `json:"tableId"`
	GameID  string `json:"gameId"`
}

type SitResponse struct {
	Seat int `json:"seat"`
}

type ValidActionsResponse struct {
	Actions []engine.ActionOption `json:"actions"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TableSummary is one row of the table listing.
type TableSummary struct {
	ID         string      `json:"id"`
	Variant    string      `json:"variant"`
	Phase      rules.Phase `json:"phase"`
	HandNumber int         `json:"handNumber"`
	Seats      int         `json:"seats"`
	Seated     int         `json:"seated"`
	SmallBlind int64       `json:"smallBlind"`
	BigBlind   int64       `json:"bigBlind"`
}

func summarize(snap engine.Snapshot) TableSummary {
	s := TableSummary{
		ID:         snap.Table,
		Variant:    snap.Variant,
		Phase:      snap.Phase,
		HandNumber: snap.HandNumber,
		Seats:      len(snap.Seats),
		SmallBlind: snap.SmallBlind,
		BigBlind:   snap.BigBlind,
	}
	for _, seat := range snap.Seats {
		if !seat.Empty {
			s.Seated++
		}
	}
	return s
}

var errorCodes = []struct {
	err  error
	code string
}{
	{engine.ErrNotYourTurn, "not_your_turn"},
	{engine.ErrSeatFolded, "seat_folded"},
	{engine.ErrIllegalAction, "illegal_action"},
	{engine.ErrInsufficientChips, "insufficient_chips"},
	{engine.ErrRaiseTooSmall, "raise_too_small"},
	{engine.ErrTableFull, "table_full"},
	{engine.ErrSeatTaken, "seat_taken"},
	{engine.ErrInvalidSeat, "invalid_seat"},
	{engine.ErrAlreadySeated, "already_seated"},
	{engine.ErrNotSeated, "not_seated"},
	{engine.ErrInvalidBuyIn, "invalid_buy_in"},
	{engine.ErrInvalidAmount, "invalid_amount"},
	{engine.ErrTableLocked, "table_locked"},
	{engine.ErrHandInProgress, "hand_in_progress"},
	{engine.ErrNoHandInProgress, "no_hand_in_progress"},
	{rules.ErrSideDepositRequired, "side_deposit_required"},
	{ledger.ErrInsufficientAvailable, "insufficient_side_funds"},
	{sidegame.ErrUnknownKind, "unknown_side_game"},
	{sidegame.ErrUnknownGame, "side_game_not_found"},
	{sidegame.ErrInvalidStake, "invalid_stake"},
	{sidegame.ErrNotProposed, "side_game_closed"},
	{sidegame.ErrNotInvited, "not_invited"},
	{sidegame.ErrAlreadyAnswered, "already_answered"},
	{sidegame.ErrNotProposer, "not_proposer"},
	{bankroll.ErrInsufficientFunds, "insufficient_bankroll"},
	{table.ErrTableNotFound, "table_not_found"},
	{table.ErrTableClosed, "table_closed"},
}

// errorCode maps a rejected command to a stable client-facing code.
func errorCode(err error) string {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "rejected"
}
