// Package sidegame runs player-proposed wagers that live beside the main pot.
// A side game resolves at a hand milestone and pays out through the side-pot
// ledger, only ever from funds its participants committed when they joined.
package sidegame

import (
	"errors"
	"slices"
	"time"

	"github.com/lox/pokertable/internal/ledger"
	"github.com/lox/pokertable/poker"
)

var (
	ErrUnknownKind     = errors.New("unknown side game")
	ErrUnknownGame     = errors.New("side game not found")
	ErrInvalidStake    = errors.New("stake must be positive")
	ErrNoInvitees      = errors.New("side game needs at least one invitee")
	ErrNotProposed     = errors.New("side game is not open for responses")
	ErrNotInvited      = errors.New("seat was not invited")
	ErrAlreadyAnswered = errors.New("seat already responded")
	ErrNotProposer     = errors.New("only the proposer may do that")
	ErrNoAcceptors     = errors.New("no seat has accepted")
)

// Status is the lifecycle position of a side game.
type Status string

const (
	StatusProposed  Status = "proposed"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Role distinguishes the proposer from the seats that accepted.
type Role uint8

const (
	RoleProposer Role = iota
	RoleAcceptor
)

// Participant is one seat's stake in a side game.
type Participant struct {
	Seat       int    `json:"seat"`
	PlayerID   string `json:"playerId"`
	Proposer   bool   `json:"proposer,omitempty"`
	OptedIn    bool   `json:"optedIn"`
	Responded  bool   `json:"responded"`
	Commitment int64  `json:"commitment"`
}

// SideGame is a proposed or running wager.
type SideGame struct {
	ID           string            `json:"id"`
	Kind         string            `json:"kind"`
	Status       Status            `json:"status"`
	Proposer     int               `json:"proposer"`
	Participants []*Participant    `json:"participants"`
	Stake        int64             `json:"stake"`
	Params       map[string]string `json:"params,omitempty"`
	ProposedAt   time.Time         `json:"proposedAt"`
	ExpiresAt    time.Time         `json:"expiresAt"`
	HandsLeft    int               `json:"handsLeft"`
	LockedHand   int               `json:"lockedHand,omitempty"`
	// Locked is set while the game is bound to LockedHand.
	Locked bool `json:"locked,omitempty"`
}

// Participant returns the entry for a seat.
func (g *SideGame) Participant(seat int) (*Participant, bool) {
	i := slices.IndexFunc(g.Participants, func(p *Participant) bool { return p.Seat == seat })
	if i < 0 {
		return nil, false
	}
	return g.Participants[i], true
}

// OptedIn returns the seats in the game: the proposer and every acceptor.
func (g *SideGame) OptedIn() []*Participant {
	var out []*Participant
	for _, p := range g.Participants {
		if p.OptedIn {
			out = append(out, p)
		}
	}
	return out
}

func (g *SideGame) acceptors() int {
	n := 0
	for _, p := range g.Participants {
		if p.OptedIn && !p.Proposer {
			n++
		}
	}
	return n
}

func (g *SideGame) pending() int {
	n := 0
	for _, p := range g.Participants {
		if !p.Proposer && !p.Responded {
			n++
		}
	}
	return n
}

func (g *SideGame) clone() *SideGame {
	c := *g
	c.Participants = make([]*Participant, len(g.Participants))
	for i, p := range g.Participants {
		pc := *p
		c.Participants[i] = &pc
	}
	if g.Params != nil {
		c.Params = make(map[string]string, len(g.Params))
		for k, v := range g.Params {
			c.Params[k] = v
		}
	}
	return &c
}

// HandResult is what hand-complete resolvers see of a finished hand.
type HandResult struct {
	HandNumber int
	Board      []poker.Card
	// Ranks holds the final hand of every seat that reached showdown.
	Ranks map[int]poker.HandRank
	// Compare orders two ranks the way the table's variant does. Nil uses
	// standard ordering.
	Compare func(a, b poker.HandRank) int
}

func (r HandResult) compare(a, b poker.HandRank) int {
	if r.Compare != nil {
		return r.Compare(a, b)
	}
	return poker.CompareHands(a, b)
}

// Definition describes a kind of side game.
type Definition interface {
	Kind() string
	// Validate checks proposal parameters.
	Validate(params map[string]string) error
	// MaxExposure is the most a participant in role can lose against
	// opponents, which is what it must commit.
	MaxExposure(stake int64, role Role, opponents int) int64
	// Hands is how many hands the game runs once active.
	Hands(params map[string]string) int
}

// FlopResolver settles when the flop is revealed.
type FlopResolver interface {
	OnFlop(g *SideGame, flop []poker.Card) []ledger.Transfer
}

// HandCompleteResolver settles when a hand finishes.
type HandCompleteResolver interface {
	OnHandComplete(g *SideGame, res HandResult) []ledger.Transfer
}

// Settlement records the outcome of resolving a side game.
type Settlement struct {
	GameID  string                `json:"gameId"`
	Kind    string                `json:"kind"`
	Results []ledger.SettleResult `json:"results"`
}

// Registry maps kinds to definitions.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry returns a registry holding the built-in side games.
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[string]Definition)}
	r.Register(Color{})
	r.Register(BestHand{})
	return r
}

func (r *Registry) Register(d Definition) {
	r.defs[d.Kind()] = d
}

func (r *Registry) Lookup(kind string) (Definition, bool) {
	d, ok := r.defs[kind]
	return d, ok
}
