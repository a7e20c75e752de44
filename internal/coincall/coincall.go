// Package coincall is a single-decision wager table. Every seat antes, one
// caller names a coin face, and the flip decides whether the caller or the
// rest of the table takes the pot after rake.
package coincall

import (
	"errors"
	"fmt"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"
)

var (
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrRoundInProgress  = errors.New("round in progress")
	ErrNoRound          = errors.New("no round in progress")
	ErrNotCaller        = errors.New("not the caller")
	ErrAlreadySeated    = errors.New("already seated")
	ErrNotSeated        = errors.New("not seated")
	ErrInvalidFace      = errors.New("invalid face")
)

// Face is one side of the coin.
type Face string

const (
	Heads Face = "heads"
	Tails Face = "tails"
)

// ParseFace accepts "heads" or "tails".
func ParseFace(s string) (Face, error) {
	switch f := Face(s); f {
	case Heads, Tails:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFace, s)
}

// Phase of a round.
type Phase string

const (
	Waiting Phase = "waiting"
	Calling Phase = "calling"
	Settled Phase = "settled"
)

const basisPts = 10_000

// Config fixes the wager.
type Config struct {
	Ante int64
	// RakeBps is the house cut in basis points of the pot.
	RakeBps int64
}

// Seat is one player at the table.
type Seat struct {
	PlayerID string
	Stack    int64
	Active   bool
}

// Result is a settled round.
type Result struct {
	Round   int
	Caller  string
	Called  Face
	Flip    Face
	Pot     int64
	Rake    int64
	Paid    int64
	// House is the rake plus chips that did not divide evenly.
	House   int64
	Payouts map[string]int64
}

// Game runs rounds for its seats. It is not safe for concurrent use.
type Game struct {
	cfg    Config
	rng    *rand.Rand
	logger *log.Logger

	seats  []*Seat
	phase  Phase
	round  int
	button int
	caller int
	pot    int64
	last   *Result
}

// New returns an empty table. rng decides every flip.
func New(cfg Config, rng *rand.Rand, logger *log.Logger) (*Game, error) {
	if cfg.Ante <= 0 {
		return nil, fmt.Errorf("ante must be positive, got %d", cfg.Ante)
	}
	if cfg.RakeBps < 0 || cfg.RakeBps > basisPts {
		return nil, fmt.Errorf("rake %d bps out of range", cfg.RakeBps)
	}
	if rng == nil {
		panic("coincall: nil rng")
	}
	return &Game{
		cfg:    cfg,
		rng:    rng,
		logger: logger.WithPrefix("coincall"),
		phase:  Waiting,
		button: -1,
	}, nil
}

// Sit adds a player with a stack.
func (g *Game) Sit(playerID string, stack int64) error {
	if g.seat(playerID) >= 0 {
		return ErrAlreadySeated
	}
	g.seats = append(g.seats, &Seat{PlayerID: playerID, Stack: stack})
	return nil
}

// Stand removes a player between rounds and returns their stack.
func (g *Game) Stand(playerID string) (int64, error) {
	if g.phase == Calling {
		return 0, ErrRoundInProgress
	}
	i := g.seat(playerID)
	if i < 0 {
		return 0, ErrNotSeated
	}
	stack := g.seats[i].Stack
	g.seats = append(g.seats[:i], g.seats[i+1:]...)
	if g.button >= i {
		g.button--
	}
	return stack, nil
}

// Start collects the ante from every seat that can pay it and passes the
// call to the next active seat after the previous caller.
func (g *Game) Start() error {
	if g.phase == Calling {
		return ErrRoundInProgress
	}
	funded := 0
	for _, s := range g.seats {
		if s.Stack >= g.cfg.Ante {
			funded++
		}
	}
	if funded < 2 {
		return ErrNotEnoughPlayers
	}

	g.round++
	g.pot = 0
	for _, s := range g.seats {
		s.Active = s.Stack >= g.cfg.Ante
		if s.Active {
			s.Stack -= g.cfg.Ante
			g.pot += g.cfg.Ante
		}
	}
	for i := 1; i <= len(g.seats); i++ {
		next := (g.button + i) % len(g.seats)
		if g.seats[next].Active {
			g.button, g.caller = next, next
			break
		}
	}
	g.phase = Calling
	g.logger.Info("Round started", "round", g.round, "pot", g.pot, "caller", g.seats[g.caller].PlayerID)
	return nil
}

// Call settles the round with the caller's choice of face.
func (g *Game) Call(playerID string, face Face) (*Result, error) {
	if g.phase != Calling {
		return nil, ErrNoRound
	}
	if g.seats[g.caller].PlayerID != playerID {
		return nil, ErrNotCaller
	}
	if _, err := ParseFace(string(face)); err != nil {
		return nil, err
	}

	flip := Heads
	if g.rng.IntN(2) == 1 {
		flip = Tails
	}

	var winners []*Seat
	if flip == face {
		winners = []*Seat{g.seats[g.caller]}
	} else {
		for i, s := range g.seats {
			if s.Active && i != g.caller {
				winners = append(winners, s)
			}
		}
	}

	res := g.settle(winners)
	res.Caller, res.Called, res.Flip = playerID, face, flip
	g.last = res
	g.phase = Settled
	g.logger.Info("Round settled", "round", g.round, "called", face, "flip", flip, "paid", res.Paid, "house", res.House)
	return res, nil
}

// settle pays the raked pot evenly to winners. Chips that do not divide
// evenly go to the house.
func (g *Game) settle(winners []*Seat) *Result {
	rake := g.pot * g.cfg.RakeBps / basisPts
	res := &Result{
		Round:   g.round,
		Pot:     g.pot,
		Rake:    rake,
		Payouts: make(map[string]int64, len(winners)),
	}
	net := g.pot - rake
	share := net / int64(len(winners))
	for _, s := range winners {
		s.Stack += share
		res.Payouts[s.PlayerID] = share
		res.Paid += share
	}
	res.House = g.pot - res.Paid
	g.pot = 0
	return res
}

// Phase returns where the current round is.
func (g *Game) Phase() Phase { return g.phase }

// Caller returns who must call, while a round is open.
func (g *Game) Caller() (string, bool) {
	if g.phase != Calling {
		return "", false
	}
	return g.seats[g.caller].PlayerID, true
}

// Pot returns the chips at stake.
func (g *Game) Pot() int64 { return g.pot }

// Stack returns a seat's chips.
func (g *Game) Stack(playerID string) (int64, bool) {
	i := g.seat(playerID)
	if i < 0 {
		return 0, false
	}
	return g.seats[i].Stack, true
}

// LastResult returns the most recent settlement.
func (g *Game) LastResult() *Result { return g.last }

func (g *Game) seat(playerID string) int {
	for i, s := range g.seats {
		if s.PlayerID == playerID {
			return i
		}
	}
	return -1
}
