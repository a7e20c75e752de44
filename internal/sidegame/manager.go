package sidegame

import (
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokertable/internal/gameid"
	"github.com/lox/pokertable/internal/ledger"
	"github.com/lox/pokertable/poker"
)

// DefaultProposalTTL is how long a proposal waits for responses.
const DefaultProposalTTL = 30 * time.Second

// Invitee is a seat offered a side game.
type Invitee struct {
	Seat     int
	PlayerID string
}

// Proposal opens a new side game.
type Proposal struct {
	Kind     string
	Seat     int
	PlayerID string
	Stake    int64
	Params   map[string]string
	Invitees []Invitee
	TTL      time.Duration
}

// Manager owns the side games of one table and moves money for them through
// the table's ledger. Like the ledger it is driven by the table's actor and
// is not safe for concurrent use.
type Manager struct {
	registry *Registry
	ledger   *ledger.Ledger
	clock    quartz.Clock
	ids      *gameid.Generator
	logger   *log.Logger

	games []*SideGame
}

// NewManager creates a manager for one table.
func NewManager(registry *Registry, l *ledger.Ledger, clock quartz.Clock, ids *gameid.Generator, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	if ids == nil {
		ids = gameid.NewGenerator(clock, nil)
	}
	return &Manager{
		registry: registry,
		ledger:   l,
		clock:    clock,
		ids:      ids,
		logger:   logger.WithPrefix("sidegame"),
	}
}

// Propose opens a side game. Nothing is committed until a seat accepts, but
// the proposer must be able to cover one acceptor up front.
func (m *Manager) Propose(p Proposal) (*SideGame, error) {
	def, ok := m.registry.Lookup(p.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, p.Kind)
	}
	if p.Stake <= 0 {
		return nil, ErrInvalidStake
	}
	if err := def.Validate(p.Params); err != nil {
		return nil, err
	}

	g := &SideGame{
		ID:        m.ids.New(gameid.PrefixSideGame),
		Kind:      p.Kind,
		Status:    StatusProposed,
		Proposer:  p.Seat,
		Stake:     p.Stake,
		Params:    p.Params,
		HandsLeft: def.Hands(p.Params),
		Participants: []*Participant{{
			Seat:      p.Seat,
			PlayerID:  p.PlayerID,
			Proposer:  true,
			OptedIn:   true,
			Responded: true,
		}},
	}
	for _, inv := range p.Invitees {
		if inv.Seat == p.Seat {
			continue
		}
		if _, dup := g.Participant(inv.Seat); dup {
			continue
		}
		g.Participants = append(g.Participants, &Participant{Seat: inv.Seat, PlayerID: inv.PlayerID})
	}
	if len(g.Participants) < 2 {
		return nil, ErrNoInvitees
	}

	need := def.MaxExposure(p.Stake, RoleProposer, 1)
	if avail := m.ledger.Available(p.Seat); avail < need {
		return nil, fmt.Errorf("%w: proposer has %d, needs %d", ledger.ErrInsufficientAvailable, avail, need)
	}

	ttl := p.TTL
	if ttl <= 0 {
		ttl = DefaultProposalTTL
	}
	g.ProposedAt = m.clock.Now()
	g.ExpiresAt = g.ProposedAt.Add(ttl)
	m.games = append(m.games, g)

	m.logger.Info("Side game proposed", "game", g.ID, "kind", g.Kind, "proposer", p.Seat, "stake", p.Stake)
	return g.clone(), nil
}

// Respond records an invitee's answer. Accepting commits the invitee's
// maximum exposure and grows the proposer's commitment to cover it; if
// either cannot be covered the answer is rejected and nothing changes. When
// the last invitee answers the game activates, or is cancelled if nobody
// accepted.
func (m *Manager) Respond(id string, seat int, accept bool) (*SideGame, error) {
	g, def, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	if g.Status != StatusProposed {
		return nil, ErrNotProposed
	}
	p, ok := g.Participant(seat)
	if !ok || p.Proposer {
		return nil, ErrNotInvited
	}
	if p.Responded {
		return nil, ErrAlreadyAnswered
	}

	if accept {
		exposure := def.MaxExposure(g.Stake, RoleAcceptor, 1)
		if err := m.ledger.Commit(seat, exposure, g.Kind+" side game", g.ID); err != nil {
			return nil, err
		}
		proposer, _ := g.Participant(g.Proposer)
		proposerNeed := def.MaxExposure(g.Stake, RoleProposer, g.acceptors()+1)
		if err := m.commitTo(g.Proposer, g.ID, g.Kind, proposerNeed); err != nil {
			m.ledger.Release(seat, g.ID)
			return nil, fmt.Errorf("proposer cannot cover: %w", err)
		}
		proposer.Commitment = proposerNeed
		p.Commitment = exposure
	}
	p.Responded = true
	p.OptedIn = accept
	m.logger.Debug("Side game response", "game", g.ID, "seat", seat, "accept", accept)

	if g.pending() == 0 {
		if g.acceptors() == 0 {
			m.cancel(g, "declined")
		} else {
			m.activate(g)
		}
	}
	out := g.clone()
	m.prune()
	return out, nil
}

// Activate starts a proposed game early with the seats that have accepted.
// Invitees yet to answer are left out.
func (m *Manager) Activate(id string, seat int) (*SideGame, error) {
	g, _, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	if g.Status != StatusProposed {
		return nil, ErrNotProposed
	}
	if seat != g.Proposer {
		return nil, ErrNotProposer
	}
	if g.acceptors() == 0 {
		return nil, ErrNoAcceptors
	}
	m.activate(g)
	return g.clone(), nil
}

// Expire cancels proposals whose response window closed at or before now.
func (m *Manager) Expire(now time.Time) []*SideGame {
	var expired []*SideGame
	for _, g := range m.games {
		if g.Status == StatusProposed && !now.Before(g.ExpiresAt) {
			m.cancel(g, "expired")
			expired = append(expired, g.clone())
		}
	}
	m.prune()
	return expired
}

// NextExpiry returns the earliest deadline among open proposals.
func (m *Manager) NextExpiry() (time.Time, bool) {
	var next time.Time
	for _, g := range m.games {
		if g.Status == StatusProposed && (next.IsZero() || g.ExpiresAt.Before(next)) {
			next = g.ExpiresAt
		}
	}
	return next, !next.IsZero()
}

// LockForHand binds every active game to the hand about to start and tops
// each participant's commitment back up to its exposure. Participants who
// can no longer cover it are dropped; a game left with a single seat is
// cancelled. It runs before blinds so side-game coverage is fixed before
// cards are seen.
func (m *Manager) LockForHand(hand int) {
	for _, g := range m.games {
		if g.Status != StatusActive {
			continue
		}
		def, _ := m.registry.Lookup(g.Kind)

		for _, p := range g.OptedIn() {
			if p.Proposer {
				continue
			}
			need := def.MaxExposure(g.Stake, RoleAcceptor, 1)
			if err := m.commitTo(p.Seat, g.ID, g.Kind, need); err != nil {
				m.logger.Warn("Dropping side game participant", "game", g.ID, "seat", p.Seat, "error", err)
				m.drop(g, p)
				continue
			}
			p.Commitment = need
		}
		if g.acceptors() == 0 {
			m.cancel(g, "no participants")
			continue
		}

		proposer, _ := g.Participant(g.Proposer)
		need := def.MaxExposure(g.Stake, RoleProposer, g.acceptors())
		if err := m.commitTo(g.Proposer, g.ID, g.Kind, need); err != nil {
			m.logger.Warn("Proposer cannot cover side game", "game", g.ID, "seat", g.Proposer, "error", err)
			m.cancel(g, "proposer short")
			continue
		}
		proposer.Commitment = need
		g.LockedHand = hand
		g.Locked = true
	}
	m.prune()
}

// ResolveFlop settles flop-resolving games locked to hand.
func (m *Manager) ResolveFlop(hand int, flop []poker.Card) []Settlement {
	return m.resolve(hand, func(def Definition, g *SideGame) ([]ledger.Transfer, bool) {
		r, ok := def.(FlopResolver)
		if !ok {
			return nil, false
		}
		return r.OnFlop(g, flop), true
	})
}

// ResolveHandComplete settles hand-complete games locked to the hand.
func (m *Manager) ResolveHandComplete(res HandResult) []Settlement {
	return m.resolve(res.HandNumber, func(def Definition, g *SideGame) ([]ledger.Transfer, bool) {
		r, ok := def.(HandCompleteResolver)
		if !ok {
			return nil, false
		}
		return r.OnHandComplete(g, res), true
	})
}

func (m *Manager) resolve(hand int, fire func(Definition, *SideGame) ([]ledger.Transfer, bool)) []Settlement {
	var out []Settlement
	for _, g := range m.games {
		if g.Status != StatusActive || !g.Locked || g.LockedHand != hand {
			continue
		}
		def, _ := m.registry.Lookup(g.Kind)
		transfers, fired := fire(def, g)
		if !fired {
			continue
		}

		results := m.ledger.Settle(transfers)
		out = append(out, Settlement{GameID: g.ID, Kind: g.Kind, Results: results})
		m.logger.Info("Side game settled", "game", g.ID, "kind", g.Kind, "hand", hand, "transfers", len(results))

		g.HandsLeft--
		if g.HandsLeft <= 0 {
			g.Status = StatusCompleted
			m.release(g)
		} else {
			g.LockedHand = 0
			g.Locked = false
		}
	}
	m.prune()
	return out
}

// SeatLeft removes a departing seat from every game. A departing proposer
// cancels its games; a departing acceptor's commitment is released and the
// proposer's exposure shrinks accordingly.
func (m *Manager) SeatLeft(seat int) {
	for _, g := range m.games {
		if g.Status != StatusProposed && g.Status != StatusActive {
			continue
		}
		if seat == g.Proposer {
			m.cancel(g, "proposer left")
			continue
		}
		p, ok := g.Participant(seat)
		if !ok {
			continue
		}
		if g.Status == StatusProposed && !p.Responded {
			p.Responded = true
			if g.pending() == 0 {
				if g.acceptors() == 0 {
					m.cancel(g, "declined")
				} else {
					m.activate(g)
				}
			}
			continue
		}
		if p.OptedIn {
			m.drop(g, p)
			if g.acceptors() == 0 {
				m.cancel(g, "no participants")
				continue
			}
			m.shrinkProposer(g)
		}
	}
	m.prune()
}

// Games returns copies of every open or running game.
func (m *Manager) Games() []*SideGame {
	out := make([]*SideGame, 0, len(m.games))
	for _, g := range m.games {
		out = append(out, g.clone())
	}
	return out
}

// Game returns a copy of one game.
func (m *Manager) Game(id string) (*SideGame, bool) {
	for _, g := range m.games {
		if g.ID == id {
			return g.clone(), true
		}
	}
	return nil, false
}

func (m *Manager) lookup(id string) (*SideGame, Definition, error) {
	for _, g := range m.games {
		if g.ID == id {
			def, ok := m.registry.Lookup(g.Kind)
			if !ok {
				return nil, nil, fmt.Errorf("%w: %q", ErrUnknownKind, g.Kind)
			}
			return g, def, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: %s", ErrUnknownGame, id)
}

// commitTo raises or lowers a seat's commitment under tag to amount.
func (m *Manager) commitTo(seat int, tag, kind string, amount int64) error {
	current := m.ledger.Committed(seat, tag)
	switch {
	case current == amount:
		return nil
	case current == 0:
		return m.ledger.Commit(seat, amount, kind+" side game", tag)
	default:
		return m.ledger.Reprice(seat, tag, amount)
	}
}

func (m *Manager) activate(g *SideGame) {
	g.Participants = slices.DeleteFunc(g.Participants, func(p *Participant) bool { return !p.OptedIn })
	g.Status = StatusActive
	m.shrinkProposer(g)
	m.logger.Info("Side game active", "game", g.ID, "kind", g.Kind, "participants", len(g.Participants))
}

func (m *Manager) shrinkProposer(g *SideGame) {
	def, _ := m.registry.Lookup(g.Kind)
	proposer, _ := g.Participant(g.Proposer)
	need := def.MaxExposure(g.Stake, RoleProposer, g.acceptors())
	if need < m.ledger.Committed(g.Proposer, g.ID) {
		if err := m.ledger.Reprice(g.Proposer, g.ID, need); err == nil {
			proposer.Commitment = need
		}
	}
}

func (m *Manager) drop(g *SideGame, p *Participant) {
	m.ledger.Release(p.Seat, g.ID)
	p.OptedIn = false
	p.Commitment = 0
	g.Participants = slices.DeleteFunc(g.Participants, func(x *Participant) bool { return x == p })
}

func (m *Manager) cancel(g *SideGame, reason string) {
	g.Status = StatusCancelled
	m.release(g)
	m.logger.Info("Side game cancelled", "game", g.ID, "kind", g.Kind, "reason", reason)
}

func (m *Manager) release(g *SideGame) {
	for _, p := range g.Participants {
		m.ledger.Release(p.Seat, g.ID)
		p.Commitment = 0
	}
}

// prune forgets games that reached a terminal state.
func (m *Manager) prune() {
	m.games = slices.DeleteFunc(m.games, func(g *SideGame) bool {
		return g.Status == StatusCompleted || g.Status == StatusCancelled
	})
}
