// Package engine is the per-table hand state machine. It seats players,
// deals, sequences betting rounds, settles the main pot and drives the
// side-pot ledger and side games at their hand milestones.
//
// The engine is synchronous and not safe for concurrent use: one table
// actor owns it and serialises every command and timer callback.
package engine

import (
	"context"
	"fmt"
	rand "math/rand/v2"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokertable/internal/bankroll"
	"github.com/lox/pokertable/internal/gameid"
	"github.com/lox/pokertable/internal/ledger"
	"github.com/lox/pokertable/internal/randutil"
	"github.com/lox/pokertable/internal/rules"
	"github.com/lox/pokertable/internal/sidegame"
	"github.com/lox/pokertable/poker"
)

// Config fixes a table's shape.
type Config struct {
	Name       string
	Seats      int
	SmallBlind int64
	BigBlind   int64
	// MinBuyIn and MaxBuyIn bound a sit-down; zero leaves a bound open.
	MinBuyIn int64
	MaxBuyIn int64
	Variant  string
	Options  rules.Options
}

// BlindLevel is read once at the start of each hand. Zero blinds keep the
// table's configured blinds; a non-empty Variant swaps the rules for this
// and later hands.
type BlindLevel struct {
	SmallBlind int64
	BigBlind   int64
	Variant    string
	Options    rules.Options
}

// Engine runs the hands of one table.
type Engine struct {
	cfg    Config
	logger *log.Logger

	rng          *rand.Rand
	newDeck      func() *poker.Deck
	bank         bankroll.Store
	variants     *rules.Registry
	rules        *rules.Rules
	ledger       *ledger.Ledger
	sideGames    *sidegame.Manager
	sideRegistry *sidegame.Registry
	ids          *gameid.Generator
	clock        quartz.Clock
	sideTopUpTo  int64

	seats []*Seat

	phase      rules.Phase
	handNumber int
	handID     string
	dealer     int
	turn       int
	deck       *poker.Deck
	board      []poker.Card
	pot        int64
	currentBet int64
	minRaise   int64
	smallBlind int64
	bigBlind   int64

	locked     bool
	customData map[string]any
	lastResult *HandResult
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithRNG sets the random source used for shuffling.
func WithRNG(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithDeckFactory replaces shuffled decks, for stacked-deck tests.
func WithDeckFactory(f func() *poker.Deck) Option {
	return func(e *Engine) { e.newDeck = f }
}

// WithBankroll debits and credits players through store. Without one,
// chips enter and leave the table without an external account.
func WithBankroll(store bankroll.Store) Option {
	return func(e *Engine) { e.bank = store }
}

// WithVariants sets the variant registry.
func WithVariants(r *rules.Registry) Option {
	return func(e *Engine) { e.variants = r }
}

// WithSideGames sets the side-game registry.
func WithSideGames(r *sidegame.Registry) Option {
	return func(e *Engine) { e.sideRegistry = r }
}

// WithClock sets the clock used for ids and proposal deadlines.
func WithClock(clock quartz.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithBotSideTopUp sets how far an automated seat's side-pot account is
// replenished when it cannot cover a liability. Zero tops up to exactly
// the shortfall.
func WithBotSideTopUp(amount int64) Option {
	return func(e *Engine) { e.sideTopUpTo = amount }
}

// New builds an engine in the lobby.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if cfg.Seats < 2 {
		return nil, fmt.Errorf("table needs at least 2 seats, got %d", cfg.Seats)
	}
	if cfg.SmallBlind <= 0 || cfg.BigBlind < cfg.SmallBlind {
		return nil, fmt.Errorf("invalid blinds %d/%d", cfg.SmallBlind, cfg.BigBlind)
	}
	if cfg.Variant == "" {
		cfg.Variant = rules.HoldemName
	}

	e := &Engine{
		cfg:        cfg,
		logger:     log.Default(),
		clock:      quartz.NewReal(),
		variants:   rules.NewRegistry(),
		seats:      make([]*Seat, cfg.Seats),
		phase:      rules.Lobby,
		dealer:     -1,
		turn:       -1,
		smallBlind: cfg.SmallBlind,
		bigBlind:   cfg.BigBlind,
	}

	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.WithPrefix("engine").With("table", cfg.Name)

	if e.rng == nil {
		e.rng = randutil.New(randutil.Seed())
	}
	if e.newDeck == nil {
		e.newDeck = func() *poker.Deck { return poker.NewDeck(e.rng) }
	}
	if e.ids == nil {
		e.ids = gameid.NewGenerator(e.clock, randutil.Intn{R: randutil.Fork(e.rng)})
	}
	if e.sideRegistry == nil {
		e.sideRegistry = sidegame.NewRegistry()
	}
	e.ledger = ledger.New(e.logger)
	e.sideGames = sidegame.NewManager(e.sideRegistry, e.ledger, e.clock, e.ids, e.logger)

	r, err := e.variants.Resolve(cfg.Variant, cfg.Options)
	if err != nil {
		return nil, err
	}
	e.rules = r
	return e, nil
}

// Ledger exposes the side-pot ledger for read access and tests.
func (e *Engine) Ledger() *ledger.Ledger { return e.ledger }

// SideGames exposes the side-game manager.
func (e *Engine) SideGames() *sidegame.Manager { return e.sideGames }

// Rules returns the rules in force.
func (e *Engine) Rules() *rules.Rules { return e.rules }

// Phase returns the current phase.
func (e *Engine) Phase() rules.Phase { return e.phase }

// HandInProgress reports whether a betting phase is active.
func (e *Engine) HandInProgress() bool { return e.phase.IsBetting() }

// HandNumber returns the number of hands started.
func (e *Engine) HandNumber() int { return e.handNumber }

// LastResult returns the result of the most recent finished hand.
func (e *Engine) LastResult() *HandResult { return e.lastResult }

// SitPlayer seats a player with buyIn chips and an optional side-pot
// deposit, both debited from the bankroll. A nil seatIndex takes the first
// free seat. A player sitting mid-hand is dealt in from the next hand.
func (e *Engine) SitPlayer(ctx context.Context, p Player, seatIndex *int, buyIn, sideDeposit int64) (int, error) {
	if e.locked {
		return -1, ErrTableLocked
	}
	if e.seatOf(p.ID) != nil {
		return -1, ErrAlreadySeated
	}
	if buyIn <= 0 || (e.cfg.MinBuyIn > 0 && buyIn < e.cfg.MinBuyIn) || (e.cfg.MaxBuyIn > 0 && buyIn > e.cfg.MaxBuyIn) {
		return -1, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidBuyIn, buyIn, e.cfg.MinBuyIn, e.cfg.MaxBuyIn)
	}
	if sideDeposit < 0 {
		return -1, ErrInvalidAmount
	}

	idx := -1
	if seatIndex != nil {
		if *seatIndex < 0 || *seatIndex >= len(e.seats) {
			return -1, fmt.Errorf("%w: %d", ErrInvalidSeat, *seatIndex)
		}
		if e.seats[*seatIndex] != nil {
			return -1, fmt.Errorf("%w: %d", ErrSeatTaken, *seatIndex)
		}
		idx = *seatIndex
	} else {
		idx = slices.Index(e.seats, nil)
		if idx < 0 {
			return -1, ErrTableFull
		}
	}

	if err := e.rules.CanJoin(e.tableView(), rules.JoinRequest{
		PlayerID:    p.ID,
		Automated:   p.Automated,
		BuyIn:       buyIn,
		SideDeposit: sideDeposit,
	}); err != nil {
		return -1, err
	}

	if e.bank != nil {
		if err := e.bank.Debit(ctx, p.ID, buyIn+sideDeposit); err != nil {
			return -1, err
		}
	}

	e.seats[idx] = &Seat{Index: idx, Player: p, Stack: buyIn}
	if sideDeposit > 0 {
		if err := e.ledger.Deposit(idx, sideDeposit); err != nil {
			return -1, err
		}
	}
	e.logger.Info("Player seated", "player", p.ID, "seat", idx, "buy_in", buyIn, "side", sideDeposit)
	return idx, nil
}

// StandPlayer removes a player. Between hands the seat empties at once. A
// player dealt into the current hand is queued to leave when it ends; with
// immediate set the seat is also folded now, as on a disconnect.
func (e *Engine) StandPlayer(ctx context.Context, playerID string, immediate bool) error {
	s := e.seatOf(playerID)
	if s == nil {
		return ErrNotSeated
	}

	if e.HandInProgress() && s.DealtIn {
		s.StandPending = true
		if immediate && !s.Folded {
			s.Disconnected = true
			e.forceFold(ctx, s)
		}
		e.logger.Info("Stand queued", "player", playerID, "seat", s.Index, "immediate", immediate)
		return nil
	}

	return e.removeSeat(ctx, s)
}

// AddChips tops up a seat's stack from the bankroll between hands.
func (e *Engine) AddChips(ctx context.Context, playerID string, amount int64) error {
	s := e.seatOf(playerID)
	if s == nil {
		return ErrNotSeated
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if e.HandInProgress() && s.DealtIn {
		return ErrHandInProgress
	}
	if e.cfg.MaxBuyIn > 0 && s.Stack+amount > e.cfg.MaxBuyIn {
		return fmt.Errorf("%w: stack would reach %d", ErrInvalidBuyIn, s.Stack+amount)
	}
	if e.bank != nil {
		if err := e.bank.Debit(ctx, playerID, amount); err != nil {
			return err
		}
	}
	s.Stack += amount
	return nil
}

// DepositSide moves funds from the bankroll into a seat's side-pot account.
func (e *Engine) DepositSide(ctx context.Context, playerID string, amount int64) error {
	s := e.seatOf(playerID)
	if s == nil {
		return ErrNotSeated
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if e.bank != nil {
		if err := e.bank.Debit(ctx, playerID, amount); err != nil {
			return err
		}
	}
	return e.ledger.Deposit(s.Index, amount)
}

// removeSeat empties a seat, settles its side games and refunds its stack
// and side-pot balance to the bankroll.
func (e *Engine) removeSeat(ctx context.Context, s *Seat) error {
	e.sideGames.SeatLeft(s.Index)
	refund := s.Stack + e.ledger.Close(s.Index)
	e.seats[s.Index] = nil

	if refund > 0 && e.bank != nil {
		if err := e.bank.Credit(ctx, s.Player.ID, refund); err != nil {
			e.logger.Error("Refund failed", "player", s.Player.ID, "amount", refund, "error", err)
			return err
		}
	}
	e.logger.Info("Player left", "player", s.Player.ID, "seat", s.Index, "refund", refund)
	return nil
}

func (e *Engine) seatOf(playerID string) *Seat {
	for _, s := range e.seats {
		if s != nil && s.Player.ID == playerID {
			return s
		}
	}
	return nil
}

// SeatIndex returns a player's seat.
func (e *Engine) SeatIndex(playerID string) (int, bool) {
	if s := e.seatOf(playerID); s != nil {
		return s.Index, true
	}
	return -1, false
}

func (e *Engine) tableView() rules.TableView {
	occupied := 0
	for _, s := range e.seats {
		if s != nil {
			occupied++
		}
	}
	return rules.TableView{
		Variant:  e.rules.Name(),
		Seats:    len(e.seats),
		Occupied: occupied,
		Phase:    e.phase,
	}
}

// next returns the first seat after from, wrapping, that satisfies ok.
func (e *Engine) next(from int, ok func(*Seat) bool) int {
	n := len(e.seats)
	for i := 1; i <= n; i++ {
		idx := ((from+i)%n + n) % n
		if s := e.seats[idx]; s != nil && ok(s) {
			return idx
		}
	}
	return -1
}

func (e *Engine) count(ok func(*Seat) bool) int {
	n := 0
	for _, s := range e.seats {
		if s != nil && ok(s) {
			n++
		}
	}
	return n
}

// FundedSeats counts seats with chips.
func (e *Engine) FundedSeats() int {
	return e.count(func(s *Seat) bool { return s.Stack > 0 && !s.StandPending })
}

// Conservation is every chip the table holds: the pot, every stack and
// every side-pot balance.
func (e *Engine) Conservation() int64 {
	total := e.pot + e.ledger.Total()
	for _, s := range e.seats {
		if s != nil {
			total += s.Stack
		}
	}
	return total
}
