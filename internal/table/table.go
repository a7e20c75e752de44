// Package table runs one engine per goroutine. Each table is an actor:
// player commands and timer continuations arrive on one channel and are
// applied to the engine one at a time, and every change is broadcast to
// subscribers as a complete snapshot.
package table

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokertable/internal/bot"
	"github.com/lox/pokertable/internal/engine"
	"github.com/lox/pokertable/internal/randutil"
	"github.com/lox/pokertable/internal/rules"
	"github.com/lox/pokertable/internal/sidegame"
)

var (
	ErrTableClosed = errors.New("table closed")
	ErrInternal    = errors.New("internal table error")
	ErrNotBot      = errors.New("player is not automated")
)

const (
	DefaultTurnTimeout   = 30 * time.Second
	DefaultThinkDelay    = 800 * time.Millisecond
	DefaultShowdownDelay = 5 * time.Second
	DefaultFoldDelay     = 2 * time.Second
	DefaultStartDelay    = 1 * time.Second
)

// Config is a table's engine shape plus its pacing.
type Config struct {
	ID     string
	Engine engine.Config

	TurnTimeout   time.Duration
	ThinkDelay    time.Duration
	ShowdownDelay time.Duration
	FoldDelay     time.Duration
	StartDelay    time.Duration

	// AutoStart deals the next hand after the hand-end delay whenever two
	// funded seats remain.
	AutoStart bool

	// Levels are played in order, HandsPerLevel hands each; the last level
	// repeats. An empty schedule keeps the engine's configured blinds.
	Levels        []engine.BlindLevel
	HandsPerLevel int

	// BotStrategy names the strategy SeatBot uses when none is given.
	BotStrategy string
}

func (c *Config) applyDefaults() {
	if c.TurnTimeout <= 0 {
		c.TurnTimeout = DefaultTurnTimeout
	}
	if c.ThinkDelay < 0 {
		c.ThinkDelay = 0
	}
	if c.ShowdownDelay <= 0 {
		c.ShowdownDelay = DefaultShowdownDelay
	}
	if c.FoldDelay <= 0 {
		c.FoldDelay = DefaultFoldDelay
	}
	if c.StartDelay <= 0 {
		c.StartDelay = DefaultStartDelay
	}
	if c.HandsPerLevel <= 0 {
		c.HandsPerLevel = 10
	}
	if c.BotStrategy == "" {
		c.BotStrategy = bot.CallName
	}
	if c.Engine.Name == "" {
		c.Engine.Name = c.ID
	}
}

// Table is the actor that owns one engine.
type Table struct {
	id     string
	cfg    Config
	clock  quartz.Clock
	logger *log.Logger

	engine *engine.Engine
	bots   map[string]bot.Strategy
	sched  *TurnScheduler
	expiry *TurnScheduler

	// handLive is set while the actor has a started hand it has not yet
	// seen finish.
	handLive bool

	events chan event
	done   chan struct{}

	latest atomic.Pointer[engine.Snapshot]

	subMu  sync.Mutex
	subs   map[int]chan engine.Snapshot
	nextID int
}

type event struct {
	apply func(context.Context) (any, error)
	resp  chan reply
	fire  *Fire
}

type reply struct {
	value any
	err   error
}

// Option configures a Table.
type Option func(*options)

type options struct {
	clock      quartz.Clock
	logger     *log.Logger
	engineOpts []engine.Option
}

// WithClock sets the clock that drives every timer.
func WithClock(clock quartz.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithEngineOptions passes options through to the engine.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(o *options) { o.engineOpts = append(o.engineOpts, opts...) }
}

// New builds a table. It does nothing until Run is called.
func New(cfg Config, opts ...Option) (*Table, error) {
	cfg.applyDefaults()
	o := options{clock: quartz.NewReal(), logger: log.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger.WithPrefix("table").With("table", cfg.ID)
	engineOpts := append([]engine.Option{
		engine.WithLogger(o.logger),
		engine.WithClock(o.clock),
	}, o.engineOpts...)
	e, err := engine.New(cfg.Engine, engineOpts...)
	if err != nil {
		return nil, err
	}

	t := &Table{
		id:     cfg.ID,
		cfg:    cfg,
		clock:  o.clock,
		logger: logger,
		engine: e,
		bots:   make(map[string]bot.Strategy),
		events: make(chan event, 64),
		done:   make(chan struct{}),
		subs:   make(map[int]chan engine.Snapshot),
	}
	t.sched = NewTurnScheduler(o.clock, t.post)
	t.expiry = NewTurnScheduler(o.clock, t.post)
	t.publish()
	return t, nil
}

// ID returns the table id.
func (t *Table) ID() string { return t.id }

// Config returns the table's configuration with defaults applied.
func (t *Table) Config() Config { return t.cfg }

// Run is the actor loop. It returns when ctx is cancelled.
func (t *Table) Run(ctx context.Context) error {
	defer close(t.done)
	t.logger.Info("Table running", "variant", t.cfg.Engine.Variant, "seats", t.cfg.Engine.Seats)

	for {
		select {
		case <-ctx.Done():
			t.sched.Cancel()
			t.expiry.Cancel()
			t.logger.Info("Table stopped")
			return nil
		case ev := <-t.events:
			if ev.fire != nil {
				f := *ev.fire
				_, _ = t.safely(ctx, func() (any, error) {
					t.handleFire(ctx, f)
					return nil, nil
				})
				continue
			}
			value, err := t.safely(ctx, func() (any, error) { return ev.apply(ctx) })
			ev.resp <- reply{value: value, err: err}
		}
	}
}

// safely runs fn on the actor. A panic aborts the hand in progress and is
// returned as ErrInternal, so a faulty variant or strategy only costs this
// table its hand.
func (t *Table) safely(ctx context.Context, fn func() (any, error)) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInternal, r)
			t.logger.Error("Table event panicked", "panic", r, "stack", string(debug.Stack()))
			t.abort(ctx, err)
		}
	}()
	return fn()
}

// abort refunds the hand in progress and parks the table in the lobby.
func (t *Table) abort(ctx context.Context, cause error) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("Hand abort panicked", "panic", r)
		}
	}()
	t.sched.Cancel()
	t.handLive = false
	t.engine.Abort(ctx, cause)
	t.engine.ReturnToLobby()
	t.publish()
}

// post hands a timer fire to the actor. It runs on the clock's goroutine.
func (t *Table) post(f Fire) {
	select {
	case t.events <- event{fire: &f}:
	case <-t.done:
	}
}

// call runs fn on the actor and waits for its result. fn receives the
// caller's context.
func call[T any](ctx context.Context, t *Table, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	ev := event{
		apply: func(context.Context) (any, error) { return fn(ctx) },
		resp:  make(chan reply, 1),
	}
	select {
	case t.events <- ev:
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-t.done:
		return zero, ErrTableClosed
	}

	select {
	case r := <-ev.resp:
		if r.err != nil {
			return zero, r.err
		}
		v, _ := r.value.(T)
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-t.done:
		return zero, ErrTableClosed
	}
}

// Sit seats a player. See engine.SitPlayer.
func (t *Table) Sit(ctx context.Context, p engine.Player, seat *int, buyIn, sideDeposit int64) (int, error) {
	return call(ctx, t, func(ctx context.Context) (int, error) {
		idx, err := t.engine.SitPlayer(ctx, p, seat, buyIn, sideDeposit)
		if err != nil {
			return idx, err
		}
		t.maybeScheduleStart()
		t.publish()
		return idx, nil
	})
}

// SeatBot seats an automated player driven by strategy, or by the table's
// default strategy when strategy is nil.
func (t *Table) SeatBot(ctx context.Context, p engine.Player, strategy bot.Strategy, seat *int, buyIn, sideDeposit int64) (int, error) {
	p.Automated = true
	if strategy == nil {
		s, err := bot.New(t.cfg.BotStrategy, randutil.New(randutil.Seed()), t.logger)
		if err != nil {
			return -1, err
		}
		strategy = s
	}
	return call(ctx, t, func(ctx context.Context) (int, error) {
		idx, err := t.engine.SitPlayer(ctx, p, seat, buyIn, sideDeposit)
		if err != nil {
			return idx, err
		}
		t.bots[p.ID] = strategy
		t.maybeScheduleStart()
		t.publish()
		return idx, nil
	})
}

// Stand removes a player, queuing the request when they are in a hand.
func (t *Table) Stand(ctx context.Context, playerID string, immediate bool) error {
	_, err := call(ctx, t, func(ctx context.Context) (struct{}, error) {
		turn := t.engine.CurrentTurnPlayerID()
		if err := t.engine.StandPlayer(ctx, playerID, immediate); err != nil {
			return struct{}{}, err
		}
		t.forgetBots()
		if t.handLive {
			if t.engine.CurrentTurnPlayerID() != turn || !t.engine.HandInProgress() {
				t.sync(ctx)
			}
		} else {
			// Between hands a pending start stays armed; nextHand re-checks
			// occupancy when it fires.
			t.maybeScheduleStart()
		}
		t.publish()
		return struct{}{}, nil
	})
	return err
}

// AddChips tops up a seat between hands.
func (t *Table) AddChips(ctx context.Context, playerID string, amount int64) error {
	_, err := call(ctx, t, func(ctx context.Context) (struct{}, error) {
		if err := t.engine.AddChips(ctx, playerID, amount); err != nil {
			return struct{}{}, err
		}
		t.maybeScheduleStart()
		t.publish()
		return struct{}{}, nil
	})
	return err
}

// DepositSide funds a seat's side-pot account.
func (t *Table) DepositSide(ctx context.Context, playerID string, amount int64) error {
	_, err := call(ctx, t, func(ctx context.Context) (struct{}, error) {
		if err := t.engine.DepositSide(ctx, playerID, amount); err != nil {
			return struct{}{}, err
		}
		t.publish()
		return struct{}{}, nil
	})
	return err
}

// Act applies a player's decision.
func (t *Table) Act(ctx context.Context, playerID string, action rules.Action, amount int64) (engine.ActionResult, error) {
	return call(ctx, t, func(ctx context.Context) (engine.ActionResult, error) {
		res, err := t.engine.HandlePlayerAction(ctx, playerID, action, amount)
		if err != nil {
			return res, err
		}
		t.sync(ctx)
		t.publish()
		return res, nil
	})
}

// ValidActions lists a player's legal actions.
func (t *Table) ValidActions(ctx context.Context, playerID string) ([]engine.ActionOption, error) {
	return call(ctx, t, func(context.Context) ([]engine.ActionOption, error) {
		return t.engine.ValidActions(playerID), nil
	})
}

// StartHand deals a hand now, cancelling any pending start.
func (t *Table) StartHand(ctx context.Context) error {
	_, err := call(ctx, t, func(ctx context.Context) (struct{}, error) {
		if err := t.startHand(ctx); err != nil {
			return struct{}{}, err
		}
		t.publish()
		return struct{}{}, nil
	})
	return err
}

// ProposeSideGame opens a side game. See engine.ProposeSideGame.
func (t *Table) ProposeSideGame(ctx context.Context, playerID, kind string, stake int64, params map[string]string, invitees []string, ttl time.Duration) (*sidegame.SideGame, error) {
	return call(ctx, t, func(context.Context) (*sidegame.SideGame, error) {
		g, err := t.engine.ProposeSideGame(playerID, kind, stake, params, invitees, ttl)
		if err != nil {
			return nil, err
		}
		t.armExpiry()
		t.publish()
		return g, nil
	})
}

// RespondSideGame answers a side-game proposal.
func (t *Table) RespondSideGame(ctx context.Context, playerID, gameID string, accept bool) (*sidegame.SideGame, error) {
	return call(ctx, t, func(context.Context) (*sidegame.SideGame, error) {
		g, err := t.engine.RespondSideGame(playerID, gameID, accept)
		if err != nil {
			return nil, err
		}
		t.armExpiry()
		t.publish()
		return g, nil
	})
}

// ActivateSideGame starts a proposal without waiting for every answer.
func (t *Table) ActivateSideGame(ctx context.Context, playerID, gameID string) (*sidegame.SideGame, error) {
	return call(ctx, t, func(context.Context) (*sidegame.SideGame, error) {
		g, err := t.engine.ActivateSideGame(playerID, gameID)
		if err != nil {
			return nil, err
		}
		t.armExpiry()
		t.publish()
		return g, nil
	})
}

// State reads a fresh snapshot through the actor, after every event
// queued before it.
func (t *Table) State(ctx context.Context) (engine.Snapshot, error) {
	return call(ctx, t, func(context.Context) (engine.Snapshot, error) {
		return t.snapshot(), nil
	})
}

// Snapshot returns the most recently published snapshot without waiting
// for the actor.
func (t *Table) Snapshot() engine.Snapshot {
	return *t.latest.Load()
}

// Subscribe receives every published snapshot. Slow subscribers only see
// the newest one. The returned function unsubscribes.
func (t *Table) Subscribe() (<-chan engine.Snapshot, func()) {
	ch := make(chan engine.Snapshot, 1)
	ch <- t.Snapshot()

	t.subMu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = ch
	t.subMu.Unlock()

	return ch, func() {
		t.subMu.Lock()
		delete(t.subs, id)
		t.subMu.Unlock()
	}
}

func (t *Table) snapshot() engine.Snapshot {
	snap := t.engine.Snapshot()
	snap.Table = t.id
	if t.sched.Pending() == KindTurn {
		if deadline, ok := t.sched.Deadline(); ok {
			snap.TurnEndsAtMs = deadline.UnixMilli()
		}
	}
	return snap
}

// publish stores and broadcasts the current snapshot.
func (t *Table) publish() {
	snap := t.snapshot()
	t.latest.Store(&snap)

	t.subMu.Lock()
	defer t.subMu.Unlock()
	for _, ch := range t.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
