package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/pokertable/internal/bankroll"
	"github.com/lox/pokertable/internal/bot"
	"github.com/lox/pokertable/internal/engine"
	"github.com/lox/pokertable/internal/randutil"
	"github.com/lox/pokertable/internal/rules"
	"github.com/lox/pokertable/internal/statistics"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	nameStyle = lipgloss.NewStyle().
			Width(12).
			Foreground(lipgloss.Color("14"))

	winStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	lossStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

// SimulateCmd plays a table of bots without the actor or any timers.
type SimulateCmd struct {
	Hands      int      `short:"n" default:"1000" help:"Hands to play"`
	Strategies []string `short:"s" default:"aggro,call,rand,fold" help:"One strategy per seat"`
	Variant    string   `default:"holdem" help:"Variant to play"`
	Stack      int64    `default:"1000" help:"Starting stack"`
	SmallBlind int64    `default:"5" help:"Small blind"`
	BigBlind   int64    `default:"10" help:"Big blind"`
	Bounty     int64    `help:"Bounty for bounty variants"`
	Ante       int64    `help:"Ante for ante variants"`
	Seed       *int64   `help:"Deterministic RNG seed"`
}

type simResult struct {
	Player   string
	Strategy string
	Net      int64
	Won      int
	Stats    *statistics.Player
}

func (c *SimulateCmd) Run(logger *log.Logger) error {
	seed := randutil.Seed()
	if c.Seed != nil {
		seed = *c.Seed
	}
	rng := randutil.New(seed)
	logger.Info("Simulating", "hands", c.Hands, "seats", len(c.Strategies), "variant", c.Variant, "seed", seed)

	// Bots draw from a house bankroll so side-pot top-ups stay inside the
	// conservation check.
	const reserve = 1_000_000
	funds := make(map[string]int64, len(c.Strategies))
	for i, name := range c.Strategies {
		funds[fmt.Sprintf("%s-%d", name, i+1)] = c.Stack + reserve
	}
	bank := bankroll.NewMemory(funds)

	e, err := engine.New(engine.Config{
		Name:       "simulation",
		Seats:      len(c.Strategies),
		SmallBlind: c.SmallBlind,
		BigBlind:   c.BigBlind,
		Variant:    c.Variant,
		Options:    rules.Options{Bounty: c.Bounty, Ante: c.Ante},
	},
		engine.WithLogger(logger.WithPrefix("engine")),
		engine.WithRNG(randutil.Fork(rng)),
		engine.WithBankroll(bank),
		engine.WithBotSideTopUp(c.Bounty*8),
	)
	if err != nil {
		return err
	}

	ctx := context.Background()
	strategies := make(map[string]bot.Strategy, len(c.Strategies))
	results := make([]simResult, len(c.Strategies))
	for i, name := range c.Strategies {
		strategy, err := bot.New(name, randutil.Fork(rng), logger)
		if err != nil {
			return err
		}
		id := fmt.Sprintf("%s-%d", name, i+1)
		seat := i
		if _, err := e.SitPlayer(ctx, engine.Player{ID: id, Name: id, Automated: true}, &seat, c.Stack, 0); err != nil {
			return err
		}
		strategies[id] = strategy
		results[i] = simResult{Player: id, Strategy: name}
	}
	start := e.Conservation() + bank.Total()
	tracker := statistics.NewTracker()

	played := 0
	for played < c.Hands && e.FundedSeats() >= 2 {
		before, err := wealth(ctx, e.Snapshot(), bank)
		if err != nil {
			return err
		}
		if err := e.StartHand(ctx, engine.BlindLevel{}); err != nil {
			return fmt.Errorf("hand %d: %w", played+1, err)
		}
		dealt := e.Snapshot()
		for e.HandInProgress() {
			id := e.CurrentTurnPlayerID()
			d := strategies[id].Decide(bot.ViewFor(e.Snapshot(), id, e.ValidActions(id)))
			if _, err := e.HandlePlayerAction(ctx, id, d.Action, d.Amount); err != nil {
				logger.Debug("Decision rejected", "player", id, "action", d.Action, "error", err)
				if _, err := e.HandlePlayerAction(ctx, id, e.DefaultAction(id), 0); err != nil {
					return err
				}
			}
		}
		played++

		if got := e.Conservation() + bank.Total(); got != start {
			return fmt.Errorf("hand %d: chips not conserved: %d != %d", played, got, start)
		}
		res := e.LastResult()
		if res == nil {
			continue
		}
		for seat := range res.Winnings {
			results[seat].Won++
		}
		after, err := wealth(ctx, e.Snapshot(), bank)
		if err != nil {
			return err
		}
		recordHand(tracker, dealt, res, before, after)
	}
	if err := tracker.Validate(); err != nil {
		return err
	}

	snap := e.Snapshot()
	for i := range results {
		balance, err := bank.Balance(ctx, results[i].Player)
		if err != nil {
			return err
		}
		results[i].Net = balance - c.Stack - reserve
		results[i].Stats = tracker.Player(results[i].Player)
		if seat, ok := snap.Seat(results[i].Player); ok {
			results[i].Net += seat.Stack
			if seat.Side != nil {
				results[i].Net += seat.Side.Balance
			}
		}
	}
	fmt.Println(renderResults(played, results))
	return nil
}

// wealth is each seated player's stack, side balance and bankroll.
func wealth(ctx context.Context, snap engine.Snapshot, bank *bankroll.Memory) (map[string]int64, error) {
	out := make(map[string]int64, len(snap.Seats))
	for _, seat := range snap.Seats {
		if seat.Empty {
			continue
		}
		balance, err := bank.Balance(ctx, seat.PlayerID)
		if err != nil {
			return nil, err
		}
		total := seat.Stack + balance
		if seat.Side != nil {
			total += seat.Side.Balance
		}
		out[seat.PlayerID] = total
	}
	return out, nil
}

// recordHand adds every dealt-in player's result to tracker. dealt is the
// table as the hand began.
func recordHand(tracker *statistics.Tracker, dealt engine.Snapshot, res *engine.HandResult, before, after map[string]int64) {
	var pot int64
	for _, award := range res.Pots {
		pot += award.Amount
	}
	n := len(dealt.Seats)
	for _, seat := range dealt.Seats {
		if seat.Empty || !seat.DealtIn {
			continue
		}
		tracker.Record(seat.PlayerID, statistics.HandResult{
			Net:      after[seat.PlayerID] - before[seat.PlayerID],
			BigBlind: dealt.BigBlind,
			Position: (seat.Index - dealt.Dealer + n) % n,
			Showdown: !res.FoldedOut && !res.Aborted,
			Pot:      pot,
		})
	}
}

func renderResults(hands int, results []simResult) string {
	slices.SortFunc(results, func(a, b simResult) int {
		switch {
		case a.Net > b.Net:
			return -1
		case a.Net < b.Net:
			return 1
		}
		return strings.Compare(a.Player, b.Player)
	})

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%d hands", hands)))
	b.WriteString("\n")
	for _, r := range results {
		style := winStyle
		if r.Net < 0 {
			style = lossStyle
		}
		fmt.Fprintf(&b, "%s %s  won %d", nameStyle.Render(r.Player), style.Render(fmt.Sprintf("%+d", r.Net)), r.Won)
		if r.Stats != nil && r.Stats.Hands() > 0 {
			lo, hi := r.Stats.ConfidenceInterval95()
			fmt.Fprintf(&b, "  %+.1f bb/100 [%+.1f, %+.1f]  showdown %+.1f bb  non-showdown %+.1f bb",
				r.Stats.BBPer100(), lo, hi, r.Stats.ShowdownBB, r.Stats.NonShowdownBB)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
