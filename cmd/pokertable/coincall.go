package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/lox/pokertable/internal/coincall"
	"github.com/lox/pokertable/internal/randutil"
)

// CoinCallCmd plays rounds of the coin-call wager with random calls.
type CoinCallCmd struct {
	Players int    `short:"p" default:"3" help:"Players at the table"`
	Rounds  int    `short:"n" default:"100" help:"Rounds to play"`
	Stack   int64  `default:"10000" help:"Starting stack"`
	Ante    int64  `default:"500" help:"Ante per player"`
	RakeBps int64  `default:"500" help:"House rake in basis points"`
	Seed    *int64 `help:"Deterministic RNG seed"`
}

func (c *CoinCallCmd) Run(logger *log.Logger) error {
	seed := randutil.Seed()
	if c.Seed != nil {
		seed = *c.Seed
	}
	rng := randutil.New(seed)

	g, err := coincall.New(coincall.Config{Ante: c.Ante, RakeBps: c.RakeBps}, randutil.Fork(rng), logger)
	if err != nil {
		return err
	}
	players := make([]simResult, c.Players)
	for i := range players {
		id := fmt.Sprintf("player-%d", i+1)
		if err := g.Sit(id, c.Stack); err != nil {
			return err
		}
		players[i] = simResult{Player: id, Strategy: "coin"}
	}

	var house int64
	played := 0
	for ; played < c.Rounds; played++ {
		if err := g.Start(); err != nil {
			break
		}
		caller, _ := g.Caller()
		face := coincall.Heads
		if rng.IntN(2) == 1 {
			face = coincall.Tails
		}
		res, err := g.Call(caller, face)
		if err != nil {
			return err
		}
		house += res.House
		for i := range players {
			if _, ok := res.Payouts[players[i].Player]; ok {
				players[i].Won++
			}
		}
	}

	for i := range players {
		stack, _ := g.Stack(players[i].Player)
		players[i].Net = stack - c.Stack
	}
	out := renderResults(played, players)
	fmt.Println(out)
	fmt.Println(strings.Repeat(" ", 13) + headerStyle.Render(fmt.Sprintf("house %+d", house)))
	return nil
}
