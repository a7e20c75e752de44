package sidegame

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/lox/pokertable/internal/ledger"
	"github.com/lox/pokertable/poker"
)

const BestHandKind = "best-hand"

const defaultBestHandRounds = 1

// BestHand pays the stake from every participant to whoever finishes the
// hand with the best cards among them. Participants who fold forfeit, and
// a hand that ends before the river pushes. It repeats for the number of
// hands given in the "hands" parameter.
type BestHand struct{}

func (BestHand) Kind() string { return BestHandKind }

func (BestHand) Validate(params map[string]string) error {
	if v, ok := params["hands"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("best-hand side game: invalid hands %q", v)
		}
	}
	return nil
}

func (BestHand) MaxExposure(stake int64, _ Role, _ int) int64 {
	return stake
}

func (BestHand) Hands(params map[string]string) int {
	if n, err := strconv.Atoi(params["hands"]); err == nil && n > 0 {
		return n
	}
	return defaultBestHandRounds
}

func (BestHand) OnHandComplete(g *SideGame, res HandResult) []ledger.Transfer {
	if len(res.Board) < 5 {
		return nil
	}

	var winners []int
	var bestRank poker.HandRank
	for _, p := range g.OptedIn() {
		rank, ok := res.Ranks[p.Seat]
		if !ok {
			continue
		}
		if len(winners) == 0 {
			winners, bestRank = []int{p.Seat}, rank
			continue
		}
		switch cmp := res.compare(rank, bestRank); {
		case cmp > 0:
			winners, bestRank = []int{p.Seat}, rank
		case cmp == 0:
			winners = append(winners, p.Seat)
		}
	}
	if len(winners) == 0 {
		return nil
	}

	var transfers []ledger.Transfer
	for _, p := range g.OptedIn() {
		if slices.Contains(winners, p.Seat) {
			continue
		}
		share := g.Stake / int64(len(winners))
		remainder := g.Stake % int64(len(winners))
		for i, w := range winners {
			amount := share
			if int64(i) < remainder {
				amount++
			}
			if amount > 0 {
				transfers = append(transfers, ledger.Transfer{From: p.Seat, To: w, Amount: amount, Tag: g.ID})
			}
		}
	}
	return transfers
}
