package sidegame

import (
	"fmt"

	"github.com/lox/pokertable/internal/ledger"
	"github.com/lox/pokertable/poker"
)

const ColorKind = "color"

// flopCards is the number of cards the colour proposition prices.
const flopCards = 3

// Color is a proposition on the colours of the three flop cards. The
// proposer names a colour; against each acceptor the proposer wins the stake
// for every flop card of that colour and pays it for every card of the other,
// so a two-to-one flop moves one stake.
type Color struct{}

func (Color) Kind() string { return ColorKind }

func (Color) Validate(params map[string]string) error {
	if _, err := poker.ParseColor(params["color"]); err != nil {
		return fmt.Errorf("color side game: %w", err)
	}
	return nil
}

func (Color) MaxExposure(stake int64, role Role, opponents int) int64 {
	if role == RoleProposer {
		return flopCards * stake * int64(opponents)
	}
	return flopCards * stake
}

func (Color) Hands(map[string]string) int { return 1 }

func (Color) OnFlop(g *SideGame, flop []poker.Card) []ledger.Transfer {
	if len(flop) != flopCards {
		return nil
	}
	color, err := poker.ParseColor(g.Params["color"])
	if err != nil {
		return nil
	}

	var own int64
	for _, c := range flop {
		if c.Color() == color {
			own++
		}
	}
	net := (own - (flopCards - own)) * g.Stake

	var transfers []ledger.Transfer
	for _, p := range g.OptedIn() {
		if p.Proposer {
			continue
		}
		switch {
		case net > 0:
			transfers = append(transfers, ledger.Transfer{From: p.Seat, To: g.Proposer, Amount: net, Tag: g.ID})
		case net < 0:
			transfers = append(transfers, ledger.Transfer{From: g.Proposer, To: p.Seat, Amount: -net, Tag: g.ID})
		}
	}
	return transfers
}
