package rules

import (
	"errors"
	"fmt"

	"github.com/lox/pokertable/internal/ledger"
	"github.com/lox/pokertable/poker"
)

const (
	DeuceSevenName = "deuce-seven"

	// LiabilityTag marks variant liability commitments in the side-pot ledger.
	LiabilityTag = "liability"

	defaultBounty = 100

	// At most four seats can win holding seven-deuce offsuit.
	maxBountyWinners = 4
)

// ErrSideDepositRequired is returned by liability variants to players who
// join without enough in their side-pot account.
var ErrSideDepositRequired = errors.New("side-pot deposit required")

// DeuceSeven is hold'em where winning a pot with seven-deuce offsuit collects
// a bounty from every other seat dealt into the hand. Each seat's exposure
// must be committed in its side-pot account before cards are dealt.
type DeuceSeven struct {
	Bounty int64
}

// NewDeuceSeven returns the variant with a bounty, defaulting when zero.
func NewDeuceSeven(bounty int64) DeuceSeven {
	if bounty <= 0 {
		bounty = defaultBounty
	}
	return DeuceSeven{Bounty: bounty}
}

func (DeuceSeven) Name() string { return DeuceSevenName }

// CanJoin asks human players to bring at least one bounty. Automated seats
// are topped up by the table instead.
func (d DeuceSeven) CanJoin(_ TableView, req JoinRequest) error {
	if req.Automated || req.SideDeposit >= d.Bounty {
		return nil
	}
	return fmt.Errorf("%w: need %d, have %d", ErrSideDepositRequired, d.Bounty, req.SideDeposit)
}

// Liability is one bounty per possible seven-deuce winner among the seat's
// opponents. A seat holding seven-deuce cannot pay itself and owes nothing.
func (d DeuceSeven) Liability(ctx LiabilityContext) int64 {
	if !ctx.Seat.DealtIn || ctx.Opponents <= 0 {
		return 0
	}
	if holdsDeuceSeven(ctx.Seat.HoleCards) {
		return 0
	}
	return d.Bounty * int64(min(maxBountyWinners, ctx.Opponents))
}

// OnPotWin pays the bounty when a seven-deuce holder wins the main pot.
func (d DeuceSeven) OnPotWin(ctx PotWinContext) PotWinResult {
	if ctx.PotIndex != 0 {
		return PotWinResult{}
	}

	var res PotWinResult
	for _, w := range ctx.Winners {
		winner, ok := seatByIndex(ctx.Seats, w)
		if !ok || !holdsDeuceSeven(winner.HoleCards) {
			continue
		}
		for _, s := range ctx.Seats {
			if s.Index == w || !s.DealtIn || holdsDeuceSeven(s.HoleCards) {
				continue
			}
			res.Transfers = append(res.Transfers, ledger.Transfer{
				From:   s.Index,
				To:     w,
				Amount: d.Bounty,
				Tag:    LiabilityTag,
			})
		}
		res.CustomMessage = fmt.Sprintf("seat %d collects the seven-deuce bounty", w)
	}
	return res
}

func holdsDeuceSeven(hole []poker.Card) bool {
	return len(hole) == 2 && poker.IsDeuceSeven(hole[0], hole[1])
}

func seatByIndex(seats []SeatView, idx int) (SeatView, bool) {
	for _, s := range seats {
		if s.Index == idx {
			return s, true
		}
	}
	return SeatView{}, false
}
