package engine

import (
	"time"

	"github.com/lox/pokertable/internal/sidegame"
)

// ProposeSideGame opens a side game from playerID's seat to the seats of
// invitees.
func (e *Engine) ProposeSideGame(playerID, kind string, stake int64, params map[string]string, invitees []string, ttl time.Duration) (*sidegame.SideGame, error) {
	s := e.seatOf(playerID)
	if s == nil {
		return nil, ErrNotSeated
	}
	var inv []sidegame.Invitee
	for _, id := range invitees {
		o := e.seatOf(id)
		if o == nil {
			return nil, ErrNotSeated
		}
		inv = append(inv, sidegame.Invitee{Seat: o.Index, PlayerID: id})
	}
	return e.sideGames.Propose(sidegame.Proposal{
		Kind:     kind,
		Seat:     s.Index,
		PlayerID: playerID,
		Stake:    stake,
		Params:   params,
		Invitees: inv,
		TTL:      ttl,
	})
}

// RespondSideGame records playerID's answer to a proposal.
func (e *Engine) RespondSideGame(playerID, gameID string, accept bool) (*sidegame.SideGame, error) {
	s := e.seatOf(playerID)
	if s == nil {
		return nil, ErrNotSeated
	}
	return e.sideGames.Respond(gameID, s.Index, accept)
}

// ActivateSideGame starts a proposal early on its proposer's say-so.
func (e *Engine) ActivateSideGame(playerID, gameID string) (*sidegame.SideGame, error) {
	s := e.seatOf(playerID)
	if s == nil {
		return nil, ErrNotSeated
	}
	return e.sideGames.Activate(gameID, s.Index)
}

// ExpireSideGames cancels proposals whose response window has closed.
func (e *Engine) ExpireSideGames(now time.Time) []*sidegame.SideGame {
	return e.sideGames.Expire(now)
}
