package rules

import "github.com/lox/pokertable/poker"

const OmahaName = "omaha"

// Omaha deals four hole cards; a hand must use exactly two of them with
// exactly three from the board.
type Omaha struct{}

func (Omaha) Name() string { return OmahaName }

func (Omaha) HoleCards(p Phase) int {
	if p == PreFlop {
		return 4
	}
	return 0
}

func (Omaha) EvaluateHand(hole, board []poker.Card) poker.HandRank {
	var best poker.HandRank
	if len(hole) < 2 || len(board) < 3 {
		return best
	}
	for i := 0; i < len(hole); i++ {
		for j := i + 1; j < len(hole); j++ {
			for a := 0; a < len(board); a++ {
				for b := a + 1; b < len(board); b++ {
					for c := b + 1; c < len(board); c++ {
						rank := poker.EvaluateCards(hole[i], hole[j], board[a], board[b], board[c])
						if rank > best {
							best = rank
						}
					}
				}
			}
		}
	}
	return best
}
