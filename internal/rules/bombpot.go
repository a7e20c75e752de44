package rules

const BombPotName = "bomb-pot"

// BombPot takes an ante from every seat instead of blinds and skips the
// pre-flop betting round, so the first action comes on the flop. The table
// is locked to newcomers while the hand plays out.
type BombPot struct {
	// Ante per seat. Zero charges two big blinds.
	Ante int64
}

func (BombPot) Name() string { return BombPotName }

func (BombPot) SkipBetting(p Phase) bool {
	return p == PreFlop
}

func (b BombPot) OnRoundStart(ctx RoundContext) RoundStartResult {
	ante := b.Ante
	if ante <= 0 {
		ante = 2 * ctx.BigBlind
	}
	return RoundStartResult{
		CustomData: map[string]any{"bomb_pot": true, "ante": ante},
		LockTable:  true,
		Ante:       ante,
		SkipBlinds: true,
	}
}
