package poker

// HoleCardCategory is a coarse pre-flop strength bucket for two hole cards.
type HoleCardCategory string

const (
	CategoryPremium HoleCardCategory = "Premium"
	CategoryStrong  HoleCardCategory = "Strong"
	CategoryMedium  HoleCardCategory = "Medium"
	CategoryWeak    HoleCardCategory = "Weak"
	CategoryTrash   HoleCardCategory = "Trash"
	CategoryUnknown HoleCardCategory = "Unknown"
)

// CategorizeHoleCards buckets two hole cards: Premium (JJ+, AK), Strong (TT,
// AQ, AJ), Medium (77-99, suited broadway), Weak (22-66, suited connectors),
// Trash (everything else).
func CategorizeHoleCards(a, b Card) HoleCardCategory {
	if a.Rank() > Ace || b.Rank() > Ace {
		return CategoryUnknown
	}

	low, high := a.Rank(), b.Rank()
	if low > high {
		low, high = high, low
	}
	pair := low == high
	suited := a.Suit() == b.Suit()

	switch {
	case pair && low >= Jack, high == Ace && low == King:
		return CategoryPremium
	case pair && low == Ten, high == Ace && (low == Queen || low == Jack):
		return CategoryStrong
	case pair && low >= Seven, suited && low >= Ten:
		return CategoryMedium
	case pair, suited && high-low <= 2:
		return CategoryWeak
	}
	return CategoryTrash
}

// IsDeuceSeven reports whether two hole cards are a seven and a deuce of
// different suits, the worst starting hand in hold'em.
func IsDeuceSeven(a, b Card) bool {
	if a.Suit() == b.Suit() {
		return false
	}
	return (a.Rank() == Seven && b.Rank() == Two) || (a.Rank() == Two && b.Rank() == Seven)
}
