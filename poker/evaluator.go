package poker

import (
	"math/bits"
)

// HandRank is the strength of a five-card poker hand. Higher values are
// stronger. The category sits above bit 20 and the ranks that break ties
// are packed below it, four bits each, most significant first.
type HandRank uint32

// HandType enumerates the categories of poker hands ordered from weakest to strongest.
type HandType uint8

const (
	HighCard HandType = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

const categoryShift = 20

var handTypeNames = [...]string{
	"High Card",
	"Pair",
	"Two Pair",
	"Three of a Kind",
	"Straight",
	"Flush",
	"Full House",
	"Four of a Kind",
	"Straight Flush",
}

func (t HandType) String() string {
	if int(t) < len(handTypeNames) {
		return handTypeNames[t]
	}
	return "Unknown"
}

// Type returns the category of the hand.
func (hr HandRank) Type() HandType {
	return HandType(hr >> categoryShift)
}

// String returns a human-readable hand description.
func (hr HandRank) String() string {
	if hr == 0 {
		return "No Hand"
	}
	return hr.Type().String()
}

func makeRank(t HandType, ranks ...uint8) HandRank {
	r := uint32(t) << categoryShift
	shift := categoryShift - 4
	for _, k := range ranks {
		r |= uint32(k) << shift
		shift -= 4
	}
	return HandRank(r)
}

// Evaluate returns the best five-card rank contained in a hand of five or
// more cards. Fewer than five cards evaluate to zero, which is weaker than
// every real hand.
func Evaluate(h Hand) HandRank {
	if h.CountCards() < 5 {
		return 0
	}

	var suitMasks [4]uint16
	var rankMask uint16
	for suit := range uint8(4) {
		suitMasks[suit] = h.SuitMask(suit)
		rankMask |= suitMasks[suit]
	}

	// Past seven cards two suits can both hold five or more.
	var straightFlush, flush HandRank
	for _, mask := range suitMasks {
		if bits.OnesCount16(mask) < 5 {
			continue
		}
		if high, ok := straightHigh(mask); ok {
			straightFlush = max(straightFlush, makeRank(StraightFlush, high))
		}
		flush = max(flush, makeRank(Flush, topRanks(mask, 5)...))
	}
	if straightFlush != 0 {
		return straightFlush
	}

	var quads, trips, pairs, singles []uint8
	for r := int(Ace); r >= 0; r-- {
		var count int
		for _, mask := range suitMasks {
			if mask&(1<<r) != 0 {
				count++
			}
		}
		switch count {
		case 4:
			quads = append(quads, uint8(r))
		case 3:
			trips = append(trips, uint8(r))
		case 2:
			pairs = append(pairs, uint8(r))
		case 1:
			singles = append(singles, uint8(r))
		}
	}

	if len(quads) > 0 {
		return makeRank(FourOfAKind, quads[0], highestExcept(rankMask, quads[0]))
	}

	if len(trips) > 0 {
		pair := -1
		if len(trips) > 1 {
			pair = int(trips[1])
		}
		if len(pairs) > 0 && int(pairs[0]) > pair {
			pair = int(pairs[0])
		}
		if pair >= 0 {
			return makeRank(FullHouse, trips[0], uint8(pair))
		}
	}

	if flush != 0 {
		return flush
	}

	if high, ok := straightHigh(rankMask); ok {
		return makeRank(Straight, high)
	}

	if len(trips) > 0 {
		kickers := topRanks(rankMask&^(1<<trips[0]), 2)
		return makeRank(ThreeOfAKind, append([]uint8{trips[0]}, kickers...)...)
	}

	if len(pairs) >= 2 {
		high, low := pairs[0], pairs[1]
		kicker := highestExcept(rankMask, high, low)
		return makeRank(TwoPair, high, low, kicker)
	}

	if len(pairs) == 1 {
		kickers := topRanks(rankMask&^(1<<pairs[0]), 3)
		return makeRank(Pair, append([]uint8{pairs[0]}, kickers...)...)
	}

	return makeRank(HighCard, topRanks(rankMask, 5)...)
}

// EvaluateCards is Evaluate over a card slice.
func EvaluateCards(cards ...Card) HandRank {
	return Evaluate(NewHand(cards...))
}

// CompareHands compares two hands and returns 1 if a wins, -1 if b wins, 0 for tie.
func CompareHands(a, b HandRank) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	}
	return 0
}

// straightHigh returns the high-card rank of the best straight in the mask.
// The wheel (A-2-3-4-5) reports Five as its high card.
func straightHigh(mask uint16) (uint8, bool) {
	const wheelMask = 0x100F
	mask &= 0x1FFF

	seq := mask & (mask >> 1) & (mask >> 2) & (mask >> 3) & (mask >> 4)
	if seq != 0 {
		return uint8(bits.Len16(seq)-1) + 4, true
	}
	if mask&wheelMask == wheelMask {
		return Five, true
	}
	return 0, false
}

func topRanks(mask uint16, n int) []uint8 {
	ranks := make([]uint8, 0, n)
	for mask != 0 && len(ranks) < n {
		top := uint8(bits.Len16(mask) - 1)
		ranks = append(ranks, top)
		mask &^= 1 << top
	}
	return ranks
}

func highestExcept(mask uint16, used ...uint8) uint8 {
	for _, r := range used {
		mask &^= 1 << r
	}
	if mask == 0 {
		return 0
	}
	return uint8(bits.Len16(mask) - 1)
}
