package poker

import (
	"math/rand/v2"
)

// Deck is a standard 52-card deck owned by a single hand.
type Deck struct {
	cards [52]Card
	next  int
	rng   *rand.Rand
}

// NewDeck creates a new deck shuffled with the given RNG.
func NewDeck(rng *rand.Rand) *Deck {
	if rng == nil {
		panic("rng is required for deck creation")
	}
	d := &Deck{rng: rng}
	d.fill()
	d.Shuffle()
	return d
}

// NewStackedDeck returns a deck that deals top in order, followed by the
// remaining cards in suit/rank order. Used for deterministic hands.
func NewStackedDeck(top ...Card) *Deck {
	d := &Deck{}
	used := NewHand(top...)
	i := copy(d.cards[:], top)
	for suit := range uint8(4) {
		for rank := range uint8(13) {
			c := NewCard(rank, suit)
			if used.HasCard(c) {
				continue
			}
			if i < len(d.cards) {
				d.cards[i] = c
				i++
			}
		}
	}
	return d
}

func (d *Deck) fill() {
	i := 0
	for suit := range uint8(4) {
		for rank := range uint8(13) {
			d.cards[i] = NewCard(rank, suit)
			i++
		}
	}
	d.next = 0
}

// Shuffle shuffles the undealt cards using Fisher-Yates.
func (d *Deck) Shuffle() {
	if d.rng == nil {
		return
	}
	for i := len(d.cards) - 1; i > d.next; i-- {
		j := d.next + d.rng.IntN(i-d.next+1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal removes n cards from the top of the deck. It returns nil when the
// deck cannot supply n cards.
func (d *Deck) Deal(n int) []Card {
	if n < 0 || d.next+n > len(d.cards) {
		return nil
	}
	cards := make([]Card, n)
	copy(cards, d.cards[d.next:d.next+n])
	d.next += n
	return cards
}

// Remaining returns the number of undealt cards.
func (d *Deck) Remaining() int {
	return len(d.cards) - d.next
}
