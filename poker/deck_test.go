package poker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokertable/internal/randutil"
)

func TestDeckDealsEveryCardOnce(t *testing.T) {
	t.Parallel()

	d := NewDeck(randutil.New(42))
	seen := Hand(0)
	for d.Remaining() > 0 {
		cards := d.Deal(1)
		require.Len(t, cards, 1)
		require.False(t, seen.HasCard(cards[0]), "card %s dealt twice", cards[0])
		seen.AddCard(cards[0])
	}
	assert.Equal(t, 52, seen.CountCards())
	assert.Nil(t, d.Deal(1))
}

func TestDeckShuffleIsSeeded(t *testing.T) {
	t.Parallel()

	a := NewDeck(randutil.New(7)).Deal(10)
	b := NewDeck(randutil.New(7)).Deal(10)
	c := NewDeck(randutil.New(8)).Deal(10)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestStackedDeck(t *testing.T) {
	t.Parallel()

	top := MustParseCards("As Ks Qs")
	d := NewStackedDeck(top...)
	assert.Equal(t, 52, d.Remaining())
	assert.Equal(t, top, d.Deal(3))
	assert.Equal(t, 49, d.Remaining())

	rest := NewHand(d.Deal(49)...)
	for _, c := range top {
		assert.False(t, rest.HasCard(c))
	}
}

func TestNewDeckPanicsWithoutRNG(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewDeck(nil) })
}
