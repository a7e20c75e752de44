package poker

import (
	"testing"

	ph "github.com/paulhankin/poker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokertable/internal/randutil"
)

func eval(t *testing.T, s string) HandRank {
	t.Helper()
	cards, err := ParseCards(s)
	require.NoError(t, err)
	return Evaluate(NewHand(cards...))
}

func TestEvaluateCategories(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cards string
		want  HandType
	}{
		{"As Ks Qs Js Ts 2c 3d", StraightFlush},
		{"5d 4d 3d 2d Ad Kc Kh", StraightFlush},
		{"9c 9d 9h 9s Ac Kd 2h", FourOfAKind},
		{"Kc Kd Kh 7s 7c 2d 3h", FullHouse},
		{"Kc Kd Kh 7s 7c 7d 3h", FullHouse},
		{"Ah 9h 7h 4h 2h Kc Kd", Flush},
		{"Tc 9d 8h 7s 6c 2d 2h", Straight},
		{"Ac 2d 3h 4s 5c Kd Qh", Straight},
		{"Qc Qd Qh 9s 7c 4d 2h", ThreeOfAKind},
		{"Jc Jd 4h 4s 9c 9d Ah", TwoPair},
		{"8c 8d Ah Ks 2c 4d 6h", Pair},
		{"Ac Jd 9h 7s 5c 3d 2h", HighCard},
	}

	for _, tt := range tests {
		t.Run(tt.cards, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, eval(t, tt.cards).Type())
		})
	}
}

func TestEvaluateOrdering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		better string
		worse  string
	}{
		{"higher kicker", "Ac Ad Kh 9s 7c", "As Ah Qc 9d 7h"},
		{"wheel loses to six-high straight", "2c 3d 4h 5s 6c", "Ac 2d 3h 4s 5c"},
		{"flush beats straight", "2h 5h 7h 9h Jh", "Tc Jd Qh Ks Ac"},
		{"two pair kicker", "Kc Kd 5h 5s Ac", "Ks Kh 5c 5d Qc"},
		{"full house trips rank", "3c 3d 3h 2s 2c", "2d 2h 2s Ac Ad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, 1, CompareHands(eval(t, tt.better), eval(t, tt.worse)))
			assert.Equal(t, -1, CompareHands(eval(t, tt.worse), eval(t, tt.better)))
		})
	}
}

func TestEvaluatePlayingTheBoard(t *testing.T) {
	t.Parallel()

	board := "Ac Kd Qh Js Tc"
	a := eval(t, board+" 2d 3h")
	b := eval(t, board+" 4c 5s")
	assert.Equal(t, 0, CompareHands(a, b))
	assert.Equal(t, Straight, a.Type())
}

func TestEvaluateLargeHands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cards string
		want  HandRank
	}{
		{"nine cards", "As Kd 7c 2h Qs Js 9s 4s 3d", makeRank(Flush, Ace, Queen, Jack, Nine, Four)},
		{"best of two flushes", "2h 4h 6h 8h Th 3s 5s 7s 9s Js", makeRank(Flush, Jack, Nine, Seven, Five, Three)},
		{"best of two straight flushes", "2h 3h 4h 5h 6h 5s 6s 7s 8s 9s", makeRank(StraightFlush, Nine)},
		{"quads with extra pairs", "9c 9d 9h 9s Kc Kd Qh Qs Ad", makeRank(FourOfAKind, Nine, Ace)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, eval(t, tt.cards))
		})
	}
}

func TestEvaluateRejectsShortHands(t *testing.T) {
	t.Parallel()
	assert.Equal(t, HandRank(0), eval(t, "As Ks"))
	assert.Equal(t, "No Hand", HandRank(0).String())
}

func toOracle(t *testing.T, c Card) ph.Card {
	t.Helper()
	suits := [...]ph.Suit{ph.Club, ph.Diamond, ph.Heart, ph.Spade}
	// Oracle ranks run Ace=1, Two=2 .. King=13.
	r := ph.Rank(c.Rank() + 2)
	if c.Rank() == Ace {
		r = ph.Rank(1)
	}
	card, err := ph.MakeCard(suits[c.Suit()], r)
	require.NoError(t, err)
	return card
}

func TestEvaluateAgreesWithOracle(t *testing.T) {
	t.Parallel()

	rng := randutil.New(2024)
	for i := 0; i < 2000; i++ {
		d := NewDeck(rng)
		a := d.Deal(7)
		b := append(append([]Card{}, a[:5]...), d.Deal(2)...)

		var oa, ob [7]ph.Card
		for j := range 7 {
			oa[j] = toOracle(t, a[j])
			ob[j] = toOracle(t, b[j])
		}

		want := 0
		switch sa, sb := ph.Eval7(&oa), ph.Eval7(&ob); {
		case sa > sb:
			want = 1
		case sa < sb:
			want = -1
		}

		got := CompareHands(EvaluateCards(a...), EvaluateCards(b...))
		require.Equal(t, want, got, "hands %s vs %s", FormatCards(a), FormatCards(b))
	}
}
