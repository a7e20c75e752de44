package statistics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyPlayer(t *testing.T) {
	t.Parallel()

	p := &Player{ID: "a"}
	assert.Zero(t, p.Mean())
	assert.Zero(t, p.Variance())
	assert.Zero(t, p.StdDev())
	assert.Zero(t, p.StdError())
	assert.Zero(t, p.Median())
	assert.Zero(t, p.Percentile(0.9))
	assert.Zero(t, p.PositionMean(2))
	require.NoError(t, p.Validate())
}

func TestSingleHand(t *testing.T) {
	t.Parallel()

	p := &Player{ID: "a"}
	p.Add(HandResult{Net: 25, BigBlind: 10, Position: 3, Showdown: true, Pot: 60})

	assert.Equal(t, 1, p.Hands())
	assert.InDelta(t, 2.5, p.Mean(), 1e-9)
	assert.InDelta(t, 250, p.BBPer100(), 1e-9)
	assert.Zero(t, p.Variance())
	assert.InDelta(t, 2.5, p.Median(), 1e-9)
	assert.Equal(t, 1, p.ShowdownWins)
	assert.Zero(t, p.NonShowdownWins)
	assert.InDelta(t, 2.5, p.PositionMean(3), 1e-9)
	assert.Equal(t, int64(60), p.MaxPot)
	require.NoError(t, p.Validate())
}

func TestVarianceAndInterval(t *testing.T) {
	t.Parallel()

	p := &Player{ID: "a"}
	for _, net := range []int64{20, -10, 0, 30, -20} {
		p.Add(HandResult{Net: net, BigBlind: 10})
	}

	// 2, -1, 0, 3, -2 big blinds
	assert.InDelta(t, 0.4, p.Mean(), 1e-9)
	assert.InDelta(t, 4.3, p.Variance(), 1e-9)
	assert.InDelta(t, math.Sqrt(4.3), p.StdDev(), 1e-9)
	assert.InDelta(t, math.Sqrt(4.3)/math.Sqrt(5), p.StdError(), 1e-9)

	lo, hi := p.ConfidenceInterval95()
	margin := 1.96 * p.StdError() * 100
	assert.InDelta(t, 40-margin, lo, 1e-9)
	assert.InDelta(t, 40+margin, hi, 1e-9)

	assert.InDelta(t, 0, p.Median(), 1e-9)
	assert.InDelta(t, -2, p.Percentile(0), 1e-9)
	assert.InDelta(t, 3, p.Percentile(1), 1e-9)
	assert.InDelta(t, 2.5, p.Percentile(0.875), 1e-9)
}

func TestShowdownSplit(t *testing.T) {
	t.Parallel()

	p := &Player{ID: "a"}
	p.Add(HandResult{Net: 40, BigBlind: 10, Showdown: true})
	p.Add(HandResult{Net: -30, BigBlind: 10, Showdown: true})
	p.Add(HandResult{Net: 15, BigBlind: 10, Position: 1})
	p.Add(HandResult{Net: -5, BigBlind: 10, Position: 2})

	assert.Equal(t, 1, p.ShowdownWins)
	assert.Equal(t, 1, p.NonShowdownWins)
	assert.InDelta(t, 1.0, p.ShowdownBB, 1e-9)
	assert.InDelta(t, 1.0, p.NonShowdownBB, 1e-9)
	assert.InDelta(t, 0.5, p.PositionMean(0), 1e-9)
	require.NoError(t, p.Validate())
}

func TestBigPots(t *testing.T) {
	t.Parallel()

	p := &Player{ID: "a"}
	p.Add(HandResult{Net: -100, BigBlind: 10, Pot: 499})
	p.Add(HandResult{Net: 400, BigBlind: 10, Pot: 500})

	assert.Equal(t, 1, p.BigPots)
	assert.Equal(t, int64(500), p.MaxPot)
}

func TestZeroBigBlindCountsAsEven(t *testing.T) {
	t.Parallel()

	assert.Zero(t, HandResult{Net: 50}.NetBB())
}

func TestTracker(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	tr.Record("b", HandResult{Net: -10, BigBlind: 10})
	tr.Record("a", HandResult{Net: 10, BigBlind: 10})
	tr.Record("a", HandResult{Net: 30, BigBlind: 10, Showdown: true})

	players := tr.Players()
	require.Len(t, players, 2)
	assert.Equal(t, "a", players[0].ID)
	assert.Equal(t, 2, players[0].Hands())
	assert.InDelta(t, 200, players[0].BBPer100(), 1e-9)
	assert.Nil(t, tr.Player("c"))
	require.NoError(t, tr.Validate())
}

func TestValidateCatchesMismatch(t *testing.T) {
	t.Parallel()

	p := &Player{ID: "a"}
	p.Add(HandResult{Net: 10, BigBlind: 10})
	p.ShowdownBB += 1

	assert.ErrorContains(t, p.Validate(), "showdown split mismatch")
}
