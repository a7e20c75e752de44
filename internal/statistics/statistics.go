// Package statistics accumulates per-player results over many hands, in big
// blinds, for simulation reports.
package statistics

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// HandResult is one player's outcome of a single hand.
type HandResult struct {
	Net      int64 // chips won or lost, side games included
	BigBlind int64 // big blind the hand was played at
	Position int   // seats clockwise from the button, 0 is the button
	Showdown bool  // hand reached a showdown
	Pot      int64 // total main pot awarded
}

// NetBB is the result in big blinds.
func (r HandResult) NetBB() float64 {
	if r.BigBlind <= 0 {
		return 0
	}
	return float64(r.Net) / float64(r.BigBlind)
}

// Running is a streaming mean and variance accumulator.
type Running struct {
	N     int
	Sum   float64
	SumSq float64
}

func (r *Running) add(v float64) {
	r.N++
	r.Sum += v
	r.SumSq += v * v
}

// Mean returns the arithmetic mean
func (r Running) Mean() float64 {
	if r.N == 0 {
		return 0
	}
	return r.Sum / float64(r.N)
}

// Variance returns the sample variance
func (r Running) Variance() float64 {
	if r.N < 2 {
		return 0
	}
	mean := r.Mean()
	v := (r.SumSq - float64(r.N)*mean*mean) / float64(r.N-1)
	return math.Max(v, 0)
}

// StdDev returns the sample standard deviation
func (r Running) StdDev() float64 {
	return math.Sqrt(r.Variance())
}

// StdError returns the standard error of the mean
func (r Running) StdError() float64 {
	if r.N == 0 {
		return 0
	}
	return r.StdDev() / math.Sqrt(float64(r.N))
}

// Player tracks one player's results.
type Player struct {
	ID string
	Running
	values []float64

	ShowdownWins    int
	NonShowdownWins int
	ShowdownBB      float64 // won and lost at showdown
	NonShowdownBB   float64 // won and lost without a showdown

	Positions map[int]*Running

	MaxPot  int64
	BigPots int // pots of at least BigPotBB big blinds
}

// BigPotBB is the size, in big blinds, from which a pot counts as big.
const BigPotBB = 50

// Add records one hand.
func (p *Player) Add(r HandResult) {
	bb := r.NetBB()
	p.add(bb)
	p.values = append(p.values, bb)

	if r.Net > 0 {
		if r.Showdown {
			p.ShowdownWins++
		} else {
			p.NonShowdownWins++
		}
	}
	if r.Showdown {
		p.ShowdownBB += bb
	} else {
		p.NonShowdownBB += bb
	}

	if p.Positions == nil {
		p.Positions = make(map[int]*Running)
	}
	pos, ok := p.Positions[r.Position]
	if !ok {
		pos = &Running{}
		p.Positions[r.Position] = pos
	}
	pos.add(bb)

	p.MaxPot = max(p.MaxPot, r.Pot)
	if r.BigBlind > 0 && r.Pot >= BigPotBB*r.BigBlind {
		p.BigPots++
	}
}

// Hands is the number of hands recorded.
func (p *Player) Hands() int { return p.N }

// BBPer100 is the win rate in big blinds per hundred hands.
func (p *Player) BBPer100() float64 { return p.Mean() * 100 }

// ConfidenceInterval95 returns the 95% confidence interval of the win rate
// in big blinds per hundred hands.
func (p *Player) ConfidenceInterval95() (float64, float64) {
	margin := 1.96 * p.StdError() * 100
	return p.BBPer100() - margin, p.BBPer100() + margin
}

// Median returns the median per-hand result in big blinds
func (p *Player) Median() float64 {
	return p.Percentile(0.5)
}

// Percentile returns the per-hand result at p, between 0 and 1, with linear
// interpolation between neighbours.
func (p *Player) Percentile(q float64) float64 {
	if len(p.values) == 0 {
		return 0
	}
	sorted := slices.Clone(p.values)
	slices.Sort(sorted)

	index := math.Min(math.Max(q, 0), 1) * float64(len(sorted)-1)
	lower := int(index)
	if lower+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[lower+1]*weight
}

// PositionMean returns the mean result, in big blinds, from a position.
func (p *Player) PositionMean(position int) float64 {
	if pos, ok := p.Positions[position]; ok {
		return pos.Mean()
	}
	return 0
}

// Validate checks that the breakdowns add up to the totals.
func (p *Player) Validate() error {
	if math.Abs(p.Sum-p.ShowdownBB-p.NonShowdownBB) > 1e-6 {
		return fmt.Errorf("%s: showdown split mismatch: total=%.6f showdown=%.6f other=%.6f",
			p.ID, p.Sum, p.ShowdownBB, p.NonShowdownBB)
	}
	if len(p.values) != p.N {
		return fmt.Errorf("%s: %d values for %d hands", p.ID, len(p.values), p.N)
	}
	if wins := p.ShowdownWins + p.NonShowdownWins; wins > p.N {
		return fmt.Errorf("%s: %d wins in %d hands", p.ID, wins, p.N)
	}
	hands := 0
	for _, pos := range p.Positions {
		hands += pos.N
	}
	if hands != p.N {
		return fmt.Errorf("%s: %d hands by position, %d in total", p.ID, hands, p.N)
	}
	return nil
}

// Tracker holds results for every player seen.
type Tracker struct {
	players map[string]*Player
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{players: make(map[string]*Player)}
}

// Record adds a hand for playerID.
func (t *Tracker) Record(playerID string, r HandResult) {
	p, ok := t.players[playerID]
	if !ok {
		p = &Player{ID: playerID}
		t.players[playerID] = p
	}
	p.Add(r)
}

// Player returns the results for playerID, or nil if none were recorded.
func (t *Tracker) Player(playerID string) *Player {
	return t.players[playerID]
}

// Players returns every player ordered by id.
func (t *Tracker) Players() []*Player {
	out := make([]*Player, 0, len(t.players))
	for _, p := range t.players {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b *Player) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// Validate checks every player.
func (t *Tracker) Validate() error {
	for _, p := range t.Players() {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}
