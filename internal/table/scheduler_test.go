package table_test

import (
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokertable/internal/table"
)

func TestSchedulerFiresPendingContinuation(t *testing.T) {
	t.Parallel()

	clock := quartz.NewMock(t)
	fired := make(chan table.Fire, 4)
	s := table.NewTurnScheduler(clock, func(f table.Fire) { fired <- f })

	deadline := s.Arm(2, "p2", 5*time.Second)
	assert.Equal(t, clock.Now().Add(5*time.Second), deadline)
	assert.Equal(t, table.KindTurn, s.Pending())

	clock.Advance(5 * time.Second).MustWait(t.Context())
	f := <-fired
	assert.Equal(t, table.KindTurn, f.Kind)
	assert.Equal(t, 2, f.Seat)
	assert.Equal(t, "p2", f.PlayerID)

	require.True(t, s.Take(f))
	assert.Equal(t, table.KindNone, s.Pending())
	assert.False(t, s.Take(f), "a fire is taken once")
}

func TestSchedulerRejectsSupersededFire(t *testing.T) {
	t.Parallel()

	clock := quartz.NewMock(t)
	fired := make(chan table.Fire, 4)
	s := table.NewTurnScheduler(clock, func(f table.Fire) { fired <- f })

	s.Arm(0, "p0", time.Second)
	clock.Advance(time.Second).MustWait(t.Context())
	stale := <-fired

	// The seat acted before the actor saw its timeout.
	s.ArmThinking(1, "b1", 2*time.Second)
	assert.False(t, s.Take(stale))
	assert.Equal(t, table.KindThink, s.Pending())

	s.Cancel()
	_, ok := s.Deadline()
	assert.False(t, ok)
	clock.Advance(2 * time.Second).MustWait(t.Context())
	assert.Empty(t, fired, "cancelled timers never fire")
}

func TestKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "next-hand", table.KindNextHand.String())
	assert.Equal(t, "unknown", table.Kind(42).String())
}
