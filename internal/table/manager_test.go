package table_test

import (
	"context"
	"testing"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokertable/internal/engine"
	"github.com/lox/pokertable/internal/table"
)

func TestManagerRunsTables(t *testing.T) {
	t.Parallel()

	m := table.NewManager(quietLogger())
	for _, id := range []string{"beta", "alpha"} {
		tbl, err := table.New(table.Config{ID: id, Engine: engine.Config{Seats: 2, SmallBlind: 1, BigBlind: 2}},
			table.WithClock(quartz.NewMock(t)), table.WithLogger(quietLogger()))
		require.NoError(t, err)
		require.NoError(t, m.Add(tbl))
	}

	dup, err := table.New(table.Config{ID: "alpha", Engine: engine.Config{Seats: 2, SmallBlind: 1, BigBlind: 2}}, table.WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.ErrorIs(t, m.Add(dup), table.ErrTableExists)

	ids := []string{}
	for _, tbl := range m.List() {
		ids = append(ids, tbl.ID())
	}
	assert.Equal(t, []string{"alpha", "beta"}, ids)

	_, err = m.Get("gamma")
	assert.ErrorIs(t, err, table.ErrTableNotFound)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	tbl, err := m.Get("alpha")
	require.NoError(t, err)
	_, err = tbl.Sit(t.Context(), engine.Player{ID: "p0"}, nil, 100, 0)
	require.NoError(t, err, "the table actor is running")

	cancel()
	require.NoError(t, <-done)
}
