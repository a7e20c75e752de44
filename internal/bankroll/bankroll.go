// Package bankroll holds players' money outside the table. The engine
// debits it when a player sits or tops up a side-pot account and credits it
// when they stand up; both are ordinary operations that may fail.
package bankroll

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrInsufficientFunds = errors.New("insufficient bankroll")
	ErrUnknownPlayer     = errors.New("unknown player")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// Store is a player bankroll. Implementations must be safe for concurrent
// use since every table shares one.
type Store interface {
	Debit(ctx context.Context, playerID string, amount int64) error
	Credit(ctx context.Context, playerID string, amount int64) error
	Balance(ctx context.Context, playerID string) (int64, error)
}

// Memory is an in-process Store.
type Memory struct {
	mu       sync.Mutex
	balances map[string]int64
}

// NewMemory returns a store seeded with the given balances.
func NewMemory(seed map[string]int64) *Memory {
	m := &Memory{balances: make(map[string]int64, len(seed))}
	for id, bal := range seed {
		m.balances[id] = bal
	}
	return m
}

func (m *Memory) Debit(_ context.Context, playerID string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	bal, ok := m.balances[playerID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	if bal < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, playerID, bal, amount)
	}
	m.balances[playerID] = bal - amount
	return nil
}

func (m *Memory) Credit(_ context.Context, playerID string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[playerID] += amount
	return nil
}

func (m *Memory) Balance(_ context.Context, playerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bal, ok := m.balances[playerID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	return bal, nil
}

// Total sums every balance.
func (m *Memory) Total() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, bal := range m.balances {
		total += bal
	}
	return total
}
