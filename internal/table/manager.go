package table

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

var (
	ErrTableExists   = errors.New("table already exists")
	ErrTableNotFound = errors.New("table not found")
)

// Manager owns the tables of one server and runs each actor in its own
// goroutine.
type Manager struct {
	logger *log.Logger

	mu     sync.RWMutex
	tables map[string]*Table
	group  *errgroup.Group
	ctx    context.Context
}

// NewManager returns an empty manager.
func NewManager(logger *log.Logger) *Manager {
	return &Manager{
		logger: logger.WithPrefix("tables"),
		tables: make(map[string]*Table),
	}
}

// Add registers a table. Tables added while the manager is running start
// immediately.
func (m *Manager) Add(t *Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[t.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrTableExists, t.ID())
	}
	m.tables[t.ID()] = t
	if m.group != nil {
		m.start(t)
	}
	m.logger.Info("Table added", "table", t.ID())
	return nil
}

// Get looks a table up by id.
func (m *Manager) Get(id string) (*Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, id)
	}
	return t, nil
}

// List returns every table sorted by id.
func (m *Manager) List() []*Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Table, 0, len(m.tables))
	for _, t := range m.tables {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b *Table) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		}
		return 0
	})
	return out
}

// Run runs every table until ctx is cancelled or one of them fails.
func (m *Manager) Run(ctx context.Context) error {
	m.mu.Lock()
	if m.group != nil {
		m.mu.Unlock()
		return errors.New("manager already running")
	}
	m.group, m.ctx = errgroup.WithContext(ctx)
	gctx := m.ctx
	m.group.Go(func() error {
		<-gctx.Done()
		return nil
	})
	for _, t := range m.tables {
		m.start(t)
	}
	g := m.group
	m.mu.Unlock()

	return g.Wait()
}

func (m *Manager) start(t *Table) {
	ctx := m.ctx
	m.group.Go(func() error {
		if err := t.Run(ctx); err != nil {
			return fmt.Errorf("table %s: %w", t.ID(), err)
		}
		return nil
	})
}
