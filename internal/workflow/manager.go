package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"coachbooking/pkg/response"
)

const defaultTTL = time.Hour

type entry struct {
	wf      *Workflow
	touched time.Time
}

// Manager keeps the in-flight booking workflows, one per interactive
// session. Workflows live only in memory; an abandoned one holds no shared
// state worth persisting, so entries idle longer than the ttl are swept.
type Manager struct {
	mu        sync.Mutex
	workflows map[string]*entry
	ttl       time.Duration

	resolver    SlotResolver
	creator     BookingCreator
	horizonDays int
	now         func() time.Time
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithTTL sets how long an untouched workflow survives before a sweep
// drops it.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

func NewManager(resolver SlotResolver, creator BookingCreator, horizonDays int, opts ...Option) *Manager {
	m := &Manager{
		workflows:   make(map[string]*entry),
		ttl:         defaultTTL,
		resolver:    resolver,
		creator:     creator,
		horizonDays: horizonDays,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *Manager) Start(expertID string) (*Workflow, error) {
	const op = "workflow.Manager.Start"

	if expertID == "" {
		return nil, fmt.Errorf("%s: expert_id is required: %w", op, response.ErrInvalidInput)
	}

	w := newWorkflow(expertID, m.resolver, m.creator, m.horizonDays, m.now)

	m.mu.Lock()
	m.workflows[w.ID()] = &entry{wf: w, touched: m.now()}
	m.mu.Unlock()

	return w, nil
}

// Get returns the workflow and refreshes its idle timer.
func (m *Manager) Get(id string) (*Workflow, error) {
	const op = "workflow.Manager.Get"

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.workflows[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	e.touched = m.now()

	return e.wf, nil
}

// Run sweeps idle workflows at the given interval until the context is
// cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, e := range m.workflows {
		if e.touched.Before(cutoff) {
			delete(m.workflows, id)
		}
	}
}
