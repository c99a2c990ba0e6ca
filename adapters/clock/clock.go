// Package clock abstracts time behind ports.Clock so check-in windows and
// soft-delete stamps can be tested against a controlled timeline.
package clock

import (
	"sync"
	"time"

	"github.com/wellgate/wellgate/ports"
)

// Real reads the wall clock in UTC. Every persisted timestamp flows through
// here, so the stores never see a zoned time.
type Real struct{}

func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Manual is a hand-driven clock for tests: it only moves when told to, which
// keeps summary-window assertions exact.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual creates a manual clock starting at t.
func NewManual(t time.Time) *Manual {
	return &Manual{now: t.UTC()}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set jumps the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t.UTC()
}

// Advance moves the clock forward by d (negative d moves it back).
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

var (
	_ ports.Clock = Real{}
	_ ports.Clock = (*Manual)(nil)
)
