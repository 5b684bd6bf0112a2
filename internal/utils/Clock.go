package utils

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (s SystemClock) Now() time.Time {
	return time.Now()
}

// MockClock returns FixedNow, moved forward by Step after every call when Step
// is set, so successive records get distinct, increasing timestamps.
type MockClock struct {
	mu       sync.Mutex
	FixedNow time.Time
	Step     time.Duration
}

func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.FixedNow
	m.FixedNow = m.FixedNow.Add(m.Step)
	return now
}

func (m *MockClock) SetNow(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FixedNow = now
}
