package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// RestTimerManager runs the between-set rest countdown. Starting a new
// countdown cancels any previous one; only one rest timer exists at a time.
type RestTimerManager struct {
	mu       sync.Mutex
	timer    *time.Timer
	active   bool
	exercise uuid.UUID
	endsAt   time.Time
	onDone   func(exerciseID uuid.UUID)
}

var _ RestNotifier = (*RestTimerManager)(nil)

// NewRestTimerManager creates a manager. onDone is invoked when a countdown
// runs to completion (not when it is cancelled); it may be nil.
func NewRestTimerManager(onDone func(exerciseID uuid.UUID)) *RestTimerManager {
	return &RestTimerManager{onDone: onDone}
}

// RestAfterSet starts a countdown for the exercise's rest hint.
func (m *RestTimerManager) RestAfterSet(exerciseID uuid.UUID, d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.timer != nil {
		m.timer.Stop()
	}
	m.active = true
	m.exercise = exerciseID
	m.endsAt = time.Now().Add(d)
	m.timer = time.AfterFunc(d, func() {
		m.mu.Lock()
		done := m.active && m.exercise == exerciseID
		m.active = false
		m.mu.Unlock()
		if done && m.onDone != nil {
			m.onDone(exerciseID)
		}
	})
}

// Stop cancels the running countdown, if any.
func (m *RestTimerManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
	}
	m.active = false
}

// Remaining returns the time left on the countdown and whether one is
// running.
func (m *RestTimerManager) Remaining() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return 0, false
	}
	left := time.Until(m.endsAt)
	if left < 0 {
		left = 0
	}
	return left, true
}
