package state

import (
	"sync"

	"github.com/m3rciful/datepicker/core/selection"
)

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

// NewMemoryManager returns an in-memory Manager.
func NewMemoryManager() Manager {
	return &memoryManager{sessions: make(map[int64]Session)}
}

func (m *memoryManager) Get(userID int64) Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[userID]; ok {
		return s
	}
	return Session{Mode: selection.ModeSingle}
}

func (m *memoryManager) SetMonth(userID int64, year, month int) {
	m.update(userID, func(s *Session) {
		s.Year, s.Month = year, month
	})
}

func (m *memoryManager) SetMode(userID int64, mode selection.Mode, year, month int) {
	m.update(userID, func(s *Session) {
		s.Mode = mode
		s.Year, s.Month = year, month
	})
}

func (m *memoryManager) update(userID int64, fn func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		s = Session{Mode: selection.ModeSingle}
	}
	fn(&s)
	m.sessions[userID] = s
}

func (m *memoryManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
