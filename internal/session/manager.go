package session

import "sync"

// Manager hands out per-session state. Sessions are created on first use.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*State
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*State)}
}

// GetOrCreate returns the state for id, creating it when absent.
func (m *Manager) GetOrCreate(id string) *State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.sessions[id]; ok {
		return state
	}
	state := New(id)
	m.sessions[id] = state
	return state
}

// Remove drops a session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
