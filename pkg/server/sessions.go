package server

import (
	"context"
	"sync"
	"time"

	"github.com/vango-dev/sizewatch/pkg/protocol"
	"github.com/vango-dev/sizewatch/pkg/remote"
)

// SessionManager tracks open sessions.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*remote.Session
	max      int
}

func newSessionManager(max int) *SessionManager {
	return &SessionManager{sessions: make(map[string]*remote.Session), max: max}
}

// tryAdd registers s unless the session limit is reached.
func (m *SessionManager) tryAdd(s *remote.Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.max > 0 && len(m.sessions) >= m.max {
		return false
	}
	m.sessions[s.ID] = s
	return true
}

func (m *SessionManager) remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Count returns the number of open sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown closes every session.
func (m *SessionManager) Shutdown() {
	m.mu.RLock()
	all := make([]*remote.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	for _, s := range all {
		s.CloseWithReason(protocol.CloseServerShutdown, "server shutting down")
	}
}

// closeIdle closes sessions whose last client message is older than idle
// at now. It returns the number of sessions closed.
func (m *SessionManager) closeIdle(idle time.Duration, now time.Time) int {
	m.mu.RLock()
	var expired []*remote.Session
	for _, s := range m.sessions {
		if now.Sub(s.LastActive()) > idle {
			expired = append(expired, s)
		}
	}
	m.mu.RUnlock()

	for _, s := range expired {
		s.CloseWithReason(protocol.CloseIdleTimeout, "idle timeout")
	}
	return len(expired)
}

// reapLoop closes idle sessions until ctx is done.
func (m *SessionManager) reapLoop(ctx context.Context, idle time.Duration) {
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.closeIdle(idle, now)
		}
	}
}
