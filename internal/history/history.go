// Package history keeps the in-memory conversation of each user.
package history

import (
	"sync"

	"relation-chatter/internal/llm"
)

type Manager struct {
	mu       sync.RWMutex
	limit    int
	sessions map[string][]llm.Message
}

// NewManager keeps at most limit messages per user; limit <= 0 means unbounded.
func NewManager(limit int) *Manager {
	return &Manager{limit: limit, sessions: make(map[string][]llm.Message)}
}

func (m *Manager) Reset(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

func (m *Manager) AppendUser(userID, content string) {
	m.append(userID, llm.Message{Role: llm.RoleUser, Content: content})
}

func (m *Manager) AppendAssistant(userID, content string) {
	m.append(userID, llm.Message{Role: llm.RoleAssistant, Content: content})
}

func (m *Manager) append(userID string, msg llm.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := append(m.sessions[userID], msg)
	if m.limit > 0 && len(msgs) > m.limit {
		msgs = append([]llm.Message(nil), msgs[len(msgs)-m.limit:]...)
	}
	m.sessions[userID] = msgs
}

// Get returns a copy of the user's conversation, oldest first.
func (m *Manager) Get(userID string) []llm.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.sessions[userID]
	out := make([]llm.Message, len(msgs))
	copy(out, msgs)
	return out
}
