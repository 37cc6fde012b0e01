// Package session holds the survey session stores: an in-process map for
// development and tests, Redis and SQLite for durability across restarts.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/Vovarama1992/motos-credit-bridge/internal/survey"
)

type Memory struct {
	mu   sync.RWMutex
	data map[string]survey.Session
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]survey.Session)}
}

func (m *Memory) Load(_ context.Context, user string) (*survey.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.data[user]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *Memory) Save(_ context.Context, user string, s *survey.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[user] = *s
	return nil
}

func (m *Memory) Clear(_ context.Context, user string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, user)
	return nil
}

// DeleteOlderThan drops sessions not updated since cutoff. PAUSED sessions
// are kept: only a human may release them.
func (m *Memory) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for user, s := range m.data {
		if s.Status != survey.StatusPaused && s.UpdatedAt.Before(cutoff) {
			delete(m.data, user)
			n++
		}
	}
	return n, nil
}
