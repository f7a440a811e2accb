package session

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/micromouse/mouse/engine"
	"github.com/wricardo/micromouse/mouse/service"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// Manager holds the live sessions. With a Store attached, created sessions
// are written through and unknown ids are looked up in the store.
type Manager struct {
	mu    sync.RWMutex
	live  map[string]*service.Session
	store Store
}

// NewManager returns a manager that keeps sessions in memory only
func NewManager() *Manager {
	return NewManagerWithStore(nil)
}

// NewManagerWithStore returns a manager backed by store
func NewManagerWithStore(store Store) *Manager {
	return &Manager{live: map[string]*service.Session{}, store: store}
}

func (m *Manager) lookup(id string) (*service.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.live[id]
	return s, ok
}

// Create builds an engine for config under id. An empty id gets a UUID.
func (m *Manager) Create(id string, config *engine.MazeConfig) (*service.Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if err := checkID(id); err != nil {
		return nil, err
	}

	eng, err := engine.NewEngine(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	now := time.Now()
	s := &service.Session{ID: id, Engine: eng, Config: config, CreatedAt: now, LastAccessedAt: now}

	m.mu.Lock()
	if _, taken := m.live[id]; taken {
		m.mu.Unlock()
		return nil, ErrSessionAlreadyExists
	}
	m.live[id] = s
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.Put(s); err != nil {
			log.Printf("Warning: Failed to persist session %s: %v", id, err)
		}
	}
	return s, nil
}

// Get returns a live session, loading it from the store on a miss
func (m *Manager) Get(id string) (*service.Session, error) {
	if s, ok := m.lookup(id); ok {
		return s, nil
	}
	if m.store == nil {
		return nil, ErrSessionNotFound
	}

	loaded, err := m.store.Fetch(id)
	if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrInvalidSessionID) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.live[id]; ok {
		return s, nil
	}
	m.live[id] = loaded
	return loaded, nil
}

// List returns the live sessions in no particular order
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*service.Session, 0, len(m.live))
	for _, s := range m.live {
		out = append(out, s)
	}
	return out
}

// Delete drops a session from memory and from the store
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	_, wasLive := m.live[id]
	delete(m.live, id)
	m.mu.Unlock()

	if m.store == nil {
		if !wasLive {
			return ErrSessionNotFound
		}
		return nil
	}

	err := m.store.Remove(id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrInvalidSessionID):
		if wasLive {
			return nil
		}
		return ErrSessionNotFound
	default:
		return fmt.Errorf("failed to delete persisted session: %w", err)
	}
}

// Evict forgets a live session but leaves any stored copy alone
func (m *Manager) Evict(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.live, id)
	return nil
}

// Touch marks a session as used now
func (m *Manager) Touch(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.live[id]
	if !ok {
		return ErrSessionNotFound
	}
	s.LastAccessedAt = time.Now()
	return nil
}

// Save writes one live session to the store. Without a store it does nothing.
func (m *Manager) Save(id string) error {
	if m.store == nil {
		return nil
	}
	s, ok := m.lookup(id)
	if !ok {
		return ErrSessionNotFound
	}
	return m.store.Put(s)
}

// EvictIdle drops live sessions untouched for longer than maxAge and
// returns how many went
func (m *Manager) EvictIdle(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.live {
		if s.LastAccessedAt.Before(cutoff) {
			delete(m.live, id)
			n++
		}
	}
	return n
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.live)
}

// Restore loads every stored session that is not live yet. Documents that
// fail to decode are logged and skipped.
func (m *Manager) Restore() error {
	if m.store == nil {
		return nil
	}
	ids, err := m.store.IDs()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	restored := 0
	for _, id := range ids {
		if _, ok := m.lookup(id); ok {
			continue
		}
		s, err := m.store.Fetch(id)
		if err != nil {
			log.Printf("Warning: Failed to load persisted session %s: %v", id, err)
			continue
		}
		m.mu.Lock()
		if _, ok := m.live[id]; !ok {
			m.live[id] = s
			restored++
		}
		m.mu.Unlock()
	}

	if restored > 0 {
		log.Printf("[SESSION] restored %d sessions", restored)
	}
	return nil
}

// Flush writes every live session to the store
func (m *Manager) Flush() error {
	if m.store == nil {
		return nil
	}

	var errs []error
	for _, s := range m.List() {
		if err := m.store.Put(s); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", s.ID, err))
		}
	}
	return errors.Join(errs...)
}
