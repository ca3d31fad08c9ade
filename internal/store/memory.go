package store

import (
	"context"
	"sync"
	"time"
)

type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*Session
	locks    map[string]time.Time
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]*Session),
		locks:    make(map[string]time.Time),
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if existing, ok := s.sessions[session.ID]; ok && existing.ExpiresAt.After(now) {
		return ErrExists
	}

	session.ExpiresAt = now.Add(s.ttl)
	s.sessions[session.ID] = cloneSession(session)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.live(id)
	if err != nil {
		return nil, err
	}
	return cloneSession(*session), nil
}

func (s *MemoryStore) Update(_ context.Context, id string, fn func(*Session) error) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.live(id)
	if err != nil {
		return nil, err
	}

	working := cloneSession(*session)
	if err := fn(working); err != nil {
		return cloneSession(*session), err
	}

	working.ExpiresAt = s.now().Add(s.ttl)
	s.sessions[id] = working
	return cloneSession(*working), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.live(id); err != nil {
		return err
	}
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if until, held := s.locks[key]; held && until.After(now) {
		return false, nil
	}
	s.locks[key] = now.Add(ttl)
	return true, nil
}

func (s *MemoryStore) Unlock(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.locks, key)
	return nil
}

// Sweep drops expired sessions and locks and reports how many sessions went.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, session := range s.sessions {
		if !session.ExpiresAt.After(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	for key, until := range s.locks {
		if !until.After(now) {
			delete(s.locks, key)
		}
	}
	return removed
}

// RunJanitor sweeps on every tick until ctx is done.
func (s *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *MemoryStore) live(id string) (*Session, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !session.ExpiresAt.After(s.now()) {
		delete(s.sessions, id)
		return nil, ErrNotFound
	}
	return session, nil
}
