package api

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/rdb64-hobbies/see-and-select-tokens/internal/generate"
)

// SessionStore holds the live session handles keyed by id. Sessions are
// in-memory only; nothing is persisted across restarts.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*generate.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*generate.Session)}
}

func (s *SessionStore) Create(sess *generate.Session) string {
	id := "sess_" + uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	return id
}

func (s *SessionStore) Get(id string) (*generate.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

func (s *SessionStore) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
