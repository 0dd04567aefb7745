package idempotency

import (
	"context"
	"sync"
)

type sessionState struct {
	accountID string
	records   map[string]TransactionRecord
}

// MemoryStore is the in-process Store. Each session accumulates its
// transaction registry for the lifetime of the round.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*sessionState)}
}

func (s *MemoryStore) session(sessionID string) *sessionState {
	state, ok := s.sessions[sessionID]
	if !ok {
		state = &sessionState{records: make(map[string]TransactionRecord)}
		s.sessions[sessionID] = state
	}
	return state
}

func (s *MemoryStore) BindSession(_ context.Context, sessionID, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.session(sessionID)
	if state.accountID == "" {
		state.accountID = accountID
		return nil
	}
	if state.accountID != accountID {
		return ErrSessionConflict
	}
	return nil
}

func (s *MemoryStore) Record(_ context.Context, sessionID string, rec TransactionRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.session(sessionID)
	if _, seen := state.records[rec.TransactionID]; seen {
		return false, nil
	}
	state.records[rec.TransactionID] = rec
	return true, nil
}

func (s *MemoryStore) Lookup(_ context.Context, sessionID, transactionID string) (*TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	rec, seen := state.records[transactionID]
	if !seen {
		return nil, nil
	}
	return &rec, nil
}

func (s *MemoryStore) Remove(_ context.Context, sessionID, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.sessions[sessionID]; ok {
		delete(state.records, transactionID)
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)
