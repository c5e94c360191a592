package identity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryAccountStore is an in-memory AccountStore honoring the same
// contract as the bun repository, including the email uniqueness
// invariant. Intended for tests and local development.
type MemoryAccountStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Account
	byEmail map[string]uuid.UUID
}

var _ AccountStore = (*MemoryAccountStore)(nil)

func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{
		records: map[uuid.UUID]*Account{},
		byEmail: map[string]uuid.UUID{},
	}
}

func (s *MemoryAccountStore) Create(_ context.Context, record *Account) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepareAccountDefaults(record)

	// The email index plays the role of the unique constraint: the
	// losing writer of a duplicate race fails here.
	if _, exists := s.byEmail[record.Email]; exists {
		return nil, ErrAccountExists
	}
	if _, exists := s.records[record.ID]; exists {
		return nil, ErrAccountExists
	}

	now := time.Now()
	if record.CreatedAt == nil {
		record.CreatedAt = &now
	}
	if record.UpdatedAt == nil {
		record.UpdatedAt = &now
	}

	clone := cloneAccount(record)
	s.records[clone.ID] = clone
	s.byEmail[clone.Email] = clone.ID

	return cloneAccount(clone), nil
}

func (s *MemoryAccountStore) Get(_ context.Context, id uuid.UUID) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, accountNotFound("id", id.String())
	}

	return cloneAccount(record), nil
}

func (s *MemoryAccountStore) GetByEmail(_ context.Context, email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, accountNotFound("email", email)
	}

	return cloneAccount(s.records[id]), nil
}

func (s *MemoryAccountStore) Update(_ context.Context, id uuid.UUID, record *Account) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[id]
	if !ok {
		return nil, accountNotFound("id", id.String())
	}

	record.ID = id
	now := time.Now()
	record.UpdatedAt = &now
	if record.CreatedAt == nil {
		record.CreatedAt = current.CreatedAt
	}

	if record.Email != current.Email {
		if _, exists := s.byEmail[record.Email]; exists {
			return nil, ErrAccountExists
		}
		delete(s.byEmail, current.Email)
		s.byEmail[record.Email] = id
	}

	clone := cloneAccount(record)
	s.records[id] = clone

	return cloneAccount(clone), nil
}

func (s *MemoryAccountStore) Delete(_ context.Context, id uuid.UUID) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return nil, accountNotFound("id", id.String())
	}

	delete(s.records, id)
	delete(s.byEmail, record.Email)

	return cloneAccount(record), nil
}

func cloneAccount(record *Account) *Account {
	if record == nil {
		return nil
	}

	clone := *record
	if record.CreatedAt != nil {
		at := *record.CreatedAt
		clone.CreatedAt = &at
	}
	if record.UpdatedAt != nil {
		at := *record.UpdatedAt
		clone.UpdatedAt = &at
	}

	return &clone
}
