package identity_test

import (
	"context"
	"sync"

	"github.com/goliatone/go-errors"

	identity "github.com/cloudsell/go-identity"
)

// recordingMailer counts dispatches and captures the tokens it was
// handed, so tests can assert on publish activity.
type recordingMailer struct {
	mu                 sync.Mutex
	confirmations      int
	resets             int
	lastToken          string
	lastProfile        *identity.Profile
	failConfirmations  bool
	failPasswordResets bool
}

var _ identity.Mailer = (*recordingMailer)(nil)

func (m *recordingMailer) SendConfirmation(_ context.Context, profile *identity.Profile, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failConfirmations {
		return errors.New("broker unavailable", errors.CategoryOperation)
	}

	m.confirmations++
	m.lastProfile = profile
	m.lastToken = token
	return nil
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, profile *identity.Profile, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failPasswordResets {
		return errors.New("broker unavailable", errors.CategoryOperation)
	}

	m.resets++
	m.lastProfile = profile
	m.lastToken = token
	return nil
}

func (m *recordingMailer) confirmationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.confirmations
}

func (m *recordingMailer) resetCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets
}

func (m *recordingMailer) token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastToken
}

// capturingSink records suppressed side-effect failures.
type capturingSink struct {
	mu       sync.Mutex
	failures []identity.SuppressedFailure
}

var _ identity.FailureSink = (*capturingSink)(nil)

func (s *capturingSink) Record(_ context.Context, failure identity.SuppressedFailure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure)
	return nil
}

func (s *capturingSink) recorded() []identity.SuppressedFailure {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]identity.SuppressedFailure, len(s.failures))
	copy(out, s.failures)
	return out
}

// failingStore wraps a store to force failures on selected operations.
type failingStore struct {
	identity.AccountStore
	failCreate bool
}

func (s *failingStore) Create(ctx context.Context, record *identity.Account) (*identity.Account, error) {
	if s.failCreate {
		return nil, errors.New("disk on fire", errors.CategoryInternal)
	}
	return s.AccountStore.Create(ctx, record)
}
