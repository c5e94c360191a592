package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// AccountStore is the durable account storage contract. Absence is
// reported as ErrAccountNotFound, distinct from storage failures which
// surface wrapped.
type AccountStore interface {
	Create(ctx context.Context, record *Account) (*Account, error)
	Get(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	Update(ctx context.Context, id uuid.UUID, record *Account) (*Account, error)
	Delete(ctx context.Context, id uuid.UUID) (*Account, error)
}

// TokenProvider encodes and decodes signed claim sets. Decode is purpose
// agnostic: any validly signed, unexpired token decodes, and callers
// check purpose-specific claims afterwards.
type TokenProvider interface {
	EncodeAccess(accountID uuid.UUID, email string) (string, error)
	EncodeRefresh(accountID uuid.UUID, email string, opts ...EncodeOption) (string, error)
	Decode(token string) (*IdentityClaims, error)
}

// PasswordHasher hashes credentials and verifies them in constant time.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// Mailer hands notification jobs to the queue. A nil return only means
// the broker accepted the message.
type Mailer interface {
	SendConfirmation(ctx context.Context, profile *Profile, token string) error
	SendPasswordReset(ctx context.Context, profile *Profile, token string) error
}

// SuppressedFailure describes a side-effect error that was observed and
// swallowed instead of propagating to the caller.
type SuppressedFailure struct {
	Op         string
	AccountID  uuid.UUID
	Err        error
	OccurredAt time.Time
}

// FailureSink consumes suppressed side-effect failures so operators keep
// visibility without the failure affecting control flow.
type FailureSink interface {
	Record(ctx context.Context, failure SuppressedFailure) error
}

// FailureSinkFunc adapts a function to the FailureSink interface.
type FailureSinkFunc func(ctx context.Context, failure SuppressedFailure) error

// Record implements FailureSink.
func (f FailureSinkFunc) Record(ctx context.Context, failure SuppressedFailure) error {
	if f == nil {
		return nil
	}
	return f(ctx, failure)
}

type noopFailureSink struct{}

func (noopFailureSink) Record(context.Context, SuppressedFailure) error {
	return nil
}

func normalizeFailureSink(s FailureSink) FailureSink {
	if s == nil {
		return noopFailureSink{}
	}
	return s
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENTITY "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] IDENTITY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENTITY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENTITY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
