package identity

import (
	stderrors "errors"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the adaptive work factor used for new hashes.
// Verification reads the factor embedded in the digest, so raising this
// does not invalidate existing credentials.
const DefaultBcryptCost = 12

// ErrMismatchedHashAndPassword is returned when a password does not match
// its stored digest.
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithTextCode(TextCodeAuthenticationFailed)

// ErrNoEmptyPassword rejects empty plaintext before hashing.
var ErrNoEmptyPassword = errors.New("password must not be empty", errors.CategoryValidation)

// BcryptHasher implements PasswordHasher with salted, adaptive bcrypt
// digests. The zero value uses DefaultBcryptCost.
type BcryptHasher struct {
	cost int
}

var _ PasswordHasher = (*BcryptHasher)(nil)

// NewBcryptHasher creates a hasher with the given cost; values outside
// bcrypt's range fall back to the default.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

// HashPassword generates a salted digest for the given plaintext. The
// plaintext is never logged or stored.
func (h *BcryptHasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyPassword
	}

	cost := h.cost
	if cost == 0 {
		cost = DefaultBcryptCost
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	return string(digest), nil
}

// ComparePasswordAndHash recomputes under the digest's embedded
// parameters and compares in constant time.
func (h *BcryptHasher) ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if stderrors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return errors.Wrap(err, errors.CategoryAuth, "failed to verify password")
	}
	return nil
}

// RandomPasswordHash returns a digest of a throwaway password, used for
// admin-created accounts that must complete a reset before first login.
func (h *BcryptHasher) RandomPasswordHash() string {
	pwd := uuid.New()

	digest, err := h.HashPassword(pwd.String())
	if err != nil {
		return h.RandomPasswordHash()
	}

	return digest
}
