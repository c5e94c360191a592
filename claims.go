package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenPurpose discriminates what a token may be presented for. Decode
// is purpose agnostic; purpose-sensitive operations reject mismatches
// after decode.
type TokenPurpose = string

const (
	// PurposeAccess authorizes individual requests.
	PurposeAccess TokenPurpose = "access"
	// PurposeRefresh mints new access tokens.
	PurposeRefresh TokenPurpose = "refresh"
	// PurposeConfirmation proves control of the registered email; reused
	// unmodified for password reset links.
	PurposeConfirmation TokenPurpose = "confirmation"
)

// IdentityClaims is the signed claim set inside every token.
type IdentityClaims struct {
	jwt.RegisteredClaims
	Email        string       `json:"email,omitempty"`
	Confirmation bool         `json:"confirmation,omitempty"`
	Purpose      TokenPurpose `json:"purpose,omitempty"`
}

// AccountID parses the subject claim into an account id.
func (c *IdentityClaims) AccountID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.RegisteredClaims.Subject)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, errors.CategoryAuth, "token subject is not an account id").
			WithTextCode(TextCodeInvalidToken)
	}
	return id, nil
}

// Expires returns the expiration time, zero when absent.
func (c *IdentityClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// Issued returns the issued-at time, zero when absent.
func (c *IdentityClaims) Issued() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// HasPurpose reports whether the claims carry the given purpose.
func (c *IdentityClaims) HasPurpose(purpose TokenPurpose) bool {
	return c.Purpose == purpose
}
