package identity

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeAccountNotFound      = "account_not_found"
	TextCodeAccountExists        = "account_already_exists"
	TextCodeAuthenticationFailed = "authentication_failed"
	TextCodeAuthorizationFailed  = "authorization_failed"
	TextCodeAlreadyConfirmed     = "email_already_confirmed"
	TextCodeInvalidToken         = "invalid_token"
)

// ErrAccountNotFound is returned when no account matches an id or email.
var ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(errors.CodeNotFound)

// ErrAccountExists is returned when registration hits a duplicate email.
var ErrAccountExists = errors.New("account with such email already exists", errors.CategoryConflict).
	WithTextCode(TextCodeAccountExists).
	WithCode(errors.CodeConflict)

// ErrAuthenticationFailed is returned for a wrong password, and for
// invalid tokens presented to the reset password flow.
var ErrAuthenticationFailed = errors.New("authentication failed", errors.CategoryAuth).
	WithTextCode(TextCodeAuthenticationFailed).
	WithCode(errors.CodeUnauthorized)

// ErrAuthorizationFailed is returned when a token fails to decode or is
// missing the claims an operation requires.
var ErrAuthorizationFailed = errors.New("authorization failed", errors.CategoryAuth).
	WithTextCode(TextCodeAuthorizationFailed).
	WithCode(errors.CodeUnauthorized)

// ErrAlreadyConfirmed is returned when a confirmation email is requested
// for an account whose email is already confirmed.
var ErrAlreadyConfirmed = errors.New("email already confirmed", errors.CategoryConflict).
	WithTextCode(TextCodeAlreadyConfirmed).
	WithCode(errors.CodeConflict)

// ErrInvalidToken covers malformed structure, signature mismatch, expired
// timestamps, and unsupported algorithms during decode.
var ErrInvalidToken = errors.New("invalid token", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeUnauthorized)

// IsAccountNotFound reports whether err carries the account-not-found kind.
func IsAccountNotFound(err error) bool {
	return hasTextCode(err, TextCodeAccountNotFound)
}

// IsAccountExists reports whether err carries the duplicate-account kind.
func IsAccountExists(err error) bool {
	return hasTextCode(err, TextCodeAccountExists)
}

// IsAuthenticationFailed reports whether err carries the authentication kind.
func IsAuthenticationFailed(err error) bool {
	return hasTextCode(err, TextCodeAuthenticationFailed)
}

// IsAuthorizationFailed reports whether err carries the authorization kind.
func IsAuthorizationFailed(err error) bool {
	return hasTextCode(err, TextCodeAuthorizationFailed)
}

// IsAlreadyConfirmed reports whether err carries the already-confirmed kind.
func IsAlreadyConfirmed(err error) bool {
	return hasTextCode(err, TextCodeAlreadyConfirmed)
}

// IsInvalidToken reports whether err carries the invalid-token kind.
func IsInvalidToken(err error) bool {
	return hasTextCode(err, TextCodeInvalidToken)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == code
	}

	return false
}
