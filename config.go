package identity

import (
	"crypto/rsa"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// KeyPair holds the RSA signing keys: private for encode, public for
// decode. Keys are parsed eagerly at construction and immutable after.
type KeyPair struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// LoadKeyPair reads and parses both PEM files up front. There is no
// lazy, memoized re-read later; a bad key fails the process at start.
func LoadKeyPair(privatePath, publicPath string) (*KeyPair, error) {
	privatePEM, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to read private key file")
	}

	publicPEM, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to read public key file")
	}

	return KeyPairFromPEM(privatePEM, publicPEM)
}

// KeyPairFromPEM parses an RSA key pair from PEM blocks.
func KeyPairFromPEM(privatePEM, publicPEM []byte) (*KeyPair, error) {
	private, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to parse RSA private key")
	}

	public, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to parse RSA public key")
	}

	return &KeyPair{Private: private, Public: public}, nil
}

// Config is the process-wide configuration surface consumed by the
// package. The bootstrap layer builds it once; treat it as immutable.
type Config struct {
	Keys *KeyPair

	// AccessTokenTTL is minutes-scale, RefreshTokenTTL days-scale.
	// ConfirmationTokenTTL bounds confirmation and reset links.
	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	ConfirmationTokenTTL time.Duration

	QueueURL  string
	QueueName string

	ConfirmationTemplate string
	ResetTemplate        string
}

// DefaultConfig returns lifetimes matching the service defaults: one
// hour access, thirty day refresh, one day confirmation.
func DefaultConfig(keys *KeyPair) Config {
	return Config{
		Keys:                 keys,
		AccessTokenTTL:       60 * time.Minute,
		RefreshTokenTTL:      30 * 24 * time.Hour,
		ConfirmationTokenTTL: 24 * time.Hour,
	}
}

// Validate checks the configuration is complete enough to construct the
// token provider and dispatcher.
func (c Config) Validate() error {
	if c.Keys == nil || c.Keys.Private == nil || c.Keys.Public == nil {
		return errors.New("config requires a loaded RSA key pair", errors.CategoryValidation)
	}

	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 || c.ConfirmationTokenTTL <= 0 {
		return errors.New("config token lifetimes must be positive", errors.CategoryValidation)
	}

	err := validation.Errors{
		"queue_url":             validation.Validate(c.QueueURL, validation.Required),
		"queue_name":            validation.Validate(c.QueueName, validation.Required),
		"confirmation_template": validation.Validate(c.ConfirmationTemplate, validation.Required),
		"reset_template":        validation.Validate(c.ResetTemplate, validation.Required),
	}.Filter()
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "incomplete identity config")
	}

	return nil
}
