package identity

import (
	"crypto/rsa"
	stderrors "errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// RSATokenProvider implements TokenProvider over RS256. The key pair and
// lifetimes are fixed at construction.
type RSATokenProvider struct {
	privateKey      *rsa.PrivateKey
	publicKey       *rsa.PublicKey
	accessLifetime  time.Duration
	refreshLifetime time.Duration
	logger          Logger
}

var _ TokenProvider = (*RSATokenProvider)(nil)

// NewTokenProvider creates a provider from an eagerly loaded config.
func NewTokenProvider(cfg Config) (*RSATokenProvider, error) {
	if cfg.Keys == nil || cfg.Keys.Private == nil || cfg.Keys.Public == nil {
		return nil, errors.New("token provider requires a loaded RSA key pair", errors.CategoryInternal)
	}

	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, errors.New("token provider requires positive lifetimes", errors.CategoryInternal)
	}

	return &RSATokenProvider{
		privateKey:      cfg.Keys.Private,
		publicKey:       cfg.Keys.Public,
		accessLifetime:  cfg.AccessTokenTTL,
		refreshLifetime: cfg.RefreshTokenTTL,
		logger:          defLogger{},
	}, nil
}

// WithLogger overrides the provider logger.
func (p *RSATokenProvider) WithLogger(logger Logger) *RSATokenProvider {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// EncodeOption mutates the claims a refresh-family token is minted with.
type EncodeOption func(*encodeOptions)

type encodeOptions struct {
	lifetime     time.Duration
	confirmation bool
}

// WithLifetime overrides the configured refresh lifetime, used to mint
// confirmation and reset tokens with a shorter expiry.
func WithLifetime(d time.Duration) EncodeOption {
	return func(o *encodeOptions) {
		o.lifetime = d
	}
}

// WithConfirmation marks the token as a confirmation-purpose credential.
func WithConfirmation() EncodeOption {
	return func(o *encodeOptions) {
		o.confirmation = true
	}
}

// EncodeAccess signs an access claim set expiring after the configured
// access lifetime.
func (p *RSATokenProvider) EncodeAccess(accountID uuid.UUID, email string) (string, error) {
	claims := p.newClaims(accountID, email, p.accessLifetime)
	claims.Purpose = PurposeAccess
	return p.sign(claims)
}

// EncodeRefresh signs a refresh claim set expiring after the configured
// refresh lifetime, or the override when supplied.
func (p *RSATokenProvider) EncodeRefresh(accountID uuid.UUID, email string, opts ...EncodeOption) (string, error) {
	options := &encodeOptions{lifetime: p.refreshLifetime}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	claims := p.newClaims(accountID, email, options.lifetime)
	claims.Purpose = PurposeRefresh
	if options.confirmation {
		claims.Confirmation = true
		claims.Purpose = PurposeConfirmation
	}

	return p.sign(claims)
}

// Decode verifies signature and expiry and returns the claim set. It
// draws no distinction between access, refresh, and confirmation
// tokens; callers check purpose-specific claims after decode.
func (p *RSATokenProvider) Decode(token string) (*IdentityClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &IdentityClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			p.logger.Error("token decode encountered unexpected signing method: %v", t.Header["alg"])
			return nil, errors.New("unexpected signing method", errors.CategoryAuth).
				WithMetadata(map[string]any{"alg": t.Header["alg"]})
		}
		return p.publicKey, nil
	})

	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.Wrap(err, ErrInvalidToken.Category, "token expired").
				WithTextCode(ErrInvalidToken.TextCode)
		}
		return nil, errors.Wrap(err, ErrInvalidToken.Category, ErrInvalidToken.Message).
			WithTextCode(ErrInvalidToken.TextCode)
	}

	claims, ok := parsed.Claims.(*IdentityClaims)
	if !ok || !parsed.Valid {
		p.logger.Error("token decode could not map claims")
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (p *RSATokenProvider) newClaims(accountID uuid.UUID, email string, lifetime time.Duration) *IdentityClaims {
	now := time.Now()

	return &IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
		Email: email,
	}
}

func (p *RSATokenProvider) sign(claims *IdentityClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)

	signed, err := token.SignedString(p.privateKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign token")
	}

	return signed, nil
}
