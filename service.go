package identity

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// Service orchestrates the account state machine: registration,
// authentication, token refresh, email confirmation, and password
// reset. Storage, token codec, hashing, and notification transport are
// injected.
type Service struct {
	store      AccountStore
	tokens     TokenProvider
	hasher     PasswordHasher
	mailer     Mailer
	confirmTTL time.Duration
	logger     Logger
	failures   FailureSink
}

// NewService builds the orchestrator. The confirmation lifetime comes
// from config; everything else is a collaborator.
func NewService(store AccountStore, tokens TokenProvider, mailer Mailer, cfg Config) *Service {
	confirmTTL := cfg.ConfirmationTokenTTL
	if confirmTTL <= 0 {
		confirmTTL = 24 * time.Hour
	}

	return &Service{
		store:      store,
		tokens:     tokens,
		hasher:     NewBcryptHasher(DefaultBcryptCost),
		mailer:     mailer,
		confirmTTL: confirmTTL,
		logger:     defLogger{},
		failures:   noopFailureSink{},
	}
}

// WithLogger overrides the service logger.
func (s *Service) WithLogger(logger Logger) *Service {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithHasher overrides the password hasher.
func (s *Service) WithHasher(hasher PasswordHasher) *Service {
	if hasher != nil {
		s.hasher = hasher
	}
	return s
}

// WithFailureSink configures the hook invoked on every suppressed
// side-effect failure.
func (s *Service) WithFailureSink(sink FailureSink) *Service {
	s.failures = normalizeFailureSink(sink)
	return s
}

// Register creates an account and issues a full token pair. The
// confirmation email is attempted as a side effect, fully isolated from
// the registration result: once the account persisted, the token pair
// is returned no matter what the notification path does.
func (s *Service) Register(ctx context.Context, msg RegisterMessage) (*TokenPair, error) {
	if err := msg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid registration payload")
	}

	// Advisory pre-check. Two concurrent registrations can both pass
	// it; the store's unique index decides the loser below.
	if _, err := s.store.GetByEmail(ctx, msg.Email); err == nil {
		return nil, ErrAccountExists
	} else if !IsAccountNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check existing account")
	}

	hash, err := s.hasher.HashPassword(msg.Password)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	record := &Account{
		Name:         msg.Name,
		Email:        msg.Email,
		PasswordHash: hash,
		AccountType:  msg.AccountType,
	}

	if msg.DeterministicID {
		if id, err := hashid.NewUUID(msg.Email); err == nil {
			record.ID = id
		}
	}

	created, err := s.store.Create(ctx, record)
	if err != nil {
		if IsAccountExists(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create account")
	}

	if created == nil {
		return nil, errors.New("store returned no record for created account", errors.CategoryInternal)
	}

	pair, err := s.tokenPair(created)
	if err != nil {
		return nil, err
	}

	if err := s.sendConfirmation(ctx, created.Profile()); err != nil {
		s.suppress(ctx, "register.confirmation_email", created.ID, err)
	}

	return pair, nil
}

// Authenticate verifies credentials and issues a full token pair. A
// missing account and a wrong password are distinguishable outcomes.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*TokenPair, error) {
	msg := CredentialsMessage{Email: email, Password: password}
	if err := msg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid credentials payload")
	}

	account, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if IsAccountNotFound(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load account")
	}

	if err := s.hasher.ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		return nil, errors.Wrap(err, ErrAuthenticationFailed.Category, "incorrect password").
			WithTextCode(ErrAuthenticationFailed.TextCode)
	}

	return s.tokenPair(account)
}

// VerifyCredentials decodes any validly signed, unexpired token and
// resolves the embedded subject to a profile. This is the trust anchor
// for every authenticated entry point.
func (s *Service) VerifyCredentials(ctx context.Context, token string) (*Profile, error) {
	claims, err := s.decodeAuthorized(token)
	if err != nil {
		return nil, err
	}

	account, err := s.loadSubject(ctx, claims)
	if err != nil {
		return nil, err
	}

	return account.Profile(), nil
}

// RefreshToken issues a new access-only token. The presented token must
// carry the refresh purpose; the refresh token itself is not rotated
// and remains valid until natural expiry.
func (s *Service) RefreshToken(ctx context.Context, token string) (*Token, error) {
	claims, err := s.decodeAuthorized(token)
	if err != nil {
		return nil, err
	}

	if !claims.HasPurpose(PurposeRefresh) {
		return nil, errors.New("token purpose does not allow refresh", ErrAuthorizationFailed.Category).
			WithTextCode(ErrAuthorizationFailed.TextCode)
	}

	account, err := s.loadSubject(ctx, claims)
	if err != nil {
		return nil, err
	}

	access, err := s.tokens.EncodeAccess(account.ID, account.Email)
	if err != nil {
		return nil, errors.Wrap(err, ErrAuthenticationFailed.Category, "failed to create token").
			WithTextCode(ErrAuthenticationFailed.TextCode)
	}

	return &Token{AccessToken: access, TokenType: TokenTypeBearer}, nil
}

// SendConfirmationEmail mints a confirmation token and publishes the
// confirmation job. Fails with ErrAlreadyConfirmed, publishing nothing,
// when the profile's email is already confirmed.
func (s *Service) SendConfirmationEmail(ctx context.Context, profile *Profile) error {
	return s.sendConfirmation(ctx, profile)
}

// ConfirmEmail flips email_confirmed to true. Replaying a still-valid
// token is a harmless idempotent no-op; a token without the
// confirmation claim is rejected.
func (s *Service) ConfirmEmail(ctx context.Context, token string) (*Profile, error) {
	claims, err := s.decodeAuthorized(token)
	if err != nil {
		return nil, err
	}

	if !claims.Confirmation {
		return nil, errors.New("no confirmation token", ErrAuthorizationFailed.Category).
			WithTextCode(ErrAuthorizationFailed.TextCode)
	}

	account, err := s.loadSubject(ctx, claims)
	if err != nil {
		return nil, err
	}

	account.EmailConfirmed = true

	updated, err := s.store.Update(ctx, account.ID, account)
	if err != nil {
		if IsAccountNotFound(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to persist email confirmation")
	}

	return updated.Profile(), nil
}

// SendPasswordResetEmail mints a confirmation-purpose token and
// publishes the reset job. There is no already-confirmed style guard:
// repeated requests each mint a fresh valid token. Publish failures
// propagate; this call has no other success signal.
func (s *Service) SendPasswordResetEmail(ctx context.Context, email string) error {
	account, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if IsAccountNotFound(err) {
			return err
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to load account")
	}

	profile := account.Profile()

	token, err := s.confirmationToken(profile)
	if err != nil {
		return err
	}

	return s.mailer.SendPasswordReset(ctx, profile, token)
}

// ResetPassword hashes and persists a new password for the token's
// subject. Decode failures and purpose mismatches surface with the
// authentication kind at this entry point, unlike the authorization
// kind used elsewhere for the same underlying failure.
func (s *Service) ResetPassword(ctx context.Context, newPassword, token string) error {
	claims, err := s.tokens.Decode(token)
	if err != nil {
		return errors.Wrap(err, ErrAuthenticationFailed.Category, ErrAuthenticationFailed.Message).
			WithTextCode(ErrAuthenticationFailed.TextCode)
	}

	if !claims.HasPurpose(PurposeConfirmation) {
		return errors.New("token purpose does not allow password reset", ErrAuthenticationFailed.Category).
			WithTextCode(ErrAuthenticationFailed.TextCode)
	}

	if err := validation.Validate(newPassword, validation.Required, validation.Length(8, 100)); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid new password")
	}

	account, err := s.loadSubject(ctx, claims)
	if err != nil {
		return err
	}

	hash, err := s.hasher.HashPassword(newPassword)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to hash new password")
	}

	account.PasswordHash = hash

	if _, err := s.store.Update(ctx, account.ID, account); err != nil {
		if IsAccountNotFound(err) {
			return err
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to persist new password")
	}

	return nil
}

// Profile returns the public profile for an account id.
func (s *Service) Profile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	account, err := s.store.Get(ctx, id)
	if err != nil {
		if IsAccountNotFound(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load account")
	}

	return account.Profile(), nil
}

// Delete removes an account and returns its last profile. This is the
// administrative delete, outside the hardened flows.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (*Profile, error) {
	account, err := s.store.Delete(ctx, id)
	if err != nil {
		if IsAccountNotFound(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to delete account")
	}

	return account.Profile(), nil
}

func (s *Service) sendConfirmation(ctx context.Context, profile *Profile) error {
	if profile == nil {
		return errors.New("confirmation email requires a profile", errors.CategoryBadInput)
	}

	if profile.EmailConfirmed {
		return ErrAlreadyConfirmed
	}

	token, err := s.confirmationToken(profile)
	if err != nil {
		return err
	}

	return s.mailer.SendConfirmation(ctx, profile, token)
}

func (s *Service) confirmationToken(profile *Profile) (string, error) {
	token, err := s.tokens.EncodeRefresh(profile.ID, profile.Email,
		WithLifetime(s.confirmTTL),
		WithConfirmation(),
	)
	if err != nil {
		return "", errors.Wrap(err, ErrAuthorizationFailed.Category, "failed to create token").
			WithTextCode(ErrAuthorizationFailed.TextCode)
	}

	return token, nil
}

func (s *Service) tokenPair(account *Account) (*TokenPair, error) {
	access, err := s.tokens.EncodeAccess(account.ID, account.Email)
	if err != nil {
		return nil, errors.Wrap(err, ErrAuthenticationFailed.Category, "failed to create token").
			WithTextCode(ErrAuthenticationFailed.TextCode)
	}

	refresh, err := s.tokens.EncodeRefresh(account.ID, account.Email)
	if err != nil {
		return nil, errors.Wrap(err, ErrAuthenticationFailed.Category, "failed to create token").
			WithTextCode(ErrAuthenticationFailed.TextCode)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    TokenTypeBearer,
	}, nil
}

func (s *Service) decodeAuthorized(token string) (*IdentityClaims, error) {
	claims, err := s.tokens.Decode(token)
	if err != nil {
		return nil, errors.Wrap(err, ErrAuthorizationFailed.Category, ErrAuthorizationFailed.Message).
			WithTextCode(ErrAuthorizationFailed.TextCode)
	}
	return claims, nil
}

func (s *Service) loadSubject(ctx context.Context, claims *IdentityClaims) (*Account, error) {
	id, err := claims.AccountID()
	if err != nil {
		return nil, errors.Wrap(err, ErrAuthorizationFailed.Category, ErrAuthorizationFailed.Message).
			WithTextCode(ErrAuthorizationFailed.TextCode)
	}

	account, err := s.store.Get(ctx, id)
	if err != nil {
		if IsAccountNotFound(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load account")
	}

	return account, nil
}

func (s *Service) suppress(ctx context.Context, op string, accountID uuid.UUID, err error) {
	s.logger.Warn("suppressed %s failure for account %s: %v", op, accountID, err)

	failure := SuppressedFailure{
		Op:         op,
		AccountID:  accountID,
		Err:        err,
		OccurredAt: time.Now(),
	}

	if sinkErr := normalizeFailureSink(s.failures).Record(ctx, failure); sinkErr != nil {
		s.logger.Warn("failure sink record error: %v", sinkErr)
	}
}
