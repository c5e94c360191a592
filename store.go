package identity

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var deleteAccountSQL = `DELETE FROM "accounts"
WHERE "id" = ?
RETURNING *;`

// Accounts is the bun-backed account repository. It layers the
// AccountStore contract over the generic repository and maps storage
// outcomes onto the package error taxonomy.
type Accounts interface {
	AccountStore

	CreateTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)
	UpdateTx(ctx context.Context, tx bun.IDB, id uuid.UUID, record *Account) (*Account, error)
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts     = (*accounts)(nil)
	_ AccountStore = (*accounts)(nil)
)

// NewAccountsRepository wires the accounts table through bun.
func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) Create(ctx context.Context, record *Account) (*Account, error) {
	return a.CreateTx(ctx, a.db, record)
}

// CreateTx persists a new account. The unique index on email is the
// authoritative duplicate signal: a violation maps to ErrAccountExists
// even when the caller's pre-check lookup passed.
func (a *accounts) CreateTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error) {
	prepareAccountDefaults(record)

	created, err := a.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.Wrap(err, ErrAccountExists.Category, ErrAccountExists.Message).
				WithTextCode(ErrAccountExists.TextCode)
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create account")
	}

	return created, nil
}

func (a *accounts) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	record, err := a.Repository.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, accountNotFound("id", id.String())
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load account")
	}

	return record, nil
}

func (a *accounts) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *accounts) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	record := &Account{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", strings.TrimSpace(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) {
			return nil, accountNotFound("email", email)
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load account by email")
	}

	return record, nil
}

func (a *accounts) Update(ctx context.Context, id uuid.UUID, record *Account) (*Account, error) {
	return a.UpdateTx(ctx, a.db, id, record)
}

func (a *accounts) UpdateTx(ctx context.Context, tx bun.IDB, id uuid.UUID, record *Account) (*Account, error) {
	record.ID = id
	now := time.Now()
	record.UpdatedAt = &now

	updated, err := a.Repository.UpdateTx(ctx, tx, record, repository.UpdateByID(id.String()))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, accountNotFound("id", id.String())
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to update account")
	}

	return updated, nil
}

// Delete removes the record and returns it, so callers can surface the
// removed profile. Used by the administrative delete only.
func (a *accounts) Delete(ctx context.Context, id uuid.UUID) (*Account, error) {
	res, err := a.Repository.RawTx(ctx, a.db, deleteAccountSQL, id.String())
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to delete account")
	}

	if len(res) == 0 {
		return nil, accountNotFound("id", id.String())
	}

	return res[0], nil
}

// RepositoryManager exposes the package repositories plus a transaction
// runner for callers composing multi-step writes.
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Accounts() Accounts
}

type mngr struct {
	db       *bun.DB
	accounts Accounts
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:       db,
		accounts: NewAccountsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.accounts == nil {
		return errors.New("repository accounts should be initialized", errors.CategoryInternal)
	}
	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Accounts() Accounts {
	return m.accounts
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	if record.AccountType == "" {
		record.AccountType = AccountTypeIndividual
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

func accountNotFound(field, value string) error {
	return errors.New(ErrAccountNotFound.Message, ErrAccountNotFound.Category).
		WithTextCode(ErrAccountNotFound.TextCode).
		WithMetadata(map[string]any{field: value})
}

// isUniqueViolation matches the duplicate-key errors the supported
// drivers report. The register race resolves here, not at the advisory
// pre-check.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "Duplicate entry")
}
