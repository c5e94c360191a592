package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountType distinguishes personal accounts from organizations.
type AccountType = string

const (
	// AccountTypeIndividual is a personal account.
	AccountTypeIndividual AccountType = "individual"
	// AccountTypeOrganization is a company account.
	AccountTypeOrganization AccountType = "organization"
)

// Account is the identity record. Email uniqueness is enforced by the
// store's unique index; the pre-check lookup in Register is advisory.
type Account struct {
	bun.BaseModel  `bun:"table:accounts,alias:acc"`
	ID             uuid.UUID   `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name           string      `bun:"name,notnull" json:"name,omitempty"`
	Email          string      `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string      `bun:"password_hash,notnull" json:"-"`
	EmailConfirmed bool        `bun:"email_confirmed" json:"email_confirmed,omitempty"`
	AccountType    AccountType `bun:"account_type,notnull" json:"account_type,omitempty"`
	IsAdmin        bool        `bun:"is_admin" json:"is_admin,omitempty"`
	CreatedAt      *time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Profile returns the public view of the account. The password hash
// never leaves the record.
func (a *Account) Profile() *Profile {
	if a == nil {
		return nil
	}

	return &Profile{
		ID:             a.ID,
		Name:           a.Name,
		Email:          a.Email,
		AccountType:    a.AccountType,
		EmailConfirmed: a.EmailConfirmed,
		IsAdmin:        a.IsAdmin,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// Profile is the caller-visible account projection.
type Profile struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	AccountType    AccountType `json:"account_type"`
	EmailConfirmed bool        `json:"email_confirmed"`
	IsAdmin        bool        `json:"is_admin"`
	CreatedAt      *time.Time  `json:"created_at,omitempty"`
	UpdatedAt      *time.Time  `json:"updated_at,omitempty"`
}

// TokenTypeBearer is the fixed token type label; it is not embedded in
// the claims.
const TokenTypeBearer = "bearer"

// TokenPair is the full credential set issued by Register and
// Authenticate.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Token is the access-only credential issued by RefreshToken.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
