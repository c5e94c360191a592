package identity

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// RegisterMessage is the registration payload.
type RegisterMessage struct {
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	AccountType AccountType `json:"account_type"`

	// DeterministicID derives the account id from the email instead of
	// generating a random one.
	DeterministicID bool `json:"-"`
}

func (m RegisterMessage) Type() string { return "identity.register" }

// Validate will run validation rules
func (m RegisterMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&m.Email, validation.Required, validation.Length(6, 70), is.Email),
		validation.Field(&m.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&m.AccountType,
			validation.Required,
			validation.In(AccountTypeIndividual, AccountTypeOrganization),
		),
	)
}

// CredentialsMessage is the authentication payload.
type CredentialsMessage struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (m CredentialsMessage) Type() string { return "identity.authenticate" }

// Validate will run validation rules
func (m CredentialsMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required, is.Email),
		validation.Field(&m.Password, validation.Required),
	)
}
