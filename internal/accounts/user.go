package accounts

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/radieske/gold-ledger/internal/shared/ledgererr"
)

var validate = validator.New()

// User é a conta de um apostador. PasswordHash nunca sai na projeção JSON.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	DisplayName  string `json:"displayName"`
	Gold         int64  `json:"gold"`
	IsAdmin      bool   `json:"isAdmin"`
	IsPremium    bool   `json:"isPremium"`
}

// NewUser são os campos de criação. ID vazio gera um id novo.
type NewUser struct {
	ID          string `json:"id,omitempty"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	DisplayName string `json:"displayName" validate:"required"`
	Gold        int64  `json:"gold" validate:"gte=0"`
	IsAdmin     bool   `json:"isAdmin"`
	IsPremium   bool   `json:"isPremium"`
}

func (n *NewUser) Validate() error {
	if err := validate.Struct(n); err != nil {
		return fmt.Errorf("%w: %v", ledgererr.ErrInvalidInput, err)
	}
	return nil
}

// record é a forma persistida; a única que carrega o hash.
type record struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	DisplayName  string `json:"displayName"`
	Gold         int64  `json:"gold"`
	IsAdmin      bool   `json:"isAdmin"`
	IsPremium    bool   `json:"isPremium"`
}

func toRecord(u User) record {
	return record(u)
}

func fromRecord(r record) User {
	return User(r)
}

func validateProfile(u User) error {
	if err := validate.Var(u.Email, "required,email"); err != nil {
		return fmt.Errorf("%w: email: %v", ledgererr.ErrInvalidInput, err)
	}
	if u.DisplayName == "" {
		return fmt.Errorf("%w: display name required", ledgererr.ErrInvalidInput)
	}
	if u.Gold < 0 {
		return fmt.Errorf("%w: negative gold", ledgererr.ErrInvalidInput)
	}
	return nil
}

func hashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password required", ledgererr.ErrInvalidInput)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: %v", ledgererr.ErrInvalidInput, err)
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// VerifyPassword compara a senha com o hash bcrypt do usuário.
func VerifyPassword(u User, password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
