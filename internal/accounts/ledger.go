package accounts

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/radieske/gold-ledger/internal/shared/ledgererr"
	"github.com/radieske/gold-ledger/internal/store"
)

var usersKey = []string{store.KeyUsers}

// Ledger expõe as operações de conta, cada uma em um único store.Update.
type Ledger struct {
	store      store.Store
	bcryptCost int
	newID      func() string
}

type Option func(*Ledger)

func WithBcryptCost(cost int) Option {
	return func(l *Ledger) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			l.bcryptCost = cost
		}
	}
}

func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:      s,
		bcryptCost: bcrypt.DefaultCost,
		newID:      newUserID,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// ids ordenados no tempo: "user-<uuid v7>"
func newUserID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return "user-" + uuid.NewString()
	}
	return "user-" + id.String()
}

func (l *Ledger) view(ctx context.Context, fn func(*Users) error) error {
	return store.View(ctx, l.store, usersKey, func(tx *store.Txn) error {
		users, err := Load(tx)
		if err != nil {
			return err
		}
		return fn(users)
	})
}

func (l *Ledger) mutate(ctx context.Context, fn func(*Users) error) error {
	return l.store.Update(ctx, usersKey, func(tx *store.Txn) error {
		users, err := Load(tx)
		if err != nil {
			return err
		}
		if err := fn(users); err != nil {
			return err
		}
		return users.Save(tx)
	})
}

// List devolve os usuários em ordem de inserção.
func (l *Ledger) List(ctx context.Context) ([]User, error) {
	var out []User
	err := l.view(ctx, func(u *Users) error {
		out = u.All()
		return nil
	})
	return out, err
}

func (l *Ledger) Get(ctx context.Context, id string) (User, error) {
	var out User
	err := l.view(ctx, func(u *Users) error {
		var err error
		out, err = u.Get(id)
		return err
	})
	return out, err
}

func (l *Ledger) FindByEmail(ctx context.Context, email string) (User, error) {
	var out User
	err := l.view(ctx, func(u *Users) error {
		usr, ok := u.ByEmail(email)
		if !ok {
			return fmt.Errorf("email %s: %w", email, ledgererr.ErrNotFound)
		}
		out = usr
		return nil
	})
	return out, err
}

func (l *Ledger) Create(ctx context.Context, in NewUser) (User, error) {
	// bcrypt fora do Update: é lento e o callback pode ser repetido
	usr, err := l.Build(in)
	if err != nil {
		return User{}, err
	}

	err = l.mutate(ctx, func(u *Users) error {
		return u.Append(usr)
	})
	if err != nil {
		return User{}, err
	}
	return usr, nil
}

// Build valida, gera o hash e o id, sem gravar nada.
func (l *Ledger) Build(in NewUser) (User, error) {
	if err := in.Validate(); err != nil {
		return User{}, err
	}
	hash, err := hashPassword(in.Password, l.bcryptCost)
	if err != nil {
		return User{}, err
	}

	usr := User{
		ID:           in.ID,
		Email:        in.Email,
		PasswordHash: hash,
		DisplayName:  in.DisplayName,
		Gold:         in.Gold,
		IsAdmin:      in.IsAdmin,
		IsPremium:    in.IsPremium,
	}
	if usr.ID == "" {
		usr.ID = l.newID()
	}
	return usr, nil
}

// Update substitui o registro inteiro. Hash vazio mantém a senha atual.
func (l *Ledger) Update(ctx context.Context, usr User) (User, error) {
	var out User
	err := l.mutate(ctx, func(u *Users) error {
		var err error
		out, err = u.Replace(usr)
		return err
	})
	return out, err
}

// HashPassword gera o hash bcrypt com o custo do ledger, para montar um User
// completo antes de Update.
func (l *Ledger) HashPassword(password string) (string, error) {
	return hashPassword(password, l.bcryptCost)
}

func (l *Ledger) SetPassword(ctx context.Context, id, password string) error {
	hash, err := hashPassword(password, l.bcryptCost)
	if err != nil {
		return err
	}
	return l.mutate(ctx, func(u *Users) error {
		usr, err := u.Get(id)
		if err != nil {
			return err
		}
		usr.PasswordHash = hash
		_, err = u.Replace(usr)
		return err
	})
}

// Delete remove a conta. Apostas do usuário ficam no ledger de apostas.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	return l.mutate(ctx, func(u *Users) error {
		_, err := u.Remove(id)
		return err
	})
}

func (l *Ledger) AdjustBalance(ctx context.Context, id string, delta int64) (User, error) {
	var out User
	err := l.mutate(ctx, func(u *Users) error {
		var err error
		out, err = u.Adjust(id, delta)
		return err
	})
	return out, err
}

// UpgradePremium debita cost e marca premium na mesma escrita.
// Quem já é premium volta sem cobrança.
func (l *Ledger) UpgradePremium(ctx context.Context, id string, cost int64) (User, error) {
	if cost < 0 {
		return User{}, fmt.Errorf("%w: negative premium cost", ledgererr.ErrInvalidInput)
	}

	var out User
	err := l.mutate(ctx, func(u *Users) error {
		usr, err := u.Get(id)
		if err != nil {
			return err
		}
		if usr.IsPremium {
			out = usr
			return nil
		}
		usr, err = u.Adjust(id, -cost)
		if err != nil {
			return err
		}
		usr.IsPremium = true
		out, err = u.Replace(usr)
		return err
	})
	return out, err
}
