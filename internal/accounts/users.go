package accounts

import (
	"fmt"
	"math"

	"github.com/radieske/gold-ledger/internal/shared/ledgererr"
	"github.com/radieske/gold-ledger/internal/store"
)

// Users é a coleção de contas carregada dentro de um store.Update.
// Só este pacote escreve saldo; a liquidação passa por Adjust.
type Users struct {
	items []User
}

// Load lê a coleção do snapshot. Chave ausente é coleção vazia.
func Load(tx *store.Txn) (*Users, error) {
	var recs []record
	if _, err := tx.Decode(store.KeyUsers, &recs); err != nil {
		return nil, err
	}
	items := make([]User, 0, len(recs))
	for _, r := range recs {
		items = append(items, fromRecord(r))
	}
	return &Users{items: items}, nil
}

func (u *Users) Save(tx *store.Txn) error {
	recs := make([]record, 0, len(u.items))
	for _, it := range u.items {
		recs = append(recs, toRecord(it))
	}
	return tx.Encode(store.KeyUsers, recs)
}

func (u *Users) All() []User {
	out := make([]User, len(u.items))
	copy(out, u.items)
	return out
}

func (u *Users) Len() int { return len(u.items) }

func (u *Users) index(id string) int {
	for i, it := range u.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (u *Users) Get(id string) (User, error) {
	i := u.index(id)
	if i < 0 {
		return User{}, fmt.Errorf("user %s: %w", id, ledgererr.ErrNotFound)
	}
	return u.items[i], nil
}

func (u *Users) ByEmail(email string) (User, bool) {
	for _, it := range u.items {
		if it.Email == email {
			return it, true
		}
	}
	return User{}, false
}

// emailTaken ignora o próprio usuário (id) na checagem.
func (u *Users) emailTaken(email, id string) bool {
	for _, it := range u.items {
		if it.Email == email && it.ID != id {
			return true
		}
	}
	return false
}

func (u *Users) Append(usr User) error {
	if u.index(usr.ID) >= 0 {
		return fmt.Errorf("%w: id %s already exists", ledgererr.ErrInvalidInput, usr.ID)
	}
	if u.emailTaken(usr.Email, usr.ID) {
		return fmt.Errorf("%w: email %s already registered", ledgererr.ErrInvalidInput, usr.Email)
	}
	u.items = append(u.items, usr)
	return nil
}

// Replace troca o registro inteiro. Hash vazio mantém o atual.
func (u *Users) Replace(usr User) (User, error) {
	i := u.index(usr.ID)
	if i < 0 {
		return User{}, fmt.Errorf("user %s: %w", usr.ID, ledgererr.ErrNotFound)
	}
	if err := validateProfile(usr); err != nil {
		return User{}, err
	}
	if u.emailTaken(usr.Email, usr.ID) {
		return User{}, fmt.Errorf("%w: email %s already registered", ledgererr.ErrInvalidInput, usr.Email)
	}
	if usr.PasswordHash == "" {
		usr.PasswordHash = u.items[i].PasswordHash
	}
	u.items[i] = usr
	return usr, nil
}

func (u *Users) Remove(id string) (User, error) {
	i := u.index(id)
	if i < 0 {
		return User{}, fmt.Errorf("user %s: %w", id, ledgererr.ErrNotFound)
	}
	removed := u.items[i]
	u.items = append(u.items[:i], u.items[i+1:]...)
	return removed, nil
}

// Adjust aplica delta ao saldo. Rejeita saldo negativo, nunca trunca.
func (u *Users) Adjust(id string, delta int64) (User, error) {
	i := u.index(id)
	if i < 0 {
		return User{}, fmt.Errorf("user %s: %w", id, ledgererr.ErrNotFound)
	}
	gold := u.items[i].Gold
	if delta < 0 && gold+delta < 0 {
		return User{}, fmt.Errorf("user %s has %d, delta %d: %w", id, gold, delta, ledgererr.ErrInsufficientFunds)
	}
	if delta > 0 && gold > math.MaxInt64-delta {
		return User{}, fmt.Errorf("%w: balance overflow", ledgererr.ErrInvalidInput)
	}
	u.items[i].Gold = gold + delta
	return u.items[i], nil
}
