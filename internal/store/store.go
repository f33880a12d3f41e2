package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Chaves usadas pelo ledger. Uma chave por coleção, mais uma por sessão.
const (
	KeyUsers         = "ledger:users"
	KeyMatches       = "ledger:matches"
	KeyBets          = "ledger:bets"
	KeyAnalysisCache = "ledger:analysis-cache"
	KeySessionPrefix = "ledger:session:"
	KeySessionIndex  = "ledger:sessions"
)

// DefaultMaxRetries limita as tentativas de Update quando há conflito de versão.
const DefaultMaxRetries = 8

var (
	ErrConflict   = errors.New("store: concurrent update conflict")
	ErrNoKeys     = errors.New("store: update without keys")
	ErrUndeclared = errors.New("store: key not declared in update")
)

// Store é a única camada de durabilidade do ledger.
// Get devolve ok=false para chave ausente, nunca erro.
// Update lê um snapshot das chaves declaradas, executa fn e só grava se nenhuma
// chave mudou desde a leitura. Se fn falhar nada é gravado.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Update(ctx context.Context, keys []string, fn func(tx *Txn) error) error
	Ping(ctx context.Context) error
	Close() error
}

type write struct {
	value  []byte
	remove bool
}

type op struct {
	key string
	write
}

// Txn é a visão de um Update: leituras vêm do snapshot, escritas ficam em buffer
// até o commit do backend.
type Txn struct {
	declared map[string]struct{}
	reads    map[string][]byte
	writes   map[string]write
}

func newTxn(keys []string, snapshot map[string][]byte) *Txn {
	declared := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		declared[k] = struct{}{}
	}
	return &Txn{declared: declared, reads: snapshot, writes: make(map[string]write)}
}

func (t *Txn) check(key string) {
	if _, ok := t.declared[key]; !ok {
		panic(fmt.Errorf("%w: %q", ErrUndeclared, key))
	}
}

// Get lê a chave considerando escritas já feitas nesta transação.
func (t *Txn) Get(key string) ([]byte, bool) {
	t.check(key)
	if w, ok := t.writes[key]; ok {
		if w.remove {
			return nil, false
		}
		return w.value, true
	}
	v, ok := t.reads[key]
	return v, ok
}

func (t *Txn) Set(key string, value []byte) {
	t.check(key)
	t.writes[key] = write{value: value}
}

func (t *Txn) Remove(key string) {
	t.check(key)
	t.writes[key] = write{remove: true}
}

// Decode decodifica o JSON da chave em dst. ok=false se a chave não existe.
func (t *Txn) Decode(key string, dst any) (bool, error) {
	b, ok := t.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Encode serializa v em JSON e grava na chave.
func (t *Txn) Encode(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	t.Set(key, b)
	return nil
}

// ops devolve as escritas pendentes em ordem de chave (commit determinístico).
func (t *Txn) ops() []op {
	out := make([]op, 0, len(t.writes))
	for k, w := range t.writes {
		out = append(out, op{key: k, write: w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

// View executa fn sobre um snapshot somente leitura das chaves.
func View(ctx context.Context, s Store, keys []string, fn func(tx *Txn) error) error {
	snapshot := make(map[string][]byte, len(keys))
	for _, k := range keys {
		v, ok, err := s.Get(ctx, k)
		if err != nil {
			return err
		}
		if ok {
			snapshot[k] = v
		}
	}
	return fn(newTxn(keys, snapshot))
}

func sortedKeys(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	return out
}
