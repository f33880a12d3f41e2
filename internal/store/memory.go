package store

import (
	"context"
	"sync"
)

// Memory guarda tudo em um map. Update segura o lock durante todo o callback,
// então é um escritor único dentro do processo.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = clone(value)
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

func (m *Memory) Update(ctx context.Context, keys []string, fn func(tx *Txn) error) error {
	if len(keys) == 0 {
		return ErrNoKeys
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			snapshot[k] = clone(v)
		}
	}

	tx := newTxn(keys, snapshot)
	if err := fn(tx); err != nil {
		return err
	}

	for _, o := range tx.ops() {
		if o.remove {
			delete(m.data, o.key)
			continue
		}
		m.data[o.key] = clone(o.value)
	}
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
