package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Postgres guarda as chaves na tabela ledger_kv (ver cmd/migrator).
// Update serializa escritores com advisory locks por chave, tomados em ordem.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := p.db.QueryRowContext(ctx, `SELECT value FROM ledger_kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("postgres get %s: %w", key, err)
	}
	return value, true, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	if _, err := p.db.ExecContext(ctx, upsertSQL, key, value); err != nil {
		return fmt.Errorf("postgres set %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Remove(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM ledger_kv WHERE key = $1`, key); err != nil {
		return fmt.Errorf("postgres remove %s: %w", key, err)
	}
	return nil
}

const upsertSQL = `
	INSERT INTO ledger_kv (key, value, version, updated_at)
	VALUES ($1, $2, 1, NOW())
	ON CONFLICT (key) DO UPDATE
	SET value = EXCLUDED.value, version = ledger_kv.version + 1, updated_at = NOW()`

func (p *Postgres) Update(ctx context.Context, keys []string, fn func(tx *Txn) error) error {
	if len(keys) == 0 {
		return ErrNoKeys
	}

	sqlTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres begin: %w", err)
	}
	defer sqlTx.Rollback() // no-op após Commit

	// ordem fixa evita deadlock entre Updates com chaves sobrepostas
	for _, k := range sortedKeys(keys) {
		if _, err := sqlTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, k); err != nil {
			return fmt.Errorf("postgres lock %s: %w", k, err)
		}
	}

	rows, err := sqlTx.QueryContext(ctx, `SELECT key, value FROM ledger_kv WHERE key = ANY($1)`, pq.Array(keys))
	if err != nil {
		return fmt.Errorf("postgres read: %w", err)
	}
	snapshot := make(map[string][]byte, len(keys))
	for rows.Next() {
		var (
			k string
			v []byte
		)
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			return fmt.Errorf("postgres scan: %w", err)
		}
		snapshot[k] = v
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("postgres rows: %w", err)
	}
	rows.Close()

	tx := newTxn(keys, snapshot)
	if err := fn(tx); err != nil {
		return err
	}

	for _, o := range tx.ops() {
		if o.remove {
			if _, err := sqlTx.ExecContext(ctx, `DELETE FROM ledger_kv WHERE key = $1`, o.key); err != nil {
				return fmt.Errorf("postgres remove %s: %w", o.key, err)
			}
			continue
		}
		if _, err := sqlTx.ExecContext(ctx, upsertSQL, o.key, o.value); err != nil {
			return fmt.Errorf("postgres set %s: %w", o.key, err)
		}
	}

	if err := sqlTx.Commit(); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "40001" {
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return fmt.Errorf("postgres commit: %w", err)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
