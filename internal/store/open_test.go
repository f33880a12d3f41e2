package store

import (
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/radieske/gold-ledger/internal/shared/config"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		cfg     config.Config
		want    string
		wantErr bool
	}{
		{name: "default_memory", cfg: config.Config{}, want: "*store.Memory"},
		{name: "memory", cfg: config.Config{StoreBackend: BackendMemory}, want: "*store.Memory"},
		{name: "redis", cfg: config.Config{StoreBackend: BackendRedis, RedisAddr: mr.Addr()}, want: "*store.Redis"},
		{name: "unknown", cfg: config.Config{StoreBackend: "etcd"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(t.Context(), tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			defer s.Close()

			if got := typeName(s); got != tt.want {
				t.Fatalf("backend = %s, want %s", got, tt.want)
			}
			if err := s.Ping(t.Context()); err != nil {
				t.Fatalf("ping: %v", err)
			}
		})
	}
}

func typeName(s Store) string {
	switch s.(type) {
	case *Memory:
		return "*store.Memory"
	case *Redis:
		return "*store.Redis"
	case *Postgres:
		return "*store.Postgres"
	default:
		return "unknown"
	}
}
