package cache

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestConnectRedis(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)

	rdb, err := ConnectRedis(t.Context(), mr.Addr())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer rdb.Close()

	if err := rdb.Set(t.Context(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := mr.Get("k"); got != "v" {
		t.Fatalf("k = %q", got)
	}
}

func TestConnectRedis_Unreachable(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := ConnectRedis(t.Context(), addr); err == nil {
		t.Fatalf("expected error for closed server")
	}
}
