package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandler_Healthz(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		health   HealthFunc
		wantCode int
		wantBody string
	}{
		{
			name:     "healthy",
			health:   func(context.Context) error { return nil },
			wantCode: http.StatusOK,
			wantBody: "ok",
		},
		{
			name:     "store_down",
			health:   func(context.Context) error { return errors.New("redis down") },
			wantCode: http.StatusServiceUnavailable,
			wantBody: "unhealthy: redis down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(Handler(tt.health))
			defer srv.Close()

			resp, err := http.Get(srv.URL + "/healthz")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != tt.wantCode || string(body) != tt.wantBody {
				t.Fatalf("status=%d body=%q", resp.StatusCode, body)
			}
		})
	}
}

func TestHandler_Metrics(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(Handler(func(context.Context) error { return nil }))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "go_goroutines") {
		t.Fatalf("status=%d", resp.StatusCode)
	}
}
