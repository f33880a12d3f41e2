package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/gold-ledger/internal/matches"
)

func newHubServer(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(zap.NewNop(), func(*http.Request) bool { return true })
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.DialContext(t.Context(), url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// send escreve a mensagem e espera o pong; o hub processa em ordem,
// então depois do pong a mensagem anterior já foi aplicada
func send(t *testing.T, conn *websocket.Conn, msgs ...ClientMsg) {
	t.Helper()
	for _, m := range msgs {
		if err := conn.WriteJSON(m); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := conn.WriteJSON(ClientMsg{Type: "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	var pong map[string]string
	readJSON(t, conn, &pong)
	if pong["type"] != "pong" {
		t.Fatalf("expected pong, got %v", pong)
	}
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(v); err != nil {
		t.Fatalf("read: %v", err)
	}
}

func match(id string) matches.Match {
	return matches.Match{
		ID:       id,
		HomeTeam: "Flamengo",
		AwayTeam: "Palmeiras",
		Odds:     matches.Odds{Home: decimal.RequireFromString("2.1"), Away: decimal.RequireFromString("3.4")},
	}
}

func TestHub_BroadcastRoutesBySubscription(t *testing.T) {
	t.Parallel()
	hub, url := newHubServer(t)

	a := dial(t, url)
	all := dial(t, url)
	b := dial(t, url)
	send(t, a, ClientMsg{Type: "subscribe", MatchID: "m-a"})
	send(t, all, ClientMsg{Type: "subscribe", MatchID: AllMatches}, ClientMsg{Type: "subscribe", MatchID: "m-a"})
	send(t, b, ClientMsg{Type: "subscribe", MatchID: "m-b"})

	hub.Broadcast(NewUpdate(match("m-a")))

	var got Update
	readJSON(t, a, &got)
	if got.MatchID != "m-a" || got.Match.HomeTeam != "Flamengo" {
		t.Fatalf("a got %+v", got)
	}
	if !got.Match.Odds.Home.Equal(decimal.RequireFromString("2.1")) {
		t.Fatalf("odds lost in transit: %s", got.Match.Odds.Home)
	}

	// inscrito em "*" e na partida recebe uma única vez
	readJSON(t, all, &got)
	if got.MatchID != "m-a" {
		t.Fatalf("all got %+v", got)
	}
	send(t, all)

	// b não recebe nada: a próxima mensagem é o pong
	send(t, b)
}

func TestHub_UnsubscribeAndDisconnect(t *testing.T) {
	t.Parallel()
	hub, url := newHubServer(t)

	c := dial(t, url)
	send(t, c, ClientMsg{Type: "subscribe", MatchID: "m-1"})
	if n := hub.Subscribers("m-1"); n != 1 {
		t.Fatalf("Subscribers = %d", n)
	}

	send(t, c, ClientMsg{Type: "unsubscribe", MatchID: "m-1"})
	if n := hub.Subscribers("m-1"); n != 0 {
		t.Fatalf("Subscribers after unsubscribe = %d", n)
	}

	d := dial(t, url)
	send(t, d, ClientMsg{Type: "subscribe", MatchID: "m-2"})
	_ = d.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers("m-2") != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("closed client still subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRedisSubscriber_ForwardsToHub(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), Protocol: 2})
	t.Cleanup(func() { _ = rdb.Close() })

	hub, url := newHubServer(t)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	if err := StartRedisSubscriber(ctx, rdb, hub, zap.NewNop()); err != nil {
		t.Fatalf("StartRedisSubscriber: %v", err)
	}

	c := dial(t, url)
	send(t, c, ClientMsg{Type: "subscribe", MatchID: "m-9"})

	if err := NewRedisBroadcaster(rdb).Publish(t.Context(), match("m-9")); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	var got Update
	readJSON(t, c, &got)
	if got.MatchID != "m-9" || got.Ts == 0 {
		t.Fatalf("got %+v", got)
	}
}
