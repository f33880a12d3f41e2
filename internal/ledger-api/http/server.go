package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/radieske/gold-ledger/internal/accounts"
	"github.com/radieske/gold-ledger/internal/analysis"
	"github.com/radieske/gold-ledger/internal/bets"
	"github.com/radieske/gold-ledger/internal/games"
	"github.com/radieske/gold-ledger/internal/ledger-api/dto"
	"github.com/radieske/gold-ledger/internal/matches"
	"github.com/radieske/gold-ledger/internal/seed"
	"github.com/radieske/gold-ledger/internal/session"
	"github.com/radieske/gold-ledger/internal/settlement"
	"github.com/radieske/gold-ledger/internal/shared/ledgererr"
	"github.com/radieske/gold-ledger/internal/store"
)

// MatchBroadcaster publica partidas alteradas no feed ao vivo
type MatchBroadcaster interface {
	Publish(ctx context.Context, m matches.Match) error
}

// API expõe o ledger em REST. Não tem regra própria além de autenticação
// e tradução de erros para status HTTP.
type API struct {
	Log         *zap.Logger
	Accounts    *accounts.Ledger
	Bets        *bets.Ledger
	Matches     *matches.Catalog
	Settlement  *settlement.Service
	Sessions    *session.Gate
	Analysis    *analysis.Cache
	Seeder      *seed.Seeder
	Games       *games.Machine
	PremiumCost int64

	// feed ao vivo, ambos opcionais
	Live        http.Handler
	Broadcaster MatchBroadcaster
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/v1/auth/login", a.login)
	r.Get("/v1/matches", a.listMatches)
	r.Get("/v1/matches/{id}", a.getMatch)
	if a.Live != nil {
		r.Handle("/v1/live", a.Live)
	}

	r.Group(func(r chi.Router) {
		r.Use(a.authenticated)

		r.Post("/v1/auth/logout", a.logout)
		r.Get("/v1/me", a.me)
		r.Get("/v1/me/bets", a.myBets)
		r.Post("/v1/me/premium", a.upgradePremium)
		r.Post("/v1/bets", a.placeBet)
		r.Get("/v1/analysis/{matchId}", a.getAnalysis)
		r.Put("/v1/analysis/{matchId}", a.saveAnalysis)
		r.Post("/v1/games/{game}/spin", a.spin)

		r.Group(func(r chi.Router) {
			r.Use(a.adminOnly)

			r.Put("/v1/matches/{id}", a.upsertMatch)
			r.Get("/v1/admin/users", a.listUsers)
			r.Post("/v1/admin/users", a.createUser)
			r.Put("/v1/admin/users/{id}", a.updateUser)
			r.Delete("/v1/admin/users/{id}", a.deleteUser)
			r.Post("/v1/admin/users/{id}/balance", a.adjustBalance)
			r.Get("/v1/admin/bets", a.listBets)
			r.Post("/v1/admin/bets/{id}/resolve", a.resolveBet)
			r.Delete("/v1/admin/bets/{id}", a.deleteBet)
			r.Post("/v1/admin/reset", a.reset)
		})
	})
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError traduz a taxonomia do ledger para status HTTP
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledgererr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledgererr.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, ledgererr.ErrInsufficientFunds),
		errors.Is(err, ledgererr.ErrInvalidTransition),
		errors.Is(err, store.ErrConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		a.Log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, status, dto.ErrorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, dto.ErrorResponse{Error: err.Error()})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return false
	}
	return true
}

type ctxKey struct{}

type principal struct {
	user accounts.User
	gate *session.Gate
}

func bearerToken(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// authenticated resolve o token na sessão correspondente; sem usuário, 401.
func (a *API) authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "missing bearer token"})
			return
		}

		gate := a.Sessions.Scoped(token)
		u, ok, err := gate.Current(r.Context())
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		if !ok {
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "not logged in"})
			return
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, principal{user: u, gate: gate})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *API) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !current(r).user.IsAdmin {
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "admin only"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func current(r *http.Request) principal {
	p, _ := r.Context().Value(ctxKey{}).(principal)
	return p
}
