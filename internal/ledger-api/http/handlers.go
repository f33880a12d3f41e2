package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/gold-ledger/internal/accounts"
	"github.com/radieske/gold-ledger/internal/analysis"
	"github.com/radieske/gold-ledger/internal/bets"
	"github.com/radieske/gold-ledger/internal/games"
	"github.com/radieske/gold-ledger/internal/ledger-api/dto"
	"github.com/radieske/gold-ledger/internal/matches"
)

// --- auth ---

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	token := uuid.NewString()
	u, ok, err := a.Sessions.Scoped(token).Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid credentials"})
		return
	}

	a.Log.Info("login", zap.String("user_id", u.ID))
	writeJSON(w, http.StatusOK, dto.LoginResponse{Token: token, User: u})
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	if err := current(r).gate.Logout(r.Context()); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, current(r).user)
}

// --- apostador ---

func (a *API) myBets(w http.ResponseWriter, r *http.Request) {
	list, err := a.Bets.ListForUser(r.Context(), current(r).user.ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) placeBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := a.Settlement.PlaceWager(r.Context(), current(r).user.ID, req.MatchID, req.Prediction, req.Amount)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (a *API) upgradePremium(w http.ResponseWriter, r *http.Request) {
	u, err := a.Accounts.UpgradePremium(r.Context(), current(r).user.ID, a.PremiumCost)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// --- mini games ---

func (a *API) spin(w http.ResponseWriter, r *http.Request) {
	game, err := games.Parse(chi.URLParam(r, "game"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	res, err := a.Games.Play(r.Context(), current(r).user.ID, game)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.Log.Info("spin",
		zap.String("user_id", res.User.ID),
		zap.String("game", string(res.Game)),
		zap.Int64("prize", res.Prize),
	)
	writeJSON(w, http.StatusOK, res)
}

// --- partidas ---

func (a *API) listMatches(w http.ResponseWriter, r *http.Request) {
	list, err := a.Matches.List(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) getMatch(w http.ResponseWriter, r *http.Request) {
	m, err := a.Matches.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *API) upsertMatch(w http.ResponseWriter, r *http.Request) {
	var m matches.Match
	if !decode(w, r, &m) {
		return
	}
	m.ID = chi.URLParam(r, "id")

	created, err := a.Matches.Upsert(r.Context(), m, false)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if a.Broadcaster != nil {
		if err := a.Broadcaster.Publish(r.Context(), m); err != nil {
			a.Log.Warn("live broadcast failed", zap.String("match_id", m.ID), zap.Error(err))
		}
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, m)
}

// --- análises ---

// getAnalysis esconde a análise premium de quem não é premium
func (a *API) getAnalysis(w http.ResponseWriter, r *http.Request) {
	e, ok, err := a.Analysis.Get(r.Context(), chi.URLParam(r, "matchId"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "no analysis cached"})
		return
	}
	if !current(r).user.IsPremium {
		e.PremiumAnalysis = nil
	}
	writeJSON(w, http.StatusOK, e)
}

func (a *API) saveAnalysis(w http.ResponseWriter, r *http.Request) {
	var p analysis.Patch
	if !decode(w, r, &p) {
		return
	}
	if p.PremiumAnalysis != nil && !current(r).user.IsPremium {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "premium only"})
		return
	}

	e, err := a.Analysis.Save(r.Context(), chi.URLParam(r, "matchId"), p)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// --- admin ---

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := a.Accounts.List(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	var req accounts.NewUser
	if !decode(w, r, &req) {
		return
	}
	req.ID = "" // id é sempre gerado pelo ledger

	u, err := a.Accounts.Create(r.Context(), req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateUserRequest
	if !decode(w, r, &req) {
		return
	}

	u := accounts.User{
		ID:          chi.URLParam(r, "id"),
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Gold:        req.Gold,
		IsAdmin:     req.IsAdmin,
		IsPremium:   req.IsPremium,
	}
	if req.Password != "" {
		hash, err := a.Accounts.HashPassword(req.Password)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		u.PasswordHash = hash
	}

	updated, err := a.Accounts.Update(r.Context(), u)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Accounts.Delete(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.Log.Info("user deleted", zap.String("user_id", id), zap.String("by", current(r).user.ID))
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) adjustBalance(w http.ResponseWriter, r *http.Request) {
	var req dto.BalanceRequest
	if !decode(w, r, &req) {
		return
	}

	u, err := a.Accounts.AdjustBalance(r.Context(), chi.URLParam(r, "id"), req.Delta)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *API) listBets(w http.ResponseWriter, r *http.Request) {
	list, err := a.Bets.ListRecent(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) resolveBet(w http.ResponseWriter, r *http.Request) {
	var req dto.ResolveRequest
	if !decode(w, r, &req) {
		return
	}
	outcome, err := bets.ParseOutcome(req.Outcome)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	res, err := a.Settlement.Resolve(r.Context(), chi.URLParam(r, "id"), outcome)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) deleteBet(w http.ResponseWriter, r *http.Request) {
	res, err := a.Settlement.DeleteBet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) reset(w http.ResponseWriter, r *http.Request) {
	if err := a.Seeder.Reset(r.Context()); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
