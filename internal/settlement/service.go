package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/gold-ledger/internal/accounts"
	"github.com/radieske/gold-ledger/internal/bets"
	"github.com/radieske/gold-ledger/internal/matches"
	"github.com/radieske/gold-ledger/internal/shared/ledgererr"
	"github.com/radieske/gold-ledger/internal/store"
	"github.com/radieske/gold-ledger/pkg/contracts/events"
)

// Publisher recebe os eventos depois do commit. Falhas são só logadas.
type Publisher interface {
	PublishBetPlaced(context.Context, events.BetPlaced) error
	PublishBetSettled(context.Context, events.BetSettled) error
	PublishBetVoided(context.Context, events.BetVoided) error
}

// Result descreve o efeito de uma operação já gravada.
// User é nil quando a aposta é órfã (dono removido).
type Result struct {
	Bet      bets.Bet       `json:"bet"`
	User     *accounts.User `json:"user,omitempty"`
	Debited  int64          `json:"debited,omitempty"`
	Credited int64          `json:"credited,omitempty"`
	Refunded int64          `json:"refunded,omitempty"`
	Orphaned bool           `json:"orphaned,omitempty"`
}

// Service compõe os dois ledgers em um único store.Update por operação.
// Callbacks de métricas disparam só depois do commit.
type Service struct {
	Log       *zap.Logger
	Publisher Publisher

	OnPlaced  func(amount int64)                   // métricas
	OnSettled func(outcome string, credited int64) // métricas
	OnVoided  func(refunded int64)                 // métricas

	store store.Store
	bets  *bets.Ledger
}

func New(s store.Store, b *bets.Ledger, log *zap.Logger, p Publisher) *Service {
	return &Service{Log: log, Publisher: p, store: s, bets: b}
}

var (
	ledgerKeys = []string{store.KeyUsers, store.KeyBets}
	wagerKeys  = []string{store.KeyUsers, store.KeyBets, store.KeyMatches}
)

// Resolve aplica pending -> outcome. "won" credita exatamente o payout gravado.
func (s *Service) Resolve(ctx context.Context, betID string, outcome bets.Status) (Result, error) {
	var res Result
	err := s.store.Update(ctx, ledgerKeys, func(tx *store.Txn) error {
		res = Result{}

		users, book, err := s.load(tx)
		if err != nil {
			return err
		}

		bet, err := book.Resolve(betID, outcome)
		if err != nil {
			return err
		}
		res.Bet = bet

		if outcome == bets.StatusWon {
			u, err := users.Adjust(bet.UserID, bet.Payout)
			switch {
			case errors.Is(err, ledgererr.ErrNotFound):
				res.Orphaned = true
			case err != nil:
				return err
			default:
				res.User = &u
				res.Credited = bet.Payout
				if err := users.Save(tx); err != nil {
					return err
				}
			}
		} else {
			s.attachOwner(users, &res)
		}

		return book.Save(tx)
	})
	if err != nil {
		return Result{}, err
	}

	if res.Orphaned {
		s.Log.Warn("settled orphaned bet", zap.String("bet_id", betID), zap.String("user_id", res.Bet.UserID))
	}
	s.Log.Info("bet settled",
		zap.String("bet_id", betID),
		zap.String("outcome", string(outcome)),
		zap.Int64("credited", res.Credited),
	)
	if s.OnSettled != nil {
		s.OnSettled(string(outcome), res.Credited)
	}
	s.publish(ctx, "bet_settled", func(ctx context.Context) error {
		return s.Publisher.PublishBetSettled(ctx, events.BetSettled{
			BetID:    res.Bet.ID,
			UserID:   res.Bet.UserID,
			Outcome:  string(outcome),
			Credited: res.Credited,
			Orphaned: res.Orphaned,
			Ts:       time.Now().UTC(),
		})
	})
	return res, nil
}

// DeleteBet remove a aposta. Pendente devolve exatamente o valor apostado.
func (s *Service) DeleteBet(ctx context.Context, betID string) (Result, error) {
	var res Result
	err := s.store.Update(ctx, ledgerKeys, func(tx *store.Txn) error {
		res = Result{}

		users, book, err := s.load(tx)
		if err != nil {
			return err
		}

		bet, err := book.Remove(betID)
		if err != nil {
			return err
		}
		res.Bet = bet

		if bet.Status == bets.StatusPending {
			u, err := users.Adjust(bet.UserID, bet.Amount)
			switch {
			case errors.Is(err, ledgererr.ErrNotFound):
				res.Orphaned = true
			case err != nil:
				return err
			default:
				res.User = &u
				res.Refunded = bet.Amount
				if err := users.Save(tx); err != nil {
					return err
				}
			}
		} else {
			s.attachOwner(users, &res)
		}

		return book.Save(tx)
	})
	if err != nil {
		return Result{}, err
	}

	if res.Orphaned {
		s.Log.Warn("deleted orphaned bet", zap.String("bet_id", betID), zap.String("user_id", res.Bet.UserID))
	}
	s.Log.Info("bet deleted",
		zap.String("bet_id", betID),
		zap.String("status", string(res.Bet.Status)),
		zap.Int64("refunded", res.Refunded),
	)
	if s.OnVoided != nil {
		s.OnVoided(res.Refunded)
	}
	s.publish(ctx, "bet_voided", func(ctx context.Context) error {
		return s.Publisher.PublishBetVoided(ctx, events.BetVoided{
			BetID:    res.Bet.ID,
			UserID:   res.Bet.UserID,
			Status:   string(res.Bet.Status),
			Refunded: res.Refunded,
			Orphaned: res.Orphaned,
			Ts:       time.Now().UTC(),
		})
	})
	return res, nil
}

// PlaceWager busca a partida no catálogo, congela a cotação do palpite,
// debita o usuário e grava a aposta, tudo em uma escrita.
func (s *Service) PlaceWager(ctx context.Context, userID, matchID, prediction string, amount int64) (Result, error) {
	return s.place(ctx, wagerKeys, bets.PlaceRequest{
		UserID:     userID,
		MatchID:    matchID,
		Prediction: prediction,
		Amount:     amount,
	}, func(tx *store.Txn) (decimal.Decimal, error) {
		col, err := matches.Load(tx)
		if err != nil {
			return decimal.Zero, err
		}
		m, err := col.Get(matchID)
		if err != nil {
			return decimal.Zero, err
		}
		return matches.OddsFor(m, prediction)
	})
}

// PlaceWagerAt faz o mesmo débito+aposta com uma cotação fornecida pelo chamador,
// sem consultar o catálogo.
func (s *Service) PlaceWagerAt(ctx context.Context, userID, matchID, prediction string, amount int64, odds decimal.Decimal) (Result, error) {
	return s.place(ctx, ledgerKeys, bets.PlaceRequest{
		UserID:     userID,
		MatchID:    matchID,
		Prediction: prediction,
		Amount:     amount,
		Odds:       odds,
	}, nil)
}

func (s *Service) place(ctx context.Context, keys []string, req bets.PlaceRequest, quote func(*store.Txn) (decimal.Decimal, error)) (Result, error) {
	// valida antes de tocar o store; a cotação pode vir depois
	check := req
	if quote != nil {
		check.Odds = decimal.NewFromInt(2)
	}
	if err := check.Validate(); err != nil {
		return Result{}, err
	}

	var res Result
	err := s.store.Update(ctx, keys, func(tx *store.Txn) error {
		res = Result{}
		r := req

		if quote != nil {
			odds, err := quote(tx)
			if err != nil {
				return err
			}
			r.Odds = odds
		}

		users, book, err := s.load(tx)
		if err != nil {
			return err
		}

		u, err := users.Adjust(r.UserID, -r.Amount)
		if err != nil {
			return err
		}
		bet, err := book.Place(r)
		if err != nil {
			return err
		}

		res = Result{Bet: bet, User: &u, Debited: r.Amount}
		if err := users.Save(tx); err != nil {
			return err
		}
		return book.Save(tx)
	})
	if err != nil {
		return Result{}, err
	}

	s.Log.Info("bet placed",
		zap.String("bet_id", res.Bet.ID),
		zap.String("user_id", res.Bet.UserID),
		zap.String("match_id", res.Bet.MatchID),
		zap.Int64("amount", res.Bet.Amount),
		zap.String("odds", res.Bet.Odds.String()),
	)
	if s.OnPlaced != nil {
		s.OnPlaced(res.Bet.Amount)
	}
	s.publish(ctx, "bet_placed", func(ctx context.Context) error {
		return s.Publisher.PublishBetPlaced(ctx, events.BetPlaced{
			BetID:      res.Bet.ID,
			UserID:     res.Bet.UserID,
			MatchID:    res.Bet.MatchID,
			Prediction: res.Bet.Prediction,
			Amount:     res.Bet.Amount,
			Odds:       res.Bet.Odds.String(),
			Payout:     res.Bet.Payout,
			TsUnixMs:   res.Bet.Timestamp.UnixMilli(),
		})
	})
	return res, nil
}

func (s *Service) load(tx *store.Txn) (*accounts.Users, *bets.Book, error) {
	users, err := accounts.Load(tx)
	if err != nil {
		return nil, nil, fmt.Errorf("load users: %w", err)
	}
	book, err := s.bets.Load(tx)
	if err != nil {
		return nil, nil, fmt.Errorf("load bets: %w", err)
	}
	return users, book, nil
}

func (s *Service) attachOwner(users *accounts.Users, res *Result) {
	u, err := users.Get(res.Bet.UserID)
	if err != nil {
		res.Orphaned = true
		return
	}
	res.User = &u
}

// publish roda fora da transação; o ledger já está gravado.
func (s *Service) publish(ctx context.Context, topic string, fn func(context.Context) error) {
	if s.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		s.Log.Warn("event publish failed", zap.String("topic", topic), zap.Error(err))
	}
}
