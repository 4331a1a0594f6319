package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/sentiment-edge-betting/internal/paper-bets/repo"
	"github.com/radieske/sentiment-edge-betting/internal/settlement/grader"
	"github.com/radieske/sentiment-edge-betting/internal/shared/model"
	"github.com/radieske/sentiment-edge-betting/internal/shared/oddsapi"
	"github.com/radieske/sentiment-edge-betting/pkg/contracts/events"
)

type BetStore interface {
	ListPendingStarted(ctx context.Context, now time.Time) ([]model.PlacedBet, error)
	ApplySettlements(ctx context.Context, ts []repo.Transition) ([]string, error)
}

type ResultsFeed interface {
	Scores(ctx context.Context, sport string, daysFrom int) ([]oddsapi.Game, error)
}

type Publisher interface {
	Publish(ctx context.Context, key string, v any) error
}

// Engine liquida apostas pending cujo evento já começou, agrupando por esporte
// para uma consulta ao feed de resultados por grupo. Cada grupo é gravado na sua
// própria transação: falha num esporte não desfaz o que outro já liquidou.
type Engine struct {
	Log        *zap.Logger
	Bets       BetStore
	Results    ResultsFeed
	Publisher  Publisher
	DaysFrom   int
	DrawPolicy grader.DrawPolicy
	Now        func() time.Time

	OnSettled    func(status model.BetStatus) // métricas
	OnUnresolved func()
	OnError      func(string) // métricas por fase
}

// RunStats resume uma execução
type RunStats struct {
	Pending      int
	Settled      int
	Unresolved   int
	FailedGroups int
}

// Run executa uma rodada de liquidação. Só a falha ao listar apostas aborta.
func (e *Engine) Run(ctx context.Context) (RunStats, error) {
	var st RunStats
	pending, err := e.Bets.ListPendingStarted(ctx, e.now())
	if err != nil {
		e.fail("db_list")
		return st, fmt.Errorf("list pending bets: %w", err)
	}
	st.Pending = len(pending)

	bySport := make(map[string][]model.PlacedBet)
	for _, b := range pending {
		bySport[b.Sport] = append(bySport[b.Sport], b)
	}
	sports := make([]string, 0, len(bySport))
	for s := range bySport {
		sports = append(sports, s)
	}
	sort.Strings(sports)

	for _, sport := range sports {
		if ctx.Err() != nil {
			return st, ctx.Err()
		}
		settled, unresolved, err := e.settleSport(ctx, sport, bySport[sport])
		st.Unresolved += unresolved
		if err != nil {
			st.FailedGroups++
			e.Log.Error("settlement failed for sport", zap.String("sport", sport), zap.Error(err))
			continue
		}
		st.Settled += settled
	}

	e.Log.Info("settlement run done",
		zap.Int("pending", st.Pending),
		zap.Int("settled", st.Settled),
		zap.Int("unresolved", st.Unresolved),
		zap.Int("failed_groups", st.FailedGroups),
	)
	return st, nil
}

func (e *Engine) settleSport(ctx context.Context, sport string, bets []model.PlacedBet) (settled, unresolved int, err error) {
	games, err := e.Results.Scores(ctx, sport, e.daysFrom())
	if err != nil {
		e.fail("feed")
		return 0, 0, err
	}

	completed := make(map[string]oddsapi.Game, len(games))
	for _, g := range games {
		if g.Completed {
			completed[g.ID] = g
		}
	}

	var (
		ts       []repo.Transition
		outcomes = make(map[string]grader.Outcome)
		byID     = make(map[string]model.PlacedBet)
	)
	for _, b := range bets {
		if b.Status.Terminal() {
			continue
		}
		g, ok := completed[b.SourcedGameID]
		if !ok {
			unresolved++
			e.markUnresolved()
			e.Log.Info("no completed game found for bet",
				zap.String("bet_id", b.BetID),
				zap.String("game_id", b.SourcedGameID),
				zap.String("sport", sport),
			)
			continue
		}
		out := grader.Grade(b, g, e.DrawPolicy)
		if !out.Resolved {
			unresolved++
			e.markUnresolved()
			e.Log.Warn("can't grade bet",
				zap.String("bet_id", b.BetID),
				zap.String("game_id", b.SourcedGameID),
				zap.String("reason", out.Reason),
			)
			continue
		}
		ts = append(ts, repo.Transition{BetID: b.BetID, Status: out.Status, Payout: out.Payout})
		outcomes[b.BetID] = out
		byID[b.BetID] = b
	}

	applied, err := e.Bets.ApplySettlements(ctx, ts)
	if err != nil {
		e.fail("db_settle")
		return 0, unresolved, fmt.Errorf("apply settlements: %w", err)
	}

	for _, id := range applied {
		b, out := byID[id], outcomes[id]
		e.Log.Info("bet settled",
			zap.String("bet_id", id),
			zap.String("team", b.ChosenTeam),
			zap.String("status", string(out.Status)),
			zap.String("payout", out.Payout.StringFixed(2)),
		)
		if e.OnSettled != nil {
			e.OnSettled(out.Status)
		}
		if e.Publisher != nil {
			ev := events.BetSettled{
				BetID:         id,
				SourcedGameID: b.SourcedGameID,
				Sport:         sport,
				ChosenTeam:    b.ChosenTeam,
				Status:        string(out.Status),
				Payout:        out.Payout.StringFixed(2),
				Winner:        out.Winner,
				Ts:            e.now().UTC(),
			}
			if err := e.Publisher.Publish(ctx, id, ev); err != nil {
				e.Log.Warn("publish bet settled failed", zap.String("bet_id", id), zap.Error(err))
				e.fail("publish")
			}
		}
	}
	return len(applied), unresolved, nil
}

func (e *Engine) daysFrom() int {
	if e.DaysFrom > 0 {
		return e.DaysFrom
	}
	return 3
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) markUnresolved() {
	if e.OnUnresolved != nil {
		e.OnUnresolved()
	}
}

func (e *Engine) fail(stage string) {
	if e.OnError != nil {
		e.OnError(stage)
	}
}
