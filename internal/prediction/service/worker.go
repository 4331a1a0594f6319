package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/sentiment-edge-betting/internal/prediction/sentiment"
	"github.com/radieske/sentiment-edge-betting/internal/prediction/staking"
	"github.com/radieske/sentiment-edge-betting/internal/shared/model"
	"github.com/radieske/sentiment-edge-betting/pkg/contracts/events"
)

type EventSource interface {
	ListEligibleEvents(ctx context.Context, now time.Time) ([]model.Event, error)
}

type PredictionStore interface {
	UpsertPrediction(ctx context.Context, p model.Prediction) error
}

type BetStore interface {
	CreatePending(ctx context.Context, b model.PlacedBet) (id string, created bool, err error)
}

type Corpus interface {
	Collect(ctx context.Context, entity string) []model.SentimentSample
}

type SentimentCache interface {
	Get(ctx context.Context, team string) (staking.SentimentInput, bool, error)
	Set(ctx context.Context, team string, v staking.SentimentInput) error
}

type Publisher interface {
	Publish(ctx context.Context, key string, v any) error
}

// Worker roda o pipeline sentimento+stake para cada evento futuro elegível.
// Bets nil desliga as apostas simuladas; Cache e publishers são opcionais.
type Worker struct {
	Log         *zap.Logger
	Events      EventSource
	Predictions PredictionStore
	Bets        BetStore
	Corpus      Corpus
	Scorer      *sentiment.Scorer
	Model       *staking.Model
	Cache       SentimentCache

	PredictionPublisher Publisher
	BetPublisher        Publisher

	Now func() time.Time

	OnPrediction func(skipped, conservative bool) // métricas
	OnBetPlaced  func()
	OnError      func(string) // métricas por fase
}

// CycleStats resume um ciclo
type CycleStats struct {
	Events       int
	Predictions  int
	Skipped      int
	Conservative int
	BetsPlaced   int
	Failed       int
}

// RunCycle processa todos os eventos elegíveis. Só a falha ao listar eventos
// aborta o ciclo; erro em um evento é logado e o evento é pulado.
func (w *Worker) RunCycle(ctx context.Context) (CycleStats, error) {
	var st CycleStats
	evs, err := w.Events.ListEligibleEvents(ctx, w.now())
	if err != nil {
		w.fail("db_list")
		return st, fmt.Errorf("list eligible events: %w", err)
	}
	st.Events = len(evs)

	memo := make(map[string]staking.SentimentInput)
	for _, ev := range evs {
		if ctx.Err() != nil {
			return st, ctx.Err()
		}
		if err := w.processEvent(ctx, ev, memo, &st); err != nil {
			st.Failed++
			w.Log.Warn("event skipped", zap.String("event", ev.EventKey.String()), zap.Error(err))
		}
	}

	w.Log.Info("prediction cycle done",
		zap.Int("events", st.Events),
		zap.Int("predictions", st.Predictions),
		zap.Int("skipped", st.Skipped),
		zap.Int("conservative", st.Conservative),
		zap.Int("bets_placed", st.BetsPlaced),
		zap.Int("failed", st.Failed),
	)
	return st, nil
}

func (w *Worker) processEvent(ctx context.Context, ev model.Event, memo map[string]staking.SentimentInput, st *CycleStats) error {
	home := w.teamSentiment(ctx, ev.HomeTeam, memo)
	away := w.teamSentiment(ctx, ev.AwayTeam, memo)

	d, err := w.Model.Decide(ev, home, away)
	if errors.Is(err, staking.ErrIneligible) {
		w.Log.Info("event ineligible for staking", zap.String("event", ev.EventKey.String()))
		return nil
	}
	if err != nil {
		w.fail("model")
		return err
	}

	// skip também é persistido, com stake zero
	pred := w.Model.Prediction(ev, d, home, away)
	if err := w.Predictions.UpsertPrediction(ctx, pred); err != nil {
		w.fail("db_upsert")
		return fmt.Errorf("upsert prediction: %w", err)
	}
	st.Predictions++
	if d.Skip {
		st.Skipped++
		w.Log.Info("stake skipped",
			zap.String("event", ev.EventKey.String()),
			zap.String("reason", d.Reason),
		)
	}
	if d.Conservative {
		st.Conservative++
	}
	if w.OnPrediction != nil {
		w.OnPrediction(d.Skip, d.Conservative)
	}
	w.Log.Debug("prediction upserted",
		zap.String("event", ev.EventKey.String()),
		zap.String("side", string(d.Side)),
		zap.Float64("prob", d.AdjustedProb),
		zap.Float64("kelly", d.KellyFraction),
		zap.String("stake", d.Stake.StringFixed(2)),
		zap.Float64("overround", d.Overround),
	)

	w.publish(ctx, w.PredictionPublisher, ev.EventKey.String(), issued(pred, d, w.now()))

	if d.Skip || w.Bets == nil {
		return nil
	}
	return w.placeBet(ctx, ev, d, st)
}

func (w *Worker) placeBet(ctx context.Context, ev model.Event, d staking.Decision, st *CycleStats) error {
	bet := model.PlacedBet{
		BetID:         uuid.NewString(),
		EventKey:      ev.EventKey,
		SourcedGameID: ev.ExternalID,
		ChosenSide:    d.Side,
		ChosenTeam:    ev.Team(d.Side),
		Stake:         d.Stake,
		Odds:          decimal.NewFromFloat(ev.Odds(d.Side)),
		Status:        model.StatusPending,
		Payout:        decimal.Zero,
	}
	id, created, err := w.Bets.CreatePending(ctx, bet)
	if err != nil {
		w.fail("db_bet")
		return fmt.Errorf("create paper bet: %w", err)
	}
	if !created {
		return nil // já existe aposta para esse evento
	}
	st.BetsPlaced++
	if w.OnBetPlaced != nil {
		w.OnBetPlaced()
	}
	w.Log.Info("paper bet placed",
		zap.String("bet_id", id),
		zap.String("event", ev.EventKey.String()),
		zap.String("team", bet.ChosenTeam),
		zap.String("stake", bet.Stake.StringFixed(2)),
	)

	w.publish(ctx, w.BetPublisher, id, events.BetPlaced{
		BetID:         id,
		SourcedGameID: bet.SourcedGameID,
		Sport:         ev.Sport,
		HomeTeam:      ev.HomeTeam,
		AwayTeam:      ev.AwayTeam,
		ChosenSide:    string(bet.ChosenSide),
		ChosenTeam:    bet.ChosenTeam,
		Stake:         bet.Stake.StringFixed(2),
		Odds:          bet.Odds.String(),
		TsUnixMs:      w.now().UnixMilli(),
	})
	return nil
}

// teamSentiment resolve o agregado de um time: memo do ciclo, cache Redis,
// e por fim coleta + pontuação. Sem textos o agregado é neutro com Samples=0.
func (w *Worker) teamSentiment(ctx context.Context, team string, memo map[string]staking.SentimentInput) staking.SentimentInput {
	if v, ok := memo[team]; ok {
		return v
	}
	if w.Cache != nil {
		v, ok, err := w.Cache.Get(ctx, team)
		if err != nil {
			w.Log.Warn("sentiment cache get failed", zap.String("team", team), zap.Error(err))
			w.fail("cache")
		}
		if ok {
			memo[team] = v
			return v
		}
	}

	samples := w.Corpus.Collect(ctx, team)
	score, n := w.Scorer.Aggregate(samples)
	v := staking.SentimentInput{Score: score, Samples: n}
	if n == 0 {
		w.Log.Warn("no text samples for team, using neutral sentiment", zap.String("team", team))
	}

	if w.Cache != nil {
		if err := w.Cache.Set(ctx, team, v); err != nil {
			w.Log.Warn("sentiment cache set failed", zap.String("team", team), zap.Error(err))
			w.fail("cache")
		}
	}
	memo[team] = v
	return v
}

func (w *Worker) publish(ctx context.Context, p Publisher, key string, v any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, key, v); err != nil {
		w.Log.Warn("publish failed", zap.String("key", key), zap.Error(err))
		w.fail("publish")
	}
}

func (w *Worker) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func (w *Worker) fail(stage string) {
	if w.OnError != nil {
		w.OnError(stage)
	}
}

func issued(p model.Prediction, d staking.Decision, now time.Time) events.PredictionIssued {
	return events.PredictionIssued{
		Sport:            p.Sport,
		HomeTeam:         p.HomeTeam,
		AwayTeam:         p.AwayTeam,
		StartTime:        p.StartTime,
		ChosenSide:       string(p.ChosenSide),
		PredictedProb:    p.PredictedProb,
		KellyFraction:    p.KellyFraction,
		RecommendedStake: p.RecommendedStake.StringFixed(2),
		SentimentDiff:    p.SentimentDiff,
		Overround:        p.Overround,
		Conservative:     p.Conservative,
		Skipped:          d.Skip,
		Reason:           d.Reason,
		Ts:               now.UTC(),
	}
}
