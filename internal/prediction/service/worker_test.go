package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/sentiment-edge-betting/internal/prediction/sentiment"
	"github.com/radieske/sentiment-edge-betting/internal/prediction/staking"
	"github.com/radieske/sentiment-edge-betting/internal/shared/model"
	"github.com/radieske/sentiment-edge-betting/pkg/contracts/events"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeEvents struct {
	evs []model.Event
	err error
}

func (f *fakeEvents) ListEligibleEvents(context.Context, time.Time) ([]model.Event, error) {
	return f.evs, f.err
}

// memPredictions guarda uma linha por EventKey, como o upsert do Postgres
type memPredictions struct {
	mu   sync.Mutex
	rows map[model.EventKey]model.Prediction
	n    int
}

func (m *memPredictions) UpsertPrediction(_ context.Context, p model.Prediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows == nil {
		m.rows = make(map[model.EventKey]model.Prediction)
	}
	m.rows[p.EventKey] = p
	m.n++
	return nil
}

type memBets struct {
	rows map[model.EventKey]model.PlacedBet
}

func (m *memBets) CreatePending(_ context.Context, b model.PlacedBet) (string, bool, error) {
	if m.rows == nil {
		m.rows = make(map[model.EventKey]model.PlacedBet)
	}
	if _, ok := m.rows[b.EventKey]; ok {
		return b.BetID, false, nil
	}
	m.rows[b.EventKey] = b
	return b.BetID, true, nil
}

type fakeCorpus struct {
	texts map[string][]string
	calls map[string]int
}

func (f *fakeCorpus) Collect(_ context.Context, entity string) []model.SentimentSample {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[entity]++
	var out []model.SentimentSample
	for _, t := range f.texts[entity] {
		out = append(out, model.SentimentSample{Entity: entity, Text: t})
	}
	return out
}

type mapCache struct {
	m map[string]staking.SentimentInput
}

func (c *mapCache) Get(_ context.Context, team string) (staking.SentimentInput, bool, error) {
	v, ok := c.m[team]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, team string, v staking.SentimentInput) error {
	if c.m == nil {
		c.m = make(map[string]staking.SentimentInput)
	}
	c.m[team] = v
	return nil
}

type recPublisher struct{ msgs []any }

func (p *recPublisher) Publish(_ context.Context, _ string, v any) error {
	p.msgs = append(p.msgs, v)
	return nil
}

func ev(home, away string, ho, ao float64) model.Event {
	return model.Event{
		EventKey: model.EventKey{
			Sport:     "basketball_nba",
			HomeTeam:  home,
			AwayTeam:  away,
			StartTime: now.Add(24 * time.Hour),
		},
		ExternalID: home + "-" + away,
		HomeOdds:   &ho,
		AwayOdds:   &ao,
	}
}

func newWorker(evs []model.Event, c *fakeCorpus) (*Worker, *memPredictions, *memBets) {
	preds := &memPredictions{}
	bets := &memBets{}
	return &Worker{
		Log:         zap.NewNop(),
		Events:      &fakeEvents{evs: evs},
		Predictions: preds,
		Bets:        bets,
		Corpus:      c,
		Scorer:      sentiment.NewScorer(sentiment.DefaultLexicon()),
		Model:       staking.New(staking.DefaultParams()),
		Now:         func() time.Time { return now },
	}, preds, bets
}

func TestRunCycle_IdempotentUpsert(t *testing.T) {
	c := &fakeCorpus{texts: map[string][]string{
		"Lakers":  {"great win"},
		"Celtics": {"not good"},
	}}
	w, preds, bets := newWorker([]model.Event{ev("Lakers", "Celtics", 1.8, 2.2)}, c)
	betPub := &recPublisher{}
	w.BetPublisher = betPub

	st, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, st.Predictions)
	assert.Equal(t, 1, st.BetsPlaced)
	first := preds.rows[w.Events.(*fakeEvents).evs[0].EventKey]

	st, err = w.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.BetsPlaced, "bet already exists for this event")

	require.Len(t, preds.rows, 1)
	assert.Equal(t, 2, preds.n)
	for _, p := range preds.rows {
		assert.Equal(t, first, p)
		assert.Equal(t, model.SideHome, p.ChosenSide)
		assert.InDelta(t, 4.0-(-1.0), p.SentimentDiff, 1e-9)
		assert.False(t, p.Conservative)
	}
	assert.Len(t, bets.rows, 1)
	require.Len(t, betPub.msgs, 1)
	placed := betPub.msgs[0].(events.BetPlaced)
	assert.Equal(t, "Lakers", placed.ChosenTeam)
	assert.Equal(t, "Lakers-Celtics", placed.SourcedGameID)
}

func TestRunCycle_ConservativeWithoutText(t *testing.T) {
	c := &fakeCorpus{texts: map[string][]string{"Lakers": {"good"}}}
	w, preds, bets := newWorker([]model.Event{ev("Lakers", "Celtics", 1.8, 2.2)}, c)

	st, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, st.Conservative)

	for _, p := range preds.rows {
		assert.True(t, p.Conservative)
		assert.Equal(t, 0.05, p.KellyFraction)
		assert.Equal(t, "50.00", p.RecommendedStake.StringFixed(2))
	}
	for _, b := range bets.rows {
		assert.Equal(t, "50.00", b.Stake.StringFixed(2))
		assert.Equal(t, "1.8", b.Odds.String())
		assert.Equal(t, model.StatusPending, b.Status)
	}
}

func TestRunCycle_SkippedDecisionPersistedWithoutBet(t *testing.T) {
	c := &fakeCorpus{texts: map[string][]string{"A": {"good"}, "B": {"good"}}}
	w, preds, bets := newWorker([]model.Event{ev("A", "B", 1.5, 2.5)}, c)
	predPub := &recPublisher{}
	w.PredictionPublisher = predPub

	st, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, st.Skipped)
	assert.Zero(t, st.BetsPlaced)
	require.Len(t, preds.rows, 1)
	for _, p := range preds.rows {
		assert.True(t, p.RecommendedStake.IsZero())
	}
	assert.Empty(t, bets.rows)

	require.Len(t, predPub.msgs, 1)
	issued := predPub.msgs[0].(events.PredictionIssued)
	assert.True(t, issued.Skipped)
	assert.Equal(t, "non-positive stake", issued.Reason)
	assert.Equal(t, "0.00", issued.RecommendedStake)
}

func TestRunCycle_TeamScrapedOncePerCycle(t *testing.T) {
	c := &fakeCorpus{texts: map[string][]string{"A": {"good"}, "B": {"bad"}, "C": {"great"}}}
	w, _, _ := newWorker([]model.Event{ev("A", "B", 1.8, 2.2), ev("A", "C", 1.9, 2.0)}, c)

	_, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, c.calls["A"])
	assert.Equal(t, 1, c.calls["B"])
	assert.Equal(t, 1, c.calls["C"])
}

func TestRunCycle_CacheHitSkipsCorpus(t *testing.T) {
	c := &fakeCorpus{}
	cache := &mapCache{m: map[string]staking.SentimentInput{
		"A": {Score: 1, Samples: 2},
		"B": {Score: -1, Samples: 2},
	}}
	w, preds, _ := newWorker([]model.Event{ev("A", "B", 1.8, 2.2)}, c)
	w.Cache = cache

	_, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, c.calls)
	for _, p := range preds.rows {
		assert.False(t, p.Conservative)
		assert.Equal(t, 2.0, p.SentimentDiff)
	}
}

func TestRunCycle_CacheFilledOnMiss(t *testing.T) {
	c := &fakeCorpus{texts: map[string][]string{"A": {"good", "great"}}}
	cache := &mapCache{}
	w, _, _ := newWorker([]model.Event{ev("A", "B", 1.8, 2.2)}, c)
	w.Cache = cache

	_, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, staking.SentimentInput{Score: 1.5, Samples: 2}, cache.m["A"])
	assert.Equal(t, staking.SentimentInput{Score: 0, Samples: 0}, cache.m["B"])
}

func TestRunCycle_PaperBettingOff(t *testing.T) {
	c := &fakeCorpus{}
	w, preds, _ := newWorker([]model.Event{ev("A", "B", 1.8, 2.2)}, c)
	w.Bets = nil

	st, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.BetsPlaced)
	assert.Len(t, preds.rows, 1)
}

func TestRunCycle_ListFailure(t *testing.T) {
	w, _, _ := newWorker(nil, &fakeCorpus{})
	w.Events = &fakeEvents{err: errors.New("db down")}
	var stages []string
	w.OnError = func(s string) { stages = append(stages, s) }

	_, err := w.RunCycle(context.Background())
	assert.Error(t, err)
	assert.Equal(t, []string{"db_list"}, stages)
}
