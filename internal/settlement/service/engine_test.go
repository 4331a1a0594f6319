package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/sentiment-edge-betting/internal/paper-bets/repo"
	"github.com/radieske/sentiment-edge-betting/internal/settlement/grader"
	"github.com/radieske/sentiment-edge-betting/internal/shared/model"
	"github.com/radieske/sentiment-edge-betting/internal/shared/oddsapi"
	"github.com/radieske/sentiment-edge-betting/pkg/contracts/events"
)

type memBets struct {
	mu   sync.Mutex
	bets map[string]*model.PlacedBet
	fail bool
}

func newMemBets(bs ...model.PlacedBet) *memBets {
	m := &memBets{bets: make(map[string]*model.PlacedBet)}
	for i := range bs {
		b := bs[i]
		m.bets[b.BetID] = &b
	}
	return m
}

func (m *memBets) ListPendingStarted(_ context.Context, now time.Time) ([]model.PlacedBet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return nil, errors.New("db down")
	}
	var out []model.PlacedBet
	for _, b := range m.bets {
		if b.Status == model.StatusPending && b.StartTime.Before(now) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memBets) ApplySettlements(_ context.Context, ts []repo.Transition) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var applied []string
	for _, t := range ts {
		b, ok := m.bets[t.BetID]
		if !ok || b.Status != model.StatusPending {
			continue
		}
		b.Status, b.Payout = t.Status, t.Payout
		applied = append(applied, t.BetID)
	}
	return applied, nil
}

func (m *memBets) get(id string) model.PlacedBet {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.bets[id]
}

type fakeResults struct {
	games map[string][]oddsapi.Game
	errs  map[string]error
	calls map[string]int
}

func (f *fakeResults) Scores(_ context.Context, sport string, _ int) ([]oddsapi.Game, error) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[sport]++
	if err := f.errs[sport]; err != nil {
		return nil, err
	}
	return f.games[sport], nil
}

type recPublisher struct{ msgs []any }

func (p *recPublisher) Publish(_ context.Context, _ string, v any) error {
	p.msgs = append(p.msgs, v)
	return nil
}

var now = time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC)

func pendingBet(id, sport, gameID, team string) model.PlacedBet {
	return model.PlacedBet{
		BetID: id,
		EventKey: model.EventKey{
			Sport:     sport,
			HomeTeam:  "A",
			AwayTeam:  "B",
			StartTime: now.Add(-3 * time.Hour),
		},
		SourcedGameID: gameID,
		ChosenSide:    model.SideHome,
		ChosenTeam:    team,
		Stake:         decimal.NewFromInt(100),
		Odds:          decimal.RequireFromString("2.0"),
		Status:        model.StatusPending,
		Payout:        decimal.Zero,
	}
}

func finished(id, a, sa, b, sb string) oddsapi.Game {
	return oddsapi.Game{ID: id, Completed: true, Scores: []oddsapi.Score{{Name: a, Score: sa}, {Name: b, Score: sb}}}
}

func newEngine(b BetStore, r ResultsFeed, p Publisher) *Engine {
	return &Engine{
		Log:        zap.NewNop(),
		Bets:       b,
		Results:    r,
		Publisher:  p,
		DrawPolicy: grader.DrawLost,
		Now:        func() time.Time { return now },
	}
}

func TestEngine_SettlesWinAndLoss(t *testing.T) {
	bets := newMemBets(
		pendingBet("b1", "nba", "g1", "A"),
		pendingBet("b2", "nba", "g2", "A"),
	)
	results := &fakeResults{games: map[string][]oddsapi.Game{
		"nba": {finished("g1", "A", "10", "B", "7"), finished("g2", "A", "3", "B", "9")},
	}}
	pub := &recPublisher{}
	var statuses []model.BetStatus
	eng := newEngine(bets, results, pub)
	eng.OnSettled = func(s model.BetStatus) { statuses = append(statuses, s) }

	st, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RunStats{Pending: 2, Settled: 2}, st)

	b1 := bets.get("b1")
	assert.Equal(t, model.StatusWon, b1.Status)
	assert.Equal(t, "200.00", b1.Payout.StringFixed(2))
	b2 := bets.get("b2")
	assert.Equal(t, model.StatusLost, b2.Status)
	assert.True(t, b2.Payout.IsZero())

	assert.ElementsMatch(t, []model.BetStatus{model.StatusWon, model.StatusLost}, statuses)
	require.Len(t, pub.msgs, 2)
	for _, m := range pub.msgs {
		ev, ok := m.(events.BetSettled)
		require.True(t, ok)
		assert.Equal(t, "nba", ev.Sport)
		assert.NotEmpty(t, ev.Winner)
	}
}

func TestEngine_SecondRunIsNoop(t *testing.T) {
	bets := newMemBets(pendingBet("b1", "nba", "g1", "A"))
	results := &fakeResults{games: map[string][]oddsapi.Game{"nba": {finished("g1", "A", "1", "B", "0")}}}
	pub := &recPublisher{}
	eng := newEngine(bets, results, pub)

	_, err := eng.Run(context.Background())
	require.NoError(t, err)
	first := bets.get("b1")

	st, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RunStats{}, st)
	assert.Equal(t, first, bets.get("b1"))
	assert.Len(t, pub.msgs, 1)
}

func TestEngine_MissingOrIncompleteGameStaysPending(t *testing.T) {
	live := finished("g2", "A", "1", "B", "0")
	live.Completed = false
	bets := newMemBets(
		pendingBet("b1", "nba", "unknown", "A"),
		pendingBet("b2", "nba", "g2", "A"),
	)
	results := &fakeResults{games: map[string][]oddsapi.Game{"nba": {live}}}
	unresolved := 0
	eng := newEngine(bets, results, nil)
	eng.OnUnresolved = func() { unresolved++ }

	st, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, st.Unresolved)
	assert.Equal(t, 2, unresolved)
	assert.Equal(t, model.StatusPending, bets.get("b1").Status)
	assert.Equal(t, model.StatusPending, bets.get("b2").Status)
}

func TestEngine_FeedFailureIsolatedPerSport(t *testing.T) {
	bets := newMemBets(
		pendingBet("b1", "nba", "g1", "A"),
		pendingBet("b2", "nhl", "g2", "A"),
	)
	results := &fakeResults{
		games: map[string][]oddsapi.Game{"nhl": {finished("g2", "A", "4", "B", "2")}},
		errs:  map[string]error{"nba": errors.New("boom")},
	}
	var stages []string
	eng := newEngine(bets, results, nil)
	eng.OnError = func(s string) { stages = append(stages, s) }

	st, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, st.FailedGroups)
	assert.Equal(t, 1, st.Settled)
	assert.Equal(t, model.StatusPending, bets.get("b1").Status)
	assert.Equal(t, model.StatusWon, bets.get("b2").Status)
	assert.Equal(t, []string{"feed"}, stages)
}

func TestEngine_OneFeedCallPerSport(t *testing.T) {
	bets := newMemBets(
		pendingBet("b1", "nba", "g1", "A"),
		pendingBet("b2", "nba", "g2", "B"),
		pendingBet("b3", "nba", "g3", "A"),
	)
	results := &fakeResults{games: map[string][]oddsapi.Game{"nba": {
		finished("g1", "A", "1", "B", "0"),
		finished("g2", "A", "1", "B", "0"),
		finished("g3", "A", "1", "B", "1"),
	}}}
	eng := newEngine(bets, results, nil)
	eng.DaysFrom = 2

	st, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, st.Settled)
	assert.Equal(t, 1, results.calls["nba"])
	assert.Equal(t, model.StatusLost, bets.get("b3").Status, "draw is lost by default")
}

func TestEngine_DrawPush(t *testing.T) {
	bets := newMemBets(pendingBet("b1", "nfl", "g1", "A"))
	results := &fakeResults{games: map[string][]oddsapi.Game{"nfl": {finished("g1", "A", "17", "B", "17")}}}
	eng := newEngine(bets, results, nil)
	eng.DrawPolicy = grader.DrawPush

	_, err := eng.Run(context.Background())
	require.NoError(t, err)
	b := bets.get("b1")
	assert.Equal(t, model.StatusPush, b.Status)
	assert.Equal(t, "100.00", b.Payout.StringFixed(2))
}

func TestEngine_ListFailureAborts(t *testing.T) {
	bets := newMemBets()
	bets.fail = true
	_, err := newEngine(bets, &fakeResults{}, nil).Run(context.Background())
	assert.Error(t, err)
}

func TestEngine_FutureBetsIgnored(t *testing.T) {
	b := pendingBet("b1", "nba", "g1", "A")
	b.StartTime = now.Add(time.Hour)
	bets := newMemBets(b)
	results := &fakeResults{}

	st, err := newEngine(bets, results, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.Pending)
	assert.Empty(t, results.calls)
}
