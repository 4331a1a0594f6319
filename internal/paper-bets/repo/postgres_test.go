package repo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/sentiment-edge-betting/internal/shared/model"
)

var start = time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgres(db), mock
}

func placed() model.PlacedBet {
	return model.PlacedBet{
		BetID: "6f1c6a9e-0000-4000-8000-000000000001",
		EventKey: model.EventKey{
			Sport:     "basketball_nba",
			HomeTeam:  "Lakers",
			AwayTeam:  "Celtics",
			StartTime: start,
		},
		SourcedGameID: "e1",
		ChosenSide:    model.SideHome,
		ChosenTeam:    "Lakers",
		Stake:         decimal.RequireFromString("21.875"),
		Odds:          decimal.RequireFromString("1.8"),
		Status:        model.StatusPending,
	}
}

func TestCreatePending(t *testing.T) {
	p, mock := newMock(t)
	b := placed()

	mock.ExpectExec("INSERT INTO paper_bets").
		WithArgs(b.BetID, "e1", "basketball_nba", "Lakers", "Celtics", start, "home", "Lakers", "21.88", "1.8").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO paper_bets").
		WillReturnResult(sqlmock.NewResult(0, 0))

	id, created, err := p.CreatePending(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, b.BetID, id)
	assert.True(t, created)

	_, created, err = p.CreatePending(context.Background(), b)
	require.NoError(t, err)
	assert.False(t, created, "conflict on the event identity inserts nothing")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePending_GeneratesID(t *testing.T) {
	p, mock := newMock(t)
	b := placed()
	b.BetID = ""

	mock.ExpectExec("INSERT INTO paper_bets").WillReturnResult(sqlmock.NewResult(0, 1))
	id, _, err := p.CreatePending(context.Background(), b)
	require.NoError(t, err)
	assert.Len(t, id, 36)
}

func TestListPendingStarted(t *testing.T) {
	p, mock := newMock(t)
	now := start.Add(3 * time.Hour)

	cols := []string{"bet_id", "oddsapi_game_id", "sport", "home_team", "away_team", "event_time",
		"chosen_side", "chosen_team", "stake", "odds", "bet_status", "actual_payout"}
	mock.ExpectQuery("SELECT bet_id.* FROM paper_bets").
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("b1", "e1", "basketball_nba", "Lakers", "Celtics", start, "away", "Celtics", "50.00", "2.200", "pending", "0.00"))

	bets, err := p.ListPendingStarted(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, bets, 1)
	b := bets[0]
	assert.Equal(t, model.SideAway, b.ChosenSide)
	assert.Equal(t, model.StatusPending, b.Status)
	assert.Equal(t, "50.00", b.Stake.StringFixed(2))
	assert.True(t, b.Odds.Equal(decimal.RequireFromString("2.2")))
	assert.True(t, b.Payout.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPendingStarted_BadNumeric(t *testing.T) {
	p, mock := newMock(t)
	cols := []string{"bet_id", "oddsapi_game_id", "sport", "home_team", "away_team", "event_time",
		"chosen_side", "chosen_team", "stake", "odds", "bet_status", "actual_payout"}
	mock.ExpectQuery("SELECT bet_id").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("b1", "e1", "nba", "A", "B", start, "home", "A", "abc", "2.0", "pending", "0"))

	_, err := p.ListPendingStarted(context.Background(), start)
	assert.ErrorContains(t, err, "stake")
}

func TestApplySettlements(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE paper_bets").
		WithArgs("won", "200.00", "b1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE paper_bets").
		WithArgs("lost", "0.00", "b2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	applied, err := p.ApplySettlements(context.Background(), []Transition{
		{BetID: "b1", Status: model.StatusWon, Payout: decimal.NewFromInt(200)},
		{BetID: "b2", Status: model.StatusLost, Payout: decimal.Zero},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, applied, "already settled bet is not touched")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplySettlements_RejectsNonTerminal(t *testing.T) {
	p, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := p.ApplySettlements(context.Background(), []Transition{
		{BetID: "b1", Status: model.StatusPending, Payout: decimal.Zero},
	})
	assert.ErrorContains(t, err, "not a terminal status")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplySettlements_Empty(t *testing.T) {
	p, mock := newMock(t)
	applied, err := p.ApplySettlements(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}
