package repository

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

func TestListEligibleEvents(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	r := NewPostgresRepo(db)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	start := now.Add(6 * time.Hour)
	mock.ExpectQuery("FROM events").
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{
			"sport", "home_team", "away_team", "event_time", "external_id", "sport_title",
			"home_team_odds", "away_team_odds", "home_team_bookmaker", "away_team_bookmaker",
		}).AddRow("basketball_nba", "Lakers", "Celtics", start, "e1", "NBA", 1.9, 2.05, "Book A", nil))

	evs, err := r.ListEligibleEvents(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	e := evs[0]
	assert.True(t, e.Eligible())
	assert.Equal(t, 1.9, *e.HomeOdds)
	assert.Equal(t, 2.05, *e.AwayOdds)
	assert.Equal(t, "Book A", *e.HomeBookmaker)
	assert.Nil(t, e.AwayBookmaker)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertPrediction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	r := NewPostgresRepo(db)

	start := time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC)
	p := model.Prediction{
		EventKey:         model.EventKey{Sport: "nba", HomeTeam: "Lakers", AwayTeam: "Celtics", StartTime: start},
		HomeSentiment:    0.575,
		AwaySentiment:    0.425,
		SentimentDiff:    5,
		PredictedProb:    0.575,
		ChosenSide:       model.SideHome,
		KellyFraction:    0.05,
		RecommendedStake: decimal.NewFromInt(50),
		Overround:        0.0101,
		Conservative:     true,
	}
	mock.ExpectExec("INSERT INTO predictions .* ON CONFLICT").
		WithArgs("nba", "Lakers", "Celtics", start, 0.575, 0.425, 5.0, 0.575, "home", 0.05, "50.00", 0.0101, true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.UpsertPrediction(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}
