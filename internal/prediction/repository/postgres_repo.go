package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/radieske/sentiment-edge-betting/internal/shared/model"
)

// PostgresRepo lê eventos elegíveis e grava previsões
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// ListEligibleEvents retorna eventos futuros com odds nos dois lados
func (r *PostgresRepo) ListEligibleEvents(ctx context.Context, now time.Time) ([]model.Event, error) {
	const q = `
		SELECT sport, home_team, away_team, event_time, external_id, sport_title,
		       home_team_odds, away_team_odds, home_team_bookmaker, away_team_bookmaker
		FROM events
		WHERE event_time > $1
		  AND home_team_odds IS NOT NULL
		  AND away_team_odds IS NOT NULL
		ORDER BY event_time
	`
	rows, err := r.DB.QueryContext(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var (
			e          model.Event
			home, away sql.NullFloat64
			hb, ab     sql.NullString
		)
		if err := rows.Scan(
			&e.Sport, &e.HomeTeam, &e.AwayTeam, &e.StartTime, &e.ExternalID, &e.SportTitle,
			&home, &away, &hb, &ab,
		); err != nil {
			return nil, err
		}
		e.StartTime = e.StartTime.UTC()
		if home.Valid {
			e.HomeOdds = &home.Float64
		}
		if away.Valid {
			e.AwayOdds = &away.Float64
		}
		if hb.Valid {
			e.HomeBookmaker = &hb.String
		}
		if ab.Valid {
			e.AwayBookmaker = &ab.String
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpsertPrediction grava uma previsão por evento; recalcular substitui a linha
func (r *PostgresRepo) UpsertPrediction(ctx context.Context, p model.Prediction) error {
	const q = `
		INSERT INTO predictions
		  (sport, home_team, away_team, event_time, home_sentiment, away_sentiment, sentiment_diff,
		   predicted_prob, chosen_side, kelly_fraction, recommended_stake, overround, conservative, updated_at)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,NOW())
		ON CONFLICT (sport, home_team, away_team, event_time) DO UPDATE SET
		  home_sentiment    = EXCLUDED.home_sentiment,
		  away_sentiment    = EXCLUDED.away_sentiment,
		  sentiment_diff    = EXCLUDED.sentiment_diff,
		  predicted_prob    = EXCLUDED.predicted_prob,
		  chosen_side       = EXCLUDED.chosen_side,
		  kelly_fraction    = EXCLUDED.kelly_fraction,
		  recommended_stake = EXCLUDED.recommended_stake,
		  overround         = EXCLUDED.overround,
		  conservative      = EXCLUDED.conservative,
		  updated_at        = EXCLUDED.updated_at
	`
	_, err := r.DB.ExecContext(ctx, q,
		p.Sport, p.HomeTeam, p.AwayTeam, p.StartTime,
		p.HomeSentiment, p.AwaySentiment, p.SentimentDiff,
		p.PredictedProb, string(p.ChosenSide), p.KellyFraction,
		p.RecommendedStake.StringFixed(2), p.Overround, p.Conservative,
	)
	return err
}
