package repository

import (
	"context"
	"database/sql"

	"github.com/radieske/sentiment-edge-betting/internal/shared/model"
)

// PostgresRepo implementa a persistência de eventos no Postgres
// DB: conexão com o banco de dados
type PostgresRepo struct {
	DB *sql.DB
}

// NewPostgresRepo retorna uma instância de repositório Postgres
func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// UpsertEvent insere ou atualiza o melhor preço de um evento na tabela events
// ON CONFLICT na identidade (sport, home_team, away_team, event_time): o último snapshot vence
func (r *PostgresRepo) UpsertEvent(ctx context.Context, e model.Event) error {
	const q = `
		INSERT INTO events
		  (sport, home_team, away_team, event_time, external_id, sport_title,
		   home_team_odds, away_team_odds, home_team_bookmaker, away_team_bookmaker, updated_at)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW())
		ON CONFLICT (sport, home_team, away_team, event_time) DO UPDATE SET
		  external_id         = EXCLUDED.external_id,
		  sport_title         = EXCLUDED.sport_title,
		  home_team_odds      = EXCLUDED.home_team_odds,
		  away_team_odds      = EXCLUDED.away_team_odds,
		  home_team_bookmaker = EXCLUDED.home_team_bookmaker,
		  away_team_bookmaker = EXCLUDED.away_team_bookmaker,
		  updated_at          = EXCLUDED.updated_at
	`
	_, err := r.DB.ExecContext(ctx, q,
		e.Sport, e.HomeTeam, e.AwayTeam, e.StartTime,
		e.ExternalID, e.SportTitle,
		nullFloat(e.HomeOdds), nullFloat(e.AwayOdds),
		nullString(e.HomeBookmaker), nullString(e.AwayBookmaker),
	)
	return err
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
