package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/radieske/sentiment-edge-betting/internal/shared/model"
)

// Postgres implementa a persistência de apostas simuladas (paper_bets)
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório de apostas
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// CreatePending registra uma aposta pending para o evento.
// Já existindo aposta para a mesma identidade, nada é inserido e created=false.
func (p *Postgres) CreatePending(ctx context.Context, b model.PlacedBet) (id string, created bool, err error) {
	id = b.BetID
	if id == "" {
		id = uuid.NewString()
	}
	res, err := p.db.ExecContext(ctx, `
		INSERT INTO paper_bets
		  (bet_id, oddsapi_game_id, sport, home_team, away_team, event_time,
		   chosen_side, chosen_team, stake, odds, bet_status, actual_payout)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,'pending',0)
		ON CONFLICT (sport, home_team, away_team, event_time) DO NOTHING`,
		id, b.SourcedGameID, b.Sport, b.HomeTeam, b.AwayTeam, b.StartTime,
		string(b.ChosenSide), b.ChosenTeam, b.Stake.StringFixed(2), b.Odds.String(),
	)
	if err != nil {
		return "", false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", false, err
	}
	return id, n == 1, nil
}

// ListPendingStarted retorna apostas pending cujo evento já começou
func (p *Postgres) ListPendingStarted(ctx context.Context, now time.Time) ([]model.PlacedBet, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT bet_id, oddsapi_game_id, sport, home_team, away_team, event_time,
		       chosen_side, chosen_team, stake, odds, bet_status, actual_payout
		FROM paper_bets
		WHERE bet_status = 'pending'
		  AND event_time < $1
		ORDER BY event_time`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlacedBet
	for rows.Next() {
		var (
			b                   model.PlacedBet
			side, status        string
			stake, odds, payout string
		)
		if err := rows.Scan(
			&b.BetID, &b.SourcedGameID, &b.Sport, &b.HomeTeam, &b.AwayTeam, &b.StartTime,
			&side, &b.ChosenTeam, &stake, &odds, &status, &payout,
		); err != nil {
			return nil, err
		}
		b.ChosenSide = model.Side(side)
		b.Status = model.BetStatus(status)
		if b.Stake, err = decimal.NewFromString(stake); err != nil {
			return nil, fmt.Errorf("bet %s stake: %w", b.BetID, err)
		}
		if b.Odds, err = decimal.NewFromString(odds); err != nil {
			return nil, fmt.Errorf("bet %s odds: %w", b.BetID, err)
		}
		if b.Payout, err = decimal.NewFromString(payout); err != nil {
			return nil, fmt.Errorf("bet %s payout: %w", b.BetID, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Transition é a mudança terminal de uma aposta
type Transition struct {
	BetID  string
	Status model.BetStatus
	Payout decimal.Decimal
}

// ApplySettlements grava as transições de um grupo (um esporte) numa transação.
// O filtro bet_status='pending' garante transição única: aposta já terminal não muda.
// Devolve os ids efetivamente atualizados.
func (p *Postgres) ApplySettlements(ctx context.Context, ts []Transition) ([]string, error) {
	if len(ts) == 0 {
		return nil, nil
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var applied []string
	for _, t := range ts {
		if !t.Status.Terminal() {
			return nil, fmt.Errorf("bet %s: %q is not a terminal status", t.BetID, t.Status)
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE paper_bets
			SET bet_status = $1, actual_payout = $2, settled_at = NOW()
			WHERE bet_id = $3 AND bet_status = 'pending'`,
			string(t.Status), t.Payout.StringFixed(2), t.BetID,
		)
		if err != nil {
			return nil, fmt.Errorf("update bet %s: %w", t.BetID, err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			applied = append(applied, t.BetID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return applied, nil
}
