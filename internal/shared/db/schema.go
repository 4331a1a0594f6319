package db

// schema descreve events, predictions e paper_bets.
// A chave de identidade (sport, home_team, away_team, event_time) é única nas três tabelas
// para que upserts concorrentes resultem em no máximo uma linha por evento.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		sport               TEXT        NOT NULL,
		home_team           TEXT        NOT NULL,
		away_team           TEXT        NOT NULL,
		event_time          TIMESTAMPTZ NOT NULL,
		external_id         TEXT        NOT NULL DEFAULT '',
		sport_title         TEXT        NOT NULL DEFAULT '',
		home_team_odds      NUMERIC(10,3),
		away_team_odds      NUMERIC(10,3),
		home_team_bookmaker TEXT,
		away_team_bookmaker TEXT,
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (sport, home_team, away_team, event_time),
		CHECK (home_team_odds IS NULL OR home_team_odds >= 1),
		CHECK (away_team_odds IS NULL OR away_team_odds >= 1)
	)`,
	`CREATE TABLE IF NOT EXISTS predictions (
		sport             TEXT        NOT NULL,
		home_team         TEXT        NOT NULL,
		away_team         TEXT        NOT NULL,
		event_time        TIMESTAMPTZ NOT NULL,
		home_sentiment    DOUBLE PRECISION NOT NULL,
		away_sentiment    DOUBLE PRECISION NOT NULL,
		sentiment_diff    DOUBLE PRECISION NOT NULL,
		predicted_prob    DOUBLE PRECISION NOT NULL,
		chosen_side       TEXT        NOT NULL,
		kelly_fraction    DOUBLE PRECISION NOT NULL,
		recommended_stake NUMERIC(14,2) NOT NULL,
		overround         DOUBLE PRECISION NOT NULL DEFAULT 0,
		conservative      BOOLEAN     NOT NULL DEFAULT FALSE,
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (sport, home_team, away_team, event_time),
		CHECK (recommended_stake >= 0),
		CHECK (kelly_fraction >= 0 AND kelly_fraction <= 1)
	)`,
	`CREATE TABLE IF NOT EXISTS paper_bets (
		bet_id          UUID        PRIMARY KEY,
		oddsapi_game_id TEXT        NOT NULL,
		sport           TEXT        NOT NULL,
		home_team       TEXT        NOT NULL,
		away_team       TEXT        NOT NULL,
		event_time      TIMESTAMPTZ NOT NULL,
		chosen_side     TEXT        NOT NULL,
		chosen_team     TEXT        NOT NULL,
		stake           NUMERIC(14,2) NOT NULL CHECK (stake > 0),
		odds            NUMERIC(10,3) NOT NULL CHECK (odds >= 1),
		bet_status      TEXT        NOT NULL DEFAULT 'pending',
		actual_payout   NUMERIC(14,2) NOT NULL DEFAULT 0,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		settled_at      TIMESTAMPTZ,
		UNIQUE (sport, home_team, away_team, event_time)
	)`,
	`CREATE INDEX IF NOT EXISTS paper_bets_pending_idx ON paper_bets (bet_status, event_time)`,
}
