package events

import "time"

// Evento publicado no tópico "odds_updates" após cada upsert de evento.
// Odds ausentes (lado sem cotação) seguem como null.
type OddsUpdate struct {
	EventID       string    `json:"event_id"` // id do evento no feed de odds
	Sport         string    `json:"sport"`
	HomeTeam      string    `json:"home_team"`
	AwayTeam      string    `json:"away_team"`
	StartTime     time.Time `json:"start_time"`
	Market        string    `json:"market"` // "h2h"
	HomeOdds      *float64  `json:"home_odds"`
	AwayOdds      *float64  `json:"away_odds"`
	HomeBookmaker *string   `json:"home_bookmaker,omitempty"`
	AwayBookmaker *string   `json:"away_bookmaker,omitempty"`
	Region        string    `json:"region"`
	UpdatedAt     time.Time `json:"updated_at"`
}
