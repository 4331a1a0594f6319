package events

import "time"

// Evento emitido pelo prediction-worker a cada recomendação persistida.
type PredictionIssued struct {
	Sport            string    `json:"sport"`
	HomeTeam         string    `json:"home_team"`
	AwayTeam         string    `json:"away_team"`
	StartTime        time.Time `json:"start_time"`
	ChosenSide       string    `json:"chosen_side"` // "home" | "away"
	PredictedProb    float64   `json:"predicted_prob"`
	KellyFraction    float64   `json:"kelly_fraction"`
	RecommendedStake string    `json:"recommended_stake"` // decimal em string
	SentimentDiff    float64   `json:"sentiment_diff"`
	Overround        float64   `json:"overround"`
	Conservative     bool      `json:"conservative"`
	Skipped          bool      `json:"skipped"`
	Reason           string    `json:"reason,omitempty"`
	Ts               time.Time `json:"ts"`
}
