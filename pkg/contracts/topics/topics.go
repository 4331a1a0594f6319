package topics

const (
	// Odds
	OddsUpdates = "odds_updates"

	// Previsões
	Predictions = "predictions"

	// Bets
	BetPlaced  = "bet_placed"
	BetSettled = "bet_settled"
)
