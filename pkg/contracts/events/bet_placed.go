package events

type BetPlaced struct {
	BetID         string `json:"bet_id"`
	SourcedGameID string `json:"sourced_game_id"`
	Sport         string `json:"sport"`
	HomeTeam      string `json:"home_team"`
	AwayTeam      string `json:"away_team"`
	ChosenSide    string `json:"chosen_side"`
	ChosenTeam    string `json:"chosen_team"`
	Stake         string `json:"stake"`
	Odds          string `json:"odds"`
	TsUnixMs      int64  `json:"ts_unix_ms"`
}
