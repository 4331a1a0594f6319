package events

import "time"

// Evento emitido pelo settlement-worker após a transição terminal de uma aposta.
type BetSettled struct {
	BetID         string    `json:"betId"`
	SourcedGameID string    `json:"sourcedGameId"`
	Sport         string    `json:"sport"`
	ChosenTeam    string    `json:"chosenTeam"`
	Status        string    `json:"status"` // "won" | "lost" | "push"
	Payout        string    `json:"payout"`
	Winner        string    `json:"winner,omitempty"` // vazio em empate
	Ts            time.Time `json:"ts"`
}
