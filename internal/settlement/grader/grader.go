// Package grader decide o resultado de uma aposta a partir do placar final.
package grader

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/radieske/sentiment-edge-betting/internal/shared/model"
	"github.com/radieske/sentiment-edge-betting/internal/shared/oddsapi"
)

// DrawPolicy define como um empate é liquidado
type DrawPolicy string

const (
	DrawLost DrawPolicy = "lost" // empate perde (padrão)
	DrawPush DrawPolicy = "push" // empate devolve o stake
)

// ParseDrawPolicy aceita "push"; qualquer outro valor vira DrawLost
func ParseDrawPolicy(s string) DrawPolicy {
	if strings.EqualFold(strings.TrimSpace(s), string(DrawPush)) {
		return DrawPush
	}
	return DrawLost
}

// Outcome é o resultado da avaliação. Resolved=false deixa a aposta pending.
type Outcome struct {
	Resolved bool
	Status   model.BetStatus
	Payout   decimal.Decimal
	Winner   string // vazio em empate
	Reason   string // motivo quando não resolvido
}

// Grade compara os dois placares do jogo com o time escolhido.
// Vitória paga stake*odds; empate segue a policy; demais casos perdem com payout 0.
func Grade(bet model.PlacedBet, g oddsapi.Game, policy DrawPolicy) Outcome {
	if !g.Completed {
		return Outcome{Reason: "game not completed"}
	}
	if len(g.Scores) != 2 {
		return Outcome{Reason: "expected exactly two score entries"}
	}
	s1, err1 := parseScore(g.Scores[0].Score)
	s2, err2 := parseScore(g.Scores[1].Score)
	if err1 != nil || err2 != nil {
		return Outcome{Reason: "unparseable score"}
	}

	var winner string
	switch {
	case s1 > s2:
		winner = g.Scores[0].Name
	case s2 > s1:
		winner = g.Scores[1].Name
	}

	out := Outcome{Resolved: true, Winner: winner, Payout: decimal.Zero}
	switch {
	case winner != "" && strings.EqualFold(strings.TrimSpace(winner), strings.TrimSpace(bet.ChosenTeam)):
		out.Status = model.StatusWon
		out.Payout = bet.Stake.Mul(bet.Odds).Round(2)
	case winner == "" && policy == DrawPush:
		out.Status = model.StatusPush
		out.Payout = bet.Stake
	default:
		out.Status = model.StatusLost
	}
	return out
}

func parseScore(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
