// Package model define os registros tipados trocados entre os pipelines
// (ingestão de odds, previsão e liquidação) através do banco.
package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Side é o lado escolhido num mercado head-to-head
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// Other retorna o lado oposto
func (s Side) Other() Side {
	if s == SideHome {
		return SideAway
	}
	return SideHome
}

// BetStatus é o estado de uma aposta; só pending admite transição
type BetStatus string

const (
	StatusPending BetStatus = "pending"
	StatusWon     BetStatus = "won"
	StatusLost    BetStatus = "lost"
	StatusPush    BetStatus = "push"
)

// Terminal indica se o status é final (sem re-liquidação)
func (s BetStatus) Terminal() bool {
	return s == StatusWon || s == StatusLost || s == StatusPush
}

// EventKey é a identidade de um evento em todas as tabelas
type EventKey struct {
	Sport     string
	HomeTeam  string
	AwayTeam  string
	StartTime time.Time
}

// String gera uma chave estável, usada em logs e como chave de mensagem Kafka
func (k EventKey) String() string {
	return strings.Join([]string{k.Sport, k.HomeTeam, k.AwayTeam, k.StartTime.UTC().Format(time.RFC3339)}, "|")
}

// Event é o melhor preço por lado de um evento, vindo do último snapshot.
// Odds nil = lado sem cotação; o evento fica inelegível para stake.
type Event struct {
	EventKey
	ExternalID    string // id no feed de odds (também o id no feed de resultados)
	SportTitle    string
	HomeOdds      *float64
	AwayOdds      *float64
	HomeBookmaker *string
	AwayBookmaker *string
}

// Eligible reporta se os dois lados têm odds decimais válidas
func (e Event) Eligible() bool {
	return e.HomeOdds != nil && e.AwayOdds != nil && *e.HomeOdds >= 1 && *e.AwayOdds >= 1
}

// Odds retorna a odd de um lado (0 se ausente)
func (e Event) Odds(s Side) float64 {
	p := e.HomeOdds
	if s == SideAway {
		p = e.AwayOdds
	}
	if p == nil {
		return 0
	}
	return *p
}

// Team retorna o nome do time de um lado
func (e Event) Team(s Side) string {
	if s == SideAway {
		return e.AwayTeam
	}
	return e.HomeTeam
}

// RawQuote é uma cotação de uma casa para um lado, só de entrada
type RawQuote struct {
	Bookmaker string
	Side      Side
	Price     float64
}

// SentimentSample é um texto coletado para uma entidade (time); não é persistido
type SentimentSample struct {
	Entity string
	Text   string
}

// Prediction é a recomendação de um evento, uma linha por EventKey.
// HomeSentiment/AwaySentiment guardam a divisão da probabilidade ajustada
// (lado escolhido = PredictedProb, outro = 1-PredictedProb), não a valência bruta do léxico.
type Prediction struct {
	EventKey
	HomeSentiment    float64
	AwaySentiment    float64
	SentimentDiff    float64 // valência bruta casa - fora
	PredictedProb    float64
	ChosenSide       Side
	KellyFraction    float64
	RecommendedStake decimal.Decimal
	Overround        float64
	Conservative     bool
}

// PlacedBet é uma aposta registrada a partir de uma Prediction
type PlacedBet struct {
	BetID         string
	EventKey
	SourcedGameID string
	ChosenSide    Side
	ChosenTeam    string
	Stake         decimal.Decimal
	Odds          decimal.Decimal
	Status        BetStatus
	Payout        decimal.Decimal
}
