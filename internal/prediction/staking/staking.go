// Package staking transforma odds e sentimento numa decisão de aposta:
// lado escolhido, probabilidade ajustada e stake via Kelly fracionado.
package staking

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"

	"github.com/radieske/sentiment-edge-betting/internal/shared/model"
)

// ErrIneligible indica evento sem odds nos dois lados
var ErrIneligible = errors.New("event ineligible: missing odds")

// Params configura o modelo.
type Params struct {
	Bankroll             decimal.Decimal
	LongshotThreshold    float64 // diferença de odds a partir da qual o azarão é escolhido
	EdgeBonus            float64 // bônus de probabilidade do azarão; metade para o favorito
	KellyMultiplier      float64 // 0.5 = half-Kelly
	ConservativeFraction float64 // fração fixa quando falta texto de algum time
}

// DefaultParams retorna os parâmetros padrão.
func DefaultParams() Params {
	return Params{
		Bankroll:             decimal.NewFromInt(1000),
		LongshotThreshold:    1.5,
		EdgeBonus:            0.05,
		KellyMultiplier:      0.5,
		ConservativeFraction: 0.05,
	}
}

// SentimentInput é o agregado de um time e quantas amostras o formaram
type SentimentInput struct {
	Score   float64
	Samples int
}

// Decision é o resultado do modelo para um evento. Skip=true sempre vem
// com Stake zero e Reason preenchido.
type Decision struct {
	Side          model.Side
	ImpliedHome   float64 // probabilidades sem vig
	ImpliedAway   float64
	Overround     float64 // só diagnóstico, não entra no stake
	AdjustedProb  float64
	KellyFraction float64
	Stake         decimal.Decimal
	Conservative  bool
	Skip          bool
	Reason        string
}

type Model struct {
	p Params
}

func New(p Params) *Model {
	return &Model{p: p}
}

func (m *Model) Params() Params { return m.p }

// Decide aplica de-vig, injeção de edge, Kelly fracionado e stake.
// A saída depende só das entradas: mesmas odds e sentimento, mesma decisão.
func (m *Model) Decide(ev model.Event, home, away SentimentInput) (Decision, error) {
	if !ev.Eligible() {
		return Decision{}, ErrIneligible
	}
	oh, oa := *ev.HomeOdds, *ev.AwayOdds

	var d Decision
	d.ImpliedHome, d.ImpliedAway, d.Overround = DeVig(oh, oa)

	// azarão com odds bem maiores: bônus cheio; senão favorito com meio bônus
	bonus := m.p.EdgeBonus / 2
	if math.Abs(oh-oa) >= m.p.LongshotThreshold {
		bonus = m.p.EdgeBonus
		d.Side = model.SideHome
		if oa > oh {
			d.Side = model.SideAway
		}
	} else {
		d.Side = model.SideHome
		if oa < oh {
			d.Side = model.SideAway
		}
	}

	implied := d.ImpliedHome
	if d.Side == model.SideAway {
		implied = d.ImpliedAway
	}
	d.AdjustedProb = math.Min(implied+bonus, 1)

	odds := ev.Odds(d.Side)
	if odds-1 <= 0 {
		return skip(d, "degenerate odds"), nil
	}

	if home.Samples == 0 || away.Samples == 0 {
		d.Conservative = true
		d.KellyFraction = clamp01(m.p.ConservativeFraction)
	} else {
		d.KellyFraction = KellyFraction(odds, d.AdjustedProb, m.p.KellyMultiplier)
	}

	d.Stake = m.p.Bankroll.Mul(decimal.NewFromFloat(d.KellyFraction)).Round(2)
	if !d.Stake.IsPositive() {
		return skip(d, "non-positive stake"), nil
	}
	return d, nil
}

// Prediction monta a linha persistida. Os campos de "sentimento" por lado
// recebem a divisão da probabilidade ajustada, não a valência do léxico;
// a valência bruta fica só em SentimentDiff.
func (m *Model) Prediction(ev model.Event, d Decision, home, away SentimentInput) model.Prediction {
	p := model.Prediction{
		EventKey:         ev.EventKey,
		SentimentDiff:    home.Score - away.Score,
		PredictedProb:    d.AdjustedProb,
		ChosenSide:       d.Side,
		KellyFraction:    d.KellyFraction,
		RecommendedStake: d.Stake,
		Overround:        d.Overround,
		Conservative:     d.Conservative,
	}
	if d.Side == model.SideHome {
		p.HomeSentiment, p.AwaySentiment = d.AdjustedProb, 1-d.AdjustedProb
	} else {
		p.HomeSentiment, p.AwaySentiment = 1-d.AdjustedProb, d.AdjustedProb
	}
	return p
}

// DeVig converte odds decimais em probabilidades implícitas normalizadas
// para somar 1 e devolve também o overround (soma bruta - 1).
func DeVig(homeOdds, awayOdds float64) (home, away, overround float64) {
	rh, ra := 1/homeOdds, 1/awayOdds
	sum := rh + ra
	return rh / sum, ra / sum, sum - 1
}

// KellyFraction = multiplier * (b*p - (1-p)) / b, com b = odds-1, limitado a [0,1].
// b <= 0 devolve 0.
func KellyFraction(odds, p, multiplier float64) float64 {
	b := odds - 1
	if b <= 0 {
		return 0
	}
	full := (b*p - (1 - p)) / b
	return clamp01(multiplier * full)
}

func skip(d Decision, reason string) Decision {
	d.Skip = true
	d.Reason = reason
	d.KellyFraction = 0
	d.Stake = decimal.Zero
	return d
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
