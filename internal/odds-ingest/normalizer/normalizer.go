// Package normalizer reduz as cotações de várias casas ao melhor preço por lado.
package normalizer

import (
	"math"
	"strings"

	"github.com/radieske/sentiment-edge-betting/internal/shared/model"
	"github.com/radieske/sentiment-edge-betting/internal/shared/oddsapi"
)

// BestOdds guarda o melhor preço de cada lado e a casa que o oferece.
// Lado sem cotação fica com preço e casa nil.
type BestOdds struct {
	HomePrice     *float64
	HomeBookmaker *string
	AwayPrice     *float64
	AwayBookmaker *string
}

// Normalize escolhe o maior preço por lado. Em empate vale a primeira casa
// encontrada (a ordem de entrada é preservada). Preços não finitos ou < 1 são ignorados.
func Normalize(quotes []model.RawQuote) BestOdds {
	var best BestOdds
	for _, q := range quotes {
		if !validPrice(q.Price) {
			continue
		}
		price, book := q.Price, q.Bookmaker
		switch q.Side {
		case model.SideHome:
			if best.HomePrice == nil || price > *best.HomePrice {
				best.HomePrice, best.HomeBookmaker = &price, &book
			}
		case model.SideAway:
			if best.AwayPrice == nil || price > *best.AwayPrice {
				best.AwayPrice, best.AwayBookmaker = &price, &book
			}
		}
	}
	return best
}

// QuotesFromFeed achata casa→mercado→resultado em RawQuote, só mercado h2h.
// Resultados cujo nome não bate com nenhum dos times (ex.: "Draw") são descartados.
func QuotesFromFeed(ev oddsapi.Event) []model.RawQuote {
	var out []model.RawQuote
	for _, bm := range ev.Bookmakers {
		for _, mk := range bm.Markets {
			if mk.Key != oddsapi.MarketH2H {
				continue
			}
			for _, oc := range mk.Outcomes {
				side, ok := sideOf(oc.Name, ev.HomeTeam, ev.AwayTeam)
				if !ok {
					continue
				}
				out = append(out, model.RawQuote{
					Bookmaker: bookmakerName(bm),
					Side:      side,
					Price:     oc.Price,
				})
			}
		}
	}
	return out
}

// BuildEvent monta o Event canônico de um evento do feed
func BuildEvent(ev oddsapi.Event) model.Event {
	best := Normalize(QuotesFromFeed(ev))
	sport := ev.SportKey
	if sport == "" {
		sport = ev.SportTitle
	}
	return model.Event{
		EventKey: model.EventKey{
			Sport:     sport,
			HomeTeam:  ev.HomeTeam,
			AwayTeam:  ev.AwayTeam,
			StartTime: ev.CommenceTime.UTC(),
		},
		ExternalID:    ev.ID,
		SportTitle:    ev.SportTitle,
		HomeOdds:      best.HomePrice,
		AwayOdds:      best.AwayPrice,
		HomeBookmaker: best.HomeBookmaker,
		AwayBookmaker: best.AwayBookmaker,
	}
}

func sideOf(name, home, away string) (model.Side, bool) {
	switch {
	case name == home:
		return model.SideHome, true
	case name == away:
		return model.SideAway, true
	case strings.EqualFold(name, home):
		return model.SideHome, true
	case strings.EqualFold(name, away):
		return model.SideAway, true
	}
	return "", false
}

func bookmakerName(bm oddsapi.Bookmaker) string {
	if bm.Title != "" {
		return bm.Title
	}
	return bm.Key
}

func validPrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p >= 1
}
