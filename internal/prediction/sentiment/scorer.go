// Package sentiment pontua textos livres com um léxico fixo e tratamento de negação.
package sentiment

import (
	"regexp"
	"strings"

	"github.com/radieske/sentiment-edge-betting/internal/shared/model"
)

// NeutralScore é o agregado usado quando a entidade não tem nenhum texto
const NeutralScore = 0.0

// tudo que não é caractere de palavra nem espaço
var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

type Scorer struct {
	lex Lexicon
}

func NewScorer(lex Lexicon) *Scorer {
	return &Scorer{lex: lex}
}

// Analyze pontua um texto. Negação seguida de palavra do léxico subtrai o peso
// dessa palavra e consome as duas; fora isso soma o peso de cada token (0 se ausente).
func (s *Scorer) Analyze(text string) float64 {
	tokens := strings.Fields(nonWord.ReplaceAllString(strings.ToLower(text), ""))

	total := 0.0
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if s.lex.IsNegation(tok) && i+1 < len(tokens) {
			if w, ok := s.lex.Weight(tokens[i+1]); ok {
				total -= w
				i++
				continue
			}
		}
		w, _ := s.lex.Weight(tok)
		total += w
	}
	return total
}

// Aggregate é a média dos scores das amostras; sem amostras devolve NeutralScore e n=0
func (s *Scorer) Aggregate(samples []model.SentimentSample) (score float64, n int) {
	if len(samples) == 0 {
		return NeutralScore, 0
	}
	sum := 0.0
	for _, smp := range samples {
		sum += s.Analyze(smp.Text)
	}
	return sum / float64(len(samples)), len(samples)
}
