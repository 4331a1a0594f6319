package sentiment

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon é o mapa palavra→valência e o conjunto de negações.
// Imutável depois de construído; é passado explicitamente ao Scorer.
type Lexicon struct {
	weights   map[string]float64
	negations map[string]struct{}
}

// NewLexicon copia os mapas de entrada, normalizando as chaves para minúsculas
func NewLexicon(weights map[string]float64, negations []string) Lexicon {
	lx := Lexicon{
		weights:   make(map[string]float64, len(weights)),
		negations: make(map[string]struct{}, len(negations)),
	}
	for w, v := range weights {
		lx.weights[strings.ToLower(strings.TrimSpace(w))] = v
	}
	for _, n := range negations {
		lx.negations[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}
	return lx
}

// Weight retorna a valência de uma palavra e se ela está no léxico
func (l Lexicon) Weight(word string) (float64, bool) {
	v, ok := l.weights[word]
	return v, ok
}

func (l Lexicon) IsNegation(word string) bool {
	_, ok := l.negations[word]
	return ok
}

func (l Lexicon) Len() int { return len(l.weights) }

// lexiconFile é o formato YAML aceito por LoadLexicon
type lexiconFile struct {
	Weights   map[string]float64 `yaml:"weights"`
	Negations []string           `yaml:"negations"`
}

// LoadLexicon lê um léxico de um arquivo YAML. Sem negações no arquivo,
// usa o conjunto padrão.
func LoadLexicon(path string) (Lexicon, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Lexicon{}, fmt.Errorf("read lexicon: %w", err)
	}
	var f lexiconFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return Lexicon{}, fmt.Errorf("parse lexicon %s: %w", path, err)
	}
	if len(f.Weights) == 0 {
		return Lexicon{}, fmt.Errorf("lexicon %s has no weights", path)
	}
	if len(f.Negations) == 0 {
		f.Negations = defaultNegations
	}
	return NewLexicon(f.Weights, f.Negations), nil
}

// DefaultLexicon é o léxico esportivo embutido
func DefaultLexicon() Lexicon {
	return NewLexicon(defaultWeights, defaultNegations)
}

var defaultWeights = map[string]float64{
	// positivos gerais
	"good":       1.0,
	"great":      2.0,
	"excellent":  3.0,
	"positive":   1.0,
	"fortunate":  1.5,
	"superior":   1.5,
	"happy":      1.5,
	"joy":        2.0,
	"love":       2.0,
	"successful": 2.0,
	"efficient":  1.5,
	"improved":   1.5,
	"enhanced":   1.5,
	"boost":      1.5,

	// negativos gerais
	"bad":            -1.0,
	"terrible":       -2.5,
	"awful":          -3.0,
	"negative":       -1.0,
	"unfortunate":    -1.5,
	"inferior":       -1.5,
	"sad":            -1.5,
	"angry":          -2.0,
	"hate":           -2.0,
	"defeat":         -2.5,
	"disappointing":  -2.0,
	"mediocre":       -0.5,
	"underperformed": -2.0,
	"declined":       -1.5,
	"ruined":         -2.5,

	// resultado e desempenho
	"win":         2.0,
	"victory":     2.5,
	"conquered":   2.5,
	"dominated":   2.5,
	"clutch":      2.0,
	"heroic":      2.5,
	"unstoppable": 2.5,
	"rallied":     1.5,
	"excelled":    2.0,
	"faltering":   -1.5,
	"struggling":  -1.5,
	"resilient":   1.5,

	// descritivos
	"dominant":     2.0,
	"impressive":   2.0,
	"spectacular":  3.0,
	"thrilling":    2.0,
	"incredible":   2.5,
	"phenomenal":   3.0,
	"unimpressive": -1.5,
	"pathetic":     -2.0,
	"embarrassing": -2.5,
	"disastrous":   -3.0,

	// momento
	"soared":    2.0,
	"plummeted": -2.5,
	"rising":    1.5,
	"falling":   -1.5,
	"racing":    1.0,

	// termos esportivos
	"dominance":     2.0,
	"momentum":      1.5,
	"strategy":      0.5,
	"tactics":       0.5,
	"pressured":     -1.0,
	"clamped":       -0.5,
	"outplayed":     -1.5,
	"unleashed":     1.5,
	"compromised":   -1.5,
	"disintegrated": -3.0,
	"overwhelmed":   -1.5,
}

var defaultNegations = []string{
	"not", "no", "never", "none", "nobody", "nothing", "neither", "nor",
	"nowhere", "hardly", "scarcely", "barely", "dont", "doesnt", "didnt",
	"isnt", "arent", "wasnt", "werent", "cannot", "cant", "couldnt", "shouldnt", "wont",
}
