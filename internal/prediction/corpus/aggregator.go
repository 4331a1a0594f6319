// Package corpus coleta textos de notícias por time a partir de uma lista de portais.
package corpus

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/radieske/sentiment-edge-betting/internal/shared/model"
)

const (
	DefaultWorkers = 8
	DefaultTimeout = 5 * time.Second

	// limite de artigos seguidos por portal, evita varrer home pages enormes
	maxLinksPerSource = 25
)

// Aggregator busca os portais em paralelo (pool limitado). Cada portal falha
// sozinho: erro, timeout ou status != 200 só zera a contribuição daquele portal.
type Aggregator struct {
	sources []string
	workers int
	timeout time.Duration
	http    *resty.Client
	log     *zap.Logger

	OnSourceError func(source string) // métricas
}

type Option func(*Aggregator)

func WithWorkers(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithTimeout define o timeout de cada requisição (portal e artigo)
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(a *Aggregator) {
		a.http = resty.NewWithClient(c)
	}
}

func NewAggregator(sources []string, log *zap.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		sources: append([]string(nil), sources...),
		workers: DefaultWorkers,
		timeout: DefaultTimeout,
		http:    resty.New(),
		log:     log,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.http.
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; sentiment-edge-betting/1.0)").
		SetHeader("Accept", "text/html")
	return a
}

// Collect devolve a união (sem ordem) dos textos encontrados para a entidade.
// Nenhum portal com resultado = coleção vazia, nunca erro.
func (a *Aggregator) Collect(ctx context.Context, entity string) []model.SentimentSample {
	results := make([][]string, len(a.sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, src := range a.sources {
		i, src := i, src
		g.Go(func() error {
			texts, err := a.scrapeSource(gctx, entity, src)
			if err != nil {
				a.log.Warn("corpus source failed",
					zap.String("source", src),
					zap.String("team", entity),
					zap.Error(err),
				)
				if a.OnSourceError != nil {
					a.OnSourceError(src)
				}
			}
			results[i] = texts
			return nil // nenhuma falha cancela as outras tarefas
		})
	}
	_ = g.Wait()

	var out []model.SentimentSample
	for _, texts := range results {
		for _, t := range texts {
			out = append(out, model.SentimentSample{Entity: entity, Text: t})
		}
	}
	return out
}

// scrapeSource busca o portal, segue os links cujo texto menciona a entidade
// e extrai o texto dos parágrafos de cada artigo. Artigos com erro são pulados.
func (a *Aggregator) scrapeSource(ctx context.Context, entity, source string) ([]string, error) {
	base, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse source url: %w", err)
	}

	page, err := a.fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	links, err := MatchingLinks(page, entity)
	if err != nil {
		return nil, fmt.Errorf("parse source html: %w", err)
	}

	var texts []string
	seen := make(map[string]struct{}, len(links))
	for _, href := range links {
		if len(seen) >= maxLinksPerSource {
			break
		}
		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		link := base.ResolveReference(ref).String()
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}

		body, err := a.fetch(ctx, link)
		if err != nil {
			a.log.Debug("article fetch failed", zap.String("url", link), zap.Error(err))
			continue
		}
		text, err := ParagraphText(body)
		if err != nil || text == "" {
			continue
		}
		texts = append(texts, text)
	}
	return texts, nil
}

func (a *Aggregator) fetch(ctx context.Context, target string) ([]byte, error) {
	rctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.http.R().SetContext(rctx).Get(target)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("http %d from %s", resp.StatusCode(), target)
	}
	return resp.Body(), nil
}

// containsFold compara substring sem diferenciar maiúsculas
func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
