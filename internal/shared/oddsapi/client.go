// Package oddsapi é o cliente dos feeds de odds e de resultados (the-odds-api v4).
package oddsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.the-odds-api.com/v4"

	MarketH2H     = "h2h"
	FormatDecimal = "decimal"
	DateFormatISO = "iso"
)

// ErrUpstreamStatus indica resposta não-200 do feed; aborta o snapshot/grupo atual
var ErrUpstreamStatus = errors.New("upstream status")

// Client encapsula o resty, a chave da API e um limitador de taxa
// para não estourar a cota do feed.
type Client struct {
	http    *resty.Client
	apiKey  string
	limiter *rate.Limiter
	log     *zap.Logger
}

// ClientOption configura o client.
type ClientOption func(*Client)

// WithRateLimit define requisições por segundo e burst.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTimeout define o timeout por requisição.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10*time.Second).
			SetHeader("Accept", "application/json"),
		apiKey:  apiKey,
		limiter: rate.NewLimiter(rate.Limit(2), 1),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Odds busca o snapshot de odds head-to-head em formato decimal.
// Eventos malformados são descartados individualmente; só erro de transporte
// ou status != 200 abortam a chamada.
func (c *Client) Odds(ctx context.Context, sport, region string) ([]Event, error) {
	body, err := c.get(ctx, "/sports/"+url.PathEscape(sport)+"/odds", map[string]string{
		"regions":    region,
		"markets":    MarketH2H,
		"oddsFormat": FormatDecimal,
		"dateFormat": DateFormatISO,
	})
	if err != nil {
		return nil, fmt.Errorf("odds feed: %w", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("odds feed decode: %w", err)
	}

	out := make([]Event, 0, len(raw))
	for i, r := range raw {
		ev, err := decodeEvent(r)
		if err != nil {
			c.log.Warn("skipping malformed odds event", zap.Int("index", i), zap.Error(err))
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// Scores busca jogos recentes (últimos daysFrom dias) de um esporte
func (c *Client) Scores(ctx context.Context, sport string, daysFrom int) ([]Game, error) {
	body, err := c.get(ctx, "/sports/"+url.PathEscape(sport)+"/scores", map[string]string{
		"daysFrom":   strconv.Itoa(daysFrom),
		"dateFormat": DateFormatISO,
	})
	if err != nil {
		return nil, fmt.Errorf("results feed %s: %w", sport, err)
	}

	var games []Game
	if err := json.Unmarshal(body, &games); err != nil {
		return nil, fmt.Errorf("results feed %s decode: %w", sport, err)
	}
	return games, nil
}

func (c *Client) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("apiKey", c.apiKey).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: http %d: %s", ErrUpstreamStatus, resp.StatusCode(), truncate(resp.String(), 200))
	}

	c.log.Debug("feed request ok",
		zap.String("path", path),
		zap.String("requests_remaining", resp.Header().Get("x-requests-remaining")),
	)
	return resp.Body(), nil
}

// decodeEvent decodifica um evento e cada casa separadamente;
// uma casa com payload inválido é descartada sem perder o evento.
func decodeEvent(raw json.RawMessage) (Event, error) {
	var shell struct {
		Event
		Bookmakers []json.RawMessage `json:"bookmakers"`
	}
	if err := json.Unmarshal(raw, &shell); err != nil {
		return Event{}, err
	}
	if shell.HomeTeam == "" || shell.AwayTeam == "" {
		return Event{}, errors.New("missing teams")
	}

	ev := shell.Event
	ev.Bookmakers = make([]Bookmaker, 0, len(shell.Bookmakers))
	for _, b := range shell.Bookmakers {
		var bm Bookmaker
		if err := json.Unmarshal(b, &bm); err != nil {
			continue
		}
		ev.Bookmakers = append(ev.Bookmakers, bm)
	}
	return ev, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
