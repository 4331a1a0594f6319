package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/sentiment-edge-betting/internal/odds-ingest/normalizer"
	"github.com/radieske/sentiment-edge-betting/internal/shared/model"
	"github.com/radieske/sentiment-edge-betting/internal/shared/oddsapi"
	"github.com/radieske/sentiment-edge-betting/pkg/contracts/events"
)

type OddsFeed interface {
	Odds(ctx context.Context, sport, region string) ([]oddsapi.Event, error)
}

type EventStore interface {
	UpsertEvent(ctx context.Context, e model.Event) error
}

type OddsCache interface {
	SetCurrent(ctx context.Context, e events.OddsUpdate) error
}

type Publisher interface {
	Publish(ctx context.Context, key string, v any) error
}

// Ingestor busca um snapshot do feed de odds, normaliza o melhor preço por lado
// e faz upsert de cada evento. Cache e Publisher são opcionais.
type Ingestor struct {
	Log       *zap.Logger
	Feed      OddsFeed
	Store     EventStore
	Cache     OddsCache
	Publisher Publisher

	Sport  string
	Region func(now time.Time) string
	Now    func() time.Time

	OnSnapshot func()       // métricas (counter++)
	OnUpsert   func(bool)   // métricas; true = evento elegível
	OnError    func(string) // métricas por fase
}

// SnapshotStats resume um snapshot processado
type SnapshotStats struct {
	Fetched    int
	Upserted   int
	Ineligible int
	Failed     int
}

// RunSnapshot processa um snapshot. Falha no feed aborta o snapshot inteiro;
// falha ao persistir um evento só pula aquele evento.
func (i *Ingestor) RunSnapshot(ctx context.Context) (SnapshotStats, error) {
	var st SnapshotStats
	now := i.now()
	region := "us"
	if i.Region != nil {
		region = i.Region(now)
	}

	feedEvents, err := i.Feed.Odds(ctx, i.Sport, region)
	if err != nil {
		i.fail("feed")
		return st, fmt.Errorf("fetch odds snapshot: %w", err)
	}
	if i.OnSnapshot != nil {
		i.OnSnapshot()
	}
	st.Fetched = len(feedEvents)

	for _, fe := range feedEvents {
		ev := normalizer.BuildEvent(fe)
		if !ev.Eligible() {
			st.Ineligible++
			i.Log.Info("event without odds on both sides, stored as ineligible",
				zap.String("event", ev.EventKey.String()),
			)
		}

		if err := i.Store.UpsertEvent(ctx, ev); err != nil {
			st.Failed++
			i.Log.Warn("db upsert event failed", zap.String("event", ev.EventKey.String()), zap.Error(err))
			i.fail("db_upsert")
			continue
		}
		st.Upserted++
		if i.OnUpsert != nil {
			i.OnUpsert(ev.Eligible())
		}

		upd := toUpdate(ev, region, now)
		// cache e broadcast não bloqueiam a persistência
		if i.Cache != nil {
			if err := i.Cache.SetCurrent(ctx, upd); err != nil {
				i.Log.Warn("redis set failed", zap.String("event", ev.ExternalID), zap.Error(err))
				i.fail("cache")
			}
		}
		if i.Publisher != nil {
			if err := i.Publisher.Publish(ctx, ev.EventKey.String(), upd); err != nil {
				i.Log.Warn("publish odds update failed", zap.String("event", ev.ExternalID), zap.Error(err))
				i.fail("publish")
			}
		}
	}

	i.Log.Info("odds snapshot processed",
		zap.String("region", region),
		zap.Int("fetched", st.Fetched),
		zap.Int("upserted", st.Upserted),
		zap.Int("ineligible", st.Ineligible),
		zap.Int("failed", st.Failed),
	)
	return st, nil
}

func (i *Ingestor) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}

func (i *Ingestor) fail(stage string) {
	if i.OnError != nil {
		i.OnError(stage)
	}
}

func toUpdate(ev model.Event, region string, now time.Time) events.OddsUpdate {
	return events.OddsUpdate{
		EventID:       ev.ExternalID,
		Sport:         ev.Sport,
		HomeTeam:      ev.HomeTeam,
		AwayTeam:      ev.AwayTeam,
		StartTime:     ev.StartTime,
		Market:        oddsapi.MarketH2H,
		HomeOdds:      ev.HomeOdds,
		AwayOdds:      ev.AwayOdds,
		HomeBookmaker: ev.HomeBookmaker,
		AwayBookmaker: ev.AwayBookmaker,
		Region:        region,
		UpdatedAt:     now.UTC(),
	}
}
