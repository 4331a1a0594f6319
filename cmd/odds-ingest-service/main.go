package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/sentiment-edge-betting/internal/odds-ingest/cache"
	"github.com/radieske/sentiment-edge-betting/internal/odds-ingest/repository"
	"github.com/radieske/sentiment-edge-betting/internal/odds-ingest/service"
	sharedcache "github.com/radieske/sentiment-edge-betting/internal/shared/cache"
	"github.com/radieske/sentiment-edge-betting/internal/shared/config"
	"github.com/radieske/sentiment-edge-betting/internal/shared/db"
	"github.com/radieske/sentiment-edge-betting/internal/shared/kafka"
	"github.com/radieske/sentiment-edge-betting/internal/shared/logger"
	"github.com/radieske/sentiment-edge-betting/internal/shared/metrics"
	"github.com/radieske/sentiment-edge-betting/internal/shared/oddsapi"
	"github.com/radieske/sentiment-edge-betting/internal/shared/runner"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "odds-ingest-service"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogFile)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.OddsAPIKey == "" {
		log.Fatal("ODDS_API_KEY not set")
	}

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Inicializa dependências: Postgres e Redis
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.Migrate(ctx, pg); err != nil {
		log.Fatal("postgres migrate", zap.Error(err))
	}

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	if cfg.Env == "local" || cfg.Env == "dev" {
		if err := kafka.EnsureTopics(ctx, cfg.KafkaBrokers, cfg.TopicOddsUpdates); err != nil {
			log.Warn("failed to create kafka topic", zap.String("topic", cfg.TopicOddsUpdates), zap.Error(err))
		}
	}
	pub := kafka.NewJSONPublisher(cfg.KafkaBrokers, cfg.TopicOddsUpdates)
	defer pub.Close()

	// Métricas Prometheus por etapa
	snapshots := prometheus.NewCounter(prometheus.CounterOpts{Name: "odds_ingest_snapshots_total", Help: "snapshots do feed processados"})
	upserts := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "odds_ingest_events_upserted_total", Help: "eventos gravados"}, []string{"eligible"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "odds_ingest_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(snapshots, upserts, errorsBy)

	feed := oddsapi.NewClient(cfg.OddsAPIBaseURL, cfg.OddsAPIKey,
		oddsapi.WithRateLimit(cfg.OddsAPIRPS, 1),
		oddsapi.WithLogger(log),
	)

	ing := &service.Ingestor{
		Log:        log,
		Feed:       feed,
		Store:      repository.NewPostgresRepo(pg),
		Cache:      cache.NewRedisCache(redisClient, 2*cfg.RunInterval),
		Publisher:  pub,
		Sport:      cfg.OddsSport,
		Region:     cfg.Region,
		OnSnapshot: func() { snapshots.Inc() },
		OnUpsert: func(eligible bool) {
			if eligible {
				upserts.WithLabelValues("true").Inc()
			} else {
				upserts.WithLabelValues("false").Inc()
			}
		},
		OnError: func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	// Servidor HTTP para métricas e health check
	srv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})
	log.Info("metrics/health listening", zap.String("addr", srv.Addr))

	log.Info("odds-ingest started", zap.String("sport", cfg.OddsSport), zap.Duration("interval", cfg.RunInterval))
	runner.Loop(ctx, log, "odds-snapshot", cfg.RunInterval, cfg.RunOnce, func(ctx context.Context) error {
		_, err := ing.RunSnapshot(ctx)
		return err
	})

	shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("odds-ingest stopped")
}
