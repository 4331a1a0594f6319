package main

import (
	"context"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	betsrepo "github.com/radieske/sentiment-edge-betting/internal/paper-bets/repo"
	"github.com/radieske/sentiment-edge-betting/internal/prediction/cache"
	"github.com/radieske/sentiment-edge-betting/internal/prediction/corpus"
	"github.com/radieske/sentiment-edge-betting/internal/prediction/repository"
	"github.com/radieske/sentiment-edge-betting/internal/prediction/sentiment"
	"github.com/radieske/sentiment-edge-betting/internal/prediction/service"
	"github.com/radieske/sentiment-edge-betting/internal/prediction/staking"
	sharedcache "github.com/radieske/sentiment-edge-betting/internal/shared/cache"
	"github.com/radieske/sentiment-edge-betting/internal/shared/config"
	"github.com/radieske/sentiment-edge-betting/internal/shared/db"
	"github.com/radieske/sentiment-edge-betting/internal/shared/kafka"
	"github.com/radieske/sentiment-edge-betting/internal/shared/logger"
	"github.com/radieske/sentiment-edge-betting/internal/shared/metrics"
	"github.com/radieske/sentiment-edge-betting/internal/shared/runner"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "prediction-worker"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogFile)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Léxico carregado uma vez e passado explicitamente ao scorer
	lex := sentiment.DefaultLexicon()
	if cfg.LexiconPath != "" {
		if lex, err = sentiment.LoadLexicon(cfg.LexiconPath); err != nil {
			log.Fatal("load lexicon", zap.String("path", cfg.LexiconPath), zap.Error(err))
		}
	}
	log.Info("lexicon ready", zap.Int("words", lex.Len()))

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
		if err := kafka.EnsureTopics(ctx, cfg.KafkaBrokers, cfg.TopicPredictions, cfg.TopicBetPlaced); err != nil {
			log.Warn("failed to create kafka topics", zap.Error(err))
		}
	}
	predPub := kafka.NewJSONPublisher(cfg.KafkaBrokers, cfg.TopicPredictions)
	defer predPub.Close()
	betPub := kafka.NewJSONPublisher(cfg.KafkaBrokers, cfg.TopicBetPlaced)
	defer betPub.Close()

	predictions := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "prediction_upserts_total", Help: "previsões gravadas"}, []string{"skipped", "conservative"})
	betsPlaced := prometheus.NewCounter(prometheus.CounterOpts{Name: "prediction_paper_bets_total", Help: "apostas simuladas registradas"})
	sourceErrors := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "prediction_corpus_source_errors_total", Help: "falhas por portal"}, []string{"source"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "prediction_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(predictions, betsPlaced, sourceErrors, errorsBy)

	agg := corpus.NewAggregator(cfg.CorpusSources, log,
		corpus.WithWorkers(cfg.CorpusWorkers),
		corpus.WithTimeout(cfg.CorpusTimeout),
	)
	agg.OnSourceError = func(src string) { sourceErrors.WithLabelValues(src).Inc() }

	params := staking.Params{
		Bankroll:             decimal.NewFromFloat(cfg.Bankroll),
		LongshotThreshold:    cfg.LongshotThreshold,
		EdgeBonus:            cfg.EdgeBonus,
		KellyMultiplier:      cfg.KellyMultiplier,
		ConservativeFraction: cfg.ConservativeFraction,
	}

	w := &service.Worker{
		Log:                 log,
		Events:              repository.NewPostgresRepo(pg),
		Predictions:         repository.NewPostgresRepo(pg),
		Corpus:              agg,
		Scorer:              sentiment.NewScorer(lex),
		Model:               staking.New(params),
		Cache:               cache.New(redisClient, cfg.SentimentTTL),
		PredictionPublisher: predPub,
		BetPublisher:        betPub,
		OnPrediction: func(skipped, conservative bool) {
			predictions.WithLabelValues(strconv.FormatBool(skipped), strconv.FormatBool(conservative)).Inc()
		},
		OnBetPlaced: func() { betsPlaced.Inc() },
		OnError:     func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}
	if cfg.PaperBetting {
		w.Bets = betsrepo.NewPostgres(pg)
	}

	srv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})
	log.Info("metrics/health listening", zap.String("addr", srv.Addr))

	log.Info("prediction-worker started",
		zap.Int("sources", len(cfg.CorpusSources)),
		zap.String("bankroll", params.Bankroll.StringFixed(2)),
		zap.Bool("paper_betting", cfg.PaperBetting),
	)
	runner.Loop(ctx, log, "prediction", cfg.RunInterval, cfg.RunOnce, func(ctx context.Context) error {
		_, err := w.RunCycle(ctx)
		return err
	})

	shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("prediction-worker stopped")
}
