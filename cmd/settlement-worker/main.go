package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	betsrepo "github.com/radieske/sentiment-edge-betting/internal/paper-bets/repo"
	"github.com/radieske/sentiment-edge-betting/internal/settlement/grader"
	"github.com/radieske/sentiment-edge-betting/internal/settlement/service"
	"github.com/radieske/sentiment-edge-betting/internal/shared/config"
	"github.com/radieske/sentiment-edge-betting/internal/shared/db"
	"github.com/radieske/sentiment-edge-betting/internal/shared/kafka"
	"github.com/radieske/sentiment-edge-betting/internal/shared/logger"
	"github.com/radieske/sentiment-edge-betting/internal/shared/metrics"
	"github.com/radieske/sentiment-edge-betting/internal/shared/model"
	"github.com/radieske/sentiment-edge-betting/internal/shared/oddsapi"
	"github.com/radieske/sentiment-edge-betting/internal/shared/runner"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "settlement-worker"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogFile)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.OddsAPIKey == "" {
		log.Fatal("ODDS_API_KEY not set")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Conexão com Postgres para leitura e atualização de status das apostas
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.Migrate(ctx, pg); err != nil {
		log.Fatal("postgres migrate", zap.Error(err))
	}

	if cfg.Env == "local" || cfg.Env == "dev" {
		if err := kafka.EnsureTopics(ctx, cfg.KafkaBrokers, cfg.TopicBetSettled); err != nil {
			log.Warn("failed to create kafka topic", zap.String("topic", cfg.TopicBetSettled), zap.Error(err))
		}
	}
	pub := kafka.NewJSONPublisher(cfg.KafkaBrokers, cfg.TopicBetSettled)
	defer pub.Close()

	settled := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_bets_total", Help: "apostas liquidadas por status"}, []string{"status"})
	unresolved := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_unresolved_total", Help: "apostas sem resultado no ciclo"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(settled, unresolved, errorsBy)

	policy := grader.ParseDrawPolicy(cfg.DrawPolicy)
	eng := &service.Engine{
		Log:  log,
		Bets: betsrepo.NewPostgres(pg),
		Results: oddsapi.NewClient(cfg.OddsAPIBaseURL, cfg.OddsAPIKey,
			oddsapi.WithRateLimit(cfg.OddsAPIRPS, 1),
			oddsapi.WithLogger(log),
		),
		Publisher:    pub,
		DaysFrom:     cfg.SettlementDaysFrom,
		DrawPolicy:   policy,
		OnSettled:    func(s model.BetStatus) { settled.WithLabelValues(string(s)).Inc() },
		OnUnresolved: func() { unresolved.Inc() },
		OnError:      func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	srv := metrics.StartMetricsServer(cfg.MetricsPort, pg.PingContext)
	log.Info("metrics/health listening", zap.String("addr", srv.Addr))

	log.Info("settlement-worker started",
		zap.Int("days_from", cfg.SettlementDaysFrom),
		zap.String("draw_policy", string(policy)),
	)
	runner.Loop(ctx, log, "settlement", cfg.RunInterval, cfg.RunOnce, func(ctx context.Context) error {
		_, err := eng.Run(ctx)
		return err
	})

	shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("settlement-worker stopped")
}
