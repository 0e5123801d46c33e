package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"present-bag/internal/adapters/meta"
	"present-bag/internal/adapters/repo"
	"present-bag/internal/domain"
	"present-bag/internal/infra/config"
	"present-bag/internal/infra/db"
	"present-bag/internal/infra/log"
	"present-bag/internal/infra/metrics"
	"present-bag/internal/infra/queue"
	"present-bag/internal/usecase/recommend"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	metrics.MustRegister(prometheus.DefaultRegisterer)
	metrics.StartServer(ctx, logger, ":9090")

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось подключиться к БД")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)
	fetcher := meta.NewFetcher(cfg.Meta.Timeout)
	recommendService := recommend.NewService(repoAdapter, repoAdapter, repoAdapter, fetcher)

	jobs, err := buildQueue(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось создать очередь")
	}

	logger.Info().Str("queue", cfg.Queues.Seed).Msg("воркер каталога запущен")
	for {
		job, ack, err := jobs.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			logger.Error().Err(err).Msg("не удалось получить задачу")
			continue
		}

		rec, err := recommendService.Seed(ctx, job.Link)
		if err != nil {
			logger.Error().Err(err).Str("link", job.Link).Msg("не удалось обработать задачу")
			if ackErr := ack(false); ackErr != nil {
				logger.Error().Err(ackErr).Msg("не удалось вернуть задачу в очередь")
			}
			continue
		}
		if rec == nil {
			logger.Debug().Str("link", job.Link).Msg("страница без метаданных, задача пропущена")
		} else {
			logger.Info().Str("link", job.Link).Str("id", rec.ID).Msg("каталог пополнен")
		}
		if ackErr := ack(true); ackErr != nil {
			logger.Error().Err(ackErr).Msg("не удалось подтвердить задачу")
		}
	}
	logger.Info().Msg("остановка воркера")
}

func buildQueue(cfg config.AppConfig, logger zerolog.Logger) (domain.SeedQueue, error) {
	switch cfg.Queues.Driver {
	case "rabbitmq":
		return queue.NewRabbitSeedQueue(cfg.RabbitURL, cfg.Queues.Seed)
	default:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		logger.Debug().Str("driver", "redis").Msg("очередь задач на Redis")
		return queue.NewRedisSeedQueue(client, cfg.Queues.Seed), nil
	}
}
