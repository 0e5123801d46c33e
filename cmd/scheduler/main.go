package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"present-bag/internal/adapters/meta"
	"present-bag/internal/adapters/repo"
	"present-bag/internal/infra/cache"
	"present-bag/internal/infra/config"
	"present-bag/internal/infra/db"
	"present-bag/internal/infra/log"
	"present-bag/internal/infra/metrics"
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

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	locks := cache.NewRedis(redisClient)

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Timeline.PurgeCron, func() {
		// Замок в Redis не даёт нескольким экземплярам выполнить очистку
		// за один и тот же запуск.
		key := "timeline_purge:" + time.Now().UTC().Format("2006-01-02")
		err := locks.Once(key, 24*time.Hour, func() error {
			cutoff := time.Now().UTC().Add(-cfg.Timeline.TTL)
			purged, err := recommendService.PurgeTimeline(ctx, cutoff)
			if err != nil {
				return err
			}
			logger.Info().Int64("purged", purged).Time("cutoff", cutoff).Msg("таймлайн очищен")
			return nil
		})
		if err != nil {
			logger.Error().Err(err).Msg("не удалось очистить таймлайн")
		}
	})
	if err != nil {
		logger.Fatal().Err(err).Str("cron", cfg.Timeline.PurgeCron).Msg("не удалось зарегистрировать задачу")
	}

	scheduler.Start()
	logger.Info().Str("cron", cfg.Timeline.PurgeCron).Msg("планировщик запущен")

	<-ctx.Done()
	logger.Info().Msg("остановка планировщика")
	<-scheduler.Stop().Done()
}
