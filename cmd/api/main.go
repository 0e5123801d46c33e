package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
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

type seedRequest struct {
	Link string `json:"link"`
}

type bulkSeedRequest struct {
	Links []string `json:"links"`
}

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

	r := chi.NewRouter()
	r.Post("/api/v1/recommendations", func(w http.ResponseWriter, r *http.Request) {
		var req seedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		link := strings.TrimSpace(req.Link)
		if link == "" {
			http.Error(w, "пустая ссылка", http.StatusBadRequest)
			return
		}
		rec, err := recommendService.Seed(r.Context(), link)
		if err != nil {
			logger.Error().Err(err).Str("link", link).Msg("не удалось пополнить каталог")
			http.Error(w, "внутренняя ошибка", http.StatusInternalServerError)
			return
		}
		if rec == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rec)
	})
	r.Post("/api/v1/recommendations/bulk", func(w http.ResponseWriter, r *http.Request) {
		var req bulkSeedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		accepted := 0
		for _, link := range req.Links {
			link = strings.TrimSpace(link)
			if link == "" {
				continue
			}
			job := domain.SeedJob{ID: uuid.New().String(), Link: link, RequestedAt: time.Now().UTC()}
			if err := jobs.Enqueue(r.Context(), job); err != nil {
				logger.Error().Err(err).Str("link", link).Msg("не удалось поставить задачу")
				http.Error(w, "внутренняя ошибка", http.StatusInternalServerError)
				return
			}
			accepted++
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]int{"accepted": accepted})
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: r}
	go func() {
		logger.Info().Int("port", cfg.Port).Msg("API каталога запущен")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP сервер остановлен")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("остановка API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
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
