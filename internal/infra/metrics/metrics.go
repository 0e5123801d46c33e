package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	WishesAdded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wishes_added_total",
		Help: "Количество добавленных желаний",
	})
	WishesDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wishes_deleted_total",
		Help: "Количество удалённых желаний",
	})
	RecommendationsServed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recommendations_served_total",
		Help: "Количество показанных рекомендаций",
	})
	RecommendationsEmpty = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recommendations_empty_total",
		Help: "Запросы рекомендаций без подходящего кандидата",
	})
	RecommendationsAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recommendations_accepted_total",
		Help: "Рекомендации, добавленные пользователями в список",
	})
	RecommendationsByUser = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recommendations_by_user_total",
		Help: "Количество запросов рекомендаций по пользователям",
	}, []string{"chat_id"})
	TimelinePurged = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timeline_purged_entries_total",
		Help: "Количество записей таймлайна, удалённых при очистке",
	})
	CatalogSeeded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_seeded_total",
		Help: "Количество обработанных задач пополнения каталога",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		WishesAdded,
		WishesDeleted,
		RecommendationsServed,
		RecommendationsEmpty,
		RecommendationsAccepted,
		RecommendationsByUser,
		TimelinePurged,
		CatalogSeeded,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// IncRecommendationForUser увеличивает счётчик запросов рекомендаций пользователя.
func IncRecommendationForUser(chatID int64) {
	RecommendationsByUser.WithLabelValues(strconv.FormatInt(chatID, 10)).Inc()
}
