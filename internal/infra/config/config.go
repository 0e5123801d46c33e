package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	Port   int    `envconfig:"PORT" default:"8080"`

	Telegram struct {
		Token      string `envconfig:"TG_BOT_TOKEN"`
		WebhookURL string `envconfig:"TG_WEBHOOK_URL"`
		BotURL     string `envconfig:"TG_BOT_URL" default:"https://t.me/present_bag_bot"`
	} `envconfig:""`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`
	RabbitURL string `envconfig:"RABBITMQ_URL"`

	Wishlist struct {
		PageSize         int  `envconfig:"PAGE_SIZE" default:"5"`
		DeleteRowButtons int  `envconfig:"DELETE_ROW_BUTTONS" default:"5"`
		Enrichment       bool `envconfig:"LINK_ENRICHMENT" default:"true"`
	} `envconfig:""`

	Meta struct {
		Timeout time.Duration `envconfig:"META_FETCH_TIMEOUT" default:"10s"`
	} `envconfig:""`

	Timeline struct {
		TTL       time.Duration `envconfig:"TIMELINE_TTL" default:"72h"`
		PurgeCron string        `envconfig:"TIMELINE_PURGE_CRON" default:"0 0 */3 * *"`
	} `envconfig:""`

	Queues struct {
		Driver string `envconfig:"QUEUE_DRIVER" default:"redis"`
		Seed   string `envconfig:"SEED_QUEUE_KEY" default:"catalog_seed_jobs"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
