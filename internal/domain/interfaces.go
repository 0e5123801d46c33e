package domain

import (
	"context"
	"time"
)

// WishRepo управляет желаниями пользователей.
// ListByChat возвращает желания в порядке вставки (id по возрастанию) —
// на этот порядок опирается детерминизм пагинации и выбора рекомендаций.
type WishRepo interface {
	ListByChat(chatID int64) ([]Wish, error)
	Add(chatID int64, content string, features []string) (Wish, error)
	DeleteByID(id int64) error
}

// RecommendationRepo управляет общим каталогом рекомендаций.
type RecommendationRepo interface {
	// ListByFeatures возвращает записи, пересекающиеся с набором фич хотя бы
	// по одной. Пустой набор даёт пустой результат, а не весь каталог.
	ListByFeatures(features []string) ([]Recommendation, error)
	GetByID(id string) (*Recommendation, error)
	// FindOrCreate идемпотентен по ссылке: повторный вызов с той же ссылкой
	// возвращает уже существующую запись.
	FindOrCreate(link, content string, features []string) (Recommendation, error)
}

// TimelineRepo хранит историю показов рекомендаций.
type TimelineRepo interface {
	ListShownIDs(chatID int64) ([]string, error)
	Append(chatID int64, recommendationID string) error
	// PurgeOlderThan удаляет записи строго старше отметки одним батчем.
	PurgeOlderThan(cutoff time.Time) (int64, error)
}

// UserRepo управляет пользователями.
type UserRepo interface {
	// CreateIfAbsent создаёт пользователя один раз; повторные вызовы
	// возвращают уже сохранённый профиль без изменений.
	CreateIfAbsent(profile TelegramProfile) (User, error)
	GetByChat(chatID int64) (*User, error)
}

// MetaFetcher извлекает метаданные страницы по ссылке.
// Любая ошибка сети или разбора означает «без обогащения», вызывающая
// сторона не должна транслировать её пользователю.
type MetaFetcher interface {
	Fetch(ctx context.Context, url string) (*PageMeta, error)
}

// SeedQueue — очередь задач пополнения каталога.
type SeedQueue interface {
	Enqueue(ctx context.Context, job SeedJob) error
	Receive(ctx context.Context) (SeedJob, func(ok bool) error, error)
}

// Cache используется для простых TTL-хранилищ и распределённых замков.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}
