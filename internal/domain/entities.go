package domain

import "time"

// Wish описывает желание пользователя.
type Wish struct {
	ID        int64
	ChatID    int64
	Content   string
	Features  []string
	CreatedAt time.Time
}

// Recommendation представляет запись общего каталога рекомендаций.
// Ссылка уникальна в пределах каталога, запись никогда не изменяется.
type Recommendation struct {
	ID        string
	Link      string
	Content   string
	Features  []string
	CreatedAt time.Time
}

// TimelineEntry фиксирует показ рекомендации пользователю.
type TimelineEntry struct {
	ID               int64
	ChatID           int64
	RecommendationID string
	ShownAt          time.Time
}

// TelegramProfile содержит данные пользователя из апдейта Telegram.
type TelegramProfile struct {
	ChatID       int64
	TGUserID     int64
	Username     string
	FirstName    string
	LastName     string
	LanguageCode string
	IsBot        bool
}

// User описывает пользователя бота.
type User struct {
	ID           int64
	ChatID       int64
	TGUserID     int64
	Username     string
	FirstName    string
	LastName     string
	LanguageCode string
	IsBot        bool
	CreatedAt    time.Time
}

// PageMeta содержит метаданные страницы товара.
type PageMeta struct {
	Title    string
	Features []string
}

// Page описывает окно списка желаний: элементы страницы и границы навигации.
// Вычисляется из полного списка и нигде не хранится.
type Page struct {
	Items   []Wish
	Index   int
	HasPrev bool
	HasNext bool
}

// SeedJob — задача пополнения каталога рекомендаций по ссылке.
type SeedJob struct {
	ID          string    `json:"id"`
	Link        string    `json:"link"`
	RequestedAt time.Time `json:"requested_at"`
}
