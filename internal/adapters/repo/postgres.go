package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"present-bag/internal/domain"
	"present-bag/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.WishRepo           = (*Postgres)(nil)
	_ domain.RecommendationRepo = (*Postgres)(nil)
	_ domain.TimelineRepo       = (*Postgres)(nil)
	_ domain.UserRepo           = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// ListByChat реализует domain.WishRepo. Порядок строго по id: на него
// опираются пагинация и сквозные индексы удаления.
func (p *Postgres) ListByChat(chatID int64) ([]domain.Wish, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, chat_id, content, features, created_at
FROM wishes
WHERE chat_id = $1
ORDER BY id ASC
`, chatID)
	metrics.ObserveNetworkRequest("postgres", "wishes_list", "wishes", start, err)
	if err != nil {
		return nil, fmt.Errorf("выборка желаний: %w", err)
	}
	defer rows.Close()

	var wishes []domain.Wish
	for rows.Next() {
		var wish domain.Wish
		if err := rows.Scan(&wish.ID, &wish.ChatID, &wish.Content, &wish.Features, &wish.CreatedAt); err != nil {
			return nil, fmt.Errorf("чтение желания: %w", err)
		}
		wishes = append(wishes, wish)
	}
	return wishes, rows.Err()
}

// Add реализует domain.WishRepo.
func (p *Postgres) Add(chatID int64, content string, features []string) (domain.Wish, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	if features == nil {
		features = []string{}
	}

	var wish domain.Wish
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO wishes (chat_id, content, features)
VALUES ($1, $2, $3)
RETURNING id, chat_id, content, features, created_at
`, chatID, content, features).Scan(&wish.ID, &wish.ChatID, &wish.Content, &wish.Features, &wish.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "wishes_insert", "wishes", start, err)
	if err != nil {
		return domain.Wish{}, fmt.Errorf("сохранение желания: %w", err)
	}
	return wish, nil
}

// DeleteByID реализует domain.WishRepo.
func (p *Postgres) DeleteByID(id int64) error {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `DELETE FROM wishes WHERE id = $1`, id)
	metrics.ObserveNetworkRequest("postgres", "wishes_delete", "wishes", start, err)
	if err != nil {
		return fmt.Errorf("удаление желания: %w", err)
	}
	return nil
}

// ListByFeatures реализует domain.RecommendationRepo. Пустой набор фич
// даёт пустой результат без обращения к БД.
func (p *Postgres) ListByFeatures(features []string) ([]domain.Recommendation, error) {
	if len(features) == 0 {
		return nil, nil
	}

	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, link, content, features, created_at
FROM recommendations
WHERE features && $1
ORDER BY id ASC
`, features)
	metrics.ObserveNetworkRequest("postgres", "recommendations_list", "recommendations", start, err)
	if err != nil {
		return nil, fmt.Errorf("выборка рекомендаций: %w", err)
	}
	defer rows.Close()

	var recs []domain.Recommendation
	for rows.Next() {
		var rec domain.Recommendation
		if err := rows.Scan(&rec.ID, &rec.Link, &rec.Content, &rec.Features, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("чтение рекомендации: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// GetByID реализует domain.RecommendationRepo. Отсутствие записи
// возвращается как nil без ошибки.
func (p *Postgres) GetByID(id string) (*domain.Recommendation, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	var rec domain.Recommendation
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, link, content, features, created_at
FROM recommendations
WHERE id = $1
`, id).Scan(&rec.ID, &rec.Link, &rec.Content, &rec.Features, &rec.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "recommendations_get", "recommendations", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("получение рекомендации: %w", err)
	}
	return &rec, nil
}

// FindOrCreate реализует domain.RecommendationRepo. Ссылка уникальна,
// гонка двух вставок разрешается через ON CONFLICT DO NOTHING с
// повторной выборкой победителя.
func (p *Postgres) FindOrCreate(link, content string, features []string) (domain.Recommendation, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	if features == nil {
		features = []string{}
	}

	existing, err := p.findByLink(ctx, link)
	if err != nil {
		return domain.Recommendation{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	start := time.Now()
	_, err = p.pool.Exec(ctx, `
INSERT INTO recommendations (id, link, content, features)
VALUES ($1, $2, $3, $4)
ON CONFLICT (link) DO NOTHING
`, uuid.New().String(), link, content, features)
	metrics.ObserveNetworkRequest("postgres", "recommendations_insert", "recommendations", start, err)
	if err != nil {
		return domain.Recommendation{}, fmt.Errorf("сохранение рекомендации: %w", err)
	}

	created, err := p.findByLink(ctx, link)
	if err != nil {
		return domain.Recommendation{}, err
	}
	if created == nil {
		return domain.Recommendation{}, errors.New("рекомендация не найдена после вставки")
	}
	return *created, nil
}

func (p *Postgres) findByLink(ctx context.Context, link string) (*domain.Recommendation, error) {
	var rec domain.Recommendation
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, link, content, features, created_at
FROM recommendations
WHERE link = $1
`, link).Scan(&rec.ID, &rec.Link, &rec.Content, &rec.Features, &rec.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "recommendations_find_by_link", "recommendations", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("поиск рекомендации по ссылке: %w", err)
	}
	return &rec, nil
}

// ListShownIDs реализует domain.TimelineRepo.
func (p *Postgres) ListShownIDs(chatID int64) ([]string, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT recommendation_id
FROM timeline
WHERE chat_id = $1
`, chatID)
	metrics.ObserveNetworkRequest("postgres", "timeline_list", "timeline", start, err)
	if err != nil {
		return nil, fmt.Errorf("выборка таймлайна: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("чтение таймлайна: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Append реализует domain.TimelineRepo.
func (p *Postgres) Append(chatID int64, recommendationID string) error {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO timeline (chat_id, recommendation_id)
VALUES ($1, $2)
`, chatID, recommendationID)
	metrics.ObserveNetworkRequest("postgres", "timeline_insert", "timeline", start, err)
	if err != nil {
		return fmt.Errorf("запись показа: %w", err)
	}
	return nil
}

// PurgeOlderThan реализует domain.TimelineRepo. Удаление идёт по времени
// показа независимо от пользователя.
func (p *Postgres) PurgeOlderThan(cutoff time.Time) (int64, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `DELETE FROM timeline WHERE shown_at < $1`, cutoff)
	metrics.ObserveNetworkRequest("postgres", "timeline_purge", "timeline", start, err)
	if err != nil {
		return 0, fmt.Errorf("очистка таймлайна: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CreateIfAbsent реализует domain.UserRepo. Повторная регистрация того же
// чата не изменяет сохранённый профиль.
func (p *Postgres) CreateIfAbsent(profile domain.TelegramProfile) (domain.User, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO users (chat_id, tg_user_id, username, first_name, last_name, language_code, is_bot)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (chat_id) DO NOTHING
`, profile.ChatID, profile.TGUserID, profile.Username, profile.FirstName, profile.LastName, profile.LanguageCode, profile.IsBot)
	metrics.ObserveNetworkRequest("postgres", "users_insert", "users", start, err)
	if err != nil {
		return domain.User{}, fmt.Errorf("регистрация пользователя: %w", err)
	}

	user, err := p.getByChat(ctx, profile.ChatID)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, errors.New("пользователь не найден после регистрации")
	}
	return *user, nil
}

// GetByChat реализует domain.UserRepo. Отсутствие пользователя
// возвращается как nil без ошибки.
func (p *Postgres) GetByChat(chatID int64) (*domain.User, error) {
	ctx, cancel := p.connCtx()
	defer cancel()
	return p.getByChat(ctx, chatID)
}

func (p *Postgres) getByChat(ctx context.Context, chatID int64) (*domain.User, error) {
	var user domain.User
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, chat_id, tg_user_id, username, first_name, last_name, language_code, is_bot, created_at
FROM users
WHERE chat_id = $1
`, chatID).Scan(&user.ID, &user.ChatID, &user.TGUserID, &user.Username, &user.FirstName, &user.LastName, &user.LanguageCode, &user.IsBot, &user.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "users_get", "users", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return &user, nil
}
