package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"present-bag/internal/domain"
	"present-bag/internal/infra/metrics"
	"present-bag/internal/usecase/wishlist"
)

// ErrNoRecommendation возвращается, когда подходящего кандидата нет.
// Это штатный исход, а не сбой.
var ErrNoRecommendation = errors.New("подходящих рекомендаций нет")

// Service реализует подбор рекомендаций по профилю интересов пользователя.
type Service struct {
	wishes   domain.WishRepo
	catalog  domain.RecommendationRepo
	timeline domain.TimelineRepo
	meta     domain.MetaFetcher
}

// NewService создаёт сервис рекомендаций.
func NewService(wishes domain.WishRepo, catalog domain.RecommendationRepo, timeline domain.TimelineRepo, meta domain.MetaFetcher) *Service {
	return &Service{wishes: wishes, catalog: catalog, timeline: timeline, meta: meta}
}

// BuildAffinity строит профиль интересов: для каждой фичи — её частота,
// нормированная на число желаний, имеющих хотя бы одну фичу. Если таких
// желаний нет, профиль пуст и деления на ноль не происходит.
func BuildAffinity(wishes []domain.Wish) map[string]float64 {
	counts := make(map[string]int)
	weight := 0
	for _, wish := range wishes {
		if len(wish.Features) > 0 {
			weight++
		}
		for _, feature := range wish.Features {
			counts[feature]++
		}
	}
	if weight == 0 {
		return map[string]float64{}
	}
	affinity := make(map[string]float64, len(counts))
	for feature, count := range counts {
		affinity[feature] = float64(count) / float64(weight)
	}
	return affinity
}

// Pick выбирает лучшую рекомендацию для пользователя.
// Кандидаты со ссылками из собственных желаний и уже показанные исключаются.
// При равных оценках побеждает кандидат, встреченный раньше в порядке
// выдачи каталога: замена происходит только при строго большей оценке.
func (s *Service) Pick(ctx context.Context, chatID int64) (domain.Recommendation, error) {
	var (
		wishes []domain.Wish
		shown  []string
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		wishes, err = s.wishes.ListByChat(chatID)
		return err
	})
	g.Go(func() error {
		var err error
		shown, err = s.timeline.ListShownIDs(chatID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Recommendation{}, fmt.Errorf("получение профиля: %w", err)
	}

	ownLinks := make(map[string]struct{})
	for _, wish := range wishes {
		for _, link := range wishlist.ExtractLinks(wish.Content) {
			ownLinks[link] = struct{}{}
		}
	}

	affinity := BuildAffinity(wishes)
	if len(affinity) == 0 {
		metrics.RecommendationsEmpty.Inc()
		return domain.Recommendation{}, ErrNoRecommendation
	}

	features := make([]string, 0, len(affinity))
	for feature := range affinity {
		features = append(features, feature)
	}
	candidates, err := s.catalog.ListByFeatures(features)
	if err != nil {
		return domain.Recommendation{}, fmt.Errorf("поиск кандидатов: %w", err)
	}

	shownSet := make(map[string]struct{}, len(shown))
	for _, id := range shown {
		shownSet[id] = struct{}{}
	}

	var (
		best      *domain.Recommendation
		bestScore float64
	)
	for i := range candidates {
		candidate := candidates[i]
		if _, ok := ownLinks[candidate.Link]; ok {
			continue
		}
		if _, ok := shownSet[candidate.ID]; ok {
			continue
		}
		score := 0.0
		for _, feature := range candidate.Features {
			score += affinity[feature]
		}
		if best == nil || score > bestScore {
			best = &candidate
			bestScore = score
		}
	}
	if best == nil {
		metrics.RecommendationsEmpty.Inc()
		return domain.Recommendation{}, ErrNoRecommendation
	}
	metrics.RecommendationsServed.Inc()
	return *best, nil
}

// MarkShown фиксирует показ рекомендации сразу при отправке пользователю,
// чтобы она не была предложена повторно независимо от его решения.
func (s *Service) MarkShown(ctx context.Context, chatID int64, recommendationID string) error {
	return s.timeline.Append(chatID, recommendationID)
}

// Accept добавляет содержимое рекомендации в список желаний пользователя.
// Обогащение не выполняется повторно: оно уже запечено в сохранённый текст.
// Запись каталога при этом не удаляется. Неизвестный идентификатор
// игнорируется молча.
func (s *Service) Accept(ctx context.Context, chatID int64, recommendationID string) error {
	rec, err := s.catalog.GetByID(recommendationID)
	if err != nil {
		return fmt.Errorf("получение рекомендации: %w", err)
	}
	if rec == nil {
		return nil
	}
	if _, err := s.wishes.Add(chatID, rec.Content, nil); err != nil {
		return fmt.Errorf("добавление желания: %w", err)
	}
	metrics.WishesAdded.Inc()
	metrics.RecommendationsAccepted.Inc()
	return nil
}

// Seed пополняет каталог по ссылке на товар. Страница без заголовка или
// с недоступными метаданными каталог не пополняет и возвращает nil.
func (s *Service) Seed(ctx context.Context, link string) (*domain.Recommendation, error) {
	meta, err := s.meta.Fetch(ctx, link)
	if err != nil || meta == nil || meta.Title == "" {
		return nil, nil
	}
	content := fmt.Sprintf("%s [▶️](%s)", meta.Title, link)
	rec, err := s.catalog.FindOrCreate(link, content, meta.Features)
	if err != nil {
		return nil, fmt.Errorf("сохранение рекомендации: %w", err)
	}
	metrics.CatalogSeeded.Inc()
	return &rec, nil
}

// PurgeTimeline удаляет записи таймлайна строго старше отметки.
func (s *Service) PurgeTimeline(ctx context.Context, cutoff time.Time) (int64, error) {
	purged, err := s.timeline.PurgeOlderThan(cutoff)
	if err != nil {
		return 0, fmt.Errorf("очистка таймлайна: %w", err)
	}
	metrics.TimelinePurged.Add(float64(purged))
	return purged, nil
}
