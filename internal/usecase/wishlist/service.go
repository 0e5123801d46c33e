package wishlist

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"present-bag/internal/domain"
	"present-bag/internal/infra/metrics"
)

// Service управляет списком желаний пользователя.
type Service struct {
	wishes   domain.WishRepo
	meta     domain.MetaFetcher
	pageSize int
}

// NewService создаёт сервис списка желаний.
func NewService(wishes domain.WishRepo, meta domain.MetaFetcher, pageSize int) *Service {
	return &Service{wishes: wishes, meta: meta, pageSize: pageSize}
}

// PageSize возвращает размер страницы, с которым работает сервис.
func (s *Service) PageSize() int {
	return s.pageSize
}

// Add сохраняет желание. При включённом обогащении каждая ссылка из текста
// получает метаданные страницы: заголовок превращает ссылку в markdown-метку,
// фичи всех удачно полученных страниц объединяются в набор желания. Неудачный
// запрос метаданных оставляет ссылку как есть и не считается ошибкой.
func (s *Service) Add(ctx context.Context, chatID int64, content string, enrich bool) (domain.Wish, error) {
	var (
		links    []string
		labels   map[string]string
		features []string
	)

	if enrich {
		links = ExtractLinks(content)
		labels = make(map[string]string, len(links))
		featureSet := make(map[string]struct{})

		var mu sync.Mutex
		g, fetchCtx := errgroup.WithContext(ctx)
		for _, link := range links {
			link := link
			g.Go(func() error {
				meta, err := s.meta.Fetch(fetchCtx, link)
				if err != nil || meta == nil {
					return nil
				}
				mu.Lock()
				defer mu.Unlock()
				for _, feature := range meta.Features {
					featureSet[feature] = struct{}{}
				}
				if meta.Title != "" {
					labels[link] = fmt.Sprintf("%s [▶️](%s)", meta.Title, link)
				}
				return nil
			})
		}
		_ = g.Wait()

		features = make([]string, 0, len(featureSet))
		for feature := range featureSet {
			features = append(features, feature)
		}
		sort.Strings(features)
	}

	wish, err := s.wishes.Add(chatID, ApplyReplacements(content, links, labels), features)
	if err != nil {
		return domain.Wish{}, fmt.Errorf("сохранение желания: %w", err)
	}
	metrics.WishesAdded.Inc()
	return wish, nil
}

// List возвращает полный список желаний пользователя.
func (s *Service) List(ctx context.Context, chatID int64) ([]domain.Wish, error) {
	return s.wishes.ListByChat(chatID)
}

// Page возвращает окно списка желаний.
func (s *Service) Page(ctx context.Context, chatID int64, pageIndex int) (domain.Page, error) {
	items, err := s.wishes.ListByChat(chatID)
	if err != nil {
		return domain.Page{}, fmt.Errorf("получение списка: %w", err)
	}
	return Window(items, pageIndex, s.pageSize), nil
}

// DeleteAt удаляет желание по сквозному индексу и возвращает окно той же
// страницы, пересчитанное по уже сокращённому списку. Индекс за границей
// списка — устаревшая ссылка после конкурентного удаления, не ошибка.
func (s *Service) DeleteAt(ctx context.Context, chatID int64, pageIndex, targetIndex int) (domain.Page, error) {
	items, err := s.wishes.ListByChat(chatID)
	if err != nil {
		return domain.Page{}, fmt.Errorf("получение списка: %w", err)
	}
	if targetIndex >= 0 && targetIndex < len(items) {
		if err := s.wishes.DeleteByID(items[targetIndex].ID); err != nil {
			return domain.Page{}, fmt.Errorf("удаление желания: %w", err)
		}
		items = append(items[:targetIndex], items[targetIndex+1:]...)
		metrics.WishesDeleted.Inc()
	}
	return Window(items, pageIndex, s.pageSize), nil
}
