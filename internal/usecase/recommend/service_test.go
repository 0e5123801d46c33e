package recommend

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"present-bag/internal/domain"
	"present-bag/internal/infra/metrics"
)

type stubWishRepo struct {
	wishes []domain.Wish
}

func (s *stubWishRepo) ListByChat(chatID int64) ([]domain.Wish, error) {
	return s.wishes, nil
}

func (s *stubWishRepo) Add(chatID int64, content string, features []string) (domain.Wish, error) {
	wish := domain.Wish{ID: int64(len(s.wishes) + 1), ChatID: chatID, Content: content, Features: features}
	s.wishes = append(s.wishes, wish)
	return wish, nil
}

func (s *stubWishRepo) DeleteByID(int64) error { return nil }

type stubCatalog struct {
	items []domain.Recommendation
}

func (s *stubCatalog) ListByFeatures(features []string) ([]domain.Recommendation, error) {
	if len(features) == 0 {
		return nil, nil
	}
	wanted := make(map[string]struct{}, len(features))
	for _, feature := range features {
		wanted[feature] = struct{}{}
	}
	var out []domain.Recommendation
	for _, item := range s.items {
		for _, feature := range item.Features {
			if _, ok := wanted[feature]; ok {
				out = append(out, item)
				break
			}
		}
	}
	return out, nil
}

func (s *stubCatalog) GetByID(id string) (*domain.Recommendation, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i], nil
		}
	}
	return nil, nil
}

func (s *stubCatalog) FindOrCreate(link, content string, features []string) (domain.Recommendation, error) {
	for _, item := range s.items {
		if item.Link == link {
			return item, nil
		}
	}
	rec := domain.Recommendation{ID: strconv.Itoa(len(s.items) + 1), Link: link, Content: content, Features: features}
	s.items = append(s.items, rec)
	return rec, nil
}

type stubTimeline struct {
	shown []string
}

func (s *stubTimeline) ListShownIDs(int64) ([]string, error) { return s.shown, nil }

func (s *stubTimeline) Append(_ int64, recommendationID string) error {
	s.shown = append(s.shown, recommendationID)
	return nil
}

func (s *stubTimeline) PurgeOlderThan(time.Time) (int64, error) { return int64(len(s.shown)), nil }

type stubMeta struct {
	metas map[string]*domain.PageMeta
}

func (s *stubMeta) Fetch(ctx context.Context, url string) (*domain.PageMeta, error) {
	meta, ok := s.metas[url]
	if !ok {
		return nil, errors.New("страница недоступна")
	}
	return meta, nil
}

func TestBuildAffinityNormalizesByFeatureBearingWishes(t *testing.T) {
	affinity := BuildAffinity([]domain.Wish{
		{Features: []string{"a", "b"}},
		{Features: []string{"a"}},
		{},
	})
	if affinity["a"] != 1.0 {
		t.Fatalf("ожидали a=1.0, получили %v", affinity["a"])
	}
	if affinity["b"] != 0.5 {
		t.Fatalf("ожидали b=0.5, получили %v", affinity["b"])
	}
}

func TestBuildAffinityEmptyWithoutFeatures(t *testing.T) {
	affinity := BuildAffinity([]domain.Wish{{Content: "без фич"}, {}})
	if len(affinity) != 0 {
		t.Fatalf("ожидали пустой профиль, получили %v", affinity)
	}
}

func TestPickChoosesHighestScore(t *testing.T) {
	wishes := &stubWishRepo{wishes: []domain.Wish{
		{ID: 1, Features: []string{"toys", "lego"}},
		{ID: 2, Features: []string{"toys"}},
	}}
	catalog := &stubCatalog{items: []domain.Recommendation{
		{ID: "r1", Link: "https://shop.example/1", Features: []string{"lego"}},
		{ID: "r2", Link: "https://shop.example/2", Features: []string{"toys", "lego"}},
	}}
	service := NewService(wishes, catalog, &stubTimeline{}, &stubMeta{})

	rec, err := service.Pick(context.Background(), 42)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if rec.ID != "r2" {
		t.Fatalf("ожидали r2, получили %s", rec.ID)
	}
}

func TestPickFirstWinsOnEqualScore(t *testing.T) {
	wishes := &stubWishRepo{wishes: []domain.Wish{{ID: 1, Features: []string{"toys"}}}}
	catalog := &stubCatalog{items: []domain.Recommendation{
		{ID: "r1", Link: "https://shop.example/1", Features: []string{"toys"}},
		{ID: "r2", Link: "https://shop.example/2", Features: []string{"toys"}},
	}}
	service := NewService(wishes, catalog, &stubTimeline{}, &stubMeta{})

	rec, err := service.Pick(context.Background(), 42)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if rec.ID != "r1" {
		t.Fatalf("при равных оценках побеждает первый кандидат, получили %s", rec.ID)
	}
}

func TestPickExcludesOwnLinks(t *testing.T) {
	wishes := &stubWishRepo{wishes: []domain.Wish{
		{ID: 1, Content: "хочу https://shop.example/1", Features: []string{"toys"}},
	}}
	catalog := &stubCatalog{items: []domain.Recommendation{
		{ID: "r1", Link: "https://shop.example/1", Features: []string{"toys"}},
		{ID: "r2", Link: "https://shop.example/2", Features: []string{"toys"}},
	}}
	service := NewService(wishes, catalog, &stubTimeline{}, &stubMeta{})

	rec, err := service.Pick(context.Background(), 42)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if rec.ID != "r2" {
		t.Fatalf("собственная ссылка должна быть исключена, получили %s", rec.ID)
	}
}

func TestPickExcludesShown(t *testing.T) {
	wishes := &stubWishRepo{wishes: []domain.Wish{{ID: 1, Features: []string{"toys"}}}}
	catalog := &stubCatalog{items: []domain.Recommendation{
		{ID: "r1", Link: "https://shop.example/1", Features: []string{"toys"}},
		{ID: "r2", Link: "https://shop.example/2", Features: []string{"toys"}},
	}}
	timeline := &stubTimeline{shown: []string{"r1"}}
	service := NewService(wishes, catalog, timeline, &stubMeta{})

	rec, err := service.Pick(context.Background(), 42)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if rec.ID != "r2" {
		t.Fatalf("показанная рекомендация должна быть исключена, получили %s", rec.ID)
	}
}

func TestPickNoFeatures(t *testing.T) {
	wishes := &stubWishRepo{wishes: []domain.Wish{{ID: 1, Content: "просто текст"}}}
	service := NewService(wishes, &stubCatalog{}, &stubTimeline{}, &stubMeta{})

	_, err := service.Pick(context.Background(), 42)
	if !errors.Is(err, ErrNoRecommendation) {
		t.Fatalf("ожидали ErrNoRecommendation, получили %v", err)
	}
}

func TestPickAllCandidatesExhausted(t *testing.T) {
	wishes := &stubWishRepo{wishes: []domain.Wish{{ID: 1, Features: []string{"toys"}}}}
	catalog := &stubCatalog{items: []domain.Recommendation{
		{ID: "r1", Link: "https://shop.example/1", Features: []string{"toys"}},
	}}
	timeline := &stubTimeline{shown: []string{"r1"}}
	service := NewService(wishes, catalog, timeline, &stubMeta{})

	_, err := service.Pick(context.Background(), 42)
	if !errors.Is(err, ErrNoRecommendation) {
		t.Fatalf("ожидали ErrNoRecommendation, получили %v", err)
	}
}

func TestAcceptAddsWithoutEnrichment(t *testing.T) {
	wishes := &stubWishRepo{}
	catalog := &stubCatalog{items: []domain.Recommendation{
		{ID: "r1", Link: "https://shop.example/1", Content: "Лего Сити [▶️](https://shop.example/1)", Features: []string{"toys"}},
	}}
	service := NewService(wishes, catalog, &stubTimeline{}, &stubMeta{})

	if err := service.Accept(context.Background(), 42, "r1"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(wishes.wishes) != 1 {
		t.Fatalf("ожидали одно желание, получили %d", len(wishes.wishes))
	}
	if wishes.wishes[0].Content != catalog.items[0].Content {
		t.Fatalf("содержимое должно копироваться дословно")
	}
	if len(wishes.wishes[0].Features) != 0 {
		t.Fatalf("при принятии фичи заново не вычисляются")
	}
	if len(catalog.items) != 1 {
		t.Fatalf("запись каталога не должна удаляться")
	}
}

func TestAcceptCountsWishAdded(t *testing.T) {
	wishes := &stubWishRepo{}
	catalog := &stubCatalog{items: []domain.Recommendation{
		{ID: "r1", Link: "https://shop.example/1", Content: "Лего Сити", Features: []string{"toys"}},
	}}
	service := NewService(wishes, catalog, &stubTimeline{}, &stubMeta{})

	before := testutil.ToFloat64(metrics.WishesAdded)
	if err := service.Accept(context.Background(), 42, "r1"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if delta := testutil.ToFloat64(metrics.WishesAdded) - before; delta != 1 {
		t.Fatalf("ожидали рост счётчика желаний на 1, получили %v", delta)
	}
}

func TestAcceptUnknownIDIsNoop(t *testing.T) {
	wishes := &stubWishRepo{}
	service := NewService(wishes, &stubCatalog{}, &stubTimeline{}, &stubMeta{})

	if err := service.Accept(context.Background(), 42, "нет-такого"); err != nil {
		t.Fatalf("неизвестный идентификатор не должен быть ошибкой: %v", err)
	}
	if len(wishes.wishes) != 0 {
		t.Fatalf("желание не должно добавляться")
	}
}

func TestSeedIdempotentByLink(t *testing.T) {
	catalog := &stubCatalog{}
	meta := &stubMeta{metas: map[string]*domain.PageMeta{
		"https://shop.example/1": {Title: "Лего Сити", Features: []string{"toys"}},
	}}
	service := NewService(&stubWishRepo{}, catalog, &stubTimeline{}, meta)

	first, err := service.Seed(context.Background(), "https://shop.example/1")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if first == nil {
		t.Fatalf("ожидали созданную запись")
	}
	if first.Content != "Лего Сити [▶️](https://shop.example/1)" {
		t.Fatalf("неверное содержимое: %q", first.Content)
	}

	second, err := service.Seed(context.Background(), "https://shop.example/1")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if second == nil || second.ID != first.ID {
		t.Fatalf("повторный вызов должен вернуть ту же запись")
	}
	if len(catalog.items) != 1 {
		t.Fatalf("ожидали одну запись в каталоге, получили %d", len(catalog.items))
	}
}

func TestSeedSkipsUnavailablePage(t *testing.T) {
	catalog := &stubCatalog{}
	service := NewService(&stubWishRepo{}, catalog, &stubTimeline{}, &stubMeta{})

	rec, err := service.Seed(context.Background(), "https://down.example/1")
	if err != nil {
		t.Fatalf("недоступная страница не должна быть ошибкой: %v", err)
	}
	if rec != nil {
		t.Fatalf("каталог не должен пополняться")
	}
	if len(catalog.items) != 0 {
		t.Fatalf("ожидали пустой каталог")
	}
}

func TestMarkShownAppendsToTimeline(t *testing.T) {
	timeline := &stubTimeline{}
	service := NewService(&stubWishRepo{}, &stubCatalog{}, timeline, &stubMeta{})

	if err := service.MarkShown(context.Background(), 42, "r1"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(timeline.shown) != 1 || timeline.shown[0] != "r1" {
		t.Fatalf("показ не зафиксирован: %v", timeline.shown)
	}
}
