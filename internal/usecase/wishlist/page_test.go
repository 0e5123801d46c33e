package wishlist

import (
	"testing"

	"present-bag/internal/domain"
)

func makeWishes(n int) []domain.Wish {
	wishes := make([]domain.Wish, 0, n)
	for i := 0; i < n; i++ {
		wishes = append(wishes, domain.Wish{ID: int64(i + 1), ChatID: 42})
	}
	return wishes
}

func TestWindowFirstPage(t *testing.T) {
	page := Window(makeWishes(7), 0, 5)
	if len(page.Items) != 5 {
		t.Fatalf("ожидали 5 элементов, получили %d", len(page.Items))
	}
	if page.HasPrev {
		t.Fatalf("на первой странице не должно быть кнопки назад")
	}
	if !page.HasNext {
		t.Fatalf("ожидали продолжение списка")
	}
}

func TestWindowClampsToLastPage(t *testing.T) {
	page := Window(makeWishes(7), 3, 5)
	if page.Index != 1 {
		t.Fatalf("ожидали индекс 1, получили %d", page.Index)
	}
	if len(page.Items) != 2 {
		t.Fatalf("ожидали 2 элемента, получили %d", len(page.Items))
	}
	if page.Items[0].ID != 6 {
		t.Fatalf("ожидали элемент с ID 6, получили %d", page.Items[0].ID)
	}
	if !page.HasPrev {
		t.Fatalf("ожидали кнопку назад")
	}
	if page.HasNext {
		t.Fatalf("последняя страница не должна иметь продолжения")
	}
}

func TestWindowExactPageBoundary(t *testing.T) {
	page := Window(makeWishes(10), 1, 5)
	if page.Index != 1 {
		t.Fatalf("ожидали индекс 1, получили %d", page.Index)
	}
	if len(page.Items) != 5 {
		t.Fatalf("ожидали 5 элементов, получили %d", len(page.Items))
	}
	if page.HasNext {
		t.Fatalf("ровно две страницы, продолжения нет")
	}
}

func TestWindowNegativeIndexClampsToFirstPage(t *testing.T) {
	page := Window(makeWishes(7), -1, 5)
	if page.Index != 0 {
		t.Fatalf("ожидали индекс 0, получили %d", page.Index)
	}
	if len(page.Items) != 5 {
		t.Fatalf("ожидали 5 элементов, получили %d", len(page.Items))
	}
	if page.Items[0].ID != 1 {
		t.Fatalf("ожидали элемент с ID 1, получили %d", page.Items[0].ID)
	}
	if page.HasPrev {
		t.Fatalf("на первой странице не должно быть кнопки назад")
	}
	if !page.HasNext {
		t.Fatalf("ожидали продолжение списка")
	}
}

func TestWindowEmptyList(t *testing.T) {
	page := Window(nil, 2, 5)
	if len(page.Items) != 0 {
		t.Fatalf("пустой список даёт пустое окно")
	}
	if page.Index != 2 {
		t.Fatalf("индекс пустого окна не пересчитывается, получили %d", page.Index)
	}
	if page.HasPrev || page.HasNext {
		t.Fatalf("у пустого окна нет навигации")
	}
}

func TestWindowNeverExceedsPageSize(t *testing.T) {
	for n := 0; n <= 17; n++ {
		for idx := -2; idx <= 5; idx++ {
			page := Window(makeWishes(n), idx, 5)
			if len(page.Items) > 5 {
				t.Fatalf("n=%d idx=%d: окно больше страницы: %d", n, idx, len(page.Items))
			}
		}
	}
}
