package wishlist

import "present-bag/internal/domain"

// Window вычисляет стабильное окно страницы над полным списком желаний.
// Запрошенный индекс прижимается к диапазону валидных страниц: отрицательный
// к нулю, указывающий за конец списка — к последней странице, так ссылка на
// страницу остаётся рабочей после того, как элементы удалили у неё из-под
// ног. Пустой список возвращает пустое окно с исходным индексом —
// вызывающая сторона трактует его как «желаний нет».
func Window(items []domain.Wish, pageIndex, pageSize int) domain.Page {
	if len(items) == 0 {
		return domain.Page{Index: pageIndex}
	}
	if pageIndex < 0 {
		pageIndex = 0
	}
	if pageIndex > 0 && len(items) >= pageSize && len(items) <= pageIndex*pageSize {
		pageIndex = (len(items)+pageSize-1)/pageSize - 1
	}
	start := pageIndex * pageSize
	end := start + pageSize
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	return domain.Page{
		Items:   items[start:end],
		Index:   pageIndex,
		HasPrev: pageIndex > 0,
		HasNext: len(items) > (pageIndex+1)*pageSize,
	}
}
