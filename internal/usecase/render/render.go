package render

import (
	"fmt"
	"strings"

	"present-bag/internal/domain"
)

// Wishlist формирует текст страницы списка желаний для отправки пользователю.
// Нумерация сквозная по всему списку, а не по странице, чтобы номер желания
// не менялся при листании.
func Wishlist(page domain.Page, pageSize int) string {
	if len(page.Items) == 0 {
		return "Список желаний пуст. Пришлите сообщение с желанием, чтобы добавить его."
	}
	var builder strings.Builder
	builder.WriteString("🎁 Ваши желания:\n")
	for i, wish := range page.Items {
		ordinal := page.Index*pageSize + i + 1
		builder.WriteString(fmt.Sprintf("\n%d. %s", ordinal, wish.Content))
	}
	return builder.String()
}

// ForeignWishlist формирует страницу чужого списка по ссылке /share.
func ForeignWishlist(page domain.Page, pageSize int, owner string) string {
	if len(page.Items) == 0 {
		return "В этом списке пока нет желаний."
	}
	title := "🎁 Желания"
	if owner != "" {
		title = fmt.Sprintf("🎁 Желания %s", owner)
	}
	var builder strings.Builder
	builder.WriteString(title + ":\n")
	for i, wish := range page.Items {
		ordinal := page.Index*pageSize + i + 1
		builder.WriteString(fmt.Sprintf("\n%d. %s", ordinal, wish.Content))
	}
	return builder.String()
}

// Recommendation формирует текст карточки рекомендации.
func Recommendation(rec domain.Recommendation) string {
	return "💡 Возможно, вам понравится:\n\n" + rec.Content
}
