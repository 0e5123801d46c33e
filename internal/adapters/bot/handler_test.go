package bot

import (
	"testing"

	"present-bag/internal/domain"
)

func TestSharePayloadRoundTrip(t *testing.T) {
	payload := EncodeSharePayload(987654321)
	chatID, err := ParseSharePayload(payload)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if chatID != 987654321 {
		t.Fatalf("ожидали 987654321, получили %d", chatID)
	}
}

func TestSharePayloadNegativeChat(t *testing.T) {
	payload := EncodeSharePayload(-100200300)
	chatID, err := ParseSharePayload(payload)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if chatID != -100200300 {
		t.Fatalf("ожидали -100200300, получили %d", chatID)
	}
}

func TestSharePayloadGarbage(t *testing.T) {
	if _, err := ParseSharePayload("не-base64"); err == nil {
		t.Fatalf("ожидали ошибку для повреждённой ссылки")
	}
}

func TestViewKeyboardMiddlePage(t *testing.T) {
	page := domain.Page{Index: 1, HasPrev: true, HasNext: true}
	markup := ViewKeyboard(page)
	if len(markup.InlineKeyboard) != 2 {
		t.Fatalf("ожидали 2 ряда, получили %d", len(markup.InlineKeyboard))
	}
	nav := markup.InlineKeyboard[0]
	if len(nav) != 2 {
		t.Fatalf("ожидали 2 кнопки навигации, получили %d", len(nav))
	}
	if *nav[0].CallbackData != "view:0" || *nav[1].CallbackData != "view:2" {
		t.Fatalf("неверные переходы: %s, %s", *nav[0].CallbackData, *nav[1].CallbackData)
	}
	if *markup.InlineKeyboard[1][0].CallbackData != "delete:1" {
		t.Fatalf("кнопка удаления должна помнить страницу")
	}
}

func TestViewKeyboardSinglePage(t *testing.T) {
	markup := ViewKeyboard(domain.Page{})
	if len(markup.InlineKeyboard) != 1 {
		t.Fatalf("без навигации остаётся только ряд удаления, получили %d рядов", len(markup.InlineKeyboard))
	}
}

func TestDeleteKeyboardGlobalIndexes(t *testing.T) {
	page := domain.Page{
		Items: []domain.Wish{{ID: 6}, {ID: 7}},
		Index: 1,
	}
	markup := DeleteKeyboard(page, 5, 5)
	if len(markup.InlineKeyboard) != 2 {
		t.Fatalf("ожидали ряд номеров и ряд отмены, получили %d", len(markup.InlineKeyboard))
	}
	numbers := markup.InlineKeyboard[0]
	if numbers[0].Text != "6" || *numbers[0].CallbackData != "delete_wish:5" {
		t.Fatalf("первая кнопка должна быть 6 → delete_wish:5, получили %s → %s", numbers[0].Text, *numbers[0].CallbackData)
	}
	if numbers[1].Text != "7" || *numbers[1].CallbackData != "delete_wish:6" {
		t.Fatalf("вторая кнопка должна быть 7 → delete_wish:6")
	}
	cancel := markup.InlineKeyboard[1][0]
	if *cancel.CallbackData != "view:1" {
		t.Fatalf("отмена должна вернуть на ту же страницу, получили %s", *cancel.CallbackData)
	}
}

func TestDeleteKeyboardRowWrap(t *testing.T) {
	page := domain.Page{
		Items: []domain.Wish{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 5}},
	}
	markup := DeleteKeyboard(page, 5, 3)
	if len(markup.InlineKeyboard) != 3 {
		t.Fatalf("ожидали 2 ряда номеров и ряд отмены, получили %d", len(markup.InlineKeyboard))
	}
	if len(markup.InlineKeyboard[0]) != 3 || len(markup.InlineKeyboard[1]) != 2 {
		t.Fatalf("номера должны переноситься по %d в ряд", 3)
	}
}

func TestForeignKeyboard(t *testing.T) {
	page := domain.Page{Index: 0, HasNext: true}
	markup := ForeignKeyboard(555, page)
	if markup == nil {
		t.Fatalf("ожидали клавиатуру навигации")
	}
	if *markup.InlineKeyboard[0][0].CallbackData != "foreign:555:1" {
		t.Fatalf("неверный переход: %s", *markup.InlineKeyboard[0][0].CallbackData)
	}
	if ForeignKeyboard(555, domain.Page{}) != nil {
		t.Fatalf("одностраничный список не требует навигации")
	}
}

func TestParseForeign(t *testing.T) {
	ownerChatID, pageIndex, err := parseForeign("foreign:123:2")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if ownerChatID != 123 || pageIndex != 2 {
		t.Fatalf("получили %d и %d", ownerChatID, pageIndex)
	}
	if _, _, err := parseForeign("foreign:123"); err == nil {
		t.Fatalf("ожидали ошибку для неполного callback")
	}
}
