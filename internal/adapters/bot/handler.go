package bot

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"present-bag/internal/adapters/telegram"
	"present-bag/internal/domain"
	"present-bag/internal/infra/metrics"
	"present-bag/internal/usecase/recommend"
	"present-bag/internal/usecase/render"
	"present-bag/internal/usecase/wishlist"
)

// Handler обслуживает вебхук бота.
type Handler struct {
	bot              *tgbotapi.BotAPI
	log              zerolog.Logger
	wishlistUC       *wishlist.Service
	recommendUC      *recommend.Service
	users            domain.UserRepo
	botURL           string
	enrichment       bool
	deleteRowButtons int
}

// NewHandler создаёт обработчик.
func NewHandler(bot *tgbotapi.BotAPI, log zerolog.Logger, wishlistUC *wishlist.Service, recommendUC *recommend.Service, users domain.UserRepo, botURL string, enrichment bool, deleteRowButtons int) *Handler {
	return &Handler{
		bot:              bot,
		log:              log,
		wishlistUC:       wishlistUC,
		recommendUC:      recommendUC,
		users:            users,
		botURL:           botURL,
		enrichment:       enrichment,
		deleteRowButtons: deleteRowButtons,
	}
}

// HandleUpdate обрабатывает входящий апдейт.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		h.handleMessage(ctx, upd.Message)
	} else if upd.CallbackQuery != nil {
		h.handleCallback(ctx, upd.CallbackQuery)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	switch {
	case strings.HasPrefix(text, "/start"):
		payload := strings.TrimSpace(strings.TrimPrefix(text, "/start"))
		h.handleStart(ctx, msg, payload)
	case strings.HasPrefix(text, "/help"):
		h.reply(msg.Chat.ID, h.buildHelpMessage(), h.mainKeyboard())
	case strings.HasPrefix(text, "/list"):
		h.handleList(ctx, msg.Chat.ID, 0)
	case strings.HasPrefix(text, "/share"):
		h.handleShare(msg.Chat.ID)
	case strings.HasPrefix(text, "/recommend"):
		h.handleRecommend(ctx, msg.Chat.ID)
	case strings.HasPrefix(text, "/"):
		h.reply(msg.Chat.ID, "Неизвестная команда. Используйте /help", nil)
	case text == "":
		h.reply(msg.Chat.ID, "Пришлите текст желания", nil)
	default:
		h.handleAddWish(ctx, msg.Chat.ID, text)
	}
}

func (h *Handler) handleStart(ctx context.Context, msg *tgbotapi.Message, payload string) {
	if payload != "" {
		ownerChatID, err := ParseSharePayload(payload)
		if err != nil {
			h.reply(msg.Chat.ID, "Ссылка на список повреждена", nil)
			return
		}
		h.handleForeignList(ctx, msg.Chat.ID, ownerChatID, 0)
		return
	}

	if msg.From == nil {
		h.reply(msg.Chat.ID, "Не удалось определить пользователя", nil)
		return
	}
	profile := domain.TelegramProfile{
		ChatID:       msg.Chat.ID,
		TGUserID:     msg.From.ID,
		Username:     msg.From.UserName,
		FirstName:    msg.From.FirstName,
		LastName:     msg.From.LastName,
		LanguageCode: msg.From.LanguageCode,
		IsBot:        msg.From.IsBot,
	}
	if _, err := h.users.CreateIfAbsent(profile); err != nil {
		h.reply(msg.Chat.ID, fmt.Sprintf("Ошибка сохранения профиля: %v", err), nil)
		return
	}
	h.reply(msg.Chat.ID, h.buildStartMessage(), h.mainKeyboard())
}

func (h *Handler) handleAddWish(ctx context.Context, chatID int64, text string) {
	wish, err := h.wishlistUC.Add(ctx, chatID, text, h.enrichment)
	if err != nil {
		h.log.Error().Err(err).Int64("chat", chatID).Msg("не удалось добавить желание")
		h.reply(chatID, "Не удалось сохранить желание. Попробуйте позже", nil)
		return
	}
	h.reply(chatID, fmt.Sprintf("Добавлено: %s", wish.Content), h.mainKeyboard())
}

func (h *Handler) handleList(ctx context.Context, chatID int64, pageIndex int) {
	page, err := h.wishlistUC.Page(ctx, chatID, pageIndex)
	if err != nil {
		h.log.Error().Err(err).Int64("chat", chatID).Msg("не удалось получить список желаний")
		h.reply(chatID, "Не удалось получить список. Попробуйте позже", nil)
		return
	}
	if len(page.Items) == 0 {
		h.reply(chatID, render.Wishlist(page, h.wishlistUC.PageSize()), nil)
		return
	}
	h.reply(chatID, render.Wishlist(page, h.wishlistUC.PageSize()), ViewKeyboard(page))
}

func (h *Handler) handleForeignList(ctx context.Context, chatID, ownerChatID int64, pageIndex int) {
	var (
		page  domain.Page
		owner *domain.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		page, err = h.wishlistUC.Page(gctx, ownerChatID, pageIndex)
		return err
	})
	g.Go(func() error {
		var err error
		owner, err = h.users.GetByChat(ownerChatID)
		return err
	})
	if err := g.Wait(); err != nil {
		h.log.Error().Err(err).Int64("owner", ownerChatID).Msg("не удалось получить чужой список")
		h.reply(chatID, "Не удалось открыть список. Попробуйте позже", nil)
		return
	}

	ownerName := ""
	if owner != nil {
		ownerName = strings.TrimSpace(owner.FirstName + " " + owner.LastName)
		if ownerName == "" {
			ownerName = owner.Username
		}
	}
	text := render.ForeignWishlist(page, h.wishlistUC.PageSize(), ownerName)
	if len(page.Items) == 0 {
		h.reply(chatID, text, nil)
		return
	}
	h.reply(chatID, text, ForeignKeyboard(ownerChatID, page))
}

func (h *Handler) handleShare(chatID int64) {
	link := fmt.Sprintf("%s?start=%s", h.botURL, EncodeSharePayload(chatID))
	h.reply(chatID, fmt.Sprintf("Поделитесь ссылкой на свой список желаний:\n%s", link), nil)
}

func (h *Handler) handleRecommend(ctx context.Context, chatID int64) {
	metrics.IncRecommendationForUser(chatID)
	rec, err := h.recommendUC.Pick(ctx, chatID)
	if errors.Is(err, recommend.ErrNoRecommendation) {
		h.reply(chatID, "Пока нечего порекомендовать. Добавьте желания со ссылками на товары", nil)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int64("chat", chatID).Msg("не удалось подобрать рекомендацию")
		h.reply(chatID, "Не удалось подобрать рекомендацию. Попробуйте позже", nil)
		return
	}
	if err := h.recommendUC.MarkShown(ctx, chatID, rec.ID); err != nil {
		h.log.Error().Err(err).Int64("chat", chatID).Msg("не удалось записать показ рекомендации")
	}
	h.reply(chatID, render.Recommendation(rec), AcceptKeyboard(rec.ID))
}

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	switch {
	case data == "list":
		h.handleList(ctx, cb.Message.Chat.ID, 0)
	case data == "recommend":
		h.handleRecommend(ctx, cb.Message.Chat.ID)
	case data == "share":
		h.handleShare(cb.Message.Chat.ID)
	case data == "help_menu":
		h.reply(cb.Message.Chat.ID, h.buildHelpMessage(), h.mainKeyboard())
	case strings.HasPrefix(data, "view:"):
		h.handleList(ctx, cb.Message.Chat.ID, parsePage(data))
	case strings.HasPrefix(data, "delete:"):
		h.handleDeleteMode(ctx, cb.Message.Chat.ID, parsePage(data))
	case strings.HasPrefix(data, "delete_wish:"):
		h.handleDeleteWish(ctx, cb.Message.Chat.ID, parsePage(data))
	case strings.HasPrefix(data, "accept:"):
		h.handleAccept(ctx, cb.Message.Chat.ID, strings.TrimPrefix(data, "accept:"))
	case strings.HasPrefix(data, "foreign:"):
		ownerChatID, pageIndex, err := parseForeign(data)
		if err != nil {
			h.reply(cb.Message.Chat.ID, "Ссылка на список повреждена", nil)
			break
		}
		h.handleForeignList(ctx, cb.Message.Chat.ID, ownerChatID, pageIndex)
	}
	start := time.Now()
	_, err := h.bot.Request(tgbotapi.NewCallback(cb.ID, ""))
	metrics.ObserveNetworkRequest("telegram_bot", "answer_callback", strconv.FormatInt(cb.From.ID, 10), start, err)
	if err != nil {
		h.log.Error().Err(err).Msg("не удалось ответить на callback")
	}
}

func (h *Handler) handleDeleteMode(ctx context.Context, chatID int64, pageIndex int) {
	page, err := h.wishlistUC.Page(ctx, chatID, pageIndex)
	if err != nil {
		h.log.Error().Err(err).Int64("chat", chatID).Msg("не удалось получить список желаний")
		h.reply(chatID, "Не удалось получить список. Попробуйте позже", nil)
		return
	}
	if len(page.Items) == 0 {
		h.reply(chatID, render.Wishlist(page, h.wishlistUC.PageSize()), nil)
		return
	}
	text := render.Wishlist(page, h.wishlistUC.PageSize()) + "\n\nКакое желание удалить?"
	h.reply(chatID, text, DeleteKeyboard(page, h.wishlistUC.PageSize(), h.deleteRowButtons))
}

func (h *Handler) handleDeleteWish(ctx context.Context, chatID int64, targetIndex int) {
	pageIndex := 0
	if h.wishlistUC.PageSize() > 0 {
		pageIndex = targetIndex / h.wishlistUC.PageSize()
	}
	page, err := h.wishlistUC.DeleteAt(ctx, chatID, pageIndex, targetIndex)
	if err != nil {
		h.log.Error().Err(err).Int64("chat", chatID).Msg("не удалось удалить желание")
		h.reply(chatID, "Не удалось удалить желание. Попробуйте позже", nil)
		return
	}
	if len(page.Items) == 0 {
		h.reply(chatID, render.Wishlist(page, h.wishlistUC.PageSize()), nil)
		return
	}
	h.reply(chatID, render.Wishlist(page, h.wishlistUC.PageSize()), ViewKeyboard(page))
}

func (h *Handler) handleAccept(ctx context.Context, chatID int64, recommendationID string) {
	if err := h.recommendUC.Accept(ctx, chatID, recommendationID); err != nil {
		h.log.Error().Err(err).Int64("chat", chatID).Msg("не удалось принять рекомендацию")
		h.reply(chatID, "Не удалось добавить желание. Попробуйте позже", nil)
		return
	}
	h.reply(chatID, "Добавлено в ваш список желаний 🎁", h.mainKeyboard())
}

func (h *Handler) reply(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	parts := telegram.SplitMessage(text)
	for i, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		if i == len(parts)-1 && keyboard != nil {
			msg.ReplyMarkup = keyboard
		}
		start := time.Now()
		_, err := h.bot.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", strconv.FormatInt(chatID, 10), start, err)
		if err != nil {
			h.log.Error().Err(err).Msg("не удалось отправить сообщение")
			return
		}
	}
}

func (h *Handler) mainKeyboard() *tgbotapi.InlineKeyboardMarkup {
	buttons := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎁 Мои желания", "list"),
			tgbotapi.NewInlineKeyboardButtonData("💡 Рекомендация", "recommend"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔗 Поделиться", "share"),
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ Помощь", "help_menu"),
		),
	)
	return &buttons
}

func (h *Handler) buildStartMessage() string {
	return strings.Join([]string{
		"Привет! Я храню ваш список желаний 🎁",
		"",
		"Пришлите сообщение с желанием, и я добавлю его в список.",
		"Ссылки на товары я дополню названием страницы.",
		"",
		"/list — посмотреть список",
		"/share — поделиться списком с друзьями",
		"/recommend — получить рекомендацию подарка",
	}, "\n")
}

func (h *Handler) buildHelpMessage() string {
	return strings.Join([]string{
		"Как пользоваться ботом:",
		"",
		"• Пришлите текст — я сохраню его как желание.",
		"• /list — список желаний со страницами.",
		"• /share — ссылка, по которой друзья увидят ваш список.",
		"• /recommend — подберу подарок по вашим интересам.",
	}, "\n")
}

// ViewKeyboard строит клавиатуру просмотра страницы: навигация и переход
// в режим удаления.
func ViewKeyboard(page domain.Page) *tgbotapi.InlineKeyboardMarkup {
	var nav []tgbotapi.InlineKeyboardButton
	if page.HasPrev {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️", fmt.Sprintf("view:%d", page.Index-1)))
	}
	if page.HasNext {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("➡️", fmt.Sprintf("view:%d", page.Index+1)))
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, 2)
	if len(nav) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(nav...))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить", fmt.Sprintf("delete:%d", page.Index)),
	))
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

// DeleteKeyboard строит клавиатуру режима удаления: кнопки со сквозными
// номерами желаний текущей страницы и возврат к просмотру.
func DeleteKeyboard(page domain.Page, pageSize, rowButtons int) *tgbotapi.InlineKeyboardMarkup {
	if rowButtons <= 0 {
		rowButtons = len(page.Items)
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for i := range page.Items {
		globalIndex := page.Index*pageSize + i
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			strconv.Itoa(globalIndex+1),
			fmt.Sprintf("delete_wish:%d", globalIndex),
		))
		if len(row) == rowButtons {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Отмена", fmt.Sprintf("view:%d", page.Index)),
	))
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

// ForeignKeyboard строит навигацию по чужому списку желаний.
func ForeignKeyboard(ownerChatID int64, page domain.Page) *tgbotapi.InlineKeyboardMarkup {
	var nav []tgbotapi.InlineKeyboardButton
	if page.HasPrev {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️", fmt.Sprintf("foreign:%d:%d", ownerChatID, page.Index-1)))
	}
	if page.HasNext {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("➡️", fmt.Sprintf("foreign:%d:%d", ownerChatID, page.Index+1)))
	}
	if len(nav) == 0 {
		return nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(nav...))
	return &markup
}

// AcceptKeyboard строит кнопку принятия рекомендации в список желаний.
func AcceptKeyboard(recommendationID string) *tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("➕ В мой список", "accept:"+recommendationID),
	))
	return &markup
}

// EncodeSharePayload кодирует идентификатор чата для deep-link /start.
func EncodeSharePayload(chatID int64) string {
	return base64.URLEncoding.EncodeToString([]byte(url.QueryEscape(strconv.FormatInt(chatID, 10))))
}

// ParseSharePayload разбирает полезную нагрузку deep-link /start.
func ParseSharePayload(payload string) (int64, error) {
	raw, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		return 0, fmt.Errorf("декодирование ссылки: %w", err)
	}
	unescaped, err := url.QueryUnescape(string(raw))
	if err != nil {
		return 0, fmt.Errorf("декодирование ссылки: %w", err)
	}
	chatID, err := strconv.ParseInt(unescaped, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("разбор идентификатора чата: %w", err)
	}
	return chatID, nil
}

func parsePage(data string) int {
	parts := strings.Split(data, ":")
	if len(parts) != 2 {
		return 0
	}
	page, _ := strconv.Atoi(parts[1])
	return page
}

func parseForeign(data string) (int64, int, error) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 {
		return 0, 0, errors.New("неверный формат callback")
	}
	ownerChatID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("разбор идентификатора чата: %w", err)
	}
	pageIndex, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, fmt.Errorf("разбор номера страницы: %w", err)
	}
	return ownerChatID, pageIndex, nil
}
