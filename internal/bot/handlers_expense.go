package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"kopilka/internal/core"
	applog "kopilka/internal/log"
	"kopilka/internal/services"
)

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message, user core.User, _ string) {
	b.reply(ctx, msg.Chat.ID, msgWelcome+msgHelp)
}

func (b *Bot) handleHelp(ctx context.Context, msg *tgbotapi.Message, _ core.User, _ string) {
	b.reply(ctx, msg.Chat.ID, msgHelp)
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message, _ core.User, _ string) {
	b.reply(ctx, msg.Chat.ID, categoryList())
}

func (b *Bot) handleExpense(ctx context.Context, msg *tgbotapi.Message, user core.User, text string) {
	res, err := b.expenses.Record(ctx, user, text)
	if err != nil {
		b.replyError(ctx, msg.Chat.ID, err)
		return
	}
	e := res.Expense
	slog.InfoContext(ctx, "Expense recorded", applog.NewFields().
		WithChat(msg.Chat.ID, user.ID).
		WithExpense(e.ID, e.Amount.String(), e.Currency, e.Category, e.Confidence).
		ToSlice()...)

	reply := NewReply(msg.Chat.ID).ReplyTo(msg.MessageID)
	writeRecorded(reply, res)
	b.send(ctx, reply.Build())
}

func (b *Bot) handleFix(ctx context.Context, msg *tgbotapi.Message, user core.User, args string) {
	if args == "" {
		b.send(ctx, NewReply(msg.Chat.ID).Text(usageFix).CategoryKeyboard().Build())
		return
	}
	b.correct(ctx, msg.Chat.ID, user, args)
}

func (b *Bot) correct(ctx context.Context, chatID int64, user core.User, category string) string {
	e, err := b.expenses.Correct(ctx, user, category)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return ""
	}
	text := "✏️ Исправил: " + e.Description + " → " + e.Category + ". Запомню на будущее."
	b.reply(ctx, chatID, text)
	return e.Category
}

func (b *Bot) handleUndo(ctx context.Context, msg *tgbotapi.Message, user core.User, _ string) {
	e, err := b.expenses.Undo(ctx, user)
	if err != nil {
		b.replyError(ctx, msg.Chat.ID, err)
		return
	}
	b.reply(ctx, msg.Chat.ID, "🗑 Удалил: "+e.Description+", "+core.FormatMoney(e.Amount, e.Currency))
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message, user core.User, args string) {
	m, err := parseMonthArg(args, b.now().In(b.loc))
	if err != nil {
		b.reply(ctx, msg.Chat.ID, usageReport)
		return
	}
	scope := core.ScopeFor(user)
	ov, err := b.reports.Month(ctx, scope, m.Year, m.Month)
	if err != nil {
		b.replyError(ctx, msg.Chat.ID, err)
		return
	}
	reply := NewReply(msg.Chat.ID)
	writeReport(reply, ov, scope.IsGroup())
	b.send(ctx, reply.Build())
}

// handleCallback answers inline keyboard presses. Only category fixes are
// produced by this bot.
func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if q.From == nil || q.Message == nil || q.Message.Chat == nil {
		return
	}
	chatID := q.Message.Chat.ID
	if !b.admit(ctx, chatID) {
		b.answerCallback(ctx, q.ID, "")
		return
	}

	category, ok := strings.CutPrefix(q.Data, fixCallbackPrefix)
	if !ok {
		slog.WarnContext(ctx, "Unknown callback", "data", q.Data)
		b.answerCallback(ctx, q.ID, "")
		return
	}
	user, ok := b.registerUser(ctx, q.From, chatID)
	if !ok {
		b.answerCallback(ctx, q.ID, "")
		return
	}
	fixed := b.correct(ctx, chatID, user, category)
	if fixed != "" {
		b.answerCallback(ctx, q.ID, "Категория: "+fixed)
		return
	}
	b.answerCallback(ctx, q.ID, "")
}

func (b *Bot) answerCallback(ctx context.Context, id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		slog.WarnContext(ctx, "Failed to answer callback", "error", err)
	}
}

// replyError turns a service error into a user-facing message. Unexpected
// errors are logged and answered generically.
func (b *Bot) replyError(ctx context.Context, chatID int64, err error) {
	var text string
	switch {
	case errors.Is(err, services.ErrAmountNotFound):
		text = msgAmountNotFound
	case errors.Is(err, services.ErrNoExpense):
		text = msgNoExpense
	case errors.Is(err, services.ErrUnknownCategory):
		text = "Неизвестная категория. " + categoryList()
	case errors.Is(err, services.ErrInvalidAmount):
		text = "Сумма должна быть больше нуля."
	case errors.Is(err, services.ErrNoBudget):
		text = "Такого бюджета нет. Список: /budgets"
	case errors.Is(err, services.ErrNoReminder):
		text = "Напоминание не найдено. Список: /reminders"
	case errors.Is(err, services.ErrAlreadyInGroup):
		text = msgAlreadyInGroup
	case errors.Is(err, services.ErrNotInGroup):
		text = msgNotInGroup
	case errors.Is(err, services.ErrInvalidInvite):
		text = msgInvalidInvite
	case errors.Is(err, services.ErrInvalidGroupName):
		text = "Название группы должно быть от 1 до 64 символов."
	case errors.Is(err, core.ErrInvalidRepeat):
		text = usageRemind
	case errors.Is(err, core.ErrInvalidHour):
		text = "Час должен быть от 0 до 23."
	case errors.Is(err, core.ErrEmptyDescription):
		text = "Текст не может быть пустым."
	case errors.Is(err, core.ErrInvalidMonth):
		text = usageReport
	default:
		slog.ErrorContext(ctx, "Request failed", applog.FieldChatID, chatID, applog.FieldError, err)
		text = msgInternalError
	}
	b.reply(ctx, chatID, text)
}
