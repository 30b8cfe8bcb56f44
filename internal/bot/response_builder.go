package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"kopilka/internal/core"
	"kopilka/internal/services"
)

// fixCallbackPrefix marks inline keyboard callbacks that correct the
// category of the last expense.
const fixCallbackPrefix = "fix:"

// ReplyBuilder assembles an outgoing message line by line.
type ReplyBuilder struct {
	chatID   int64
	lines    []string
	keyboard *tgbotapi.InlineKeyboardMarkup
	replyTo  int
}

func NewReply(chatID int64) *ReplyBuilder {
	return &ReplyBuilder{chatID: chatID}
}

// Text appends one or more lines.
func (b *ReplyBuilder) Text(lines ...string) *ReplyBuilder {
	b.lines = append(b.lines, lines...)
	return b
}

// Textf appends a formatted line.
func (b *ReplyBuilder) Textf(format string, args ...any) *ReplyBuilder {
	return b.Text(fmt.Sprintf(format, args...))
}

// Blank appends an empty line unless the message is empty.
func (b *ReplyBuilder) Blank() *ReplyBuilder {
	if len(b.lines) > 0 {
		b.lines = append(b.lines, "")
	}
	return b
}

func (b *ReplyBuilder) ReplyTo(messageID int) *ReplyBuilder {
	b.replyTo = messageID
	return b
}

// CategoryKeyboard attaches one button per category. Pressing one corrects
// the last expense.
func (b *ReplyBuilder) CategoryKeyboard() *ReplyBuilder {
	cats := core.Categories()
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(cats); i += 3 {
		end := min(i+3, len(cats))
		var row []tgbotapi.InlineKeyboardButton
		for _, c := range cats[i:end] {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(c, fixCallbackPrefix+c))
		}
		rows = append(rows, row)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.keyboard = &kb
	return b
}

func (b *ReplyBuilder) String() string {
	return strings.Join(b.lines, "\n")
}

func (b *ReplyBuilder) Build() tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(b.chatID, b.String())
	if b.keyboard != nil {
		msg.ReplyMarkup = *b.keyboard
	}
	if b.replyTo != 0 {
		msg.ReplyToMessageID = b.replyTo
	}
	return msg
}

func writeRecorded(b *ReplyBuilder, res services.RecordResult) {
	e := res.Expense
	b.Textf("✅ Записал: %s, %s", e.Description, core.FormatMoney(e.Amount, e.Currency))
	b.Textf("Категория: %s", e.Category)
	if res.LowConfidence {
		b.Blank().Textf("⚠️ Не уверен в категории (%.0f%%). Если ошибся, выберите верную или отправьте /fix <категория>.", e.Confidence*100)
		b.CategoryKeyboard()
	}
	if res.BudgetAlert != nil {
		b.Blank().Text(formatBudgetAlert(*res.BudgetAlert))
	}
}

func formatBudgetAlert(a services.BudgetAlert) string {
	spent := core.FormatMoney(a.Spent, a.Budget.Currency)
	limit := core.FormatMoney(a.Budget.Limit, a.Budget.Currency)
	if a.Level == services.AlertExceeded {
		return fmt.Sprintf("🚨 Бюджет «%s» превышен: %s из %s (%d%%)", a.Budget.Category, spent, limit, a.Percent())
	}
	return fmt.Sprintf("⚠️ Бюджет «%s» почти исчерпан: %s из %s (%d%%)", a.Budget.Category, spent, limit, a.Percent())
}

func writeReport(b *ReplyBuilder, ov core.MonthOverview, group bool) {
	title := "📊 Расходы за"
	if group {
		title = "📊 Расходы группы за"
	}
	b.Textf("%s %04d-%02d", title, ov.Year, ov.Month)
	if ov.Count == 0 {
		b.Text("Расходов нет.")
		return
	}
	for _, cur := range ov.Currencies() {
		b.Textf("Всего: %s", core.FormatMoney(ov.Totals[cur], cur))
	}
	b.Textf("Записей: %d", ov.Count)
	b.Blank()
	for _, c := range ov.ByCategory {
		b.Textf("• %s: %s (%d)", c.Category, core.FormatMoney(c.Amount, c.Currency), c.Count)
	}
}

func writeBudgets(b *ReplyBuilder, statuses []services.BudgetStatus) {
	b.Text("💰 Бюджеты на месяц:")
	for _, s := range statuses {
		mark := "🟢"
		switch s.Level() {
		case services.AlertWarning:
			mark = "🟡"
		case services.AlertExceeded:
			mark = "🔴"
		}
		b.Textf("%s %s: %s из %s (%d%%)", mark, s.Budget.Category,
			core.FormatMoney(s.Spent, s.Budget.Currency),
			core.FormatMoney(s.Budget.Limit, s.Budget.Currency),
			s.Percent())
	}
}

var repetitionNames = map[core.RepetitionTypes]string{
	core.Daily:   "каждый день",
	core.Weekly:  "каждую неделю",
	core.Monthly: "каждый месяц",
	core.Yearly:  "каждый год",
}

func formatReminder(r core.Reminder) string {
	return fmt.Sprintf("#%d %s в %02d:00: %s", r.ID, repetitionNames[r.Every], r.Hour, r.Text)
}

func writeReminders(b *ReplyBuilder, reminders []core.Reminder) {
	b.Text("⏰ Напоминания:")
	for _, r := range reminders {
		b.Text(formatReminder(r))
	}
	b.Blank().Text("Удалить: /remind_rm <номер>")
}

func writeGroup(b *ReplyBuilder, g core.Group, members []core.User) {
	b.Textf("👥 Группа «%s»", g.Name)
	b.Textf("Код приглашения: %s", g.InviteCode)
	b.Blank().Text("Участники:")
	for _, m := range members {
		suffix := ""
		if m.ID == g.OwnerID {
			suffix = " (создатель)"
		}
		b.Textf("• %s%s", m.Name, suffix)
	}
}

func categoryList() string {
	return "Категории: " + strings.Join(core.Categories(), ", ")
}
