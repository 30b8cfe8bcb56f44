package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"kopilka/internal/core"
)

// handleBudgetSet parses "<category> <amount>[currency]" with the expense
// line parser, so the category plays the part of the description.
func (b *Bot) handleBudgetSet(ctx context.Context, msg *tgbotapi.Message, user core.User, args string) {
	parsed, ok := b.parser.Parse(args)
	if !ok || parsed.Description == core.NoDescription {
		b.reply(ctx, msg.Chat.ID, usageBudget)
		return
	}
	budget, err := b.budgets.Set(ctx, core.ScopeFor(user), parsed.Description, parsed.Amount, parsed.Currency)
	if err != nil {
		b.replyError(ctx, msg.Chat.ID, err)
		return
	}
	b.reply(ctx, msg.Chat.ID, "💰 Бюджет «"+budget.Category+"»: "+core.FormatMoney(budget.Limit, budget.Currency)+" в месяц")
}

func (b *Bot) handleBudgetList(ctx context.Context, msg *tgbotapi.Message, user core.User, _ string) {
	statuses, err := b.budgets.List(ctx, core.ScopeFor(user))
	if err != nil {
		b.replyError(ctx, msg.Chat.ID, err)
		return
	}
	if len(statuses) == 0 {
		b.reply(ctx, msg.Chat.ID, msgNoBudgets)
		return
	}
	reply := NewReply(msg.Chat.ID)
	writeBudgets(reply, statuses)
	b.send(ctx, reply.Build())
}

func (b *Bot) handleBudgetRemove(ctx context.Context, msg *tgbotapi.Message, user core.User, args string) {
	if strings.TrimSpace(args) == "" {
		b.reply(ctx, msg.Chat.ID, usageBudgetRm)
		return
	}
	if err := b.budgets.Remove(ctx, core.ScopeFor(user), args); err != nil {
		b.replyError(ctx, msg.Chat.ID, err)
		return
	}
	b.reply(ctx, msg.Chat.ID, "Бюджет удалён.")
}
