package bot

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"kopilka/internal/core"
)

func (b *Bot) handleRemind(ctx context.Context, msg *tgbotapi.Message, user core.User, args string) {
	ra, err := parseReminderArgs(args)
	if errors.Is(err, errUsage) {
		b.reply(ctx, msg.Chat.ID, usageRemind)
		return
	}
	if err != nil {
		b.replyError(ctx, msg.Chat.ID, err)
		return
	}
	r, err := b.reminders.Create(ctx, user, ra.Every, ra.Hour, ra.Text)
	if err != nil {
		b.replyError(ctx, msg.Chat.ID, err)
		return
	}
	b.reply(ctx, msg.Chat.ID, "⏰ Напоминание создано: "+formatReminder(r))
}

func (b *Bot) handleReminderList(ctx context.Context, msg *tgbotapi.Message, user core.User, _ string) {
	reminders, err := b.reminders.List(ctx, user)
	if err != nil {
		b.replyError(ctx, msg.Chat.ID, err)
		return
	}
	if len(reminders) == 0 {
		b.reply(ctx, msg.Chat.ID, msgNoReminders)
		return
	}
	reply := NewReply(msg.Chat.ID)
	writeReminders(reply, reminders)
	b.send(ctx, reply.Build())
}

func (b *Bot) handleReminderRemove(ctx context.Context, msg *tgbotapi.Message, user core.User, args string) {
	id, err := parseID(args)
	if err != nil {
		b.reply(ctx, msg.Chat.ID, usageRemindRm)
		return
	}
	if err := b.reminders.Remove(ctx, user, id); err != nil {
		b.replyError(ctx, msg.Chat.ID, err)
		return
	}
	b.reply(ctx, msg.Chat.ID, "Напоминание удалено.")
}
