package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"kopilka/internal/core"
)

func (b *Bot) handleGroupNew(ctx context.Context, msg *tgbotapi.Message, user core.User, args string) {
	if args == "" {
		b.reply(ctx, msg.Chat.ID, usageGroupNew)
		return
	}
	g, err := b.groups.Create(ctx, user, args)
	if err != nil {
		b.replyError(ctx, msg.Chat.ID, err)
		return
	}
	b.send(ctx, NewReply(msg.Chat.ID).
		Textf("👥 Группа «%s» создана.", g.Name).
		Textf("Код приглашения: %s", g.InviteCode).
		Textf("Участники присоединяются командой /group_join %s", g.InviteCode).
		Build())
}

func (b *Bot) handleGroupJoin(ctx context.Context, msg *tgbotapi.Message, user core.User, args string) {
	if args == "" {
		b.reply(ctx, msg.Chat.ID, usageGroupJoin)
		return
	}
	g, err := b.groups.Join(ctx, user, args)
	if err != nil {
		b.replyError(ctx, msg.Chat.ID, err)
		return
	}
	b.reply(ctx, msg.Chat.ID, "👥 Вы вступили в группу «"+g.Name+"». Отчёты и бюджеты теперь общие.")
}

func (b *Bot) handleGroupLeave(ctx context.Context, msg *tgbotapi.Message, user core.User, _ string) {
	if err := b.groups.Leave(ctx, user); err != nil {
		b.replyError(ctx, msg.Chat.ID, err)
		return
	}
	b.reply(ctx, msg.Chat.ID, "Вы вышли из группы.")
}

func (b *Bot) handleGroupInfo(ctx context.Context, msg *tgbotapi.Message, user core.User, _ string) {
	g, members, err := b.groups.Members(ctx, user)
	if err != nil {
		b.replyError(ctx, msg.Chat.ID, err)
		return
	}
	reply := NewReply(msg.Chat.ID)
	writeGroup(reply, g, members)
	b.send(ctx, reply.Build())
}
