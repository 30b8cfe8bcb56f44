// Package bot is the Telegram transport: it long-polls updates, routes
// commands and expense lines to the services and renders the replies.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"kopilka/internal/core"
	applog "kopilka/internal/log"
	"kopilka/internal/parser"
	"kopilka/internal/ratelimit"
	"kopilka/internal/services"
)

// Sender is the part of the Telegram API used to reply. *tgbotapi.BotAPI
// implements it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// API adds update polling to Sender.
type API interface {
	Sender
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// UserStore registers the sender of every update.
type UserStore interface {
	UpsertUser(ctx context.Context, telegramID, chatID int64, name string) (core.User, error)
}

type Config struct {
	API       API
	Users     UserStore
	Expenses  *services.ExpenseService
	Reports   *services.ReportService
	Budgets   *services.BudgetService
	Reminders *services.ReminderService
	Groups    *services.GroupService
	Limiter   *ratelimit.Limiter
	Parser    *parser.Parser

	Location        *time.Location
	DefaultCurrency string
	PollTimeout     int // seconds
}

type commandHandler func(ctx context.Context, msg *tgbotapi.Message, user core.User, args string)

type Bot struct {
	api       API
	notifier  *Notifier
	users     UserStore
	expenses  *services.ExpenseService
	reports   *services.ReportService
	budgets   *services.BudgetService
	reminders *services.ReminderService
	groups    *services.GroupService
	limiter   *ratelimit.Limiter
	parser    *parser.Parser

	loc             *time.Location
	defaultCurrency string
	pollTimeout     int
	now             func() time.Time

	commands map[string]commandHandler
	tracer   tracer
}

func New(cfg Config) (*Bot, error) {
	if cfg.API == nil {
		return nil, errors.New("bot: API is required")
	}
	if cfg.Users == nil || cfg.Expenses == nil {
		return nil, errors.New("bot: user store and expense service are required")
	}
	b := &Bot{
		api:             cfg.API,
		notifier:        NewNotifier(cfg.API),
		users:           cfg.Users,
		expenses:        cfg.Expenses,
		reports:         cfg.Reports,
		budgets:         cfg.Budgets,
		reminders:       cfg.Reminders,
		groups:          cfg.Groups,
		limiter:         cfg.Limiter,
		parser:          cfg.Parser,
		loc:             cfg.Location,
		defaultCurrency: cfg.DefaultCurrency,
		pollTimeout:     cfg.PollTimeout,
		now:             time.Now,
	}
	if b.loc == nil {
		b.loc = time.UTC
	}
	if b.defaultCurrency == "" {
		b.defaultCurrency = core.DefaultCurrency
	}
	if b.parser == nil {
		b.parser = parser.New(b.defaultCurrency)
	}
	if b.pollTimeout <= 0 {
		b.pollTimeout = 60
	}
	b.commands = map[string]commandHandler{
		"start":       b.handleStart,
		"help":        b.handleHelp,
		"categories":  b.handleCategories,
		"report":      b.handleReport,
		"fix":         b.handleFix,
		"undo":        b.handleUndo,
		"budget":      b.handleBudgetSet,
		"budgets":     b.handleBudgetList,
		"budget_rm":   b.handleBudgetRemove,
		"remind":      b.handleRemind,
		"reminders":   b.handleReminderList,
		"remind_rm":   b.handleReminderRemove,
		"group_new":   b.handleGroupNew,
		"group_join":  b.handleGroupJoin,
		"group_leave": b.handleGroupLeave,
		"group":       b.handleGroupInfo,
	}
	return b, nil
}

// Run long-polls updates and handles them one at a time until ctx is
// cancelled or the update channel closes.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	slog.InfoContext(ctx, "Bot polling started", "timeout_seconds", b.pollTimeout)
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Bot polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes one update. Failures are reported to the chat and
// logged; they never stop the polling loop.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery == nil && update.Message == nil {
		return
	}
	b.tracer.trace(ctx, update, func(ctx context.Context) {
		if update.CallbackQuery != nil {
			b.handleCallback(ctx, update.CallbackQuery)
			return
		}
		b.handleMessage(ctx, update.Message)
	})
}

// Metrics reports how many updates were handled and how long they took.
func (b *Bot) Metrics() Metrics {
	return b.tracer.metrics()
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil || msg.From == nil || msg.From.IsBot {
		return
	}
	if !b.admit(ctx, msg.Chat.ID) {
		return
	}
	user, ok := b.registerUser(ctx, msg.From, msg.Chat.ID)
	if !ok {
		return
	}

	if msg.IsCommand() {
		cmd := msg.Command()
		handler, found := b.commands[cmd]
		if !found {
			b.reply(ctx, msg.Chat.ID, msgUnknownCommand)
			return
		}
		slog.InfoContext(ctx, "Command received",
			applog.FieldCommand, cmd,
			applog.FieldChatID, msg.Chat.ID,
			applog.FieldUserID, user.ID)
		handler(ctx, msg, user, strings.TrimSpace(msg.CommandArguments()))
		return
	}

	text := sanitizeInput(msg.Text)
	if text == "" {
		return
	}
	b.handleExpense(ctx, msg, user, text)
}

// admit applies the per-chat rate limit and sends the single warning of a
// window.
func (b *Bot) admit(ctx context.Context, chatID int64) bool {
	if b.limiter == nil {
		return true
	}
	d := b.limiter.Allow(strconv.FormatInt(chatID, 10))
	if d.Allowed {
		return true
	}
	slog.WarnContext(ctx, "Chat rate limited", "chat_id", chatID, "notify", d.Notify)
	if d.Notify {
		b.reply(ctx, chatID, msgRateLimited)
	}
	return false
}

func (b *Bot) registerUser(ctx context.Context, from *tgbotapi.User, chatID int64) (core.User, bool) {
	user, err := b.users.UpsertUser(ctx, from.ID, chatID, displayName(from))
	if err != nil {
		slog.ErrorContext(ctx, "Failed to register user",
			"telegram_id", from.ID,
			"chat_id", chatID,
			"error", err)
		b.reply(ctx, chatID, msgInternalError)
		return core.User{}, false
	}
	return user, true
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	b.send(ctx, NewReply(chatID).Text(text).Build())
}

func (b *Bot) send(ctx context.Context, msg tgbotapi.Chattable) {
	if err := b.notifier.send(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to send reply", "error", err)
	}
}

func displayName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	if name == "" {
		name = "id" + strconv.FormatInt(u.ID, 10)
	}
	return name
}
