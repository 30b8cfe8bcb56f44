package bot

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	applog "kopilka/internal/log"
)

// Metrics counts handled updates.
type Metrics struct {
	TotalUpdates   int64
	AverageLatency time.Duration
}

type tracer struct {
	total   atomic.Int64
	totalNs atomic.Int64
}

// trace runs handle with an update-scoped trace ID and logs its outcome.
func (t *tracer) trace(ctx context.Context, update tgbotapi.Update, handle func(context.Context)) {
	start := time.Now()
	ctx = applog.WithTraceID(ctx, applog.NewTraceID())
	logger := applog.FromContext(ctx)

	kind, chatID := describeUpdate(update)
	logger.DebugContext(ctx, "Update started",
		"update_id", update.UpdateID,
		"kind", kind,
		"chat_id", chatID)

	handle(ctx)

	duration := time.Since(start)
	t.total.Add(1)
	t.totalNs.Add(int64(duration))

	level := slog.LevelDebug
	if duration > time.Second {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, "Update completed",
		"update_id", update.UpdateID,
		"kind", kind,
		applog.FieldChatID, chatID,
		applog.FieldDuration, duration.Milliseconds())
}

func (t *tracer) metrics() Metrics {
	total := t.total.Load()
	m := Metrics{TotalUpdates: total}
	if total > 0 {
		m.AverageLatency = time.Duration(t.totalNs.Load() / total)
	}
	return m
}

func describeUpdate(update tgbotapi.Update) (string, int64) {
	switch {
	case update.CallbackQuery != nil:
		if update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil {
			return "callback", update.CallbackQuery.Message.Chat.ID
		}
		return "callback", 0
	case update.Message != nil:
		kind := "message"
		if update.Message.IsCommand() {
			kind = "command"
		}
		if update.Message.Chat != nil {
			return kind, update.Message.Chat.ID
		}
		return kind, 0
	default:
		return "other", 0
	}
}
