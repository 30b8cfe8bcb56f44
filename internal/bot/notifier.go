package bot

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	sendAttempts   = 3
	sendRetryDelay = time.Second
)

// Notifier sends plain messages to a chat, retrying when Telegram answers
// with 429 Too Many Requests.
type Notifier struct {
	sender   Sender
	attempts uint
	delay    time.Duration
}

func NewNotifier(sender Sender) *Notifier {
	return &Notifier{sender: sender, attempts: sendAttempts, delay: sendRetryDelay}
}

func (n *Notifier) Notify(ctx context.Context, chatID int64, text string) error {
	return n.send(ctx, tgbotapi.NewMessage(chatID, text))
}

func (n *Notifier) send(ctx context.Context, msg tgbotapi.Chattable) error {
	return retry.Do(
		func() error {
			_, err := n.sender.Send(msg)
			return err
		},
		retry.RetryIf(func(err error) bool {
			if isRateLimited(err) {
				slog.WarnContext(ctx, "Telegram rate limited, will retry", "error", err)
				return true
			}
			return false
		}),
		retry.Context(ctx),
		retry.Attempts(n.attempts),
		retry.Delay(n.delay),
		retry.LastErrorOnly(true),
	)
}

func isRateLimited(err error) bool {
	var apiErr *tgbotapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests
}
