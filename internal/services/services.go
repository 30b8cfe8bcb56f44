// Package services holds the bot's use cases. Each service owns one concern
// and talks to SQLite through the repository; side effects that must not
// fail a user request (event publishing, budget checks) are logged instead.
package services

import (
	"context"
	"errors"
	"time"

	"kopilka/internal/amqp"
	"kopilka/internal/core"
)

var (
	ErrAmountNotFound   = errors.New("amount not found")
	ErrNoExpense        = errors.New("no expense to change")
	ErrUnknownCategory  = core.ErrUnknownCategory
	ErrInvalidAmount    = core.ErrInvalidAmount
	ErrNoBudget         = errors.New("budget not found")
	ErrNoReminder       = errors.New("reminder not found")
	ErrAlreadyInGroup   = errors.New("already in a group")
	ErrNotInGroup       = errors.New("not in a group")
	ErrInvalidInvite    = errors.New("invalid invite code")
	ErrInvalidGroupName = errors.New("invalid group name")
)

// Publisher emits expense change events. A nil Publisher disables events.
type Publisher interface {
	PublishExpenseEvent(ctx context.Context, event amqp.ExpenseEvent) error
}

// Notifier delivers a text message to a chat.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// Clock returns the current time. Tests replace it.
type Clock func() time.Time
