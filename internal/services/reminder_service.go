package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"kopilka/internal/core"
	applog "kopilka/internal/log"
	"kopilka/internal/storage"
)

// DefaultReminderHour is used when a reminder is created without an hour.
const DefaultReminderHour = 9

// ReminderService manages a user's reminders and fires the due ones.
type ReminderService struct {
	storage  *storage.SQLiteRepository
	notifier Notifier
	loc      *time.Location
	now      Clock
}

func NewReminderService(storage *storage.SQLiteRepository, notifier Notifier, loc *time.Location) *ReminderService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReminderService{storage: storage, notifier: notifier, loc: loc, now: time.Now}
}

// Create stores a reminder starting today. A negative hour selects
// DefaultReminderHour.
func (s *ReminderService) Create(ctx context.Context, user core.User, every core.RepetitionTypes, hour int, text string) (core.Reminder, error) {
	if hour < 0 {
		hour = DefaultReminderHour
	}
	today := s.now().In(s.loc)
	return s.storage.CreateReminder(ctx, core.Reminder{
		UserID:    user.ID,
		ChatID:    user.ChatID,
		Text:      strings.TrimSpace(text),
		Every:     every,
		Hour:      hour,
		StartDate: core.NewDate(today.Year(), int(today.Month()), today.Day()),
	})
}

func (s *ReminderService) List(ctx context.Context, user core.User) ([]core.Reminder, error) {
	return s.storage.ListReminders(ctx, user.ID)
}

func (s *ReminderService) Remove(ctx context.Context, user core.User, id int64) error {
	if err := s.storage.DeleteReminder(ctx, user.ID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNoReminder
		}
		return err
	}
	return nil
}

// ProcessDue notifies every reminder that is due at now and returns how many
// fired. A failed notification is retried on the next pass.
func (s *ReminderService) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if s.notifier == nil {
		return 0, errors.New("reminder service has no notifier")
	}
	local := now.In(s.loc)
	reminders, err := s.storage.ActiveReminders(ctx, local)
	if err != nil {
		return 0, fmt.Errorf("get active reminders: %w", err)
	}

	fired := 0
	for _, r := range reminders {
		if local.Hour() < r.Hour {
			continue
		}
		schedule, err := ScheduleFor(r.Every)
		if err != nil {
			slog.ErrorContext(ctx, "Reminder has unknown schedule", "id", r.ID, "every", r.Every)
			continue
		}
		if !schedule.IsDue(r.LastRun, local, r.StartDate) {
			continue
		}

		if err := s.notifier.Notify(ctx, r.ChatID, "⏰ Напоминание: "+r.Text); err != nil {
			slog.ErrorContext(ctx, "Failed to send reminder", applog.NewFields().
				WithOperation(applog.OpNotify).
				WithChat(r.ChatID, r.UserID).
				WithError(err).
				ToSlice()...)
			continue
		}
		if err := s.storage.UpdateReminderLastRun(ctx, r.ID, now); err != nil {
			slog.ErrorContext(ctx, "Failed to record reminder run", "id", r.ID, "error", err)
		}
		fired++
	}

	if fired > 0 {
		slog.InfoContext(ctx, "Reminders processed", "fired", fired, "checked", len(reminders))
	}
	return fired, nil
}

// Run calls ProcessDue on every tick until ctx is cancelled.
func (s *ReminderService) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.ProcessDue(ctx, s.now()); err != nil {
				slog.ErrorContext(ctx, "Reminder pass failed", "error", err)
			}
		}
	}
}
