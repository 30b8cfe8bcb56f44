package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"kopilka/internal/core"
)

func newReminderEnv(t *testing.T, start time.Time) (*testEnv, *ReminderService, *fakeNotifier) {
	t.Helper()
	env := newTestEnv(t)
	notifier := &fakeNotifier{}
	svc := NewReminderService(env.repo, notifier, time.UTC)
	svc.now = func() time.Time { return start }
	return env, svc, notifier
}

func TestReminderService_ProcessDue(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC)
	env, svc, notifier := newReminderEnv(t, day)
	u := env.user(t, 1)

	r, err := svc.Create(ctx, u, core.Daily, -1, "  внести коммуналку ")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if r.Hour != DefaultReminderHour || r.Text != "внести коммуналку" {
		t.Errorf("Create() = %+v", r)
	}

	passes := []struct {
		name string
		at   time.Time
		want int
	}{
		{"before the hour", day.Add(time.Hour), 0},
		{"after the hour", day.Add(2*time.Hour + 30*time.Minute), 1},
		{"already fired today", day.Add(3 * time.Hour), 0},
		{"next day", day.Add(26 * time.Hour), 1},
		{"next day again", day.Add(27 * time.Hour), 0},
	}
	for _, p := range passes {
		fired, err := svc.ProcessDue(ctx, p.at)
		if err != nil {
			t.Fatalf("%s: ProcessDue() error = %v", p.name, err)
		}
		if fired != p.want {
			t.Errorf("%s: fired %d, want %d", p.name, fired, p.want)
		}
	}

	sent := notifier.sent[u.ChatID]
	if len(sent) != 2 || sent[0] != "⏰ Напоминание: внести коммуналку" {
		t.Errorf("sent = %q", sent)
	}
}

func TestReminderService_NotStartedYet(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	env, svc, _ := newReminderEnv(t, day)
	u := env.user(t, 1)

	if _, err := svc.Create(ctx, u, core.Weekly, 9, "x"); err != nil {
		t.Fatal(err)
	}
	if fired, _ := svc.ProcessDue(ctx, day.AddDate(0, 0, -1)); fired != 0 {
		t.Errorf("reminder fired before its start date")
	}
	if fired, _ := svc.ProcessDue(ctx, day); fired != 1 {
		t.Errorf("reminder did not fire on its start date")
	}
	if fired, _ := svc.ProcessDue(ctx, day.AddDate(0, 0, 6)); fired != 0 {
		t.Errorf("weekly reminder fired after 6 days")
	}
	if fired, _ := svc.ProcessDue(ctx, day.AddDate(0, 0, 7)); fired != 1 {
		t.Errorf("weekly reminder did not fire after 7 days")
	}
}

func TestReminderService_FailedNotifyRetries(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)
	env, svc, notifier := newReminderEnv(t, day)
	u := env.user(t, 1)

	if _, err := svc.Create(ctx, u, core.Monthly, 9, "аренда"); err != nil {
		t.Fatal(err)
	}

	notifier.err = errors.New("telegram down")
	if fired, _ := svc.ProcessDue(ctx, day); fired != 0 {
		t.Fatalf("fired %d with failing notifier", fired)
	}
	notifier.err = nil
	if fired, _ := svc.ProcessDue(ctx, day.Add(time.Minute)); fired != 1 {
		t.Fatalf("reminder not retried after failed notify")
	}
}

func TestReminderService_Remove(t *testing.T) {
	ctx := context.Background()
	env, svc, _ := newReminderEnv(t, time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC))
	owner := env.user(t, 1)
	other := env.user(t, 2)

	r, err := svc.Create(ctx, owner, core.Yearly, 9, "страховка")
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Remove(ctx, other, r.ID); !errors.Is(err, ErrNoReminder) {
		t.Errorf("Remove() by another user error = %v", err)
	}
	if err := svc.Remove(ctx, owner, r.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	list, _ := svc.List(ctx, owner)
	if len(list) != 0 {
		t.Errorf("List() after Remove = %+v", list)
	}
}

func TestReminderService_RequiresNotifier(t *testing.T) {
	env := newTestEnv(t)
	svc := NewReminderService(env.repo, nil, nil)
	if _, err := svc.ProcessDue(context.Background(), time.Now()); err == nil {
		t.Fatal("ProcessDue() without notifier should fail")
	}
}
