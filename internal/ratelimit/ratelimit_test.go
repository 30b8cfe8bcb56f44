package ratelimit

import (
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *time.Time) {
	t.Helper()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(Config{MessagesPerMinute: perMinute, CleanupInterval: time.Hour})
	l.now = func() time.Time { return now }
	t.Cleanup(l.Stop)
	return l, &now
}

func TestLimiter_Allow(t *testing.T) {
	l, now := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if d := l.Allow("chat"); !d.Allowed {
			t.Fatalf("message %d rejected", i+1)
		}
	}

	d := l.Allow("chat")
	if d.Allowed || !d.Notify {
		t.Fatalf("first rejection = %+v, want notify", d)
	}
	d = l.Allow("chat")
	if d.Allowed || d.Notify {
		t.Fatalf("second rejection = %+v, want silent", d)
	}

	if d := l.Allow("other"); !d.Allowed {
		t.Fatal("keys must be limited independently")
	}

	*now = now.Add(time.Minute)
	if d := l.Allow("chat"); !d.Allowed {
		t.Fatal("new window should admit messages")
	}

	m := l.Metrics()
	if m.Rejected != 2 || m.ActiveChats != 2 {
		t.Errorf("Metrics() = %+v", m)
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	l, now := newTestLimiter(t, 1)
	l.Allow("old")
	*now = now.Add(11 * time.Minute)
	l.Allow("fresh")

	if n := l.cleanupStaleEntries(); n != 1 {
		t.Fatalf("cleanupStaleEntries() = %d, want 1", n)
	}
	if m := l.Metrics(); m.ActiveChats != 1 {
		t.Errorf("ActiveChats = %d, want 1", m.ActiveChats)
	}
}

func TestLimiter_Defaults(t *testing.T) {
	l := NewLimiter(Config{})
	defer l.Stop()
	if l.perMinute != 30 || l.cleanupInterval != 5*time.Minute {
		t.Errorf("defaults = %d/%v", l.perMinute, l.cleanupInterval)
	}
	l.Stop()
}
