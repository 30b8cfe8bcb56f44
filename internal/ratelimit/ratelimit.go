package ratelimit

import (
	"sync"
	"sync/atomic"
	"time"
)

// Limiter admits a fixed number of messages per key in each one-minute
// window. Keys are chat IDs rendered as strings.
type Limiter struct {
	mu           sync.Mutex
	chats        map[string]*window
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
	now          func() time.Time

	perMinute       int
	cleanupInterval time.Duration
	staleAfter      time.Duration

	rejected atomic.Int64
}

type window struct {
	start    time.Time
	count    int
	notified bool
}

type Config struct {
	MessagesPerMinute int
	CleanupInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{
		MessagesPerMinute: 30,
		CleanupInterval:   5 * time.Minute,
	}
}

// Decision is the outcome for one message. Notify is set on the first
// rejection of a window so the chat gets a single warning.
type Decision struct {
	Allowed bool
	Notify  bool
}

// Metrics is a point-in-time snapshot of limiter state.
type Metrics struct {
	Rejected    int64
	ActiveChats int
}

// NewLimiter starts a limiter and its stale-entry cleanup goroutine. Call
// Stop to release it.
func NewLimiter(config Config) *Limiter {
	if config.MessagesPerMinute <= 0 {
		config.MessagesPerMinute = DefaultConfig().MessagesPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultConfig().CleanupInterval
	}

	l := &Limiter{
		chats:           make(map[string]*window),
		stopCleanup:     make(chan struct{}),
		now:             time.Now,
		perMinute:       config.MessagesPerMinute,
		cleanupInterval: config.CleanupInterval,
		staleAfter:      10 * time.Minute,
	}
	go l.startCleanup()
	return l
}

// Allow reports whether a message for key may be processed.
func (l *Limiter) Allow(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.chats[key]
	if !ok || now.Sub(w.start) >= time.Minute {
		l.chats[key] = &window{start: now, count: 1}
		return Decision{Allowed: true}
	}

	w.count++
	if w.count <= l.perMinute {
		return Decision{Allowed: true}
	}

	l.rejected.Add(1)
	notify := !w.notified
	w.notified = true
	return Decision{Notify: notify}
}

func (l *Limiter) startCleanup() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanupStaleEntries()
		case <-l.stopCleanup:
			return
		}
	}
}

func (l *Limiter) cleanupStaleEntries() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.staleAfter)
	n := 0
	for key, w := range l.chats {
		if w.start.Before(cutoff) {
			delete(l.chats, key)
			n++
		}
	}
	return n
}

func (l *Limiter) Metrics() Metrics {
	l.mu.Lock()
	active := len(l.chats)
	l.mu.Unlock()
	return Metrics{Rejected: l.rejected.Load(), ActiveChats: active}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.shutdownOnce.Do(func() {
		close(l.stopCleanup)
	})
}
