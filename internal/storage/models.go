package storage

import "database/sql"

// Row types mirror the tables in migrations/. Timestamps are unix seconds and
// amounts are decimal strings.

type Group struct {
	ID         int64
	Name       string
	OwnerID    int64
	InviteCode string
	CreatedAt  int64
}

type User struct {
	ID         int64
	TelegramID int64
	ChatID     int64
	Name       string
	GroupID    sql.NullInt64
	CreatedAt  int64
}

type Expense struct {
	ID          int64
	UserID      int64
	ChatID      int64
	GroupID     sql.NullInt64
	Amount      string
	Currency    string
	Description string
	Category    string
	Confidence  float64
	CreatedAt   int64
}

type Budget struct {
	ID        int64
	ScopeType string
	ScopeID   int64
	Category  string
	Amount    string
	Currency  string
}

type Reminder struct {
	ID        int64
	UserID    int64
	ChatID    int64
	Text      string
	Every     string
	Hour      int64
	StartDate string
	LastRun   sql.NullInt64
	CreatedAt int64
}

type Feedback struct {
	ID          int64
	UserID      int64
	Description string
	Category    string
	CreatedAt   int64
}
