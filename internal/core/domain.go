package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Monthly RepetitionTypes = "monthly"
	Yearly  RepetitionTypes = "yearly"
	Weekly  RepetitionTypes = "weekly"
	Daily   RepetitionTypes = "daily"
)

// DefaultCurrency is used when an expense line carries no currency token.
const DefaultCurrency = "тг"

// NoDescription replaces an empty expense description.
const NoDescription = "Без описания"

type (
	RepetitionTypes string

	Date struct {
		time.Time
	}

	// ParsedExpense is the transient result of parsing one line of user text.
	ParsedExpense struct {
		Amount      decimal.Decimal
		Currency    string
		Description string
	}

	User struct {
		ID         int64
		TelegramID int64
		ChatID     int64
		Name       string
		GroupID    int64 // 0 when the user is not in a group
		CreatedAt  time.Time
	}

	Group struct {
		ID         int64
		Name       string
		OwnerID    int64
		InviteCode string
		CreatedAt  time.Time
	}

	Expense struct {
		ID          int64
		UserID      int64
		ChatID      int64
		GroupID     int64
		Amount      decimal.Decimal
		Currency    string
		Description string
		Category    string
		Confidence  float64
		CreatedAt   time.Time
	}

	// Money is an amount tagged with the currency token the user typed.
	Money struct {
		Amount   decimal.Decimal
		Currency string
	}

	// Budget is a monthly spending limit for one category within a scope.
	Budget struct {
		ID       int64
		Scope    Scope
		Category string
		Limit    decimal.Decimal
		Currency string
	}

	Reminder struct {
		ID        int64
		UserID    int64
		ChatID    int64
		Text      string
		Every     RepetitionTypes
		Hour      int // local hour of day the reminder may fire from
		StartDate Date
		LastRun   time.Time
		CreatedAt time.Time
	}

	// Scope selects whose expenses an operation looks at: a single user or a
	// whole group.
	Scope struct {
		UserID  int64
		GroupID int64
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCurrency    = errors.New("empty currency")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrInvalidHour      = errors.New("invalid hour")
	ErrInvalidRepeat    = errors.New("invalid repetition type")
)

// ScopeFor returns the group scope when the user belongs to a group and the
// personal scope otherwise.
func ScopeFor(u User) Scope {
	if u.GroupID != 0 {
		return Scope{GroupID: u.GroupID}
	}
	return Scope{UserID: u.ID}
}

// IsGroup reports whether the scope covers a group.
func (s Scope) IsGroup() bool {
	return s.GroupID != 0
}

// Key is a stable string form used for cache keys and budget rows.
func (s Scope) Key() string {
	if s.IsGroup() {
		return fmt.Sprintf("group:%d", s.GroupID)
	}
	return fmt.Sprintf("user:%d", s.UserID)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (r RepetitionTypes) Validate() error {
	switch r {
	case Daily, Weekly, Monthly, Yearly:
		return nil
	default:
		return ErrInvalidRepeat
	}
}

func (e Expense) Validate() error {
	if e.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.Currency) == "" {
		return ErrEmptyCurrency
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len([]rune(e.Description)) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if !IsCategory(e.Category) {
		return ErrUnknownCategory
	}
	return nil
}

func (b Budget) Validate() error {
	if !b.Limit.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(b.Currency) == "" {
		return ErrEmptyCurrency
	}
	if !IsCategory(b.Category) {
		return ErrUnknownCategory
	}
	return nil
}

func (r Reminder) Validate() error {
	if err := r.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	if err := r.Every.Validate(); err != nil {
		return err
	}
	if r.Hour < 0 || r.Hour > 23 {
		return ErrInvalidHour
	}
	if len(strings.TrimSpace(r.Text)) == 0 {
		return ErrEmptyDescription
	}
	if len([]rune(r.Text)) > 200 {
		return errors.New("reminder text too long (max 200 characters)")
	}
	return nil
}
