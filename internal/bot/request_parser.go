package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"kopilka/internal/core"
)

var errUsage = errors.New("invalid command arguments")

// repetitionAliases maps the words accepted by /remind to repetition types.
var repetitionAliases = map[string]core.RepetitionTypes{
	"daily":       core.Daily,
	"weekly":      core.Weekly,
	"monthly":     core.Monthly,
	"yearly":      core.Yearly,
	"ежедневно":   core.Daily,
	"еженедельно": core.Weekly,
	"ежемесячно":  core.Monthly,
	"ежегодно":    core.Yearly,
}

// MonthArg is a calendar month selected by a command argument.
type MonthArg struct {
	Year  int
	Month int
}

// parseMonthArg accepts "", "YYYY-MM" or "MM.YYYY". An empty argument selects
// the month containing now.
func parseMonthArg(args string, now time.Time) (MonthArg, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return MonthArg{Year: now.Year(), Month: int(now.Month())}, nil
	}
	for _, layout := range []string{"2006-01", "01.2006", "2006-1", "1.2006"} {
		if t, err := time.Parse(layout, args); err == nil {
			return MonthArg{Year: t.Year(), Month: int(t.Month())}, nil
		}
	}
	return MonthArg{}, fmt.Errorf("%w: month %q", errUsage, args)
}

// ReminderArgs are the parsed arguments of /remind.
type ReminderArgs struct {
	Every core.RepetitionTypes
	Hour  int // -1 when not given
	Text  string
}

// parseReminderArgs parses "<every> [hour|HH:MM] <text>".
func parseReminderArgs(args string) (ReminderArgs, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return ReminderArgs{}, errUsage
	}
	every, ok := repetitionAliases[strings.ToLower(fields[0])]
	if !ok {
		return ReminderArgs{}, fmt.Errorf("%w: repetition %q", core.ErrInvalidRepeat, fields[0])
	}

	out := ReminderArgs{Every: every, Hour: -1}
	rest := fields[1:]
	if hour, ok := parseHour(rest[0]); ok && len(rest) > 1 {
		out.Hour = hour
		rest = rest[1:]
	} else if looksNumeric(rest[0]) && len(rest) > 1 {
		return ReminderArgs{}, fmt.Errorf("%w: %q", core.ErrInvalidHour, rest[0])
	}
	out.Text = strings.Join(rest, " ")
	return out, nil
}

// parseHour accepts "9", "09" and "09:00".
func parseHour(s string) (int, bool) {
	h, m, hasMinutes := strings.Cut(s, ":")
	if hasMinutes && m != "00" {
		return 0, false
	}
	if h == "" || len(h) > 2 || !looksNumeric(h) {
		return 0, false
	}
	n, err := strconv.Atoi(h)
	if err != nil || n < 0 || n > 23 {
		return 0, false
	}
	return n, true
}

func looksNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && r != ':' {
			return false
		}
	}
	return true
}

// parseID parses a positive identifier, tolerating a leading '#'.
func parseID(args string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(args), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q", errUsage, args)
	}
	return id, nil
}

// sanitizeInput drops control characters other than tab and newlines and
// trims surrounding whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s))
}
