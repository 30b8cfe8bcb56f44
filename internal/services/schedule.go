package services

import (
	"fmt"
	"time"

	"kopilka/internal/core"
)

// Schedule decides whether a reminder should fire again. Times are compared
// by calendar day in the location of now.
type Schedule interface {
	IsDue(lastRun, now time.Time, start core.Date) bool
}

type (
	DailySchedule   struct{}
	WeeklySchedule  struct{}
	MonthlySchedule struct{}
	YearlySchedule  struct{}
)

var schedules = map[core.RepetitionTypes]Schedule{
	core.Daily:   DailySchedule{},
	core.Weekly:  WeeklySchedule{},
	core.Monthly: MonthlySchedule{},
	core.Yearly:  YearlySchedule{},
}

func ScheduleFor(every core.RepetitionTypes) (Schedule, error) {
	s, ok := schedules[every]
	if !ok {
		return nil, fmt.Errorf("unknown repetition type: %s", every)
	}
	return s, nil
}

func (DailySchedule) IsDue(lastRun, now time.Time, _ core.Date) bool {
	return lastRun.IsZero() || daysBetween(lastRun.In(now.Location()), now) >= 1
}

func (WeeklySchedule) IsDue(lastRun, now time.Time, _ core.Date) bool {
	return lastRun.IsZero() || daysBetween(lastRun.In(now.Location()), now) >= 7
}

// IsDue fires once per month from the start day on, clamped to the month's
// last day.
func (MonthlySchedule) IsDue(lastRun, now time.Time, start core.Date) bool {
	if lastRun.IsZero() {
		return true
	}
	last := lastRun.In(now.Location())
	if last.Year() == now.Year() && last.Month() == now.Month() {
		return false
	}
	return now.Day() >= clampDay(start.Day(), now.Year(), now.Month())
}

// IsDue fires once per year from the start month and day on.
func (YearlySchedule) IsDue(lastRun, now time.Time, start core.Date) bool {
	if lastRun.IsZero() {
		return true
	}
	if lastRun.In(now.Location()).Year() == now.Year() {
		return false
	}
	month := time.Month(start.Month())
	switch {
	case now.Month() < month:
		return false
	case now.Month() > month:
		return true
	default:
		return now.Day() >= clampDay(start.Day(), now.Year(), month)
	}
}

func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func clampDay(day, year int, month time.Month) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}
