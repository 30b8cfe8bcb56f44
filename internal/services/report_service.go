package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kopilka/internal/cache"
	"kopilka/internal/core"
	"kopilka/internal/storage"
)

// ReportService builds month overviews and caches them per scope.
type ReportService struct {
	storage *storage.SQLiteRepository
	cache   cache.Cache[core.MonthOverview]
	loc     *time.Location
}

// NewReportService caches overviews in c; a nil c disables caching.
func NewReportService(storage *storage.SQLiteRepository, c cache.Cache[core.MonthOverview], loc *time.Location) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{storage: storage, cache: c, loc: loc}
}

func (s *ReportService) Month(ctx context.Context, scope core.Scope, year, month int) (core.MonthOverview, error) {
	if month < 1 || month > 12 {
		return core.MonthOverview{}, fmt.Errorf("%w: %d", core.ErrInvalidMonth, month)
	}
	key := reportKey(scope, year, month)
	if s.cache != nil {
		if ov, ok := s.cache.Get(key); ok {
			slog.DebugContext(ctx, "Report cache hit", "key", key)
			return ov, nil
		}
	}

	ov, err := s.storage.MonthOverview(ctx, scope, year, month, s.loc)
	if err != nil {
		return core.MonthOverview{}, fmt.Errorf("month overview: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(key, ov)
	}
	return ov, nil
}

// Invalidate drops cached overviews of every scope the expense belongs to.
func (s *ReportService) Invalidate(e core.Expense) {
	if s == nil || s.cache == nil {
		return
	}
	s.cache.DeletePrefix(scopePrefix(core.Scope{UserID: e.UserID}))
	if e.GroupID != 0 {
		s.cache.DeletePrefix(scopePrefix(core.Scope{GroupID: e.GroupID}))
	}
}

func scopePrefix(scope core.Scope) string {
	return "report:" + scope.Key() + ":"
}

func reportKey(scope core.Scope, year, month int) string {
	return fmt.Sprintf("%s%04d-%02d", scopePrefix(scope), year, month)
}
