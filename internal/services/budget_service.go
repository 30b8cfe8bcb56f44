package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kopilka/internal/core"
	"kopilka/internal/storage"

	"github.com/shopspring/decimal"
)

type AlertLevel int

const (
	AlertNone AlertLevel = iota
	AlertWarning
	AlertExceeded
)

var (
	warningRatio  = decimal.NewFromFloat(0.8)
	exceededRatio = decimal.NewFromInt(1)
	hundred       = decimal.NewFromInt(100)
)

// BudgetStatus is a budget with its spending in the current month.
type BudgetStatus struct {
	Budget core.Budget
	Spent  decimal.Decimal
}

// Percent is spending as a whole percentage of the limit.
func (s BudgetStatus) Percent() int64 {
	if !s.Budget.Limit.IsPositive() {
		return 0
	}
	return s.Spent.Mul(hundred).Div(s.Budget.Limit).IntPart()
}

func (s BudgetStatus) Level() AlertLevel {
	return levelFor(s.Spent, s.Budget.Limit)
}

// BudgetAlert reports a budget at or above the warning ratio.
type BudgetAlert struct {
	BudgetStatus
	Level AlertLevel
}

type BudgetService struct {
	storage *storage.SQLiteRepository
	loc     *time.Location
	now     Clock
}

func NewBudgetService(storage *storage.SQLiteRepository, loc *time.Location) *BudgetService {
	if loc == nil {
		loc = time.UTC
	}
	return &BudgetService{storage: storage, loc: loc, now: time.Now}
}

// Set creates or replaces the monthly limit for a category.
func (s *BudgetService) Set(ctx context.Context, scope core.Scope, categoryInput string, limit decimal.Decimal, currency string) (core.Budget, error) {
	category, ok := core.NormalizeCategory(categoryInput)
	if !ok {
		return core.Budget{}, fmt.Errorf("%w: %q", ErrUnknownCategory, categoryInput)
	}
	b, err := s.storage.SetBudget(ctx, core.Budget{Scope: scope, Category: category, Limit: limit, Currency: currency})
	if err != nil {
		return core.Budget{}, err
	}
	slog.InfoContext(ctx, "Budget set",
		"scope", scope.Key(),
		"category", category,
		"limit", limit.String(),
		"currency", currency)
	return b, nil
}

// List returns every budget of the scope with this month's spending.
func (s *BudgetService) List(ctx context.Context, scope core.Scope) ([]BudgetStatus, error) {
	budgets, err := s.storage.ListBudgets(ctx, scope)
	if err != nil {
		return nil, err
	}
	now := s.now().In(s.loc)
	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		spent, err := s.storage.SpentInMonth(ctx, scope, b.Category, b.Currency, now.Year(), int(now.Month()), s.loc)
		if err != nil {
			return nil, err
		}
		out = append(out, BudgetStatus{Budget: b, Spent: spent})
	}
	return out, nil
}

func (s *BudgetService) Remove(ctx context.Context, scope core.Scope, categoryInput string) error {
	category, ok := core.NormalizeCategory(categoryInput)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, categoryInput)
	}
	if err := s.storage.DeleteBudget(ctx, scope, category); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNoBudget
		}
		return err
	}
	return nil
}

// Check returns an alert when spending in the month containing at has reached
// the warning ratio of the category's budget, and nil otherwise.
func (s *BudgetService) Check(ctx context.Context, scope core.Scope, category string, at time.Time) (*BudgetAlert, error) {
	b, err := s.storage.GetBudget(ctx, scope, category)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	local := at.In(s.loc)
	spent, err := s.storage.SpentInMonth(ctx, scope, category, b.Currency, local.Year(), int(local.Month()), s.loc)
	if err != nil {
		return nil, err
	}
	status := BudgetStatus{Budget: b, Spent: spent}
	level := status.Level()
	if level == AlertNone {
		return nil, nil
	}
	return &BudgetAlert{BudgetStatus: status, Level: level}, nil
}

func levelFor(spent, limit decimal.Decimal) AlertLevel {
	if !limit.IsPositive() {
		return AlertNone
	}
	ratio := spent.Div(limit)
	switch {
	case ratio.GreaterThanOrEqual(exceededRatio):
		return AlertExceeded
	case ratio.GreaterThanOrEqual(warningRatio):
		return AlertWarning
	default:
		return AlertNone
	}
}
