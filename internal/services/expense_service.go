package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kopilka/internal/amqp"
	"kopilka/internal/classifier"
	"kopilka/internal/core"
	applog "kopilka/internal/log"
	"kopilka/internal/parser"
	"kopilka/internal/storage"
)

// RecordResult describes a stored expense and what the user should be told
// about it.
type RecordResult struct {
	Expense       core.Expense
	LowConfidence bool
	BudgetAlert   *BudgetAlert
}

// ExpenseService records, corrects and undoes expenses. SQLite is the source
// of truth; events and budget alerts are best effort.
type ExpenseService struct {
	storage       *storage.SQLiteRepository
	parser        *parser.Parser
	classifier    *classifier.Classifier
	publisher     Publisher
	budgets       *BudgetService
	reports       *ReportService
	warnThreshold float64
	now           Clock
}

type ExpenseServiceConfig struct {
	Storage    *storage.SQLiteRepository
	Parser     *parser.Parser
	Classifier *classifier.Classifier
	Publisher  Publisher
	Budgets    *BudgetService
	Reports    *ReportService
	// WarnThreshold flags classifications below it as low confidence.
	WarnThreshold float64
}

func NewExpenseService(cfg ExpenseServiceConfig) *ExpenseService {
	return &ExpenseService{
		storage:       cfg.Storage,
		parser:        cfg.Parser,
		classifier:    cfg.Classifier,
		publisher:     cfg.Publisher,
		budgets:       cfg.Budgets,
		reports:       cfg.Reports,
		warnThreshold: cfg.WarnThreshold,
		now:           time.Now,
	}
}

// Record parses one line of user text and stores it as an expense of user.
func (s *ExpenseService) Record(ctx context.Context, user core.User, text string) (RecordResult, error) {
	parsed, ok := s.parser.Parse(text)
	if !ok {
		return RecordResult{}, ErrAmountNotFound
	}

	category, confidence := s.classifier.Predict(parsed.Description)
	slog.DebugContext(ctx, "Expense classified",
		applog.FieldOperation, applog.OpClassify,
		applog.FieldDescription, parsed.Description,
		applog.FieldCategory, category,
		applog.FieldConfidence, confidence)

	expense, err := s.storage.CreateExpense(ctx, core.Expense{
		UserID:      user.ID,
		ChatID:      user.ChatID,
		GroupID:     user.GroupID,
		Amount:      parsed.Amount,
		Currency:    parsed.Currency,
		Description: parsed.Description,
		Category:    category,
		Confidence:  confidence,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return RecordResult{}, fmt.Errorf("save expense: %w", err)
	}

	s.reports.Invalidate(expense)
	s.publish(ctx, amqp.EventExpenseCreated, expense)

	result := RecordResult{
		Expense:       expense,
		LowConfidence: confidence < s.warnThreshold,
	}
	result.BudgetAlert = s.checkBudget(ctx, user, expense)
	return result, nil
}

// Correct moves the user's last expense to another category and teaches the
// classifier the correction.
func (s *ExpenseService) Correct(ctx context.Context, user core.User, categoryInput string) (core.Expense, error) {
	category, ok := core.NormalizeCategory(categoryInput)
	if !ok {
		return core.Expense{}, fmt.Errorf("%w: %q", ErrUnknownCategory, categoryInput)
	}
	expense, err := s.lastExpense(ctx, user)
	if err != nil {
		return core.Expense{}, err
	}

	if err := s.storage.UpdateExpenseCategory(ctx, expense.ID, category, 1); err != nil {
		return core.Expense{}, fmt.Errorf("update category: %w", err)
	}
	expense.Category = category
	expense.Confidence = 1

	if err := s.storage.SaveFeedback(ctx, expense.Description, category, user.ID); err != nil {
		slog.WarnContext(ctx, "Failed to store feedback", "expense_id", expense.ID, "error", err)
	}
	if err := s.classifier.RetrainWithFeedback(expense.Description, category); err != nil {
		slog.WarnContext(ctx, "Classifier retrain skipped", applog.NewFields().
			WithOperation(applog.OpRetrain).
			WithError(err).
			ToSlice()...)
	} else {
		slog.InfoContext(ctx, "Classifier retrained with feedback",
			"category", category,
			"examples", len(s.classifier.Examples()))
	}

	s.reports.Invalidate(expense)
	s.publish(ctx, amqp.EventExpenseUpdated, expense)
	return expense, nil
}

// Undo deletes the user's last expense and returns it.
func (s *ExpenseService) Undo(ctx context.Context, user core.User) (core.Expense, error) {
	expense, err := s.lastExpense(ctx, user)
	if err != nil {
		return core.Expense{}, err
	}
	if err := s.storage.DeleteExpense(ctx, expense.ID); err != nil {
		return core.Expense{}, fmt.Errorf("delete expense: %w", err)
	}

	s.reports.Invalidate(expense)
	s.publish(ctx, amqp.EventExpenseDeleted, expense)
	return expense, nil
}

func (s *ExpenseService) lastExpense(ctx context.Context, user core.User) (core.Expense, error) {
	expense, err := s.storage.LastExpense(ctx, user.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Expense{}, ErrNoExpense
	}
	if err != nil {
		return core.Expense{}, err
	}
	return expense, nil
}

// checkBudget returns an alert only when this expense moved the budget into
// a higher alert level.
func (s *ExpenseService) checkBudget(ctx context.Context, user core.User, e core.Expense) *BudgetAlert {
	if s.budgets == nil {
		return nil
	}
	alert, err := s.budgets.Check(ctx, core.ScopeFor(user), e.Category, e.CreatedAt)
	if err != nil {
		slog.WarnContext(ctx, "Budget check failed", "expense_id", e.ID, "error", err)
		return nil
	}
	if alert == nil || alert.Budget.Currency != e.Currency {
		return nil
	}
	if levelFor(alert.Spent.Sub(e.Amount), alert.Budget.Limit) >= alert.Level {
		return nil
	}
	return alert
}

func (s *ExpenseService) publish(ctx context.Context, eventType amqp.EventType, e core.Expense) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, amqp.NewExpenseEvent(eventType, e.ID, e.UserID)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			applog.FieldEventType, eventType,
			applog.FieldExpenseID, e.ID,
			applog.FieldError, err)
	}
}
