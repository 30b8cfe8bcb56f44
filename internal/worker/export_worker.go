package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"kopilka/internal/amqp"
	"kopilka/internal/core"
	applog "kopilka/internal/log"
	"kopilka/internal/sheets"
	"kopilka/internal/storage"
)

// ExpenseSource loads the rows an export needs.
type ExpenseSource interface {
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	GetUser(ctx context.Context, id int64) (core.User, error)
}

// ExportWorker copies created and updated expenses to a spreadsheet.
type ExportWorker struct {
	source   ExpenseSource
	exporter sheets.Exporter
}

func NewExportWorker(source ExpenseSource, exporter sheets.Exporter) *ExportWorker {
	return &ExportWorker{source: source, exporter: exporter}
}

// HandleEvent exports the expense named by event. A returned error requeues
// the message.
func (w *ExportWorker) HandleEvent(ctx context.Context, event amqp.ExpenseEvent) error {
	slog.InfoContext(ctx, "Processing expense event",
		"event_id", event.EventID,
		"type", event.Type,
		"expense_id", event.ExpenseID)

	switch event.Type {
	case amqp.EventExpenseCreated, amqp.EventExpenseUpdated:
	default:
		slog.DebugContext(ctx, "Skipping expense event", "type", event.Type)
		return nil
	}

	expense, err := w.source.GetExpense(ctx, event.ExpenseID)
	if errors.Is(err, storage.ErrNotFound) {
		// Undone before the worker got to it.
		slog.WarnContext(ctx, "Expense no longer exists, skipping export", "expense_id", event.ExpenseID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	userName := ""
	if user, err := w.source.GetUser(ctx, expense.UserID); err == nil {
		userName = user.Name
	} else {
		slog.WarnContext(ctx, "Exporting expense without user name", "user_id", expense.UserID, "error", err)
	}

	ref, err := w.exporter.Export(ctx, sheets.RowFromExpense(expense, userName))
	if err != nil {
		return fmt.Errorf("export expense %d: %w", expense.ID, err)
	}

	slog.InfoContext(ctx, "Expense exported",
		applog.FieldOperation, applog.OpAppend,
		applog.FieldExpenseID, expense.ID,
		applog.FieldSheetsRef, ref)
	return nil
}
