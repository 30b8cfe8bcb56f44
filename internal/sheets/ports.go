package sheets

import (
	"context"
	"strconv"
	"time"

	"kopilka/internal/core"

	"github.com/shopspring/decimal"
)

// Exporter appends expense rows to an external spreadsheet.
type Exporter interface {
	Export(ctx context.Context, row ExportRow) (rowRef string, err error)
}

// ExportRow is the flat form of an expense written to a sheet.
type ExportRow struct {
	ExpenseID   int64
	Date        time.Time
	User        string
	Amount      decimal.Decimal
	Currency    string
	Description string
	Category    string
	Confidence  float64
}

// Header lists the column titles matching Values.
var Header = []any{"Date", "ID", "User", "Amount", "Currency", "Description", "Category", "Confidence"}

func RowFromExpense(e core.Expense, user string) ExportRow {
	return ExportRow{
		ExpenseID:   e.ID,
		Date:        e.CreatedAt,
		User:        user,
		Amount:      e.Amount,
		Currency:    e.Currency,
		Description: e.Description,
		Category:    e.Category,
		Confidence:  e.Confidence,
	}
}

// Values renders the row in Header order. Amounts use a dot separator so the
// sheet parses them as numbers.
func (r ExportRow) Values() []any {
	return []any{
		r.Date.Format("2006-01-02 15:04"),
		r.ExpenseID,
		r.User,
		r.Amount.StringFixed(2),
		r.Currency,
		r.Description,
		r.Category,
		strconv.FormatFloat(r.Confidence, 'f', 2, 64),
	}
}
