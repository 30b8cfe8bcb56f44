package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"kopilka/internal/core"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup or mutation matches no row.
var ErrNotFound = errors.New("not found")

const dateLayout = "2006-01-02"

const (
	scopeUser  = "user"
	scopeGroup = "group"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := MigrateUp(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("Schema ready", "path", dbPath, "version", version)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func affected(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Users

// UpsertUser registers a Telegram user or refreshes their chat and name.
func (r *SQLiteRepository) UpsertUser(ctx context.Context, telegramID, chatID int64, name string) (core.User, error) {
	row, err := r.queries.UpsertUser(ctx, UpsertUserParams{
		TelegramID: telegramID,
		ChatID:     chatID,
		Name:       name,
		CreatedAt:  time.Now().Unix(),
	})
	if err != nil {
		return core.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return toUser(row), nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	row, err := r.queries.GetUser(ctx, id)
	if err != nil {
		return core.User{}, fmt.Errorf("get user %d: %w", id, notFound(err))
	}
	return toUser(row), nil
}

// Groups

// CreateGroup stores a new group and moves its owner into it.
func (r *SQLiteRepository) CreateGroup(ctx context.Context, name string, ownerID int64, inviteCode string) (core.Group, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Group{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	row, err := q.CreateGroup(ctx, CreateGroupParams{
		Name:       name,
		OwnerID:    ownerID,
		InviteCode: inviteCode,
		CreatedAt:  time.Now().Unix(),
	})
	if err != nil {
		return core.Group{}, fmt.Errorf("create group: %w", err)
	}
	if err := affected(q.SetUserGroup(ctx, sql.NullInt64{Int64: row.ID, Valid: true}, ownerID)); err != nil {
		return core.Group{}, fmt.Errorf("assign group owner %d: %w", ownerID, err)
	}
	if err := tx.Commit(); err != nil {
		return core.Group{}, fmt.Errorf("commit group: %w", err)
	}

	slog.InfoContext(ctx, "Group created", "group_id", row.ID, "owner_id", ownerID)
	return toGroup(row), nil
}

func (r *SQLiteRepository) GetGroup(ctx context.Context, id int64) (core.Group, error) {
	row, err := r.queries.GetGroup(ctx, id)
	if err != nil {
		return core.Group{}, fmt.Errorf("get group %d: %w", id, notFound(err))
	}
	return toGroup(row), nil
}

func (r *SQLiteRepository) GroupByInvite(ctx context.Context, code string) (core.Group, error) {
	row, err := r.queries.GetGroupByInvite(ctx, code)
	if err != nil {
		return core.Group{}, fmt.Errorf("get group by invite: %w", notFound(err))
	}
	return toGroup(row), nil
}

func (r *SQLiteRepository) AddMember(ctx context.Context, groupID, userID int64) error {
	if err := affected(r.queries.SetUserGroup(ctx, sql.NullInt64{Int64: groupID, Valid: true}, userID)); err != nil {
		return fmt.Errorf("add user %d to group %d: %w", userID, groupID, err)
	}
	return nil
}

// RemoveMember takes the user out of their group. A group left without
// members is deleted.
func (r *SQLiteRepository) RemoveMember(ctx context.Context, userID int64) error {
	user, err := r.queries.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user %d: %w", userID, notFound(err))
	}
	if !user.GroupID.Valid {
		return fmt.Errorf("user %d has no group: %w", userID, ErrNotFound)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	if _, err := q.SetUserGroup(ctx, sql.NullInt64{}, userID); err != nil {
		return fmt.Errorf("remove user %d from group: %w", userID, err)
	}
	members, err := q.ListGroupMembers(ctx, user.GroupID.Int64)
	if err != nil {
		return fmt.Errorf("list group members: %w", err)
	}
	if len(members) == 0 {
		if err := q.DeleteGroup(ctx, user.GroupID.Int64); err != nil {
			return fmt.Errorf("delete empty group: %w", err)
		}
		slog.InfoContext(ctx, "Empty group deleted", "group_id", user.GroupID.Int64)
	}
	return tx.Commit()
}

func (r *SQLiteRepository) GroupMembers(ctx context.Context, groupID int64) ([]core.User, error) {
	rows, err := r.queries.ListGroupMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	users := make([]core.User, len(rows))
	for i, row := range rows {
		users[i] = toUser(row)
	}
	return users, nil
}

// UserGroup returns the group the user belongs to, or ErrNotFound.
func (r *SQLiteRepository) UserGroup(ctx context.Context, userID int64) (core.Group, error) {
	user, err := r.queries.GetUser(ctx, userID)
	if err != nil {
		return core.Group{}, fmt.Errorf("get user %d: %w", userID, notFound(err))
	}
	if !user.GroupID.Valid {
		return core.Group{}, ErrNotFound
	}
	return r.GetGroup(ctx, user.GroupID.Int64)
}

// Expenses

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("invalid expense: %w", err)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	row, err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		UserID:      e.UserID,
		ChatID:      e.ChatID,
		GroupID:     nullID(e.GroupID),
		Amount:      e.Amount.String(),
		Currency:    e.Currency,
		Description: e.Description,
		Category:    e.Category,
		Confidence:  e.Confidence,
		CreatedAt:   e.CreatedAt.Unix(),
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", row.ID,
		"user_id", row.UserID,
		"amount", row.Amount,
		"currency", row.Currency,
		"category", row.Category)

	return toExpense(row)
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, notFound(err))
	}
	return toExpense(row)
}

// LastExpense returns the most recent expense recorded by the user.
func (r *SQLiteRepository) LastExpense(ctx context.Context, userID int64) (core.Expense, error) {
	row, err := r.queries.GetLastExpense(ctx, userID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get last expense: %w", notFound(err))
	}
	return toExpense(row)
}

func (r *SQLiteRepository) UpdateExpenseCategory(ctx context.Context, id int64, category string, confidence float64) error {
	if !core.IsCategory(category) {
		return core.ErrUnknownCategory
	}
	if err := affected(r.queries.UpdateExpenseCategory(ctx, category, confidence, id)); err != nil {
		return fmt.Errorf("update expense %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Expense category updated", "id", id, "category", category)
	return nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	if err := affected(r.queries.DeleteExpense(ctx, id)); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Expense deleted", "id", id)
	return nil
}

// ListExpenses returns the scope's expenses created in [from, to), oldest
// first.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, scope core.Scope, from, to time.Time) ([]core.Expense, error) {
	var (
		rows []Expense
		err  error
	)
	if scope.IsGroup() {
		rows, err = r.queries.ListGroupExpenses(ctx, scope.GroupID, from.Unix(), to.Unix())
	} else {
		rows, err = r.queries.ListUserExpenses(ctx, scope.UserID, from.Unix(), to.Unix())
	}
	if err != nil {
		return nil, fmt.Errorf("list expenses for %s: %w", scope.Key(), err)
	}

	expenses := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := toExpense(row)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, nil
}

// MonthOverview summarizes the scope's expenses for a calendar month of loc.
func (r *SQLiteRepository) MonthOverview(ctx context.Context, scope core.Scope, year, month int, loc *time.Location) (core.MonthOverview, error) {
	from, to := core.MonthBoundsIn(year, month, loc)
	expenses, err := r.ListExpenses(ctx, scope, from, to)
	if err != nil {
		return core.MonthOverview{}, err
	}
	return core.Summarize(year, month, expenses), nil
}

// Budgets

// SetBudget creates or replaces the scope's limit for a category.
func (r *SQLiteRepository) SetBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, fmt.Errorf("invalid budget: %w", err)
	}
	scopeType, scopeID := scopeColumns(b.Scope)
	row, err := r.queries.UpsertBudget(ctx, Budget{
		ScopeType: scopeType,
		ScopeID:   scopeID,
		Category:  b.Category,
		Amount:    b.Limit.String(),
		Currency:  b.Currency,
	})
	if err != nil {
		return core.Budget{}, fmt.Errorf("set budget: %w", err)
	}
	return toBudget(row)
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, scope core.Scope, category string) (core.Budget, error) {
	scopeType, scopeID := scopeColumns(scope)
	row, err := r.queries.GetBudget(ctx, scopeType, scopeID, category)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %s/%s: %w", scope.Key(), category, notFound(err))
	}
	return toBudget(row)
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, scope core.Scope) ([]core.Budget, error) {
	scopeType, scopeID := scopeColumns(scope)
	rows, err := r.queries.ListBudgets(ctx, scopeType, scopeID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	budgets := make([]core.Budget, 0, len(rows))
	for _, row := range rows {
		b, err := toBudget(row)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, scope core.Scope, category string) error {
	scopeType, scopeID := scopeColumns(scope)
	if err := affected(r.queries.DeleteBudget(ctx, scopeType, scopeID, category)); err != nil {
		return fmt.Errorf("delete budget %s/%s: %w", scope.Key(), category, err)
	}
	return nil
}

// SpentInMonth sums the scope's expenses in one category and currency over a
// calendar month of loc.
func (r *SQLiteRepository) SpentInMonth(ctx context.Context, scope core.Scope, category, currency string, year, month int, loc *time.Location) (decimal.Decimal, error) {
	from, to := core.MonthBoundsIn(year, month, loc)
	expenses, err := r.ListExpenses(ctx, scope, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, e := range expenses {
		if e.Category == category && e.Currency == currency {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

// Reminders

func (r *SQLiteRepository) CreateReminder(ctx context.Context, rem core.Reminder) (core.Reminder, error) {
	if err := rem.Validate(); err != nil {
		return core.Reminder{}, fmt.Errorf("invalid reminder: %w", err)
	}
	row, err := r.queries.CreateReminder(ctx, Reminder{
		UserID:    rem.UserID,
		ChatID:    rem.ChatID,
		Text:      rem.Text,
		Every:     string(rem.Every),
		Hour:      int64(rem.Hour),
		StartDate: rem.StartDate.Format(dateLayout),
		CreatedAt: time.Now().Unix(),
	})
	if err != nil {
		return core.Reminder{}, fmt.Errorf("create reminder: %w", err)
	}
	slog.InfoContext(ctx, "Reminder created", "id", row.ID, "user_id", row.UserID, "every", row.Every)
	return toReminder(row)
}

func (r *SQLiteRepository) ListReminders(ctx context.Context, userID int64) ([]core.Reminder, error) {
	rows, err := r.queries.ListUserReminders(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return toReminders(rows)
}

// DeleteReminder removes a reminder owned by userID.
func (r *SQLiteRepository) DeleteReminder(ctx context.Context, userID, id int64) error {
	if err := affected(r.queries.DeleteUserReminder(ctx, id, userID)); err != nil {
		return fmt.Errorf("delete reminder %d: %w", id, err)
	}
	return nil
}

// ActiveReminders returns reminders whose start date is not after now's
// calendar day.
func (r *SQLiteRepository) ActiveReminders(ctx context.Context, now time.Time) ([]core.Reminder, error) {
	rows, err := r.queries.ListStartedReminders(ctx, now.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("list active reminders: %w", err)
	}
	return toReminders(rows)
}

func (r *SQLiteRepository) UpdateReminderLastRun(ctx context.Context, id int64, at time.Time) error {
	if err := r.queries.UpdateReminderLastRun(ctx, at.Unix(), id); err != nil {
		return fmt.Errorf("update reminder %d last run: %w", id, err)
	}
	return nil
}

// Feedback

// SaveFeedback stores a user correction so it can be replayed into the
// classifier after a restart.
func (r *SQLiteRepository) SaveFeedback(ctx context.Context, description, category string, userID int64) error {
	err := r.queries.CreateFeedback(ctx, Feedback{
		UserID:      userID,
		Description: description,
		Category:    category,
		CreatedAt:   time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("save feedback: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListFeedback(ctx context.Context) ([]Feedback, error) {
	rows, err := r.queries.ListFeedback(ctx)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return rows, nil
}

// Row mapping

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func scopeColumns(s core.Scope) (string, int64) {
	if s.IsGroup() {
		return scopeGroup, s.GroupID
	}
	return scopeUser, s.UserID
}

func toUser(row User) core.User {
	return core.User{
		ID:         row.ID,
		TelegramID: row.TelegramID,
		ChatID:     row.ChatID,
		Name:       row.Name,
		GroupID:    row.GroupID.Int64,
		CreatedAt:  time.Unix(row.CreatedAt, 0).UTC(),
	}
}

func toGroup(row Group) core.Group {
	return core.Group{
		ID:         row.ID,
		Name:       row.Name,
		OwnerID:    row.OwnerID,
		InviteCode: row.InviteCode,
		CreatedAt:  time.Unix(row.CreatedAt, 0).UTC(),
	}
}

func toExpense(row Expense) (core.Expense, error) {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %d amount %q: %w", row.ID, row.Amount, err)
	}
	return core.Expense{
		ID:          row.ID,
		UserID:      row.UserID,
		ChatID:      row.ChatID,
		GroupID:     row.GroupID.Int64,
		Amount:      amount,
		Currency:    row.Currency,
		Description: row.Description,
		Category:    row.Category,
		Confidence:  row.Confidence,
		CreatedAt:   time.Unix(row.CreatedAt, 0).UTC(),
	}, nil
}

func toBudget(row Budget) (core.Budget, error) {
	limit, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget %d amount %q: %w", row.ID, row.Amount, err)
	}
	b := core.Budget{
		ID:       row.ID,
		Category: row.Category,
		Limit:    limit,
		Currency: row.Currency,
	}
	if row.ScopeType == scopeGroup {
		b.Scope.GroupID = row.ScopeID
	} else {
		b.Scope.UserID = row.ScopeID
	}
	return b, nil
}

func toReminder(row Reminder) (core.Reminder, error) {
	start, err := time.Parse(dateLayout, row.StartDate)
	if err != nil {
		return core.Reminder{}, fmt.Errorf("reminder %d start date %q: %w", row.ID, row.StartDate, err)
	}
	rem := core.Reminder{
		ID:        row.ID,
		UserID:    row.UserID,
		ChatID:    row.ChatID,
		Text:      row.Text,
		Every:     core.RepetitionTypes(row.Every),
		Hour:      int(row.Hour),
		StartDate: core.Date{Time: start},
		CreatedAt: time.Unix(row.CreatedAt, 0).UTC(),
	}
	if row.LastRun.Valid {
		rem.LastRun = time.Unix(row.LastRun.Int64, 0).UTC()
	}
	return rem, nil
}

func toReminders(rows []Reminder) ([]core.Reminder, error) {
	out := make([]core.Reminder, 0, len(rows))
	for _, row := range rows {
		rem, err := toReminder(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rem)
	}
	return out, nil
}
