package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type scanner interface {
	Scan(dest ...any) error
}

// users

const userColumns = `id, telegram_id, chat_id, name, group_id, created_at`

func scanUser(s scanner) (User, error) {
	var u User
	err := s.Scan(&u.ID, &u.TelegramID, &u.ChatID, &u.Name, &u.GroupID, &u.CreatedAt)
	return u, err
}

const upsertUser = `
INSERT INTO users (telegram_id, chat_id, name, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (telegram_id) DO UPDATE SET chat_id = excluded.chat_id, name = excluded.name
RETURNING ` + userColumns

type UpsertUserParams struct {
	TelegramID int64
	ChatID     int64
	Name       string
	CreatedAt  int64
}

func (q *Queries) UpsertUser(ctx context.Context, arg UpsertUserParams) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, upsertUser, arg.TelegramID, arg.ChatID, arg.Name, arg.CreatedAt))
}

const getUser = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUser(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUser, id))
}

const setUserGroup = `UPDATE users SET group_id = ? WHERE id = ?`

func (q *Queries) SetUserGroup(ctx context.Context, groupID sql.NullInt64, userID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, setUserGroup, groupID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listGroupMembers = `SELECT ` + userColumns + ` FROM users WHERE group_id = ? ORDER BY id`

func (q *Queries) ListGroupMembers(ctx context.Context, groupID int64) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listGroupMembers, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

// groups

const groupColumns = `id, name, owner_id, invite_code, created_at`

func scanGroup(s scanner) (Group, error) {
	var g Group
	err := s.Scan(&g.ID, &g.Name, &g.OwnerID, &g.InviteCode, &g.CreatedAt)
	return g, err
}

const createGroup = `
INSERT INTO user_groups (name, owner_id, invite_code, created_at)
VALUES (?, ?, ?, ?)
RETURNING ` + groupColumns

type CreateGroupParams struct {
	Name       string
	OwnerID    int64
	InviteCode string
	CreatedAt  int64
}

func (q *Queries) CreateGroup(ctx context.Context, arg CreateGroupParams) (Group, error) {
	return scanGroup(q.db.QueryRowContext(ctx, createGroup, arg.Name, arg.OwnerID, arg.InviteCode, arg.CreatedAt))
}

const getGroup = `SELECT ` + groupColumns + ` FROM user_groups WHERE id = ?`

func (q *Queries) GetGroup(ctx context.Context, id int64) (Group, error) {
	return scanGroup(q.db.QueryRowContext(ctx, getGroup, id))
}

const getGroupByInvite = `SELECT ` + groupColumns + ` FROM user_groups WHERE invite_code = ?`

func (q *Queries) GetGroupByInvite(ctx context.Context, code string) (Group, error) {
	return scanGroup(q.db.QueryRowContext(ctx, getGroupByInvite, code))
}

const deleteGroup = `DELETE FROM user_groups WHERE id = ?`

func (q *Queries) DeleteGroup(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteGroup, id)
	return err
}

// expenses

const expenseColumns = `id, user_id, chat_id, group_id, amount, currency, description, category, confidence, created_at`

func scanExpense(s scanner) (Expense, error) {
	var e Expense
	err := s.Scan(&e.ID, &e.UserID, &e.ChatID, &e.GroupID, &e.Amount, &e.Currency,
		&e.Description, &e.Category, &e.Confidence, &e.CreatedAt)
	return e, err
}

func collectExpenses(rows *sql.Rows) ([]Expense, error) {
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const createExpense = `
INSERT INTO expenses (user_id, chat_id, group_id, amount, currency, description, category, confidence, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + expenseColumns

type CreateExpenseParams struct {
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

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (Expense, error) {
	return scanExpense(q.db.QueryRowContext(ctx, createExpense,
		arg.UserID, arg.ChatID, arg.GroupID, arg.Amount, arg.Currency,
		arg.Description, arg.Category, arg.Confidence, arg.CreatedAt))
}

const getExpense = `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`

func (q *Queries) GetExpense(ctx context.Context, id int64) (Expense, error) {
	return scanExpense(q.db.QueryRowContext(ctx, getExpense, id))
}

const getLastExpense = `SELECT ` + expenseColumns + ` FROM expenses WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`

func (q *Queries) GetLastExpense(ctx context.Context, userID int64) (Expense, error) {
	return scanExpense(q.db.QueryRowContext(ctx, getLastExpense, userID))
}

const updateExpenseCategory = `UPDATE expenses SET category = ?, confidence = ? WHERE id = ?`

func (q *Queries) UpdateExpenseCategory(ctx context.Context, category string, confidence float64, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateExpenseCategory, category, confidence, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteExpense = `DELETE FROM expenses WHERE id = ?`

func (q *Queries) DeleteExpense(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpense, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listUserExpenses = `
SELECT ` + expenseColumns + ` FROM expenses
WHERE user_id = ? AND created_at >= ? AND created_at < ?
ORDER BY created_at, id`

func (q *Queries) ListUserExpenses(ctx context.Context, userID, from, to int64) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listUserExpenses, userID, from, to)
	if err != nil {
		return nil, err
	}
	return collectExpenses(rows)
}

const listGroupExpenses = `
SELECT ` + expenseColumns + ` FROM expenses
WHERE group_id = ? AND created_at >= ? AND created_at < ?
ORDER BY created_at, id`

func (q *Queries) ListGroupExpenses(ctx context.Context, groupID, from, to int64) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listGroupExpenses, groupID, from, to)
	if err != nil {
		return nil, err
	}
	return collectExpenses(rows)
}

// budgets

const budgetColumns = `id, scope_type, scope_id, category, amount, currency`

func scanBudget(s scanner) (Budget, error) {
	var b Budget
	err := s.Scan(&b.ID, &b.ScopeType, &b.ScopeID, &b.Category, &b.Amount, &b.Currency)
	return b, err
}

const upsertBudget = `
INSERT INTO budgets (scope_type, scope_id, category, amount, currency)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (scope_type, scope_id, category) DO UPDATE SET amount = excluded.amount, currency = excluded.currency
RETURNING ` + budgetColumns

func (q *Queries) UpsertBudget(ctx context.Context, arg Budget) (Budget, error) {
	return scanBudget(q.db.QueryRowContext(ctx, upsertBudget, arg.ScopeType, arg.ScopeID, arg.Category, arg.Amount, arg.Currency))
}

const getBudget = `SELECT ` + budgetColumns + ` FROM budgets WHERE scope_type = ? AND scope_id = ? AND category = ?`

func (q *Queries) GetBudget(ctx context.Context, scopeType string, scopeID int64, category string) (Budget, error) {
	return scanBudget(q.db.QueryRowContext(ctx, getBudget, scopeType, scopeID, category))
}

const listBudgets = `SELECT ` + budgetColumns + ` FROM budgets WHERE scope_type = ? AND scope_id = ? ORDER BY category`

func (q *Queries) ListBudgets(ctx context.Context, scopeType string, scopeID int64) ([]Budget, error) {
	rows, err := q.db.QueryContext(ctx, listBudgets, scopeType, scopeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

const deleteBudget = `DELETE FROM budgets WHERE scope_type = ? AND scope_id = ? AND category = ?`

func (q *Queries) DeleteBudget(ctx context.Context, scopeType string, scopeID int64, category string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteBudget, scopeType, scopeID, category)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// reminders

const reminderColumns = `id, user_id, chat_id, text, every, hour, start_date, last_run, created_at`

func scanReminder(s scanner) (Reminder, error) {
	var r Reminder
	err := s.Scan(&r.ID, &r.UserID, &r.ChatID, &r.Text, &r.Every, &r.Hour, &r.StartDate, &r.LastRun, &r.CreatedAt)
	return r, err
}

func collectReminders(rows *sql.Rows) ([]Reminder, error) {
	defer rows.Close()
	var items []Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const createReminder = `
INSERT INTO reminders (user_id, chat_id, text, every, hour, start_date, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + reminderColumns

func (q *Queries) CreateReminder(ctx context.Context, arg Reminder) (Reminder, error) {
	return scanReminder(q.db.QueryRowContext(ctx, createReminder,
		arg.UserID, arg.ChatID, arg.Text, arg.Every, arg.Hour, arg.StartDate, arg.CreatedAt))
}

const listUserReminders = `SELECT ` + reminderColumns + ` FROM reminders WHERE user_id = ? ORDER BY id`

func (q *Queries) ListUserReminders(ctx context.Context, userID int64) ([]Reminder, error) {
	rows, err := q.db.QueryContext(ctx, listUserReminders, userID)
	if err != nil {
		return nil, err
	}
	return collectReminders(rows)
}

const listStartedReminders = `SELECT ` + reminderColumns + ` FROM reminders WHERE start_date <= ? ORDER BY id`

func (q *Queries) ListStartedReminders(ctx context.Context, date string) ([]Reminder, error) {
	rows, err := q.db.QueryContext(ctx, listStartedReminders, date)
	if err != nil {
		return nil, err
	}
	return collectReminders(rows)
}

const deleteUserReminder = `DELETE FROM reminders WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteUserReminder(ctx context.Context, id, userID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteUserReminder, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const updateReminderLastRun = `UPDATE reminders SET last_run = ? WHERE id = ?`

func (q *Queries) UpdateReminderLastRun(ctx context.Context, lastRun, id int64) error {
	_, err := q.db.ExecContext(ctx, updateReminderLastRun, lastRun, id)
	return err
}

// feedback

const createFeedback = `INSERT INTO feedback (user_id, description, category, created_at) VALUES (?, ?, ?, ?)`

func (q *Queries) CreateFeedback(ctx context.Context, arg Feedback) error {
	_, err := q.db.ExecContext(ctx, createFeedback, arg.UserID, arg.Description, arg.Category, arg.CreatedAt)
	return err
}

const listFeedback = `SELECT id, user_id, description, category, created_at FROM feedback ORDER BY id`

func (q *Queries) ListFeedback(ctx context.Context) ([]Feedback, error) {
	rows, err := q.db.QueryContext(ctx, listFeedback)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Feedback
	for rows.Next() {
		var f Feedback
		if err := rows.Scan(&f.ID, &f.UserID, &f.Description, &f.Category, &f.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}
