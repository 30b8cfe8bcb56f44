package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"kopilka/internal/core"

	"github.com/shopspring/decimal"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustUser(t *testing.T, repo *SQLiteRepository, telegramID int64) core.User {
	t.Helper()
	u, err := repo.UpsertUser(context.Background(), telegramID, telegramID*10, "user")
	if err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
	return u
}

func expenseAt(u core.User, amount, category string, at time.Time) core.Expense {
	return core.Expense{
		UserID:      u.ID,
		ChatID:      u.ChatID,
		GroupID:     u.GroupID,
		Amount:      decimal.RequireFromString(amount),
		Currency:    "тг",
		Description: "test",
		Category:    category,
		Confidence:  0.9,
		CreatedAt:   at,
	}
}

func TestUpsertUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.UpsertUser(ctx, 42, 100, "Аня")
	if err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
	second, err := repo.UpsertUser(ctx, 42, 200, "Анна")
	if err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("upsert created a new row: %d != %d", first.ID, second.ID)
	}
	got, err := repo.GetUser(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if got.ChatID != 200 || got.Name != "Анна" || got.GroupID != 0 {
		t.Errorf("GetUser() = %+v", got)
	}
	if _, err := repo.GetUser(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUser(missing) error = %v, want ErrNotFound", err)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := mustUser(t, repo, 1)

	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	first, err := repo.CreateExpense(ctx, expenseAt(u, "100", core.CategoryFood, base))
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	second, err := repo.CreateExpense(ctx, expenseAt(u, "12.50", core.CategoryTransport, base.Add(time.Hour)))
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}

	got, err := repo.GetExpense(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetExpense() error = %v", err)
	}
	if !got.Amount.Equal(decimal.NewFromInt(100)) || got.Category != core.CategoryFood || !got.CreatedAt.Equal(base) {
		t.Errorf("GetExpense() = %+v", got)
	}

	last, err := repo.LastExpense(ctx, u.ID)
	if err != nil {
		t.Fatalf("LastExpense() error = %v", err)
	}
	if last.ID != second.ID {
		t.Errorf("LastExpense() = %d, want %d", last.ID, second.ID)
	}

	if err := repo.UpdateExpenseCategory(ctx, second.ID, core.CategoryHealth, 1); err != nil {
		t.Fatalf("UpdateExpenseCategory() error = %v", err)
	}
	if err := repo.UpdateExpenseCategory(ctx, second.ID, "Nope", 1); !errors.Is(err, core.ErrUnknownCategory) {
		t.Errorf("UpdateExpenseCategory(unknown) error = %v", err)
	}
	if err := repo.UpdateExpenseCategory(ctx, 999, core.CategoryHealth, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateExpenseCategory(missing) error = %v", err)
	}

	if err := repo.DeleteExpense(ctx, second.ID); err != nil {
		t.Fatalf("DeleteExpense() error = %v", err)
	}
	if err := repo.DeleteExpense(ctx, second.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteExpense() error = %v, want ErrNotFound", err)
	}
	last, err = repo.LastExpense(ctx, u.ID)
	if err != nil || last.ID != first.ID {
		t.Errorf("LastExpense() after delete = %d, %v", last.ID, err)
	}
}

func TestCreateExpenseRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)
	u := mustUser(t, repo, 1)
	e := expenseAt(u, "10", "Unknown", time.Now())
	if _, err := repo.CreateExpense(context.Background(), e); !errors.Is(err, core.ErrUnknownCategory) {
		t.Fatalf("CreateExpense() error = %v", err)
	}
}

func TestMonthOverviewScopes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	owner := mustUser(t, repo, 1)
	member := mustUser(t, repo, 2)
	loner := mustUser(t, repo, 3)

	g, err := repo.CreateGroup(ctx, "семья", owner.ID, "code-1")
	if err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	if err := repo.AddMember(ctx, g.ID, member.ID); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	owner, _ = repo.GetUser(ctx, owner.ID)
	member, _ = repo.GetUser(ctx, member.ID)

	march := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	for _, e := range []core.Expense{
		expenseAt(owner, "100", core.CategoryFood, march),
		expenseAt(member, "50", core.CategoryFood, march),
		expenseAt(member, "30", core.CategoryTransport, march),
		expenseAt(loner, "999", core.CategoryFood, march),
		expenseAt(owner, "7", core.CategoryFood, march.AddDate(0, 1, 0)),
	} {
		if _, err := repo.CreateExpense(ctx, e); err != nil {
			t.Fatalf("CreateExpense() error = %v", err)
		}
	}

	ov, err := repo.MonthOverview(ctx, core.ScopeFor(owner), 2024, 3, time.UTC)
	if err != nil {
		t.Fatalf("MonthOverview() error = %v", err)
	}
	if ov.Count != 3 || !ov.Totals["тг"].Equal(decimal.NewFromInt(180)) {
		t.Errorf("group overview = %+v", ov)
	}
	if len(ov.ByCategory) != 2 || ov.ByCategory[0].Category != core.CategoryFood {
		t.Errorf("group categories = %+v", ov.ByCategory)
	}

	ov, err = repo.MonthOverview(ctx, core.ScopeFor(loner), 2024, 3, time.UTC)
	if err != nil {
		t.Fatalf("MonthOverview() error = %v", err)
	}
	if ov.Count != 1 || !ov.Totals["тг"].Equal(decimal.NewFromInt(999)) {
		t.Errorf("personal overview = %+v", ov)
	}

	spent, err := repo.SpentInMonth(ctx, core.ScopeFor(member), core.CategoryFood, "тг", 2024, 3, time.UTC)
	if err != nil {
		t.Fatalf("SpentInMonth() error = %v", err)
	}
	if !spent.Equal(decimal.NewFromInt(150)) {
		t.Errorf("SpentInMonth() = %s, want 150", spent)
	}
}

func TestGroups(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	owner := mustUser(t, repo, 1)
	member := mustUser(t, repo, 2)

	g, err := repo.CreateGroup(ctx, "дом", owner.ID, "invite")
	if err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	if _, err := repo.CreateGroup(ctx, "другая", member.ID, "invite"); err == nil {
		t.Fatal("duplicate invite code accepted")
	}

	found, err := repo.GroupByInvite(ctx, "invite")
	if err != nil || found.ID != g.ID {
		t.Fatalf("GroupByInvite() = %+v, %v", found, err)
	}
	if _, err := repo.GroupByInvite(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GroupByInvite(missing) error = %v", err)
	}

	if err := repo.AddMember(ctx, g.ID, member.ID); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	members, err := repo.GroupMembers(ctx, g.ID)
	if err != nil || len(members) != 2 {
		t.Fatalf("GroupMembers() = %v, %v", members, err)
	}
	ug, err := repo.UserGroup(ctx, member.ID)
	if err != nil || ug.ID != g.ID {
		t.Fatalf("UserGroup() = %+v, %v", ug, err)
	}

	if err := repo.RemoveMember(ctx, member.ID); err != nil {
		t.Fatalf("RemoveMember() error = %v", err)
	}
	if _, err := repo.UserGroup(ctx, member.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("UserGroup() after leave error = %v", err)
	}
	if err := repo.RemoveMember(ctx, member.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("RemoveMember() twice error = %v", err)
	}

	if err := repo.RemoveMember(ctx, owner.ID); err != nil {
		t.Fatalf("RemoveMember(owner) error = %v", err)
	}
	if _, err := repo.GetGroup(ctx, g.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty group still present: %v", err)
	}
}

func TestBudgets(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := mustUser(t, repo, 1)
	scope := core.ScopeFor(u)

	b := core.Budget{Scope: scope, Category: core.CategoryFood, Limit: decimal.NewFromInt(1000), Currency: "тг"}
	if _, err := repo.SetBudget(ctx, b); err != nil {
		t.Fatalf("SetBudget() error = %v", err)
	}
	b.Limit = decimal.NewFromInt(2000)
	if _, err := repo.SetBudget(ctx, b); err != nil {
		t.Fatalf("SetBudget() replace error = %v", err)
	}
	if _, err := repo.SetBudget(ctx, core.Budget{Scope: scope, Category: core.CategoryFood, Currency: "тг"}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("SetBudget(zero) error = %v", err)
	}

	budgets, err := repo.ListBudgets(ctx, scope)
	if err != nil {
		t.Fatalf("ListBudgets() error = %v", err)
	}
	if len(budgets) != 1 || !budgets[0].Limit.Equal(decimal.NewFromInt(2000)) || budgets[0].Scope != scope {
		t.Fatalf("ListBudgets() = %+v", budgets)
	}

	got, err := repo.GetBudget(ctx, scope, core.CategoryFood)
	if err != nil || got.ID != budgets[0].ID {
		t.Fatalf("GetBudget() = %+v, %v", got, err)
	}

	if err := repo.DeleteBudget(ctx, scope, core.CategoryFood); err != nil {
		t.Fatalf("DeleteBudget() error = %v", err)
	}
	if _, err := repo.GetBudget(ctx, scope, core.CategoryFood); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetBudget() after delete error = %v", err)
	}
	if err := repo.DeleteBudget(ctx, scope, core.CategoryFood); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteBudget() twice error = %v", err)
	}
}

func TestReminders(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := mustUser(t, repo, 1)
	other := mustUser(t, repo, 2)

	rem, err := repo.CreateReminder(ctx, core.Reminder{
		UserID:    u.ID,
		ChatID:    u.ChatID,
		Text:      "оплатить интернет",
		Every:     core.Monthly,
		Hour:      9,
		StartDate: core.NewDate(2024, 3, 10),
	})
	if err != nil {
		t.Fatalf("CreateReminder() error = %v", err)
	}
	if _, err := repo.CreateReminder(ctx, core.Reminder{UserID: u.ID, Text: "x", Every: "hourly", StartDate: core.NewDate(2024, 3, 10)}); err == nil {
		t.Fatal("invalid reminder accepted")
	}

	active, err := repo.ActiveReminders(ctx, time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC))
	if err != nil || len(active) != 0 {
		t.Fatalf("ActiveReminders(before start) = %v, %v", active, err)
	}
	active, err = repo.ActiveReminders(ctx, time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC))
	if err != nil || len(active) != 1 {
		t.Fatalf("ActiveReminders(start day) = %v, %v", active, err)
	}
	if !active[0].LastRun.IsZero() || active[0].StartDate.Day() != 10 {
		t.Errorf("reminder = %+v", active[0])
	}

	ran := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	if err := repo.UpdateReminderLastRun(ctx, rem.ID, ran); err != nil {
		t.Fatalf("UpdateReminderLastRun() error = %v", err)
	}
	list, err := repo.ListReminders(ctx, u.ID)
	if err != nil || len(list) != 1 || !list[0].LastRun.Equal(ran) {
		t.Fatalf("ListReminders() = %+v, %v", list, err)
	}

	if err := repo.DeleteReminder(ctx, other.ID, rem.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteReminder(other user) error = %v", err)
	}
	if err := repo.DeleteReminder(ctx, u.ID, rem.ID); err != nil {
		t.Fatalf("DeleteReminder() error = %v", err)
	}
}

func TestFeedback(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SaveFeedback(ctx, "шаурма", core.CategoryFood, 1); err != nil {
		t.Fatalf("SaveFeedback() error = %v", err)
	}
	if err := repo.SaveFeedback(ctx, "такси", core.CategoryTransport, 1); err != nil {
		t.Fatalf("SaveFeedback() error = %v", err)
	}
	rows, err := repo.ListFeedback(ctx)
	if err != nil {
		t.Fatalf("ListFeedback() error = %v", err)
	}
	if len(rows) != 2 || rows[0].Description != "шаурма" || rows[1].Category != core.CategoryTransport {
		t.Fatalf("ListFeedback() = %+v", rows)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	for i := 0; i < 2; i++ {
		repo, err := NewSQLiteRepository(path)
		if err != nil {
			t.Fatalf("open #%d error = %v", i, err)
		}
		repo.Close()
	}

	version, err := MigrateUp(path)
	if err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}
	if version != 1 {
		t.Fatalf("MigrateUp() version = %d, want 1", version)
	}
}

func TestMigrateDown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "down.db")
	if _, err := MigrateUp(path); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}
	if err := MigrateDown(path); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}
	// Rolling back twice is a no-op.
	if err := MigrateDown(path); err != nil {
		t.Fatalf("second MigrateDown() error = %v", err)
	}
	version, err := MigrateUp(path)
	if err != nil || version != 1 {
		t.Fatalf("MigrateUp() after down = %d, %v", version, err)
	}
}
