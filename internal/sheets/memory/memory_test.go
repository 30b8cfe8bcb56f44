package memory

import (
	"context"
	"testing"

	"kopilka/internal/core"
	"kopilka/internal/sheets"

	"github.com/shopspring/decimal"
)

func TestStoreExport(t *testing.T) {
	s := New()
	ctx := context.Background()

	e := core.Expense{ID: 7, Amount: decimal.NewFromInt(100), Currency: "тг", Description: "хлеб", Category: core.CategoryFood}
	ref, err := s.Export(ctx, sheets.RowFromExpense(e, "anna"))
	if err != nil || ref != "mem:1" {
		t.Fatalf("Export() = %q, %v", ref, err)
	}

	e.Category = core.CategoryOther
	ref, err = s.Export(ctx, sheets.RowFromExpense(e, "anna"))
	if err != nil || ref != "mem:1" {
		t.Fatalf("re-export = %q, %v", ref, err)
	}

	rows := s.Rows()
	if len(rows) != 1 || rows[0].Category != core.CategoryOther {
		t.Fatalf("Rows() = %+v", rows)
	}

	if _, err := s.Export(ctx, sheets.ExportRow{}); err == nil {
		t.Fatal("row without id accepted")
	}
}
