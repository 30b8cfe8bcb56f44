package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0", "0", true},
		{"1 500", "1500", true},
		{"1 500,5", "1500.5", true},
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseDecimal(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"0", "0"},
		{"5", "5"},
		{"999", "999"},
		{"1500", "1 500"},
		{"1234567", "1 234 567"},
		{"12.5", "12,50"},
		{"1500.256", "1 500,26"},
	}
	for _, tc := range cases {
		got := FormatAmount(decimal.RequireFromString(tc.in))
		if got != tc.out {
			t.Fatalf("%s: got %q, want %q", tc.in, got, tc.out)
		}
	}
	if got := FormatMoney(decimal.NewFromInt(1500), "тг"); got != "1 500 тг" {
		t.Fatalf("FormatMoney = %q", got)
	}
}
