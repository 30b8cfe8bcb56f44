// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing decimal amounts from user input
// and formatting them back for chat replies.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseDecimal converts a user-typed amount to a decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and ignores
// spaces used as thousands separators ("1 500"). Signs are rejected: only
// non-negative amounts can be typed.
//
// Examples:
//
//	ParseDecimal("12.34")  -> 12.34, nil
//	ParseDecimal("12,34")  -> 12.34, nil
//	ParseDecimal("1 500")  -> 1500, nil
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	s = strings.TrimSuffix(s, ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders an amount with space-grouped thousands and at most two
// decimals: 1500 -> "1 500", 12.5 -> "12,50".
func FormatAmount(d decimal.Decimal) string {
	d = d.Round(2)
	neg := d.IsNegative()
	d = d.Abs()

	whole := d.Truncate(0)
	frac := d.Sub(whole)

	digits := whole.String()
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	if !frac.IsZero() {
		b.WriteByte(',')
		b.WriteString(strings.TrimPrefix(frac.StringFixed(2), "0."))
	}
	return b.String()
}

// FormatMoney joins an amount with its currency token: "1 500 тг".
func FormatMoney(d decimal.Decimal, currency string) string {
	return FormatAmount(d) + " " + currency
}

func (m Money) String() string {
	return FormatMoney(m.Amount, m.Currency)
}

// Money returns the expense amount with its currency.
func (e Expense) Money() Money {
	return Money{Amount: e.Amount, Currency: e.Currency}
}
