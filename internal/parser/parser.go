// Package parser extracts amount, currency and description from a single line
// of free-form expense text such as "хлеб 100тг" or "1500тг бензин".
package parser

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"kopilka/internal/core"
)

const (
	amountPattern   = `\d+(?:[ \x{00A0}]\d{3})*(?:[.,]\d+)?`
	currencyPattern = `(?i:тенге|[^\d\s]{1,4})`
)

// Strategies are tried in this order. Group indices point into the submatch
// slice; zero means the strategy has no such group.
var strategies = []struct {
	re                     *regexp.Regexp
	desc, amount, sep, cur int
}{
	// "хлеб 100тг"
	{regexp.MustCompile(`^(?:(.*?)\s+)?(` + amountPattern + `)(\s*)(` + currencyPattern + `)$`), 1, 2, 3, 4},
	// "100тг хлеб"
	{regexp.MustCompile(`^(` + amountPattern + `)(\s*)(` + currencyPattern + `)(?:\s+(.*))?$`), 4, 1, 2, 3},
	// "хлеб 100"
	{regexp.MustCompile(`^(?:(.*?)\s+)?(` + amountPattern + `)$`), 1, 2, 0, 0},
	// "100 хлеб"
	{regexp.MustCompile(`^(` + amountPattern + `)(?:\s+(.*))?$`), 2, 1, 0, 0},
}

var amountOnly = regexp.MustCompile(`^` + amountPattern + `$`)

// knownCurrencies are kept verbatim and may be separated from the amount by
// whitespace ("100 руб"). Other short alphabetic tokens must touch the amount.
var knownCurrencies = map[string]struct{}{
	"тг":    {},
	"kzt":   {},
	"тенге": {},
	"$":     {},
	"usd":   {},
	"руб":   {},
	"rub":   {},
	"₽":     {},
	"eur":   {},
}

// Parser is stateless apart from its default currency and is safe for
// concurrent use.
type Parser struct {
	DefaultCurrency string
}

// New returns a parser that assigns defaultCurrency to lines without a
// currency token. An empty value falls back to core.DefaultCurrency.
func New(defaultCurrency string) *Parser {
	if strings.TrimSpace(defaultCurrency) == "" {
		defaultCurrency = core.DefaultCurrency
	}
	return &Parser{DefaultCurrency: defaultCurrency}
}

// Parse extracts an expense from text. ok is false when no strategy finds an
// amount.
func (p *Parser) Parse(text string) (core.ParsedExpense, bool) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\u00a0", " "))
	if text == "" {
		return core.ParsedExpense{}, false
	}

	for _, s := range strategies {
		m := s.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		currency, ok := p.resolveCurrency(group(m, s.cur), group(m, s.sep))
		if !ok {
			continue
		}
		amount, err := core.ParseDecimal(group(m, s.amount))
		if err != nil {
			continue
		}
		return core.ParsedExpense{
			Amount:      amount,
			Currency:    currency,
			Description: cleanDescription(m[s.desc]),
		}, true
	}
	return core.ParsedExpense{}, false
}

// ParseAmount accepts text that is only an amount ("1 500", "12,5").
func (p *Parser) ParseAmount(text string) (decimal.Decimal, bool) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\u00a0", " "))
	if !amountOnly.MatchString(text) {
		return decimal.Zero, false
	}
	d, err := core.ParseDecimal(text)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func group(m []string, i int) string {
	if i == 0 || i >= len(m) {
		return ""
	}
	return m[i]
}

func (p *Parser) defaultCurrency() string {
	if p == nil || p.DefaultCurrency == "" {
		return core.DefaultCurrency
	}
	return p.DefaultCurrency
}

// IsKnownCurrency reports whether token is one of the recognized currency
// tokens, ignoring case.
func IsKnownCurrency(token string) bool {
	_, ok := knownCurrencies[strings.ToLower(token)]
	return ok
}

// resolveCurrency maps the token next to an amount to a currency. Known
// tokens are kept as typed and other letter tokens touching the amount are
// custom currencies; anything else ("€", a trailing ".") gets the default.
// ok is false for a letter token separated by whitespace, which is part of the
// description rather than a currency.
func (p *Parser) resolveCurrency(token, sep string) (currency string, ok bool) {
	token = strings.TrimRightFunc(token, unicode.IsPunct)
	if token == "" {
		return p.defaultCurrency(), true
	}
	if IsKnownCurrency(token) {
		return token, true
	}
	for _, r := range token {
		if !unicode.IsLetter(r) {
			return p.defaultCurrency(), true
		}
	}
	if sep != "" {
		return "", false
	}
	return token, true
}

func cleanDescription(s string) string {
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune("-–—:,;", r)
	})
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return core.NoDescription
	}
	return s
}
