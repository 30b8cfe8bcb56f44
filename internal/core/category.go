package core

import "strings"

// Spending categories. The set is closed; CategoryOther is the catch-all.
const (
	CategoryFood          = "Еда"
	CategoryTransport     = "Транспорт"
	CategoryEntertainment = "Развлечения"
	CategoryClothing      = "Одежда"
	CategoryHousing       = "Жилье"
	CategoryHealth        = "Здоровье"
	CategoryTelecom       = "Связь"
	CategoryHousehold     = "Дом/Канцелярия"
	CategoryOther         = "Прочее"
)

var categories = []string{
	CategoryFood,
	CategoryTransport,
	CategoryEntertainment,
	CategoryClothing,
	CategoryHousing,
	CategoryHealth,
	CategoryTelecom,
	CategoryHousehold,
	CategoryOther,
}

// Categories returns the closed category set in display order.
func Categories() []string {
	return append([]string(nil), categories...)
}

// IsCategory reports whether name is exactly one of the known categories.
func IsCategory(name string) bool {
	for _, c := range categories {
		if c == name {
			return true
		}
	}
	return false
}

// NormalizeCategory resolves user input to a category, ignoring case and
// surrounding whitespace. "дом" and "канцелярия" both resolve to
// CategoryHousehold.
func NormalizeCategory(input string) (string, bool) {
	in := strings.ToLower(strings.TrimSpace(input))
	if in == "" {
		return "", false
	}
	for _, c := range categories {
		if strings.ToLower(c) == in {
			return c, true
		}
	}
	if in == "дом" || in == "канцелярия" {
		return CategoryHousehold, true
	}
	return "", false
}
