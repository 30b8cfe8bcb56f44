package classifier

import (
	"strings"
	"unicode"

	"kopilka/internal/core"
)

// Entry binds a category to the keywords that identify it.
type Entry struct {
	Category string
	Keywords []string
}

// Dictionary is an ordered keyword table. Lookup returns the first entry with
// a matching keyword, so earlier entries win on overlap.
type Dictionary []Entry

// DefaultDictionary is the bundled keyword table. It doubles as the seed
// training set.
var DefaultDictionary = Dictionary{
	{core.CategoryFood, []string{
		"хлеб", "молоко", "продукты", "мясо", "сыр", "яйца", "овощи", "фрукты",
		"обед", "ужин", "завтрак", "кафе", "кофе", "пицца", "супермаркет", "сахар", "колбаса",
	}},
	{core.CategoryTransport, []string{
		"такси", "бензин", "автобус", "метро", "проезд", "парковка", "поезд", "самолет",
		"авиабилет", "заправка", "шиномонтаж", "автомойка", "каршеринг", "трамвай",
	}},
	{core.CategoryEntertainment, []string{
		"кино", "театр", "концерт", "боулинг", "музей", "караоке", "аттракцион",
		"бильярд", "квест", "выставка", "ночной клуб", "видеоигра", "подписка",
	}},
	{core.CategoryClothing, []string{
		"одежда", "куртка", "джинсы", "футболка", "обувь", "кроссовки", "платье",
		"рубашка", "носки", "штаны", "шапка", "пальто", "ботинки", "свитер",
	}},
	{core.CategoryHousing, []string{
		"аренда", "квартплата", "коммуналка", "электричество", "отопление", "ипотека",
		"жкх", "домофон", "капремонт", "вывоз мусора", "водоснабжение",
	}},
	{core.CategoryHealth, []string{
		"аптека", "лекарства", "врач", "стоматолог", "анализы", "таблетки", "витамины",
		"клиника", "больница", "массаж", "очки", "медосмотр",
	}},
	{core.CategoryTelecom, []string{
		"телефон", "интернет", "связь", "сотовый", "мтс", "билайн", "beeline", "kcell",
		"симкарта", "тариф", "роуминг",
	}},
	{core.CategoryHousehold, []string{
		"бумага", "ручка", "тетрадь", "канцтовары", "степлер", "моющее средство",
		"порошок", "посуда", "мебель", "лампочка", "мыло", "губки", "полотенце", "ремонт",
	}},
}

// Lookup returns the category of the first keyword found as a substring of
// the lowercased text, or core.CategoryOther.
func (d Dictionary) Lookup(text string) string {
	text = strings.ToLower(text)
	if strings.TrimSpace(text) == "" {
		return core.CategoryOther
	}
	for _, e := range d {
		for _, kw := range e.Keywords {
			if strings.Contains(text, kw) {
				return e.Category
			}
		}
	}
	return core.CategoryOther
}

// SeedExamples turns every keyword into a training example.
func (d Dictionary) SeedExamples() []Example {
	var out []Example
	for _, e := range d {
		for _, kw := range e.Keywords {
			out = append(out, Example{Text: kw, Category: e.Category})
		}
	}
	return out
}

// Normalize lowercases text, replaces everything except letters with spaces
// and collapses whitespace.
func Normalize(text string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)
	return strings.Join(strings.Fields(mapped), " ")
}
