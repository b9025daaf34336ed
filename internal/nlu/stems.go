package nlu

import "strings"

// word matches the rest of a word after a root. RE2's \w is ASCII-only,
// so Cyrillic word tails are spelled out as \p{L}.
const word = `\p{L}*`

// StemSet is a closed alternation of word roots naming one class of objects.
// Every entry matches a whole word (or a fixed short phrase).
type StemSet struct {
	Name  string
	Words []string
}

// Pattern returns the set as a non-capturing alternation
func (s StemSet) Pattern() string {
	return "(?:" + strings.Join(s.Words, "|") + ")"
}

// With returns a copy extended by extra words
func (s StemSet) With(words ...string) StemSet {
	out := StemSet{Name: s.Name, Words: make([]string, 0, len(s.Words)+len(words))}
	out.Words = append(out.Words, s.Words...)
	out.Words = append(out.Words, words...)
	return out
}

// Stems groups the stem sets used to build the default rule table
type Stems struct {
	Catalog  StemSet
	Document StemSet
	Report   StemSet
	Register StemSet
}

func roots(rs ...string) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r + word
	}
	return out
}

// DefaultStems returns the warehouse configuration vocabulary
func DefaultStems() Stems {
	return Stems{
		Catalog: StemSet{
			Name:  "catalog",
			Words: roots("номенклатур", "номенкатур", "организац", "сотрудник", "должност", "контрагент", "адрес"),
		},
		Document: StemSet{
			Name: "doc",
			Words: append(
				roots("договор", "приходн", "расходн", "накладн", "перемещен", "заказ", "расположен", "инвент"),
				// "акт" must not swallow "актуальные" (a report word)
				`акт(?:ы|а|у|ом|ов|е|ам|ами|ах)?`,
				`цен`+word+`\s+на`,
			),
		},
		Report: StemSet{
			Name:  "report",
			Words: roots("актуальн", "результат", "остат", "хранени", "продаж"),
		},
		Register: StemSet{
			Name:  "reg",
			Words: append(roots("закупочн", "цен"), "список"),
		},
	}
}
