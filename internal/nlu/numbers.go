package nlu

import (
	"strconv"
	"strings"
)

// number word ranks; a word may follow another in the same number only when
// its rank is strictly lower
const (
	rankUnit = iota + 1
	rankTen
	rankHundred
	rankThousand
)

type numberWord struct {
	value int
	rank  int
}

var numberWords = map[string]numberWord{
	"ноль": {0, rankUnit}, "один": {1, rankUnit}, "одна": {1, rankUnit}, "одну": {1, rankUnit},
	"два": {2, rankUnit}, "две": {2, rankUnit}, "три": {3, rankUnit}, "четыре": {4, rankUnit},
	"пять": {5, rankUnit}, "шесть": {6, rankUnit}, "семь": {7, rankUnit}, "восемь": {8, rankUnit},
	"девять": {9, rankUnit},

	"десять": {10, rankUnit}, "одиннадцать": {11, rankUnit}, "двенадцать": {12, rankUnit},
	"тринадцать": {13, rankUnit}, "четырнадцать": {14, rankUnit}, "пятнадцать": {15, rankUnit},
	"шестнадцать": {16, rankUnit}, "семнадцать": {17, rankUnit}, "восемнадцать": {18, rankUnit},
	"девятнадцать": {19, rankUnit},

	"двадцать": {20, rankTen}, "тридцать": {30, rankTen}, "сорок": {40, rankTen},
	"пятьдесят": {50, rankTen}, "шестьдесят": {60, rankTen}, "семьдесят": {70, rankTen},
	"восемьдесят": {80, rankTen}, "девяносто": {90, rankTen},

	"сто": {100, rankHundred}, "двести": {200, rankHundred}, "триста": {300, rankHundred},
	"четыреста": {400, rankHundred}, "пятьсот": {500, rankHundred}, "шестьсот": {600, rankHundred},
	"семьсот": {700, rankHundred}, "восемьсот": {800, rankHundred}, "девятьсот": {900, rankHundred},
}

var thousandWords = map[string]bool{"тысяча": true, "тысячи": true, "тысяч": true, "тысячу": true}

// Digitize replaces spelled-out Russian cardinals (0..999999) in normalized
// text with digits: "сто двадцать пять" becomes "125". Adjacent numbers that
// cannot combine stay separate, so "пять пять" becomes "5 5".
func Digitize(text string) string {
	words := strings.Fields(text)
	out := make([]string, 0, len(words))

	var (
		inNumber  bool
		thousands int
		current   int
		lastRank  int
	)
	flush := func() {
		if inNumber {
			out = append(out, strconv.Itoa(thousands+current))
		}
		inNumber, thousands, current, lastRank = false, 0, 0, 0
	}

	for _, w := range words {
		if nw, ok := numberWords[w]; ok {
			if !inNumber || nw.rank >= lastRank {
				flush()
				inNumber = true
			}
			current += nw.value
			lastRank = nw.rank
			continue
		}

		if thousandWords[w] {
			if inNumber && lastRank == rankThousand {
				flush()
			}
			if !inNumber {
				current = 1
			}
			inNumber = true
			thousands = current * 1000
			current = 0
			lastRank = rankThousand
			continue
		}

		flush()
		out = append(out, w)
	}
	flush()

	return strings.Join(out, " ")
}
