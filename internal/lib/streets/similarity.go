package streets

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/mozillazg/go-unidecode"
	"github.com/xrash/smetrics"
)

// similarity scores two tokens in [0,1]. Tokens whose letter pairs overlap
// less than w.FuzzyFloor score 0. Above the floor the pair overlap is
// averaged with a blend of Jaro-Winkler and normalized Levenshtein.
// Jaro-Winkler is byte oriented, so it runs on the romanized strings; the
// shared lead bytes of Georgian UTF-8 would otherwise inflate every score.
func similarity(a, b string, w ScoreWeights) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	dice := diceCoefficient(a, b)
	if dice < w.FuzzyFloor {
		return 0
	}

	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	lev := 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)

	ra, rb := unidecode.Unidecode(a), unidecode.Unidecode(b)
	if ra == "" || rb == "" {
		ra, rb = a, b
	}
	jw := smetrics.JaroWinkler(ra, rb, 0.7, 4)

	edit := w.JaroWinklerShare*jw + (1-w.JaroWinklerShare)*lev
	return (dice + edit) / 2
}

// diceCoefficient is the Dice overlap of the rune bigrams of a and b.
// Strings shorter than two runes only match themselves.
func diceCoefficient(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < 2 || len(rb) < 2 {
		if a == b {
			return 1
		}
		return 0
	}

	pairs := make(map[[2]rune]int, len(ra)-1)
	for i := 0; i+1 < len(ra); i++ {
		pairs[[2]rune{ra[i], ra[i+1]}]++
	}
	shared := 0
	for i := 0; i+1 < len(rb); i++ {
		pair := [2]rune{rb[i], rb[i+1]}
		if pairs[pair] > 0 {
			pairs[pair]--
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(ra)+len(rb)-2)
}
