package streets

import (
	"sort"
	"strings"
)

var intersectionKeywords = []string{"გადაკვეთა", "კვეთა"}

const intersectionSeparator = " და "

// HasIntersection reports whether raw names a crossing of two streets and
// returns both sides. A keyword starts a word, so inflected forms such as
// "კვეთაზე" are dropped whole.
func HasIntersection(raw string) (bool, [2]string) {
	found := false
	words := strings.Fields(raw)
	kept := make([]string, 0, len(words))
	for _, word := range words {
		if isIntersectionWord(word) {
			found = true
			continue
		}
		kept = append(kept, word)
	}
	if !found {
		return false, [2]string{}
	}

	parts := strings.Split(strings.Join(kept, " "), intersectionSeparator)
	if len(parts) != 2 {
		return false, [2]string{}
	}
	left, right := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if left == "" || right == "" {
		return false, [2]string{}
	}
	return true, [2]string{left, right}
}

func isIntersectionWord(word string) bool {
	for _, keyword := range intersectionKeywords {
		if strings.HasPrefix(word, keyword) {
			return true
		}
	}
	return false
}

// GetBestMatches returns the best street for raw, or the best street for each
// side of an intersection in left-to-right order
func (c *Corpus) GetBestMatches(raw string, cities ...string) []Match {
	if ok, sides := HasIntersection(raw); ok {
		out := make([]Match, 0, 2)
		for _, side := range sides {
			if m, found := c.best(side, cities); found {
				out = append(out, m)
			}
		}
		return out
	}
	if m, found := c.best(raw, cities); found {
		return []Match{m}
	}
	return nil
}

// AllMatches scores raw against every candidate street, best first. Ties keep
// corpus order.
func (c *Corpus) AllMatches(raw string, cities ...string) []Match {
	tokens := QueryTokens(raw)
	if len(tokens) == 0 {
		return nil
	}

	candidates := c.candidates(cities)
	matches := make([]Match, 0, len(candidates))
	for _, street := range candidates {
		matches = append(matches, Match{
			Street: street,
			City:   street.City,
			Query:  raw,
			Result: street.Similarity(tokens, c.weights),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Result.Similarity > matches[j].Result.Similarity
	})
	return matches
}

func (c *Corpus) best(raw string, cities []string) (Match, bool) {
	matches := c.AllMatches(raw, cities...)
	if len(matches) == 0 {
		return Match{}, false
	}
	return matches[0], true
}
