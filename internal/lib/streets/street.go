package streets

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/paulmach/orb/geojson"
	"golang.org/x/text/unicode/norm"

	"github.com/georgia-utilities/alertbot/internal/lib/geo"
)

// MatcherStreet is a named street of one city with all of its geometry
type MatcherStreet struct {
	Name       string             `json:"name"`
	City       string             `json:"city"`
	Type       StreetType         `json:"type"`
	Parts      []string           `json:"parts"`
	Geometries []geo.Geometry     `json:"geometries"`
	Features   []*geojson.Feature `json:"-"`
}

// NewMatcherStreet creates a street from a raw corpus name
func NewMatcherStreet(name, city string) *MatcherStreet {
	cleaned := CleanName(name)
	streetType := GetStreetType(cleaned)
	return &MatcherStreet{
		Name:  cleaned,
		City:  city,
		Type:  streetType,
		Parts: nameParts(cleaned),
	}
}

// Combine folds another street's geometry and features into s
func (s *MatcherStreet) Combine(other *MatcherStreet) {
	if other == nil || other == s {
		return
	}
	s.Geometries = append(s.Geometries, other.Geometries...)
	s.Features = append(s.Features, other.Features...)
}

// Similarity scores query tokens (see QueryTokens) against the street's parts.
// Each input token takes the best of the exact, prefix and fuzzy rules over
// the parts not yet claimed by an exact match.
func (s *MatcherStreet) Similarity(tokens []string, w ScoreWeights) MatchResult {
	result := MatchResult{Parts: make([]PartSimilarity, 0, len(tokens))}
	claimed := make([]bool, len(s.Parts))

	for _, token := range tokens {
		inLen := float64(utf8.RuneCountInString(token))
		result.QueryLength += int(inLen)

		best := PartSimilarity{Name: token, Reason: ReasonNone}
		bestIdx := -1
		for i, part := range s.Parts {
			if claimed[i] {
				continue
			}
			var score float64
			var reason string
			switch {
			case part == token:
				score, reason = inLen*w.Exact, ReasonExact
			case strings.HasPrefix(part, token):
				candLen := float64(utf8.RuneCountInString(part))
				score, reason = (candLen-inLen)/w.PrefixDivisor+inLen, ReasonPrefix
			default:
				score, reason = similarity(token, part, w)*inLen*w.Fuzzy, ReasonFuzzy
			}
			if score > best.Similarity {
				best = PartSimilarity{Name: token, Matched: part, Similarity: score, Reason: reason}
				bestIdx = i
			}
		}

		if best.Reason == ReasonExact {
			claimed[bestIdx] = true
		}
		result.Similarity += best.Similarity
		result.Parts = append(result.Parts, best)
	}
	return result
}

var nameReplacer = strings.NewReplacer(
	"-", " ", "–", " ", "—", " ", "_", " ",
	"\"", "", "'", "", "`", "", "“", "", "”", "", "„", "", "«", "", "»", "", "‘", "", "’", "",
)

// CleanName normalizes a street name for comparison
func CleanName(name string) string {
	name = norm.NFC.String(name)
	name = nameReplacer.Replace(name)
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// nameWords splits a name into cleaned words; "." separates words
func nameWords(name string) []string {
	return strings.Fields(strings.ReplaceAll(CleanName(name), ".", " "))
}

// GetStreetType infers the type from the first word matching a keyword
func GetStreetType(name string) StreetType {
	words := nameWords(name)
	for _, entry := range streetTypeKeywords {
		for _, word := range words {
			for _, keyword := range entry.Keywords {
				if word == keyword {
					return entry.Type
				}
			}
		}
	}
	return StreetNone
}

func isTypeKeyword(word string) bool {
	for _, entry := range streetTypeKeywords {
		for _, keyword := range entry.Keywords {
			if word == keyword {
				return true
			}
		}
	}
	return false
}

// nameParts returns the words of a name without type keywords, longest first
func nameParts(cleaned string) []string {
	words := nameWords(cleaned)
	parts := make([]string, 0, len(words))
	for _, word := range words {
		if !isTypeKeyword(word) {
			parts = append(parts, word)
		}
	}
	sort.SliceStable(parts, func(i, j int) bool {
		return utf8.RuneCountInString(parts[i]) > utf8.RuneCountInString(parts[j])
	})
	return parts
}

// queryAbbreviations are dropped from queries along with the type keywords
var queryAbbreviations = map[string]bool{"ქ": true, "გამზ": true}

// QueryTokens splits free text into the tokens scored by Similarity: cleaned,
// type keywords dropped, Latin and Cyrillic rewritten to Georgian, longest first
func QueryTokens(raw string) []string {
	words := nameWords(raw)
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if isTypeKeyword(word) || queryAbbreviations[word] {
			continue
		}
		tokens = append(tokens, ToGeorgian(word))
	}
	sort.SliceStable(tokens, func(i, j int) bool {
		return utf8.RuneCountInString(tokens[i]) > utf8.RuneCountInString(tokens[j])
	})
	return tokens
}
