package streets

import (
	"fmt"
	"strings"
)

// StreetType is the category inferred from a keyword in a street name
type StreetType string

const (
	StreetNone    StreetType = ""
	StreetStreet  StreetType = "Street"
	StreetAvenue  StreetType = "Avenue"
	StreetLane    StreetType = "Lane"
	StreetDeadEnd StreetType = "DeadEnd"
	StreetHighway StreetType = "Highway"
	StreetUphill  StreetType = "Uphill"
	StreetSquare  StreetType = "Square"
)

// streetTypeKeywords lists the Georgian keywords of each type. Order matters:
// the first type with a matching word wins.
var streetTypeKeywords = []struct {
	Type     StreetType
	Keywords []string
}{
	{StreetStreet, []string{"ქუჩა", "ქუჩის", "ქუხა"}},
	{StreetAvenue, []string{"გამზირი"}},
	{StreetLane, []string{"შესახვევი", "შეს"}},
	{StreetDeadEnd, []string{"ჩიხი"}},
	{StreetHighway, []string{"მაგისტრალი", "გზატკეცილი"}},
	{StreetUphill, []string{"აღმართი"}},
	{StreetSquare, []string{"მოედანი"}},
}

// AllStreetTypes is the bucket order searched by the matcher; untyped last
var AllStreetTypes = []StreetType{
	StreetStreet, StreetAvenue, StreetLane, StreetDeadEnd,
	StreetHighway, StreetUphill, StreetSquare, StreetNone,
}

// ScoreWeights are the hand-tuned constants of the token scoring rules.
// Match quality depends on their ratios.
type ScoreWeights struct {
	// Exact token match scores len * Exact
	Exact float64 `yaml:"exact" koanf:"exact"`

	// Prefix match scores (candLen - inLen) / PrefixDivisor + inLen
	PrefixDivisor float64 `yaml:"prefixDivisor" koanf:"prefixDivisor"`

	// Fuzzy match scores similarity * inLen * Fuzzy
	Fuzzy float64 `yaml:"fuzzy" koanf:"fuzzy"`

	// Share of Jaro-Winkler in the edit part of the fuzzy similarity, the
	// rest is Levenshtein
	JaroWinklerShare float64 `yaml:"jaroWinklerShare" koanf:"jaroWinklerShare"`

	// Minimum letter-pair overlap for a fuzzy match to score at all
	FuzzyFloor float64 `yaml:"fuzzyFloor" koanf:"fuzzyFloor"`
}

// DefaultScoreWeights returns the tuned defaults
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Exact:            4,
		PrefixDivisor:    3,
		Fuzzy:            2,
		JaroWinklerShare: 0.7,
		FuzzyFloor:       0.5,
	}
}

const (
	// DefaultAcceptanceThreshold is the minimum normalized rating of an accepted match
	DefaultAcceptanceThreshold = 0.25

	// DefaultNormalizationWeight is the best possible score per input rune
	DefaultNormalizationWeight = 4.0
)

// ResolverOptions control how raw scores become accepted matches
type ResolverOptions struct {
	AcceptanceThreshold float64 `yaml:"acceptanceThreshold" koanf:"acceptanceThreshold"`
	NormalizationWeight float64 `yaml:"normalizationWeight" koanf:"normalizationWeight"`
}

// DefaultResolverOptions returns the tuned defaults
func DefaultResolverOptions() ResolverOptions {
	return ResolverOptions{
		AcceptanceThreshold: DefaultAcceptanceThreshold,
		NormalizationWeight: DefaultNormalizationWeight,
	}
}

// Match reasons recorded per input token
const (
	ReasonExact  = "exact"
	ReasonPrefix = "prefix"
	ReasonFuzzy  = "fuzzy"
	ReasonNone   = "none"
)

// PartSimilarity records how one input token scored
type PartSimilarity struct {
	Name       string  `json:"name"`
	Matched    string  `json:"matched,omitempty"`
	Similarity float64 `json:"similarity"`
	Reason     string  `json:"reason"`
}

// MatchResult is the raw, unbounded score of a query against one street
type MatchResult struct {
	Similarity float64          `json:"similarity"`
	Parts      []PartSimilarity `json:"parts"`

	// QueryLength is the rune count of the scored query tokens
	QueryLength int `json:"query_length"`
}

func (m MatchResult) String() string {
	parts := make([]string, 0, len(m.Parts))
	for _, p := range m.Parts {
		parts = append(parts, fmt.Sprintf("%s: %.2f [%s %s]", p.Name, p.Similarity, p.Reason, p.Matched))
	}
	return fmt.Sprintf("similarity: %.2f, partSimilarity: %s", m.Similarity, strings.Join(parts, ", "))
}

// Match pairs a corpus street with its score
type Match struct {
	Street *MatcherStreet `json:"-"`
	City   string         `json:"city"`
	Query  string         `json:"query"`
	Result MatchResult    `json:"result"`
}

// StreetFinderResult is one accepted match
type StreetFinderResult struct {
	Input  string         `json:"input"`
	Match  string         `json:"match"`
	Rating float64        `json:"rating"`
	Street *MatcherStreet `json:"-"`
}

// Matcher finds corpus streets for free-text fragments
type Matcher interface {
	// Best match, or best match per side for an intersection query
	GetBestMatches(raw string, cities ...string) []Match

	// Every candidate sorted by descending score
	AllMatches(raw string, cities ...string) []Match
}

// NewCorpus is implemented in corpus.go
