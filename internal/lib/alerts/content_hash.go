package alerts

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"
)

var (
	whitespacePattern  = regexp.MustCompile(`\s+`)
	punctuationPattern = regexp.MustCompile(`[.,;:!?()"'«»„“”-]`)
)

// ContentHasher fingerprints alerts so unchanged ones skip the field diff
type ContentHasher struct{}

// NewContentHasher creates a new content hasher
func NewContentHasher() *ContentHasher {
	return &ContentHasher{}
}

// HashAlert hashes the normalized fields that matter for publication.
// The free-text "dif" counter is left out because the feed bumps it
// without any visible change.
func (h *ContentHasher) HashAlert(a Alert) string {
	contentSignature := fmt.Sprintf("%d|%s|%s|%s|%s|%s|%s|%s|%s",
		a.TaskID,
		h.normalizeText(a.TaskName),
		h.normalizeText(a.TaskNote),
		h.normalizeText(a.DisconnectionArea),
		h.normalizeText(a.RegionName),
		h.normalizeText(a.ScName),
		strings.TrimSpace(a.DisconnectionDate),
		strings.TrimSpace(a.ReconnectionDate),
		strings.TrimSpace(string(a.TaskType)),
	)

	hash := sha256.Sum256([]byte(contentSignature))
	return fmt.Sprintf("%x", hash)
}

// HashSocar hashes a gas outage by object and time window
func (h *ContentHasher) HashSocar(a SocarAlert) string {
	contentSignature := fmt.Sprintf("%d|%s|%s|%s",
		a.ObjectID,
		h.normalizeText(a.Title),
		a.Start.UTC().Format("2006-01-02T15:04"),
		a.End.UTC().Format("2006-01-02T15:04"),
	)
	hash := sha256.Sum256([]byte(contentSignature))
	return fmt.Sprintf("%x", hash)
}

// normalizeText lowercases, strips punctuation that the feed varies, and
// collapses whitespace
func (h *ContentHasher) normalizeText(text string) string {
	normalized := strings.ToLower(text)
	normalized = punctuationPattern.ReplaceAllString(normalized, "")
	normalized = whitespacePattern.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}
