package filter

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"BriefingAgent/internal/domain"
)

// Reason explains why a candidate was refused.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonStale     Reason = "stale"
	ReasonDuplicate Reason = "duplicate"
	ReasonUnsafe    Reason = "unsafe"
	ReasonLength    Reason = "length"
)

// Policy holds the admission thresholds.
type Policy struct {
	Window      time.Duration
	MinWords    int
	MaxWords    int
	BannedTerms []string
}

type bannedTerm struct {
	term    string
	pattern *regexp.Regexp
}

// Filter decides whether fetched candidates may become generation input.
type Filter struct {
	policy Policy
	banned []bannedTerm
	logger *slog.Logger
}

// Word edges count any Unicode letter or digit as part of a word; RE2's \b
// only knows ASCII, so "Waré" would otherwise contain "war".
const (
	wordEdge = `(?:^|[^\p{L}\p{N}_])`
	wordEnd  = `(?:$|[^\p{L}\p{N}_])`
)

// New compiles the banned-term policy into word-boundary matchers.
func New(policy Policy, logger *slog.Logger) *Filter {
	f := &Filter{policy: policy, logger: logger}
	for _, raw := range policy.BannedTerms {
		term := strings.ToLower(strings.TrimSpace(raw))
		if term == "" {
			continue
		}
		f.banned = append(f.banned, bannedTerm{
			term:    term,
			pattern: regexp.MustCompile(wordEdge + regexp.QuoteMeta(term) + wordEnd),
		})
	}
	return f
}

// Policy returns the thresholds the filter was built with.
func (f *Filter) Policy() Policy {
	return f.policy
}

// IsRecent reports whether published falls inside the window ending at now.
// Undated candidates pass: some sources omit timestamps entirely. A zero
// window disables the check.
func (f *Filter) IsRecent(published *time.Time, now time.Time) bool {
	if f.policy.Window <= 0 || published == nil || published.IsZero() {
		return true
	}
	return now.UTC().Sub(published.UTC()) < f.policy.Window
}

// Admit applies the recency window and the dedup history. It never mutates
// history; callers add an identifier only after the candidate was used.
func (f *Filter) Admit(candidate domain.Candidate, history domain.History, now time.Time) (bool, Reason) {
	if history.Contains(candidate.ID) {
		return false, ReasonDuplicate
	}
	if !f.IsRecent(candidate.PublishedAt, now) {
		return false, ReasonStale
	}
	return true, ReasonNone
}

// IsSafe checks title and body against the banned terms and returns the
// first term that matched. Pass an empty body for the cheap title-only check.
func (f *Filter) IsSafe(title, body string) (bool, string) {
	blob := strings.ToLower(title + " " + body)
	for _, banned := range f.banned {
		if banned.pattern.MatchString(blob) {
			if f.logger != nil {
				f.logger.Info("banned term matched", "term", banned.term, "title", title)
			}
			return false, banned.term
		}
	}
	return true, ""
}

// WithinLength reports whether body has between MinWords and MaxWords words,
// both bounds inclusive. A zero MaxWords disables the upper bound.
func (f *Filter) WithinLength(body string) (bool, int) {
	count := WordCount(body)
	if count < f.policy.MinWords {
		return false, count
	}
	if f.policy.MaxWords > 0 && count > f.policy.MaxWords {
		return false, count
	}
	return true, count
}

// CheckArticle runs the post-fetch stage: length gate, then full safety.
func (f *Filter) CheckArticle(title, body string) (bool, Reason) {
	if ok, _ := f.WithinLength(body); !ok {
		return false, ReasonLength
	}
	if ok, _ := f.IsSafe(title, body); !ok {
		return false, ReasonUnsafe
	}
	return true, ReasonNone
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
