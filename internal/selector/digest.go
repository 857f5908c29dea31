package selector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"BriefingAgent/internal/domain"
	"BriefingAgent/internal/filter"
	"BriefingAgent/internal/ports"
)

const (
	defaultDigestPerSource = 5
	defaultSummaryChars    = 300
	defaultDigestParallel  = 4
	unknownFeedTitle       = "Unknown"
)

// DigestSelectorDeps wires the recent-news digest variant.
type DigestSelectorDeps struct {
	Task         domain.TaskType
	Sources      []string
	PerSource    int
	SummaryChars int
	Parallelism  int
	FetchTimeout time.Duration
	Feeds        ports.FeedFetcher
	Filter       *filter.Filter
	Logger       *slog.Logger
	Now          func() time.Time
}

// DigestSelector gathers the freshest entries of every source. It applies
// only the time window and a per-source cap and never consults dedup
// history, so a story may resurface on consecutive days.
type DigestSelector struct {
	task         domain.TaskType
	sources      []string
	perSource    int
	summaryChars int
	parallelism  int
	fetchTimeout time.Duration
	feeds        ports.FeedFetcher
	filter       *filter.Filter
	logger       *slog.Logger
	now          func() time.Time
}

var _ Selector = (*DigestSelector)(nil)

// NewDigestSelector constructs the digest selector.
func NewDigestSelector(deps DigestSelectorDeps) *DigestSelector {
	s := &DigestSelector{
		task:         deps.Task,
		sources:      deps.Sources,
		perSource:    deps.PerSource,
		summaryChars: deps.SummaryChars,
		parallelism:  deps.Parallelism,
		fetchTimeout: deps.FetchTimeout,
		feeds:        deps.Feeds,
		filter:       deps.Filter,
		logger:       deps.Logger,
		now:          deps.Now,
	}
	if s.perSource <= 0 {
		s.perSource = defaultDigestPerSource
	}
	if s.summaryChars <= 0 {
		s.summaryChars = defaultSummaryChars
	}
	if s.parallelism <= 0 {
		s.parallelism = defaultDigestParallel
	}
	if s.fetchTimeout <= 0 {
		s.fetchTimeout = defaultFetchTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// Task identifies the selector inside the registry.
func (s *DigestSelector) Task() domain.TaskType {
	return s.task
}

// Select fetches every source and keeps, per source, up to PerSource recent
// entries in feed order. Output follows configured source order regardless
// of which fetch finishes first.
func (s *DigestSelector) Select(ctx context.Context, day time.Time, _ Options) (domain.Selection, error) {
	now := s.now()
	perSource := make([][]domain.Candidate, len(s.sources))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.parallelism)
	for i, source := range s.sources {
		group.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(groupCtx, s.fetchTimeout)
			defer cancel()

			feed, err := s.feeds.FetchFeed(fetchCtx, source)
			if err != nil {
				s.logger.Warn("feed skipped", "source", source, "error", err)
				return nil
			}
			perSource[i] = s.collect(feed, now)
			s.logger.Debug("feed scanned", "source", source, "kept", len(perSource[i]))
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return domain.Selection{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.Selection{}, err
	}

	var digest []domain.Candidate
	for _, entries := range perSource {
		digest = append(digest, entries...)
	}
	if len(digest) == 0 {
		return domain.Selection{}, fmt.Errorf("%s: %d sources yielded no recent entries: %w", s.task, len(s.sources), domain.ErrNoCandidate)
	}

	s.logger.Info("digest collected", "entries", len(digest), "sources", len(s.sources))
	return domain.Selection{Task: s.task, Day: day, Digest: digest}, nil
}

func (s *DigestSelector) collect(feed domain.Feed, now time.Time) []domain.Candidate {
	source := feed.Title
	if source == "" {
		source = unknownFeedTitle
	}

	var kept []domain.Candidate
	for _, entry := range feed.Entries {
		if !s.filter.IsRecent(entry.PublishedAt, now) {
			continue
		}
		entry.Source = source
		entry.Body = Summarize(entry.Body, s.summaryChars)
		kept = append(kept, entry)
		if len(kept) >= s.perSource {
			break
		}
	}
	return kept
}

// Summarize flattens newlines and cuts text to at most limit runes.
func Summarize(text string, limit int) string {
	flat := strings.Join(strings.Fields(text), " ")
	if flat == "" {
		return "No summary"
	}
	runes := []rune(flat)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return flat
}
