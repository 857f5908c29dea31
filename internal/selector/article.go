package selector

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"BriefingAgent/internal/domain"
	"BriefingAgent/internal/filter"
	"BriefingAgent/internal/ports"
)

const (
	defaultArticlesPerSource = 3
	defaultFetchTimeout      = 20 * time.Second
	unknownAuthor            = "Unknown"
	fallbackArticleSource    = "Science/Nature Source"
)

// ArticleSelectorDeps wires the scanned-source variant.
type ArticleSelectorDeps struct {
	Task         domain.TaskType
	Sources      []string
	PerSource    int
	FetchTimeout time.Duration
	HistoryScope string
	Feeds        ports.FeedFetcher
	Articles     ports.ArticleFetcher
	Filter       *filter.Filter
	History      ports.HistoryRepository
	Logger       *slog.Logger
	// Shuffle reorders sources in place; defaults to a uniform shuffle.
	Shuffle func([]string)
	Now     func() time.Time
}

// ArticleSelector scans feeds for the first long-form article that survives
// the whole filter pipeline. The search short-circuits: the first eligible
// entry wins, so source and entry order are part of the contract.
type ArticleSelector struct {
	task         domain.TaskType
	sources      []string
	perSource    int
	fetchTimeout time.Duration
	historyScope string
	feeds        ports.FeedFetcher
	articles     ports.ArticleFetcher
	filter       *filter.Filter
	history      ports.HistoryRepository
	logger       *slog.Logger
	shuffle      func([]string)
	now          func() time.Time
}

var _ Selector = (*ArticleSelector)(nil)

// NewArticleSelector constructs the scanned-source selector.
func NewArticleSelector(deps ArticleSelectorDeps) *ArticleSelector {
	s := &ArticleSelector{
		task:         deps.Task,
		sources:      deps.Sources,
		perSource:    deps.PerSource,
		fetchTimeout: deps.FetchTimeout,
		historyScope: deps.HistoryScope,
		feeds:        deps.Feeds,
		articles:     deps.Articles,
		filter:       deps.Filter,
		history:      deps.History,
		logger:       deps.Logger,
		shuffle:      deps.Shuffle,
		now:          deps.Now,
	}
	if s.perSource <= 0 {
		s.perSource = defaultArticlesPerSource
	}
	if s.fetchTimeout <= 0 {
		s.fetchTimeout = defaultFetchTimeout
	}
	if s.historyScope == "" {
		s.historyScope = string(deps.Task)
	}
	if s.shuffle == nil {
		s.shuffle = func(items []string) {
			rand.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
		}
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
func (s *ArticleSelector) Task() domain.TaskType {
	return s.task
}

// HistoryScope is the dedup scope the selected identifier belongs to.
func (s *ArticleSelector) HistoryScope() string {
	return s.historyScope
}

// Select walks sources in random order and returns the first admissible
// article. Fetch failures and timeouts skip the entry, never the run.
func (s *ArticleSelector) Select(ctx context.Context, day time.Time, _ Options) (domain.Selection, error) {
	history, err := s.history.Load(ctx, s.historyScope)
	if err != nil {
		return domain.Selection{}, fmt.Errorf("load history %s: %w", s.historyScope, err)
	}

	sources := append([]string(nil), s.sources...)
	s.shuffle(sources)

	now := s.now()
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return domain.Selection{}, err
		}

		feed, err := s.fetchFeed(ctx, source)
		if err != nil {
			s.logger.Warn("feed skipped", "source", source, "error", err)
			continue
		}

		entries := feed.Entries
		if len(entries) > s.perSource {
			entries = entries[:s.perSource]
		}

		for _, entry := range entries {
			if candidate, ok := s.inspect(ctx, feed, entry, history, now); ok {
				s.logger.Info("article selected", "title", candidate.Title, "source", candidate.Source, "words", filter.WordCount(candidate.Body))
				return domain.Selection{Task: s.task, Day: day, Article: &candidate}, nil
			}
		}
	}

	return domain.Selection{}, fmt.Errorf("%s: scanned %d sources: %w", s.task, len(sources), domain.ErrNoCandidate)
}

func (s *ArticleSelector) inspect(ctx context.Context, feed domain.Feed, entry domain.Candidate, history domain.History, now time.Time) (domain.Candidate, bool) {
	if ok, reason := s.filter.Admit(entry, history, now); !ok {
		s.logger.Debug("entry refused", "link", entry.ID, "reason", reason)
		return domain.Candidate{}, false
	}

	if ok, term := s.filter.IsSafe(entry.Title, ""); !ok {
		s.logger.Info("title refused", "title", entry.Title, "term", term)
		return domain.Candidate{}, false
	}

	article, err := s.fetchArticle(ctx, entry.ID)
	if err != nil {
		s.logger.Warn("article fetch failed", "link", entry.ID, "error", err)
		return domain.Candidate{}, false
	}

	title := article.Title
	if title == "" {
		title = entry.Title
	}

	if ok, reason := s.filter.CheckArticle(title, article.Text); !ok {
		s.logger.Info("article refused", "title", title, "reason", reason, "words", filter.WordCount(article.Text))
		return domain.Candidate{}, false
	}

	author := entry.Author
	if author == "" {
		author = article.Author
	}
	if author == "" {
		author = unknownAuthor
	}
	source := feed.Title
	if source == "" {
		source = fallbackArticleSource
	}

	return domain.Candidate{
		ID:          entry.ID,
		Title:       title,
		Body:        article.Text,
		Author:      author,
		Source:      source,
		PublishedAt: entry.PublishedAt,
	}, true
}

func (s *ArticleSelector) fetchFeed(ctx context.Context, url string) (domain.Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	return s.feeds.FetchFeed(ctx, url)
}

func (s *ArticleSelector) fetchArticle(ctx context.Context, url string) (domain.ArticleText, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	return s.articles.FetchArticle(ctx, url)
}
