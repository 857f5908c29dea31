package ports

import (
	"context"
	"time"

	"BriefingAgent/internal/domain"
)

// RowStore is a shared spreadsheet-like table store. Rows and columns are
// 1-indexed; row 1 is the header.
type RowStore interface {
	ReadAll(ctx context.Context, sheet string) ([][]string, error)
	InsertRow(ctx context.Context, sheet string, values []string, position int) error
	UpdateCell(ctx context.Context, sheet string, row, col int, value string) error
	// CompareAndSetCell writes value only if the cell still matches expected
	// (case-insensitive, trimmed). It reports whether the write happened.
	CompareAndSetCell(ctx context.Context, sheet string, row, col int, expected, value string) (bool, error)
}

// RotationRepository persists rotation progress keyed by task domain.
// Loading an unknown key yields the zero state.
type RotationRepository interface {
	Load(ctx context.Context, key string) (domain.RotationState, error)
	Save(ctx context.Context, key string, state domain.RotationState) error
}

// HistoryRepository persists dedup history keyed by scope. Loading an
// unknown scope yields an empty history.
type HistoryRepository interface {
	Load(ctx context.Context, scope string) (domain.History, error)
	Save(ctx context.Context, scope string, history domain.History) error
}

// TopicBank provides the closed, ordered pool of rotation topics.
type TopicBank interface {
	Topics(ctx context.Context) ([]domain.Topic, error)
}

// FeedFetcher downloads and parses one RSS/Atom feed.
type FeedFetcher interface {
	FetchFeed(ctx context.Context, url string) (domain.Feed, error)
}

// ArticleFetcher downloads a page and extracts its readable text.
type ArticleFetcher interface {
	FetchArticle(ctx context.Context, url string) (domain.ArticleText, error)
}

// ContentGenerator is the opaque language-model call.
type ContentGenerator interface {
	Generate(ctx context.Context, prompt domain.Prompt) (string, error)
}

// Mailer fans a message out to every recipient; any failure fails the batch.
type Mailer interface {
	Send(ctx context.Context, subject, body string, recipients []string) error
}

// ReviewNotifier tells reviewers a fresh draft awaits a decision.
type ReviewNotifier interface {
	NotifyPending(ctx context.Context, record domain.ContentRecord) error
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
