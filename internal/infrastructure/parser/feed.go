package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"BriefingAgent/internal/domain"
	"BriefingAgent/internal/ports"
)

const userAgent = "BriefingAgent/1.0"

// FeedFetcher reads RSS and Atom feeds.
type FeedFetcher struct {
	parser *gofeed.Parser
	logger *slog.Logger
}

var _ ports.FeedFetcher = (*FeedFetcher)(nil)

// NewFeedFetcher wires an HTTP client; a nil client gets a 20s timeout.
func NewFeedFetcher(client *http.Client, logger *slog.Logger) *FeedFetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	fp := gofeed.NewParser()
	fp.Client = client
	fp.UserAgent = userAgent
	return &FeedFetcher{parser: fp, logger: logger}
}

// FetchFeed downloads url and maps its items in document order. The entry
// body is the plain-text summary, falling back from description to content.
func (f *FeedFetcher) FetchFeed(ctx context.Context, url string) (domain.Feed, error) {
	feed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return domain.Feed{}, fmt.Errorf("parse feed %s: %w", url, err)
	}

	out := domain.Feed{Title: strings.TrimSpace(feed.Title)}
	for _, item := range feed.Items {
		if item == nil || item.Link == "" {
			continue
		}
		summary := item.Description
		if strings.TrimSpace(summary) == "" {
			summary = item.Content
		}
		out.Entries = append(out.Entries, domain.Candidate{
			ID:          strings.TrimSpace(item.Link),
			Title:       strings.TrimSpace(item.Title),
			Body:        StripHTML(summary),
			Author:      itemAuthor(item),
			Source:      out.Title,
			PublishedAt: itemTime(item),
		})
	}

	if f.logger != nil {
		f.logger.Debug("feed fetched", "url", url, "entries", len(out.Entries))
	}
	return out, nil
}

// StripHTML returns the visible text of an HTML fragment.
func StripHTML(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return strings.TrimSpace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.TrimSpace(doc.Text())
}

func itemTime(item *gofeed.Item) *time.Time {
	switch {
	case item.PublishedParsed != nil:
		t := item.PublishedParsed.UTC()
		return &t
	case item.UpdatedParsed != nil:
		t := item.UpdatedParsed.UTC()
		return &t
	default:
		return nil
	}
}

func itemAuthor(item *gofeed.Item) string {
	for _, person := range item.Authors {
		if person != nil && strings.TrimSpace(person.Name) != "" {
			return strings.TrimSpace(person.Name)
		}
	}
	return ""
}
