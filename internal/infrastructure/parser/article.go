package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"BriefingAgent/internal/domain"
	"BriefingAgent/internal/ports"
)

// ArticleFetcher downloads a page and extracts its paragraphs.
type ArticleFetcher struct {
	client *http.Client
	logger *slog.Logger
}

var _ ports.ArticleFetcher = (*ArticleFetcher)(nil)

// NewArticleFetcher wires an HTTP client; a nil client gets a 20s timeout.
func NewArticleFetcher(client *http.Client, logger *slog.Logger) *ArticleFetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &ArticleFetcher{client: client, logger: logger}
}

// FetchArticle returns title, author and body text of the page at url.
// Paragraphs inside <article> win over page-wide paragraphs.
func (a *ArticleFetcher) FetchArticle(ctx context.Context, url string) (domain.ArticleText, error) {
	doc, err := a.fetchDocument(ctx, url)
	if err != nil {
		return domain.ArticleText{}, err
	}

	text := ExtractText(doc)
	if text == "" {
		return domain.ArticleText{}, fmt.Errorf("no readable text at %s", url)
	}

	if a.logger != nil {
		a.logger.Debug("article fetched", "url", url, "chars", len(text))
	}
	return domain.ArticleText{
		Title:  extractTitle(doc),
		Author: metaContent(doc, `meta[name="author"]`),
		Text:   text,
	}, nil
}

func (a *ArticleFetcher) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %s", pageURL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// ExtractText joins non-empty paragraphs with blank lines.
func ExtractText(doc *goquery.Document) string {
	paragraphs := doc.Find("article p")
	if paragraphs.Length() == 0 {
		paragraphs = doc.Find("p")
	}

	var parts []string
	paragraphs.Each(func(_ int, p *goquery.Selection) {
		if text := strings.Join(strings.Fields(p.Text()), " "); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n")
}

func extractTitle(doc *goquery.Document) string {
	if title := metaContent(doc, `meta[property="og:title"]`); title != "" {
		return title
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}
