package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>NASA News</title>
    <item>
      <title>Webb sees the first galaxies</title>
      <link>https://www.nasa.gov/webb-galaxies</link>
      <description><![CDATA[<p>Light from <b>early</b> galaxies.</p>]]></description>
      <pubDate>Tue, 20 Jan 2026 08:00:00 +0800</pubDate>
    </item>
    <item>
      <title>Undated note</title>
      <link>https://www.nasa.gov/note</link>
      <description>Plain summary</description>
    </item>
    <item>
      <title>No link is dropped</title>
    </item>
  </channel>
</rss>`

func TestFeedFetcherFetchFeed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssFixture))
	}))
	defer server.Close()

	fetcher := NewFeedFetcher(server.Client(), nil)
	feed, err := fetcher.FetchFeed(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchFeed returned error: %v", err)
	}

	if feed.Title != "NASA News" {
		t.Fatalf("unexpected title %q", feed.Title)
	}
	if len(feed.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(feed.Entries))
	}

	first := feed.Entries[0]
	if first.ID != "https://www.nasa.gov/webb-galaxies" || first.Body != "Light from early galaxies." {
		t.Fatalf("unexpected first entry %+v", first)
	}
	want := time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC)
	if first.PublishedAt == nil || !first.PublishedAt.Equal(want) {
		t.Fatalf("unexpected published time %v", first.PublishedAt)
	}
	if feed.Entries[1].PublishedAt != nil {
		t.Fatalf("undated entry must have no timestamp")
	}
}

func TestFeedFetcherError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	if _, err := NewFeedFetcher(server.Client(), nil).FetchFeed(context.Background(), server.URL); err == nil {
		t.Fatalf("expected error for 404 feed")
	}
}

func TestArticleFetcherFetchArticle(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head>
		  <title>Site | Story</title>
		  <meta property="og:title" content="Volcanoes of Iceland">
		  <meta name="author" content="USGS Staff">
		</head><body>
		  <nav><p>Menu</p></nav>
		  <article>
		    <p>Lava   flows
		       slowly.</p>
		    <p></p>
		    <p>Scientists watch.</p>
		  </article>
		</body></html>`))
	}))
	defer server.Close()

	article, err := NewArticleFetcher(server.Client(), nil).FetchArticle(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchArticle returned error: %v", err)
	}
	if article.Title != "Volcanoes of Iceland" || article.Author != "USGS Staff" {
		t.Fatalf("unexpected metadata %+v", article)
	}
	if article.Text != "Lava flows slowly.\n\nScientists watch." {
		t.Fatalf("unexpected text %q", article.Text)
	}
}

func TestArticleFetcherTimeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := NewArticleFetcher(server.Client(), nil).FetchArticle(ctx, server.URL); err == nil {
		t.Fatalf("expected timeout error")
	}
}

func TestStripHTML(t *testing.T) {
	t.Parallel()

	if got := StripHTML(" plain "); got != "plain" {
		t.Fatalf("unexpected %q", got)
	}
	if got := StripHTML("<div>a <i>b</i></div>"); !strings.Contains(got, "a b") {
		t.Fatalf("unexpected %q", got)
	}
}

func TestTopicBankReadsJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "Speaking_Materials.json")
	content := `[
  {"id": 1, "topic_name": "A helpful friend", "part2_content": "Describe a friend", "part3_questions": ["Why?", "How?"]},
  {"id": 2, "topic_name": "A journey", "part2_content": "Describe a trip", "part3_questions": []}
]`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	topics, err := NewTopicBank(path).Topics(context.Background())
	if err != nil {
		t.Fatalf("Topics returned error: %v", err)
	}
	if len(topics) != 2 || topics[0].Name != "A helpful friend" || len(topics[0].Questions) != 2 || topics[1].ID != 2 {
		t.Fatalf("unexpected topics %+v", topics)
	}

	if _, err := NewTopicBank(filepath.Join(t.TempDir(), "missing.json")).Topics(context.Background()); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
