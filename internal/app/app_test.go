package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"BriefingAgent/internal/config"
	"BriefingAgent/internal/domain"
	"BriefingAgent/internal/infrastructure/storage"
)

const topicsJSON = `[
  {"id": 1, "topic_name": "A memorable trip", "part2_content": "Describe a trip.", "part3_questions": ["Why travel?", "Is tourism good?"]},
  {"id": 2, "topic_name": "A useful app", "part2_content": "Describe an app.", "part3_questions": ["Do apps help?"]}
]`

func testConfig(t *testing.T, llmURL string) config.Config {
	t.Helper()
	t.Setenv("BRIEFING_CONFIG", "")

	path := filepath.Join(t.TempDir(), "topics.json")
	if err := os.WriteFile(path, []byte(topicsJSON), 0o600); err != nil {
		t.Fatalf("write topics: %v", err)
	}

	cfg := config.Load()
	cfg.Database.Path = storage.MemoryDSN
	cfg.Tasks.Afternoon.TopicsPath = path
	cfg.LLM.Endpoint = llmURL
	cfg.LLM.APIKey = "key"
	cfg.Mail.Username = ""
	cfg.Mail.Recipients = nil
	cfg.Telegram.BotToken = ""
	return cfg
}

func newTestApp(t *testing.T) (*Application, *atomic.Int32) {
	t.Helper()

	calls := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"<p>speaking brief</p>"}}]}`))
	}))
	t.Cleanup(server.Close)

	a, err := New(testConfig(t, server.URL), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a, calls
}

func TestGenerateForcedTopic(t *testing.T) {
	a, calls := newTestApp(t)
	ctx := context.Background()

	record, err := a.Generate(ctx, domain.TaskAfternoon, 2)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if calls.Load() != 1 || record.Body != "<p>speaking brief</p>" || !strings.HasPrefix(record.Subject, "Afternoon Brief: ") {
		t.Fatalf("unexpected record %+v (llm calls %d)", record, calls.Load())
	}

	state, err := a.store.Rotation().Load(ctx, "ielts")
	if err != nil {
		t.Fatalf("load rotation: %v", err)
	}
	if state.CurrentIndex != 2 || state.LastLabel != "A useful app" {
		t.Fatalf("unexpected rotation state %+v", state)
	}
}

func TestMonitorRegeneratesThroughPipeline(t *testing.T) {
	a, calls := newTestApp(t)
	ctx := context.Background()

	if _, err := a.Generate(ctx, domain.TaskAfternoon, 0); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if err := a.store.UpdateCell(ctx, a.cfg.Sheets.Records, 2, domain.ColumnStatus, "Reject"); err != nil {
		t.Fatalf("reject record: %v", err)
	}

	report, err := a.Monitor(ctx)
	if err != nil {
		t.Fatalf("Monitor returned error: %v", err)
	}
	if report.Regenerated != 1 || calls.Load() != 2 {
		t.Fatalf("unexpected report %+v (llm calls %d)", report, calls.Load())
	}

	rows, err := a.store.ReadAll(ctx, a.cfg.Sheets.Records)
	if err != nil {
		t.Fatalf("ReadAll returned error: %v", err)
	}
	if len(rows) != 3 || rows[1][4] != "Pending" || rows[2][4] != "Regenerated" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestSendWithoutRecipientsIsSkipped(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	if _, err := a.Generate(ctx, domain.TaskAfternoon, 0); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	report, err := a.Send(ctx, "")
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if report.Sent != 0 || report.Scanned != 0 {
		t.Fatalf("expected skipped pass, got %+v", report)
	}
}

func TestReviewRejectTriggersRegeneration(t *testing.T) {
	a, calls := newTestApp(t)
	ctx := context.Background()

	staged, err := a.Generate(ctx, domain.TaskAfternoon, 1)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	entries, err := a.Records(ctx)
	if err != nil {
		t.Fatalf("Records returned error: %v", err)
	}
	if len(entries) != 1 || entries[0].Record.Subject != staged.Subject {
		t.Fatalf("unexpected records %+v", entries)
	}

	if _, err := a.Review(ctx, entries[0].Row, domain.StatusReject); err != nil {
		t.Fatalf("Review returned error: %v", err)
	}

	report, err := a.Monitor(ctx)
	if err != nil {
		t.Fatalf("Monitor returned error: %v", err)
	}
	if report.Regenerated != 1 || calls.Load() != 2 {
		t.Fatalf("unexpected report %+v (llm calls %d)", report, calls.Load())
	}

	entries, err = a.Records(ctx)
	if err != nil {
		t.Fatalf("Records returned error: %v", err)
	}
	if len(entries) != 2 || entries[0].Record.Status != domain.StatusPending || entries[1].Record.Status != domain.StatusRegenerated {
		t.Fatalf("unexpected records after monitor %+v", entries)
	}

	if _, err := a.Review(ctx, entries[1].Row, domain.StatusApproved); err == nil {
		t.Fatalf("regenerated row must not be reviewable")
	}
}

func TestSubscribersFeedSendPass(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	if err := a.AddSubscriber(ctx, "reader@example.org", "Reader", time.Now().AddDate(0, 1, 0)); err != nil {
		t.Fatalf("AddSubscriber returned error: %v", err)
	}
	subs, err := a.Subscribers(ctx)
	if err != nil {
		t.Fatalf("Subscribers returned error: %v", err)
	}
	if len(subs) != 1 || subs[0].Email != "reader@example.org" {
		t.Fatalf("unexpected subscribers %+v", subs)
	}

	if _, err := a.Generate(ctx, domain.TaskAfternoon, 0); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	// Recipients now resolve, so the pass runs and reports the missing mailer.
	if _, err := a.Send(ctx, ""); err == nil || !strings.Contains(err.Error(), "mailer not configured") {
		t.Fatalf("expected send pass to reach the mailer, got %v", err)
	}
}
