package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) error {
	_, err := runOutput(t, args...)
	return err
}

func runOutput(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	return out.String(), err
}

func TestGenerateRequiresKnownTask(t *testing.T) {
	t.Parallel()

	err := run(t, "generate", "--task", "midnight")
	if err == nil || !strings.Contains(err.Error(), "unknown task") {
		t.Fatalf("expected unknown task error, got %v", err)
	}
}

func TestGenerateRequiresTaskFlag(t *testing.T) {
	t.Parallel()

	if err := run(t, "generate"); err == nil {
		t.Fatalf("expected missing flag error")
	}
}

func TestDispatchRejectsUnknownMode(t *testing.T) {
	t.Parallel()

	err := run(t, "dispatch", "--mode", "archive")
	if err == nil || !strings.Contains(err.Error(), "unknown mode") {
		t.Fatalf("expected unknown mode error, got %v", err)
	}
}

func TestRootListsCommands(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"generate", "dispatch", "serve", "review", "users"} {
		if !names[want] {
			t.Fatalf("missing command %s", want)
		}
	}
	for _, path := range [][]string{{"review", "approve"}, {"review", "reject"}, {"users", "add"}} {
		if c, _, err := root.Find(path); err != nil || c.Name() != path[1] {
			t.Fatalf("missing subcommand %v", path)
		}
	}
}

// setupWorkspace points the CLI at a fresh database, a topic bank and a stub
// chat endpoint.
func setupWorkspace(t *testing.T) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"<p>draft</p>"}}]}`))
	}))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	topics := filepath.Join(dir, "topics.json")
	if err := os.WriteFile(topics, []byte(`[{"id": 1, "topic_name": "A hobby", "part2_content": "Describe a hobby.", "part3_questions": ["Why?"]}]`), 0o600); err != nil {
		t.Fatalf("write topics: %v", err)
	}

	cfg := "database:\n  path: " + filepath.Join(dir, "briefing.db") +
		"\nllm:\n  endpoint: " + server.URL +
		"\ntasks:\n  afternoon:\n    topicsPath: " + topics + "\n"
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("BRIEFING_CONFIG", cfgPath)
	t.Setenv("BRIEFING_DATABASE", "")
	t.Setenv("DEEPSEEK_API_KEY", "key")
	t.Setenv("MAIL_USERNAME", "")
	t.Setenv("MAIL_RECIPIENTS", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("LOG_LEVEL", "error")
}

func TestReviewRejectRegeneratesDraft(t *testing.T) {
	setupWorkspace(t)

	out, err := runOutput(t, "generate", "--task", "afternoon")
	if err != nil || !strings.Contains(out, "staged") {
		t.Fatalf("generate: %q err %v", out, err)
	}

	out, err = runOutput(t, "review", "list")
	if err != nil || !strings.Contains(out, "Pending") {
		t.Fatalf("review list: %q err %v", out, err)
	}

	out, err = runOutput(t, "review", "reject", "--row", "2")
	if err != nil || !strings.Contains(out, "is now Reject") {
		t.Fatalf("review reject: %q err %v", out, err)
	}

	out, err = runOutput(t, "dispatch", "--mode", "monitor")
	if err != nil || !strings.Contains(out, "regenerated 1") {
		t.Fatalf("monitor: %q err %v", out, err)
	}

	out, err = runOutput(t, "review", "list")
	if err != nil {
		t.Fatalf("review list: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || !strings.Contains(lines[1], "Regenerated") || !strings.Contains(lines[2], "Pending") {
		t.Fatalf("unexpected records after monitor:\n%s", out)
	}

	if err := run(t, "review", "approve", "--row", "2"); err == nil {
		t.Fatalf("regenerated row must not be approvable")
	}
	out, err = runOutput(t, "review", "approve", "--row", "3")
	if err != nil || !strings.Contains(out, "is now Approved") {
		t.Fatalf("approve fresh draft: %q err %v", out, err)
	}
	if err := run(t, "review", "approve", "--row", "1"); err == nil {
		t.Fatalf("header row must be refused")
	}
	if err := run(t, "review", "approve"); err == nil {
		t.Fatalf("missing --row must be refused")
	}
}

func TestUsersAddAndList(t *testing.T) {
	setupWorkspace(t)

	out, err := runOutput(t, "users", "add", "--email", "reader@example.org", "--name", "Reader", "--expiry", "2099/1/2")
	if err != nil || !strings.Contains(out, "until 2099-01-02") {
		t.Fatalf("users add: %q err %v", out, err)
	}
	if err := run(t, "users", "add", "--email", "x@example.org", "--expiry", "soon"); err == nil {
		t.Fatalf("bad expiry must be refused")
	}

	out, err = runOutput(t, "users", "list")
	if err != nil || !strings.Contains(out, "reader@example.org") || !strings.Contains(out, "2099-01-02") {
		t.Fatalf("users list: %q err %v", out, err)
	}
}
