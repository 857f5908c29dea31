package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"BriefingAgent/internal/domain"
)

func TestNotifyPending(t *testing.T) {
	t.Parallel()

	var path, text string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		text = r.PostForm.Get("text")
	}))
	defer server.Close()

	n := NewNotifier("token", "42")
	n.apiBase = server.URL

	err := n.NotifyPending(context.Background(), domain.ContentRecord{Task: domain.TaskEvening, Subject: "Evening Brief: 2026-01-20", Date: "2026-01-20"})
	if err != nil {
		t.Fatalf("NotifyPending returned error: %v", err)
	}
	if path != "/bottoken/sendMessage" {
		t.Fatalf("unexpected path %s", path)
	}
	if !strings.Contains(text, "Evening Brief: 2026-01-20") {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestNotifyPendingMisconfigured(t *testing.T) {
	t.Parallel()

	if err := NewNotifier("", "").NotifyPending(context.Background(), domain.ContentRecord{}); err == nil {
		t.Fatalf("expected misconfiguration error")
	}
}
