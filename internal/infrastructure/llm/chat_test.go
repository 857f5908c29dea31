package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"BriefingAgent/internal/config"
	"BriefingAgent/internal/domain"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"<div>brief</div>"}}]}`))
	}))
	defer server.Close()

	client := NewChatClient(config.LLMConfig{Endpoint: server.URL, APIKey: "secret", ChatModel: "deepseek-chat"})
	out, err := client.Generate(context.Background(), domain.Prompt{System: "sys", User: "user", Temperature: 0.3})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if out != "<div>brief</div>" {
		t.Fatalf("unexpected output %q", out)
	}
	if got.Model != "deepseek-chat" || len(got.Messages) != 2 || got.Messages[1].Content != "user" || got.Temperature != 0.3 {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestGenerateErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/empty" {
			_, _ = w.Write([]byte(`{"choices":[]}`))
			return
		}
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer server.Close()

	prompt := domain.Prompt{User: "x", Model: "deepseek-reasoner"}

	failing := NewChatClient(config.LLMConfig{Endpoint: server.URL, APIKey: "k"})
	if _, err := failing.Generate(context.Background(), prompt); err == nil {
		t.Fatalf("expected status error")
	}

	empty := NewChatClient(config.LLMConfig{Endpoint: server.URL + "/empty", APIKey: "k"})
	if _, err := empty.Generate(context.Background(), prompt); err == nil {
		t.Fatalf("expected empty-choice error")
	}

	unconfigured := NewChatClient(config.LLMConfig{Endpoint: server.URL})
	if _, err := unconfigured.Generate(context.Background(), prompt); err == nil {
		t.Fatalf("expected misconfiguration error")
	}
}
