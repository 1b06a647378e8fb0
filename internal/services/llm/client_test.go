package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"quill/internal/services"
)

func noWait(context.Context, time.Duration) error { return nil }

func completionBody(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{APIKey: "key", BaseURL: server.URL, Model: "test"}, WithSleeper(noWait))
}

func TestCompleteJSONReturnsContent(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("missing auth header, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(completionBody(`{"ok":true}`))
	})
	content, err := client.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if content != `{"ok":true}` {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestCompleteJSONRetriesRateLimit(t *testing.T) {
	var calls atomic.Int64
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(completionBody(`{"ok":true}`))
	})
	if _, err := client.CompleteJSON(context.Background(), "system", "user"); err != nil {
		t.Fatalf("CompleteJSON should succeed after retries: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestCompleteJSONDoesNotRetryValidation(t *testing.T) {
	var calls atomic.Int64
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})
	_, err := client.CompleteJSON(context.Background(), "system", "user")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("validation errors must not be retried, got %d calls", calls.Load())
	}
}

func TestExtractGistParsesPayload(t *testing.T) {
	payload := `{"title":"Weekly AI","digest":"Short digest.","score":85,` +
		`"tags":["ai"],"key_insights":["insight"],"mentioned_links":["https://x.test"],` +
		`"is_spam_or_irrelevant":false}`
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(completionBody(payload))
	})
	gist, err := client.ExtractGist(context.Background(), NewPromptSet("", ""), "Subject", "sender@example.com", "body text")
	if err != nil {
		t.Fatalf("ExtractGist: %v", err)
	}
	if gist.Title != "Weekly AI" || gist.Score != 85 || len(gist.KeyInsights) != 1 {
		t.Fatalf("unexpected gist: %+v", gist)
	}
}

func TestExtractGistToleratesCodeFences(t *testing.T) {
	payload := "```json\n{\"title\":\"T\",\"digest\":\"d\",\"score\":250,\"is_spam_or_irrelevant\":false}\n```"
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(completionBody(payload))
	})
	gist, err := client.ExtractGist(context.Background(), NewPromptSet("", ""), "s", "f", "text")
	if err != nil {
		t.Fatalf("ExtractGist: %v", err)
	}
	if gist.Score != 100 {
		t.Fatalf("score should clamp to 100, got %d", gist.Score)
	}
}

func TestPromptSetReload(t *testing.T) {
	dir := t.TempDir()
	systemPath := filepath.Join(dir, "system.txt")
	prompts := NewPromptSet(systemPath, "")

	system, _ := prompts.Current()
	if system != defaultSystemPrompt {
		t.Fatalf("missing file should fall back to the default prompt")
	}

	if err := os.WriteFile(systemPath, []byte("custom system prompt"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := prompts.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	system, _ = prompts.Current()
	if system != "custom system prompt" {
		t.Fatalf("expected the override prompt, got %q", system)
	}
}

func TestDecodeJSONExtractsEmbeddedObject(t *testing.T) {
	var out struct {
		OK bool `json:"ok"`
	}
	if err := DecodeJSON("Here is the result: {\"ok\": true} hope it helps", &out); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if !out.OK {
		t.Fatalf("expected ok=true")
	}
}
