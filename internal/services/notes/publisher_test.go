package notes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"quill/internal/logging"
	"quill/internal/retry"
	"quill/internal/services"
)

type stubDestination struct {
	mu            sync.Mutex
	createCalls   int
	appendCalls   []int
	failAppend    map[int]int // batch index -> http status to return
	failCreate    int         // http status to return for create, 0 = succeed
	appendAttempt map[int]int
}

func newStubDestination() *stubDestination {
	return &stubDestination{
		failAppend:    map[int]int{},
		appendAttempt: map[int]int{},
	}
}

func (s *stubDestination) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/pages", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.createCalls++
		if s.failCreate != 0 {
			w.WriteHeader(s.failCreate)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "page-1"})
	})
	mux.HandleFunc("/blocks/", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Children []struct {
				Type      string `json:"type"`
				Paragraph struct {
					RichText []struct {
						Text struct {
							Content string `json:"content"`
						} `json:"text"`
					} `json:"rich_text"`
				} `json:"paragraph"`
			} `json:"children"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode append payload: %v", err)
		}
		if len(payload.Children) == 0 {
			t.Errorf("append carried no children")
		}
		// Batches are tagged by the first paragraph's text ("batch N ...").
		idx := batchIndexFromText(payload.Children[0].Paragraph.RichText[0].Text.Content)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.appendAttempt[idx]++
		if status, ok := s.failAppend[idx]; ok {
			w.WriteHeader(status)
			return
		}
		s.appendCalls = append(s.appendCalls, idx)
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func batchIndexFromText(text string) int {
	idx, _ := strconv.Atoi(strings.TrimPrefix(text, "batch "))
	return idx
}

func taggedBatches(count int, criticalIdx ...int) []Batch {
	critical := map[int]struct{}{}
	for _, i := range criticalIdx {
		critical[i] = struct{}{}
	}
	batches := make([]Batch, 0, count)
	for i := 0; i < count; i++ {
		_, isCritical := critical[i]
		batches = append(batches, Batch{
			Blocks:   paragraphs(1),
			Critical: isCritical,
		})
		batches[i].Blocks[0].Runs[0].Text = "batch " + strconv.Itoa(i)
	}
	return batches
}

func noWait(context.Context, time.Duration) error { return nil }

func testPublisher(t *testing.T, stub *stubDestination) *Publisher {
	t.Helper()
	server := httptest.NewServer(stub.handler(t))
	t.Cleanup(server.Close)
	client := NewClient(Config{
		Token:    "secret",
		BaseURL:  server.URL,
		ParentID: "db-1",
	})
	return NewPublisher(client, logging.NewNop(), WithSleeper(noWait))
}

func TestPublishAllBatchesSucceed(t *testing.T) {
	stub := newStubDestination()
	publisher := testPublisher(t, stub)

	outcome, err := publisher.Publish(context.Background(), PageHeader{Title: "T"}, taggedBatches(3, 0))
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if outcome.Aborted || outcome.Succeeded != 3 || len(outcome.FailedBatches) != 0 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if outcome.PageID != "page-1" {
		t.Fatalf("expected page id from create response, got %q", outcome.PageID)
	}
	if got := stub.appendCalls; len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("batches must be appended in order, got %v", got)
	}
}

func TestPublishCriticalBatchFailureAborts(t *testing.T) {
	stub := newStubDestination()
	stub.failAppend[1] = http.StatusServiceUnavailable
	publisher := testPublisher(t, stub)

	outcome, err := publisher.Publish(context.Background(), PageHeader{Title: "T"}, taggedBatches(4, 0, 1))
	if err == nil {
		t.Fatalf("expected an error for the critical failure")
	}
	if !outcome.Aborted {
		t.Fatalf("outcome must be aborted: %+v", outcome)
	}
	if _, ok := outcome.FailedBatches[1]; !ok {
		t.Fatalf("batch 1 must be recorded as failed: %+v", outcome)
	}
	if stub.appendAttempt[1] != 5 {
		t.Fatalf("critical batch should be attempted 5 times, got %d", stub.appendAttempt[1])
	}
	if stub.appendAttempt[2] != 0 || stub.appendAttempt[3] != 0 {
		t.Fatalf("batches after a critical failure must never be attempted: %v", stub.appendAttempt)
	}
}

func TestPublishNonCriticalFailureContinues(t *testing.T) {
	stub := newStubDestination()
	stub.failAppend[1] = http.StatusInternalServerError
	publisher := testPublisher(t, stub)

	outcome, err := publisher.Publish(context.Background(), PageHeader{Title: "T"}, taggedBatches(3, 0))
	if err != nil {
		t.Fatalf("non-critical failure must not fail the publish: %v", err)
	}
	if outcome.Aborted {
		t.Fatalf("outcome must not be aborted: %+v", outcome)
	}
	if len(outcome.FailedBatches) != 1 {
		t.Fatalf("expected exactly one failed batch: %+v", outcome)
	}
	if _, ok := outcome.FailedBatches[1]; !ok {
		t.Fatalf("batch 1 must be the failed one: %+v", outcome)
	}
	if outcome.Succeeded != 2 {
		t.Fatalf("expected 2 succeeded batches, got %d", outcome.Succeeded)
	}
	if !outcome.Partial() {
		t.Fatalf("outcome should report partial success")
	}
	if stub.appendAttempt[2] != 1 {
		t.Fatalf("batch 2 should still be attempted after a non-critical gap")
	}
}

func TestPublishValidationErrorNotRetried(t *testing.T) {
	stub := newStubDestination()
	stub.failCreate = http.StatusBadRequest
	publisher := testPublisher(t, stub)

	outcome, err := publisher.Publish(context.Background(), PageHeader{Title: "T"}, taggedBatches(1, 0))
	if err == nil {
		t.Fatalf("expected create failure")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if !outcome.Aborted {
		t.Fatalf("create failure must abort the publish")
	}
	if stub.createCalls != 1 {
		t.Fatalf("validation errors must not be retried, got %d attempts", stub.createCalls)
	}
}

func TestPublishAuthErrorNotRetried(t *testing.T) {
	stub := newStubDestination()
	stub.failCreate = http.StatusUnauthorized
	publisher := testPublisher(t, stub)

	_, err := publisher.Publish(context.Background(), PageHeader{Title: "T"}, taggedBatches(1, 0))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("auth failures must classify as validation, got %v", err)
	}
	if stub.createCalls != 1 {
		t.Fatalf("auth errors must not be retried, got %d attempts", stub.createCalls)
	}
}

func TestPublishTransientCreateRetried(t *testing.T) {
	stub := newStubDestination()
	stub.failCreate = http.StatusTooManyRequests
	publisher := testPublisher(t, stub)

	_, err := publisher.Publish(context.Background(), PageHeader{Title: "T"}, taggedBatches(1, 0))
	if err == nil {
		t.Fatalf("expected exhaustion error")
	}
	var attemptErr *retry.AttemptError
	if !errors.As(err, &attemptErr) {
		t.Fatalf("expected retry exhaustion, got %v", err)
	}
	if stub.createCalls != 5 {
		t.Fatalf("rate-limit errors should use all 5 attempts, got %d", stub.createCalls)
	}
}
