package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestServer(t *testing.T, assistantText string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") == "" {
			t.Error("missing x-api-key header")
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("missing anthropic-version header")
		}
		resp := map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": assistantText},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newTestClient(url string) *Client {
	c := New("test-key", "test-model", 2*time.Second, 2)
	c.BaseURL = url
	return c
}

func TestAnalyzeTaskParsesProseWrappedJSON(t *testing.T) {
	srv := newTestServer(t, `Here is my analysis:
{
  "description": "Add CSV export to the billing page",
  "acceptance_criteria": ["a file downloads"],
  "subtasks": ["add button", "stream rows"],
  "story_points": 5,
  "task_type": "feature",
  "tags": ["export", "billing"]
}
Let me know if you need anything else.`)
	defer srv.Close()

	analysis, err := newTestClient(srv.URL).AnalyzeTask(context.Background(), "CSV export", "")
	if err != nil {
		t.Fatalf("AnalyzeTask failed: %v", err)
	}
	if analysis.StoryPoints != 5 {
		t.Errorf("story_points = %d, want 5", analysis.StoryPoints)
	}
	if analysis.TaskType != "feature" {
		t.Errorf("task_type = %q, want feature", analysis.TaskType)
	}
	if len(analysis.Subtasks) != 2 {
		t.Errorf("expected 2 subtasks, got %d", len(analysis.Subtasks))
	}
}

func TestAnalyzeTaskMalformedOutput(t *testing.T) {
	srv := newTestServer(t, "I cannot produce JSON today, sorry.")
	defer srv.Close()

	_, err := newTestClient(srv.URL).AnalyzeTask(context.Background(), "CSV export", "")
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestCompleteUnavailableAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).AnalyzeTask(context.Background(), "anything", "")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", got)
	}
}

func TestCompleteStopsOnCanceledContext(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := newTestClient(srv.URL)
	c.MaxAttempts = 5

	_, err := c.AnalyzeTask(ctx, "anything", "")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	if got := calls.Load(); got > 1 {
		t.Errorf("expected no retries after context deadline, got %d calls", got)
	}
}

func TestDailySummaryRejectsEmptySummaryText(t *testing.T) {
	srv := newTestServer(t, `{"key_progress": [], "risks": [], "urgent_tasks": [], "blocked_items": [], "summary_text": ""}`)
	defer srv.Close()

	_, err := newTestClient(srv.URL).DailySummary(context.Background(), "Apollo", nil)
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed for empty summary_text, got %v", err)
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{`prefix {"a":{"b":2}} suffix`, `{"a":{"b":2}}`},
		{`no json here`, `no json here`},
	}
	for _, tc := range cases {
		if got := string(extractJSON(tc.in)); got != tc.want {
			t.Errorf("extractJSON(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
