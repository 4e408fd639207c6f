package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Callers branch on these instead of inspecting error text. Every caller
// has a documented fallback, so neither error is ever user-facing.
var (
	// ErrUnavailable: the collaborator could not be reached or did not
	// answer within the attempt budget.
	ErrUnavailable = errors.New("ai: collaborator unavailable")
	// ErrMalformed: the collaborator answered, but not with parseable
	// structured output.
	ErrMalformed = errors.New("ai: malformed response")
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"
)

type Client struct {
	APIKey  string
	Model   string
	BaseURL string

	// MaxAttempts bounds retries on transport errors and non-200s.
	// There is deliberately no retry on malformed output: a second call
	// costs money and the fallback is fine.
	MaxAttempts int

	HTTPClient *http.Client
}

func New(apiKey, model string, timeout time.Duration, maxAttempts int) *Client {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Client{
		APIKey:      apiKey,
		Model:       model,
		BaseURL:     defaultBaseURL,
		MaxAttempts: maxAttempts,
		HTTPClient:  &http.Client{Timeout: timeout},
	}
}

// AnalyzeTask asks the model for the structured enrichment of one task.
func (c *Client) AnalyzeTask(ctx context.Context, title, description string) (TaskAnalysis, error) {
	text, err := c.complete(ctx, buildAnalyzePrompt(title, description), 2000)
	if err != nil {
		return TaskAnalysis{}, err
	}

	var analysis TaskAnalysis
	if err := json.Unmarshal(extractJSON(text), &analysis); err != nil {
		return TaskAnalysis{}, ErrMalformed
	}
	return analysis, nil
}

// DailySummary asks the model for the daily narrative of a project.
func (c *Client) DailySummary(ctx context.Context, projectName string, briefs []TaskBrief) (Summary, error) {
	text, err := c.complete(ctx, buildSummaryPrompt(projectName, briefs), 3000)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	if err := json.Unmarshal(extractJSON(text), &summary); err != nil {
		return Summary{}, ErrMalformed
	}
	if strings.TrimSpace(summary.SummaryText) == "" {
		return Summary{}, ErrMalformed
	}
	return summary, nil
}

// StakeholderUpdate turns an already-generated report (as JSON) into a
// stakeholder-friendly email body. Plain text out, no JSON contract.
func (c *Client) StakeholderUpdate(ctx context.Context, projectName, summaryJSON string) (string, error) {
	text, err := c.complete(ctx, buildStakeholderPrompt(projectName, summaryJSON), 1000)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrMalformed
	}
	return text, nil
}

// complete runs one prompt through the messages API and returns the
// assistant text. Bounded retries, then ErrUnavailable.
func (c *Client) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	body := map[string]any{
		"model":      c.Model,
		"max_tokens": maxTokens,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	}
	payload, _ := json.Marshal(body)

	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	attempts := c.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		req, err := http.NewRequestWithContext(
			ctx,
			http.MethodPost,
			baseURL+"/v1/messages",
			bytes.NewReader(payload),
		)
		if err != nil {
			return "", err
		}
		req.Header.Set("x-api-key", c.APIKey)
		req.Header.Set("anthropic-version", anthropicVersion)
		req.Header.Set("Content-Type", "application/json")

		res, err := c.HTTPClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break // caller gave up, don't burn more attempts
			}
			continue
		}

		raw, err := io.ReadAll(res.Body)
		res.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if res.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("ai: status %d", res.StatusCode)
			continue
		}

		var parsed struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.Unmarshal(raw, &parsed); err != nil || len(parsed.Content) == 0 {
			return "", ErrMalformed
		}
		return parsed.Content[0].Text, nil
	}

	if lastErr != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
	}
	return "", ErrUnavailable
}

// extractJSON cuts the first {...} block out of model output. Models wrap
// JSON in prose or code fences often enough that this is load-bearing.
func extractJSON(text string) []byte {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return []byte(text)
	}
	return []byte(text[start : end+1])
}
