// Package aiengine calls the resume analysis service for resume analyses and
// learning roadmaps. Response bodies are returned as raw JSON; this package
// never interprets them.
package aiengine

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

	"github.com/getmentor/mentorship-api/pkg/circuitbreaker"
	"github.com/getmentor/mentorship-api/pkg/httpclient"
	"github.com/getmentor/mentorship-api/pkg/logger"
	"github.com/getmentor/mentorship-api/pkg/retry"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	analyzePath     = "/api/v1/analyze-resume"
	roadmapPath     = "/api/v1/generate-roadmap"
	maxResponseSize = 1 << 20
)

// StatusError is returned for non-2xx responses
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ai engine returned %d: %s", e.StatusCode, e.Body)
}

type analyzeRequest struct {
	ResumeText string `json:"resume_text"`
	TargetRole string `json:"target_role"`
}

type roadmapRequest struct {
	MissingSkills []string `json:"missing_skills"`
	TargetRole    string   `json:"target_role"`
}

// Client talks to the AI engine through a circuit breaker with bounded retries
type Client struct {
	baseURL string
	http    httpclient.Client
	breaker *gobreaker.CircuitBreaker
	retry   retry.Config
}

// NewClient creates a client for baseURL
func NewClient(baseURL string, httpClient httpclient.Client) *Client {
	cfg := retry.AIEngineConfig()
	cfg.RetryableErrors = isRetryable

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig("ai-engine")),
		retry:   cfg,
	}
}

// AnalyzeResume posts the resume and returns the analysis JSON verbatim
func (c *Client) AnalyzeResume(ctx context.Context, resumeText, targetRole string) (json.RawMessage, error) {
	body, err := json.Marshal(analyzeRequest{ResumeText: resumeText, TargetRole: targetRole})
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis request: %w", err)
	}

	return c.call(ctx, "analyzeResume", analyzePath, body)
}

// GenerateRoadmap requests a weekly learning plan for the missing skills and
// returns it verbatim
func (c *Client) GenerateRoadmap(ctx context.Context, missingSkills []string, targetRole string) (json.RawMessage, error) {
	body, err := json.Marshal(roadmapRequest{MissingSkills: missingSkills, TargetRole: targetRole})
	if err != nil {
		return nil, fmt.Errorf("failed to encode roadmap request: %w", err)
	}
	return c.call(ctx, "generateRoadmap", roadmapPath, body)
}

// Degraded reports whether the breaker is currently refusing calls
func (c *Client) Degraded() bool {
	return circuitbreaker.IsOpen(c.breaker)
}

func (c *Client) call(ctx context.Context, operation, path string, body []byte) (json.RawMessage, error) {
	start := time.Now()
	result, err := retry.DoWithResult(ctx, c.retry, operation, func() (json.RawMessage, error) {
		return circuitbreaker.Execute(c.breaker, func() (json.RawMessage, error) {
			return c.post(ctx, path, body)
		})
	})
	duration := time.Since(start).Seconds()

	if err != nil {
		logger.LogAPICall("ai_engine", operation, "error", duration, zap.Error(err))
		return nil, err
	}
	logger.LogAPICall("ai_engine", operation, "success", duration, zap.Int("response_bytes", len(result)))
	return result, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ai engine request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read ai engine response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("ai engine returned invalid JSON")
	}

	return json.RawMessage(raw), nil
}

// isRetryable retries transport errors and 5xx/429, never other 4xx or an open breaker
func isRetryable(err error) bool {
	if !retry.IsRetryable(err) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500 || se.StatusCode == http.StatusTooManyRequests
	}
	return !errors.Is(err, circuitbreaker.ErrUnavailable)
}
