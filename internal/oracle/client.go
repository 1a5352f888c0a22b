// Package oracle talks to the remote AI functions: the verification oracle
// that judges challenge proof, and the text-generation endpoint used by the
// challenge generator. Every response is treated as untrusted.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"zcoinsAPI/internal/common"
	"zcoinsAPI/internal/metrics"
)

const (
	verifyPath   = "/verify-challenge"
	generatePath = "/generate-text"

	maxResponseBytes = 1 << 20
)

type VerifyRequest struct {
	ChallengeTitle       string `json:"challengeTitle"`
	ChallengeDescription string `json:"challengeDescription,omitempty"`
	ProofImage           string `json:"proofImage"` // data URL
	UserID               string `json:"userId"`
}

// Verdict is a substantive judgement. Transport and validation problems are
// returned as errors instead.
type Verdict struct {
	Success    bool   `json:"success"`
	FeedbackAr string `json:"feedbackAr"`
}

type verifyResponse struct {
	Success    *bool  `json:"success"`
	FeedbackAr string `json:"feedbackAr"`
	Error      bool   `json:"error"`
	Message    string `json:"message"`
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Text    string `json:"text"`
	Content string `json:"content"`
	Error   string `json:"error"`
}

type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *http.Client
}

// NewClient builds a client for the functions under baseURL. timeout bounds
// each call; zero means no per-call limit beyond the caller's context.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		timeout: timeout,
		http:    &http.Client{},
	}
}

// Verify asks the oracle whether the proof satisfies the challenge.
func (c *Client) Verify(ctx context.Context, req VerifyRequest) (Verdict, error) {
	start := time.Now()

	body, err := c.post(ctx, verifyPath, req)
	if err != nil {
		observe("verify", "error", start)
		return Verdict{}, err
	}

	var out verifyResponse
	if err := json.Unmarshal(body, &out); err != nil {
		observe("verify", "malformed", start)
		return Verdict{}, fmt.Errorf("%w: malformed verdict: %v", common.ErrOracleUnavailable, err)
	}
	if out.Error {
		observe("verify", "error", start)
		return Verdict{}, fmt.Errorf("%w: oracle reported error: %s", common.ErrOracleUnavailable, out.Message)
	}
	if out.Success == nil {
		observe("verify", "malformed", start)
		return Verdict{}, fmt.Errorf("%w: verdict without success field", common.ErrOracleUnavailable)
	}

	observe("verify", "ok", start)
	return Verdict{Success: *out.Success, FeedbackAr: out.FeedbackAr}, nil
}

// Generate returns the model's free-text reply to prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	body, err := c.post(ctx, generatePath, generateRequest{Prompt: prompt})
	if err != nil {
		observe("generate", "error", start)
		return "", err
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		// some deployments answer with the raw model text
		observe("generate", "ok", start)
		return string(body), nil
	}
	if out.Error != "" {
		observe("generate", "error", start)
		return "", fmt.Errorf("%w: generator reported error: %s", common.ErrOracleUnavailable, out.Error)
	}

	text := out.Text
	if text == "" {
		text = out.Content
	}
	if text == "" {
		observe("generate", "malformed", start)
		return "", fmt.Errorf("%w: empty generation", common.ErrOracleUnavailable)
	}

	observe("generate", "ok", start)
	return text, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("%w: no endpoint configured", common.ErrOracleUnavailable)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrOracleUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out", common.ErrOracleUnavailable)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", common.ErrOracleUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s returned %d", common.ErrOracleUnavailable, path, resp.StatusCode)
	}

	return body, nil
}

func observe(call, result string, start time.Time) {
	metrics.OracleDuration.WithLabelValues(call, result).Observe(time.Since(start).Seconds())
}
