// Package coach talks to the plan generation service.
package coach

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

	"github.com/sandeepkv93/studycoach/internal/plan"
)

var (
	ErrNoBaseURL     = errors.New("coach: api url is not configured")
	ErrEmptyResponse = errors.New("coach: service returned no plan text")
)

// APIError is a non-2xx answer from the service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("coach: service returned %d", e.Status)
	}
	return fmt.Sprintf("coach: service returned %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type GenerateRequest struct {
	Goal      string `json:"goal"`
	Duration  int    `json:"duration"`
	StartDate string `json:"startDate"`
}

type generateResponse struct {
	Plan string `json:"plan"`
}

// GeneratePlan asks the service for a fresh plan. Duration defaults to 30
// days and StartDate to "today".
func (c *Client) GeneratePlan(ctx context.Context, req GenerateRequest) (string, error) {
	if req.Duration <= 0 {
		req.Duration = 30
	}
	if strings.TrimSpace(req.StartDate) == "" {
		req.StartDate = "today"
	}
	var out generateResponse
	if err := c.post(ctx, "/generate-plan", req, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Plan) == "" {
		return "", ErrEmptyResponse
	}
	return out.Plan, nil
}

type AdaptRequest struct {
	Plan      string        `json:"plan"`
	Progress  plan.Progress `json:"progress"`
	Feedback  string        `json:"feedback"`
	Goal      string        `json:"goal"`
	Days      int           `json:"days"`
	StartDate string        `json:"start_date"`
}

type adaptResponse struct {
	AdaptedPlan string `json:"adapted_plan"`
}

// AdaptPlan sends the current plan, progress and feedback and returns the
// rewritten plan text.
func (c *Client) AdaptPlan(ctx context.Context, req AdaptRequest) (string, error) {
	if req.Progress == nil {
		req.Progress = plan.Progress{}
	}
	var out adaptResponse
	if err := c.post(ctx, "/adapt-plan", req, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.AdaptedPlan) == "" {
		return "", ErrEmptyResponse
	}
	return out.AdaptedPlan, nil
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	if c.baseURL == "" {
		return ErrNoBaseURL
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
