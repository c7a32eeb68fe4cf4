// Package pollclient talks to the poll backend: schema, submissions and analytics.
package pollclient

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

	"go.uber.org/zap"

	"prepost-poll/internal/domain"
	"prepost-poll/internal/metrics"
)

const (
	endpointSchema    = "poll"
	endpointSubmit    = "submit"
	endpointAnalytics = "analytics"
)

type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func New(baseURL string, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
		metrics: m,
	}
}

type submission struct {
	PollType domain.PollVariant `json:"poll_type"`
	Answers  domain.AnswerSet   `json:"answers"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

// FetchSchema loads the question schema from GET /poll.
func (c *Client) FetchSchema(ctx context.Context) (domain.Schema, error) {
	var schema domain.Schema
	err := c.do(ctx, endpointSchema, http.MethodGet, "/poll", nil, &schema)
	return schema, err
}

// Submit posts one poll's answers. A rejected submission returns *domain.ServerError
// carrying the server's detail text.
func (c *Client) Submit(ctx context.Context, variant domain.PollVariant, answers domain.AnswerSet) error {
	if answers == nil {
		answers = domain.AnswerSet{}
	}
	body, err := json.Marshal(submission{PollType: variant, Answers: answers})
	if err != nil {
		return err
	}
	return c.do(ctx, endpointSubmit, http.MethodPost, "/poll", body, nil)
}

// FetchAnalytics loads aggregate results from GET /analytics.
func (c *Client) FetchAnalytics(ctx context.Context) (domain.AnalyticsPayload, error) {
	var payload domain.AnalyticsPayload
	err := c.do(ctx, endpointAnalytics, http.MethodGet, "/analytics", nil, &payload)
	return payload, err
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, body []byte, out any) error {
	start := time.Now()
	err := c.roundTrip(ctx, endpoint, method, path, body, out)
	outcome := classify(ctx, err)
	c.metrics.ObserveBackend(endpoint, outcome, time.Since(start))
	if err != nil {
		c.logger.Warn("backend request failed",
			zap.String("endpoint", endpoint),
			zap.String("outcome", outcome),
			zap.Error(err))
		return err
	}
	c.logger.Debug("backend request", zap.String("endpoint", endpoint), zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		return &domain.ServerError{Op: op, Status: resp.StatusCode, Detail: eb.Detail}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &domain.ParseError{Op: op, Err: fmt.Errorf("decode %s: %w", path, err)}
	}
	return nil
}

func classify(ctx context.Context, err error) string {
	var (
		serverErr *domain.ServerError
		parseErr  *domain.ParseError
	)
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &serverErr):
		return metrics.OutcomeServer
	case errors.As(err, &parseErr):
		return metrics.OutcomeParse
	case errors.Is(ctx.Err(), context.Canceled):
		return metrics.OutcomeSuperseded
	default:
		return metrics.OutcomeNetwork
	}
}
