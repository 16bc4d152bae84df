package bubble

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
)

// ErrBackend matches every *Error returned by the client
var ErrBackend = errors.New("bubble backend error")

// Error is a non-success answer from a Bubble workflow
type Error struct {
	Workflow string
	Status   int
	Code     string
	Message  string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("bubble workflow %s failed (%d %s): %s", e.Workflow, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("bubble workflow %s failed (%d): %s", e.Workflow, e.Status, e.Message)
}

func (e *Error) Is(target error) bool {
	return target == ErrBackend
}

// Config holds the Bubble app connection settings
type Config struct {
	BaseURL string        `json:"base_url"`
	APIKey  string        `json:"api_key"`
	Timeout time.Duration `json:"timeout"`
}

// CallObserver is told about every workflow call. status is 0 when no
// response was received.
type CallObserver func(workflow string, status int, err error, latency time.Duration)

// Client calls Bubble backend workflows (POST {base}/wf/{name}).
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	observe    CallObserver
	logger     *zap.Logger
}

type Option func(*Client)

func WithCallObserver(fn CallObserver) Option {
	return func(c *Client) { c.observe = fn }
}

func NewClient(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call runs a workflow with payload and decodes its response object into out
// (which may be nil). The request is bound to ctx.
func (c *Client) Call(ctx context.Context, workflow string, payload any, out any) error {
	start := time.Now()
	status, err := c.call(ctx, workflow, payload, out)
	if c.observe != nil {
		c.observe(workflow, status, err, time.Since(start))
	}
	return err
}

// envelope covers both shapes Bubble answers with: a success wrapper
// {"status":"success","response":{...}} and the error forms
// {"statusCode":400,"body":{"status":"...","message":"..."}} or
// {"status":"NOT_RUN","message":"..."}.
type envelope struct {
	Status     string          `json:"status"`
	Message    string          `json:"message"`
	Reason     string          `json:"reason"`
	Response   json.RawMessage `json:"response"`
	StatusCode int             `json:"statusCode"`
	Body       *struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Reason  string `json:"reason"`
	} `json:"body"`
}

func (c *Client) call(ctx context.Context, workflow string, payload any, out any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/wf/%s", c.baseURL, workflow)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Bubble request failed",
			zap.String("workflow", workflow),
			zap.Error(err))
		return 0, fmt.Errorf("bubble workflow %s: %w", workflow, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read bubble response: %w", err)
	}

	c.logger.Debug("Bubble workflow called",
		zap.String("workflow", workflow),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return resp.StatusCode, fmt.Errorf("failed to decode bubble response: %w", err)
		}
	}

	if resp.StatusCode >= 300 || (env.Status != "" && !strings.EqualFold(env.Status, "success")) {
		be := c.toError(workflow, resp.StatusCode, env, raw)
		return be.Status, be
	}

	if out != nil && len(env.Response) > 0 {
		if err := json.Unmarshal(env.Response, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode bubble response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) toError(workflow string, status int, env envelope, raw []byte) *Error {
	e := &Error{Workflow: workflow, Status: status, Code: env.Status, Message: env.Message}
	if env.Reason != "" {
		e.Code = env.Reason
	}
	if env.Body != nil {
		if env.Body.Message != "" {
			e.Message = env.Body.Message
		}
		if env.Body.Reason != "" {
			e.Code = env.Body.Reason
		} else if env.Body.Status != "" {
			e.Code = env.Body.Status
		}
	}
	if env.StatusCode >= 400 && e.Status < 400 {
		e.Status = env.StatusCode
	}
	// 200 with a failed status still has to surface as an error
	if e.Status < 400 {
		e.Status = http.StatusBadRequest
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(raw))
	}
	if e.Message == "" {
		e.Message = http.StatusText(e.Status)
	}
	return e
}

// StatusFor maps an error from the client to the HTTP status and message the
// caller should see. Backend errors pass through, anything else is a 500.
func StatusFor(err error) (int, string) {
	var be *Error
	if errors.As(err, &be) {
		return be.Status, be.Message
	}
	return http.StatusInternalServerError, "Internal server error"
}
