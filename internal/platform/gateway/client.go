// Package gateway is the outbound HTTP client for the API gateway that fronts
// the verification, issuance and token services. It classifies failures into
// domain errors and guards every call with a circuit breaker.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vaultflow/internal/platform/metrics"
	dErrors "vaultflow/pkg/domain-errors"
	"vaultflow/pkg/platform/circuit"
)

// maxResponseBytes bounds how much of an upstream body is read.
const maxResponseBytes = 1 << 20

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Request describes one outbound call. Exactly one of JSON or Form may be set.
type Request struct {
	Method string
	// Path is joined to the client's base URL unless URL is set.
	Path string
	URL  string
	JSON any
	Form url.Values
	// Bearer overrides the TokenSource for this call.
	Bearer string
}

// Client performs JSON calls against one upstream collaborator.
type Client struct {
	name    string
	baseURL string
	doer    HTTPDoer
	tokens  TokenSource
	breaker *circuit.Breaker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		c.doer = doer
	}
}

func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client named after the collaborator it talks to.
func New(name, baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.doer == nil {
		c.doer = &http.Client{Timeout: timeout}
	}
	if c.breaker == nil {
		c.breaker = circuit.New(name, circuit.WithStateChange(func(n string, _, to circuit.State) {
			c.metrics.SetCircuitState(n, int(to))
		}))
	}
	return c
}

// Name returns the collaborator name used in logs, metrics and errors.
func (c *Client) Name() string {
	return c.name
}

// Do executes req and decodes a 2xx JSON body into out (when out is non-nil).
// Failures are returned as domain errors:
//   - transport timeout: CodeTimeout
//   - transport failure, 429, 5xx, open circuit: CodeUnavailable
//   - 400/409/422: CodeBadRequest carrying the upstream message
//   - anything else: CodeInternal
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	start := time.Now()
	err := c.breaker.Execute(func() error {
		return c.do(ctx, req, out)
	}, countsAgainstCircuit)
	c.metrics.ObserveCollaborator(c.name, time.Since(start))

	if errors.Is(err, circuit.ErrOpen) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, c.name+" is temporarily unavailable")
	}
	return err
}

func countsAgainstCircuit(err error) bool {
	code := dErrors.CodeOf(err)
	return code == dErrors.CodeUnavailable || code == dErrors.CodeTimeout
}

func (c *Client) do(ctx context.Context, req Request, out any) error {
	httpReq, err := c.build(ctx, req)
	if err != nil {
		return err
	}

	resp, err := c.doer.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, c.name+" request timed out")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, c.name+" is unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read "+c.name+" response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.WarnContext(ctx, "upstream call failed",
			"collaborator", c.name,
			"status", resp.StatusCode,
		)
		return c.classifyStatus(resp.StatusCode, body)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "invalid "+c.name+" response")
	}
	return nil
}

func (c *Client) build(ctx context.Context, req Request) (*http.Request, error) {
	target := req.URL
	if target == "" {
		target = c.baseURL + req.Path
	}
	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case req.Form != nil:
		body = strings.NewReader(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case req.JSON != nil:
		payload, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode "+c.name+" request")
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create "+c.name+" request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	bearer := req.Bearer
	if bearer == "" && c.tokens != nil {
		bearer, err = c.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
	}
	if bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+bearer)
	}
	return httpReq, nil
}

// upstreamError is the error body shape used by the gateway services.
type upstreamError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Details []struct {
		Issue string `json:"issue"`
	} `json:"details"`
}

func (c *Client) classifyStatus(status int, body []byte) error {
	message := upstreamMessage(body)
	switch {
	case status == http.StatusBadRequest || status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		if message == "" {
			message = fmt.Sprintf("%s rejected the request", c.name)
		}
		return dErrors.New(dErrors.CodeBadRequest, message)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return dErrors.New(dErrors.CodeInternal, fmt.Sprintf("%s authentication failed: %d", c.name, status))
	case status == http.StatusTooManyRequests || status >= 500:
		return dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("%s unavailable: %d", c.name, status))
	default:
		return dErrors.New(dErrors.CodeInternal, fmt.Sprintf("%s returned unexpected status %d", c.name, status))
	}
}

func upstreamMessage(body []byte) string {
	var e upstreamError
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = e.Error
	}
	if len(e.Details) > 0 {
		issues := make([]string, 0, len(e.Details))
		for _, d := range e.Details {
			if d.Issue != "" {
				issues = append(issues, d.Issue)
			}
		}
		switch {
		case len(issues) == 0:
		case msg == "":
			msg = strings.Join(issues, "; ")
		default:
			msg += ": " + strings.Join(issues, "; ")
		}
	}
	return msg
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
