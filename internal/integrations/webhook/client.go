package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBody is the placeholder payload the webhook has always received.
	// It carries no information; the message travels in the query string.
	DefaultBody = "false"

	contentType  = "text/plain;charset=UTF-8"
	maxReplySize = 1 << 20
)

// RequestError is returned when the webhook answers with a non-2xx status.
type RequestError struct {
	StatusCode int
	StatusText string
	URL        string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("Error: %d %s", e.StatusCode, e.StatusText)
}

func (e *RequestError) HTTPStatusCode() int {
	return e.StatusCode
}

// TransportError covers everything that prevents a reply from being read:
// unreachable endpoint, cancelled context, unreadable or malformed body.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("webhook: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// replyPayload is the response shape the webhook returns on success.
type replyPayload struct {
	Output *string `json:"output"`
}

// Client posts chat input to a single webhook endpoint.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	body       string
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout bounds each request. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.resolvedHTTPClient()
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithBody replaces the placeholder request body.
func WithBody(body string) Option {
	return func(c *Client) {
		c.body = body
	}
}

// NewClient creates a Client for the given webhook URL. Without WithTimeout
// requests are not time limited, so an unresponsive endpoint blocks Send
// until ctx is done.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("webhook: base URL must not be empty")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("webhook: parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("webhook: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("webhook: base URL has no host")
	}
	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{},
		body:       DefaultBody,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{}
}

// requestURL appends chatInput and sessionId to the base URL, keeping any
// query parameters it already carries.
func requestURL(base *url.URL, text, sessionID string) string {
	u := *base
	q := u.Query()
	q.Set("chatInput", text)
	q.Set("sessionId", sessionID)
	u.RawQuery = q.Encode()
	return u.String()
}

// Send delivers one chat message and returns the webhook's reply.
// A non-2xx answer yields *RequestError; any other failure yields
// *TransportError.
func (c *Client) Send(ctx context.Context, text, sessionID string) (string, error) {
	target := requestURL(c.baseURL, text, sessionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(c.body))
	if err != nil {
		return "", &TransportError{Op: "create request", Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return "", &TransportError{Op: "request failed", Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		return "", &RequestError{
			StatusCode: res.StatusCode,
			StatusText: statusText(res),
			URL:        target,
		}
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxReplySize))
	if err != nil {
		return "", &TransportError{Op: "read response body", Err: err}
	}
	return decodeReply(raw)
}

func decodeReply(raw []byte) (string, error) {
	var payload replyPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", &TransportError{Op: "decode response", Err: err}
	}
	if payload.Output == nil {
		return "", &TransportError{Op: "decode response", Err: errors.New(`missing "output" field`)}
	}
	return *payload.Output, nil
}

// statusText extracts the reason phrase from the status line, falling back to
// the canonical text when the server sent none.
func statusText(res *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(res.Status, strconv.Itoa(res.StatusCode)))
	if text == "" {
		text = http.StatusText(res.StatusCode)
	}
	return text
}
