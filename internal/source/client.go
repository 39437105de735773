package source

import (
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

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://www.xing-events.com/api/"
	maxBodyBytes   = 20 << 20
)

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RateRPS   float64
	RateBurst int
}

// Client talks to the source platform's REST API. Every call is a GET that
// returns a JSON envelope with a boolean "success" flag.
type Client struct {
	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("source api status %d: %s", e.StatusCode, e.Body)
}

// EnvelopeError is returned when a response decodes but reports
// success=false.
type EnvelopeError struct {
	Messages []string
}

func (e *EnvelopeError) Error() string {
	if len(e.Messages) == 0 {
		return "api returned success=false"
	}
	return "api returned success=false: " + strings.Join(e.Messages, "; ")
}

// RemoteError wraps every failure of a remote call: transport errors,
// non-2xx statuses, undecodable bodies and success=false envelopes.
type RemoteError struct {
	Path string
	Err  error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote call %s: %v", e.Path, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is a remote 401/403.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

func NewClient(cfg Config, apiKey string, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		raw = DefaultBaseURL
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid source base url: %w", err)
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("source api key is required")
	}
	var limiter *rate.Limiter
	if cfg.RateRPS > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateRPS), burst)
	}
	return &Client{
		baseURL:    base,
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger,
	}, nil
}

// BaseURL returns the resolved API root.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Fetch performs one call and returns the decoded envelope fields.
func (c *Client) Fetch(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	body, err := c.do(ctx, path)
	if err != nil {
		return nil, &RemoteError{Path: path, Err: err}
	}
	envelope, err := decodeEnvelope(body)
	if err != nil {
		return nil, &RemoteError{Path: path, Err: err}
	}
	return envelope, nil
}

// FetchInto performs one call and decodes the envelope field key into out.
func (c *Client) FetchInto(ctx context.Context, path, key string, out interface{}) error {
	envelope, err := c.Fetch(ctx, path)
	if err != nil {
		return err
	}
	return decodeField(envelope, path, key, out)
}

// Download retrieves a file referenced by the source data, such as a logo
// or an uploaded answer. The API key is only sent to the API host.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, string, error) {
	target, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, "", &RemoteError{Path: rawURL, Err: fmt.Errorf("invalid asset url")}
	}
	if err := c.wait(ctx); err != nil {
		return nil, "", &RemoteError{Path: rawURL, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, "", &RemoteError{Path: rawURL, Err: err}
	}
	if strings.EqualFold(target.Host, c.baseURL.Host) {
		req.Header.Set("Authorization", "ApiKey "+c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", &RemoteError{Path: rawURL, Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "", &RemoteError{Path: rawURL, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &RemoteError{Path: rawURL, Err: &APIError{StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}}
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	return body, contentType, nil
}

func (c *Client) do(ctx context.Context, path string) ([]byte, error) {
	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	target := c.baseURL.ResolveReference(ref)

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "ApiKey "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	c.logger.Debug("source_api_response", "path", path, "status", resp.StatusCode, "bytes", len(body))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, &APIError{StatusCode: resp.StatusCode, Body: truncate(strings.TrimSpace(string(body)), 512)}
	}
	return body, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func decodeEnvelope(body []byte) (map[string]json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	var success bool
	if raw, ok := envelope["success"]; !ok || json.Unmarshal(raw, &success) != nil || !success {
		return nil, &EnvelopeError{Messages: envelopeMessages(envelope["errors"])}
	}
	return envelope, nil
}

// envelopeMessages flattens the "errors" field, which the API sends either
// as a list of strings or as a list/map of objects.
func envelopeMessages(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	return []string{strings.TrimSpace(string(raw))}
}

func decodeField(envelope map[string]json.RawMessage, path, key string, out interface{}) error {
	raw, ok := envelope[key]
	if !ok {
		return &RemoteError{Path: path, Err: fmt.Errorf("response has no %q field", key)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &RemoteError{Path: path, Err: fmt.Errorf("decode %s: %w", key, err)}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
