package dumpling

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/petal-labs/dumpling-mcp/tool"
)

const (
	// DefaultBaseURL is the production Dumpling AI API origin.
	DefaultBaseURL = "https://app.dumplingai.com"
	// APIPathPrefix is prepended to every tool path.
	APIPathPrefix = "/api/v1/"

	defaultUserAgent = "dumpling-mcp"
)

// ClientConfig configures the upstream API client.
type ClientConfig struct {
	BaseURL string
	// APIKey is the bearer credential. An empty key is accepted here and
	// reported as MISSING_CREDENTIAL on every call.
	APIKey string
	// Timeout bounds a whole request. Zero means no client-level timeout.
	Timeout   time.Duration
	UserAgent string
	// HTTPClient overrides the default pooled, instrumented client.
	HTTPClient *http.Client
}

// Client issues tool requests against the Dumpling AI API. It holds no
// per-request state and is safe for concurrent use.
type Client struct {
	baseURL   string
	apiKey    string
	userAgent string
	http      *http.Client
}

// NewClient validates cfg and returns a client.
func NewClient(cfg ClientConfig) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("dumpling: invalid base url %q: %w", base, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("dumpling: base url %q must use http or https", base)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("dumpling: base url %q has no host", base)
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("dumpling: timeout must not be negative")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(cfg.Timeout)
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		baseURL:   strings.TrimRight(base, "/"),
		apiKey:    strings.TrimSpace(cfg.APIKey),
		userAgent: userAgent,
		http:      httpClient,
	}, nil
}

// HasCredential reports whether an API key is configured.
func (c *Client) HasCredential() bool {
	return c != nil && c.apiKey != ""
}

// BaseURL returns the normalized API origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Endpoint returns the full URL for a tool path.
func (c *Client) Endpoint(toolPath string) string {
	return c.baseURL + APIPathPrefix + strings.TrimLeft(toolPath, "/")
}

// Post sends payload as JSON to the tool path and decodes the JSON object
// response. Exactly one request is made; failures are never retried here.
func (c *Client) Post(ctx context.Context, toolPath string, payload any) (Body, error) {
	if !c.HasCredential() {
		return nil, tool.Errorf(tool.ToolErrorCodeMissingCredential, "%s is not set", EnvAPIKey)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, tool.NewError(tool.ToolErrorCodeInvalidArguments, "encode request body", err)
	}

	endpoint := c.Endpoint(toolPath)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, tool.NewError(tool.ToolErrorCodeTransportFailure, "build upstream request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, tool.NewError(tool.ToolErrorCodeTransportFailure, fmt.Sprintf("POST %s: %v", endpoint, err), err).
			WithRetryable(isTransientTransportError(err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, tool.NewError(tool.ToolErrorCodeTransportFailure, "read upstream response", err).
			WithRetryable(true)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		message := fmt.Sprintf("upstream returned status %d", resp.StatusCode)
		if len(respBody) > 0 {
			message += ": " + string(respBody)
		}
		return nil, tool.Errorf(tool.ToolErrorCodeUpstreamFailure, "%s", message).
			WithRetryable(isRetryableStatus(resp.StatusCode)).
			WithDetails(map[string]any{
				"status": resp.StatusCode,
				"body":   string(respBody),
			})
	}

	return decodeBody(respBody)
}

func decodeBody(raw []byte) (Body, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, tool.NewError(tool.ToolErrorCodeMalformedResponse, "decode upstream response: "+err.Error(), err)
	}
	if decoder.More() {
		return nil, tool.Errorf(tool.ToolErrorCodeMalformedResponse, "decode upstream response: trailing data after JSON value")
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, tool.Errorf(tool.ToolErrorCodeMalformedResponse, "upstream response must be a JSON object, got %s", jsonKind(value))
	}
	return Body(obj), nil
}

func isRetryableStatus(status int) bool {
	return status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests ||
		status >= http.StatusInternalServerError
}

func isTransientTransportError(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          200,
		MaxIdleConnsPerHost:   50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(transport),
	}
}
