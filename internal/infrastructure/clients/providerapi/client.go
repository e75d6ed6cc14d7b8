package providerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/sitepulse/analyst/pkg/config"
	"github.com/sitepulse/analyst/pkg/retry"
)

// AuthMode selects how the access token is sent.
type AuthMode int

const (
	// AuthBearer sends "Authorization: Bearer <token>" (Google APIs).
	AuthBearer AuthMode = iota
	// AuthQuery sends the token as the access_token query parameter (Graph API).
	AuthQuery
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s api returned status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s api returned status %d: %s", e.Service, e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed if repeated.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Options configures an HTTPClient.
type Options struct {
	Service     string
	BaseURL     string
	AccessToken string
	Auth        AuthMode
	HTTP        config.HTTPClientConfig
}

// HTTPClient is a rate limited JSON client for one analytics API.
type HTTPClient struct {
	service    string
	baseURL    string
	token      string
	auth       AuthMode
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      retry.Config
}

// NewClient creates a client for one API.
func NewClient(opts Options) *HTTPClient {
	timeout := opts.HTTP.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	burst := opts.HTTP.Burst
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if opts.HTTP.RatePerSecond > 0 {
		limit = rate.Limit(opts.HTTP.RatePerSecond)
	}

	retryCfg := retry.FetchConfig()
	if opts.HTTP.RetryAttempts > 0 {
		retryCfg.MaxAttempts = opts.HTTP.RetryAttempts
	}
	if opts.HTTP.RetryBaseDelay > 0 {
		retryCfg.InitialDelay = opts.HTTP.RetryBaseDelay
	}

	return &HTTPClient{
		service:    opts.Service,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.AccessToken,
		auth:       opts.Auth,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		retry:      retryCfg,
	}
}

// Configured reports whether the client has credentials.
func (c *HTTPClient) Configured() bool {
	return c.token != "" && c.baseURL != ""
}

// Service returns the API name used in logs and errors.
func (c *HTTPClient) Service() string {
	return c.service
}

// GetJSON performs a GET and decodes the JSON response into out.
func (c *HTTPClient) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.DoJSON(ctx, http.MethodGet, path, query, nil, out)
}

// PostJSON performs a POST with a JSON body and decodes the response into out.
func (c *HTTPClient) PostJSON(ctx context.Context, path string, body, out any) error {
	return c.DoJSON(ctx, http.MethodPost, path, nil, body, out)
}

// DoJSON sends a request, retrying rate limited, server and network errors.
func (c *HTTPClient) DoJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint, err := c.endpoint(path, query)
	if err != nil {
		return retry.Permanent(err)
	}

	var payload []byte
	if body != nil {
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode %s request: %w", c.service, err)
		}
	}

	return retry.DoWithLog(ctx, c.retry, c.service,
		func() error {
			return c.do(ctx, method, endpoint, payload, out)
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Str("service", c.service).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("API request failed")
		},
	)
}

func (c *HTTPClient) endpoint(path string, query url.Values) (string, error) {
	parsed, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("invalid %s url: %w", c.service, err)
	}
	values := parsed.Query()
	for k, vs := range query {
		for _, v := range vs {
			values.Add(k, v)
		}
	}
	if c.auth == AuthQuery && c.token != "" {
		values.Set("access_token", c.token)
	}
	parsed.RawQuery = values.Encode()
	return parsed.String(), nil
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint string, payload []byte, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return retry.Permanent(err)
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return retry.Permanent(err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.auth == AuthBearer && c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return retry.Permanent(err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		statusErr := &StatusError{Service: c.service, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
		if statusErr.Retryable() {
			return statusErr
		}
		return retry.Permanent(statusErr)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return retry.Permanent(fmt.Errorf("decode %s response: %w", c.service, err))
	}
	return nil
}
