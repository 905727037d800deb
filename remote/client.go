// Package remote implements adapter.Router over HTTP, so the same verb/
// endpoint/payload operations the local façade dispatches in-process can
// instead be spoken to a remote docbase-compatible service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"docbase.evalgo.org/adapter"
	"docbase.evalgo.org/dblog"
)

// Client implements adapter.Router by issuing HTTP requests against a
// remote docbase service's operation endpoints.
type Client struct {
	baseURL    string
	token      string
	maxRetries int
	httpClient *http.Client
}

// Config bundles Client's construction options. PoolSize controls the
// transport's per-host idle connection pool; the client is built once and
// reused for every request the adapter issues over the process lifetime.
type Config struct {
	BaseURL    string
	Token      string
	PoolSize   int
	MaxRetries int
	Timeout    time.Duration
}

// New builds a Client from cfg, defaulting PoolSize and Timeout when left
// at their zero value. A zero MaxRetries means a single attempt; a
// negative one is treated as zero.
func New(cfg Config) *Client {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: poolSize,
		MaxIdleConns:        poolSize * 2,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		maxRetries: maxRetries,
		httpClient: &http.Client{Transport: transport, Timeout: timeout},
	}
}

// wireRequest is the JSON body sent to the remote service: the same
// {filters, options, update, documents} payload shape the local adapter
// accepts, addressed by verb and endpoint.
type wireRequest struct {
	Payload map[string]any `json:"payload"`
}

// Do implements adapter.Router: it issues an HTTP request using verb as
// the method against baseURL+endpoint, retrying on transport failures and
// 5xx responses but never on 4xx.
func (c *Client) Do(ctx context.Context, verb, endpoint string, payload map[string]any) (adapter.Envelope, error) {
	body, err := json.Marshal(wireRequest{Payload: payload})
	if err != nil {
		return adapter.Envelope{}, fmt.Errorf("remote: encoding request: %w", err)
	}

	var lastErr error
	attempts := c.maxRetries + 1

	for attempt := 0; attempt < attempts; attempt++ {
		env, status, err := c.doOnce(ctx, verb, endpoint, body)
		if err == nil {
			return env, nil
		}
		lastErr = err

		if status >= 400 && status < 500 {
			return env, err
		}

		if attempt < attempts-1 {
			dblog.Default().WithError(err).Warnf("remote: attempt %d/%d failed, retrying", attempt+1, attempts)
			time.Sleep(backoff(attempt))
		}
	}

	return adapter.Envelope{}, fmt.Errorf("remote: request failed after %d attempts: %w", attempts, lastErr)
}

func (c *Client) doOnce(ctx context.Context, verb, endpoint string, body []byte) (adapter.Envelope, int, error) {
	url := c.baseURL + endpoint
	httpReq, err := http.NewRequestWithContext(ctx, verb, url, bytes.NewReader(body))
	if err != nil {
		return adapter.Envelope{}, 0, fmt.Errorf("remote: building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return adapter.Envelope{}, 0, fmt.Errorf("remote: %s %s: %w", verb, endpoint, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return adapter.Envelope{}, httpResp.StatusCode, fmt.Errorf("remote: reading response: %w", err)
	}

	var env adapter.Envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return adapter.Envelope{}, httpResp.StatusCode, fmt.Errorf("remote: decoding response: %w", err)
		}
	}

	if httpResp.StatusCode >= 400 {
		msg := fmt.Sprintf("remote: %s %s: HTTP %d", verb, endpoint, httpResp.StatusCode)
		if env.Err != nil {
			msg = env.Err.Message
		}
		return env, httpResp.StatusCode, fmt.Errorf("%s", msg)
	}

	return env, httpResp.StatusCode, nil
}

// backoff computes exponential backoff between retry attempts.
func backoff(attempt int) time.Duration {
	const initial = 100 * time.Millisecond
	multiplier := time.Duration(1 << uint(attempt))
	return initial * multiplier
}
