// Package brokerhttp talks to an external broker gateway over REST.
package brokerhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jcmexdev/orders-service/internal/pkg/interceptors"
	"github.com/jcmexdev/orders-service/internal/pkg/interceptors/constants"
)

type Options struct {
	Token      string
	Timeout    time.Duration
	ReadRate   rate.Limit
	WriteRate  rate.Limit
	HTTPClient *http.Client
}

type Client struct {
	name         string
	baseURL      string
	token        string
	httpClient   *http.Client
	readLimiter  *rate.Limiter
	writeLimiter *rate.Limiter
}

func NewClient(name, baseURL string, opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.ReadRate <= 0 {
		opts.ReadRate = 20
	}
	if opts.WriteRate <= 0 {
		opts.WriteRate = 10
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		name:         name,
		baseURL:      strings.TrimRight(baseURL, "/"),
		token:        opts.Token,
		httpClient:   httpClient,
		readLimiter:  rate.NewLimiter(opts.ReadRate, burst(opts.ReadRate)),
		writeLimiter: rate.NewLimiter(opts.WriteRate, burst(opts.WriteRate)),
	}
}

// burst lets a limiter of r requests per second admit a request at once, even
// when r is below one.
func burst(r rate.Limit) int {
	return max(1, int(math.Ceil(float64(r))))
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, int, error) {
	lim := c.readLimiter
	if method != http.MethodGet {
		lim = c.writeLimiter
	}
	if err := lim.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limit wait: %w", err)
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if id := interceptors.RequestIDFromContext(ctx); id != "unknown" {
		req.Header.Set(constants.HeaderXRequestId, id)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	slog.DebugContext(ctx, "broker gateway call",
		"broker", c.name, "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	return respBody, resp.StatusCode, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, int, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) post(ctx context.Context, path string, body any) ([]byte, int, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Client) delete(ctx context.Context, path string) ([]byte, int, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}
