// Package classifier talks to the remote classification service over its
// JSON request/response contract.
package classifier

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

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/ecoswap/backend/internal/domain"
)

// classifyPath is the service endpoint for both request types.
const classifyPath = "/api/v1/classify"

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 1 << 20

// Config configures the client.
type Config struct {
	BaseURL string
	APIKey  string

	// RequestsPerSecond and Burst shape outbound traffic.
	RequestsPerSecond float64
	Burst             int

	// BreakerFailures consecutive failures open the breaker for BreakerCooldown.
	BreakerFailures uint32
	BreakerCooldown time.Duration

	// SupplierAttempts is the retry budget for find_suppliers. analyze_product
	// is never retried; it is bounded by the caller's deadline.
	SupplierAttempts int

	HTTPClient *http.Client
	Logger     *slog.Logger
}

func (c *Config) defaults() {
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 5
	}
	if c.Burst <= 0 {
		c.Burst = 10
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 3
	}
	if c.BreakerCooldown <= 0 {
		c.BreakerCooldown = time.Minute
	}
	if c.SupplierAttempts <= 0 {
		c.SupplierAttempts = 2
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Client handles communication with the classification service. It
// implements domain.Classifier and domain.SupplierFinder.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	endpoint    string
	rateLimiter *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	attempts    int
	debug       bool
	log         *slog.Logger
}

// NewClient validates the endpoint and builds a client. An unusable base
// URL is an error; callers then run in local-only mode.
func NewClient(cfg Config) (*Client, error) {
	cfg.defaults()

	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(base)
	if base == "" || err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: invalid base url %q", domain.ErrClassifierUnavailable, cfg.BaseURL)
	}

	log := cfg.Logger.With("component", "classifier_client")
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "classifier",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		httpClient:  cfg.HTTPClient,
		apiKey:      cfg.APIKey,
		endpoint:    base + classifyPath,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker:     breaker,
		attempts:    cfg.SupplierAttempts,
		log:         log,
	}, nil
}

// SetDebug enables or disables debug logging of payloads.
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// AnalyzeProduct sends an analyze_product request.
func (c *Client) AnalyzeProduct(ctx context.Context, product domain.ProductRecord) (domain.Verdict, error) {
	req := Request{RequestType: RequestAnalyzeProduct, ProductInfo: &product}

	body, err := c.execute(ctx, req)
	if err != nil {
		return domain.Verdict{}, err
	}

	var resp AnalyzeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Verdict{}, fmt.Errorf("%w: decode analyze response: %v", domain.ErrClassifierResponse, err)
	}
	return MapAnalyzeResponse(resp)
}

// FindSuppliers sends a find_suppliers request, retrying transient failures.
func (c *Client) FindSuppliers(ctx context.Context, alternatives []string) (map[string][]domain.Supplier, error) {
	if len(alternatives) == 0 {
		return nil, domain.ErrInvalidRequest
	}
	req := Request{RequestType: RequestFindSuppliers, Alternatives: alternatives}

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		body, err := c.execute(ctx, req)
		if err == nil {
			var resp SuppliersResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return nil, fmt.Errorf("%w: decode suppliers response: %v", domain.ErrClassifierResponse, err)
			}
			return MapSuppliersResponse(resp), nil
		}
		lastErr = err
		if errors.Is(err, gobreaker.ErrOpenState) || attempt == c.attempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", domain.ErrClassifierUnavailable, ctx.Err())
		case <-time.After(exponentialBackoff(attempt)):
		}
	}
	return nil, lastErr
}

// execute runs one request through the rate limiter and circuit breaker.
func (c *Client) execute(ctx context.Context, req Request) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrRateLimited, err)
	}

	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", domain.ErrClassifierUnavailable, err)
		}
		return nil, err
	}
	return res.([]byte), nil
}

func (c *Client) post(ctx context.Context, payload Request) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", domain.ErrInvalidRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "EcoSwap/1.0")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	if c.debug {
		c.log.Debug("classifier request", "type", payload.RequestType, "body", string(data))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrClassifierUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Info("classifier returned error status", "type", payload.RequestType, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", domain.ErrClassifierResponse, resp.StatusCode)
	}

	if c.debug {
		c.log.Debug("classifier response", "type", payload.RequestType, "body", string(body))
	}
	return body, nil
}

// exponentialBackoff returns the wait before retry number attempt+1.
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}
