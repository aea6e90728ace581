package remote

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

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/macrolens/scanner/internal/domain"
)

// Response size caps
const (
	maxProductBody = 1 << 20  // 1 MiB
	maxCatalogBody = 64 << 20 // 64 MiB
)

// Options tunes the client. Zero values fall back to defaults.
type Options struct {
	Timeout          time.Duration // FetchOne and AddProduct
	PingTimeout      time.Duration
	SyncTimeout      time.Duration // FetchAll, retries included
	MaxRetries       int
	RateLimit        float64 // requests per second
	RateBurst        int
	HealthyThreshold int
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 3 * time.Second
	}
	if o.PingTimeout <= 0 {
		o.PingTimeout = 2 * time.Second
	}
	if o.SyncTimeout <= 0 {
		o.SyncTimeout = 10 * time.Second
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RateLimit <= 0 {
		o.RateLimit = 10
	}
	if o.RateBurst <= 0 {
		o.RateBurst = 20
	}
	if o.HealthyThreshold <= 0 {
		o.HealthyThreshold = domain.DefaultHealthyThreshold
	}
	return o
}

// Client talks to the authoritative product API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	opts        Options
	logger      *zap.Logger
	debug       bool
}

var _ domain.RemoteClient = (*Client)(nil)

// NewClient creates a new product API client
func NewClient(baseURL string, opts Options, logger *zap.Logger) *Client {
	opts = opts.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		// Deadlines come from per-call contexts; this is only a backstop
		httpClient: &http.Client{
			Timeout: opts.SyncTimeout,
		},
		baseURL:     strings.TrimRight(baseURL, "/"),
		rateLimiter: rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateBurst),
		opts:        opts,
		logger:      logger.Named("remote"),
	}
}

// SetDebug enables logging of response bodies
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Client) debugLog(msg string, fields ...zap.Field) {
	if c.debug {
		c.logger.Debug(msg, fields...)
	}
}

// exponentialBackoff returns the wait before retry attempt n (1-based)
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

// wait blocks on the rate limiter within the call deadline
func (c *Client) wait(ctx context.Context) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", domain.ErrNetwork, ctx.Err())
		}
		return fmt.Errorf("%w: %w", domain.ErrNetwork, domain.ErrRateLimited)
	}
	return nil
}

// doRequest executes an HTTP request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, method, reqURL string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", domain.ErrNetwork, err)
	}
	req.Header.Set("User-Agent", "MacroLens-Scanner/1.0")
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}

	return resp, nil
}

// FetchOne retrieves a single product by barcode
func (c *Client) FetchOne(ctx context.Context, barcode string) (*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Add("barcode", barcode)
	reqURL := fmt.Sprintf("%s/product?%s", c.baseURL, params.Encode())

	resp, err := c.doRequest(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		c.logger.Debug("fetch product failed", zap.String("barcode", barcode), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readLimitedBody(resp.Body, maxProductBody)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrNetwork, err)
	}
	c.debugLog("product response",
		zap.String("barcode", barcode),
		zap.Int("status", resp.StatusCode),
		zap.ByteString("body", body))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrNotFound
	case resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: remote rejected barcode %q", domain.ErrValidation, barcode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", domain.ErrNetwork, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrNetwork, err)
	}
	if !env.Success {
		return nil, domain.ErrNotFound
	}

	var w wireProduct
	if err := json.Unmarshal(env.Data, &w); err != nil {
		return nil, fmt.Errorf("%w: failed to decode product: %v", domain.ErrNetwork, err)
	}
	if strings.TrimSpace(w.Barcode) == "" {
		w.Barcode = barcode
	}

	product := MapToProduct(&w, c.opts.HealthyThreshold)
	return &product, nil
}

// FetchAll retrieves the full catalog, retrying transient failures within
// the sync deadline
func (c *Client) FetchAll(ctx context.Context) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.SyncTimeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s/products", c.baseURL)

	var lastErr error
	for attempt := 1; attempt <= c.opts.MaxRetries+1; attempt++ {
		if attempt > 1 {
			backoff := exponentialBackoff(attempt - 1)
			c.logger.Info("retrying catalog fetch",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v (last error: %v)", domain.ErrNetwork, ctx.Err(), lastErr)
			case <-time.After(backoff):
			}
		}

		products, retry, err := c.fetchCatalog(ctx, reqURL)
		if err == nil {
			return products, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
	}

	c.logger.Warn("catalog fetch failed", zap.Error(lastErr))
	return nil, lastErr
}

// fetchCatalog performs one catalog request. retry reports whether the
// failure is transient.
func (c *Client) fetchCatalog(ctx context.Context, reqURL string) (products []domain.Product, retry bool, err error) {
	if err := c.wait(ctx); err != nil {
		return nil, false, err
	}

	resp, err := c.doRequest(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	body, err := readLimitedBody(resp.Body, maxCatalogBody)
	if err != nil {
		return nil, true, fmt.Errorf("%w: read response: %v", domain.ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		transient := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, transient, fmt.Errorf("%w: status %d", domain.ErrNetwork, resp.StatusCode)
	}

	items, err := decodeCatalog(body)
	if err != nil {
		return nil, false, fmt.Errorf("%w: failed to decode response: %v", domain.ErrNetwork, err)
	}

	products = make([]domain.Product, 0, len(items))
	for i := range items {
		products = append(products, MapToProduct(&items[i], c.opts.HealthyThreshold))
	}
	c.logger.Debug("catalog fetched", zap.Int("products", len(products)))
	return products, false, nil
}

// Ping probes reachability. It never retries.
func (c *Client) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.opts.PingTimeout)
	defer cancel()

	resp, err := c.doRequest(ctx, http.MethodGet, c.baseURL+"/connectivity-check", nil)
	if err != nil {
		c.logger.Debug("ping failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxProductBody))

	return resp.StatusCode == http.StatusOK
}

// AddProduct submits a new product to the remote catalog
func (c *Client) AddProduct(ctx context.Context, product *domain.Product) error {
	if product == nil || strings.TrimSpace(product.Barcode) == "" {
		return fmt.Errorf("%w: product barcode is required", domain.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	if err := c.wait(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(mapFromProduct(product))
	if err != nil {
		return fmt.Errorf("%w: encode product: %v", domain.ErrValidation, err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/products", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := readLimitedBody(resp.Body, maxProductBody)
	c.debugLog("add product response", zap.Int("status", resp.StatusCode), zap.ByteString("body", body))

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", domain.ErrValidation, env.Error)
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated:
		return fmt.Errorf("%w: status %d", domain.ErrNetwork, resp.StatusCode)
	case decodeErr != nil:
		return fmt.Errorf("%w: failed to decode response: %v", domain.ErrNetwork, decodeErr)
	case !env.Success:
		return fmt.Errorf("%w: remote refused product: %s", domain.ErrValidation, env.Error)
	}

	c.logger.Info("product added", zap.String("barcode", product.Barcode))
	return nil
}
