package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/restfetch/restfetch/types"
	"github.com/restfetch/restfetch/utils"
)

// HTTPClient performs validated remote reads of record collections with
// bounded retries and exponential backoff. Transport faults and 5xx
// responses are retried; 4xx responses and malformed payloads abort
// immediately.
type HTTPClient struct {
	logger      types.Logger
	metrics     types.MetricsManager
	client      *fasthttp.Client
	baseURL     string
	timeout     time.Duration
	maxAttempts int
	backoffBase time.Duration
	backoffMax  time.Duration
	breaker     *CircuitBreaker
	sleep       func(ctx context.Context, d time.Duration) error
}

var _ types.Fetcher = (*HTTPClient)(nil)

func NewHTTPClient(logger types.Logger, metrics types.MetricsManager, config *types.ClientConfig) *HTTPClient {
	httpClient := &fasthttp.Client{
		ReadTimeout:  config.Timeout,
		WriteTimeout: config.Timeout,
	}

	maxAttempts := config.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &HTTPClient{
		logger:      logger,
		metrics:     metrics,
		client:      httpClient,
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		timeout:     config.Timeout,
		maxAttempts: maxAttempts,
		backoffBase: config.BackoffBase,
		backoffMax:  config.BackoffMax,
		breaker:     NewCircuitBreaker(config.CircuitBreaker, logger),
		sleep:       sleepContext,
	}
}

// Fetch reads one resource collection. On success the parsed records are
// returned verbatim; otherwise the error carries exactly one fault
// classification from the types package. The context is honored between
// attempts only: an attempt already in flight runs to its timeout.
func (c *HTTPClient) Fetch(ctx context.Context, resourcePath string) ([]types.Record, error) {
	url := c.baseURL + "/" + strings.TrimLeft(resourcePath, "/")

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if !c.breaker.CanExecute() {
			return nil, types.Errorf(types.ErrCircuitBreakerOpen, "skipping %s", url)
		}

		records, err := c.attempt(url, attempt)
		if err == nil {
			c.breaker.RecordSuccess()
			return records, nil
		}

		if !types.IsRetryable(err) {
			c.recordAttempt("fatal")
			c.logger.Error("fetch aborted on non-retryable fault",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return nil, err
		}

		c.breaker.RecordFailure()
		c.recordAttempt("retryable")
		lastErr = err

		if attempt == c.maxAttempts {
			break
		}

		delay := backoff(c.backoffBase, c.backoffMax, attempt)
		c.logger.Warn("retryable fault, backing off",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))

		if err := c.sleep(ctx, delay); err != nil {
			return nil, types.WrapError(err, "fetch canceled during backoff")
		}
	}

	c.logger.Error("all attempts failed",
		zap.String("url", url),
		zap.Int("attempts", c.maxAttempts))

	return nil, fmt.Errorf("%w: failed to fetch %s after %d attempts: %w",
		types.ErrRetriesExhausted, url, c.maxAttempts, lastErr)
}

func (c *HTTPClient) attempt(url string, attempt int) ([]types.Record, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")

	start := time.Now()
	err := c.client.DoTimeout(req, resp, c.timeout)
	elapsed := time.Since(start)
	c.observeDuration(elapsed)

	if err != nil {
		// Timeouts, refused connections and any unexpected local error
		// land here; all classify as transport faults and stay retryable.
		return nil, types.Errorf(types.ErrTransportFault, "GET %s: %v", url, err)
	}

	status := resp.StatusCode()
	c.logger.Info("remote read",
		zap.String("url", url),
		zap.Int("attempt", attempt),
		zap.Int("status", status),
		zap.Duration("elapsed", elapsed))

	if status >= fasthttp.StatusInternalServerError {
		return nil, types.Errorf(types.ErrRemoteServerFault, "server error: %d", status)
	}
	if status >= fasthttp.StatusBadRequest {
		return nil, types.Errorf(types.ErrRemoteClientFault, "client error: %d", status)
	}

	records, err := decodeRecords(resp.Body())
	if err != nil {
		return nil, err
	}

	c.recordAttempt("success")
	c.logger.Debug("received records",
		zap.String("url", url),
		zap.Int("count", len(records)))

	return records, nil
}

// decodeRecords validates the response shape: the body must parse as JSON
// and its top level must be an array of objects.
func decodeRecords(body []byte) ([]types.Record, error) {
	var payload interface{}
	if err := utils.Unmarshal(body, &payload); err != nil {
		return nil, types.Errorf(types.ErrMalformedResponse, "invalid JSON: %v", err)
	}

	if _, ok := payload.([]interface{}); !ok {
		return nil, types.Errorf(types.ErrUnexpectedShape, "expected a JSON array, got %T", payload)
	}

	var records []types.Record
	if err := utils.Unmarshal(body, &records); err != nil {
		return nil, types.Errorf(types.ErrUnexpectedShape, "array members are not objects: %v", err)
	}

	return records, nil
}

func (c *HTTPClient) recordAttempt(result string) {
	if c.metrics == nil {
		return
	}
	c.metrics.Counter("fetch_attempts_total", map[string]string{"result": result}).Inc()
}

func (c *HTTPClient) observeDuration(elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.Histogram("fetch_attempt_duration_seconds",
		[]float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
		nil,
	).Observe(elapsed.Seconds())
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
