package marketdata

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"portfolio-tracker-go/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HistoryClient fetches a sparse daily close series for one symbol. Only
// trading days appear in the result; holidays and weekends are simply absent.
type HistoryClient interface {
	GetDailyHistory(ctx context.Context, symbol string, start, end time.Time) (map[string]float64, error)
}

// RestClient is a client for a Yahoo-chart-style market data API.
// It implements the HistoryClient interface.
type RestClient struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure RestClient implements the interface
var _ HistoryClient = (*RestClient)(nil)

// NewRestClient creates a new market data REST client.
func NewRestClient(cfg *config.MarketData, logger *zap.Logger) *RestClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("User-Agent", "portfolio-tracker/1.0")

	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &RestClient{
		client:  client,
		logger:  logger,
		limiter: limiter,
	}
}

// chartResponse represents the chart API payload. Close values may be null
// for days without a settled price, so they decode into pointers.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// GetDailyHistory fetches daily closing prices for a symbol over [start, end].
func (c *RestClient) GetDailyHistory(ctx context.Context, symbol string, start, end time.Time) (map[string]float64, error) {
	var result chartResponse

	req := c.client.R().
		SetResult(&result).
		SetQueryParams(map[string]string{
			"period1":  strconv.FormatInt(start.Unix(), 10),
			"period2":  strconv.FormatInt(end.Unix(), 10),
			"interval": "1d",
		}).
		SetHeader("Content-Type", "application/json")

	url := fmt.Sprintf("/v8/finance/chart/%s", symbol)
	if _, err := c.doRequest(ctx, "GET", url, req); err != nil {
		return nil, fmt.Errorf("failed to get daily history for %s: %w", symbol, err)
	}

	if len(result.Chart.Result) == 0 {
		return nil, fmt.Errorf("no chart data returned for %s", symbol)
	}

	series := result.Chart.Result[0]
	if len(series.Indicators.Quote) == 0 {
		return map[string]float64{}, nil
	}

	closes := series.Indicators.Quote[0].Close
	prices := make(map[string]float64, len(series.Timestamp))
	for i, ts := range series.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue // no settled close for this day
		}
		day := time.Unix(ts, 0).UTC().Format("2006-01-02")
		prices[day] = *closes[i]
	}

	return prices, nil
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *RestClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		// If we should retry, calculate wait time
		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}
