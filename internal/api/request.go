package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// APIError represents an error response from the Binance API.
type APIError struct {
	StatusCode int
	Code       int    // Binance error code, e.g. -1121
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance api error %d (code %d): %s", e.StatusCode, e.Code, e.Message)
}

// IsRetryable returns true if the error should trigger a retry. 418 is
// Binance's IP auto-ban status; backing off is the only correct reaction.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429 || e.StatusCode == 418
}

// errorBody is the JSON shape of a Binance error response.
type errorBody struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// doRequest performs one HTTP request. When signed is true the query is
// timestamped and signed with the client's secret key.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, signed bool) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	if signed {
		query.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
		if c.recvWindow > 0 {
			query.Set("recvWindow", strconv.FormatInt(c.recvWindow, 10))
		}
	}

	encoded := query.Encode()
	if signed {
		encoded = signQuery(encoded, c.secretKey)
	}

	fullURL := c.baseURL + path
	if encoded != "" {
		fullURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil && eb.Msg != "" {
			apiErr.Code = eb.Code
			apiErr.Message = eb.Msg
		}
		return nil, apiErr
	}

	return body, nil
}

// doWithRetry performs a request with exponential backoff retry.
func (c *Client) doWithRetry(ctx context.Context, method, path string, query url.Values, signed bool) ([]byte, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Jitter: backoff * (0.5 to 1.5)
			jitter := backoff/2 + time.Duration(rand.Int64N(int64(backoff)))
			c.logger.Debug("retrying request",
				"attempt", attempt,
				"backoff", jitter,
				"path", path,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(jitter):
			}

			backoff *= 2
		}

		body, err := c.doRequest(ctx, method, path, query, signed)
		if err == nil {
			return body, nil
		}

		lastErr = err

		apiErr, ok := err.(*APIError)
		if !ok || !apiErr.IsRetryable() {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// get performs a GET request with retries and unmarshals the response.
func (c *Client) get(ctx context.Context, path string, query url.Values, signed bool, result any) error {
	body, err := c.doWithRetry(ctx, http.MethodGet, path, query, signed)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}
