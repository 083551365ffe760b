package api

import (
	"log/slog"
	"net/http"
	"time"
)

// Client provides access to the Binance REST API.
type Client struct {
	baseURL    string
	apiKey     string
	secretKey  string
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration
	recvWindow   int64 // Milliseconds, for signed requests
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST API client. secretKey may be empty when
// only public endpoints are used.
func NewClient(baseURL, apiKey, secretKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:       slog.Default(),
		maxRetries:   3,
		retryBackoff: time.Second,
		recvWindow:   5000,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRecvWindow sets the recvWindow for signed requests.
func WithRecvWindow(ms int64) ClientOption {
	return func(c *Client) {
		c.recvWindow = ms
	}
}
