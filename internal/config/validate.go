package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *BridgeConfig) Validate() error {
	if c.Cache.Dir == "" {
		return errors.New("cache.dir is required")
	}

	if !strings.HasPrefix(c.API.RestURL, "http://") && !strings.HasPrefix(c.API.RestURL, "https://") {
		return fmt.Errorf("api.rest_url must be an http(s) URL, got %q", c.API.RestURL)
	}
	if !strings.HasPrefix(c.API.WSURL, "ws://") && !strings.HasPrefix(c.API.WSURL, "wss://") {
		return fmt.Errorf("api.ws_url must be a ws(s) URL, got %q", c.API.WSURL)
	}
	if c.API.APIKey == "" {
		return errors.New("api.api_key is required")
	}
	if c.API.SecretKey == "" {
		return errors.New("api.secret_key is required")
	}
	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}

	if c.Feed.MaxReconnectAttempts < 1 {
		return errors.New("feed.max_reconnect_attempts must be >= 1")
	}
	if c.Feed.ReconnectBaseWait > c.Feed.ReconnectMaxWait {
		return fmt.Errorf("feed.reconnect_base_wait (%v) cannot exceed reconnect_max_wait (%v)",
			c.Feed.ReconnectBaseWait, c.Feed.ReconnectMaxWait)
	}
	if c.Feed.BufferSize < 1 {
		return errors.New("feed.buffer_size must be >= 1")
	}

	if c.Retention.Keep < 1 {
		return errors.New("retention.keep must be >= 1")
	}
	if c.Retention.Interval < 0 {
		return errors.New("retention.interval must be >= 0")
	}

	return nil
}
