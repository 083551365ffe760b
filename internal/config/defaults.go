package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultCacheDir             = "data/cache"
	DefaultRestURL              = "https://api.binance.com"
	DefaultWSURL                = "wss://stream.binance.com:9443"
	DefaultAPITimeout           = 30 * time.Second
	DefaultMaxRetries           = 3
	DefaultRecvWindow           = 5 * time.Second
	DefaultReconnectBaseWait    = 1 * time.Second
	DefaultReconnectMaxWait     = 60 * time.Second
	DefaultMaxReconnectAttempts = 5
	DefaultPingTimeout          = 5 * time.Minute
	DefaultWriteTimeout         = 5 * time.Second
	DefaultListenKeyInterval    = 30 * time.Minute
	DefaultBufferSize           = 1024
	DefaultSweepInterval        = 1 * time.Minute
	DefaultKeep                 = 3
)

func (c *BridgeConfig) applyDefaults() {
	// Cache defaults
	if c.Cache.Dir == "" {
		c.Cache.Dir = DefaultCacheDir
	}

	// API defaults
	if c.API.RestURL == "" {
		c.API.RestURL = DefaultRestURL
	}
	if c.API.WSURL == "" {
		c.API.WSURL = DefaultWSURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}
	if c.API.RecvWindow == 0 {
		c.API.RecvWindow = DefaultRecvWindow
	}

	// Feed defaults
	if c.Feed.ReconnectBaseWait == 0 {
		c.Feed.ReconnectBaseWait = DefaultReconnectBaseWait
	}
	if c.Feed.ReconnectMaxWait == 0 {
		c.Feed.ReconnectMaxWait = DefaultReconnectMaxWait
	}
	if c.Feed.MaxReconnectAttempts == 0 {
		c.Feed.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Feed.PingTimeout == 0 {
		c.Feed.PingTimeout = DefaultPingTimeout
	}
	if c.Feed.WriteTimeout == 0 {
		c.Feed.WriteTimeout = DefaultWriteTimeout
	}
	if c.Feed.ListenKeyInterval == 0 {
		c.Feed.ListenKeyInterval = DefaultListenKeyInterval
	}
	if c.Feed.BufferSize == 0 {
		c.Feed.BufferSize = DefaultBufferSize
	}

	// Retention defaults
	if c.Retention.Interval == 0 {
		c.Retention.Interval = DefaultSweepInterval
	}
	if c.Retention.Keep == 0 {
		c.Retention.Keep = DefaultKeep
	}
}
