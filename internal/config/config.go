package config

import "time"

// BridgeConfig is the root configuration for a bridge instance.
type BridgeConfig struct {
	Cache     CacheConfig     `yaml:"cache"`
	API       APIConfig       `yaml:"api"`
	Feed      FeedConfig      `yaml:"feed"`
	Retention RetentionConfig `yaml:"retention"`
}

// CacheConfig holds the snapshot cache directory settings.
type CacheConfig struct {
	Dir string `yaml:"dir"`
}

// APIConfig holds Binance API settings.
type APIConfig struct {
	RestURL    string        `yaml:"rest_url"`
	WSURL      string        `yaml:"ws_url"`
	APIKey     string        `yaml:"api_key"`
	SecretKey  string        `yaml:"secret_key"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	RecvWindow time.Duration `yaml:"recv_window"`
}

// FeedConfig holds WebSocket feed supervisor settings.
type FeedConfig struct {
	ReconnectBaseWait    time.Duration `yaml:"reconnect_base_wait"`
	ReconnectMaxWait     time.Duration `yaml:"reconnect_max_wait"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	PingTimeout          time.Duration `yaml:"ping_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
	ListenKeyInterval    time.Duration `yaml:"listen_key_interval"`
	BufferSize           int           `yaml:"buffer_size"`
}

// RetentionConfig holds cache retention settings.
type RetentionConfig struct {
	Interval time.Duration `yaml:"interval"`
	Keep     int           `yaml:"keep"`
}
