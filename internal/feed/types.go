package feed

import (
	"errors"
	"time"

	"github.com/hzhou/snapbridge/internal/model"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// TimestampedMessage wraps raw frame data with its receive timestamp.
type TimestampedMessage struct {
	Data       []byte
	ReceivedAt time.Time
}

// Event is a decoded feed message: exactly one of TickerBatch, OrderEvent,
// AccountEvent or ControlError. Consumers switch exhaustively on the
// concrete type.
type Event interface {
	feedEvent()
}

// TickerUpdate is one symbol's entry in a ticker-array message.
type TickerUpdate struct {
	Symbol    string
	Price     string
	EventTime int64 // Milliseconds
}

// TickerBatch is one all-symbols ticker-array message.
type TickerBatch struct {
	Updates    []TickerUpdate
	ReceivedAt time.Time
}

// OrderEvent is one execution report from the user stream.
type OrderEvent struct {
	Symbol              string
	OrderID             int64
	EventTime           int64 // Milliseconds
	Side                string
	Price               string
	Status              string
	ExecType            string
	CummulativeQuoteQty string
}

// AccountEvent is one account-position update from the user stream.
type AccountEvent struct {
	EventTime int64 // Milliseconds
	Balances  []model.Balance
}

// ControlError is an upstream control message signalling an error
// condition. ReconnectLimit marks the fatal variant: the transport gave up
// reconnecting and the subscription must be rebuilt from scratch.
type ControlError struct {
	Message        string
	ReconnectLimit bool
}

func (TickerBatch) feedEvent()  {}
func (OrderEvent) feedEvent()   {}
func (AccountEvent) feedEvent() {}
func (ControlError) feedEvent() {}

// Handler receives decoded data events from the Manager. Calls are made
// sequentially per subscription, from that subscription's read goroutine.
type Handler interface {
	OnTickerBatch(TickerBatch)
	OnOrderEvent(OrderEvent)
	OnAccountEvent(AccountEvent)
}

// CachePurger invalidates cached snapshots for a subscription's channels
// after a feed discontinuity.
type CachePurger interface {
	// PurgeTickers invalidates the ticker-table channel.
	PurgeTickers()

	// PurgeUserData invalidates the order and account channels.
	PurgeUserData()
}

// ClientConfig configures a single websocket connection.
type ClientConfig struct {
	URL          string
	PingTimeout  time.Duration // Max silence from the server before the connection is stale
	WriteTimeout time.Duration // Deadline for control-frame writes
	BufferSize   int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults. Binance pings every few
// minutes, so the stale threshold is generous.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Second,
		BufferSize:   1000,
	}
}

// ManagerConfig configures the feed Manager.
type ManagerConfig struct {
	WSURL                string        // e.g. wss://stream.binance.com:9443
	ReconnectBaseWait    time.Duration // Base wait between reconnect attempts
	ReconnectMaxWait     time.Duration // Cap on the exponential backoff
	MaxReconnectAttempts int           // Attempts before the outage is treated as fatal
	ListenKeyInterval    time.Duration // User-stream listen key keepalive period
	PingTimeout          time.Duration
	WriteTimeout         time.Duration
	BufferSize           int
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		ReconnectBaseWait:    time.Second,
		ReconnectMaxWait:     60 * time.Second,
		MaxReconnectAttempts: 5,
		ListenKeyInterval:    30 * time.Minute,
		PingTimeout:          5 * time.Minute,
		WriteTimeout:         5 * time.Second,
		BufferSize:           1000,
	}
}
