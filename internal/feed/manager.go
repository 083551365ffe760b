package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SubscriptionState tracks where a subscription is in its lifecycle.
type SubscriptionState string

const (
	StateSubscribed    SubscriptionState = "subscribed"
	StateDegraded      SubscriptionState = "degraded"
	StateResubscribing SubscriptionState = "resubscribing"
)

// marketStreams is the combined-stream path segment for the market
// subscription: the all-symbols ticker array.
const marketStreams = "!ticker@arr"

// ListenKeys is the capability the Manager needs to bootstrap the
// user data stream.
type ListenKeys interface {
	CreateListenKey(ctx context.Context) (string, error)
	KeepAliveListenKey(ctx context.Context, key string) error
	CloseListenKey(ctx context.Context, key string) error
}

// SubKind names one of the two logical subscriptions.
type SubKind string

const (
	SubMarket SubKind = "market"
	SubUser   SubKind = "user"
)

// subscription is the per-feed state the Manager supervises.
type subscription struct {
	kind SubKind

	mu        sync.Mutex
	state     SubscriptionState
	client    Client
	listenKey string // user subscription only
}

func (s *subscription) setState(st SubscriptionState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *subscription) getState() SubscriptionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *subscription) setClient(c Client, listenKey string) {
	s.mu.Lock()
	s.client = c
	s.listenKey = listenKey
	s.mu.Unlock()
}

func (s *subscription) getClient() Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

func (s *subscription) getListenKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listenKey
}

// Manager owns the market and user subscriptions. It dispatches decoded
// events to the Handler, reconnects transient drops with exponential
// backoff, and escalates exhausted reconnects into a channel invalidation
// followed by a full resubscribe.
type Manager struct {
	cfg     ManagerConfig
	handler Handler
	purger  CachePurger
	keys    ListenKeys
	logger  *slog.Logger

	// newClient is swapped in tests.
	newClient func(ClientConfig, *slog.Logger) Client

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	market subscription
	user   subscription
}

// NewManager creates a feed Manager. purger is invoked on feed
// discontinuities before any resubscription; keys bootstraps the user
// stream.
func NewManager(cfg ManagerConfig, handler Handler, purger CachePurger, keys ListenKeys, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:       cfg,
		handler:   handler,
		purger:    purger,
		keys:      keys,
		logger:    logger,
		newClient: NewClient,
		market:    subscription{kind: SubMarket},
		user:      subscription{kind: SubUser},
	}
}

// Start dials both subscriptions and begins dispatching events.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.connect(&m.market); err != nil {
		return fmt.Errorf("connect market feed: %w", err)
	}
	if err := m.connect(&m.user); err != nil {
		m.market.getClient().Close()
		return fmt.Errorf("connect user feed: %w", err)
	}

	m.wg.Add(2)
	go m.readLoop(&m.market)
	go m.readLoop(&m.user)

	m.wg.Add(1)
	go m.keepAliveLoop()

	m.logger.Info("feed manager started",
		"ws_url", m.cfg.WSURL,
		"streams", marketStreams,
	)
	return nil
}

// Stop tears down both subscriptions.
func (m *Manager) Stop(ctx context.Context) error {
	m.logger.Info("stopping feed manager")

	if m.cancel != nil {
		m.cancel()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("feed manager stop timed out")
	}

	if c := m.market.getClient(); c != nil {
		c.Close()
	}
	if c := m.user.getClient(); c != nil {
		c.Close()
	}
	if key := m.user.getListenKey(); key != "" && m.keys != nil {
		if err := m.keys.CloseListenKey(context.Background(), key); err != nil {
			m.logger.Debug("close listen key failed", "error", err)
		}
	}

	m.logger.Info("feed manager stopped")
	return nil
}

// MarketState returns the market subscription's current state.
func (m *Manager) MarketState() SubscriptionState {
	return m.market.getState()
}

// UserState returns the user subscription's current state.
func (m *Manager) UserState() SubscriptionState {
	return m.user.getState()
}

// connect dials one subscription and marks it subscribed.
func (m *Manager) connect(sub *subscription) error {
	var url, listenKey string

	switch sub.kind {
	case SubMarket:
		url = m.cfg.WSURL + "/stream?streams=" + marketStreams
	case SubUser:
		key, err := m.keys.CreateListenKey(m.ctx)
		if err != nil {
			return fmt.Errorf("create listen key: %w", err)
		}
		listenKey = key
		url = m.cfg.WSURL + "/ws/" + key
	}

	clientCfg := ClientConfig{
		URL:          url,
		PingTimeout:  m.cfg.PingTimeout,
		WriteTimeout: m.cfg.WriteTimeout,
		BufferSize:   m.cfg.BufferSize,
	}

	client := m.newClient(clientCfg, m.logger.With("feed", sub.kind))
	if err := client.Connect(m.ctx); err != nil {
		return err
	}

	sub.setClient(client, listenKey)
	sub.setState(StateSubscribed)
	return nil
}

// readLoop consumes one subscription's frames until the connection drops
// or the manager stops. All Handler calls for a subscription happen here,
// sequentially.
func (m *Manager) readLoop(sub *subscription) {
	defer m.wg.Done()

	client := sub.getClient()

	for {
		select {
		case <-m.ctx.Done():
			return

		case err := <-client.Errors():
			m.logger.Warn("feed connection error",
				"feed", sub.kind,
				"error", err,
			)
			m.wg.Add(1)
			go m.recover(sub)
			return

		case msg, ok := <-client.Messages():
			if !ok {
				return
			}
			if fatal := m.dispatch(sub, msg); fatal {
				m.wg.Add(1)
				go m.invalidateAndResubscribe(sub)
				return
			}
		}
	}
}

// dispatch decodes one frame and routes the event. It reports whether a
// fatal control message was received, which ends the calling read loop.
// Malformed frames are logged and dropped; they never halt processing.
func (m *Manager) dispatch(sub *subscription, msg TimestampedMessage) bool {
	var (
		event Event
		err   error
	)
	switch sub.kind {
	case SubMarket:
		event, err = DecodeMarketMessage(msg)
	case SubUser:
		event, err = DecodeUserMessage(msg)
	}

	if err != nil {
		m.logger.Warn("malformed feed message",
			"feed", sub.kind,
			"error", err,
			"payload", string(msg.Data),
		)
		return false
	}

	switch ev := event.(type) {
	case nil:
		// Frame of no interest.
	case TickerBatch:
		m.handler.OnTickerBatch(ev)
	case OrderEvent:
		m.handler.OnOrderEvent(ev)
	case AccountEvent:
		m.handler.OnAccountEvent(ev)
	case ControlError:
		if ev.ReconnectLimit {
			m.logger.Error("feed reconnect limit exceeded",
				"feed", sub.kind,
				"message", ev.Message,
			)
			return true
		}
		m.logger.Warn("feed control error",
			"feed", sub.kind,
			"message", ev.Message,
		)
	}
	return false
}

// recover handles a transient connection drop: redial with exponential
// backoff up to the configured attempt limit. Exhausting the limit is a
// feed discontinuity and escalates to invalidateAndResubscribe.
func (m *Manager) recover(sub *subscription) {
	defer m.wg.Done()

	wait := m.cfg.ReconnectBaseWait

	for attempt := 1; attempt <= m.cfg.MaxReconnectAttempts; attempt++ {
		select {
		case <-m.ctx.Done():
			return
		case <-time.After(wait):
		}

		m.logger.Info("reconnecting feed",
			"feed", sub.kind,
			"attempt", attempt,
		)

		sub.getClient().Close()

		if err := m.connect(sub); err != nil {
			m.logger.Warn("feed reconnect failed",
				"feed", sub.kind,
				"attempt", attempt,
				"error", err,
			)
			wait *= 2
			if wait > m.cfg.ReconnectMaxWait {
				wait = m.cfg.ReconnectMaxWait
			}
			continue
		}

		m.logger.Info("feed reconnected", "feed", sub.kind)
		m.wg.Add(1)
		go m.readLoop(sub)
		return
	}

	// Same treatment as an upstream reconnect-limit control message.
	ev := synthesizedReconnectLimit()
	m.logger.Error("feed reconnect limit exceeded",
		"feed", sub.kind,
		"message", ev.Message,
	)
	m.wg.Add(1)
	go m.invalidateAndResubscribe(sub)
}

// invalidateAndResubscribe is the remediation path for a feed
// discontinuity: purge every cache channel the subscription feeds, tear
// the connection down completely, then rebuild it. The purge happens
// before any redial, so no post-gap event can race a pre-gap snapshot.
func (m *Manager) invalidateAndResubscribe(sub *subscription) {
	defer m.wg.Done()

	sub.setState(StateDegraded)

	switch sub.kind {
	case SubMarket:
		m.purger.PurgeTickers()
	case SubUser:
		m.purger.PurgeUserData()
	}

	sub.setState(StateResubscribing)

	// Stop fully before starting again: two live connections must never
	// race to write the same channels.
	if c := sub.getClient(); c != nil {
		c.Close()
	}
	if sub.kind == SubUser {
		if key := sub.getListenKey(); key != "" {
			if err := m.keys.CloseListenKey(m.ctx, key); err != nil {
				m.logger.Debug("close listen key failed", "error", err)
			}
		}
	}

	wait := m.cfg.ReconnectBaseWait
	for {
		if err := m.connect(sub); err == nil {
			break
		} else {
			m.logger.Warn("resubscribe failed",
				"feed", sub.kind,
				"error", err,
			)
		}

		select {
		case <-m.ctx.Done():
			return
		case <-time.After(wait):
		}
		wait *= 2
		if wait > m.cfg.ReconnectMaxWait {
			wait = m.cfg.ReconnectMaxWait
		}
	}

	m.logger.Info("feed resubscribed", "feed", sub.kind)
	m.wg.Add(1)
	go m.readLoop(sub)
}

// keepAliveLoop refreshes the user stream's listen key on an interval.
func (m *Manager) keepAliveLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.ListenKeyInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			key := m.user.getListenKey()
			if key == "" {
				continue
			}
			if err := m.keys.KeepAliveListenKey(m.ctx, key); err != nil {
				m.logger.Warn("listen key keepalive failed", "error", err)
			}
		}
	}
}
