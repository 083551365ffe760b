package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// CreateListenKey opens a user data stream and returns its listen key.
func (c *Client) CreateListenKey(ctx context.Context) (string, error) {
	body, err := c.doWithRetry(ctx, http.MethodPost, "/api/v3/userDataStream", nil, false)
	if err != nil {
		return "", fmt.Errorf("create listen key: %w", err)
	}

	var wire listenKeyWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return "", fmt.Errorf("unmarshal listen key: %w", err)
	}
	if wire.ListenKey == "" {
		return "", fmt.Errorf("empty listen key in response")
	}
	return wire.ListenKey, nil
}

// KeepAliveListenKey extends a listen key's validity. Binance expires keys
// left unrefreshed for 60 minutes.
func (c *Client) KeepAliveListenKey(ctx context.Context, key string) error {
	query := url.Values{}
	query.Set("listenKey", key)

	if _, err := c.doWithRetry(ctx, http.MethodPut, "/api/v3/userDataStream", query, false); err != nil {
		return fmt.Errorf("keepalive listen key: %w", err)
	}
	return nil
}

// CloseListenKey closes a user data stream.
func (c *Client) CloseListenKey(ctx context.Context, key string) error {
	query := url.Values{}
	query.Set("listenKey", key)

	if _, err := c.doWithRetry(ctx, http.MethodDelete, "/api/v3/userDataStream", query, false); err != nil {
		return fmt.Errorf("close listen key: %w", err)
	}
	return nil
}
