package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/hzhou/snapbridge/internal/model"
)

// GetOrder fetches one order by symbol and order ID. Signed.
func (c *Client) GetOrder(ctx context.Context, symbol string, orderID int64) (*model.OrderStatus, error) {
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("orderId", strconv.FormatInt(orderID, 10))

	var wire orderWire
	if err := c.get(ctx, "/api/v3/order", query, true, &wire); err != nil {
		return nil, fmt.Errorf("get order %s/%d: %w", symbol, orderID, err)
	}

	order := wire.toModel()
	return &order, nil
}

// GetAccount fetches the full account balance snapshot. Signed.
func (c *Client) GetAccount(ctx context.Context) (*model.AccountSnapshot, error) {
	var wire accountWire
	if err := c.get(ctx, "/api/v3/account", nil, true, &wire); err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	snap := wire.toModel()
	return &snap, nil
}
