package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hzhou/snapbridge/internal/model"
)

// GetAllTickers fetches the current price of every trading symbol.
func (c *Client) GetAllTickers(ctx context.Context) ([]model.Ticker, error) {
	var wires []priceTickerWire
	if err := c.get(ctx, "/api/v3/ticker/price", nil, false, &wires); err != nil {
		return nil, fmt.Errorf("get all tickers: %w", err)
	}

	tickers := make([]model.Ticker, 0, len(wires))
	for _, w := range wires {
		tickers = append(tickers, w.toModel())
	}
	return tickers, nil
}

// GetSymbolTicker fetches the current price of one symbol.
func (c *Client) GetSymbolTicker(ctx context.Context, symbol string) (*model.Ticker, error) {
	query := url.Values{}
	query.Set("symbol", symbol)

	var wire priceTickerWire
	if err := c.get(ctx, "/api/v3/ticker/price", query, false, &wire); err != nil {
		return nil, fmt.Errorf("get ticker %s: %w", symbol, err)
	}

	ticker := wire.toModel()
	return &ticker, nil
}
