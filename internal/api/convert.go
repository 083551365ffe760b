package api

import "github.com/hzhou/snapbridge/internal/model"

func (w priceTickerWire) toModel() model.Ticker {
	// REST price tickers carry no event time; readers treat 0 as
	// "freshness unknown".
	return model.Ticker{
		Symbol: w.Symbol,
		Price:  w.Price,
	}
}

func (w orderWire) toModel() model.OrderStatus {
	ts := w.UpdateTime
	if ts == 0 {
		ts = w.Time
	}
	return model.OrderStatus{
		Symbol:              w.Symbol,
		OrderID:             w.OrderID,
		EventTime:           ts,
		Side:                w.Side,
		Price:               w.Price,
		Status:              w.Status,
		CummulativeQuoteQty: w.CummulativeQuoteQty,
		// ExecType is a stream-only field; REST records leave it empty.
	}
}

func (w accountWire) toModel() model.AccountSnapshot {
	snap := model.AccountSnapshot{EventTime: w.UpdateTime}
	for _, b := range w.Balances {
		snap.Balances = append(snap.Balances, model.Balance{
			Asset:  b.Asset,
			Free:   b.Free,
			Locked: b.Locked,
		})
	}
	return snap
}
