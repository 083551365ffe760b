package model

// Ticker is the latest known price for one trading symbol.
type Ticker struct {
	Symbol    string `json:"symbol"`
	Price     string `json:"price"`
	EventTime int64  `json:"time"` // Exchange event time (ms). 0 when sourced from REST.
}

// OrderStatus is a denormalized view of a single execution report.
// Every status transition for an order is cached as its own snapshot,
// so each fill remains independently retrievable.
type OrderStatus struct {
	Symbol              string `json:"symbol"`
	OrderID             int64  `json:"orderId"`
	EventTime           int64  `json:"time"` // Exchange event time (ms)
	Side                string `json:"side"` // "BUY" or "SELL"
	Price               string `json:"price"`
	Status              string `json:"status"`   // NEW, PARTIALLY_FILLED, FILLED, CANCELED, ...
	ExecType            string `json:"execType"` // Empty for REST-sourced records
	CummulativeQuoteQty string `json:"cummulativeQuoteQty"`
}

// Balance is one asset's balance within an account snapshot.
type Balance struct {
	Asset  string `json:"asset"`
	Free   string `json:"free"`
	Locked string `json:"locked"`
}

// AccountSnapshot is the full set of asset balances at a point in time.
type AccountSnapshot struct {
	EventTime int64     `json:"time,omitempty"` // 0 when the exchange provided no event time
	Balances  []Balance `json:"balances"`
}

// Balance returns the balance entry for asset, or nil if the account
// holds no such asset.
func (a *AccountSnapshot) Balance(asset string) *Balance {
	for i := range a.Balances {
		if a.Balances[i].Asset == asset {
			return &a.Balances[i]
		}
	}
	return nil
}
