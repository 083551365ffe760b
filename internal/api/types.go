package api

// Wire types for JSON parsing. Conversion to model types lives in
// convert.go.

// priceTickerWire is one entry of /api/v3/ticker/price.
type priceTickerWire struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// orderWire is the response of /api/v3/order.
type orderWire struct {
	Symbol              string `json:"symbol"`
	OrderID             int64  `json:"orderId"`
	Price               string `json:"price"`
	Status              string `json:"status"`
	Side                string `json:"side"`
	CummulativeQuoteQty string `json:"cummulativeQuoteQty"`
	Time                int64  `json:"time"`
	UpdateTime          int64  `json:"updateTime"`
}

// accountWire is the response of /api/v3/account.
type accountWire struct {
	UpdateTime int64 `json:"updateTime"`
	Balances   []struct {
		Asset  string `json:"asset"`
		Free   string `json:"free"`
		Locked string `json:"locked"`
	} `json:"balances"`
}

// listenKeyWire is the response of POST /api/v3/userDataStream.
type listenKeyWire struct {
	ListenKey string `json:"listenKey"`
}
