package feed

import (
	"testing"
	"time"
)

func TestDecodeMarketMessage_TickerBatch(t *testing.T) {
	receivedAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	raw := `{"stream":"!ticker@arr","data":[
		{"e":"24hrTicker","E":1000,"s":"BTCUSD","c":"100.5"},
		{"e":"24hrTicker","E":1200,"s":"ETHUSD","c":"20.1"}
	]}`

	ev, err := DecodeMarketMessage(TimestampedMessage{Data: []byte(raw), ReceivedAt: receivedAt})
	if err != nil {
		t.Fatalf("DecodeMarketMessage() error = %v", err)
	}

	batch, ok := ev.(TickerBatch)
	if !ok {
		t.Fatalf("DecodeMarketMessage() = %T, want TickerBatch", ev)
	}
	if len(batch.Updates) != 2 {
		t.Fatalf("Updates = %d, want 2", len(batch.Updates))
	}
	if batch.Updates[0].Symbol != "BTCUSD" || batch.Updates[0].Price != "100.5" || batch.Updates[0].EventTime != 1000 {
		t.Errorf("Updates[0] = %+v", batch.Updates[0])
	}
	if !batch.ReceivedAt.Equal(receivedAt) {
		t.Errorf("ReceivedAt = %v, want %v", batch.ReceivedAt, receivedAt)
	}
}

func TestDecodeMarketMessage_ControlError(t *testing.T) {
	raw := `{"e":"error","m":"Max reconnect retries reached"}`

	ev, err := DecodeMarketMessage(TimestampedMessage{Data: []byte(raw)})
	if err != nil {
		t.Fatalf("DecodeMarketMessage() error = %v", err)
	}

	ce, ok := ev.(ControlError)
	if !ok {
		t.Fatalf("DecodeMarketMessage() = %T, want ControlError", ev)
	}
	if !ce.ReconnectLimit {
		t.Error("ReconnectLimit = false, want true")
	}
}

func TestDecodeMarketMessage_Malformed(t *testing.T) {
	if _, err := DecodeMarketMessage(TimestampedMessage{Data: []byte(`{"stream":"!ticker@arr","data":{"not":"an array"}}`)}); err == nil {
		t.Error("expected error for non-array ticker data")
	}
	if _, err := DecodeMarketMessage(TimestampedMessage{Data: []byte(`not json`)}); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestDecodeMarketMessage_NoStream(t *testing.T) {
	ev, err := DecodeMarketMessage(TimestampedMessage{Data: []byte(`{"result":null,"id":1}`)})
	if err != nil {
		t.Fatalf("DecodeMarketMessage() error = %v", err)
	}
	if ev != nil {
		t.Errorf("DecodeMarketMessage() = %v, want nil for uninteresting frame", ev)
	}
}

func TestDecodeUserMessage_ExecutionReport(t *testing.T) {
	raw := `{"e":"executionReport","E":1500,"s":"BTCUSD","i":42,"S":"BUY",
		"p":"100.5","X":"FILLED","x":"TRADE","Q":"1005.00"}`

	ev, err := DecodeUserMessage(TimestampedMessage{Data: []byte(raw)})
	if err != nil {
		t.Fatalf("DecodeUserMessage() error = %v", err)
	}

	order, ok := ev.(OrderEvent)
	if !ok {
		t.Fatalf("DecodeUserMessage() = %T, want OrderEvent", ev)
	}
	if order.Symbol != "BTCUSD" || order.OrderID != 42 || order.EventTime != 1500 {
		t.Errorf("OrderEvent identity = %+v", order)
	}
	if order.Side != "BUY" || order.Status != "FILLED" || order.ExecType != "TRADE" {
		t.Errorf("OrderEvent status fields = %+v", order)
	}
	if order.Price != "100.5" || order.CummulativeQuoteQty != "1005.00" {
		t.Errorf("OrderEvent amounts = %+v", order)
	}
}

func TestDecodeUserMessage_AccountPosition(t *testing.T) {
	raw := `{"e":"outboundAccountPosition","E":2000,"B":[
		{"a":"BTC","f":"1.5","l":"0.5"},
		{"a":"USDT","f":"100","l":"0"}
	]}`

	ev, err := DecodeUserMessage(TimestampedMessage{Data: []byte(raw)})
	if err != nil {
		t.Fatalf("DecodeUserMessage() error = %v", err)
	}

	acct, ok := ev.(AccountEvent)
	if !ok {
		t.Fatalf("DecodeUserMessage() = %T, want AccountEvent", ev)
	}
	if acct.EventTime != 2000 || len(acct.Balances) != 2 {
		t.Fatalf("AccountEvent = %+v", acct)
	}
	if acct.Balances[0].Asset != "BTC" || acct.Balances[0].Free != "1.5" || acct.Balances[0].Locked != "0.5" {
		t.Errorf("Balances[0] = %+v", acct.Balances[0])
	}
}

func TestDecodeUserMessage_NonFatalError(t *testing.T) {
	raw := `{"e":"error","m":"Invalid request"}`

	ev, err := DecodeUserMessage(TimestampedMessage{Data: []byte(raw)})
	if err != nil {
		t.Fatalf("DecodeUserMessage() error = %v", err)
	}

	ce, ok := ev.(ControlError)
	if !ok {
		t.Fatalf("DecodeUserMessage() = %T, want ControlError", ev)
	}
	if ce.ReconnectLimit {
		t.Error("ReconnectLimit = true for a non-fatal error message")
	}
}

func TestDecodeUserMessage_UnknownType(t *testing.T) {
	ev, err := DecodeUserMessage(TimestampedMessage{Data: []byte(`{"e":"balanceUpdate","E":1}`)})
	if err != nil {
		t.Fatalf("DecodeUserMessage() error = %v", err)
	}
	if ev != nil {
		t.Errorf("DecodeUserMessage() = %v, want nil for unknown event type", ev)
	}
}
