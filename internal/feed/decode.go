package feed

import (
	"encoding/json"
	"fmt"

	"github.com/hzhou/snapbridge/internal/model"
)

// combinedWire is the combined-stream envelope: {"stream": ..., "data": ...}.
type combinedWire struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// eventWire is the common shape of single-event payloads: the "e" field
// tags the event type.
type eventWire struct {
	EventType string `json:"e"`
	Message   string `json:"m"` // Error messages only
}

// tickerWire is one entry of a !ticker@arr array.
type tickerWire struct {
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	LastPrice string `json:"c"`
}

// executionReportWire is an executionReport user-stream event.
type executionReportWire struct {
	EventTime           int64  `json:"E"`
	Symbol              string `json:"s"`
	OrderID             int64  `json:"i"`
	Side                string `json:"S"`
	Price               string `json:"p"`
	Status              string `json:"X"`
	ExecType            string `json:"x"`
	CummulativeQuoteQty string `json:"Q"`
}

// accountPositionWire is an outboundAccountPosition user-stream event.
type accountPositionWire struct {
	EventTime int64 `json:"E"`
	Balances  []struct {
		Asset  string `json:"a"`
		Free   string `json:"f"`
		Locked string `json:"l"`
	} `json:"B"`
}

// reconnectLimitMessage is the control message a transport emits when it
// has exhausted its own reconnect attempts.
const reconnectLimitMessage = "Max reconnect retries reached"

// DecodeMarketMessage decodes one frame from the market combined stream.
// It returns (nil, nil) for frames that carry no event of interest; a nil
// error with a non-nil Event is exactly one of TickerBatch or ControlError.
func DecodeMarketMessage(msg TimestampedMessage) (Event, error) {
	// Control messages arrive outside the combined-stream envelope.
	if ev, ok := decodeControlError(msg.Data); ok {
		return ev, nil
	}

	var envelope combinedWire
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		return nil, fmt.Errorf("decode stream envelope: %w", err)
	}
	if envelope.Stream == "" || len(envelope.Data) == 0 {
		return nil, nil
	}

	// The only market subscription is the all-symbols ticker array.
	var wires []tickerWire
	if err := json.Unmarshal(envelope.Data, &wires); err != nil {
		return nil, fmt.Errorf("decode ticker array: %w", err)
	}

	batch := TickerBatch{
		Updates:    make([]TickerUpdate, 0, len(wires)),
		ReceivedAt: msg.ReceivedAt,
	}
	for _, w := range wires {
		batch.Updates = append(batch.Updates, TickerUpdate{
			Symbol:    w.Symbol,
			Price:     w.LastPrice,
			EventTime: w.EventTime,
		})
	}
	return batch, nil
}

// DecodeUserMessage decodes one frame from the user data stream into an
// OrderEvent, AccountEvent or ControlError. Unrecognized event types are
// skipped with (nil, nil).
func DecodeUserMessage(msg TimestampedMessage) (Event, error) {
	var envelope eventWire
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		return nil, fmt.Errorf("decode user event: %w", err)
	}

	switch envelope.EventType {
	case "error":
		return ControlError{
			Message:        envelope.Message,
			ReconnectLimit: envelope.Message == reconnectLimitMessage,
		}, nil

	case "executionReport":
		var wire executionReportWire
		if err := json.Unmarshal(msg.Data, &wire); err != nil {
			return nil, fmt.Errorf("decode execution report: %w", err)
		}
		return OrderEvent{
			Symbol:              wire.Symbol,
			OrderID:             wire.OrderID,
			EventTime:           wire.EventTime,
			Side:                wire.Side,
			Price:               wire.Price,
			Status:              wire.Status,
			ExecType:            wire.ExecType,
			CummulativeQuoteQty: wire.CummulativeQuoteQty,
		}, nil

	case "outboundAccountPosition":
		var wire accountPositionWire
		if err := json.Unmarshal(msg.Data, &wire); err != nil {
			return nil, fmt.Errorf("decode account position: %w", err)
		}
		ev := AccountEvent{EventTime: wire.EventTime}
		for _, b := range wire.Balances {
			ev.Balances = append(ev.Balances, model.Balance{
				Asset:  b.Asset,
				Free:   b.Free,
				Locked: b.Locked,
			})
		}
		return ev, nil
	}

	return nil, nil
}

// decodeControlError recognizes a bare {"e":"error", ...} control frame.
func decodeControlError(data []byte) (Event, bool) {
	var envelope eventWire
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, false
	}
	if envelope.EventType != "error" {
		return nil, false
	}
	return ControlError{
		Message:        envelope.Message,
		ReconnectLimit: envelope.Message == reconnectLimitMessage,
	}, true
}

// synthesizedReconnectLimit builds the control event the Manager injects
// when its own reconnect attempts are exhausted.
func synthesizedReconnectLimit() ControlError {
	return ControlError{
		Message:        reconnectLimitMessage,
		ReconnectLimit: true,
	}
}
