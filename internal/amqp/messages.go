package amqp

import (
	"encoding/json"
	"errors"
	"fmt"

	"finledger/internal/core"
)

var ErrMalformedEvent = errors.New("malformed ledger event")

// EncodeEvent converts an event to its JSON wire form.
func EncodeEvent(ev core.LedgerEvent) ([]byte, error) {
	return json.Marshal(ev)
}

// DecodeEvent parses and checks a wire event.
func DecodeEvent(data []byte) (core.LedgerEvent, error) {
	var ev core.LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return core.LedgerEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if !ev.Kind.Valid() {
		return core.LedgerEvent{}, fmt.Errorf("%w: unknown kind %q", ErrMalformedEvent, ev.Kind)
	}
	if ev.UserID == "" || ev.TransactionID == "" {
		return core.LedgerEvent{}, fmt.Errorf("%w: missing user or transaction id", ErrMalformedEvent)
	}
	return ev, nil
}
