// Package transport defines the event channel the engine consumes. The
// engine never sees sockets or brokers, only named events; reconnect
// and backoff mechanics live inside the adapters.
package transport

import "encoding/json"

// Envelope is the shared wire format: one named event with a raw
// payload the router decodes per event.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Handler receives one decoded inbound event.
type Handler func(event string, data json.RawMessage)

// Transport is a bidirectional named-event channel.
type Transport interface {
	// Subscribe registers the inbound event handler. Events are
	// delivered one at a time, in arrival order.
	Subscribe(h Handler)

	// OnConnected registers a callback fired when the channel is (re)
	// established; the engine re-joins its room and re-requests the
	// presence snapshot from it.
	OnConnected(fn func())

	// OnDisconnected registers a callback fired when the channel
	// drops.
	OnDisconnected(fn func(err error))

	// Emit sends an outbound event.
	Emit(event string, payload any) error

	// Close tears the channel down and stops delivery. It must return
	// only after no further handler invocations can happen.
	Close() error
}

// EncodeEnvelope marshals an outbound event.
func EncodeEnvelope(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

// DecodeEnvelope parses one wire frame.
func DecodeEnvelope(b []byte) (Envelope, error) {
	var env Envelope
	err := json.Unmarshal(b, &env)
	return env, err
}
