// Package bus abstracts the publish/subscribe transport connecting the
// gateway to the game engine. The engine consumes command envelopes from
// ChannelPlayerCommands and produces event envelopes on ChannelEngineEvents.
package bus

import "context"

// Channel names shared with the engine. These are part of the external
// contract and must not change without coordinating both sides.
const (
	// ChannelPlayerCommands carries binary-encoded command envelopes
	// from the gateway to the engine.
	ChannelPlayerCommands = "player_commands"
	// ChannelEngineEvents carries binary-encoded event envelopes from
	// the engine to the gateway.
	ChannelEngineEvents = "engine_events"
)

// Handler processes a single raw message received on a channel.
// Handlers are invoked sequentially in arrival order; a handler must
// not panic and should scope any failure to the one message.
type Handler func(payload []byte)

// Subscription is a live channel subscription. Close releases it and
// stops the delivery loop.
type Subscription interface {
	Close() error
}

// Bus is the gateway's view of the message transport.
type Bus interface {
	// Publish sends payload on the named channel. Delivery is
	// at-most-once; a returned error means the message was not sent.
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe registers handler for every message on the named
	// channel. Messages are delivered one at a time in arrival order.
	Subscribe(ctx context.Context, channel string, handler Handler) (Subscription, error)
}
