package wire

import (
	"fmt"
)

// InputEvent is the command envelope published on the player_commands
// channel: one user-issued command plus correlation metadata.
type InputEvent struct {
	// UserID identifies the authenticated user who issued the command.
	UserID string
	// TraceID is a fresh, globally unique correlation identifier.
	TraceID string
	// Command is the populated catalog variant.
	Command Command
}

// OutputEvent is the event envelope received on the engine_events
// channel: one engine-issued event plus its recipient list.
type OutputEvent struct {
	// TargetUserIDs lists the recipients in delivery order.
	TargetUserIDs []string
	// TraceID correlates the event with the command that caused it,
	// when there is one.
	TraceID string
	// Event is the populated catalog variant.
	Event Event
}

type inputEventWire struct {
	UserID  string       `cbor:"user_id"`
	TraceID string       `cbor:"trace_id"`
	Payload commandSlots `cbor:"payload"`
}

type outputEventWire struct {
	TargetUserIDs []string   `cbor:"target_user_ids"`
	TraceID       string     `cbor:"trace_id"`
	Payload       eventSlots `cbor:"payload"`
}

// EncodeInputEvent serializes a command envelope to canonical bytes.
//
// Precondition: e.Command must be non-nil.
// Postcondition: Returns deterministic CBOR bytes or a non-nil error.
func EncodeInputEvent(e InputEvent) ([]byte, error) {
	if e.Command == nil {
		return nil, fmt.Errorf("input event %s has no command", e.TraceID)
	}
	slots, err := commandSlot(e.Command)
	if err != nil {
		return nil, err
	}
	data, err := encMode.Marshal(inputEventWire{
		UserID:  e.UserID,
		TraceID: e.TraceID,
		Payload: slots,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding input event: %w", err)
	}
	return data, nil
}

// DecodeInputEvent parses canonical bytes back into a command envelope.
//
// Postcondition: Returns an envelope with exactly one populated command,
// or a non-nil error.
func DecodeInputEvent(data []byte) (InputEvent, error) {
	var w inputEventWire
	if err := decMode.Unmarshal(data, &w); err != nil {
		return InputEvent{}, fmt.Errorf("decoding input event: %w", err)
	}
	cmd, err := commandFromSlots(w.Payload)
	if err != nil {
		return InputEvent{}, err
	}
	return InputEvent{
		UserID:  w.UserID,
		TraceID: w.TraceID,
		Command: cmd,
	}, nil
}

// EncodeOutputEvent serializes an event envelope to canonical bytes.
//
// Precondition: e.Event must be non-nil.
// Postcondition: Returns deterministic CBOR bytes or a non-nil error.
func EncodeOutputEvent(e OutputEvent) ([]byte, error) {
	if e.Event == nil {
		return nil, fmt.Errorf("output event %s has no payload", e.TraceID)
	}
	slots, err := eventSlot(e.Event)
	if err != nil {
		return nil, err
	}
	data, err := encMode.Marshal(outputEventWire{
		TargetUserIDs: e.TargetUserIDs,
		TraceID:       e.TraceID,
		Payload:       slots,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding output event: %w", err)
	}
	return data, nil
}

// DecodeOutputEvent parses canonical bytes back into an event envelope.
//
// Postcondition: Returns an envelope with exactly one populated event,
// or a non-nil error.
func DecodeOutputEvent(data []byte) (OutputEvent, error) {
	var w outputEventWire
	if err := decMode.Unmarshal(data, &w); err != nil {
		return OutputEvent{}, fmt.Errorf("decoding output event: %w", err)
	}
	evt, err := eventFromSlots(w.Payload)
	if err != nil {
		return OutputEvent{}, err
	}
	return OutputEvent{
		TargetUserIDs: w.TargetUserIDs,
		TraceID:       w.TraceID,
		Event:         evt,
	}, nil
}
