package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qedlabs/labyrinth-gateway/internal/bus"
	"github.com/qedlabs/labyrinth-gateway/internal/gateway/registry"
	"github.com/qedlabs/labyrinth-gateway/internal/gateway/wire"
)

// Client-facing error messages. These are part of the client protocol.
const (
	msgInvalidFormat  = "Invalid command format"
	msgProcessFailure = "Failed to process command"
)

// commandDecoders is the static dispatch table from client command name
// to catalog variant. It must cover every Command in the wire package;
// TestCommandDecoders_CoverCatalog enforces that.
var commandDecoders = map[string]func(payload []byte) (wire.Command, error){
	"Move":                  decodeInto[wire.MoveCommand],
	"Say":                   decodeInto[wire.SayCommand],
	"CreateCharacter":       decodeInto[wire.CreateCharacterCommand],
	"ListCharacters":        decodeInto[wire.ListCharactersCommand],
	"SelectCharacter":       decodeInto[wire.SelectCharacterCommand],
	"Take":                  decodeInto[wire.TakeCommand],
	"Drop":                  decodeInto[wire.DropCommand],
	"Equip":                 decodeInto[wire.EquipCommand],
	"Unequip":               decodeInto[wire.UnequipCommand],
	"RequestInventory":      decodeInto[wire.RequestInventoryCommand],
	"RequestCharacterSheet": decodeInto[wire.RequestCharacterSheetCommand],
	"RequestAdminMetrics":   decodeInto[wire.RequestAdminMetricsCommand],
	"ActivateLoreCard":      decodeInto[wire.ActivateLoreCardCommand],
	"DeactivateLoreCard":    decodeInto[wire.DeactivateLoreCardCommand],
	"RequestLoreCollection": decodeInto[wire.RequestLoreCollectionCommand],
}

func decodeInto[T wire.Command](payload []byte) (wire.Command, error) {
	normalized, err := normalizeKeys(payload)
	if err != nil {
		return nil, err
	}
	var cmd T
	if err := json.Unmarshal(normalized, &cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

// Ingress translates client JSON frames into command envelopes on the
// bus. One Ingress serves all connections; it holds no per-connection
// state.
type Ingress struct {
	bus    bus.Bus
	logger *zap.Logger
}

// NewIngress creates the inbound command codec.
//
// Precondition: b and logger must be non-nil.
func NewIngress(b bus.Bus, logger *zap.Logger) *Ingress {
	return &Ingress{
		bus:    b,
		logger: logger,
	}
}

// HandleFrame processes one raw text frame from an admitted session.
// Every failure is scoped to this frame: the client gets one error
// frame and the connection stays open.
func (i *Ingress) HandleFrame(ctx context.Context, userID string, conn registry.Conn, frame []byte) {
	name, payload, ok := splitFrame(frame)
	if !ok {
		i.sendError(conn, msgInvalidFormat)
		return
	}

	// The trace ID is minted before dispatch so every log entry for
	// this frame, including rejections, carries it.
	traceID := uuid.NewString()

	decode, known := commandDecoders[name]
	if !known {
		i.logger.Warn("unknown command type",
			zap.String("user_id", userID),
			zap.String("trace_id", traceID),
			zap.String("command_type", name),
		)
		i.sendError(conn, fmt.Sprintf("Unknown command type: %s", name))
		return
	}

	cmd, err := decode(payload)
	if err != nil {
		i.logger.Warn("malformed command payload",
			zap.String("user_id", userID),
			zap.String("trace_id", traceID),
			zap.String("command_type", name),
			zap.Error(err),
		)
		i.sendError(conn, msgInvalidFormat)
		return
	}

	data, err := wire.EncodeInputEvent(wire.InputEvent{
		UserID:  userID,
		TraceID: traceID,
		Command: cmd,
	})
	if err != nil {
		i.logger.Error("encoding command envelope",
			zap.String("user_id", userID),
			zap.String("trace_id", traceID),
			zap.String("command_type", name),
			zap.Error(err),
		)
		i.sendError(conn, msgProcessFailure)
		return
	}

	if err := i.bus.Publish(ctx, bus.ChannelPlayerCommands, data); err != nil {
		// At-most-once from client to bus: no retry, the client resends.
		i.logger.Error("publishing command",
			zap.String("user_id", userID),
			zap.String("trace_id", traceID),
			zap.String("command_type", name),
			zap.Error(err),
		)
		i.sendError(conn, msgProcessFailure)
		return
	}

	i.logger.Debug("command published",
		zap.String("user_id", userID),
		zap.String("trace_id", traceID),
		zap.String("command_type", name),
	)

	// Acknowledges acceptance for processing, not completion. A write
	// failure here means the socket died mid-flight; the publish stands.
	ack, _ := json.Marshal(map[string]string{
		"status": "command_received",
		"type":   name,
	})
	_ = conn.WriteText(ack)
}

func (i *Ingress) sendError(conn registry.Conn, message string) {
	frame, _ := json.Marshal(map[string]string{"error": message})
	_ = conn.WriteText(frame)
}

// splitFrame accepts the two supported client shapes — a ["Type",
// {payload}] pair (payload optional) or a {"type": ..., "payload": ...}
// object — and returns the command name and raw payload. Anything else
// reports false.
func splitFrame(frame []byte) (name string, payload []byte, ok bool) {
	var probe any
	if err := json.Unmarshal(frame, &probe); err != nil {
		return "", nil, false
	}

	switch probe.(type) {
	case []any:
		var pair []json.RawMessage
		if err := json.Unmarshal(frame, &pair); err != nil {
			return "", nil, false
		}
		if len(pair) < 1 || len(pair) > 2 {
			return "", nil, false
		}
		if err := json.Unmarshal(pair[0], &name); err != nil {
			return "", nil, false
		}
		if len(pair) == 2 {
			payload = pair[1]
		}
	case map[string]any:
		var obj struct {
			Type    *string         `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(frame, &obj); err != nil || obj.Type == nil {
			return "", nil, false
		}
		name = *obj.Type
		payload = obj.Payload
	default:
		return "", nil, false
	}

	if name == "" {
		return "", nil, false
	}
	if len(payload) == 0 || string(payload) == "null" {
		payload = []byte("{}")
	}
	return name, payload, true
}

// normalizeKeys rewrites top-level snake_case payload keys to camelCase
// so clients may send either form. Normalizing once here is what keeps
// the per-command decoders free of casing special cases.
func normalizeKeys(payload []byte) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, err
	}

	normalized := make(map[string]json.RawMessage, len(fields))
	for key, value := range fields {
		normalized[camelCase(key)] = value
	}
	return json.Marshal(normalized)
}

func camelCase(key string) string {
	out := make([]byte, 0, len(key))
	upper := false
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c == '_' {
			upper = true
			continue
		}
		if upper && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = false
		out = append(out, c)
	}
	return string(out)
}
