package gateway

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/qedlabs/labyrinth-gateway/internal/bus"
	"github.com/qedlabs/labyrinth-gateway/internal/gateway/registry"
	"github.com/qedlabs/labyrinth-gateway/internal/gateway/wire"
)

// Egress is the outbound event fanout: a single bus subscriber that
// decodes engine event envelopes and writes per-recipient JSON frames.
// Because the bus delivers messages to one handler sequentially, two
// envelopes for the same recipient reach that recipient's socket in
// bus arrival order.
type Egress struct {
	registry registry.Registry
	logger   *zap.Logger
}

// NewEgress creates the outbound event fanout.
//
// Precondition: reg and logger must be non-nil.
func NewEgress(reg registry.Registry, logger *zap.Logger) *Egress {
	return &Egress{
		registry: reg,
		logger:   logger,
	}
}

// Start establishes the lifetime subscription to the engine_events
// channel.
//
// Postcondition: Returns the live subscription, or a non-nil error.
func (e *Egress) Start(ctx context.Context, b bus.Bus) (bus.Subscription, error) {
	return b.Subscribe(ctx, bus.ChannelEngineEvents, e.HandleMessage)
}

// clientFrame is the outbound client protocol shape.
type clientFrame struct {
	Type    string     `json:"type"`
	Payload wire.Event `json:"payload"`
}

// HandleMessage processes one binary envelope from the bus. Every
// failure is scoped to this envelope or to a single recipient; the
// subscriber loop always continues.
func (e *Egress) HandleMessage(payload []byte) {
	evt, err := wire.DecodeOutputEvent(payload)
	if err != nil {
		e.logger.Error("dropping malformed engine event",
			zap.Int("bytes", len(payload)),
			zap.Error(err),
		)
		return
	}

	frame, err := json.Marshal(clientFrame{
		Type:    evt.Event.TypeName(),
		Payload: evt.Event,
	})
	if err != nil {
		e.logger.Error("encoding client frame",
			zap.String("trace_id", evt.TraceID),
			zap.String("event_type", evt.Event.TypeName()),
			zap.Error(err),
		)
		return
	}

	delivered := 0
	seen := make(map[string]bool, len(evt.TargetUserIDs))
	for _, userID := range evt.TargetUserIDs {
		// Never write the same envelope twice to one socket, even if
		// the engine repeats a recipient.
		if seen[userID] {
			continue
		}
		seen[userID] = true

		conn, ok := e.registry.Lookup(userID)
		if !ok {
			// Offline recipients are skipped, not errors. Nothing is
			// queued or persisted.
			continue
		}

		if err := conn.WriteText(frame); err != nil {
			e.logger.Warn("writing event to client",
				zap.String("user_id", userID),
				zap.String("trace_id", evt.TraceID),
				zap.String("event_type", evt.Event.TypeName()),
				zap.Error(err),
			)
			continue
		}
		delivered++
	}

	e.logger.Debug("event fanned out",
		zap.String("trace_id", evt.TraceID),
		zap.String("event_type", evt.Event.TypeName()),
		zap.Int("targets", len(evt.TargetUserIDs)),
		zap.Int("delivered", delivered),
	)
}
