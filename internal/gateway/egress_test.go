package gateway

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/qedlabs/labyrinth-gateway/internal/gateway/registry"
	"github.com/qedlabs/labyrinth-gateway/internal/gateway/wire"
)

func encodeEvent(t *testing.T, targets []string, evt wire.Event) []byte {
	t.Helper()
	data, err := wire.EncodeOutputEvent(wire.OutputEvent{
		TargetUserIDs: targets,
		TraceID:       "trace-1",
		Event:         evt,
	})
	require.NoError(t, err)
	return data
}

func TestEgress_ChatMessageDelivery(t *testing.T) {
	reg := registry.NewMemory()
	conn := &fakeConn{}
	reg.Register("u1", conn)
	egress := NewEgress(reg, zaptest.NewLogger(t))

	egress.HandleMessage(encodeEvent(t, []string{"u1"},
		wire.ChatMessage{SenderName: "Bob", Content: "hi", MessageType: "say"}))

	require.Equal(t, 1, conn.frameCount())
	frame := conn.lastFrame(t)
	assert.Equal(t, "ChatMessage", frame["type"])
	payload, ok := frame["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Bob", payload["senderName"])
	assert.Equal(t, "hi", payload["content"])
	assert.Equal(t, "say", payload["messageType"])
}

func TestEgress_OfflineRecipientSkipped(t *testing.T) {
	reg := registry.NewMemory()
	connA := &fakeConn{}
	reg.Register("a", connA)
	egress := NewEgress(reg, zaptest.NewLogger(t))

	// Target list names A and B; only A is connected. A gets exactly
	// one frame, B's absence is not an error.
	egress.HandleMessage(encodeEvent(t, []string{"a", "b"},
		wire.ChatMessage{SenderName: "Bob", Content: "hi", MessageType: "say"}))

	assert.Equal(t, 1, connA.frameCount())
}

func TestEgress_PerRecipientOrderPreserved(t *testing.T) {
	reg := registry.NewMemory()
	conn := &fakeConn{}
	reg.Register("u1", conn)
	egress := NewEgress(reg, zaptest.NewLogger(t))

	egress.HandleMessage(encodeEvent(t, []string{"u1"},
		wire.ChatMessage{SenderName: "Bob", Content: "first", MessageType: "say"}))
	egress.HandleMessage(encodeEvent(t, []string{"u1"},
		wire.ChatMessage{SenderName: "Bob", Content: "second", MessageType: "say"}))

	require.Equal(t, 2, conn.frameCount())
	var first, second map[string]any
	require.NoError(t, json.Unmarshal(conn.frames[0], &first))
	require.NoError(t, json.Unmarshal(conn.frames[1], &second))
	assert.Equal(t, "first", first["payload"].(map[string]any)["content"])
	assert.Equal(t, "second", second["payload"].(map[string]any)["content"])
}

func TestEgress_MalformedEnvelopeDropped(t *testing.T) {
	reg := registry.NewMemory()
	conn := &fakeConn{}
	reg.Register("u1", conn)
	egress := NewEgress(reg, zaptest.NewLogger(t))

	egress.HandleMessage([]byte{0xde, 0xad, 0xbe, 0xef})

	// The malformed message is dropped; the next one still delivers.
	egress.HandleMessage(encodeEvent(t, []string{"u1"},
		wire.LevelUpNotification{NewLevel: 2, NewPowerBudget: 6}))

	require.Equal(t, 1, conn.frameCount())
	assert.Equal(t, "LevelUpNotification", conn.lastFrame(t)["type"])
}

func TestEgress_WriteFailureDoesNotAbortFanout(t *testing.T) {
	reg := registry.NewMemory()
	broken := &fakeConn{writeErr: errors.New("connection reset")}
	healthy := &fakeConn{}
	reg.Register("a", broken)
	reg.Register("b", healthy)
	egress := NewEgress(reg, zaptest.NewLogger(t))

	egress.HandleMessage(encodeEvent(t, []string{"a", "b"},
		wire.ChatMessage{SenderName: "Bob", Content: "hi", MessageType: "say"}))

	assert.Equal(t, 1, healthy.frameCount())
}

func TestEgress_DuplicateTargetsGetOneFrame(t *testing.T) {
	reg := registry.NewMemory()
	conn := &fakeConn{}
	reg.Register("u1", conn)
	egress := NewEgress(reg, zaptest.NewLogger(t))

	egress.HandleMessage(encodeEvent(t, []string{"u1", "u1", "u1"},
		wire.ChatMessage{SenderName: "Bob", Content: "hi", MessageType: "say"}))

	assert.Equal(t, 1, conn.frameCount())
}

func TestEgress_AllVariantsTranslate(t *testing.T) {
	events := []wire.Event{
		wire.ChatMessage{SenderName: "Bob", Content: "hi", MessageType: "say"},
		wire.ChatHistory{Messages: []wire.ChatMessage{{SenderName: "Bob", Content: "hi", MessageType: "say"}}},
		wire.AreaUpdate{AreaID: "area-1", Name: "Atrium", Exits: []wire.Exit{{Direction: "NORTH"}}},
		wire.CharacterList{Characters: []wire.ListCharacter{{ID: "c1", Name: "Wren"}}},
		wire.CharacterSheet{ID: "c1", Name: "Wren", Health: 10, MaxHealth: 10},
		wire.InventoryList{Items: []wire.InventoryItem{{ID: "i1", Name: "key", Quantity: 1}}},
		wire.EquipmentUpdate{MainHand: &wire.EquippedItem{ID: "i2", Name: "blade"}},
		wire.MetricsReport{JSONPayload: "{}"},
		wire.LoreCardCollection{Cards: []wire.LoreCardInstance{{ID: "card-1", Title: "Ember"}}},
		wire.LevelUpNotification{NewLevel: 2, NewPowerBudget: 6},
		wire.LoreCardAwarded{Card: &wire.LoreCardInstance{ID: "card-2", Title: "Stair"}},
	}

	for _, evt := range events {
		t.Run(evt.TypeName(), func(t *testing.T) {
			reg := registry.NewMemory()
			conn := &fakeConn{}
			reg.Register("u1", conn)
			egress := NewEgress(reg, zaptest.NewLogger(t))

			egress.HandleMessage(encodeEvent(t, []string{"u1"}, evt))

			require.Equal(t, 1, conn.frameCount())
			assert.Equal(t, evt.TypeName(), conn.lastFrame(t)["type"])
		})
	}
}

func TestEgress_AreaUpdateFieldNames(t *testing.T) {
	reg := registry.NewMemory()
	conn := &fakeConn{}
	reg.Register("u1", conn)
	egress := NewEgress(reg, zaptest.NewLogger(t))

	egress.HandleMessage(encodeEvent(t, []string{"u1"}, wire.AreaUpdate{
		AreaID:      "area-1",
		Name:        "The Atrium",
		Description: "Dust hangs in the light.",
		Exits:       []wire.Exit{{Direction: "NORTH"}},
		Items:       []wire.AreaItem{{ID: "i1", Name: "brass key"}},
	}))

	payload := conn.lastFrame(t)["payload"].(map[string]any)
	assert.Equal(t, "area-1", payload["areaId"])
	assert.Contains(t, payload, "exitsList")
	assert.Contains(t, payload, "itemsList")
}

// A registry miss during fanout must not be observable by other
// recipients even when the missing user sits first in the target list.
func TestEgress_RegistryMissFirstInList(t *testing.T) {
	reg := registry.NewMemory()
	conn := &fakeConn{}
	reg.Register("b", conn)
	egress := NewEgress(reg, zaptest.NewLogger(t))

	egress.HandleMessage(encodeEvent(t, []string{"a", "b"},
		wire.ChatMessage{SenderName: "Bob", Content: "hi", MessageType: "say"}))

	assert.Equal(t, 1, conn.frameCount())
}
