package wire

import (
	"errors"
	"fmt"
)

// Event is one entry of the closed engine event catalog. Sealed the same
// way as Command: every variant must appear in eventSlot and
// eventFromSlots, and TypeName drives the client-facing "type" field.
type Event interface {
	// TypeName returns the client-facing event type name, e.g. "ChatMessage".
	TypeName() string

	isEvent()
}

// ChatMessage is a single chat line addressed to the recipient.
type ChatMessage struct {
	SenderName  string `cbor:"sender_name" json:"senderName"`
	Content     string `cbor:"content" json:"content"`
	MessageType string `cbor:"message_type" json:"messageType"`
}

// ChatHistory is a backlog of chat lines sent on area entry.
type ChatHistory struct {
	Messages []ChatMessage `cbor:"messages" json:"messagesList"`
}

// Exit is one traversable exit of an area.
type Exit struct {
	Direction string `cbor:"direction" json:"direction"`
}

// AreaItem is an item visible on the ground in an area.
type AreaItem struct {
	ID   string `cbor:"id" json:"id"`
	Name string `cbor:"name" json:"name"`
}

// AreaUpdate describes the recipient's current area.
type AreaUpdate struct {
	AreaID      string     `cbor:"area_id" json:"areaId"`
	Name        string     `cbor:"name" json:"name"`
	Description string     `cbor:"description" json:"description"`
	Exits       []Exit     `cbor:"exits" json:"exitsList"`
	Items       []AreaItem `cbor:"items" json:"itemsList"`
}

// ListCharacter is one roster entry in a CharacterList.
type ListCharacter struct {
	ID   string `cbor:"id" json:"id"`
	Name string `cbor:"name" json:"name"`
}

// CharacterList is the account's character roster.
type CharacterList struct {
	Characters []ListCharacter `cbor:"characters" json:"charactersList"`
}

// CoreAttributes is the character's base attribute spread.
type CoreAttributes struct {
	Might    int32 `cbor:"might" json:"might"`
	Finesse  int32 `cbor:"finesse" json:"finesse"`
	Wits     int32 `cbor:"wits" json:"wits"`
	Grit     int32 `cbor:"grit" json:"grit"`
	Presence int32 `cbor:"presence" json:"presence"`
}

// DerivedStats are the attribute-derived combat statistics.
type DerivedStats struct {
	PhysicalPower int32 `cbor:"physical_power" json:"physicalPower"`
	SpellPower    int32 `cbor:"spell_power" json:"spellPower"`
	Accuracy      int32 `cbor:"accuracy" json:"accuracy"`
	Evasion       int32 `cbor:"evasion" json:"evasion"`
	Armor         int32 `cbor:"armor" json:"armor"`
	Resolve       int32 `cbor:"resolve" json:"resolve"`
}

// CharacterSheet is the full character status view.
type CharacterSheet struct {
	ID               string          `cbor:"id" json:"id"`
	Name             string          `cbor:"name" json:"name"`
	Health           int32           `cbor:"health" json:"health"`
	MaxHealth        int32           `cbor:"max_health" json:"maxHealth"`
	ActionPoints     int32           `cbor:"action_points" json:"actionPoints"`
	MaxActionPoints  int32           `cbor:"max_action_points" json:"maxActionPoints"`
	CoreAttributes   *CoreAttributes `cbor:"core_attributes,omitempty" json:"coreAttributes,omitempty"`
	DerivedStats     *DerivedStats   `cbor:"derived_stats,omitempty" json:"derivedStats,omitempty"`
	ProficiencyLevel int32           `cbor:"proficiency_level" json:"proficiencyLevel"`
	PowerBudget      int32           `cbor:"power_budget" json:"powerBudget"`
}

// InventoryItem is one carried item stack.
type InventoryItem struct {
	ID          string `cbor:"id" json:"id"`
	Name        string `cbor:"name" json:"name"`
	Description string `cbor:"description" json:"description"`
	Quantity    int32  `cbor:"quantity" json:"quantity"`
}

// InventoryList is the character's carried inventory.
type InventoryList struct {
	Items []InventoryItem `cbor:"items" json:"itemsList"`
}

// EquippedItem identifies the item occupying an equipment slot.
type EquippedItem struct {
	ID   string `cbor:"id" json:"id"`
	Name string `cbor:"name" json:"name"`
}

// EquipmentUpdate is the character's current equipment by slot. Empty
// slots are omitted.
type EquipmentUpdate struct {
	MainHand *EquippedItem `cbor:"main_hand,omitempty" json:"mainHand,omitempty"`
	OffHand  *EquippedItem `cbor:"off_hand,omitempty" json:"offHand,omitempty"`
	Head     *EquippedItem `cbor:"head,omitempty" json:"head,omitempty"`
	Chest    *EquippedItem `cbor:"chest,omitempty" json:"chest,omitempty"`
	Legs     *EquippedItem `cbor:"legs,omitempty" json:"legs,omitempty"`
	Feet     *EquippedItem `cbor:"feet,omitempty" json:"feet,omitempty"`
}

// MetricsReport carries an opaque JSON metrics document for the admin
// view. The engine owns the schema.
type MetricsReport struct {
	JSONPayload string `cbor:"json_payload" json:"jsonPayload"`
}

// LoreCardBonus is one stat bonus granted by a lore card.
type LoreCardBonus struct {
	Type  string `cbor:"type" json:"type"`
	Value int32  `cbor:"value" json:"value"`
}

// LoreCardInstance is one owned lore card.
type LoreCardInstance struct {
	ID          string          `cbor:"id" json:"id"`
	TemplateID  string          `cbor:"template_id" json:"templateId"`
	Title       string          `cbor:"title" json:"title"`
	Description string          `cbor:"description" json:"description"`
	IsActive    bool            `cbor:"is_active" json:"isActive"`
	PowerCost   int32           `cbor:"power_cost" json:"powerCost"`
	Bonuses     []LoreCardBonus `cbor:"bonuses" json:"bonusesList"`
}

// LoreCardCollection is the character's full lore card collection.
type LoreCardCollection struct {
	Cards []LoreCardInstance `cbor:"cards" json:"cardsList"`
}

// LevelUpNotification announces a proficiency level gain.
type LevelUpNotification struct {
	NewLevel       int32 `cbor:"new_level" json:"newLevel"`
	NewPowerBudget int32 `cbor:"new_power_budget" json:"newPowerBudget"`
}

// LoreCardAwarded announces a newly awarded lore card.
type LoreCardAwarded struct {
	Card *LoreCardInstance `cbor:"card,omitempty" json:"card,omitempty"`
}

func (ChatMessage) TypeName() string         { return "ChatMessage" }
func (ChatHistory) TypeName() string         { return "ChatHistory" }
func (AreaUpdate) TypeName() string          { return "AreaUpdate" }
func (CharacterList) TypeName() string       { return "CharacterList" }
func (CharacterSheet) TypeName() string      { return "CharacterSheet" }
func (InventoryList) TypeName() string       { return "InventoryList" }
func (EquipmentUpdate) TypeName() string     { return "EquipmentUpdate" }
func (MetricsReport) TypeName() string       { return "MetricsReport" }
func (LoreCardCollection) TypeName() string  { return "LoreCardCollection" }
func (LevelUpNotification) TypeName() string { return "LevelUpNotification" }
func (LoreCardAwarded) TypeName() string     { return "LoreCardAwarded" }

func (ChatMessage) isEvent()         {}
func (ChatHistory) isEvent()         {}
func (AreaUpdate) isEvent()          {}
func (CharacterList) isEvent()       {}
func (CharacterSheet) isEvent()      {}
func (InventoryList) isEvent()       {}
func (EquipmentUpdate) isEvent()     {}
func (MetricsReport) isEvent()       {}
func (LoreCardCollection) isEvent()  {}
func (LevelUpNotification) isEvent() {}
func (LoreCardAwarded) isEvent()     {}

// eventSlots is the oneof wire form of an engine event.
type eventSlots struct {
	ChatHistory         *ChatHistory         `cbor:"chat_history,omitempty"`
	ChatMessage         *ChatMessage         `cbor:"chat_message,omitempty"`
	AreaUpdate          *AreaUpdate          `cbor:"area_update,omitempty"`
	CharacterList       *CharacterList       `cbor:"character_list,omitempty"`
	CharacterSheet      *CharacterSheet      `cbor:"character_sheet,omitempty"`
	InventoryList       *InventoryList       `cbor:"inventory_list,omitempty"`
	MetricsReport       *MetricsReport       `cbor:"metrics_report,omitempty"`
	EquipmentUpdate     *EquipmentUpdate     `cbor:"equipment_update,omitempty"`
	LoreCardCollection  *LoreCardCollection  `cbor:"lore_card_collection,omitempty"`
	LevelUpNotification *LevelUpNotification `cbor:"level_up_notification,omitempty"`
	LoreCardAwarded     *LoreCardAwarded     `cbor:"lore_card_awarded,omitempty"`
}

// eventSlot maps an event to its wire slot. Exhaustive over the catalog.
func eventSlot(evt Event) (eventSlots, error) {
	var s eventSlots
	switch e := evt.(type) {
	case ChatHistory:
		s.ChatHistory = &e
	case ChatMessage:
		s.ChatMessage = &e
	case AreaUpdate:
		s.AreaUpdate = &e
	case CharacterList:
		s.CharacterList = &e
	case CharacterSheet:
		s.CharacterSheet = &e
	case InventoryList:
		s.InventoryList = &e
	case MetricsReport:
		s.MetricsReport = &e
	case EquipmentUpdate:
		s.EquipmentUpdate = &e
	case LoreCardCollection:
		s.LoreCardCollection = &e
	case LevelUpNotification:
		s.LevelUpNotification = &e
	case LoreCardAwarded:
		s.LoreCardAwarded = &e
	default:
		return eventSlots{}, fmt.Errorf("unmapped event variant %T", evt)
	}
	return s, nil
}

// eventFromSlots resolves the populated slot back to an Event. Exactly
// one slot must be set.
func eventFromSlots(s eventSlots) (Event, error) {
	var (
		evt   Event
		count int
	)
	pick := func(e Event) {
		evt = e
		count++
	}

	if s.ChatHistory != nil {
		pick(*s.ChatHistory)
	}
	if s.ChatMessage != nil {
		pick(*s.ChatMessage)
	}
	if s.AreaUpdate != nil {
		pick(*s.AreaUpdate)
	}
	if s.CharacterList != nil {
		pick(*s.CharacterList)
	}
	if s.CharacterSheet != nil {
		pick(*s.CharacterSheet)
	}
	if s.InventoryList != nil {
		pick(*s.InventoryList)
	}
	if s.MetricsReport != nil {
		pick(*s.MetricsReport)
	}
	if s.EquipmentUpdate != nil {
		pick(*s.EquipmentUpdate)
	}
	if s.LoreCardCollection != nil {
		pick(*s.LoreCardCollection)
	}
	if s.LevelUpNotification != nil {
		pick(*s.LevelUpNotification)
	}
	if s.LoreCardAwarded != nil {
		pick(*s.LoreCardAwarded)
	}

	switch count {
	case 1:
		return evt, nil
	case 0:
		return nil, errors.New("event payload is empty")
	default:
		return nil, fmt.Errorf("event payload has %d variants populated", count)
	}
}
