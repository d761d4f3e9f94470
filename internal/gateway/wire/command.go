package wire

import (
	"errors"
	"fmt"
)

// Command is one entry of the closed player command catalog. The catalog
// is sealed: only types in this package implement it, and both mapping
// directions (commandSlot and commandFromSlots) must cover every
// variant. Adding an engine command means adding a struct here plus one
// case in each mapping, and the compiler flags the gap if the type
// switch is missed.
type Command interface {
	// TypeName returns the client-facing command type name, e.g. "Move".
	TypeName() string

	isCommand()
}

// Direction values accepted by MoveCommand.
const (
	DirectionNorth = "NORTH"
	DirectionSouth = "SOUTH"
	DirectionEast  = "EAST"
	DirectionWest  = "WEST"
	DirectionUp    = "UP"
	DirectionDown  = "DOWN"
)

// MoveCommand moves the selected character in a cardinal direction.
type MoveCommand struct {
	Direction string `cbor:"direction" json:"direction"`
}

// SayCommand sends a chat line to the character's current area.
type SayCommand struct {
	Content string `cbor:"content" json:"content"`
}

// CreateCharacterCommand creates a new character with the given
// attribute spread.
type CreateCharacterCommand struct {
	Name     string `cbor:"name" json:"name"`
	Might    int32  `cbor:"might" json:"might"`
	Finesse  int32  `cbor:"finesse" json:"finesse"`
	Wits     int32  `cbor:"wits" json:"wits"`
	Grit     int32  `cbor:"grit" json:"grit"`
	Presence int32  `cbor:"presence" json:"presence"`
}

// ListCharactersCommand requests the account's character roster.
type ListCharactersCommand struct{}

// SelectCharacterCommand enters the world as the given character.
type SelectCharacterCommand struct {
	CharacterID string `cbor:"character_id" json:"characterId"`
}

// TakeCommand picks an item up from the character's current area.
type TakeCommand struct {
	CharacterID  string `cbor:"character_id" json:"characterId"`
	ItemEntityID string `cbor:"item_entity_id" json:"itemEntityId"`
}

// DropCommand drops an inventory item into the current area.
type DropCommand struct {
	CharacterID  string `cbor:"character_id" json:"characterId"`
	ItemEntityID string `cbor:"item_entity_id" json:"itemEntityId"`
}

// EquipCommand equips an inventory item.
type EquipCommand struct {
	CharacterID  string `cbor:"character_id" json:"characterId"`
	ItemEntityID string `cbor:"item_entity_id" json:"itemEntityId"`
}

// UnequipCommand removes whatever occupies the named equipment slot.
type UnequipCommand struct {
	CharacterID string `cbor:"character_id" json:"characterId"`
	Slot        string `cbor:"slot" json:"slot"`
}

// RequestInventoryCommand requests the character's inventory list.
type RequestInventoryCommand struct {
	CharacterID string `cbor:"character_id" json:"characterId"`
}

// RequestCharacterSheetCommand requests the character's full sheet.
type RequestCharacterSheetCommand struct {
	CharacterID string `cbor:"character_id" json:"characterId"`
}

// RequestAdminMetricsCommand requests an engine metrics report.
type RequestAdminMetricsCommand struct{}

// ActivateLoreCardCommand activates an owned lore card.
type ActivateLoreCardCommand struct {
	CharacterID    string `cbor:"character_id" json:"characterId"`
	CardInstanceID string `cbor:"card_instance_id" json:"cardInstanceId"`
}

// DeactivateLoreCardCommand deactivates an active lore card.
type DeactivateLoreCardCommand struct {
	CharacterID    string `cbor:"character_id" json:"characterId"`
	CardInstanceID string `cbor:"card_instance_id" json:"cardInstanceId"`
}

// RequestLoreCollectionCommand requests the character's lore card
// collection.
type RequestLoreCollectionCommand struct {
	CharacterID string `cbor:"character_id" json:"characterId"`
}

func (MoveCommand) TypeName() string                  { return "Move" }
func (SayCommand) TypeName() string                   { return "Say" }
func (CreateCharacterCommand) TypeName() string       { return "CreateCharacter" }
func (ListCharactersCommand) TypeName() string        { return "ListCharacters" }
func (SelectCharacterCommand) TypeName() string       { return "SelectCharacter" }
func (TakeCommand) TypeName() string                  { return "Take" }
func (DropCommand) TypeName() string                  { return "Drop" }
func (EquipCommand) TypeName() string                 { return "Equip" }
func (UnequipCommand) TypeName() string               { return "Unequip" }
func (RequestInventoryCommand) TypeName() string      { return "RequestInventory" }
func (RequestCharacterSheetCommand) TypeName() string { return "RequestCharacterSheet" }
func (RequestAdminMetricsCommand) TypeName() string   { return "RequestAdminMetrics" }
func (ActivateLoreCardCommand) TypeName() string      { return "ActivateLoreCard" }
func (DeactivateLoreCardCommand) TypeName() string    { return "DeactivateLoreCard" }
func (RequestLoreCollectionCommand) TypeName() string { return "RequestLoreCollection" }

func (MoveCommand) isCommand()                  {}
func (SayCommand) isCommand()                   {}
func (CreateCharacterCommand) isCommand()       {}
func (ListCharactersCommand) isCommand()        {}
func (SelectCharacterCommand) isCommand()       {}
func (TakeCommand) isCommand()                  {}
func (DropCommand) isCommand()                  {}
func (EquipCommand) isCommand()                 {}
func (UnequipCommand) isCommand()               {}
func (RequestInventoryCommand) isCommand()      {}
func (RequestCharacterSheetCommand) isCommand() {}
func (RequestAdminMetricsCommand) isCommand()   {}
func (ActivateLoreCardCommand) isCommand()      {}
func (DeactivateLoreCardCommand) isCommand()    {}
func (RequestLoreCollectionCommand) isCommand() {}

// commandSlots is the oneof wire form of a player command: exactly one
// slot is populated. Field names follow the engine schema.
type commandSlots struct {
	Move                  *MoveCommand                  `cbor:"move,omitempty"`
	Say                   *SayCommand                   `cbor:"say,omitempty"`
	CreateCharacter       *CreateCharacterCommand       `cbor:"create_character,omitempty"`
	ListCharacters        *ListCharactersCommand        `cbor:"list_characters,omitempty"`
	SelectCharacter       *SelectCharacterCommand       `cbor:"select_character,omitempty"`
	Take                  *TakeCommand                  `cbor:"take,omitempty"`
	Drop                  *DropCommand                  `cbor:"drop,omitempty"`
	Equip                 *EquipCommand                 `cbor:"equip,omitempty"`
	Unequip               *UnequipCommand               `cbor:"unequip,omitempty"`
	RequestInventory      *RequestInventoryCommand      `cbor:"request_inventory,omitempty"`
	RequestCharacterSheet *RequestCharacterSheetCommand `cbor:"request_character_sheet,omitempty"`
	RequestAdminMetrics   *RequestAdminMetricsCommand   `cbor:"request_admin_metrics,omitempty"`
	ActivateLoreCard      *ActivateLoreCardCommand      `cbor:"activate_lore_card,omitempty"`
	DeactivateLoreCard    *DeactivateLoreCardCommand    `cbor:"deactivate_lore_card,omitempty"`
	RequestLoreCollection *RequestLoreCollectionCommand `cbor:"request_lore_collection,omitempty"`
}

// commandSlot maps a command to its wire slot. Exhaustive over the
// catalog; an unhandled variant is a programming error.
func commandSlot(cmd Command) (commandSlots, error) {
	var s commandSlots
	switch c := cmd.(type) {
	case MoveCommand:
		s.Move = &c
	case SayCommand:
		s.Say = &c
	case CreateCharacterCommand:
		s.CreateCharacter = &c
	case ListCharactersCommand:
		s.ListCharacters = &c
	case SelectCharacterCommand:
		s.SelectCharacter = &c
	case TakeCommand:
		s.Take = &c
	case DropCommand:
		s.Drop = &c
	case EquipCommand:
		s.Equip = &c
	case UnequipCommand:
		s.Unequip = &c
	case RequestInventoryCommand:
		s.RequestInventory = &c
	case RequestCharacterSheetCommand:
		s.RequestCharacterSheet = &c
	case RequestAdminMetricsCommand:
		s.RequestAdminMetrics = &c
	case ActivateLoreCardCommand:
		s.ActivateLoreCard = &c
	case DeactivateLoreCardCommand:
		s.DeactivateLoreCard = &c
	case RequestLoreCollectionCommand:
		s.RequestLoreCollection = &c
	default:
		return commandSlots{}, fmt.Errorf("unmapped command variant %T", cmd)
	}
	return s, nil
}

// commandFromSlots resolves the populated slot back to a Command.
// Exactly one slot must be set.
func commandFromSlots(s commandSlots) (Command, error) {
	var (
		cmd   Command
		count int
	)
	pick := func(c Command) {
		cmd = c
		count++
	}

	if s.Move != nil {
		pick(*s.Move)
	}
	if s.Say != nil {
		pick(*s.Say)
	}
	if s.CreateCharacter != nil {
		pick(*s.CreateCharacter)
	}
	if s.ListCharacters != nil {
		pick(*s.ListCharacters)
	}
	if s.SelectCharacter != nil {
		pick(*s.SelectCharacter)
	}
	if s.Take != nil {
		pick(*s.Take)
	}
	if s.Drop != nil {
		pick(*s.Drop)
	}
	if s.Equip != nil {
		pick(*s.Equip)
	}
	if s.Unequip != nil {
		pick(*s.Unequip)
	}
	if s.RequestInventory != nil {
		pick(*s.RequestInventory)
	}
	if s.RequestCharacterSheet != nil {
		pick(*s.RequestCharacterSheet)
	}
	if s.RequestAdminMetrics != nil {
		pick(*s.RequestAdminMetrics)
	}
	if s.ActivateLoreCard != nil {
		pick(*s.ActivateLoreCard)
	}
	if s.DeactivateLoreCard != nil {
		pick(*s.DeactivateLoreCard)
	}
	if s.RequestLoreCollection != nil {
		pick(*s.RequestLoreCollection)
	}

	switch count {
	case 1:
		return cmd, nil
	case 0:
		return nil, errors.New("command payload is empty")
	default:
		return nil, fmt.Errorf("command payload has %d variants populated", count)
	}
}
