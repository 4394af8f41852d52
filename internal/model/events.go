package model

import (
	"fmt"
	"strings"
	"time"
)

// EventType identifies an outbound event
type EventType string

const (
	// Broadcast events
	EventPlayerCreated EventType = "player_created"
	EventPlayerRolled  EventType = "player_rolled"
	EventStatUpdated   EventType = "stat_updated"
	EventPlayerUpdated EventType = "player_updated"
	EventHeartbeat     EventType = "increment"

	// Direct replies to a single connection
	EventPlayerData   EventType = "player_data"
	EventPlayersList  EventType = "players_list"
	EventMessagesList EventType = "messages_list"
	EventCreateResult EventType = "create_player_result"
	EventError        EventType = "error"
)

const messageEventPrefix = "new_message_"

// MessageEventType returns the per-player chat event name. Clients subscribe
// to the channel of the player they care about.
func MessageEventType(id PlayerID) EventType {
	return EventType(fmt.Sprintf("%s%d", messageEventPrefix, id))
}

// IsMessageEvent reports whether t is a per-player chat event
func (t EventType) IsMessageEvent() bool {
	return strings.HasPrefix(string(t), messageEventPrefix)
}

// Event is an outbound event delivered to one or more connections
type Event struct {
	Type      EventType
	Timestamp time.Time
	Payload   any
}

// PlayerCreatedPayload is broadcast when a player joins the session
type PlayerCreatedPayload struct {
	ID   PlayerID `json:"id"`
	Name string   `json:"name"`
}

// PlayerRolledPayload is broadcast when a player rolls the dice
type PlayerRolledPayload struct {
	ID   PlayerID `json:"id"`
	Name string   `json:"name"`
	Roll int      `json:"roll"`
}

// StatUpdatedPayload is broadcast when current HP or stamina changes
type StatUpdatedPayload struct {
	ID    PlayerID `json:"id"`
	Type  StatType `json:"type"`
	Value int      `json:"value"`
}

// PlayerUpdatedPayload is broadcast when any allow-listed field changes
type PlayerUpdatedPayload struct {
	ID    PlayerID    `json:"id"`
	Field PlayerField `json:"field"`
	Value any         `json:"value"`
}

// HeartbeatPayload is echoed to everyone on a heartbeat
type HeartbeatPayload struct{}
