// Package request holds the inbound payload shapes shared by the HTTP API
// and the websocket event channel.
package request

import (
	"encoding/json"

	"github.com/mcoot/tablesync/internal/model"
)

// CreatePlayerRequest is the body for creating a player. Name is accepted
// as an alias of player_name.
type CreatePlayerRequest struct {
	PlayerName          string `json:"player_name"`
	Name                string `json:"name,omitempty"`
	Power               string `json:"power"`
	PowerDescription    string `json:"power_description"`
	Sex                 string `json:"sex"`
	PhysicalDescription string `json:"physical_description"`
}

// ToNewPlayer converts the request to store input
func (r CreatePlayerRequest) ToNewPlayer() model.NewPlayer {
	name := r.PlayerName
	if name == "" {
		name = r.Name
	}
	return model.NewPlayer{
		PlayerName:          name,
		Power:               r.Power,
		PowerDescription:    r.PowerDescription,
		Sex:                 r.Sex,
		PhysicalDescription: r.PhysicalDescription,
	}
}

// PlayerRef names a player. Websocket events carry the id in the payload;
// HTTP routes take it from the path instead.
type PlayerRef struct {
	PlayerID model.PlayerID `json:"player_id"`
}

// RollDiceRequest records a roll. Without Roll the server rolls a die with
// Sides faces.
type RollDiceRequest struct {
	PlayerRef
	Roll  *int `json:"roll,omitempty"`
	Sides int  `json:"sides,omitempty"`
}

// UpdateStatRequest sets current HP or stamina. Value is required.
type UpdateStatRequest struct {
	PlayerRef
	Type  model.StatType `json:"type"`
	Value *int           `json:"value"`
}

// UpdateFieldRequest sets one allow-listed player field
type UpdateFieldRequest struct {
	PlayerRef
	Field model.PlayerField `json:"field"`
	Value json.RawMessage   `json:"value"`
}

// MessageRequest is a chat message for a player's channel. Mode is only
// honoured for host messages.
type MessageRequest struct {
	PlayerRef
	Content string     `json:"content"`
	Mode    model.Mode `json:"mode,omitempty"`
}

// HostLoginRequest checks the host password
type HostLoginRequest struct {
	Password string `json:"password"`
}
