package response

import (
	"github.com/mcoot/tablesync/internal/model"
)

// Success is the bare acknowledgement envelope
type Success struct {
	Success bool `json:"success"`
}

// OK returns a successful acknowledgement
func OK() Success {
	return Success{Success: true}
}

// CreatePlayer is returned after a player is created
type CreatePlayer struct {
	Success  bool           `json:"success"`
	PlayerID model.PlayerID `json:"player_id"`
}

// Player wraps one player
type Player struct {
	Success bool          `json:"success"`
	Player  *model.Player `json:"player"`
}

// Players wraps the player list
type Players struct {
	Success bool            `json:"success"`
	Players []*model.Player `json:"players"`
}

// Roll is returned after a dice roll
type Roll struct {
	Success bool          `json:"success"`
	Roll    int           `json:"roll"`
	Player  *model.Player `json:"player"`
}

// Message wraps one chat message
type Message struct {
	Success bool           `json:"success"`
	Message *model.Message `json:"message"`
}

// Messages wraps a player's chat history
type Messages struct {
	Success  bool             `json:"success"`
	Messages []*model.Message `json:"messages"`
}

// Health reports store reachability
type Health struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}
