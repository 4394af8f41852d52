package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case PlayerResult:
		o.printPlayer(v.Player)
	case PlayersResult:
		o.printPlayers(v.Players)
	case CreateResult:
		fmt.Printf("Created player %d\n", v.PlayerID)
	case RollResult:
		fmt.Printf("%s rolled %d\n", v.Player.PlayerName, v.Roll)
	case MessageResult:
		o.printMessage(v.Message)
	case MessagesResult:
		o.printMessages(v.Messages)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID                  int64     `json:"id"`
	PlayerName          string    `json:"player_name"`
	Power               string    `json:"power"`
	PowerDescription    string    `json:"power_description"`
	Sex                 string    `json:"sex"`
	PhysicalDescription string    `json:"physical_description"`
	CurrHP              int       `json:"curr_hp"`
	MaxHP               int       `json:"max_hp"`
	CurrStam            int       `json:"curr_stam"`
	MaxStam             int       `json:"max_stam"`
	LastDiceRoll        int       `json:"last_dice_roll"`
	CreatedAt           time.Time `json:"created_at"`
}

// PlayerResult wraps one player
type PlayerResult struct {
	Success bool   `json:"success"`
	Player  Player `json:"player"`
}

// PlayersResult wraps the player list
type PlayersResult struct {
	Success bool     `json:"success"`
	Players []Player `json:"players"`
}

// CreateResult is returned after creating a player
type CreateResult struct {
	Success  bool  `json:"success"`
	PlayerID int64 `json:"player_id"`
}

// RollResult is returned after a dice roll
type RollResult struct {
	Success bool   `json:"success"`
	Roll    int    `json:"roll"`
	Player  Player `json:"player"`
}

// Message response type
type Message struct {
	ID        int64     `json:"id"`
	PlayerID  int64     `json:"player_id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Mode      string    `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageResult wraps one message
type MessageResult struct {
	Success bool    `json:"success"`
	Message Message `json:"message"`
}

// MessagesResult wraps a chat history
type MessagesResult struct {
	Success  bool      `json:"success"`
	Messages []Message `json:"messages"`
}

// HealthResult response type
type HealthResult struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

func (o *Output) printPlayer(p Player) {
	fmt.Printf("Player: %s (%d)\n", p.PlayerName, p.ID)
	fmt.Printf("Power: %s - %s\n", p.Power, p.PowerDescription)
	fmt.Printf("Sex: %s\n", p.Sex)
	fmt.Printf("Description: %s\n", p.PhysicalDescription)
	fmt.Printf("HP: %d/%d  Stamina: %d/%d\n", p.CurrHP, p.MaxHP, p.CurrStam, p.MaxStam)
	fmt.Printf("Last roll: %d\n", p.LastDiceRoll)
}

func (o *Output) printPlayers(players []Player) {
	fmt.Printf("Players (%d):\n", len(players))
	for _, p := range players {
		fmt.Printf("  %3d  %-20s HP %d/%d  STAM %d/%d  roll %d\n",
			p.ID, p.PlayerName, p.CurrHP, p.MaxHP, p.CurrStam, p.MaxStam, p.LastDiceRoll)
	}
}

func (o *Output) printMessage(m Message) {
	fmt.Printf("[%s] %s (%s): %s\n", m.CreatedAt.Format("15:04:05"), m.Sender, m.Mode, m.Content)
}

func (o *Output) printMessages(messages []Message) {
	if len(messages) == 0 {
		fmt.Println("No messages")
		return
	}
	for _, m := range messages {
		o.printMessage(m)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
	fmt.Printf("Storage: %s\n", h.Storage)
}
