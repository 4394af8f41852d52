package model

import (
	"strings"
	"time"
)

// MessageID uniquely identifies a chat message
type MessageID int64

// Sender is the role that authored a message
type Sender string

const (
	SenderHost   Sender = "host"
	SenderPlayer Sender = "player"
)

// Valid reports whether s is a known sender role
func (s Sender) Valid() bool {
	return s == SenderHost || s == SenderPlayer
}

// Mode tags a message as in-character or out-of-character
type Mode string

const (
	ModeRP  Mode = "RP"  // role-play, the default
	ModeOOC Mode = "OOC" // out of character
)

// Valid reports whether m is a known mode
func (m Mode) Valid() bool {
	return m == ModeRP || m == ModeOOC
}

// Message is a chat entry on one player's channel
type Message struct {
	ID        MessageID `json:"id"`
	PlayerID  PlayerID  `json:"player_id"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	Mode      Mode      `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage holds the input for creating a message
type NewMessage struct {
	PlayerID PlayerID
	Sender   Sender
	Content  string
	Mode     Mode
}

// ResolveMode returns the mode a message is stored with. Player-authored
// messages are always RP regardless of what the client asked for.
func ResolveMode(sender Sender, requested Mode) (Mode, error) {
	if sender == SenderPlayer {
		return ModeRP, nil
	}
	if requested == "" {
		return ModeRP, nil
	}
	if !requested.Valid() {
		return "", ErrInvalidMode
	}
	return requested, nil
}

// Build validates the input and returns the message a store should persist.
// The caller is responsible for checking that the player exists.
func (n NewMessage) Build(now time.Time) (*Message, error) {
	if !n.Sender.Valid() {
		return nil, NewValidationError("sender", "must be host or player")
	}
	if strings.TrimSpace(n.Content) == "" {
		return nil, NewValidationError("content", "is required")
	}
	mode, err := ResolveMode(n.Sender, n.Mode)
	if err != nil {
		return nil, &ValidationError{Field: "mode", Reason: "must be RP or OOC", Err: err}
	}
	return &Message{
		PlayerID:  n.PlayerID,
		Sender:    n.Sender,
		Content:   n.Content,
		Mode:      mode,
		CreatedAt: now,
	}, nil
}
