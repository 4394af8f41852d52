package model

import (
	"strings"
	"time"
)

// PlayerID uniquely identifies a player. IDs are assigned by the store in
// creation order and never change.
type PlayerID int64

// Default stat values for a newly created player
const (
	DefaultHP      = 20
	DefaultStamina = 20
)

// Player is a participant's character sheet
type Player struct {
	ID                  PlayerID  `json:"id"`
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

// NewPlayer holds the descriptive fields supplied when creating a player
type NewPlayer struct {
	PlayerName          string
	Power               string
	PowerDescription    string
	Sex                 string
	PhysicalDescription string
}

// Normalize trims surrounding whitespace from every field
func (n NewPlayer) Normalize() NewPlayer {
	return NewPlayer{
		PlayerName:          strings.TrimSpace(n.PlayerName),
		Power:               strings.TrimSpace(n.Power),
		PowerDescription:    strings.TrimSpace(n.PowerDescription),
		Sex:                 strings.TrimSpace(n.Sex),
		PhysicalDescription: strings.TrimSpace(n.PhysicalDescription),
	}
}

// Validate checks that every descriptive field is present
func (n NewPlayer) Validate() error {
	required := []struct {
		field PlayerField
		value string
	}{
		{FieldPlayerName, n.PlayerName},
		{FieldPower, n.Power},
		{FieldPowerDescription, n.PowerDescription},
		{FieldSex, n.Sex},
		{FieldPhysicalDescription, n.PhysicalDescription},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return NewValidationError(string(r.field), "is required")
		}
	}
	return nil
}

// Build returns the player a store should persist for this input, with
// default stats applied. The ID is left for the store to assign.
func (n NewPlayer) Build(now time.Time) *Player {
	n = n.Normalize()
	return &Player{
		PlayerName:          n.PlayerName,
		Power:               n.Power,
		PowerDescription:    n.PowerDescription,
		Sex:                 n.Sex,
		PhysicalDescription: n.PhysicalDescription,
		CurrHP:              DefaultHP,
		MaxHP:               DefaultHP,
		CurrStam:            DefaultStamina,
		MaxStam:             DefaultStamina,
		LastDiceRoll:        0,
		CreatedAt:           now,
	}
}

// Clone returns a copy of the player
func (p *Player) Clone() *Player {
	c := *p
	return &c
}
