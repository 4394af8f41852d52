package model

import (
	"encoding/json"
	"strings"
)

// PlayerField names a player attribute that may be changed after creation.
// The constant values double as storage column names.
type PlayerField string

const (
	FieldPlayerName          PlayerField = "player_name"
	FieldPower               PlayerField = "power"
	FieldPowerDescription    PlayerField = "power_description"
	FieldSex                 PlayerField = "sex"
	FieldPhysicalDescription PlayerField = "physical_description"
	FieldCurrHP              PlayerField = "curr_hp"
	FieldMaxHP               PlayerField = "max_hp"
	FieldCurrStam            PlayerField = "curr_stam"
	FieldMaxStam             PlayerField = "max_stam"
	FieldLastDiceRoll        PlayerField = "last_dice_roll"
)

// UpdatableFields returns the allow-list in declaration order
func UpdatableFields() []PlayerField {
	return []PlayerField{
		FieldPlayerName,
		FieldPower,
		FieldPowerDescription,
		FieldSex,
		FieldPhysicalDescription,
		FieldCurrHP,
		FieldMaxHP,
		FieldCurrStam,
		FieldMaxStam,
		FieldLastDiceRoll,
	}
}

// FieldKind is the value type a field accepts
type FieldKind int

const (
	KindInvalid FieldKind = iota
	KindString
	KindInt
)

// Kind returns the value type for the field, or KindInvalid when the field
// is not on the allow-list
func (f PlayerField) Kind() FieldKind {
	switch f {
	case FieldPlayerName, FieldPower, FieldPowerDescription, FieldSex, FieldPhysicalDescription:
		return KindString
	case FieldCurrHP, FieldMaxHP, FieldCurrStam, FieldMaxStam, FieldLastDiceRoll:
		return KindInt
	default:
		return KindInvalid
	}
}

// Allowed reports whether the field is on the update allow-list
func (f PlayerField) Allowed() bool {
	return f.Kind() != KindInvalid
}

// FieldValue is a typed value for a PlayerField
type FieldValue struct {
	kind FieldKind
	str  string
	num  int
}

// StringValue wraps a string field value
func StringValue(s string) FieldValue {
	return FieldValue{kind: KindString, str: s}
}

// IntValue wraps an integer field value
func IntValue(n int) FieldValue {
	return FieldValue{kind: KindInt, num: n}
}

// Kind returns the value's type
func (v FieldValue) Kind() FieldKind {
	return v.kind
}

// Any returns the underlying string or int
func (v FieldValue) Any() any {
	if v.kind == KindInt {
		return v.num
	}
	return v.str
}

// DecodeValue parses a JSON value for the field. String fields take a
// non-empty JSON string, integer fields a JSON integer.
func (f PlayerField) DecodeValue(raw json.RawMessage) (FieldValue, error) {
	switch f.Kind() {
	case KindString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return FieldValue{}, ErrInvalidFieldValue
		}
		return f.check(StringValue(s))
	case KindInt:
		var n int
		if err := json.Unmarshal(raw, &n); err != nil {
			return FieldValue{}, ErrInvalidFieldValue
		}
		return IntValue(n), nil
	default:
		return FieldValue{}, ErrFieldNotAllowed
	}
}

// Check validates an already-typed value against the field
func (f PlayerField) Check(v FieldValue) error {
	_, err := f.check(v)
	return err
}

func (f PlayerField) check(v FieldValue) (FieldValue, error) {
	kind := f.Kind()
	if kind == KindInvalid {
		return FieldValue{}, ErrFieldNotAllowed
	}
	if v.kind != kind {
		return FieldValue{}, ErrInvalidFieldValue
	}
	if kind == KindString && strings.TrimSpace(v.str) == "" {
		return FieldValue{}, ErrInvalidFieldValue
	}
	return v, nil
}

// Apply sets the field on the player
func (f PlayerField) Apply(p *Player, v FieldValue) error {
	if err := f.Check(v); err != nil {
		return err
	}
	switch f {
	case FieldPlayerName:
		p.PlayerName = v.str
	case FieldPower:
		p.Power = v.str
	case FieldPowerDescription:
		p.PowerDescription = v.str
	case FieldSex:
		p.Sex = v.str
	case FieldPhysicalDescription:
		p.PhysicalDescription = v.str
	case FieldCurrHP:
		p.CurrHP = v.num
	case FieldMaxHP:
		p.MaxHP = v.num
	case FieldCurrStam:
		p.CurrStam = v.num
	case FieldMaxStam:
		p.MaxStam = v.num
	case FieldLastDiceRoll:
		p.LastDiceRoll = v.num
	}
	return nil
}

// StatType is a current-value stat that players adjust during play
type StatType string

const (
	StatHP      StatType = "hp"
	StatStamina StatType = "stam"
)

// Field returns the player field backing the stat
func (s StatType) Field() (PlayerField, error) {
	switch s {
	case StatHP:
		return FieldCurrHP, nil
	case StatStamina:
		return FieldCurrStam, nil
	default:
		return "", ErrInvalidStat
	}
}
