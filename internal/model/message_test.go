package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMode(t *testing.T) {
	tests := []struct {
		name      string
		sender    Sender
		requested Mode
		want      Mode
		wantErr   bool
	}{
		{name: "player forced to RP", sender: SenderPlayer, requested: ModeOOC, want: ModeRP},
		{name: "player garbage mode ignored", sender: SenderPlayer, requested: "whisper", want: ModeRP},
		{name: "host default", sender: SenderHost, requested: "", want: ModeRP},
		{name: "host OOC kept", sender: SenderHost, requested: ModeOOC, want: ModeOOC},
		{name: "host invalid mode", sender: SenderHost, requested: "whisper", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveMode(tt.sender, tt.requested)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewMessageBuild(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	msg, err := NewMessage{PlayerID: 2, Sender: SenderHost, Content: "The door creaks open"}.Build(now)
	require.NoError(t, err)
	assert.Equal(t, PlayerID(2), msg.PlayerID)
	assert.Equal(t, ModeRP, msg.Mode)
	assert.Equal(t, "The door creaks open", msg.Content)
	assert.Equal(t, now, msg.CreatedAt)

	_, err = NewMessage{PlayerID: 2, Sender: SenderHost, Content: "   "}.Build(now)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewMessage{PlayerID: 2, Sender: "narrator", Content: "hi"}.Build(now)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewMessage{PlayerID: 2, Sender: SenderHost, Content: "hi", Mode: "loud"}.Build(now)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "mode", ve.Field)
	assert.ErrorIs(t, err, ErrInvalidMode)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestMessageEventType(t *testing.T) {
	assert.Equal(t, EventType("new_message_2"), MessageEventType(2))
	assert.True(t, MessageEventType(7).IsMessageEvent())
	assert.False(t, EventPlayerRolled.IsMessageEvent())
}
