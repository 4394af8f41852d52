package realtime

import (
	"encoding/json"
	"strings"

	"github.com/mcoot/tablesync/internal/model"
)

// Inbound is a frame received from a websocket client
type Inbound struct {
	Event      string          `json:"event"`
	Data       json.RawMessage `json:"data,omitempty"`
	Credential string          `json:"credential,omitempty"`
}

// outbound is the websocket encoding of a Frame
type outbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Frame is an encoded outbound event, shared by every client it is sent to
type Frame struct {
	Event string
	Data  json.RawMessage
}

// NewFrame encodes an event's payload once
func NewFrame(event model.Event) (*Frame, error) {
	payload := event.Payload
	if payload == nil {
		payload = struct{}{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Frame{Event: string(event.Type), Data: data}, nil
}

// WebSocketMessage returns the frame as a websocket text message
func (f *Frame) WebSocketMessage() ([]byte, error) {
	return json.Marshal(outbound{Event: f.Event, Data: f.Data})
}

// SSEMessage returns the frame as a server-sent event
func (f *Frame) SSEMessage() []byte {
	return formatSSEMessage(f.Event, string(f.Data))
}

// formatSSEMessage formats an SSE message with event name and data
// Multi-line data is properly formatted with "data: " prefix on each line
func formatSSEMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(eventName)
	b.WriteString("\n")
	for _, line := range splitLines(data) {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}

// splitLines splits a string into lines, handling various line endings
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

// Reply payloads sent only to the requesting connection

// CreatePlayerResult answers create_player
type CreatePlayerResult struct {
	Success  bool           `json:"success"`
	PlayerID model.PlayerID `json:"player_id,omitempty"`
	Error    string         `json:"error,omitempty"`
	Code     string         `json:"code,omitempty"`
}

// MessagesList answers get_messages
type MessagesList struct {
	PlayerID model.PlayerID   `json:"player_id"`
	Messages []*model.Message `json:"messages"`
}

// ErrorReply answers a request that failed in a way the sender must hear about
type ErrorReply struct {
	Event string `json:"event"`
	Error string `json:"error"`
	Code  string `json:"code"`
}
