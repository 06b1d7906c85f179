package surface

import (
	"time"

	"github.com/okian/scoreboard/internal/domain/reveal"
)

// MessageType tags messages exchanged with display clients.
type MessageType string

const (
	MessageTypeBoard     MessageType = "board"
	MessageTypeClear     MessageType = "clear"
	MessageTypeStep      MessageType = "step"
	MessageTypeHeartbeat MessageType = "heartbeat"
	MessageTypeError     MessageType = "error"
)

// Board tells a display how to lay out the grid before steps arrive.
type Board struct {
	Title      string   `json:"title,omitempty"`
	Teams      []string `json:"teams"`
	Categories []string `json:"categories"`
}

// Message is sent from the hub to display clients.
type Message struct {
	Type      MessageType  `json:"type"`
	Board     *Board       `json:"board,omitempty"`
	Step      *reveal.Step `json:"step,omitempty"`
	Error     string       `json:"error,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// ClientMessage is sent from display clients to the hub.
type ClientMessage struct {
	Type MessageType `json:"type"`
}
