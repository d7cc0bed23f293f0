package types

import "github.com/pickban/draft-server/internal/draft"

// ClientMessage is every request shape folded into one struct, discriminated
// by Type: "init-room" | "join-room" | "spectate-room" | "apply-action" |
// "reset-room" | "update-state" | "get-room-state" | "check-room-capacity".
type ClientMessage struct {
	Type     string       `json:"type"`
	RoomCode string       `json:"roomCode,omitempty"`
	Side     string       `json:"side,omitempty"`
	HeroID   int          `json:"heroId,omitempty"`
	State    *draft.State `json:"state,omitempty"`
}

// Capacity is the flat payload of a "capacity-check" reply. It is embedded
// as a pointer so the three booleans only appear on that message type.
type Capacity struct {
	Exists   bool `json:"exists"`
	HasLeft  bool `json:"hasLeft"`
	HasRight bool `json:"hasRight"`
}

// ServerMessage covers every event/ack: "room-initialized" | "room-joined" |
// "room-spectated" | "room-state" | "state-updated" | "player-joined" |
// "player-left" | "room-closed" | "capacity-check" | "error".
type ServerMessage struct {
	Type      string       `json:"type"`
	RoomCode  string       `json:"roomCode,omitempty"`
	Side      string       `json:"side,omitempty"`
	Message   string       `json:"message,omitempty"`
	RoomState *draft.State `json:"roomState,omitempty"`
	*Capacity
}

func Error(message string) ServerMessage {
	return ServerMessage{Type: "error", Message: message}
}
