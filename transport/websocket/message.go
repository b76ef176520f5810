package websocket

import (
	"encoding/json"

	"github.com/playsquare/gamesession-backend/internal/entity"
)

// Message is the wire envelope for every inbound request: an action name and
// an action-specific payload, decoded only once the action is known.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinPayload struct {
	SessionID string `json:"session_id"`
}

type MovePayload struct {
	SessionID string `json:"session_id"`
	Cell      *int   `json:"cell"`
}

type StatePayload struct {
	SessionID string `json:"session_id"`
}

// ResponsePayload carries everything an outbound event can hold; empty
// fields stay off the wire.
type ResponsePayload struct {
	Role  string         `json:"role,omitempty"`
	Game  *entity.Game   `json:"game,omitempty"`
	Games []*entity.Game `json:"games,omitempty"`
	Error string         `json:"error,omitempty"`
}
