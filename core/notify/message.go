package notify

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrymomot/commander/core/command"
)

// Message is the frame written to connected clients.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewMessage encodes notification into a frame named after its type.
func NewMessage(notification any) (Message, error) {
	if notification == nil {
		return Message{}, ErrNotificationNil
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		return Message{}, fmt.Errorf("failed to encode notification: %w", err)
	}

	return Message{
		Type:    command.RequestName(notification),
		Payload: payload,
	}, nil
}
