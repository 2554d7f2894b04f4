package amqp

import (
	"encoding/json"
	"time"

	"ledgerbook/internal/transport"
)

// CommandMessage is the envelope published for every queued write.
type CommandMessage struct {
	Command   transport.Command `json:"command"`
	Timestamp time.Time         `json:"timestamp"`
}

func NewCommandMessage(cmd transport.Command) *CommandMessage {
	return &CommandMessage{
		Command:   cmd,
		Timestamp: time.Now(),
	}
}

func (m *CommandMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func CommandMessageFromJSON(data []byte) (*CommandMessage, error) {
	var msg CommandMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
