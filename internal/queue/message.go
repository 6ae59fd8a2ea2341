package queue

import (
	"encoding/json"
	"fmt"
)

// EventIntakeSubmitted is emitted when a reviewed intake form is submitted.
const EventIntakeSubmitted = "intake.submitted"

const messageVersion = 1

// Message is the payload sent to downstream queue consumers.
type Message struct {
	Type         string            `json:"type"`
	SubmissionID string            `json:"submissionId"`
	SessionHash  string            `json:"sessionHash"`
	RequestID    string            `json:"requestId"`
	Fields       map[string]string `json:"fields"`
	EnqueuedAt   string            `json:"enqueuedAt"`
	Version      int               `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	if msg.Type == "" {
		return nil, fmt.Errorf("message type is required")
	}
	if msg.Version == 0 {
		msg.Version = messageVersion
	}
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
