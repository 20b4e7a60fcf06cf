package queue

import (
	"encoding/json"
	"errors"
	"strings"
)

// MessageVersion is the current resume.analyzed payload version.
const MessageVersion = 1

// EventResumeAnalyzed names the only event this queue carries.
const EventResumeAnalyzed = "resume.analyzed"

// Message is the resume.analyzed payload sent to notification workers.
type Message struct {
	Event      string `json:"event"`
	ResumeID   string `json:"resumeId"`
	UserID     string `json:"userId"`
	Score      int    `json:"score"`
	RequestID  string `json:"requestId,omitempty"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
}

var (
	ErrMissingResumeID = errors.New("missing resume id")
	ErrMissingUserID   = errors.New("missing user id")
	ErrUnknownEvent    = errors.New("unknown event")
)

// Validate reports the first structural problem with a decoded message.
func (m Message) Validate() error {
	if m.Event != "" && m.Event != EventResumeAnalyzed {
		return ErrUnknownEvent
	}
	if strings.TrimSpace(m.ResumeID) == "" {
		return ErrMissingResumeID
	}
	if strings.TrimSpace(m.UserID) == "" {
		return ErrMissingUserID
	}
	return nil
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	if msg.Event == "" {
		msg.Event = EventResumeAnalyzed
	}
	if msg.Version == 0 {
		msg.Version = MessageVersion
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
