package entities

import (
	"time"
)

// MessageType represents the kind of chat message
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeFile   MessageType = "file"
	MessageTypeSystem MessageType = "system"
)

// ValidMessageType reports whether t is a known message type.
func ValidMessageType(t MessageType) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeFile, MessageTypeSystem:
		return true
	}
	return false
}

// Message is a chat message within a consultation. Messages are immutable
// once written; Timestamp is server-assigned and defines delivery order.
type Message struct {
	ID             string      `json:"id" db:"id"`
	ConsultationID string      `json:"consultation_id" db:"consultation_id"`
	SenderID       string      `json:"sender_id" db:"sender_id"`
	SenderName     string      `json:"sender_name" db:"sender_name"`
	Content        string      `json:"content" db:"content"`
	Type           MessageType `json:"type" db:"type"`
	Timestamp      time.Time   `json:"timestamp" db:"timestamp"`
}

// MessageEventType identifies the kind of consultation stream event
type MessageEventType string

const (
	MessageEventNew       MessageEventType = "message:new"
	MessageEventEnded     MessageEventType = "consultation:ended"
	MessageEventHeartbeat MessageEventType = "heartbeat"
)

// MessageEvent is published on a consultation channel whenever something
// subscribers should see happens.
type MessageEvent struct {
	ID             string           `json:"id"`
	EventType      MessageEventType `json:"event_type"`
	ConsultationID string           `json:"consultation_id"`
	Message        *Message         `json:"message,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
}

// NewMessageEvent builds a message:new event for m.
func NewMessageEvent(m *Message) *MessageEvent {
	return &MessageEvent{
		ID:             m.ID,
		EventType:      MessageEventNew,
		ConsultationID: m.ConsultationID,
		Message:        m,
		Timestamp:      m.Timestamp,
	}
}
