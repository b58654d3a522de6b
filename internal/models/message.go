package models

import (
	"fmt"
	"time"
)

// Role identifies who produced a conversational turn.
// It is a closed set; serialization boundaries must switch on it exhaustively.
type Role string

const (
	RoleSystem    Role = "system"
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
)

// Wire-level type tags used in the persisted message schema and in API
// responses: {type: human|ai|system, content, timestamp}.
const (
	WireTypeHuman  = "human"
	WireTypeAI     = "ai"
	WireTypeSystem = "system"
)

// Message represents a single conversational turn.
// The timestamp is assigned by the orchestrator at creation time, in UTC.
type Message struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// NewMessage creates a message stamped with the current UTC time.
func NewMessage(role Role, content string) Message {
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// WireType maps a Role to its persisted type tag.
func (r Role) WireType() (string, error) {
	switch r {
	case RoleHuman:
		return WireTypeHuman, nil
	case RoleAssistant:
		return WireTypeAI, nil
	case RoleSystem:
		return WireTypeSystem, nil
	default:
		return "", fmt.Errorf("unknown message role %q", string(r))
	}
}

// RoleFromWireType maps a persisted type tag back to a Role.
func RoleFromWireType(wireType string) (Role, error) {
	switch wireType {
	case WireTypeHuman:
		return RoleHuman, nil
	case WireTypeAI:
		return RoleAssistant, nil
	case WireTypeSystem:
		return RoleSystem, nil
	default:
		return "", fmt.Errorf("unknown message type %q", wireType)
	}
}
