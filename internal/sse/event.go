package sse

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event types broadcast by the mixer.
const (
	TypeVolume = "volume-change"
	TypeMute   = "mute-change"
	TypeConfig = "config-change"
)

// Event represents a Server-Sent Event with type, data, and optional ID.
type Event struct {
	Type string // Event type, one of the Type* constants
	Data any    // Event data (will be JSON-encoded)
	ID   string // Optional event ID for resuming connections
}

// String formats the event according to the SSE specification.
// Format: "event: type\ndata: json\n\n" (with optional id field)
func (e Event) String() string {
	var b strings.Builder
	if e.ID != "" {
		fmt.Fprintf(&b, "id: %s\n", e.ID)
	}
	if e.Type != "" {
		fmt.Fprintf(&b, "event: %s\n", e.Type)
	}
	data, err := json.Marshal(e.Data)
	if err != nil {
		fmt.Fprintf(&b, "data: error: %v\n\n", err)
		return b.String()
	}
	fmt.Fprintf(&b, "data: %s\n\n", data)
	return b.String()
}
