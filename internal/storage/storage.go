package storage

import "time"

// Event is one exchange between a user and the assistant, together with the
// affinity change the reply caused. Events are appended in chronological order.
type Event struct {
	Timestamp         time.Time `json:"timestamp"`
	UserID            string    `json:"user_id"`
	UserMessage       string    `json:"user_message"`
	AssistantResponse string    `json:"assistant_response"`
	Delta             int       `json:"delta,omitempty"`
	Score             int       `json:"score"`
}

// Recorder abstracts persistence of interaction events.
// LoadInteractions returns events in chronological order.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendInteraction(event Event) error
	LoadInteractions() ([]Event, error)
}
