package notifications

import (
	"encoding/json"
	"fmt"
	"time"
)

// FeedChannel is the Redis pub/sub channel every instance publishes forum
// events on and subscribes to.
const FeedChannel = "forum:events"

// Event type constants prevent typos in event names.
const (
	EventPostCreated        = "post_created"
	EventPostUpdated        = "post_updated"
	EventPostDeleted        = "post_deleted"
	EventPostLikeToggled    = "post_like_toggled"
	EventCommentCreated     = "comment_created"
	EventCommentUpdated     = "comment_updated"
	EventCommentDeleted     = "comment_deleted"
	EventCommentLikeToggled = "comment_like_toggled"
)

// Event is the envelope written to the feed.
type Event struct {
	Type    string          `json:"type"`
	ActorID uint            `json:"actorId,omitempty"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload"`
}

// NewEvent builds an event stamped with the current UTC time.
func NewEvent(eventType string, actorID uint, payload any) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Event{
		Type:    eventType,
		ActorID: actorID,
		At:      time.Now().UTC(),
		Payload: raw,
	}, nil
}

// Encode returns the wire form of e.
func (e *Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEvent parses a message read from the feed.
func DecodeEvent(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if e.Type == "" {
		return nil, fmt.Errorf("decode event: missing type")
	}
	return &e, nil
}
