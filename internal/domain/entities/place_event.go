package entities

import (
	"time"

	"github.com/google/uuid"
)

// PlaceEventType represents the type of place event
type PlaceEventType string

const (
	PlaceEventTypeStatsUpdated  PlaceEventType = "stats_updated"
	PlaceEventTypeStatusChanged PlaceEventType = "status_changed"
	PlaceEventTypeUpdated       PlaceEventType = "updated"
	PlaceEventTypeDeleted       PlaceEventType = "deleted"
)

// PlaceEvent is published whenever a place or its derived stats change
type PlaceEvent struct {
	ID            string                 `json:"id"`
	PlaceID       string                 `json:"place_id"`
	EventType     PlaceEventType         `json:"event_type"`
	Timestamp     time.Time              `json:"timestamp"`
	ChangedFields map[string]interface{} `json:"changed_fields,omitempty"`
}

// NewPlaceEvent creates a new place event
func NewPlaceEvent(placeID string, eventType PlaceEventType, changedFields map[string]interface{}) *PlaceEvent {
	return &PlaceEvent{
		ID:            uuid.NewString(),
		PlaceID:       placeID,
		EventType:     eventType,
		Timestamp:     time.Now().UTC(),
		ChangedFields: changedFields,
	}
}
