package realtime

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of realtime event pushed to subscribers.
type EventType string

const (
	EventConnected          EventType = "CONNECTED"
	EventHeartbeat          EventType = "HEARTBEAT"
	EventBedUpdate          EventType = "BED_UPDATE"
	EventBloodUpdate        EventType = "BLOOD_UPDATE"
	EventBloodShortageAlert EventType = "BLOOD_SHORTAGE_ALERT"
	EventEmergencyAlert     EventType = "EMERGENCY_ALERT"
	EventEmergencyRequest   EventType = "EMERGENCY_REQUEST"
	EventAdminBedUpdate     EventType = "ADMIN_BED_UPDATE"
	EventAdminBloodUpdate   EventType = "ADMIN_BLOOD_UPDATE"
)

// Event is a single realtime notification. Events are ephemeral: they are
// delivered at most once to the subscribers connected at publish time and
// are never stored or replayed.
type Event struct {
	Type      EventType
	Data      map[string]interface{}
	Timestamp time.Time
}

// NewEvent builds an event stamped with the current time.
func NewEvent(t EventType, data map[string]interface{}) Event {
	return Event{Type: t, Data: data, Timestamp: time.Now().UTC()}
}

// MarshalJSON flattens the payload alongside type and timestamp, producing
// the wire shape {"type": ..., <payload fields>, "timestamp": ...}.
func (e Event) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(e.Data)+2)
	for k, v := range e.Data {
		out[k] = v
	}
	out["type"] = string(e.Type)
	out["timestamp"] = e.Timestamp
	return json.Marshal(out)
}
