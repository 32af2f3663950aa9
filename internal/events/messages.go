package events

import (
	"encoding/json"
	"time"
)

// Message kinds routed through the ledger exchange.
const (
	KindActivityUpserted = "activity.upserted"
	KindActivityRemoved  = "activity.removed"
)

// ActivityMessage notifies downstream consumers that a date's activity set
// changed and its daily-log snapshot should be rebuilt.
type ActivityMessage struct {
	Kind       string    `json:"kind"`
	ActivityID string    `json:"activity_id"`
	Date       string    `json:"date"`
	Category   string    `json:"category,omitempty"`
	CarbonKg   float64   `json:"carbon_kg,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewActivityUpserted(id, date, category string, carbonKg float64) *ActivityMessage {
	return &ActivityMessage{
		Kind:       KindActivityUpserted,
		ActivityID: id,
		Date:       date,
		Category:   category,
		CarbonKg:   carbonKg,
		Timestamp:  time.Now(),
	}
}

func NewActivityRemoved(id, date string) *ActivityMessage {
	return &ActivityMessage{
		Kind:       KindActivityRemoved,
		ActivityID: id,
		Date:       date,
		Timestamp:  time.Now(),
	}
}

func (m *ActivityMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ActivityMessageFromJSON(body []byte) (*ActivityMessage, error) {
	var m ActivityMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
