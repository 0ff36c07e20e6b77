// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

// AvailabilityQueue is the durable queue availability writes are published to.
const AvailabilityQueue = "availability.changed"

// AvailabilityChangedEvent is published after a venue's availability was
// written, either for one day or for a range. Start and End are equal for
// single-day writes.
type AvailabilityChangedEvent struct {
	VenueID     uint64 `json:"venue_id"`
	Start       string `json:"start_date"`
	End         string `json:"end_date"`
	Days        int    `json:"days"`
	IsAvailable bool   `json:"is_available"`
	Reason      string `json:"unavailable_reason,omitempty"`
	ChangedBy   uint64 `json:"changed_by"`
	Role        string `json:"role"`
	ChangedAt   string `json:"changed_at"` // RFC 3339, UTC
}
