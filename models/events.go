package models

import "time"

// Event types published on the moderation bus.
const (
	EventApplicationSubmitted = "seller.application.submitted"
	EventApplicationStatus    = "seller.application.status_changed"
	EventListingSubmitted     = "seller.listing.submitted"
	EventListingUpdated       = "seller.listing.updated"
	EventListingStatus        = "seller.listing.status_changed"
)

// ModerationEvent is the payload of every marketplace event. It never carries
// credential secrets.
type ModerationEvent struct {
	EventType  string           `json:"event_type"`
	EntityType string           `json:"entity_type"`
	EntityID   string           `json:"entity_id"`
	SellerID   string           `json:"seller_id,omitempty"`
	Status     ModerationStatus `json:"status"`
	FromStatus ModerationStatus `json:"from_status,omitempty"`
	Reviewer   string           `json:"reviewer,omitempty"`
	Reason     string           `json:"reason,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// Stats holds moderation counts per status.
type Stats struct {
	Applications map[ModerationStatus]int64 `json:"applications"`
	Listings     map[ModerationStatus]int64 `json:"listings"`
	TotalSellers int64                      `json:"totalSellers"`
	Pending      int64                      `json:"pendingReviews"`
}
