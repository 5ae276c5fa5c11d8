package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReviewEventType names a review lifecycle event
type ReviewEventType string

const (
	EventReviewCreated   ReviewEventType = "review.created"
	EventReviewUpdated   ReviewEventType = "review.updated"
	EventReviewDeleted   ReviewEventType = "review.deleted"
	EventReviewModerated ReviewEventType = "review.moderated"
)

// ReviewEvent is published to the broker after every review mutation.
// It carries no personal data of the author.
type ReviewEvent struct {
	EventType ReviewEventType `json:"event_type"`
	Timestamp time.Time       `json:"timestamp"`
	ProductID uuid.UUID       `json:"product_id"`
	ReviewID  uuid.UUID       `json:"review_id"`
	Status    ReviewStatus    `json:"status"`
	Rating    int             `json:"rating"`
}

// NewReviewEvent builds the event for a mutation of r
func NewReviewEvent(eventType ReviewEventType, r *Review, at time.Time) ReviewEvent {
	return ReviewEvent{
		EventType: eventType,
		Timestamp: at,
		ProductID: r.ProductID,
		ReviewID:  r.ID,
		Status:    r.Status,
		Rating:    r.Rating,
	}
}
