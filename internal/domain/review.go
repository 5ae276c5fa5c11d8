package domain

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
)

// ReviewStatus is the moderation state of a review
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// Valid reports whether s is a known status
func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewRejected:
		return true
	}
	return false
}

// VoteType is the direction of a helpfulness vote
type VoteType string

const (
	VoteHelpful    VoteType = "helpful"
	VoteNotHelpful VoteType = "notHelpful"
)

// Valid reports whether v is a known vote direction
func (v VoteType) Valid() bool {
	return v == VoteHelpful || v == VoteNotHelpful
}

// HelpfulVote is one entry of the helpfulness ledger
type HelpfulVote struct {
	UserID string   `json:"user_id"`
	Vote   VoteType `json:"vote"`
}

// Review represents a customer review of a sellable item
type Review struct {
	ID                 uuid.UUID     `json:"id"`
	UserID             string        `json:"user_id" validate:"required"`
	UserName           string        `json:"user_name" validate:"required,max=200"`
	UserEmail          string        `json:"user_email" validate:"required,email"`
	ProductID          uuid.UUID     `json:"product_id" validate:"required"`
	ProductTitle       string        `json:"product_title" validate:"required,max=255"`
	OrderID            string        `json:"order_id" validate:"required,max=100"`
	Rating             int           `json:"rating" validate:"required,min=1,max=5"`
	Title              string        `json:"title" validate:"required,min=1,max=200"`
	Comment            string        `json:"comment" validate:"required,min=1,max=2000"`
	Images             []string      `json:"images"`
	IsVerifiedPurchase bool          `json:"is_verified_purchase"`
	Status             ReviewStatus  `json:"status"`
	AdminNotes         string        `json:"admin_notes,omitempty" validate:"max=500"`
	ModeratedBy        string        `json:"moderated_by,omitempty"`
	ModeratedAt        *time.Time    `json:"moderated_at,omitempty"`
	HelpfulCount       int           `json:"helpful_count"`
	NotHelpfulCount    int           `json:"not_helpful_count"`
	HelpfulVotes       []HelpfulVote `json:"helpful_votes"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// VoteAction describes what ApplyVote did to the ledger
type VoteAction string

const (
	VoteAdded   VoteAction = "added"
	VoteRemoved VoteAction = "removed"
	VoteChanged VoteAction = "changed"
)

// ApplyVote toggles userID's vote on the ledger: a new vote is added, a repeated
// vote of the same type is removed and an opposite vote flips direction.
// Counters are recounted from the ledger afterwards.
func (r *Review) ApplyVote(userID string, vote VoteType) VoteAction {
	action := VoteAdded
	idx := -1
	for i, v := range r.HelpfulVotes {
		if v.UserID == userID {
			idx = i
			break
		}
	}

	switch {
	case idx < 0:
		r.HelpfulVotes = append(r.HelpfulVotes, HelpfulVote{UserID: userID, Vote: vote})
	case r.HelpfulVotes[idx].Vote == vote:
		r.HelpfulVotes = append(r.HelpfulVotes[:idx], r.HelpfulVotes[idx+1:]...)
		action = VoteRemoved
	default:
		r.HelpfulVotes[idx].Vote = vote
		action = VoteChanged
	}

	r.RecountVotes()
	return action
}

// RecountVotes derives the helpful/not-helpful counters from the ledger
func (r *Review) RecountVotes() {
	helpful, notHelpful := 0, 0
	for _, v := range r.HelpfulVotes {
		switch v.Vote {
		case VoteHelpful:
			helpful++
		case VoteNotHelpful:
			notHelpful++
		}
	}
	r.HelpfulCount = helpful
	r.NotHelpfulCount = notHelpful
}

// Moderate records an admin decision on the review
func (r *Review) Moderate(status ReviewStatus, moderatorID, notes string, at time.Time) {
	r.Status = status
	r.AdminNotes = notes
	r.ModeratedBy = moderatorID
	r.ModeratedAt = &at
}

// UserReviewEdit holds the fields an author may change; nil fields are kept
type UserReviewEdit struct {
	Rating  *int      `json:"rating" validate:"omitempty,min=1,max=5"`
	Title   *string   `json:"title" validate:"omitempty,min=1,max=200"`
	Comment *string   `json:"comment" validate:"omitempty,min=1,max=2000"`
	Images  *[]string `json:"images"`
}

// Apply copies the set fields onto r. An approved review goes back to pending.
func (e UserReviewEdit) Apply(r *Review) {
	if e.Rating != nil {
		r.Rating = *e.Rating
	}
	if e.Title != nil {
		r.Title = *e.Title
	}
	if e.Comment != nil {
		r.Comment = *e.Comment
	}
	if e.Images != nil {
		r.Images = *e.Images
	}
	if r.Status == ReviewApproved {
		r.Status = ReviewPending
	}
}

// AdminReviewEdit holds every field an administrator may change; nil fields are kept
type AdminReviewEdit struct {
	Rating             *int          `json:"rating" validate:"omitempty,min=1,max=5"`
	Title              *string       `json:"title" validate:"omitempty,min=1,max=200"`
	Comment            *string       `json:"comment" validate:"omitempty,min=1,max=2000"`
	Images             *[]string     `json:"images"`
	ProductTitle       *string       `json:"product_title" validate:"omitempty,max=255"`
	IsVerifiedPurchase *bool         `json:"is_verified_purchase"`
	Status             *ReviewStatus `json:"status"`
	AdminNotes         *string       `json:"admin_notes" validate:"omitempty,max=500"`
}

// Apply copies the set fields onto r and stamps the moderator
func (e AdminReviewEdit) Apply(r *Review, moderatorID string, at time.Time) {
	if e.Rating != nil {
		r.Rating = *e.Rating
	}
	if e.Title != nil {
		r.Title = *e.Title
	}
	if e.Comment != nil {
		r.Comment = *e.Comment
	}
	if e.Images != nil {
		r.Images = *e.Images
	}
	if e.ProductTitle != nil {
		r.ProductTitle = *e.ProductTitle
	}
	if e.IsVerifiedPurchase != nil {
		r.IsVerifiedPurchase = *e.IsVerifiedPurchase
	}
	if e.Status != nil {
		r.Status = *e.Status
	}
	if e.AdminNotes != nil {
		r.AdminNotes = *e.AdminNotes
	}
	r.ModeratedBy = moderatorID
	r.ModeratedAt = &at
}

// ReviewFilter selects reviews for listing and export
type ReviewFilter struct {
	ProductID *uuid.UUID
	UserID    string
	Status    ReviewStatus
	Rating    int
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

// RatingStats summarizes the approved reviews of one item
type RatingStats struct {
	AverageRating      float64     `json:"average_rating"`
	TotalReviews       int         `json:"total_reviews"`
	RatingDistribution map[int]int `json:"rating_distribution"`
}

// NewRatingStats builds stats from per-rating counts of approved reviews.
// The average is rounded to one decimal and every rating 1..5 is present in the distribution.
func NewRatingStats(counts map[int]int) RatingStats {
	stats := RatingStats{RatingDistribution: make(map[int]int, 5)}
	sum := 0
	for rating := 1; rating <= 5; rating++ {
		n := counts[rating]
		stats.RatingDistribution[rating] = n
		stats.TotalReviews += n
		sum += rating * n
	}
	if stats.TotalReviews > 0 {
		avg := float64(sum) / float64(stats.TotalReviews)
		stats.AverageRating = math.Round(avg*10) / 10
	}
	return stats
}

// RefreshStatus reports the outcome of a best-effort rating recompute
type RefreshStatus string

const (
	RefreshOK           RefreshStatus = "ok"
	RefreshFailed       RefreshStatus = "failed"
	RefreshItemNotFound RefreshStatus = "item_not_found"
)

// ReviewRepository defines the interface for review data access
type ReviewRepository interface {
	// Create creates a new review; a repeated (user, order, product) triple returns ErrDuplicateReview
	Create(ctx context.Context, review *Review) error

	// GetByID retrieves a review by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Review, error)

	// Exists reports whether the user already reviewed the product for the order
	Exists(ctx context.Context, userID, orderID string, productID uuid.UUID) (bool, error)

	// List retrieves a filtered page of reviews and the total match count
	List(ctx context.Context, filter ReviewFilter) ([]*Review, int, error)

	// Update replaces the stored review
	Update(ctx context.Context, review *Review) error

	// UpdateVotes stores only the helpfulness votes and counters of a review
	UpdateVotes(ctx context.Context, review *Review) error

	// Delete removes a review
	Delete(ctx context.Context, id uuid.UUID) error

	// RatingCounts returns the number of approved reviews per rating value for a product
	RatingCounts(ctx context.Context, productID uuid.UUID) (map[int]int, error)

	// ReviewedProductIDs returns every product id that has at least one review
	ReviewedProductIDs(ctx context.Context) ([]uuid.UUID, error)
}
