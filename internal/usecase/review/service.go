package review

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Pesokrava/jewelry_catalog/internal/domain"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/metrics"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/validator"
	"github.com/Pesokrava/jewelry_catalog/internal/repository/cache"
)

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Cache stores review pages and stats per product
type Cache interface {
	GetReviewPage(ctx context.Context, productID uuid.UUID, key cache.PageKey) (*cache.ReviewPage, error)
	SetReviewPage(ctx context.Context, productID uuid.UUID, key cache.PageKey, page *cache.ReviewPage) error
	GetReviewStats(ctx context.Context, productID uuid.UUID) (*domain.RatingStats, error)
	SetReviewStats(ctx context.Context, productID uuid.UUID, stats *domain.RatingStats) error
	InvalidateProduct(ctx context.Context, productID uuid.UUID) error
}

// RatingRefresher recomputes the denormalized rating of an item
type RatingRefresher interface {
	Recompute(ctx context.Context, itemID uuid.UUID) domain.RefreshStatus
}

// Result is the outcome of a review mutation. The mutation itself succeeded;
// RatingRefresh reports whether the item's cached rating followed.
type Result struct {
	Review        *domain.Review       `json:"review"`
	RatingRefresh domain.RefreshStatus `json:"rating_refresh"`
}

// ListOptions selects a page of reviews
type ListOptions struct {
	ProductID *uuid.UUID
	UserID    string
	Status    domain.ReviewStatus
	Rating    int
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Page is one page of reviews with pagination metadata
type Page struct {
	Reviews    []*domain.Review `json:"reviews"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// Eligibility answers whether a user may still review an item for an order
type Eligibility struct {
	CanReview bool   `json:"can_review"`
	Reason    string `json:"reason,omitempty"`
}

// VoteResult reports the counters after a helpfulness vote
type VoteResult struct {
	Action          domain.VoteAction `json:"action"`
	HelpfulCount    int               `json:"helpful_count"`
	NotHelpfulCount int               `json:"not_helpful_count"`
}

const (
	defaultPageSize      = 10
	defaultAdminPageSize = 20
	maxPageSize          = 100
)

// Service handles review business logic with caching and event publishing
type Service struct {
	repo      domain.ReviewRepository
	cache     Cache
	publisher EventPublisher
	ratings   RatingRefresher
	subject   string
	logger    *logger.Logger
	now       func() time.Time
}

// NewService creates a new review service publishing events to subject
func NewService(
	repo domain.ReviewRepository,
	cache Cache,
	publisher EventPublisher,
	ratings RatingRefresher,
	subject string,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		ratings:   ratings,
		subject:   subject,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create submits a new review. The review starts pending and marked as a verified purchase.
func (s *Service) Create(ctx context.Context, review *domain.Review) (*Result, error) {
	review.Status = domain.ReviewPending
	review.IsVerifiedPurchase = true

	if err := s.create(ctx, review); err != nil {
		return nil, err
	}

	status := s.afterMutation(ctx, domain.EventReviewCreated, review)

	s.logger.WithFields(map[string]interface{}{
		"review_id":  review.ID,
		"product_id": review.ProductID,
		"rating":     review.Rating,
	}).Info("Review created successfully")

	return &Result{Review: review, RatingRefresh: status}, nil
}

// create validates and stores a review without side effects
func (s *Service) create(ctx context.Context, review *domain.Review) error {
	review.ID = uuid.Nil
	review.HelpfulVotes = []domain.HelpfulVote{}
	review.RecountVotes()
	review.ModeratedBy = ""
	review.ModeratedAt = nil
	if review.Images == nil {
		review.Images = []string{}
	}

	if err := validator.Struct(review); err != nil {
		s.logger.Error("Review validation failed", err)
		return err
	}

	exists, err := s.repo.Exists(ctx, review.UserID, review.OrderID, review.ProductID)
	if err != nil {
		s.logger.Error("Failed to check existing review", err)
		return err
	}
	if exists {
		return domain.ErrDuplicateReview
	}

	// The unique index still arbitrates concurrent submissions
	if err := s.repo.Create(ctx, review); err != nil {
		if !errors.Is(err, domain.ErrConflict) {
			s.logger.Error("Failed to create review", err)
		}
		return err
	}

	metrics.ReviewsCreated.Inc()
	return nil
}

// GetByID retrieves a review by ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Review not found: %s", id)
		} else {
			s.logger.Error("Failed to get review", err)
		}
		return nil, err
	}

	return review, nil
}

// ListByItem returns a page of an item's reviews, approved only unless a status is given.
// Pages are cached per product.
func (s *Service) ListByItem(ctx context.Context, productID uuid.UUID, opts ListOptions) (*Page, error) {
	if opts.Status == "" {
		opts.Status = domain.ReviewApproved
	}
	opts.ProductID = &productID

	filter, err := s.filter(opts, defaultPageSize)
	if err != nil {
		return nil, err
	}

	key := cache.PageKey{
		Status:    filter.Status,
		Rating:    filter.Rating,
		SortBy:    filter.SortBy,
		SortOrder: filter.SortOrder,
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	}

	if cached, err := s.cache.GetReviewPage(ctx, productID, key); err == nil {
		s.logger.Debugf("Cache hit for product %s reviews (limit=%d, offset=%d)", productID, filter.Limit, filter.Offset)
		return newPage(cached.Reviews, cached.Total, filter), nil
	}

	s.logger.Debugf("Cache miss for product %s reviews (limit=%d, offset=%d)", productID, filter.Limit, filter.Offset)
	reviews, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list reviews by product", err)
		return nil, err
	}

	if err := s.cache.SetReviewPage(ctx, productID, key, &cache.ReviewPage{Reviews: reviews, Total: total}); err != nil {
		s.logger.Warnf("Failed to cache reviews for product %s (limit=%d, offset=%d): %v", productID, filter.Limit, filter.Offset, err)
	}

	return newPage(reviews, total, filter), nil
}

// Stats aggregates an item's approved reviews
func (s *Service) Stats(ctx context.Context, productID uuid.UUID) (*domain.RatingStats, error) {
	if cached, err := s.cache.GetReviewStats(ctx, productID); err == nil {
		return cached, nil
	}

	counts, err := s.repo.RatingCounts(ctx, productID)
	if err != nil {
		s.logger.Error("Failed to aggregate review stats", err)
		return nil, err
	}

	stats := domain.NewRatingStats(counts)
	if err := s.cache.SetReviewStats(ctx, productID, &stats); err != nil {
		s.logger.Warnf("Failed to cache review stats for product %s: %v", productID, err)
	}

	return &stats, nil
}

// Mine returns a page of the user's own reviews in every status
func (s *Service) Mine(ctx context.Context, userID string, opts ListOptions) (*Page, error) {
	opts.UserID = userID
	return s.list(ctx, opts, defaultPageSize)
}

// AdminList returns a filtered page of all reviews
func (s *Service) AdminList(ctx context.Context, opts ListOptions) (*Page, error) {
	return s.list(ctx, opts, defaultAdminPageSize)
}

func (s *Service) list(ctx context.Context, opts ListOptions, pageSize int) (*Page, error) {
	filter, err := s.filter(opts, pageSize)
	if err != nil {
		return nil, err
	}

	reviews, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list reviews", err)
		return nil, err
	}

	return newPage(reviews, total, filter), nil
}

// CanReview reports whether the (user, order, item) triple is still free
func (s *Service) CanReview(ctx context.Context, userID, orderID string, productID uuid.UUID) (*Eligibility, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, domain.Invalidf("order_id is required")
	}

	exists, err := s.repo.Exists(ctx, userID, orderID, productID)
	if err != nil {
		s.logger.Error("Failed to check review eligibility", err)
		return nil, err
	}
	if exists {
		return &Eligibility{CanReview: false, Reason: "You have already reviewed this product for this order"}, nil
	}
	return &Eligibility{CanReview: true}, nil
}

// UpdateByOwner applies an author's edit. An approved review returns to pending.
func (s *Service) UpdateByOwner(ctx context.Context, id uuid.UUID, userID string, edit domain.UserReviewEdit) (*Result, error) {
	if err := validator.Struct(edit); err != nil {
		return nil, err
	}

	review, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	edit.Apply(review)

	if err := s.update(ctx, review); err != nil {
		return nil, err
	}

	status := s.afterMutation(ctx, domain.EventReviewUpdated, review)

	s.logger.WithFields(map[string]interface{}{
		"review_id":  review.ID,
		"product_id": review.ProductID,
		"status":     review.Status,
	}).Info("Review updated successfully")

	return &Result{Review: review, RatingRefresh: status}, nil
}

// UpdateByAdmin applies an administrator's edit to any field and stamps the moderator
func (s *Service) UpdateByAdmin(ctx context.Context, id uuid.UUID, adminID string, edit domain.AdminReviewEdit) (*Result, error) {
	if err := validator.Struct(edit); err != nil {
		return nil, err
	}
	if edit.Status != nil && !edit.Status.Valid() {
		return nil, domain.Invalidf("invalid status, must be pending, approved or rejected")
	}

	review, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	edit.Apply(review, adminID, s.now())

	if err := s.update(ctx, review); err != nil {
		return nil, err
	}

	if edit.Status != nil {
		metrics.ModerationDecisions.WithLabelValues(string(*edit.Status)).Inc()
	}

	status := s.afterMutation(ctx, domain.EventReviewUpdated, review)

	s.logger.WithFields(map[string]interface{}{
		"review_id":    review.ID,
		"product_id":   review.ProductID,
		"moderated_by": adminID,
	}).Info("Review updated by admin")

	return &Result{Review: review, RatingRefresh: status}, nil
}

// DeleteByOwner removes the author's own review
func (s *Service) DeleteByOwner(ctx context.Context, id uuid.UUID, userID string) (*Result, error) {
	review, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return s.delete(ctx, review)
}

// DeleteByAdmin removes any review
func (s *Service) DeleteByAdmin(ctx context.Context, id uuid.UUID) (*Result, error) {
	review, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.delete(ctx, review)
}

func (s *Service) delete(ctx context.Context, review *domain.Review) (*Result, error) {
	if err := s.repo.Delete(ctx, review.ID); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to delete review", err)
		}
		return nil, err
	}

	status := s.afterMutation(ctx, domain.EventReviewDeleted, review)

	s.logger.WithFields(map[string]interface{}{
		"review_id":  review.ID,
		"product_id": review.ProductID,
	}).Info("Review deleted successfully")

	return &Result{Review: review, RatingRefresh: status}, nil
}

// Vote toggles the user's helpfulness vote on a review
func (s *Service) Vote(ctx context.Context, id uuid.UUID, userID string, vote domain.VoteType) (*VoteResult, error) {
	if !vote.Valid() {
		return nil, domain.Invalidf("vote must be helpful or notHelpful")
	}

	review, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	action := review.ApplyVote(userID, vote)
	review.UpdatedAt = s.now()

	// status may change concurrently; only the vote fields are written
	if err := s.repo.UpdateVotes(ctx, review); err != nil {
		s.logger.Error("Failed to store review vote", err)
		return nil, err
	}

	metrics.HelpfulVotes.WithLabelValues(string(vote), string(action)).Inc()
	s.invalidate(ctx, review.ProductID)

	return &VoteResult{
		Action:          action,
		HelpfulCount:    review.HelpfulCount,
		NotHelpfulCount: review.NotHelpfulCount,
	}, nil
}

// Approve publishes a review and clears earlier admin notes
func (s *Service) Approve(ctx context.Context, id uuid.UUID, adminID string) (*Result, error) {
	return s.moderate(ctx, id, adminID, domain.ReviewApproved, "")
}

// Reject hides a review; a reason is required and stored as admin notes
func (s *Service) Reject(ctx context.Context, id uuid.UUID, adminID, reason string) (*Result, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.Invalidf("rejection reason is required")
	}
	if len(reason) > 500 {
		return nil, domain.Invalidf("rejection reason must be at most 500 characters")
	}
	return s.moderate(ctx, id, adminID, domain.ReviewRejected, reason)
}

func (s *Service) moderate(ctx context.Context, id uuid.UUID, adminID string, decision domain.ReviewStatus, notes string) (*Result, error) {
	review, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	review.Moderate(decision, adminID, notes, s.now())

	if err := s.update(ctx, review); err != nil {
		return nil, err
	}

	metrics.ModerationDecisions.WithLabelValues(string(decision)).Inc()
	status := s.afterMutation(ctx, domain.EventReviewModerated, review)

	s.logger.WithFields(map[string]interface{}{
		"review_id":    review.ID,
		"product_id":   review.ProductID,
		"status":       decision,
		"moderated_by": adminID,
	}).Info("Review moderated")

	return &Result{Review: review, RatingRefresh: status}, nil
}

// owned loads a review that must belong to userID
func (s *Service) owned(ctx context.Context, id uuid.UUID, userID string) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrForbidden
		}
		s.logger.Error("Failed to get review", err)
		return nil, err
	}
	if review.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return review, nil
}

func (s *Service) update(ctx context.Context, review *domain.Review) error {
	if err := validator.Struct(review); err != nil {
		s.logger.Error("Review validation failed", err)
		return err
	}

	review.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, review); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to update review", err)
		}
		return err
	}
	return nil
}

// afterMutation runs the best-effort side effects of a review write
func (s *Service) afterMutation(ctx context.Context, eventType domain.ReviewEventType, review *domain.Review) domain.RefreshStatus {
	s.invalidate(ctx, review.ProductID)
	status := s.ratings.Recompute(ctx, review.ProductID)
	s.publishEvent(eventType, review)
	return status
}

func (s *Service) invalidate(ctx context.Context, productID uuid.UUID) {
	// Stale cache would show incorrect ratings and review lists
	if err := s.cache.InvalidateProduct(ctx, productID); err != nil {
		s.logger.Warnf("Failed to invalidate cache for product %s: %v", productID, err)
	}
}

// publishEvent publishes a review event (non-blocking)
func (s *Service) publishEvent(eventType domain.ReviewEventType, review *domain.Review) {
	data, err := json.Marshal(domain.NewReviewEvent(eventType, review, s.now()))
	if err != nil {
		s.logger.Errorf(err, "Failed to marshal event for review %s", review.ID)
		return
	}

	reviewID := review.ID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.publisher.Publish(ctx, s.subject, data); err != nil {
			s.logger.Errorf(err, "Failed to publish event for review %s", reviewID)
		}
	}()
}

// filter converts list options into a repository filter with clamped pagination
func (s *Service) filter(opts ListOptions, defaultSize int) (domain.ReviewFilter, error) {
	if opts.Status != "" && !opts.Status.Valid() {
		return domain.ReviewFilter{}, domain.Invalidf("invalid status, must be pending, approved or rejected")
	}
	if opts.Rating != 0 && (opts.Rating < 1 || opts.Rating > 5) {
		return domain.ReviewFilter{}, domain.Invalidf("rating must be between 1 and 5")
	}

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultSize
	}
	if opts.PageSize > maxPageSize {
		opts.PageSize = maxPageSize
	}
	if opts.SortBy == "" {
		opts.SortBy = "created_at"
	}
	if opts.SortOrder != "asc" {
		opts.SortOrder = "desc"
	}

	return domain.ReviewFilter{
		ProductID: opts.ProductID,
		UserID:    opts.UserID,
		Status:    opts.Status,
		Rating:    opts.Rating,
		SortBy:    opts.SortBy,
		SortOrder: opts.SortOrder,
		Limit:     opts.PageSize,
		Offset:    (opts.Page - 1) * opts.PageSize,
	}, nil
}

func newPage(reviews []*domain.Review, total int, f domain.ReviewFilter) *Page {
	if reviews == nil {
		reviews = []*domain.Review{}
	}
	return &Page{
		Reviews:    reviews,
		Total:      total,
		Page:       f.Offset/f.Limit + 1,
		PageSize:   f.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(f.Limit))),
	}
}
