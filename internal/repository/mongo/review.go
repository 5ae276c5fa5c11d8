package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Pesokrava/jewelry_catalog/internal/domain"
)

// CollectionName is the collection holding review documents
const CollectionName = "reviews"

type voteDocument struct {
	UserID string `bson:"user_id"`
	Vote   string `bson:"vote"`
}

// reviewDocument is the stored shape of a review; ids are kept as strings
type reviewDocument struct {
	ID                 string         `bson:"_id"`
	UserID             string         `bson:"user_id"`
	UserName           string         `bson:"user_name"`
	UserEmail          string         `bson:"user_email"`
	ProductID          string         `bson:"product_id"`
	ProductTitle       string         `bson:"product_title"`
	OrderID            string         `bson:"order_id"`
	Rating             int            `bson:"rating"`
	Title              string         `bson:"title"`
	Comment            string         `bson:"comment"`
	Images             []string       `bson:"images"`
	IsVerifiedPurchase bool           `bson:"is_verified_purchase"`
	Status             string         `bson:"status"`
	AdminNotes         string         `bson:"admin_notes,omitempty"`
	ModeratedBy        string         `bson:"moderated_by,omitempty"`
	ModeratedAt        *time.Time     `bson:"moderated_at,omitempty"`
	HelpfulCount       int            `bson:"helpful_count"`
	NotHelpfulCount    int            `bson:"not_helpful_count"`
	HelpfulVotes       []voteDocument `bson:"helpful_votes"`
	CreatedAt          time.Time      `bson:"created_at"`
	UpdatedAt          time.Time      `bson:"updated_at"`
}

func toDocument(r *domain.Review) reviewDocument {
	votes := make([]voteDocument, len(r.HelpfulVotes))
	for i, v := range r.HelpfulVotes {
		votes[i] = voteDocument{UserID: v.UserID, Vote: string(v.Vote)}
	}
	images := r.Images
	if images == nil {
		images = []string{}
	}

	return reviewDocument{
		ID:                 r.ID.String(),
		UserID:             r.UserID,
		UserName:           r.UserName,
		UserEmail:          r.UserEmail,
		ProductID:          r.ProductID.String(),
		ProductTitle:       r.ProductTitle,
		OrderID:            r.OrderID,
		Rating:             r.Rating,
		Title:              r.Title,
		Comment:            r.Comment,
		Images:             images,
		IsVerifiedPurchase: r.IsVerifiedPurchase,
		Status:             string(r.Status),
		AdminNotes:         r.AdminNotes,
		ModeratedBy:        r.ModeratedBy,
		ModeratedAt:        r.ModeratedAt,
		HelpfulCount:       r.HelpfulCount,
		NotHelpfulCount:    r.NotHelpfulCount,
		HelpfulVotes:       votes,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func (d reviewDocument) toDomain() (*domain.Review, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid review id %q: %w", d.ID, err)
	}
	productID, err := uuid.Parse(d.ProductID)
	if err != nil {
		return nil, fmt.Errorf("invalid product id %q: %w", d.ProductID, err)
	}

	votes := make([]domain.HelpfulVote, len(d.HelpfulVotes))
	for i, v := range d.HelpfulVotes {
		votes[i] = domain.HelpfulVote{UserID: v.UserID, Vote: domain.VoteType(v.Vote)}
	}
	images := d.Images
	if images == nil {
		images = []string{}
	}

	return &domain.Review{
		ID:                 id,
		UserID:             d.UserID,
		UserName:           d.UserName,
		UserEmail:          d.UserEmail,
		ProductID:          productID,
		ProductTitle:       d.ProductTitle,
		OrderID:            d.OrderID,
		Rating:             d.Rating,
		Title:              d.Title,
		Comment:            d.Comment,
		Images:             images,
		IsVerifiedPurchase: d.IsVerifiedPurchase,
		Status:             domain.ReviewStatus(d.Status),
		AdminNotes:         d.AdminNotes,
		ModeratedBy:        d.ModeratedBy,
		ModeratedAt:        d.ModeratedAt,
		HelpfulCount:       d.HelpfulCount,
		NotHelpfulCount:    d.NotHelpfulCount,
		HelpfulVotes:       votes,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}, nil
}

// ReviewRepository implements domain.ReviewRepository on a MongoDB collection
type ReviewRepository struct {
	collection *mongo.Collection
}

// NewReviewRepository creates a review repository over coll
func NewReviewRepository(coll *mongo.Collection) *ReviewRepository {
	return &ReviewRepository{collection: coll}
}

// EnsureIndexes creates the uniqueness and query indexes. The unique
// (user, order, product) index is what arbitrates concurrent duplicate submissions.
func (r *ReviewRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "order_id", Value: 1}, {Key: "product_id", Value: 1}},
			Options: options.Index().SetName("user_order_product_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "product_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("product_status_idx"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("user_created_idx"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("status_created_idx"),
		},
		{
			Keys:    bson.D{{Key: "rating", Value: 1}},
			Options: options.Index().SetName("rating_idx"),
		},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create review indexes: %w", err)
	}
	return nil
}

// Create inserts a review
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	now := time.Now().UTC()
	review.CreatedAt = now
	review.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, toDocument(review)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateReview
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// GetByID retrieves a review by ID
func (r *ReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	var doc reviewDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return doc.toDomain()
}

// Exists reports whether the (user, order, product) triple is already taken
func (r *ReviewRepository) Exists(ctx context.Context, userID, orderID string, productID uuid.UUID) (bool, error) {
	filter := bson.M{"user_id": userID, "order_id": orderID, "product_id": productID.String()}

	n, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check review existence: %w", err)
	}

	return n > 0, nil
}

var reviewSortFields = map[string]string{
	"created_at":    "created_at",
	"rating":        "rating",
	"helpful_count": "helpful_count",
	"updated_at":    "updated_at",
}

func buildFilter(f domain.ReviewFilter) bson.M {
	filter := bson.M{}
	if f.ProductID != nil {
		filter["product_id"] = f.ProductID.String()
	}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	if f.Rating > 0 {
		filter["rating"] = f.Rating
	}
	return filter
}

func buildSort(sortBy, sortOrder string) bson.D {
	field, ok := reviewSortFields[sortBy]
	if !ok {
		field = "created_at"
	}
	direction := -1
	if sortOrder == "asc" {
		direction = 1
	}
	return bson.D{{Key: field, Value: direction}, {Key: "_id", Value: 1}}
}

// List retrieves a filtered page of reviews and the total match count
func (r *ReviewRepository) List(ctx context.Context, f domain.ReviewFilter) ([]*domain.Review, int, error) {
	filter := buildFilter(f)

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	opts := options.Find().SetSort(buildSort(f.SortBy, f.SortOrder))
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit)).SetSkip(int64(f.Offset))
	}

	reviews, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}

	return reviews, int(total), nil
}

func (r *ReviewRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Review, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []reviewDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}

	reviews := make([]*domain.Review, 0, len(docs))
	for _, doc := range docs {
		review, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, nil
}

// Update replaces the stored review document
func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	review.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": review.ID.String()}, toDocument(review))
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// UpdateVotes sets the vote list and counters, leaving moderation fields untouched
func (r *ReviewRepository) UpdateVotes(ctx context.Context, review *domain.Review) error {
	doc := toDocument(review)

	update := bson.M{"$set": bson.M{
		"helpful_votes":     doc.HelpfulVotes,
		"helpful_count":     doc.HelpfulCount,
		"not_helpful_count": doc.NotHelpfulCount,
		"updated_at":        time.Now().UTC(),
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": review.ID.String()}, update)
	if err != nil {
		return fmt.Errorf("failed to update review votes: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Delete removes a review
func (r *ReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// RatingCounts groups the approved reviews of a product by rating value
func (r *ReviewRepository) RatingCounts(ctx context.Context, productID uuid.UUID) (map[int]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"product_id": productID.String(), "status": string(domain.ReviewApproved)}}},
		{{Key: "$group", Value: bson.M{"_id": "$rating", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Rating int `bson:"_id"`
		Count  int `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode rating counts: %w", err)
	}

	counts := make(map[int]int, len(rows))
	for _, row := range rows {
		counts[row.Rating] = row.Count
	}
	return counts, nil
}

// ReviewedProductIDs lists the distinct products that have reviews
func (r *ReviewRepository) ReviewedProductIDs(ctx context.Context) ([]uuid.UUID, error) {
	values, err := r.collection.Distinct(ctx, "product_id", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list reviewed products: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
