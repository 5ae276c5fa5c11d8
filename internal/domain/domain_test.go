package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCategory_ValidateHierarchy(t *testing.T) {
	top := &Category{ID: uuid.New(), Level: LevelTop}
	mid := &Category{ID: uuid.New(), Level: LevelMid, ParentIDs: []uuid.UUID{top.ID}}

	tests := []struct {
		name    string
		cat     *Category
		parents []*Category
		wantErr string
	}{
		{name: "top without parents", cat: &Category{Level: LevelTop}},
		{name: "top with parents", cat: &Category{Level: LevelTop, ParentIDs: []uuid.UUID{top.ID}}, parents: []*Category{top}, wantErr: "C1 category cannot have parents"},
		{name: "mid under top", cat: &Category{Level: LevelMid, ParentIDs: []uuid.UUID{top.ID}}, parents: []*Category{top}},
		{name: "mid without parents", cat: &Category{Level: LevelMid}, wantErr: "C2 category must have parents"},
		{name: "leaf under top", cat: &Category{Level: LevelLeaf, ParentIDs: []uuid.UUID{top.ID}}, parents: []*Category{top}, wantErr: "C3 category must have C2 parents only"},
		{name: "leaf under mid", cat: &Category{Level: LevelLeaf, ParentIDs: []uuid.UUID{mid.ID}}, parents: []*Category{mid}},
		{name: "unknown parent", cat: &Category{Level: LevelLeaf, ParentIDs: []uuid.UUID{mid.ID, uuid.New()}}, parents: []*Category{mid}, wantErr: "unknown parents"},
		{name: "invalid level", cat: &Category{Level: "C4"}, wantErr: "invalid level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cat.ValidateHierarchy(tt.parents)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDedupeIDs_KeepsFirstOccurrence(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	assert.Equal(t, []uuid.UUID{a, b}, DedupeIDs([]uuid.UUID{a, b, a, b}))
}

func TestReview_ApplyVote(t *testing.T) {
	r := &Review{}

	assert.Equal(t, VoteAdded, r.ApplyVote("u1", VoteHelpful))
	assert.Equal(t, 1, r.HelpfulCount)

	assert.Equal(t, VoteChanged, r.ApplyVote("u1", VoteNotHelpful))
	assert.Equal(t, 0, r.HelpfulCount)
	assert.Equal(t, 1, r.NotHelpfulCount)

	assert.Equal(t, VoteAdded, r.ApplyVote("u2", VoteNotHelpful))
	assert.Equal(t, 2, r.NotHelpfulCount)

	assert.Equal(t, VoteRemoved, r.ApplyVote("u1", VoteNotHelpful))
	assert.Equal(t, 1, r.NotHelpfulCount)
	assert.Len(t, r.HelpfulVotes, 1)
	assert.Equal(t, "u2", r.HelpfulVotes[0].UserID)
}

func TestNewRatingStats(t *testing.T) {
	stats := NewRatingStats(map[int]int{5: 3, 4: 1, 3: 1})

	assert.Equal(t, 4.4, stats.AverageRating)
	assert.Equal(t, 5, stats.TotalReviews)
	assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 1, 4: 1, 5: 3}, stats.RatingDistribution)
}

func TestNewRatingStats_Empty(t *testing.T) {
	stats := NewRatingStats(nil)

	assert.Zero(t, stats.AverageRating)
	assert.Zero(t, stats.TotalReviews)
	assert.Len(t, stats.RatingDistribution, 5)
}
