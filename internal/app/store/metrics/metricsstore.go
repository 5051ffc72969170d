package metricsstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/civicbridge/internal/app/system/analytics"
	"github.com/dalemusser/civicbridge/internal/app/system/apperr"
	"github.com/dalemusser/civicbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// topCategories bounds the category breakdown returned with a summary.
const topCategories = 10

// Trending is the open issue with the most upvotes.
type Trending struct {
	ID          primitive.ObjectID `bson:"_id"`
	Title       string             `bson:"title"`
	UpvoteCount int                `bson:"upvote_count"`
	CreatedBy   primitive.ObjectID `bson:"created_by"`
}

// IssueSummary is the raw material for the officials' analytics.
type IssueSummary struct {
	Total    int64
	Open     int64
	Resolved int64

	// Resolutions holds one sample per issue with resolved_at set.
	Resolutions []analytics.Resolution
	// Categories is sorted by count desc, then category asc.
	Categories []analytics.CategoryCount
	// Trending is nil when no issue is open.
	Trending *Trending
}

// FetchIssueSummary gathers the counts and samples behind the analytics
// endpoint. The first failed query aborts the call with a storage error;
// callers must not use the returned summary when err is non-nil.
func FetchIssueSummary(ctx context.Context, db *mongo.Database) (IssueSummary, error) {
	var out IssueSummary
	if db == nil {
		return out, apperr.ErrStoreNotConfigured
	}
	issues := db.Collection("issues")

	var err error
	if out.Total, err = issues.CountDocuments(ctx, bson.M{}); err != nil {
		return out, apperr.Storage(fmt.Errorf("count issues: %w", err))
	}
	if out.Open, err = issues.CountDocuments(ctx, bson.M{"status": bson.M{"$in": models.OpenStatuses}}); err != nil {
		return out, apperr.Storage(fmt.Errorf("count open issues: %w", err))
	}
	if out.Resolved, err = issues.CountDocuments(ctx, bson.M{"status": bson.M{"$in": models.ResolvedStatuses}}); err != nil {
		return out, apperr.Storage(fmt.Errorf("count resolved issues: %w", err))
	}

	if out.Resolutions, err = fetchResolutions(ctx, issues); err != nil {
		return out, err
	}
	if out.Categories, err = fetchCategoryCounts(ctx, issues); err != nil {
		return out, err
	}
	if out.Trending, err = fetchTrending(ctx, issues); err != nil {
		return out, err
	}
	return out, nil
}

func fetchResolutions(ctx context.Context, issues *mongo.Collection) ([]analytics.Resolution, error) {
	cur, err := issues.Find(ctx,
		bson.M{"resolved_at": bson.M{"$type": "date"}},
		options.Find().SetProjection(bson.M{"created_at": 1, "resolved_at": 1}))
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("find resolved issues: %w", err))
	}
	defer cur.Close(ctx)

	var out []analytics.Resolution
	for cur.Next(ctx) {
		var row struct {
			CreatedAt  time.Time `bson:"created_at"`
			ResolvedAt time.Time `bson:"resolved_at"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, apperr.Storage(err)
		}
		out = append(out, analytics.Resolution{CreatedAt: row.CreatedAt, ResolvedAt: row.ResolvedAt})
	}
	if err := cur.Err(); err != nil {
		return nil, apperr.Storage(err)
	}
	return out, nil
}

func fetchCategoryCounts(ctx context.Context, issues *mongo.Collection) ([]analytics.CategoryCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: topCategories}},
	}
	cur, err := issues.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("aggregate categories: %w", err))
	}
	defer cur.Close(ctx)

	var rows []struct {
		Category string `bson:"_id"`
		Count    int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, apperr.Storage(fmt.Errorf("decode categories: %w", err))
	}

	out := make([]analytics.CategoryCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, analytics.CategoryCount{Category: r.Category, Count: r.Count})
	}
	return out, nil
}

func fetchTrending(ctx context.Context, issues *mongo.Collection) (*Trending, error) {
	var t Trending
	err := issues.FindOne(ctx,
		bson.M{"status": bson.M{"$in": models.OpenStatuses}},
		options.FindOne().
			SetSort(bson.D{{Key: "upvote_count", Value: -1}, {Key: "_id", Value: 1}}).
			SetProjection(bson.M{"title": 1, "upvote_count": 1, "created_by": 1}),
	).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("find trending issue: %w", err))
	}
	return &t, nil
}
