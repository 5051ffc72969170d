package issuestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/civicbridge/internal/app/system/apperr"
	"github.com/dalemusser/civicbridge/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SubmittedNote is the note on the history entry written at creation.
const SubmittedNote = "Issue submitted"

// Sort orders for List.
type Sort string

const (
	SortNewest  Sort = "newest"
	SortOldest  Sort = "oldest"
	SortUpvotes Sort = "upvotes"
)

// ParseSort maps a query value to a Sort. Unknown values mean newest.
func ParseSort(s string) Sort {
	switch Sort(s) {
	case SortOldest, SortUpvotes:
		return Sort(s)
	default:
		return SortNewest
	}
}

func (s Sort) bson() bson.D {
	switch s {
	case SortOldest:
		return bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	case SortUpvotes:
		return bson.D{{Key: "upvote_count", Value: -1}, {Key: "created_at", Value: -1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	}
}

// Filter narrows List. Empty fields match everything. Category matches
// case- and accent-insensitively; severity and status match exactly.
type Filter struct {
	Category string
	Severity string
	Status   string
}

func (f Filter) bson() bson.M {
	m := bson.M{}
	if f.Category != "" {
		m["category_ci"] = text.Fold(strings.Join(strings.Fields(f.Category), " "))
	}
	if f.Severity != "" {
		m["severity"] = f.Severity
	}
	if f.Status != "" {
		m["status"] = f.Status
	}
	return m
}

// StatusChange is an official's transition of one issue.
type StatusChange struct {
	Status          string
	Note            string
	ResolutionImage string
	ActorID         primitive.ObjectID
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	if db == nil {
		return &Store{}
	}
	return &Store{c: db.Collection("issues")}
}

func (s *Store) coll() (*mongo.Collection, error) {
	if s == nil || s.c == nil {
		return nil, apperr.ErrStoreNotConfigured
	}
	return s.c, nil
}

// Create stores a new issue reported by iss.CreatedBy. Status, history and
// upvotes are always initialized here regardless of what iss carries.
func (s *Store) Create(ctx context.Context, iss models.Issue) (models.Issue, error) {
	c, err := s.coll()
	if err != nil {
		return models.Issue{}, err
	}
	if !models.IsValidSeverity(iss.Severity) {
		return models.Issue{}, apperr.Validation("Invalid severity")
	}

	now := time.Now().UTC()
	iss.ID = primitive.NewObjectID()
	iss.CategoryCI = text.Fold(iss.Category)
	iss.Status = models.StatusSubmitted
	iss.StatusHistory = []models.StatusEntry{{
		Status:    models.StatusSubmitted,
		UpdatedBy: iss.CreatedBy,
		Note:      SubmittedNote,
		Timestamp: now,
	}}
	iss.Upvotes = []primitive.ObjectID{}
	iss.UpvoteCount = 0
	iss.ResolvedAt = nil
	iss.ResolutionImage = ""
	iss.CreatedAt = now
	iss.UpdatedAt = now

	if _, err := c.InsertOne(ctx, iss); err != nil {
		return models.Issue{}, apperr.Storage(fmt.Errorf("insert issue: %w", err))
	}
	return iss, nil
}

// GetByID loads one issue including its voter list.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	c, err := s.coll()
	if err != nil {
		return nil, err
	}
	var iss models.Issue
	err = c.FindOne(ctx, bson.M{"_id": id}).Decode(&iss)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.ErrIssueNotFound
	}
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("find issue: %w", err))
	}
	return &iss, nil
}

// List returns issues matching f in the given order. Voter lists are not
// loaded; UpvoteCount carries the tally.
func (s *Store) List(ctx context.Context, f Filter, order Sort) ([]models.Issue, error) {
	c, err := s.coll()
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(order.bson()).
		SetProjection(bson.M{"upvotes": 0})
	cur, err := c.Find(ctx, f.bson(), opts)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("list issues: %w", err))
	}
	defer cur.Close(ctx)

	out := make([]models.Issue, 0, 16)
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Storage(fmt.Errorf("decode issues: %w", err))
	}
	return out, nil
}

// Categories returns the distinct non-empty categories in ascending order.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	c, err := s.coll()
	if err != nil {
		return nil, err
	}
	vals, err := c.Distinct(ctx, "category", bson.M{"category": bson.M{"$nin": bson.A{nil, ""}}})
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("distinct categories: %w", err))
	}

	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if cat, ok := v.(string); ok && cat != "" {
			out = append(out, cat)
		}
	}
	sort.Strings(out)
	return out, nil
}

// UpdateStatus applies ch to the issue and returns the updated document.
// Any status may follow any other. ResolvedAt is stamped only the first time
// the issue enters Resolved or Verified, in the same write as the status and
// history change.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, ch StatusChange) (*models.Issue, error) {
	c, err := s.coll()
	if err != nil {
		return nil, err
	}
	if !models.IsValidStatus(ch.Status) {
		return nil, apperr.Validation("Invalid status")
	}

	var iss models.Issue
	err = c.FindOneAndUpdate(ctx, bson.M{"_id": id}, statusPipeline(ch, time.Now().UTC()),
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&iss)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.ErrIssueNotFound
	}
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("update issue status: %w", err))
	}
	return &iss, nil
}

// statusPipeline builds the single-stage update for UpdateStatus. Caller text
// goes through $literal so a note starting with "$" is never read as a field
// path.
func statusPipeline(ch StatusChange, now time.Time) mongo.Pipeline {
	entry := models.StatusEntry{
		Status:    ch.Status,
		UpdatedBy: ch.ActorID,
		Note:      ch.Note,
		Timestamp: now,
	}
	set := bson.D{
		{Key: "status", Value: bson.M{"$literal": ch.Status}},
		{Key: "updated_at", Value: now},
		{Key: "status_history", Value: bson.M{"$concatArrays": bson.A{
			bson.M{"$ifNull": bson.A{"$status_history", bson.A{}}},
			bson.A{bson.M{"$literal": entry}},
		}}},
	}
	if ch.ResolutionImage != "" {
		set = append(set, bson.E{Key: "resolution_image", Value: bson.M{"$literal": ch.ResolutionImage}})
	}
	if models.IsResolvedStatus(ch.Status) {
		set = append(set, bson.E{Key: "resolved_at", Value: bson.M{"$ifNull": bson.A{"$resolved_at", now}}})
	}
	return mongo.Pipeline{{{Key: "$set", Value: set}}}
}

// Upvote records userID's vote on the issue and returns the new count.
// The add and the count bump happen in one document update, so concurrent
// voters never lose each other's votes. A repeat vote fails with
// apperr.ErrDuplicateVote.
func (s *Store) Upvote(ctx context.Context, id, userID primitive.ObjectID) (int, error) {
	c, err := s.coll()
	if err != nil {
		return 0, err
	}

	var after struct {
		UpvoteCount int `bson:"upvote_count"`
	}
	err = c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "upvotes": bson.M{"$ne": userID}},
		bson.M{
			"$push": bson.M{"upvotes": userID},
			"$inc":  bson.M{"upvote_count": 1},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"upvote_count": 1}),
	).Decode(&after)
	if err == nil {
		return after.UpvoteCount, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, apperr.Storage(fmt.Errorf("upvote issue: %w", err))
	}

	// No match: either the issue is gone or this user already voted.
	n, err := c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return 0, apperr.Storage(fmt.Errorf("check issue: %w", err))
	}
	if n == 0 {
		return 0, apperr.ErrIssueNotFound
	}
	return 0, apperr.ErrDuplicateVote
}
