// internal/app/store/audit/store.go
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/civicbridge/internal/app/system/apperr"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth  = "auth"
	CategoryIssue = "issue"
)

// Auth event types
const (
	EventRegisterSuccess          = "register_success"
	EventRegisterFailedDuplicate  = "register_failed_duplicate_email"
	EventLoginSuccess             = "login_success"
	EventLoginFailedUserNotFound  = "login_failed_user_not_found"
	EventLoginFailedWrongPassword = "login_failed_wrong_password"
	EventLoginFailedRateLimit     = "login_failed_rate_limit"
	EventLogout                   = "logout"
)

// Issue event types
const (
	EventIssueCreated       = "issue_created"
	EventIssueStatusChanged = "issue_status_changed"
	EventIssueUpvoted       = "issue_upvoted"
)

// DefaultLimit caps Query when the filter leaves Limit unset.
const DefaultLimit = 100

// Event is one row of the audit trail.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`

	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	UserID  *primitive.ObjectID `bson:"user_id,omitempty"`  // account the event is about
	IssueID *primitive.ObjectID `bson:"issue_id,omitempty"` // for issue events

	IP        string `bson:"ip"`
	UserAgent string `bson:"user_agent,omitempty"`

	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter narrows Query and CountByFilter. Zero fields are ignored.
type QueryFilter struct {
	UserID    *primitive.ObjectID
	IssueID   *primitive.ObjectID
	Category  string
	EventType string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

func (f QueryFilter) bson() bson.M {
	q := bson.M{}
	if f.UserID != nil {
		q["user_id"] = *f.UserID
	}
	if f.IssueID != nil {
		q["issue_id"] = *f.IssueID
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.StartTime != nil || f.EndTime != nil {
		tq := bson.M{}
		if f.StartTime != nil {
			tq["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			tq["$lte"] = *f.EndTime
		}
		q["timestamp"] = tq
	}
	return q
}

// Store manages audit event records in "audit_events".
type Store struct {
	c *mongo.Collection
}

// New creates an audit Store. A nil db yields a Store whose calls fail with
// apperr.ErrStoreNotConfigured.
func New(db *mongo.Database) *Store {
	if db == nil {
		return &Store{}
	}
	return &Store{c: db.Collection("audit_events")}
}

func (s *Store) coll() (*mongo.Collection, error) {
	if s == nil || s.c == nil {
		return nil, apperr.ErrStoreNotConfigured
	}
	return s.c, nil
}

// Log records an audit event, filling ID and Timestamp when unset.
func (s *Store) Log(ctx context.Context, event Event) error {
	c, err := s.coll()
	if err != nil {
		return err
	}
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if _, err := c.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// Query returns matching events, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	c, err := s.coll()
	if err != nil {
		return nil, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cur, err := c.Find(ctx, filter.bson(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := []Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter counts events matching filter. Limit and Offset are ignored.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	c, err := s.coll()
	if err != nil {
		return 0, err
	}
	return c.CountDocuments(ctx, filter.bson())
}

// GetByIssue returns the audit history of one issue.
func (s *Store) GetByIssue(ctx context.Context, issueID primitive.ObjectID, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{IssueID: &issueID, Limit: limit})
}
