// internal/app/store/sessions/store.go
package sessions

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/civicbridge/internal/app/system/apperr"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// TTL is the fixed lifetime of a session. There is no sliding renewal.
const TTL = 7 * 24 * time.Hour

// tokenBytes is the number of random bytes behind each token (64 hex chars).
const tokenBytes = 32

// Session binds an opaque token to a user and the role they held at login.
type Session struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Token     string             `bson:"token"`
	UserID    primitive.ObjectID `bson:"user_id"`
	Role      string             `bson:"role"` // snapshot at issuance
	CreatedAt time.Time          `bson:"created_at"`
	ExpiresAt time.Time          `bson:"expires_at"`
}

// Valid reports whether the session is still usable at now.
func (s Session) Valid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// Store manages login sessions in the "sessions" collection.
type Store struct {
	c *mongo.Collection
}

// New creates a sessions Store. A nil db yields a Store whose calls fail with
// apperr.ErrStoreNotConfigured.
func New(db *mongo.Database) *Store {
	if db == nil {
		return &Store{}
	}
	return &Store{c: db.Collection("sessions")}
}

func (s *Store) coll() (*mongo.Collection, error) {
	if s == nil || s.c == nil {
		return nil, apperr.ErrStoreNotConfigured
	}
	return s.c, nil
}

// NewToken returns 32 random bytes, hex encoded.
func NewToken() (string, error) {
	b := securecookie.GenerateRandomKey(tokenBytes)
	if b == nil {
		return "", errors.New("sessions: random source unavailable")
	}
	return hex.EncodeToString(b), nil
}

// Create issues a new session for userID with the given role snapshot.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID, role string) (Session, error) {
	c, err := s.coll()
	if err != nil {
		return Session{}, err
	}
	token, err := NewToken()
	if err != nil {
		return Session{}, apperr.Wrap(apperr.KindUnexpected, "Could not create session", err)
	}

	now := time.Now().UTC()
	sess := Session{
		ID:        primitive.NewObjectID(),
		Token:     token,
		UserID:    userID,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(TTL),
	}
	if _, err := c.InsertOne(ctx, sess); err != nil {
		return Session{}, apperr.Storage(fmt.Errorf("insert session: %w", err))
	}
	return sess, nil
}

// Resolve returns the unexpired session for token. Missing and expired
// sessions both report ok=false.
func (s *Store) Resolve(ctx context.Context, token string) (Session, bool, error) {
	if token == "" {
		return Session{}, false, nil
	}
	c, err := s.coll()
	if err != nil {
		return Session{}, false, err
	}

	var sess Session
	err = c.FindOne(ctx, bson.M{
		"token":      token,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, apperr.Storage(fmt.Errorf("find session: %w", err))
	}
	return sess, true, nil
}

// Delete removes the session for token. Unknown tokens are not an error.
func (s *Store) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	c, err := s.coll()
	if err != nil {
		return err
	}
	if _, err := c.DeleteOne(ctx, bson.M{"token": token}); err != nil {
		return apperr.Storage(fmt.Errorf("delete session: %w", err))
	}
	return nil
}

// CleanupExpired removes expired sessions. This is a backup for when the
// TTL monitor lags behind.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	c, err := s.coll()
	if err != nil {
		return 0, err
	}
	res, err := c.DeleteMany(ctx, bson.M{
		"expires_at": bson.M{"$lte": time.Now().UTC()},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
