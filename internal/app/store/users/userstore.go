package userstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/civicbridge/internal/app/system/apperr"
	"github.com/dalemusser/civicbridge/internal/app/system/normalize"
	"github.com/dalemusser/civicbridge/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	if db == nil {
		return &Store{}
	}
	return &Store{c: db.Collection("users")}
}

func (s *Store) coll() (*mongo.Collection, error) {
	if s == nil || s.c == nil {
		return nil, apperr.ErrStoreNotConfigured
	}
	return s.c, nil
}

var errBadRole = errors.New(`role must be "resident"|"official"`)

// Create inserts a new user after normalizing the name, email and role.
// PasswordHash must already be set. A second account for the same email
// fails with apperr.ErrDuplicateEmail.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	c, err := s.coll()
	if err != nil {
		return models.User{}, err
	}

	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.Email = normalize.Email(u.Email)
	if !models.IsValidRole(u.Role) {
		return models.User{}, apperr.Wrap(apperr.KindValidation, "Invalid role", errBadRole)
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, apperr.ErrDuplicateEmail
		}
		return models.User{}, apperr.Storage(fmt.Errorf("insert user: %w", err))
	}
	return u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail looks up a user by normalized email. Unknown addresses return
// apperr.ErrUserNotFound.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	c, err := s.coll()
	if err != nil {
		return nil, err
	}
	var u models.User
	err = c.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.ErrUserNotFound
	}
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("find user: %w", err))
	}
	return &u, nil
}

// NamesByIDs returns display names keyed by user id. Ids with no matching
// user are absent from the map.
func (s *Store) NamesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	out := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	c, err := s.coll()
	if err != nil {
		return nil, err
	}

	cur, err := c.Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"_id": 1, "full_name": 1}))
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("find user names: %w", err))
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID       primitive.ObjectID `bson:"_id"`
			FullName string             `bson:"full_name"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, apperr.Storage(err)
		}
		out[row.ID] = row.FullName
	}
	if err := cur.Err(); err != nil {
		return nil, apperr.Storage(err)
	}
	return out, nil
}

// Count returns the number of users holding role, or all users when role is
// empty.
func (s *Store) Count(ctx context.Context, role string) (int64, error) {
	c, err := s.coll()
	if err != nil {
		return 0, err
	}
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	return c.CountDocuments(ctx, filter)
}
