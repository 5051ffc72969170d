package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/civicbridge/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// FixturePassword is the plaintext password of every user created by
// Fixtures.CreateUser.
const FixturePassword = "secret123"

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that read chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures creates test data directly in a test database.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a Fixtures bound to db.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user whose password is FixturePassword.
func (f *Fixtures) CreateUser(ctx context.Context, name, email, role string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash fixture password: %v", err)
	}

	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		FullName:     name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateResident inserts a resident user.
func (f *Fixtures) CreateResident(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleResident)
}

// CreateOfficial inserts an official user.
func (f *Fixtures) CreateOfficial(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleOfficial)
}

// IssueOpts tweaks an issue created by CreateIssue. Zero fields take defaults.
type IssueOpts struct {
	Title      string
	Category   string
	Severity   string
	Status     string
	Upvoters   []primitive.ObjectID
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// CreateIssue inserts an issue reported by creator.
func (f *Fixtures) CreateIssue(ctx context.Context, creator primitive.ObjectID, o IssueOpts) models.Issue {
	f.t.Helper()

	if o.Title == "" {
		o.Title = "Pothole"
	}
	if o.Category == "" {
		o.Category = "Roads"
	}
	if o.Severity == "" {
		o.Severity = models.SeverityMedium
	}
	if o.Status == "" {
		o.Status = models.StatusSubmitted
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	upvotes := o.Upvoters
	if upvotes == nil {
		upvotes = []primitive.ObjectID{}
	}

	iss := models.Issue{
		ID:          primitive.NewObjectID(),
		Title:       o.Title,
		Description: o.Title + " description",
		Category:    o.Category,
		CategoryCI:  text.Fold(o.Category),
		Severity:    o.Severity,
		Status:      o.Status,
		CreatedBy:   creator,
		StatusHistory: []models.StatusEntry{{
			Status:    models.StatusSubmitted,
			UpdatedBy: creator,
			Note:      "Issue submitted",
			Timestamp: o.CreatedAt,
		}},
		Upvotes:     upvotes,
		UpvoteCount: len(upvotes),
		ResolvedAt:  o.ResolvedAt,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.CreatedAt,
	}
	if _, err := f.db.Collection("issues").InsertOne(ctx, iss); err != nil {
		f.t.Fatalf("failed to create test issue: %v", err)
	}
	return iss
}
