package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/civicbridge/internal/app/store/sessions"
	"github.com/dalemusser/civicbridge/internal/app/system/validators"
	"github.com/dalemusser/civicbridge/internal/domain/models"
	"github.com/dalemusser/civicbridge/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func setup(t *testing.T) *testutil.Fixtures {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return testutil.NewFixtures(t, db)
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("first EnsureAll failed: %v", err)
	}
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := map[string]bool{}
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{"users", "sessions", "issues", "audit_events"} {
		if !have[want] {
			t.Errorf("expected collection %q to exist", want)
		}
	}
}

func TestUsersValidator(t *testing.T) {
	fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	users := fx.DB().Collection("users")

	tests := []struct {
		name    string
		doc     bson.M
		wantErr bool
	}{
		{"missing fields", bson.M{"email": "a@example.com"}, true},
		{"blank name", bson.M{"full_name": "  ", "email": "a@example.com", "password_hash": "x", "role": "resident"}, true},
		{"bad role", bson.M{"full_name": "A", "email": "b@example.com", "password_hash": "x", "role": "admin"}, true},
		{"resident", bson.M{"full_name": "A", "email": "c@example.com", "password_hash": "x", "role": "resident"}, false},
		{"official", bson.M{"full_name": "B", "email": "d@example.com", "password_hash": "x", "role": "official"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := users.InsertOne(ctx, tt.doc)
			if (err != nil) != tt.wantErr {
				t.Errorf("InsertOne err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	// Documents written through the fixtures (bcrypt hash, normalized email) pass.
	fx.CreateResident(ctx, "Rita Resident", "Rita@Example.com")
}

func TestIssuesValidator(t *testing.T) {
	fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	issues := fx.DB().Collection("issues")

	valid := func() bson.M {
		return bson.M{
			"title":          "Pothole",
			"description":    "Deep hole",
			"category":       "Roads",
			"severity":       models.SeverityHigh,
			"status":         models.StatusSubmitted,
			"created_by":     primitive.NewObjectID(),
			"status_history": bson.A{bson.M{"status": models.StatusSubmitted}},
			"upvotes":        bson.A{},
			"upvote_count":   0,
		}
	}

	if _, err := issues.InsertOne(ctx, valid()); err != nil {
		t.Fatalf("valid issue rejected: %v", err)
	}

	for field, bad := range map[string]interface{}{
		"severity":       "Critical",
		"status":         "Closed",
		"status_history": bson.A{},
		"upvote_count":   -1,
		"title":          "",
	} {
		doc := valid()
		doc[field] = bad
		if _, err := issues.InsertOne(ctx, doc); err == nil {
			t.Errorf("expected %s=%v to be rejected", field, bad)
		}
	}

	// The fixture path mirrors the issue store's writes.
	owner := fx.CreateResident(ctx, "Rita Resident", "rita@example.com")
	resolved := time.Now().UTC()
	fx.CreateIssue(ctx, owner.ID, testutil.IssueOpts{Status: models.StatusResolved, ResolvedAt: &resolved})
}

func TestSessionsValidator(t *testing.T) {
	fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := fx.DB().Collection("sessions").InsertOne(ctx, bson.M{"token": "abc"}); err == nil {
		t.Error("expected session without user/role/expiry to be rejected")
	}

	store := sessions.New(fx.DB())
	if _, err := store.Create(ctx, primitive.NewObjectID(), models.RoleOfficial); err != nil {
		t.Errorf("store-created session rejected: %v", err)
	}
}
