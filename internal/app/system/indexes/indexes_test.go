package indexes_test

import (
	"testing"

	"github.com/dalemusser/civicbridge/internal/app/system/indexes"
	"github.com/dalemusser/civicbridge/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func indexNames(t *testing.T, db *mongo.Database, coll string) map[string]bson.M {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes on %s failed: %v", coll, err)
	}
	defer cur.Close(ctx)

	out := map[string]bson.M{}
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			out[name] = idx
		}
	}
	return out
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("first EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	want := map[string][]string{
		"users":        {"uniq_users_email", "idx_users_role"},
		"sessions":     {"uniq_sessions_token", indexes.SessionTTLIndex, "idx_sessions_user"},
		"issues":       {"idx_issues_created__id", "idx_issues_status_created", "idx_issues_categoryci_created", "idx_issues_status_upvotes__id"},
		"audit_events": {"idx_audit_timestamp", "idx_audit_user_timestamp", "idx_audit_category_type_timestamp"},
	}
	for coll, names := range want {
		got := indexNames(t, db, coll)
		for _, n := range names {
			if _, ok := got[n]; !ok {
				t.Errorf("%s: missing index %q", coll, n)
			}
		}
	}

	ttl := indexNames(t, db, "sessions")[indexes.SessionTTLIndex]
	if v, ok := ttl["expireAfterSeconds"]; !ok {
		t.Error("sessions TTL index has no expireAfterSeconds")
	} else if n, _ := v.(int32); n != 0 {
		t.Errorf("expireAfterSeconds: got %v, want 0", v)
	}
}

func TestEnsureAll_RecreatesMismatchedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Same keys, different name and not unique.
	_, err := db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("legacy_email"),
	})
	if err != nil {
		t.Fatalf("seed index: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	got := indexNames(t, db, "users")
	if _, ok := got["legacy_email"]; ok {
		t.Error("legacy_email should have been dropped")
	}
	idx, ok := got["uniq_users_email"]
	if !ok {
		t.Fatal("uniq_users_email missing")
	}
	if u, _ := idx["unique"].(bool); !u {
		t.Error("uniq_users_email should be unique")
	}
}

func TestEnsureAll_DuplicateEmailsReported(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	users := db.Collection("users")
	for i := 0; i < 2; i++ {
		if _, err := users.InsertOne(ctx, bson.M{"email": "dup@example.com"}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	if err := indexes.EnsureAll(ctx, db); err == nil {
		t.Fatal("expected error when duplicates block the unique index")
	}
}
