package metricsstore_test

import (
	"errors"
	"testing"
	"time"

	metricsstore "github.com/dalemusser/civicbridge/internal/app/store/metrics"
	"github.com/dalemusser/civicbridge/internal/app/system/analytics"
	"github.com/dalemusser/civicbridge/internal/app/system/apperr"
	"github.com/dalemusser/civicbridge/internal/domain/models"
	"github.com/dalemusser/civicbridge/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFetchIssueSummary_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sum, err := metricsstore.FetchIssueSummary(ctx, db)
	if err != nil {
		t.Fatalf("FetchIssueSummary: %v", err)
	}
	if sum.Total != 0 || sum.Open != 0 || sum.Resolved != 0 {
		t.Errorf("counts: got %+v", sum)
	}
	if len(sum.Resolutions) != 0 {
		t.Errorf("Resolutions: got %d", len(sum.Resolutions))
	}
	if analytics.MostCommon(sum.Categories) != analytics.NoCategory {
		t.Errorf("MostCommon: got %q", analytics.MostCommon(sum.Categories))
	}
	if sum.Trending != nil {
		t.Errorf("Trending: got %+v, want nil", sum.Trending)
	}
}

func TestFetchIssueSummary_WithData(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := primitive.NewObjectID()
	t0 := time.Now().UTC().Add(-24 * time.Hour).Truncate(time.Millisecond)
	r1 := t0.Add(time.Hour)
	r2 := t0.Add(3 * time.Hour)

	voters := func(n int) []primitive.ObjectID {
		out := make([]primitive.ObjectID, n)
		for i := range out {
			out[i] = primitive.NewObjectID()
		}
		return out
	}

	fx.CreateIssue(ctx, u, testutil.IssueOpts{Category: "Roads", Status: models.StatusResolved, CreatedAt: t0, ResolvedAt: &r1})
	fx.CreateIssue(ctx, u, testutil.IssueOpts{Category: "Roads", Status: models.StatusVerified, CreatedAt: t0, ResolvedAt: &r2, Upvoters: voters(9)})
	hot := fx.CreateIssue(ctx, u, testutil.IssueOpts{Title: "Hot", Category: "Lighting", Status: models.StatusInProgress, Upvoters: voters(3)})
	fx.CreateIssue(ctx, u, testutil.IssueOpts{Title: "Tie later", Category: "Parks", Upvoters: voters(3)})
	fx.CreateIssue(ctx, u, testutil.IssueOpts{Category: "Roads"})

	sum, err := metricsstore.FetchIssueSummary(ctx, db)
	if err != nil {
		t.Fatalf("FetchIssueSummary: %v", err)
	}
	if sum.Total != 5 || sum.Open != 3 || sum.Resolved != 2 {
		t.Errorf("counts: total=%d open=%d resolved=%d", sum.Total, sum.Open, sum.Resolved)
	}
	if got := analytics.AverageResolution(sum.Resolutions); got != 2*time.Hour {
		t.Errorf("AverageResolution: got %v, want 2h", got)
	}
	if got := analytics.MostCommon(sum.Categories); got != "Roads" {
		t.Errorf("MostCommon: got %q, want Roads", got)
	}
	if sum.Trending == nil || sum.Trending.ID != hot.ID {
		t.Fatalf("Trending: got %+v, want %v", sum.Trending, hot.ID)
	}
	if sum.Trending.UpvoteCount != 3 || sum.Trending.CreatedBy != u {
		t.Errorf("Trending fields: %+v", sum.Trending)
	}
}

func TestFetchIssueSummary_NilDB(t *testing.T) {
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := metricsstore.FetchIssueSummary(ctx, nil)
	if !errors.Is(err, apperr.ErrStoreNotConfigured) {
		t.Errorf("expected ErrStoreNotConfigured, got %v", err)
	}
}

func TestFetchIssueSummary_QueryFailureIsStorageError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	cancel()

	_, err := metricsstore.FetchIssueSummary(ctx, db)
	if apperr.KindOf(err) != apperr.KindStorage {
		t.Errorf("expected a storage error, got %v", err)
	}
}
