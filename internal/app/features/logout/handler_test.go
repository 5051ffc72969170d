package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/civicbridge/internal/app/features/logout"
	"github.com/dalemusser/civicbridge/internal/app/store/audit"
	"github.com/dalemusser/civicbridge/internal/app/system/auditlog"
	"github.com/dalemusser/civicbridge/internal/app/system/auth"
	"github.com/dalemusser/civicbridge/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func expiredCookie(rec *httptest.ResponseRecorder, name string) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name && c.MaxAge < 0 {
			return true
		}
	}
	return false
}

func TestHandleLogout_DeletesSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	logger := zap.NewNop()

	u := testutil.NewFixtures(t, db).CreateResident(ctx, "Rita", "rita@example.com")
	mgr := testutil.NewSessionManager(t, db)

	signin := httptest.NewRecorder()
	if _, err := mgr.SignIn(signin, testutil.NewRequest("POST", "/"), u.ID, u.Role); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	audits := auditlog.New(audit.New(db), logger, auditlog.Config{Auth: auditlog.DestDB})
	h := logout.NewHandler(mgr, audits, logger)
	handler := mgr.LoadSessionUser(logout.Routes(h))

	rec := testutil.NewRecorder()
	handler.ServeHTTP(rec, testutil.CarryCookies(testutil.NewRequest("POST", "/"), signin))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"success":true`)

	if !expiredCookie(rec.ResponseRecorder, mgr.Name()) {
		t.Error("expected the session cookie to be expired")
	}
	n, err := db.Collection("sessions").CountDocuments(ctx, bson.M{"user_id": u.ID})
	if err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if n != 0 {
		t.Errorf("sessions after logout: got %d, want 0", n)
	}

	events, err := audit.New(db).Query(ctx, audit.QueryFilter{UserID: &u.ID, Limit: 10})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 1 || events[0].EventType != audit.EventLogout {
		t.Errorf("expected one logout event, got %+v", events)
	}
}

func TestHandleLogout_WithoutSession(t *testing.T) {
	logger := zap.NewNop()
	mgr, err := auth.NewSessionManager(testutil.TestSessionKey, "civicbridge_session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	h := logout.NewHandler(mgr, nil, logger)

	rec := testutil.NewRecorder()
	logout.Routes(h).ServeHTTP(rec, testutil.NewRequest("POST", "/"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"success":true`)
	if !expiredCookie(rec.ResponseRecorder, "civicbridge_session") {
		t.Error("expected the session cookie to be expired")
	}
}
